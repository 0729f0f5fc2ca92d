package server

import (
	"github.com/op/go-logging"

	"github.com/nikshvein/personhub/internal/errs"
)

var poolLog = logging.MustGetLogger("server.pool")

// Pool is a fixed-size worker pool backed by a bounded task queue. A task
// submitted while the queue is full is rejected and logged rather than
// blocking the caller or growing memory without bound.
type Pool struct {
	name  string
	tasks chan func()
	done  chan struct{}
}

// NewPool starts a Pool of workers goroutines, each pulling from a queue
// of the given capacity. name only affects log lines.
func NewPool(name string, workers, queueCapacity int) *Pool {
	p := &Pool{
		name:  name,
		tasks: make(chan func(), queueCapacity),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task()
		case <-p.done:
			return
		}
	}
}

// Submit enqueues task. It returns errs.ErrBackpressure without running
// task if the queue is saturated.
func (p *Pool) Submit(task func()) error {
	select {
	case p.tasks <- task:
		return nil
	default:
		poolLog.Warningf("%s pool saturated, rejecting task", p.name)
		return errs.ErrBackpressure
	}
}

// Close signals every worker to exit once its current task, if any,
// completes. It does not stop Submit: tasks still queued, or submitted
// after Close, may never run.
func (p *Pool) Close() {
	close(p.done)
}
