package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/nikshvein/personhub/internal/errs"
)

// writer accumulates a self-describing binary payload field by field.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

func (w *writer) writeUint8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *writer) writeInt64(v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	w.buf.Write(b[:])
}

func (w *writer) writeFloat64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf.Write(b[:])
}

func (w *writer) writeString(s string) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(len(s)))
	w.buf.Write(b[:])
	w.buf.WriteString(s)
}

func (w *writer) writeCount(n int) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	w.buf.Write(b[:])
}

// writePresent writes the present/absent marker for an optional field.
func (w *writer) writePresent(present bool) {
	if present {
		w.writeUint8(1)
	} else {
		w.writeUint8(0)
	}
}

// reader consumes a self-describing binary payload field by field,
// returning errs.ErrDecode-wrapped errors on any short read.
type reader struct {
	buf *bytes.Reader
}

func newReader(payload []byte) *reader {
	return &reader{buf: bytes.NewReader(payload)}
}

func (r *reader) readUint8() (uint8, error) {
	b, err := r.buf.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("%w: read tag byte: %v", errs.ErrDecode, err)
	}
	return b, nil
}

func (r *reader) readN(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.buf, b); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes: %v", errs.ErrDecode, n, err)
	}
	return b, nil
}

func (r *reader) readInt64() (int64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *reader) readFloat64() (float64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

func (r *reader) readString() (string, error) {
	lb, err := r.readN(4)
	if err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lb)
	if n > MaxStringLen {
		return "", fmt.Errorf("%w: string length %d exceeds maximum", errs.ErrDecode, n)
	}
	sb, err := r.readN(int(n))
	if err != nil {
		return "", err
	}
	return string(sb), nil
}

func (r *reader) readCount() (int, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(b)
	if n > MaxSequenceLen {
		return 0, fmt.Errorf("%w: sequence length %d exceeds maximum", errs.ErrDecode, n)
	}
	return int(n), nil
}

func (r *reader) readPresent() (bool, error) {
	v, err := r.readUint8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: invalid presence marker %d", errs.ErrDecode, v)
	}
}

func (r *reader) requireExhausted() error {
	if r.buf.Len() != 0 {
		return fmt.Errorf("%w: %d trailing bytes after decode", errs.ErrDecode, r.buf.Len())
	}
	return nil
}

const (
	// MaxStringLen bounds a single string field to guard against a
	// corrupt length prefix forcing a huge allocation.
	MaxStringLen = 1 << 20
	// MaxSequenceLen bounds a single sequence's element count for the
	// same reason.
	MaxSequenceLen = 1 << 16
)
