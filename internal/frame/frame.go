// Package frame implements the wire-level message framing: a 4-byte
// big-endian length prefix followed by exactly that many bytes of opaque
// payload. It knows nothing about what the payload means.
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/nikshvein/personhub/internal/errs"
)

// MaxPayloadLen is the largest payload accepted in a single frame.
// Frames claiming a larger length are a framing error and close the
// connection.
const MaxPayloadLen = 16 * 1024 * 1024 // 16 MiB

const lenPrefixSize = 4

type decoderState int

const (
	stateNeedLen decoderState = iota
	stateNeedBody
)

// Decoder is a streaming state machine that turns a byte stream into a
// sequence of complete payloads. It is not safe for concurrent use; each
// connection owns exactly one Decoder.
type Decoder struct {
	state   decoderState
	lenBuf  [lenPrefixSize]byte
	lenHave int

	bodyLen  uint32
	bodyBuf  []byte
	bodyHave uint32
}

// NewDecoder returns a Decoder ready to accept bytes.
func NewDecoder() *Decoder {
	return &Decoder{state: stateNeedLen}
}

// Feed consumes chunk and returns every payload completed by it, in wire
// order. Partial data is retained across calls. Feeding a chunk byte by
// byte yields the same sequence of payloads as feeding it in one call.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	var out [][]byte

	for len(chunk) > 0 {
		switch d.state {
		case stateNeedLen:
			n := copy(d.lenBuf[d.lenHave:], chunk)
			d.lenHave += n
			chunk = chunk[n:]
			if d.lenHave < lenPrefixSize {
				continue
			}
			d.bodyLen = binary.BigEndian.Uint32(d.lenBuf[:])
			d.lenHave = 0
			if d.bodyLen > MaxPayloadLen {
				return out, fmt.Errorf("%w: frame length %d exceeds maximum %d", errs.ErrFraming, d.bodyLen, uint32(MaxPayloadLen))
			}
			d.bodyBuf = make([]byte, d.bodyLen)
			d.bodyHave = 0
			d.state = stateNeedBody
			if d.bodyLen == 0 {
				out = append(out, d.bodyBuf)
				d.state = stateNeedLen
			}

		case stateNeedBody:
			n := copy(d.bodyBuf[d.bodyHave:], chunk)
			d.bodyHave += uint32(n)
			chunk = chunk[n:]
			if d.bodyHave < d.bodyLen {
				continue
			}
			out = append(out, d.bodyBuf)
			d.bodyBuf = nil
			d.state = stateNeedLen
		}
	}

	return out, nil
}

// AtMessageBoundary reports whether the decoder currently holds no
// partial frame. Used to distinguish a clean EOF from a truncated one.
func (d *Decoder) AtMessageBoundary() bool {
	return d.state == stateNeedLen && d.lenHave == 0
}

// ErrTruncated returns the framing error for a stream that ended with a
// partial frame still buffered.
func ErrTruncated() error {
	return fmt.Errorf("%w: connection closed mid-frame", errs.ErrFraming)
}

// Encode produces the wire representation of payload: a 4-byte
// big-endian length prefix followed by the payload bytes.
func Encode(payload []byte) []byte {
	out := make([]byte, lenPrefixSize+len(payload))
	binary.BigEndian.PutUint32(out[:lenPrefixSize], uint32(len(payload)))
	copy(out[lenPrefixSize:], payload)
	return out
}
