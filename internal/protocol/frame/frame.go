package frame

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Terminator ends every document on the wire in both directions.
var Terminator = []byte{'\r', '\n'}

var (
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
	ErrEmptyPayload       = errors.New("frame: empty payload")
	ErrEmbeddedTerminator = errors.New("frame: payload contains terminator")
)

// Frame is one document read off the stream.
// Terminated is false when the peer closed the stream before sending CR LF.
type Frame struct {
	Payload    []byte
	Terminated bool
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 8 * 1024 * 1024,
	}
}

// ReadFrame accumulates bytes until the buffer ends with the terminator or the
// peer closes the stream. The terminator is stripped from the payload.
// Any other read error is returned as-is and the partial buffer is dropped.
func ReadFrame(r *bufio.Reader, limits Limits) (Frame, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		buf = append(buf, chunk...)
		if limits.MaxPayloadBytes > 0 && len(buf) > limits.MaxPayloadBytes+len(Terminator) {
			return Frame{}, ErrPayloadTooLarge
		}
		switch {
		case err == nil:
			if bytes.HasSuffix(buf, Terminator) {
				return Frame{Payload: buf[:len(buf)-len(Terminator)], Terminated: true}, nil
			}
		case errors.Is(err, bufio.ErrBufferFull):
			// keep accumulating
		case errors.Is(err, io.EOF):
			return Frame{Payload: buf, Terminated: false}, nil
		default:
			return Frame{}, err
		}
	}
}

// WriteFrame writes payload followed by the terminator in one write.
func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if limits.MaxPayloadBytes > 0 && len(payload) > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	if bytes.Contains(payload, Terminator) {
		return ErrEmbeddedTerminator
	}
	out := make([]byte, 0, len(payload)+len(Terminator))
	out = append(out, payload...)
	out = append(out, Terminator...)
	_, err := w.Write(out)
	return err
}
