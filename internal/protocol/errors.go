package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection: the TCP session could not be established or was lost. Reconnect.
	ErrConnection = errors.New("protocol: connection error")
	// ErrTimeout: no complete response before the deadline. The connection stays usable.
	ErrTimeout = errors.New("protocol: timeout")
	// ErrProtocol: a non-empty response could not be decoded.
	ErrProtocol = errors.New("protocol: undecodable response")
	// ErrDevice: a well-formed response with a non-ok status.
	ErrDevice = errors.New("protocol: device error")
)

// ProtocolError carries the raw bytes that failed to decode.
type ProtocolError struct {
	Raw []byte
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %v (raw=%q)", ErrProtocol, e.Err, truncate(e.Raw, 128))
}

func (e *ProtocolError) Unwrap() []error {
	return []error{ErrProtocol, e.Err}
}

// DeviceError reports a non-ok status returned by the printer for one request.
type DeviceError struct {
	Verb     Verb
	Path     string
	Status   string
	Response Response
}

func (e *DeviceError) Error() string {
	msg := e.Response.String("message")
	if msg == "" {
		msg = e.Response.String("error")
	}
	if msg != "" {
		return fmt.Sprintf("%v: %s %s status=%q message=%q", ErrDevice, e.Verb, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("%v: %s %s status=%q", ErrDevice, e.Verb, e.Path, e.Status)
}

func (e *DeviceError) Unwrap() error {
	return ErrDevice
}

// CheckStatus returns a *DeviceError when resp is present and not ok.
// A nil response (no reply) is not a device error.
func CheckStatus(req Request, resp Response) error {
	if resp == nil || resp.OK() {
		return nil
	}
	return &DeviceError{
		Verb:     req.Verb,
		Path:     req.Path,
		Status:   resp.Status(),
		Response: resp,
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
