package device

import "fmt"

// IOError is a transport failure or timeout. Phase names the protocol
// operation that was in flight; timeouts are terminal, the loop never
// retries (a silent instrument is assumed wedged and reconnection is the
// caller's call).
type IOError struct {
	Phase string
	Err   error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("device: io: %s: %v", e.Phase, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DecodeError is a malformed response: bad JSON, an unparseable numeric
// field, or an unknown enum string. Header disambiguation failures arrive
// here wrapping a data.HeadDecodeError that carries both parse attempts.
type DecodeError struct {
	Phase string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("device: decode: %s: %v", e.Phase, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func ioErr(phase string, err error) error {
	return &IOError{Phase: phase, Err: err}
}

func decodeErr(phase string, err error) error {
	return &DecodeError{Phase: phase, Err: err}
}
