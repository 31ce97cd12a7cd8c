package errs

import (
	"github.com/pkg/errors"
)

// Coded error kinds a top-level streaming component can surface to
// the process supervisor in cmd/serve.go.
const (
	CodeConnectSetup     = 1001
	CodeSend             = 1002
	CodeReceive          = 1003
	CodeEncoder          = 1004
	CodeData             = 1005
	CodeTimeout          = 1006
	CodeTsfUnavailable   = 1007
	CodeProtocolMismatch = 1008
	CodeUnknown          = 9999
)

// Sentinel errors paired with the codes above, in the same
// construct-once-wrap-with-context style as the rest of this package:
// call sites use Wrapf(errs.ErrX, "component: detail: %v", err) rather
// than minting a fresh *Error per call.
var (
	ErrConnectSetup     = New(CodeConnectSetup, "connect setup failed")
	ErrSend             = New(CodeSend, "send failed")
	ErrReceive          = New(CodeReceive, "receive failed")
	ErrEncoder          = New(CodeEncoder, "encoder failed")
	ErrData             = New(CodeData, "data error")
	ErrTimeout          = New(CodeTimeout, "timed out")
	ErrTsfUnavailable   = New(CodeTsfUnavailable, "tsf unavailable")
	ErrProtocolMismatch = New(CodeProtocolMismatch, "protocol mismatch")
)

const (
	Success = "success"
)

type Error struct {
	Code int32
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func New(code int32, msg string) error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func Code(e error) int32 {
	if e == nil {
		return 0
	}
	err, ok := errors.Cause(e).(*Error)
	if !ok {
		return CodeUnknown
	}

	if err == (*Error)(nil) {
		return 0
	}
	return err.Code
}

func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := errors.Cause(e).(*Error)
	if !ok {
		return "unknown error: " + e.Error()
	}

	if err == (*Error)(nil) {
		return Success
	}

	return err.Msg
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
