package station

import (
	"errors"
	"fmt"

	"github.com/radio-control/wsc/internal/atcmd"
)

// Normalized join error codes. The set is closed: every failure a join or
// persistence call can produce maps to exactly one of these.
var (
	// ErrInvalidSSIDLength reports an SSID longer than the 32-byte
	// protocol limit. Detected locally, no command is issued.
	ErrInvalidSSIDLength = errors.New("INVALID_SSID_LENGTH")

	// ErrInvalidPasswordLength reports a pre-shared key longer than the
	// 63-byte protocol limit. Detected locally, no command is issued.
	ErrInvalidPasswordLength = errors.New("INVALID_PASSWORD_LENGTH")

	// ErrUnexpectedWouldBlock reports that the command channel was not
	// configured for blocking-or-timeout operation. Callers must not
	// retry without reconfiguring the transport.
	ErrUnexpectedWouldBlock = errors.New("UNEXPECTED_WOULD_BLOCK")

	// ErrConfigStoreFailed is the code for a failed persistence-mode command.
	ErrConfigStoreFailed = errors.New("CONFIG_STORE_FAILED")

	// ErrModeFailed is the code for a failed station-mode command.
	ErrModeFailed = errors.New("MODE_FAILED")

	// ErrConnectFailed is the code for a failed access-point connect command.
	ErrConnectFailed = errors.New("CONNECT_FAILED")
)

// CommandError wraps the opaque transport error behind a normalized code.
type CommandError struct {
	Code  error // one of ErrConfigStoreFailed, ErrModeFailed, ErrConnectFailed
	Cause error // underlying transport error, surfaced verbatim
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%v (transport: %v)", e.Code, e.Cause)
}

func (e *CommandError) Unwrap() error {
	return e.Code
}

// translateSendError maps a command-channel failure to the domain taxonomy:
// a would-block outcome becomes ErrUnexpectedWouldBlock regardless of which
// command produced it, anything else is wrapped under the given code.
func translateSendError(code error, err error) error {
	if errors.Is(err, atcmd.ErrWouldBlock) {
		return ErrUnexpectedWouldBlock
	}
	return &CommandError{Code: code, Cause: err}
}
