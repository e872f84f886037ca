package atcmd

import (
	"errors"
	"fmt"
)

// Transport outcome sentinels. ErrWouldBlock reports that the underlying
// channel did not complete the exchange synchronously; the station adapter
// treats it as a configuration fault, never as a retryable condition.
var (
	ErrWouldBlock = errors.New("WOULD_BLOCK")
)

// Response carries the informational lines the modem returned before the
// terminal "OK" for a command exchange. Unsolicited lines are not part of
// a Response; they surface through NotificationSource.
type Response struct {
	Lines []string
}

// CommandChannel is the narrow port the station adapter consumes for
// outbound commands. Implementations must operate in blocking-or-timeout
// mode: Send returns a definitive outcome or ErrWouldBlock, never an
// in-flight state.
type CommandChannel interface {
	Send(cmd Command) (*Response, error)
}

// NotificationSource delivers classified unsolicited notifications.
// PollNotification returns the next buffered notification in arrival
// order, or ok=false when none is pending. It never blocks.
type NotificationSource interface {
	PollNotification() (Notification, bool)
}

// CommandFailedError reports that the modem answered a command with its
// error final result code rather than OK.
type CommandFailedError struct {
	Command string
	Result  string
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("command %s failed: modem returned %s", e.Command, e.Result)
}
