// Package station implements the WiFi station adapter: the join sequence
// that associates an AT-command modem with an access point, and the state
// machine that folds unsolicited connection notifications into a live view
// of the link.
//
// The adapter is single-threaded by contract. Command issuance and
// notification draining execute to completion on the caller's goroutine;
// callers that need concurrent access must serialize it themselves (the
// command orchestrator is that boundary in this container).
package station
