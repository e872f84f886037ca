// Package audit implements the audit logger for the WiFi Station Container.
//
// The audit logger provides append-only action logging with user, modemId,
// parameters, outcome, and timestamp information for compliance and debugging.
package audit
