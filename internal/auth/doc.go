// Package auth implements authentication and authorization for the WiFi
// Station Container.
//
// The auth package validates bearer tokens and enforces scopes for modem
// operations, distinguishing read, control and telemetry permissions.
package auth
