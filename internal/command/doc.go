// Package command implements the command orchestrator for the WiFi Station
// Container.
//
// The orchestrator validates requests, serializes adapter access over the
// shared AT channel, calls station adapter methods under per-class
// timeouts, emits events to the telemetry hub, and writes audit logs.
package command
