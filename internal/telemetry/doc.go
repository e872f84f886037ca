// Package telemetry implements the telemetry hub for the WiFi Station
// Container.
//
// The hub fans out link and command events to all SSE clients and buffers
// the last N events per modem for reconnection support using Last-Event-ID
// headers.
package telemetry
