// Package api implements the HTTP API gateway for the WiFi Station Container.
//
// The API gateway exposes northbound HTTP/JSON commands and SSE endpoints,
// translating HTTP requests into orchestrator calls against the active modem.
package api
