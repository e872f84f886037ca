// Package atcmd defines the command-layer ports for AT-style WiFi modems:
// the outbound command payloads the station adapter issues, the channel
// interface that carries them, and the closed set of unsolicited result
// codes (URCs) that report connection state changes out of band.
package atcmd
