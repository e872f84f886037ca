// Package config implements the configuration store for the WiFi Station
// Container.
//
// The store merges baseline timing values with WSC_* environment overrides
// and optional config.json / modems.json files, then validates the result
// before the service starts.
package config
