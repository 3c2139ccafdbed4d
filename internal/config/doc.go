// Package config defines the relay settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the HTTP listen address, the alarm log path, the
// per-source alert interval, the simulated sensor parameters and the
// SMS/email channel credentials. Validation fills defaults and rejects
// unusable values before the pipeline starts.
package config
