// Package application holds application-level identity constants.
package application

const (
	// AppName is the application name used for directories and identification
	AppName = "burnoutctl"

	// Version is the release version stamped into --version output.
	Version = "0.3.0"
)
