package iotagent

import "errors"

// Domain-specific errors for IoT Agent operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoSouthPort is returned when a device measurement arrives but no
	// south-port URL could be configured or derived.
	ErrNoSouthPort = errors.New("iotagent: no south port configured")

	// ErrMissingDeviceKey is returned when a measurement lacks the API key
	// or device identifier the agent requires.
	ErrMissingDeviceKey = errors.New("iotagent: api key and device id are required")
)
