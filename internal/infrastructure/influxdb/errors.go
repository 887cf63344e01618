package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when the mirror is switched off
	// in configuration.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrConnectionFailed is returned when the initial health check fails.
	ErrConnectionFailed = errors.New("influxdb: connection failed")
)
