// internal/xymon/errors.go
package xymon

import "errors"

var (
	// ErrInvalidSeverity is returned when a color token is not one of
	// the three Xymon levels.
	ErrInvalidSeverity = errors.New("xymon: illegal color")

	// ErrInvalidLifetime is returned when a lifetime is not a positive
	// number of minutes.
	ErrInvalidLifetime = errors.New("xymon: lifetime must be a positive number of minutes")

	// ErrMissingMachine is returned when the reporting host identity
	// cannot be resolved from the MACHINE environment variable.
	ErrMissingMachine = errors.New("xymon: environment variable MACHINE is not set")

	// ErrNoCollector is returned when neither XYMONSERVERS nor the
	// legacy XYMSRV variable names a collector.
	ErrNoCollector = errors.New("xymon: no collector configured (XYMONSERVERS or XYMSRV)")

	// ErrInvalidPort is returned when XYMONDPORT is set but does not
	// hold a valid TCP port.
	ErrInvalidPort = errors.New("xymon: XYMONDPORT is not a valid port")
)
