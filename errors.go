package barscan

import "errors"

var (
	// ErrInvalidImage is returned when an image has no pixels or its
	// buffer is smaller than its geometry requires.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnsupported is returned when a setting does not apply to the
	// symbology it was addressed to.
	ErrUnsupported = errors.New("unsupported setting")

	// ErrInvalidConfig is returned when a configuration string cannot be
	// parsed.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrFormat is returned when contents cannot be encoded in the
	// requested symbology.
	ErrFormat = errors.New("format error")

	// ErrChecksum is returned when supplied contents carry a wrong check
	// digit.
	ErrChecksum = errors.New("checksum error")
)
