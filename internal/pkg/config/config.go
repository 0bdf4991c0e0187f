package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond retrieves the value associated with key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value associated with key as a number of minutes.
	GetMinute(key string) time.Duration

	// GetDuration retrieves the value associated with key as a Go duration string (e.g. "15s").
	GetDuration(key string) time.Duration
}

// NumberConfig defines helpers for retrieving numeric configuration values.
// Missing or malformed values yield the zero value.
type NumberConfig interface {
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
}

// Config defines a set of methods for retrieving configuration values of various types.
// Implementations return zero values for missing keys; callers decide the defaults.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	// GetBool retrieves the value associated with key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value associated with key as a string.
	GetString(key string) string

	// GetBinary retrieves the value associated with key decoded from base64.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with key as a slice of strings.
	// The value is stored with format <element1>,<element2>,...
	// An empty value yields an empty slice.
	GetArray(key string) []string
}
