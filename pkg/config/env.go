package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// envReader reads VST3HOST_* variables and collects parse errors.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(key, value string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, key, value, err))
}

// getString returns an environment variable value or a default
func (e *envReader) getString(key, defaultValue string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return defaultValue
}

// getInt returns an integer environment variable or a default
func (e *envReader) getInt(key string, defaultValue int) int {
	v, ok := e.lookup(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return defaultValue
	}
	return n
}

// getFloat returns a float environment variable or a default
func (e *envReader) getFloat(key string, defaultValue float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return defaultValue
	}
	return f
}

// getBool returns a boolean environment variable or a default
func (e *envReader) getBool(key string, defaultValue bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return defaultValue
	}
	return b
}

// getDuration returns a duration environment variable or a default
func (e *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return defaultValue
	}
	return d
}
