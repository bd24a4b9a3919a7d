package config

import "errors"

// ErrConfigNotFound is returned by Load when the requested path does not
// exist.
var ErrConfigNotFound = errors.New("config file not found")
