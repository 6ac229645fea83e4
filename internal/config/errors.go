package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrInvalidPort error if config webserver listening port is out of range.
	ErrInvalidPort = errors.New("config webserver.port must be between 1 and 65535")

	// ErrUnknownEngine error if config db.gormEngine is not supported.
	ErrUnknownEngine = errors.New("config db.gormEngine must be one of mysql, postgres, sqlite")

	// ErrInvalidConfig wraps every other validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)
