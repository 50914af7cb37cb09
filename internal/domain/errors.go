package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedQuestion is returned when a question record lacks a title or an answer.
var ErrMalformedQuestion = errors.New("malformed question")

// LoadError reports that a question or player source could not be read or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError reports that a ledger snapshot could not be persisted.
type SaveError struct {
	Target string
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Target, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// ConfigurationError aborts initialization; the engine never runs on partial data.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
