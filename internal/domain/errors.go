package domain

import "fmt"

// ConfigError means the unified architecture document is missing required
// fields or cannot be parsed. Fatal before training starts.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %v: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

func Configf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ShapeError means a tensor dimension precondition is violated: a sample
// feature vector does not match input_size, or the attention head count does
// not divide the channel size. Fatal at construction time.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string { return "shape: " + e.Msg }

func Shapef(format string, args ...any) error {
	return &ShapeError{Msg: fmt.Sprintf(format, args...)}
}

// DataGenerationError means the external self-play worker failed or produced
// a malformed response document. Fatal, aborts the run.
type DataGenerationError struct {
	Msg string
	Err error
}

func (e *DataGenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("datagen: %v: %v", e.Msg, e.Err)
	}
	return "datagen: " + e.Msg
}

func (e *DataGenerationError) Unwrap() error { return e.Err }

func Datagenf(format string, args ...any) error {
	return &DataGenerationError{Msg: fmt.Sprintf(format, args...)}
}
