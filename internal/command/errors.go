package command

import "fmt"

// UnknownError is returned when no declared command matches the input.
type UnknownError struct {
	Input string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown command '%s'", e.Input)
}

// ArgumentError is returned when a matched command's flags or positionals
// cannot be bound to its argument record.
type ArgumentError struct {
	Command string
	Usage   string
	Err     error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }
