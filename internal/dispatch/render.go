package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Gerardo115pp/Dexnet/internal/command"
)

type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("internal error: %v", e.value)
}

func unknownReply(body string) string {
	return fmt.Sprintf("Unknown command '%s'", strings.TrimSpace(body))
}

func argumentReply(err error) string {
	var argErr *command.ArgumentError
	if errors.As(err, &argErr) {
		text := fmt.Sprintf("Invalid arguments for %s: %v", argErr.Command, argErr.Err)
		if argErr.Usage != "" {
			text += ". Usage: " + argErr.Usage
		}
		return text
	}
	return fmt.Sprintf("Invalid arguments: %v", err)
}

func failureReply(name string, err error) string {
	return fmt.Sprintf("Error performing %s: %v", name, err)
}
