package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Benchmark completed, all tasks ran
	ExitRunFailed = 1 // Benchmark completed but one or more tasks errored
	ExitError     = 2 // Configuration or runtime error
)

// RunFailureError indicates the benchmark itself completed, but one or more
// task executions ended in an error status.
type RunFailureError struct {
	Message string
}

func (e *RunFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var runFailure *RunFailureError
		if errors.As(err, &runFailure) {
			os.Exit(ExitRunFailed)
		}

		os.Exit(ExitError)
	}
}
