package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess  = 0 // Batch ranked
	ExitRejected = 1 // --strict and at least one record was rejected
	ExitError    = 2 // Configuration, input or runtime error
)

// RejectedError reports that ranking finished but --strict was set and some
// records failed validation.
type RejectedError struct {
	Count int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%d task(s) rejected", e.Count)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			os.Exit(ExitRejected)
		}
		os.Exit(ExitError)
	}
}
