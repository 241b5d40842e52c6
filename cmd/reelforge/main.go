package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Ctrl-C during a long generate should exit quietly.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "reelforge:", err)
		}
		os.Exit(1)
	}
}
