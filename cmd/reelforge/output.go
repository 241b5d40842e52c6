package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderOutcome(out io.Writer, ok bool, message string) {
	label := "OK"
	color := ansiGreen
	if !ok {
		label = "FAILED"
		color = ansiRed
	}
	if shouldColorize(out) {
		fmt.Fprintf(out, "%s[%s]%s %s\n", color, label, ansiReset, message)
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", label, message)
}
