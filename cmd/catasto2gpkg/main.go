package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/geodati/catasto2gpkg/internal/cli"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(catasto.ExitPanic)
		}
	}()

	if os.Getenv("CATASTO_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(catasto.ExitCodeForError(err))
	}
}
