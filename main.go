// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"audioviz/cmd"
	applog "audioviz/internal/log"
	"audioviz/pkg/build"
)

// main runs the command line until the pipeline ends or a termination
// signal cancels it. Producers and consumers watch the same context, so a
// signal stops capture, drains the frame channel and closes every sink.
func main() {
	// Development builds carry no ldflags; run with the defaults.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}
