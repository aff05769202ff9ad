// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tkm427/spectrum-analyzer/cmd"
	applog "github.com/tkm427/spectrum-analyzer/internal/log"
)

func main() {
	// One OS thread for the audio callback, one for everything else.
	runtime.GOMAXPROCS(2)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		applog.Fatalf("%v", err)
	}
}
