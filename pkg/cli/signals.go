package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals are the signals that request a graceful stop. SIGKILL is
// not catchable, so there is nothing to register for it.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context cancelled by the first SIGINT or
// SIGTERM. Commands that plumb a context through their components use this;
// after cancellation a second signal kills the process with the default
// handler, so a wedged shutdown can still be interrupted.
func SetupSignalHandler() context.Context {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx
}

// WaitForShutdown returns a channel that delivers the first shutdown signal.
// Commands that select over several completion sources use this instead of
// SetupSignalHandler, since they need the signal value for logging.
func WaitForShutdown() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, shutdownSignals...)
	return ch
}
