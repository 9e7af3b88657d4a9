package lithium

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// InterruptibleContext returns a context canceled on SIGINT or SIGTERM, so
// a long-running build, sandbox run, or component load can unwind (and run
// its registered shutdown hooks) instead of being killed outright.
func InterruptibleContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		// A second signal terminates immediately, in case a shutdown hook hangs.
		signal.Stop(sig)
		cancel()
	}()
	return ctx, cancel
}
