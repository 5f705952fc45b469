package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is canceled on SIGINT or SIGTERM
// or when parent is done. Call stop to release the handler early.
func SetupSignalHandler(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("Shutdown signal received, finishing in-flight decisions", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// HandleReload calls reload on every SIGHUP until ctx is done. A failed
// reload is logged; the caller keeps its previous state.
func HandleReload(ctx context.Context, reload func() error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				if err := reload(); err != nil {
					slog.Error("Reload failed, keeping current configuration and catalog", "error", err)
					continue
				}
				slog.Info("Configuration and catalog reloaded")
			}
		}
	}()
}
