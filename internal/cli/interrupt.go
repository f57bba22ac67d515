package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler manages graceful shutdown with friendly messages.
type InterruptHandler struct {
	writer      io.Writer
	notify      func(chan<- os.Signal, ...os.Signal)
	stop        func(chan<- os.Signal)
	operation   string
	interrupted bool
	keptHistory bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler. The operation names what is
// being interrupted, e.g. "Import".
func NewInterruptHandler(writer io.Writer, operation string) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	if operation == "" {
		operation = "Operation"
	}
	return &InterruptHandler{
		writer:    writer,
		operation: operation,
		notify:    signal.Notify,
		stop:      signal.Stop,
	}
}

// HandleInterrupts returns a context that is canceled on SIGINT or SIGTERM.
// When keptHistory is set the message reminds the user that finished work was recorded.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, keptHistory bool) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.keptHistory = keptHistory
	h.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	h.notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer h.stop(sigChan)
		select {
		case <-sigChan:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning(h.operation+" interrupted!")

	if h.keptHistory {
		msg += "\n" + FormatInfo("Bills imported so far are kept in this session's history.")
	}

	msg += "\n" + FormatInfo("See you later! "+ElectricityIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
