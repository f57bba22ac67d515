package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// fakeSignals replaces signal.Notify so tests can deliver signals directly.
func fakeSignals(h *InterruptHandler) <-chan chan<- os.Signal {
	registered := make(chan chan<- os.Signal, 1)
	h.notify = func(c chan<- os.Signal, _ ...os.Signal) { registered <- c }
	h.stop = func(chan<- os.Signal) {}
	return registered
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer    io.Writer
		name      string
		operation string
		wantOp    string
	}{
		{name: "with custom writer", writer: &bytes.Buffer{}, operation: "Import", wantOp: "Import"},
		{name: "with nil writer", writer: nil, operation: "Watch", wantOp: "Watch"},
		{name: "without operation", writer: &bytes.Buffer{}, wantOp: "Operation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer, tt.operation)
			assert.NotNil(t, handler.writer)
			assert.Equal(t, tt.wantOp, handler.operation)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts_Signal(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Import")
	registered := fakeSignals(handler)

	ctx := handler.HandleInterrupts(context.Background(), true)
	sigChan := <-registered

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled before a signal")
	default:
	}

	sigChan <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled by the signal")
	}

	require.Eventually(t, handler.WasInterrupted, time.Second, 10*time.Millisecond)
	out := output.String()
	assert.Contains(t, out, "Import interrupted!")
	assert.Contains(t, out, "kept in this session's history")
	assert.Equal(t, 1, strings.Count(out, "interrupted!"))
}

func TestHandleInterrupts_ParentCancelIsNotAnInterrupt(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Watch")
	fakeSignals(handler)

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent, false)
	cancel()

	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		expected    []string
		notExpected []string
		keptHistory bool
	}{
		{
			name:        "with history",
			keptHistory: true,
			expected: []string{
				"Import interrupted!",
				"Bills imported so far",
				"See you later!",
			},
		},
		{
			name:        "without history",
			keptHistory: false,
			expected: []string{
				"Import interrupted!",
				"See you later!",
			},
			notExpected: []string{
				"Bills imported so far",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{
				writer:      &output,
				operation:   "Import",
				keptHistory: tt.keptHistory,
			}

			handler.showInterruptMessage()

			outputStr := output.String()
			for _, expected := range tt.expected {
				assert.Contains(t, outputStr, expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, outputStr, notExpected)
			}
		})
	}
}
