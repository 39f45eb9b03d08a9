// Package signal wires process interrupts into contexts and the chat loop.
package signal

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
)

// NotifyContext returns a context cancelled on SIGINT or SIGTERM.
func NotifyContext() (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// TerminateContext returns a context cancelled on SIGTERM only. Callers that
// read SIGINT through Interrupts use it so Ctrl-C does not end the session.
func TerminateContext() (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(context.Background(), syscall.SIGTERM)
}

// Interrupts delivers SIGINT to the returned channel until stop is called.
// The chat loop uses it to tell "cancel this answer" apart from "exit".
func Interrupts() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	ossignal.Notify(ch, os.Interrupt)
	return ch, func() { ossignal.Stop(ch) }
}
