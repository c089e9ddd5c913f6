//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals registers Ctrl+C for cancelling a run.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
