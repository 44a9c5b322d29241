package health

import "sync/atomic"

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process-wide readiness gate. Shutdown sets it to false
// so load balancers drain traffic before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current readiness gate state.
func IsReady() bool {
	return ready.Load()
}
