// Package pool provides a shared timer pool for timeout selects and backoff
// waits, avoiding a fresh time.Timer allocation on every protocol exchange.
package pool

import (
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a timer set to fire after d, reusing a pooled timer when
// one is available.
//
// Return the timer to the pool with PutTimer when done.
func GetTimer(d time.Duration) *time.Timer {
	v := timerPool.Get()
	if v == nil {
		return time.NewTimer(d)
	}

	t, _ := v.(*time.Timer) // only *time.Timer values are ever pooled
	if t.Reset(d) {
		// The timer was still active; drain any pending fire.
		select {
		case <-t.C:
		default:
		}
	}

	return t
}

// PutTimer stops t and returns it to the pool.
//
// t must not be accessed after the call.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		// Drain t.C if the caller never received the fire.
		select {
		case <-t.C:
		default:
		}
	}
	timerPool.Put(t)
}
