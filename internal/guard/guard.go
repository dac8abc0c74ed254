// Package guard holds in-process protections for the progress API and its storage backend.
package guard

import "time"

// Result is the outcome of a guard check.
type Result struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"` // which guard blocked
	// RetryAfter is how long a blocked caller should wait, when known.
	RetryAfter time.Duration `json:"-"`
}

func allow() Result { return Result{Allowed: true} }
