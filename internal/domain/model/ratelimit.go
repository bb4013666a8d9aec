package model

import (
	"encoding/json"
	"time"
)

// RateLimitWindow is the sliding window of setup attempts for one session.
// Attempts are kept in the order they were recorded.
type RateLimitWindow struct {
	Attempts []time.Time
}

// Prune returns a window holding only the attempts younger than window,
// measured from now.
func (w RateLimitWindow) Prune(now time.Time, window time.Duration) RateLimitWindow {
	kept := make([]time.Time, 0, len(w.Attempts))
	for _, at := range w.Attempts {
		if now.Sub(at) < window {
			kept = append(kept, at)
		}
	}
	return RateLimitWindow{Attempts: kept}
}

// Record returns a window with at appended.
func (w RateLimitWindow) Record(at time.Time) RateLimitWindow {
	attempts := make([]time.Time, 0, len(w.Attempts)+1)
	attempts = append(attempts, w.Attempts...)
	attempts = append(attempts, at)
	return RateLimitWindow{Attempts: attempts}
}

// Remaining returns how many attempts are left before limit is reached.
func (w RateLimitWindow) Remaining(limit int) int {
	return max(0, limit-len(w.Attempts))
}

// Encode serializes the window as a JSON array of unix seconds.
func (w RateLimitWindow) Encode() string {
	stamps := make([]int64, 0, len(w.Attempts))
	for _, at := range w.Attempts {
		stamps = append(stamps, at.Unix())
	}
	data, _ := json.Marshal(stamps) // []int64 always marshals.
	return string(data)
}

// DecodeRateLimitWindow parses a value produced by Encode. Malformed input
// yields an empty window.
func DecodeRateLimitWindow(raw string) RateLimitWindow {
	if raw == "" {
		return RateLimitWindow{}
	}

	var stamps []int64
	if err := json.Unmarshal([]byte(raw), &stamps); err != nil {
		return RateLimitWindow{}
	}

	attempts := make([]time.Time, 0, len(stamps))
	for _, s := range stamps {
		attempts = append(attempts, time.Unix(s, 0))
	}
	return RateLimitWindow{Attempts: attempts}
}
