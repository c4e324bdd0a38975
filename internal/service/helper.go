package service

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/omerorhan/stay-pricing/internal/storage"
)

func parseBasicAuthPair(auth string) (username, password string, ok bool) {
	if auth == "" {
		return "", "", false
	}
	parts := strings.SplitN(auth, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// addJitter spreads duration by ±jitterPercent (0.1 = ±10%) so pods don't refresh in lockstep
func addJitter(duration time.Duration, jitterPercent float64) time.Duration {
	if jitterPercent <= 0 {
		return duration
	}

	jitterRange := float64(duration) * jitterPercent
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange

	result := time.Duration(float64(duration) + jitter)
	if result <= 0 {
		result = duration / 2
	}

	return result
}

func parseValidUntil(s string) (time.Time, error) {
	t, err := time.Parse(storage.ValidUntilLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse validUntilDate %q: %w", s, err)
	}
	return t.UTC(), nil
}

// newPodID builds a unique pod ID from hostname, PID and a nanosecond timestamp
func newPodID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d-%d", hostname, os.Getpid(), time.Now().UnixNano())
}
