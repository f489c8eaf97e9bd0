package lambda

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// parseDurations reads "ref=duration" pairs separated by commas, e.g.
// "bell=1m30s,ocean=45s".
func parseDurations(s string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		ref, d, ok := strings.Cut(pair, "=")
		if !ok || ref == "" || d == "" {
			return nil, fmt.Errorf("invalid ringtone duration %q, want ref=duration", pair)
		}
		out[strings.TrimSpace(ref)] = strings.TrimSpace(d)
	}
	return out, nil
}
