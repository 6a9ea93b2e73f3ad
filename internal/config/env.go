package config

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// env wraps a lookup with parse-or-default helpers.
type env struct {
	lookup LookupFunc
	logger *log.Logger
}

// get returns the trimmed value of key; blank values count as unset.
func (e env) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e env) str(key, fallback string) string {
	if v, ok := e.get(key); ok {
		return v
	}
	return fallback
}

// float parses key as a finite float64 accepted by valid, or returns fallback.
func (e env) float(key string, fallback float64, valid func(float64) bool) float64 {
	raw, ok := e.get(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || !valid(v) {
		e.logger.Printf("WARNING: invalid %s %q, using default %v", key, raw, fallback)
		return fallback
	}
	return v
}

// count parses key as a positive number floored to an int, or returns fallback.
func (e env) count(key string, fallback int) int {
	v := e.float(key, float64(fallback), positive)
	n := int(math.Floor(v))
	if n < 1 {
		e.logger.Printf("WARNING: %s %v floors to zero, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

// duration parses key as a positive Go duration, or returns fallback.
func (e env) duration(key string, fallback time.Duration) time.Duration {
	raw, ok := e.get(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		e.logger.Printf("WARNING: invalid %s %q, using default %v", key, raw, fallback)
		return fallback
	}
	return d
}

func positive(v float64) bool    { return v > 0 }
func nonNegative(v float64) bool { return v >= 0 }
func percent(v float64) bool     { return v >= 0 && v < 100 }
