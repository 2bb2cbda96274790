package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Duration is a time.Duration that also accepts a leading whole-day
// component, e.g. "7d" or "1d12h".
type Duration struct {
	time.Duration
}

// ParseDuration parses time.ParseDuration syntax with an optional "<n>d" prefix.
func ParseDuration(v string) (time.Duration, error) {
	days, rest, found := strings.Cut(v, "d")
	if !found {
		return time.ParseDuration(v)
	}

	n, err := strconv.Atoi(days)
	if err != nil {
		return 0, fmt.Errorf("invalid days value %q: %w", days, err)
	}

	total := time.Duration(n) * day
	if rest == "" {
		return total, nil
	}

	extra, err := time.ParseDuration(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	if n < 0 {
		return total - extra, nil
	}
	return total + extra, nil
}

// EnvDecode implements envconfig.Decoder.
func (d *Duration) EnvDecode(_ context.Context, v string) error {
	if v == "" {
		return nil
	}

	parsed, err := ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	d.Duration = parsed
	return nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	return d.EnvDecode(context.Background(), string(text))
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d Duration) String() string {
	return d.Duration.String()
}
