package pkg

import (
	"strconv"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
)

// DurationOrDef reads a duration such as "500ms" or "10s" from config.
func DurationOrDef(config *aqm.Config, key string, def time.Duration) time.Duration {
	if config == nil {
		return def
	}
	raw, ok := config.GetString(key)
	if !ok || raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func IntOrDef(config *aqm.Config, key string, def int) int {
	if config == nil {
		return def
	}
	raw, ok := config.GetString(key)
	if !ok || raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func FloatOrDef(config *aqm.Config, key string, def float64) float64 {
	if config == nil {
		return def
	}
	raw, ok := config.GetString(key)
	if !ok || raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func BoolOrDef(config *aqm.Config, key string, def bool) bool {
	if config == nil {
		return def
	}
	raw, ok := config.GetString(key)
	if !ok || raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// SplitList splits a comma separated config value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
