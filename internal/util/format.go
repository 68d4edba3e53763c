// Package util provides utility functions for formatting and common operations.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	KiB = 1024
	MiB = KiB * 1024
	GiB = MiB * 1024
)

// FormatBytes formats bytes with appropriate binary units (B, KiB, MiB, GiB).
func FormatBytes(bytes uint64) string {
	bf := float64(bytes)
	switch {
	case bf >= GiB:
		return fmt.Sprintf("%.2f GiB", bf/GiB)
	case bf >= MiB:
		return fmt.Sprintf("%.2f MiB", bf/MiB)
	case bf >= KiB:
		return fmt.Sprintf("%.2f KiB", bf/KiB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ParseByteSize parses a human byte size like "2MB", "500KiB" or "1048576"
// into bytes. Decimal and binary suffixes are treated alike: both use the
// binary multiplier.
func ParseByteSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty byte size")
	}

	upper := strings.ToUpper(trimmed)
	multiplier := int64(1)
	for _, suffix := range []struct {
		text string
		mult int64
	}{
		{"GIB", GiB}, {"GB", GiB}, {"G", GiB},
		{"MIB", MiB}, {"MB", MiB}, {"M", MiB},
		{"KIB", KiB}, {"KB", KiB}, {"K", KiB},
		{"B", 1},
	} {
		if strings.HasSuffix(upper, suffix.text) {
			multiplier = suffix.mult
			upper = strings.TrimSuffix(upper, suffix.text)
			break
		}
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(upper), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}
	if value < 0 {
		return 0, fmt.Errorf("byte size must not be negative, got %q", s)
	}
	return int64(value * float64(multiplier)), nil
}

// FormatDuration formats seconds as HH:MM:SS.
func FormatDuration(seconds float64) string {
	if seconds < 0 || seconds != seconds { // NaN check
		return "??:??:??"
	}

	totalSecs := int64(seconds)
	hours := totalSecs / 3600
	minutes := (totalSecs % 3600) / 60
	secs := totalSecs % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// FormatTimestamp formats seconds as a compact timestamp label,
// M:SS below one hour and H:MM:SS at or above.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || seconds != seconds {
		return "?:??"
	}

	totalSecs := int64(seconds)
	hours := totalSecs / 3600
	minutes := (totalSecs % 3600) / 60
	secs := totalSecs % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
