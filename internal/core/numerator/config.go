// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict increments the counter row for every number.
	// Sequential without gaps except for rolled back callers.
	// Used for return documents.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory.
	// Faster, but a restart leaves gaps. Used for payment receipts.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	// Strategy to use for number generation
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() *Options {
	return &Options{
		Strategy: StrategyStrict,
	}
}

// ResetPeriod scopes a counter. A new period starts again from 1.
type ResetPeriod string

const (
	ResetDaily   ResetPeriod = "day"
	ResetMonthly ResetPeriod = "month"
	ResetYearly  ResetPeriod = "year"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration for one document series.
type Config struct {
	// Prefix added to all numbers (e.g., "RET", "RCP")
	Prefix string

	// DateLayout is a Go time layout rendered between prefix and counter.
	// Empty means no date segment.
	DateLayout string

	// PadWidth is the minimum counter width (default 5)
	PadWidth int

	// ResetPeriod defines the counter scope.
	ResetPeriod ResetPeriod
}

// ReturnConfig is the series for return documents: RET-YYMMDD-NNNN,
// counter scoped to the calendar day. Existing documents rely on this
// exact format.
func ReturnConfig() Config {
	return Config{
		Prefix:      "RET",
		DateLayout:  "060102",
		PadWidth:    4,
		ResetPeriod: ResetDaily,
	}
}

// ReceiptConfig is the series for payment receipts: RCP-YYYY-NNNNNN.
func ReceiptConfig() Config {
	return Config{
		Prefix:      "RCP",
		DateLayout:  "2006",
		PadWidth:    6,
		ResetPeriod: ResetYearly,
	}
}

// Key returns the counter key for the period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetDaily:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01_02"))
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders a counter value as a document number.
func (c Config) Format(period time.Time, num int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if c.DateLayout != "" {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format(c.DateLayout), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, padWidth, num)
}

// Parse splits a formatted number back into its period and counter value.
// The period has only the precision carried by DateLayout.
func (c Config) Parse(formatted string) (time.Time, int64, error) {
	parts := strings.Split(formatted, "-")
	want := 2
	if c.DateLayout != "" {
		want = 3
	}
	if len(parts) != want || parts[0] != c.Prefix {
		return time.Time{}, 0, fmt.Errorf("number %q does not match series %s", formatted, c.Prefix)
	}

	var period time.Time
	if c.DateLayout != "" {
		p, err := time.Parse(c.DateLayout, parts[1])
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("parse date segment of %q: %w", formatted, err)
		}
		period = p
	}

	num, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil || num <= 0 {
		return time.Time{}, 0, fmt.Errorf("parse counter of %q", formatted)
	}
	return period, num, nil
}
