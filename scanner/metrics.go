package scanner

import "time"

// Elapsed wraps Counts with the wall-clock duration of the scan that
// produced them, for CLI reporting.
type Elapsed struct {
	*Counts
	Started  time.Time
	Finished time.Time
}

// Duration returns how long the scan ran.
func (e Elapsed) Duration() time.Duration {
	return e.Finished.Sub(e.Started)
}

// Total returns the number of entries the scanner reached a decision for,
// across all outcomes.
func (c *Counts) Total() int64 {
	return c.Accepted + c.SkipFiltered + c.SkipAlreadyIndexed + c.SkipOutdated + c.Errors
}
