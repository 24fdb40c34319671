package domain

import "github.com/jonboulle/clockwork"

// clock stamps processed_at on records. Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the processing clock. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Stamp records which run produced rec and when.
func Stamp(rec CrashRecord, runID string) CrashRecord {
	rec.RunID = runID
	rec.ProcessedAt = clock.Now().UTC()
	return rec
}
