package dedup

import "time"

// SetClock pins the timestamp written on archive entries.
func (s *TarStrategy) SetClock(now func() time.Time) { s.now = now }

// SetClock pins the timestamp written on archive entries.
func (s *ZipStrategy) SetClock(now func() time.Time) { s.now = now }
