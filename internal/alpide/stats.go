package alpide

// Stats accumulates the per-lane bookkeeping the frame validator gathers
// while decoding one readout frame's worth of ALPIDE lane data. Kept as
// plain counters so the stats collector can add instances together
// lock-free in the caller's own critical section.
type Stats struct {
	ChipTrailersSeen    uint64
	BusyViolations      uint64
	DataOverrun         uint64
	TransmissionInFatal uint64
	FlushedIncomplete   uint64
	StrobeExtended      uint64
	BusyTransitions     uint64
}

// Add folds other's counters into s.
func (s *Stats) Add(other Stats) {
	s.ChipTrailersSeen += other.ChipTrailersSeen
	s.BusyViolations += other.BusyViolations
	s.DataOverrun += other.DataOverrun
	s.TransmissionInFatal += other.TransmissionInFatal
	s.FlushedIncomplete += other.FlushedIncomplete
	s.StrobeExtended += other.StrobeExtended
	s.BusyTransitions += other.BusyTransitions
}
