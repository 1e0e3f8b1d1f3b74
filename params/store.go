package params

import (
	"log/slog"
	"sync/atomic"
)

// snapshot is an immutable published record.
type snapshot struct {
	set     Set
	version uint64
}

// Store is the authoritative record of the current parameters.
//
// Writers publish a fresh snapshot with a single pointer swap, so a reader
// always observes one complete Set and never a mix of two updates. Any
// number of goroutines may update or read concurrently.
type Store struct {
	current atomic.Pointer[snapshot]
}

// NewStore creates a store holding the given initial parameters (version 0).
func NewStore(initial Set) *Store {
	clean, _ := initial.Sanitize()
	s := &Store{}
	s.current.Store(&snapshot{set: clean})
	return s
}

// UpdateParameters is the update bridge called by external control surfaces.
// It replaces the whole parameter record and cannot fail.
func (s *Store) UpdateParameters(dutyCycle, geometricAmplification, cavityQ, sagDepthNM, timeScaleRatio, avgPowerMW, exoticMassKG float32) {
	s.Update(Set{
		DutyCycle:              dutyCycle,
		GeometricAmplification: geometricAmplification,
		CavityQ:                cavityQ,
		SagDepthNM:             sagDepthNM,
		TimeScaleRatio:         timeScaleRatio,
		AvgPowerMW:             avgPowerMW,
		ExoticMassKG:           exoticMassKG,
	})
}

// Update publishes p as the new current record. Non-finite fields are
// stored as zero; finite values are accepted as-is.
func (s *Store) Update(p Set) {
	clean, replaced := p.Sanitize()
	if len(replaced) > 0 {
		names := make([]string, len(replaced))
		for i, idx := range replaced {
			names[i] = FieldNames[idx]
		}
		slog.Debug("non-finite parameters zeroed", "fields", names)
	}

	for {
		old := s.current.Load()
		next := &snapshot{set: clean, version: old.version + 1}
		if s.current.CompareAndSwap(old, next) {
			return
		}
	}
}

// Snapshot returns the current record and its version.
func (s *Store) Snapshot() (Set, uint64) {
	snap := s.current.Load()
	return snap.set, snap.version
}

// Current returns the current record.
func (s *Store) Current() Set {
	return s.current.Load().set
}

// Version returns the number of updates published so far.
func (s *Store) Version() uint64 {
	return s.current.Load().version
}
