// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package track

// Tick applies per-tick decay to every track not observed this tick,
// transitions visibility, emits track_lost deltas, and evicts tracks past
// EvictionThreshold. Must be called at most once per tick, after Ingest
// for the same tickId. Tracks whose LastSeenTick == t are exempt.
func (s *Set) Tick(t int) []SaliencyDelta {
	nonMonotonic := s.haveLastDecayTick && t <= s.lastDecayTick

	var deltas []SaliencyDelta
	var toEvict []string

	for trackID, tr := range s.tracks {
		if tr.LastSeenTick == t {
			continue
		}
		if nonMonotonic {
			// Degenerate tick: accept no further decay this call, but
			// state already reflects whatever Ingest just did.
			continue
		}

		tr.TicksSinceObserved++
		tr.Confidence = maxFloor(tr.Confidence-s.cfg.ConfidenceDecayPerTick, s.cfg.ConfidenceFloor)
		tr.PUnknown = min1(tr.PUnknown + s.cfg.PUnknownDriftPerTick)
		tr.RiskLevel = s.classify(tr.ClassLabel, tr.ProximityBucket, tr.PUnknown)

		wasLost := tr.Visibility == Lost
		if tr.TicksSinceObserved >= s.cfg.LostThreshold {
			tr.Visibility = Lost
		} else if tr.TicksSinceObserved >= s.cfg.InferredThreshold {
			tr.Visibility = Inferred
		}

		if tr.Visibility == Lost && !wasLost {
			preWarmup := !tr.WarmupEmitted
			deltas = append(deltas, s.emit(SaliencyDelta{
				Type:            TrackLost,
				TrackID:         tr.TrackID,
				ClassLabel:      tr.ClassLabel,
				RiskLevel:       tr.RiskLevel,
				ProximityBucket: tr.ProximityBucket,
			}))
			if s.hooks != nil && s.hooks.OnTrackLost != nil {
				s.hooks.OnTrackLost(tr.TrackID, preWarmup)
			}
		}

		if tr.TicksSinceObserved >= s.cfg.EvictionThreshold {
			toEvict = append(toEvict, trackID)
		}
	}

	for _, trackID := range toEvict {
		s.removeTrack(trackID)
	}

	if nonMonotonic {
		if s.hooks != nil && s.hooks.OnNonMonotonicTick != nil {
			s.hooks.OnNonMonotonicTick(t)
		}
	} else {
		s.lastDecayTick = t
		s.haveLastDecayTick = true
	}

	return deltas
}

func maxFloor(v, floor float64) float64 {
	if v < floor {
		return floor
	}
	return v
}

// removeTrack purges a track and all of its auxiliary state: the
// engineId index entry, and every cooldown entry keyed by this trackId.
func (s *Set) removeTrack(trackID string) {
	tr, ok := s.tracks[trackID]
	if !ok {
		return
	}
	delete(s.tracks, trackID)
	if s.engineIndex[tr.LastEngineID] == trackID {
		delete(s.engineIndex, tr.LastEngineID)
	}
	prefix := trackID + ":"
	for k := range s.cooldown {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(s.cooldown, k)
		}
	}
	if s.hooks != nil && s.hooks.OnTrackEvicted != nil {
		s.hooks.OnTrackEvicted(trackID)
	}
}
