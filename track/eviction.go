// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package track

import "saliencycore/classifier"

// threatWeight orders RiskLevel for the eviction score: higher risk
// tracks are more expensive to lose, so they score higher and survive.
var threatWeight = map[classifier.RiskLevel]float64{
	classifier.RiskNone:     0,
	classifier.RiskLow:      1,
	classifier.RiskMedium:   2,
	classifier.RiskHigh:     3,
	classifier.RiskCritical: 4,
}

// evictOne removes the single lowest-scoring track under capacity
// pressure and reports whether a track was actually evicted (false if
// the set was empty, which should not happen given the caller only
// evicts when at capacity).
//
// score = confidence * (1 - 0.5*pUnknown) * (threat_weight[riskLevel]+1) * 1/(ticksSinceObserved+1)
// Minimum score wins; ties broken by smallest trackId.
func (s *Set) evictOne() bool {
	var victim *Track
	var victimScore float64

	for _, tr := range s.tracks {
		score := tr.Confidence * (1 - 0.5*tr.PUnknown) * (threatWeight[tr.RiskLevel] + 1) / float64(tr.TicksSinceObserved+1)
		if victim == nil || score < victimScore || (score == victimScore && tr.TrackID < victim.TrackID) {
			victim = tr
			victimScore = score
		}
	}

	if victim == nil {
		return false
	}
	s.removeTrack(victim.TrackID)
	return true
}
