// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package track

import (
	"sort"

	"saliencycore/classifier"
	"saliencycore/evidence"
)

// Hooks lets a caller observe TrackSet lifecycle events for telemetry
// purposes without the core depending on any telemetry package. A nil
// Hooks, or a nil field within one, is always safe to call through —
// mirroring classifier.Classifier's nil-safety.
type Hooks struct {
	OnTrackCreated      func(trackID string)
	OnTrackLost         func(trackID string, preWarmup bool)
	OnTrackEvicted      func(trackID string)
	OnDeltaEmitted      func(d SaliencyDelta)
	OnNonMonotonicTick  func(tickID int)
	OnCapacityExhausted func()
}

// Config is the subset of configuration TrackSet needs. Rates are
// pre-derived to per-tick units once, at construction, rather than
// recomputed on every call.
type Config struct {
	TrackCap               int
	InferredThreshold      int
	LostThreshold          int
	EvictionThreshold      int
	WarmupObservations     int
	CooldownTicks          int
	AssociationMaxDistance int
	ConfidenceDecayPerTick float64
	PUnknownDriftPerTick   float64
	ConfidenceFloor        float64
	ConfidenceBoost        map[string]float64
	PUnknownRecovery       map[string]float64
}

// DefaultSetConfig mirrors config.DefaultConfig's derived values, for
// callers (tests, fixtures) that want a TrackSet without constructing a
// full config.Config.
func DefaultSetConfig() Config {
	return Config{
		TrackCap:               64,
		InferredThreshold:      3,
		LostThreshold:          15,
		EvictionThreshold:      25,
		WarmupObservations:     2,
		CooldownTicks:          5,
		AssociationMaxDistance: 3,
		ConfidenceDecayPerTick: 0.02,
		PUnknownDriftPerTick:   0.03,
		ConfidenceFloor:        0.1,
		ConfidenceBoost:        map[string]float64{"visible": 0.10, "unknown": 0.05, "occluded": 0.02},
		PUnknownRecovery:       map[string]float64{"visible": 0.15, "unknown": 0.08, "occluded": 0.03},
	}
}

// Set is the stateful core: it associates evidence to tracks, decays
// unobserved tracks, evicts under pressure, and emits SaliencyDeltas.
// A Set is not concurrency-safe; calls must be serialized by the caller.
type Set struct {
	cfg        Config
	classifier *classifier.Classifier
	hooks      *Hooks

	tracks      map[string]*Track
	engineIndex map[int]string
	// cooldown maps "trackId:deltaType" -> tick of last emission.
	cooldown map[string]int

	ids idGen

	// lastTick/haveLastTick track the most recent tick Ingest accepted
	// evidence for. lastDecayTick/haveLastDecayTick track the most recent
	// tick Tick ran decay for — kept separate because Ingest and Tick are
	// both called with the same tickId for one tick (see belief.Bus.Ingest),
	// and Tick must not mistake "Ingest already saw this tick" for "Tick
	// already saw this tick".
	lastTick     int
	haveLastTick bool

	lastDecayTick     int
	haveLastDecayTick bool
}

// New constructs an empty Set. classifier may be nil (all risk resolves
// to RiskNone). Construction performs no I/O.
func New(cfg Config, c *classifier.Classifier, hooks *Hooks) *Set {
	return &Set{
		cfg:         cfg,
		classifier:  c,
		hooks:       hooks,
		tracks:      make(map[string]*Track),
		engineIndex: make(map[int]string),
		cooldown:    make(map[string]int),
	}
}

// Size returns the current track count. Pure read.
func (s *Set) Size() int {
	return len(s.tracks)
}

func (s *Set) classify(classLabel string, proximityBucket int, pUnknown float64) classifier.RiskLevel {
	return s.classifier.Classify(classLabel, proximityBucket, pUnknown)
}

func (s *Set) losKey(los evidence.LineOfSight) string {
	switch los {
	case evidence.LOSVisible:
		return "visible"
	case evidence.LOSOccluded:
		return "occluded"
	default:
		return "unknown"
	}
}

func (s *Set) emit(delta SaliencyDelta) SaliencyDelta {
	if s.hooks != nil && s.hooks.OnDeltaEmitted != nil {
		s.hooks.OnDeltaEmitted(delta)
	}
	return delta
}

// Ingest associates one canonically-ordered EvidenceBatch against the
// live track set and returns the deltas emitted at this tick, in the
// order association produces them. Never exceeds TrackCap. Never emits a
// delta whose (trackId, type) violates the cooldown gate.
func (s *Set) Ingest(batch evidence.Batch) []SaliencyDelta {
	t := batch.TickID
	nonMonotonic := s.haveLastTick && t <= s.lastTick

	var deltas []SaliencyDelta
	for _, item := range batch.Items {
		d := s.associateOne(item, t, nonMonotonic)
		deltas = append(deltas, d...)
	}

	if nonMonotonic {
		if s.hooks != nil && s.hooks.OnNonMonotonicTick != nil {
			s.hooks.OnNonMonotonicTick(t)
		}
	} else {
		s.lastTick = t
		s.haveLastTick = true
	}

	return deltas
}

// associateOne runs the three-step association algorithm for a single
// item and returns zero or more deltas (an update delta, and/or a
// just-completed warmup new_threat).
func (s *Set) associateOne(item evidence.Item, t int, nonMonotonic bool) []SaliencyDelta {
	// 1. Primary: engineId hint.
	if trackID, ok := s.engineIndex[item.EngineID]; ok {
		if tr, ok := s.tracks[trackID]; ok && tr.Visibility != Lost {
			return s.updateTrack(tr, item, t, nonMonotonic)
		}
	}

	// 2. Secondary: proximity + class, smallest Manhattan distance, ties by trackId.
	best := s.findNearestCandidate(item)
	if best != nil {
		return s.updateTrack(best, item, t, nonMonotonic)
	}

	// 3. Create.
	return s.createTrack(item, t, nonMonotonic)
}

func (s *Set) findNearestCandidate(item evidence.Item) *Track {
	var best *Track
	bestDist := -1
	for _, tr := range s.tracks {
		if tr.Visibility == Lost || tr.ClassEnum != item.ClassEnum {
			continue
		}
		dist := evidence.ManhattanDistance(tr.PosBucketX, tr.PosBucketY, tr.PosBucketZ, item.PosBucketX, item.PosBucketY, item.PosBucketZ)
		if dist > s.cfg.AssociationMaxDistance {
			continue
		}
		if best == nil || dist < bestDist || (dist == bestDist && tr.TrackID < best.TrackID) {
			best = tr
			bestDist = dist
		}
	}
	return best
}

func (s *Set) createTrack(item evidence.Item, t int, nonMonotonic bool) []SaliencyDelta {
	if len(s.tracks) >= s.cfg.TrackCap {
		if !s.evictOne() {
			if s.hooks != nil && s.hooks.OnCapacityExhausted != nil {
				s.hooks.OnCapacityExhausted()
			}
			return nil
		}
	}

	trackID := s.ids.next(t, item.PosBucketX, item.PosBucketY, item.PosBucketZ, item.ClassEnum)

	visibility := Visible
	if item.LOS == evidence.LOSOccluded {
		visibility = Inferred
	}

	tr := &Track{
		TrackID:          trackID,
		ClassLabel:       item.ClassLabel,
		ClassEnum:        item.ClassEnum,
		PosBucketX:       item.PosBucketX,
		PosBucketY:       item.PosBucketY,
		PosBucketZ:       item.PosBucketZ,
		ProximityBucket:  item.ProximityBucket,
		Visibility:       visibility,
		Confidence:       0.8,
		PUnknown:         0.0,
		FirstSeenTick:    t,
		LastSeenTick:     t,
		LastEngineID:     item.EngineID,
		ObservationCount: 1,
	}
	tr.RiskLevel = s.classify(tr.ClassLabel, tr.ProximityBucket, tr.PUnknown)

	s.tracks[trackID] = tr
	s.engineIndex[item.EngineID] = trackID

	if s.hooks != nil && s.hooks.OnTrackCreated != nil {
		s.hooks.OnTrackCreated(trackID)
	}

	return nil
}

// updateTrack applies the update steps in a fixed order — identity,
// position, visibility, confidence/uncertainty, risk, then bookkeeping —
// and finally gates the single candidate delta through warmup or
// cooldown.
func (s *Set) updateTrack(tr *Track, item evidence.Item, t int, nonMonotonic bool) []SaliencyDelta {
	prevRisk := tr.RiskLevel
	prevProximity := tr.ProximityBucket

	// 1. engineId index.
	if tr.LastEngineID != item.EngineID {
		delete(s.engineIndex, tr.LastEngineID)
		s.engineIndex[item.EngineID] = tr.TrackID
		tr.LastEngineID = item.EngineID
	} else {
		s.engineIndex[item.EngineID] = tr.TrackID
	}

	// 2. position/proximity.
	tr.PosBucketX = item.PosBucketX
	tr.PosBucketY = item.PosBucketY
	tr.PosBucketZ = item.PosBucketZ
	tr.ProximityBucket = item.ProximityBucket

	// 3. visibility.
	if item.LOS == evidence.LOSOccluded {
		tr.Visibility = Inferred
	} else {
		tr.Visibility = Visible
	}

	// 4/5. confidence & pUnknown.
	losKey := s.losKey(item.LOS)
	tr.Confidence = min1(tr.Confidence + s.cfg.ConfidenceBoost[losKey])
	tr.PUnknown = max0(tr.PUnknown - s.cfg.PUnknownRecovery[losKey])

	// 6. risk.
	tr.RiskLevel = s.classify(tr.ClassLabel, tr.ProximityBucket, tr.PUnknown)

	// 7. lastSeenTick / ticksSinceObserved, unless this is a non-monotonic
	// no-op tick: evidence is still accepted, but lastSeenTick must never
	// move backward or be reordered relative to an earlier observation.
	if !nonMonotonic {
		tr.LastSeenTick = t
	}
	tr.TicksSinceObserved = 0
	tr.ObservationCount++

	var out []SaliencyDelta

	// Warmup gate: first completion of warmup fires new_threat instead of
	// any update delta for this observation.
	if !tr.WarmupEmitted && tr.ObservationCount >= s.cfg.WarmupObservations {
		tr.WarmupEmitted = true
		tr.LifetimeNewThreat = true
		summary := tr.Summary()
		out = append(out, s.emit(SaliencyDelta{
			Type:            NewThreat,
			TrackID:         tr.TrackID,
			ClassLabel:      tr.ClassLabel,
			RiskLevel:       tr.RiskLevel,
			ProximityBucket: tr.ProximityBucket,
			Track:           &summary,
		}))
		return out
	}
	if !tr.WarmupEmitted {
		// Still warming up: no candidate delta evaluation.
		return out
	}

	// 8. candidate delta.
	var candidate *SaliencyDelta
	if tr.RiskLevel != prevRisk {
		pr := prevRisk
		pb := prevProximity
		candidate = &SaliencyDelta{
			Type:            Reclassified,
			TrackID:         tr.TrackID,
			ClassLabel:      tr.ClassLabel,
			RiskLevel:       tr.RiskLevel,
			ProximityBucket: tr.ProximityBucket,
			Prev:            &PrevState{RiskLevel: &pr, ProximityBucket: &pb},
		}
	} else if tr.ProximityBucket != prevProximity {
		pb := prevProximity
		candidate = &SaliencyDelta{
			Type:            MovementBucketChange,
			TrackID:         tr.TrackID,
			ClassLabel:      tr.ClassLabel,
			RiskLevel:       tr.RiskLevel,
			ProximityBucket: tr.ProximityBucket,
			Prev:            &PrevState{ProximityBucket: &pb},
		}
	}

	// 9. cooldown gate.
	if candidate != nil && s.passCooldown(tr.TrackID, candidate.Type, t) {
		s.recordCooldown(tr.TrackID, candidate.Type, t)
		out = append(out, s.emit(*candidate))
	}

	return out
}

func (s *Set) cooldownKey(trackID string, dt DeltaType) string {
	return trackID + ":" + dt.String()
}

func (s *Set) passCooldown(trackID string, dt DeltaType, t int) bool {
	last, ok := s.cooldown[s.cooldownKey(trackID, dt)]
	if !ok {
		return true
	}
	return t-last >= s.cfg.CooldownTicks
}

func (s *Set) recordCooldown(trackID string, dt DeltaType, t int) {
	s.cooldown[s.cooldownKey(trackID, dt)] = t
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Snapshot returns every live track as a TrackSummary, in a stable order
// (trackId lexicographic — a caller-visible stable total order).
func (s *Set) Snapshot(t int) Snapshot {
	summaries := make([]TrackSummary, 0, len(s.tracks))
	for _, tr := range s.tracks {
		summaries = append(summaries, tr.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].TrackID < summaries[j].TrackID })
	return Snapshot{TickID: t, Tracks: summaries}
}
