// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package belief

import (
	"saliencycore/errors"
	"saliencycore/evidence"
	"saliencycore/logger"
	"saliencycore/track"
)

// Hooks lets a caller observe bus-level events (envelope emission,
// producer-invariant drops) without the bus depending on any telemetry
// package directly.
type Hooks struct {
	OnEnvelopeSent     func(e Envelope)
	OnDroppedNewThreat func(trackID string)
}

// Config is the subset of configuration the Bus needs.
type Config struct {
	DeltaCap              int
	SnapshotIntervalTicks int
}

// Bus buffers deltas between 1 Hz emissions, caps per-envelope volume,
// governs snapshot cadence, enforces producer-side invariants, and
// builds Envelopes with monotone sequence numbers. Not concurrency-safe;
// calls must be serialized by the caller, same as the TrackSet it wraps.
type Bus struct {
	botID    string
	streamID string
	cfg      Config
	set      *track.Set
	hooks    *Hooks

	pending           []track.SaliencyDelta
	lastSnapshotTick  int
	haveSnapshotTick  bool
	forceNextSnapshot bool
	currentTickID     int
	droppedNewThreat  int
}

// New constructs a Bus wrapping set, with forceNextSnapshot true so the
// very first envelope after connect carries a resync snapshot.
func New(botID, streamID string, set *track.Set, cfg Config, hooks *Hooks) *Bus {
	return &Bus{
		botID:             botID,
		streamID:          streamID,
		cfg:               cfg,
		set:               set,
		hooks:             hooks,
		forceNextSnapshot: true,
	}
}

// Ingest runs TrackSet.Ingest then TrackSet.Tick on the same tickId and
// accumulates all resulting deltas in the pending buffer, ingest-deltas
// strictly preceding tick-deltas.
func (b *Bus) Ingest(batch evidence.Batch) {
	b.currentTickID = batch.TickID
	ingestDeltas := b.set.Ingest(batch)
	tickDeltas := b.set.Tick(batch.TickID)
	b.pending = append(b.pending, ingestDeltas...)
	b.pending = append(b.pending, tickDeltas...)
}

// HasContent reports whether a snapshot is due or pending deltas exist.
func (b *Bus) HasContent() bool {
	return b.shouldEmitSnapshot() || len(b.pending) > 0
}

// ForceSnapshot guarantees the next envelope carries a snapshot
// regardless of cadence.
func (b *Bus) ForceSnapshot() {
	b.forceNextSnapshot = true
}

// GetCurrentSnapshot is a read-only view for reflex consumers at any
// tick between emission cycles.
func (b *Bus) GetCurrentSnapshot() track.Snapshot {
	return b.set.Snapshot(b.currentTickID)
}

func (b *Bus) shouldEmitSnapshot() bool {
	if b.forceNextSnapshot {
		return true
	}
	if !b.haveSnapshotTick {
		return false
	}
	return b.currentTickID-b.lastSnapshotTick >= b.cfg.SnapshotIntervalTicks
}

// BuildEnvelope drains up to DeltaCap pending deltas in FIFO order,
// attaches a snapshot iff due, filters producer-invariant violations,
// and assigns the caller-supplied monotone seq.
func (b *Bus) BuildEnvelope(seq int) Envelope {
	n := len(b.pending)
	if n > b.cfg.DeltaCap {
		n = b.cfg.DeltaCap
	}
	events := b.validate(b.pending[:n])
	b.pending = b.pending[n:]

	env := Envelope{
		RequestVersion: requestVersion,
		Type:           envelopeType,
		BotID:          b.botID,
		StreamID:       b.streamID,
		Seq:            seq,
		TickID:         b.currentTickID,
		SaliencyEvents: events,
	}

	if b.shouldEmitSnapshot() {
		snap := b.set.Snapshot(b.currentTickID)
		env.Snapshot = &snap
		b.lastSnapshotTick = b.currentTickID
		b.haveSnapshotTick = true
		b.forceNextSnapshot = false
	}

	if b.hooks != nil && b.hooks.OnEnvelopeSent != nil {
		b.hooks.OnEnvelopeSent(env)
	}

	return env
}

// validate enforces the producer-side invariant that every new_threat
// delta carries a track payload. A violating delta is dropped here, at
// the producer boundary, rather than shipped — this is a last line of
// defense; the producing side is expected to never generate one.
func (b *Bus) validate(deltas []track.SaliencyDelta) []track.SaliencyDelta {
	out := make([]track.SaliencyDelta, 0, len(deltas))
	for _, d := range deltas {
		if d.Type == track.NewThreat && d.Track == nil {
			b.droppedNewThreat++
			err := errors.InvariantViolation("build_envelope", "new_threat delta for track "+d.TrackID+" dropped: missing track payload")
			logger.Error("%v", err)
			if b.hooks != nil && b.hooks.OnDroppedNewThreat != nil {
				b.hooks.OnDroppedNewThreat(d.TrackID)
			}
			continue
		}
		out = append(out, d)
	}
	return out
}

// DroppedNewThreatCount returns the running count of new_threat deltas
// dropped at the producer boundary for lacking a track payload.
func (b *Bus) DroppedNewThreatCount() int {
	return b.droppedNewThreat
}
