// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package belief

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saliencycore/classifier"
	"saliencycore/evidence"
	"saliencycore/track"
)

func newBusWithTracks(deltaCap, snapshotInterval int) *Bus {
	ts := track.New(track.DefaultSetConfig(), classifier.NewMobClassifier(), nil)
	return New("bot-1", "stream-1", ts, Config{DeltaCap: deltaCap, SnapshotIntervalTicks: snapshotInterval}, nil)
}

func zombieBatch(tick, engineID, posX, proximity int) evidence.Batch {
	return evidence.Batch{TickID: tick, Items: []evidence.Item{{
		EngineID: engineID, ClassLabel: "zombie", ClassEnum: 1,
		PosBucketX: posX, ProximityBucket: proximity, LOS: evidence.LOSVisible,
	}}}
}

func TestForceSnapshotOnFirstEnvelope(t *testing.T) {
	b := newBusWithTracks(32, 25)
	b.Ingest(zombieBatch(1, 1, 0, 3))
	env := b.BuildEnvelope(1)
	require.NotNil(t, env.Snapshot)
	assert.Equal(t, "saliency_delta", env.RequestVersion)
	assert.Equal(t, "environmental_awareness", env.Type)
}

func TestSnapshotCadence(t *testing.T) {
	b := newBusWithTracks(32, 5)
	b.Ingest(zombieBatch(1, 1, 0, 3))
	env := b.BuildEnvelope(1)
	require.NotNil(t, env.Snapshot) // forced on first envelope

	for tick := 2; tick <= 5; tick++ {
		b.Ingest(zombieBatch(tick, 1, 0, 3))
		env = b.BuildEnvelope(tick)
		assert.Nil(t, env.Snapshot, "not yet due again before the interval elapses")
	}
	// tick 6: currentTickID(6) - lastSnapshotTick(1) = 5 >= interval(5): due.
	b.Ingest(zombieBatch(6, 1, 0, 3))
	env = b.BuildEnvelope(6)
	assert.NotNil(t, env.Snapshot)
}

func TestForceSnapshotGuaranteesNextEnvelope(t *testing.T) {
	b := newBusWithTracks(32, 25)
	b.Ingest(zombieBatch(1, 1, 0, 3))
	b.BuildEnvelope(1) // consumes the construction-time forced snapshot

	b.ForceSnapshot()
	b.Ingest(zombieBatch(2, 1, 0, 3))
	env := b.BuildEnvelope(2)
	assert.NotNil(t, env.Snapshot)
}

func TestDeltaBudgetCapsPerEnvelope(t *testing.T) {
	b := newBusWithTracks(32, 1000)
	items := make([]evidence.Item, 50)
	for i := 0; i < 50; i++ {
		items[i] = evidence.Item{EngineID: i, ClassLabel: "zombie", ClassEnum: 1, PosBucketX: i * 10, ProximityBucket: 20, LOS: evidence.LOSVisible}
	}
	batch := evidence.Batch{TickID: 1, Items: items}
	batch.Canonicalize()
	b.Ingest(batch)
	batch.TickID = 2
	b.Ingest(batch) // all 50 complete warmup this tick

	env := b.BuildEnvelope(1)
	assert.Len(t, env.SaliencyEvents, 32)
	assert.True(t, b.HasContent())

	env2 := b.BuildEnvelope(2)
	assert.Len(t, env2.SaliencyEvents, 18)
}

func TestProducerDropsNewThreatWithoutTrackPayload(t *testing.T) {
	b := newBusWithTracks(32, 1000)
	b.pending = append(b.pending, track.SaliencyDelta{Type: track.NewThreat, TrackID: "bad", Track: nil})
	env := b.BuildEnvelope(1)
	assert.Empty(t, env.SaliencyEvents)
	assert.Equal(t, 1, b.DroppedNewThreatCount())
}

func TestHasContentReflectsPendingAndSnapshotDue(t *testing.T) {
	b := newBusWithTracks(32, 25)
	assert.True(t, b.HasContent()) // forced snapshot due at construction
	b.BuildEnvelope(1)
	assert.False(t, b.HasContent())
}

func TestGetCurrentSnapshotIsReadOnlyView(t *testing.T) {
	b := newBusWithTracks(32, 25)
	b.Ingest(zombieBatch(1, 1, 0, 3))
	b.Ingest(zombieBatch(2, 1, 0, 3))
	snap := b.GetCurrentSnapshot()
	require.Len(t, snap.Tracks, 1)
}
