// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package conformance defines the abstract contract (capsule) that any
// implementation of the belief core must satisfy, independent of domain:
// the track-maintenance sub-claim (A1–A9) and the emission sub-claim
// (B1–B4). A reference adapter (see conformance/reference) wraps this
// module's own track.Set + belief.Bus so the suite can certify itself.
package conformance

import (
	"saliencycore/belief"
	"saliencycore/evidence"
	"saliencycore/track"
)

// TrackMaintenance is the sub-claim p21.a: everything a conformance
// suite needs to drive and inspect a bare TrackSet.
type TrackMaintenance interface {
	Ingest(batch evidence.Batch) []track.SaliencyDelta
	Tick(tickID int) []track.SaliencyDelta
	Snapshot(tickID int) track.Snapshot
	Size() int
}

// Emission is the sub-claim p21.b: everything a conformance suite needs
// to drive and inspect a BeliefBus sitting on top of a TrackMaintenance.
type Emission interface {
	Ingest(batch evidence.Batch)
	BuildEnvelope(seq int) belief.Envelope
	HasContent() bool
	ForceSnapshot()
	GetCurrentSnapshot() track.Snapshot
}

// Capsule bundles both sub-claims behind one handle, plus the descriptor
// an implementation publishes about itself.
type Capsule interface {
	TrackMaintenance() TrackMaintenance
	Emission() Emission
	Descriptor() Descriptor
}

// Descriptor is an implementation's self-published capability summary:
// the sub-claims satisfied, mode, declared extensions, and numeric
// budgets, content-addressed the same way a trackId is.
type Descriptor struct {
	SubClaims          []string
	Mode               string
	DeclaredExtensions []string
	TrackCap           int
	DeltaCap           int
	SnapshotInterval   int
}

// ID content-addresses the descriptor with the same hash family
// track.idGen uses for trackIds, so two implementations publishing
// identical descriptors are indistinguishable by manifest tooling.
func (d Descriptor) ID() string {
	return descriptorHash(d)
}
