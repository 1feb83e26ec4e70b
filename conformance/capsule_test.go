// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package conformance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saliencycore/classifier"
	"saliencycore/config"
	"saliencycore/conformance"
	"saliencycore/conformance/fixtures"
	"saliencycore/conformance/reference"
	"saliencycore/track"
)

func newReferenceCapsule(t *testing.T) conformance.Capsule {
	t.Helper()
	cfg := config.DefaultConfig()
	return reference.New(cfg, classifier.NewMobClassifier(), "bot-1", "stream-1")
}

func TestDescriptorNamesBothSubClaims(t *testing.T) {
	capsule := newReferenceCapsule(t)
	d := capsule.Descriptor()
	assert.ElementsMatch(t, []string{"p21.a", "p21.b"}, d.SubClaims)
	assert.Equal(t, "conservative", d.Mode)
	assert.NotEmpty(t, d.ID())
}

func TestDescriptorIDIsStableAndOrderIndependent(t *testing.T) {
	d1 := conformance.Descriptor{SubClaims: []string{"p21.a", "p21.b"}, Mode: "conservative", DeclaredExtensions: []string{"x", "y"}, TrackCap: 64, DeltaCap: 32, SnapshotInterval: 25}
	d2 := conformance.Descriptor{SubClaims: []string{"p21.b", "p21.a"}, Mode: "conservative", DeclaredExtensions: []string{"y", "x"}, TrackCap: 64, DeltaCap: 32, SnapshotInterval: 25}
	assert.Equal(t, d1.ID(), d2.ID())
	assert.Len(t, d1.ID(), 16)
}

// Determinism, exercised through the reference capsule across two
// unrelated fixture domains: identical inputs must produce identical
// delta sequences and identical final track identities.
func TestReferenceCapsuleDeterminismAcrossDomains(t *testing.T) {
	for _, fs := range fixtures.All() {
		t.Run(string(fs.Domain), func(t *testing.T) {
			cap1 := newReferenceCapsuleForDomain(t, fs.Domain)
			cap2 := newReferenceCapsuleForDomain(t, fs.Domain)

			var deltas1, deltas2 [][]string
			for _, batch := range fs.Ticks {
				d1 := cap1.TrackMaintenance().Ingest(batch)
				d2 := cap2.TrackMaintenance().Ingest(batch)
				deltas1 = append(deltas1, deltaTypes(d1))
				deltas2 = append(deltas2, deltaTypes(d2))
			}
			assert.Equal(t, deltas1, deltas2)

			snap1 := cap1.TrackMaintenance().Snapshot(fs.Ticks[len(fs.Ticks)-1].TickID)
			snap2 := cap2.TrackMaintenance().Snapshot(fs.Ticks[len(fs.Ticks)-1].TickID)
			require.Equal(t, len(snap1.Tracks), len(snap2.Tracks))
			for i := range snap1.Tracks {
				assert.Equal(t, snap1.Tracks[i].TrackID, snap2.Tracks[i].TrackID)
			}
		})
	}
}

func newReferenceCapsuleForDomain(t *testing.T, domain fixtures.Domain) conformance.Capsule {
	t.Helper()
	cfg := config.DefaultConfig()
	cls := classifier.NewMobClassifier()
	if domain == fixtures.DomainSecurity {
		cls = classifier.NewSecurityClassifier()
	}
	return reference.New(cfg, cls, "bot-1", "stream-1")
}

func deltaTypes(deltas []track.SaliencyDelta) []string {
	out := make([]string, len(deltas))
	for i, d := range deltas {
		out[i] = d.Type.String() + ":" + d.TrackID
	}
	return out
}
