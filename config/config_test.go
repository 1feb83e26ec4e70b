// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	assert.Equal(t, 64, c.TrackCap)
	assert.Equal(t, 32, c.DeltaCap)
	assert.Equal(t, 25, c.SnapshotIntervalTicks)
	assert.Equal(t, 5, c.TickHz)
	assert.Equal(t, 3, c.InferredThreshold)
	assert.Equal(t, 15, c.LostThreshold)
	assert.Equal(t, 25, c.EvictionThreshold)
	assert.Equal(t, 2, c.WarmupObservations)
	assert.Equal(t, 5, c.CooldownTicks)
	assert.Equal(t, 3, c.AssociationMaxDistance)
	assert.Equal(t, 0.5, c.UncertaintyThreshold)
	assert.Equal(t, ModeConservative, c.BeliefMode)
}

func TestFinalizeDerivesPerTickRatesFromPerSecond(t *testing.T) {
	c := DefaultConfig()
	// 0.10/s over 5 Hz = 0.02/tick; 0.15/s over 5 Hz = 0.03/tick.
	assert.InDelta(t, 0.02, c.ConfidenceDecayPerTick, 1e-9)
	assert.InDelta(t, 0.03, c.PUnknownDriftPerTick, 1e-9)
	assert.Equal(t, 0.10, c.ConfidenceBoost["visible"])
	assert.Equal(t, 0.15, c.PUnknownRecovery["visible"])
}

func TestFinalizeScalesWithDifferentHz(t *testing.T) {
	c := DefaultConfig()
	c.TickHz = 10
	c.finalize()
	assert.InDelta(t, 0.01, c.ConfidenceDecayPerTick, 1e-9)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	c := DefaultConfig()
	c.LostThreshold = c.InferredThreshold
	assert.Error(t, c.Validate())
}

func TestValidateRejectsBadBeliefMode(t *testing.T) {
	c := DefaultConfig()
	c.BeliefMode = BeliefMode("unknown")
	assert.Error(t, c.Validate())
}

func TestValidateRejectsOutOfRangeUncertainty(t *testing.T) {
	c := DefaultConfig()
	c.UncertaintyThreshold = 1.5
	assert.Error(t, c.Validate())
}

func TestHasExtension(t *testing.T) {
	c := DefaultConfig()
	c.DeclaredExtensions = []string{"predictive-hints"}
	assert.True(t, c.HasExtension("predictive-hints"))
	assert.False(t, c.HasExtension("other"))
}

func TestCloneIsIndependent(t *testing.T) {
	c := DefaultConfig()
	clone := c.Clone()
	clone.ConfidenceBoost["visible"] = 999
	clone.DeclaredExtensions = append(clone.DeclaredExtensions, "x")

	assert.Equal(t, 0.10, c.ConfidenceBoost["visible"])
	assert.Empty(t, c.DeclaredExtensions)
}
