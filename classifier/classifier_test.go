// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRiskLevelStringRoundTrip(t *testing.T) {
	levels := []RiskLevel{RiskNone, RiskLow, RiskMedium, RiskHigh, RiskCritical}
	for _, l := range levels {
		assert.Equal(t, l, ParseRiskLevel(l.String()))
	}
}

func TestRiskLevelStringOutOfRangeDefaultsToNone(t *testing.T) {
	assert.Equal(t, "none", RiskLevel(99).String())
}

func TestParseRiskLevelUnknownDefaultsToNone(t *testing.T) {
	assert.Equal(t, RiskNone, ParseRiskLevel("bogus"))
}

func TestNilClassifierIsSafe(t *testing.T) {
	var c *Classifier
	assert.False(t, c.IsRiskBearing("zombie"))
	assert.Equal(t, RiskNone, c.Classify("zombie", 1, 0))
}

func TestBandClassifierConservativeSuppressesOnUncertainty(t *testing.T) {
	c := NewMobClassifier()
	assert.Equal(t, RiskCritical, c.Classify("zombie", 1, 0.1))
	assert.Equal(t, RiskNone, c.Classify("zombie", 1, 0.6))
}

func TestBandClassifierPredictiveIgnoresUncertainty(t *testing.T) {
	c := NewBandClassifier([]string{"zombie"}, []Band{{MaxProximity: 1, Level: RiskCritical}}, 0.5, true)
	assert.Equal(t, RiskCritical, c.Classify("zombie", 1, 0.9))
}

func TestBandClassifierUnknownLabelIsNone(t *testing.T) {
	c := NewMobClassifier()
	assert.Equal(t, RiskNone, c.Classify("villager", 1, 0))
	assert.False(t, c.IsRiskBearing("villager"))
}

func TestBandClassifierFallsThroughToLow(t *testing.T) {
	c := NewMobClassifier()
	assert.Equal(t, RiskLow, c.Classify("zombie", 99, 0))
}

func TestBandOrderingIsRespected(t *testing.T) {
	c := NewMobClassifier()
	assert.Equal(t, RiskCritical, c.Classify("zombie", 1, 0))
	assert.Equal(t, RiskHigh, c.Classify("zombie", 3, 0))
	assert.Equal(t, RiskMedium, c.Classify("zombie", 5, 0))
	assert.Equal(t, RiskLow, c.Classify("zombie", 6, 0))
}

func TestSecurityClassifierIsDistinctFromMob(t *testing.T) {
	c := NewSecurityClassifier()
	assert.True(t, c.IsRiskBearing("intruder"))
	assert.False(t, c.IsRiskBearing("zombie"))
	assert.Equal(t, RiskCritical, c.Classify("intruder", 2, 0))
	assert.Equal(t, RiskHigh, c.Classify("intruder", 6, 0))
}
