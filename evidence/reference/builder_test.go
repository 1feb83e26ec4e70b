// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDropsSelfAndDebris(t *testing.T) {
	b := NewBuilder(1, 2)
	batch := b.Build(1, []RawDetection{
		{EngineID: 1, ClassLabel: "zombie", X: 1, Y: 0, Z: 0, Distance: 4, IsSelf: true},
		{EngineID: 2, ClassLabel: "zombie", X: 1, Y: 0, Z: 0, Distance: 4, IsDebris: true},
		{EngineID: 3, ClassLabel: "zombie", X: 1, Y: 0, Z: 0, Distance: 4},
	})
	assert.Len(t, batch.Items, 1)
	assert.Equal(t, 3, batch.Items[0].EngineID)
}

func TestBuildBucketsCoordinatesAndDistance(t *testing.T) {
	b := NewBuilder(1, 2)
	batch := b.Build(1, []RawDetection{
		{EngineID: 1, ClassLabel: "zombie", X: 3.9, Y: -0.2, Z: 0, Distance: 5.5},
	})
	item := batch.Items[0]
	assert.Equal(t, 3, item.PosBucketX)
	assert.Equal(t, -1, item.PosBucketY)
	assert.Equal(t, 2, item.ProximityBucket)
}

func TestBuildReturnsCanonicalOrder(t *testing.T) {
	b := NewBuilder(1, 2)
	batch := b.Build(1, []RawDetection{
		{EngineID: 1, ClassLabel: "zombie", ClassEnum: 1, Distance: 6},
		{EngineID: 2, ClassLabel: "zombie", ClassEnum: 1, Distance: 0},
	})
	assert.True(t, batch.IsCanonical())
	assert.Equal(t, 2, batch.Items[0].EngineID)
}

func TestNewBuilderDefaultsNonPositiveSizes(t *testing.T) {
	b := NewBuilder(0, -1)
	assert.Equal(t, 1.0, b.PosBucketSize)
	assert.Equal(t, 2.0, b.ProximityBucketSize)
}

func TestBucketNegativeCoordinatesFloorCorrectly(t *testing.T) {
	assert.Equal(t, -1, bucket(-0.5, 1))
	assert.Equal(t, -1, bucket(-1, 1))
	assert.Equal(t, 0, bucket(0, 1))
}

