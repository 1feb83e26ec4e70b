// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package reference is a worked example of an evidence builder: an
// external collaborator that buckets raw, continuous sensor output into
// the canonical evidence.Batch shape the core consumes. Nothing in this
// package is part of the conformance surface; the demo daemon uses it to
// bucket its synthetic raw detections. The conformance fixtures build
// evidence.Item values directly and do not use it.
package reference

import (
	"math"
	"sort"

	"saliencycore/evidence"
)

// RawDetection is an unbucketed observation as it might arrive from a
// sensor: continuous coordinates, a raw distance, and a self/debris flag.
type RawDetection struct {
	EngineID   int
	ClassLabel string
	ClassEnum  int
	X, Y, Z    float64
	Distance   float64
	LOS        evidence.LineOfSight
	IsSelf     bool
	IsDebris   bool
	Features   map[string]interface{}
}

// Builder buckets raw detections into an evidence.Batch.
type Builder struct {
	PosBucketSize       float64
	ProximityBucketSize float64
}

// NewBuilder constructs a Builder using the stock bucket sizes
// (PosBucketSize=1, ProximityBucketSize=2) when given non-positive
// values.
func NewBuilder(posBucketSize, proximityBucketSize float64) *Builder {
	if posBucketSize <= 0 {
		posBucketSize = 1
	}
	if proximityBucketSize <= 0 {
		proximityBucketSize = 2
	}
	return &Builder{PosBucketSize: posBucketSize, ProximityBucketSize: proximityBucketSize}
}

// Build drops self/debris detections, buckets coordinates and distance,
// and returns a canonically sorted evidence.Batch for tickID.
func (b *Builder) Build(tickID int, raw []RawDetection) evidence.Batch {
	items := make([]evidence.Item, 0, len(raw))
	for _, d := range raw {
		if d.IsSelf || d.IsDebris {
			continue
		}
		items = append(items, evidence.Item{
			EngineID:        d.EngineID,
			ClassLabel:      d.ClassLabel,
			ClassEnum:       d.ClassEnum,
			PosBucketX:      bucket(d.X, b.PosBucketSize),
			PosBucketY:      bucket(d.Y, b.PosBucketSize),
			PosBucketZ:      bucket(d.Z, b.PosBucketSize),
			ProximityBucket: bucket(d.Distance, b.ProximityBucketSize),
			LOS:             d.LOS,
			Features:        d.Features,
		})
	}

	// Stable pre-sort by EngineID keeps the canonicalize step deterministic
	// even when the raw feed arrives in an unstable order.
	sort.SliceStable(items, func(i, j int) bool { return items[i].EngineID < items[j].EngineID })

	batch := evidence.Batch{TickID: tickID, Items: items}
	batch.Canonicalize()
	return batch
}

func bucket(v, size float64) int {
	if size <= 0 {
		size = 1
	}
	return int(math.Floor(v / size))
}
