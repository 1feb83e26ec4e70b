// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package fixtures supplies evidence sequences for the conformance suite,
// drawn from two unrelated domains so conformance checks can't
// accidentally rely on one domain's particular shape of data: mob
// tracking and physical-security monitoring.
package fixtures

import "saliencycore/evidence"

// Domain names a fixture set's originating domain, for test labeling.
type Domain string

const (
	DomainMob      Domain = "mob"
	DomainSecurity Domain = "security"
)

// Set is a named, ordered sequence of batches exercising one scenario.
type Set struct {
	Domain Domain
	Name   string
	Ticks  []evidence.Batch
}

// item is a small builder to keep fixture tables readable.
func item(engineID int, classLabel string, classEnum, x, y, z, proximity int, los evidence.LineOfSight) evidence.Item {
	return evidence.Item{
		EngineID:        engineID,
		ClassLabel:      classLabel,
		ClassEnum:       classEnum,
		PosBucketX:      x,
		PosBucketY:      y,
		PosBucketZ:      z,
		ProximityBucket: proximity,
		LOS:             los,
	}
}

func batch(tickID int, items ...evidence.Item) evidence.Batch {
	b := evidence.Batch{TickID: tickID, Items: items}
	b.Canonicalize()
	return b
}

// Mob returns the "mob tracking" fixture set: a single zombie approaching
// from proximityBucket 6 down to 1 over successive ticks, exercising risk
// band escalation as it closes distance.
func Mob() Set {
	return Set{
		Domain: DomainMob,
		Name:   "zombie-approach",
		Ticks: []evidence.Batch{
			batch(1, item(10, "zombie", 1, 0, 0, 0, 6, evidence.LOSVisible)),
			batch(2, item(10, "zombie", 1, 0, 0, 0, 6, evidence.LOSVisible)),
			batch(3, item(10, "zombie", 1, 0, 0, 0, 1, evidence.LOSVisible)),
		},
	}
}

// Security returns the "physical-security monitoring" fixture set: an
// intruder detected at long range, then closing to the critical band —
// the structural analog of Mob() in an unrelated domain.
func Security() Set {
	return Set{
		Domain: DomainSecurity,
		Name:   "intruder-approach",
		Ticks: []evidence.Batch{
			batch(1, item(20, "intruder", 1, 0, 0, 0, 10, evidence.LOSVisible)),
			batch(2, item(20, "intruder", 1, 0, 0, 0, 10, evidence.LOSVisible)),
			batch(3, item(20, "intruder", 1, 0, 0, 0, 1, evidence.LOSVisible)),
		},
	}
}

// All returns every registered fixture set.
func All() []Set {
	return []Set{Mob(), Security()}
}
