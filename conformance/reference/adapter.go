// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package reference wraps this module's own track.Set + belief.Bus
// behind the conformance.Capsule contract, so the A1–A9/B1–B4 suite can
// certify this implementation against itself.
package reference

import (
	"saliencycore/belief"
	"saliencycore/classifier"
	"saliencycore/conformance"
	"saliencycore/config"
	"saliencycore/track"
)

// Adapter is the reference conformance.Capsule.
type Adapter struct {
	cfg *config.Config
	cls *classifier.Classifier
	set *track.Set
	bus *belief.Bus
}

// New builds an Adapter from a config.Config and classifier, wiring a
// fresh track.Set and belief.Bus pair behind it.
func New(cfg *config.Config, cls *classifier.Classifier, botID, streamID string) *Adapter {
	ts := track.New(toTrackConfig(cfg), cls, nil)
	bus := belief.New(botID, streamID, ts, belief.Config{
		DeltaCap:              cfg.DeltaCap,
		SnapshotIntervalTicks: cfg.SnapshotIntervalTicks,
	}, nil)
	return &Adapter{cfg: cfg, cls: cls, set: ts, bus: bus}
}

func toTrackConfig(cfg *config.Config) track.Config {
	return track.Config{
		TrackCap:               cfg.TrackCap,
		InferredThreshold:      cfg.InferredThreshold,
		LostThreshold:          cfg.LostThreshold,
		EvictionThreshold:      cfg.EvictionThreshold,
		WarmupObservations:     cfg.WarmupObservations,
		CooldownTicks:          cfg.CooldownTicks,
		AssociationMaxDistance: cfg.AssociationMaxDistance,
		ConfidenceDecayPerTick: cfg.ConfidenceDecayPerTick,
		PUnknownDriftPerTick:   cfg.PUnknownDriftPerTick,
		ConfidenceFloor:        cfg.ConfidenceFloor,
		ConfidenceBoost:        cfg.ConfidenceBoost,
		PUnknownRecovery:       cfg.PUnknownRecovery,
	}
}

// TrackMaintenance returns the bare TrackSet sub-claim view.
func (a *Adapter) TrackMaintenance() conformance.TrackMaintenance { return a.set }

// Emission returns the BeliefBus sub-claim view.
func (a *Adapter) Emission() conformance.Emission { return a.bus }

// Descriptor publishes this implementation's capability descriptor.
func (a *Adapter) Descriptor() conformance.Descriptor {
	return conformance.Descriptor{
		SubClaims:          []string{"p21.a", "p21.b"},
		Mode:               string(a.cfg.BeliefMode),
		DeclaredExtensions: a.cfg.DeclaredExtensions,
		TrackCap:           a.cfg.TrackCap,
		DeltaCap:           a.cfg.DeltaCap,
		SnapshotInterval:   a.cfg.SnapshotIntervalTicks,
	}
}
