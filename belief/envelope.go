// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package belief implements the emission layer: BeliefBus buffers
// TrackSet's deltas between emission cycles, enforces per-envelope caps
// and producer-side invariants, governs snapshot cadence, and builds
// wire-ready Envelopes with caller-assigned monotone sequence numbers.
package belief

import "saliencycore/track"

const (
	requestVersion = "saliency_delta"
	envelopeType   = "environmental_awareness"
)

// Envelope is the wire unit BeliefBus produces at the 1 Hz emission
// cadence (transport/wsfeed encodes it as JSON). Only the Envelope's own
// fields carry JSON tags in the wire vocabulary. The nested track.Snapshot
// and track.SaliencyDelta values have no JSON tags and no text marshalers,
// so encoding/json writes their field names as Go identifiers and their
// DeltaType, Visibility and RiskLevel values as integers, not as the
// vocabulary strings their String methods return.
type Envelope struct {
	RequestVersion string                `json:"request_version"`
	Type           string                `json:"type"`
	BotID          string                `json:"bot_id"`
	StreamID       string                `json:"stream_id"`
	Seq            int                   `json:"seq"`
	TickID         int                   `json:"tick_id"`
	Snapshot       *track.Snapshot       `json:"snapshot,omitempty"`
	SaliencyEvents []track.SaliencyDelta `json:"saliency_events"`
}
