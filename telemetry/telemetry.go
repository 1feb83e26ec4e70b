// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package telemetry provides pure-additive counters and structured event
// logging for the belief core. Nothing here ever influences TrackSet or
// BeliefBus control flow; it only observes.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Telemetry holds the core observability counters (active/new/lost track
// counts, deltas emitted, envelopes sent, reflex fires) plus two
// purely-additive counters: tracksLostPreWarmup (how often a track decays
// to lost before ever completing warmup — see the open question in
// DESIGN.md) and nonMonotonicTick (how often the caller passed a
// decreasing or repeated tickId).
//
// Snapshot-safe getters return plain copies. Reset zeroes the local
// counters used by those getters; it does not rewind the Prometheus
// collectors themselves, which — per Prometheus convention — only ever
// increase for the lifetime of the process.
type Telemetry struct {
	zapLog *zap.Logger

	tracksActive        int
	tracksNew           int
	tracksLost          int
	tracksLostPreWarmup int
	deltasEmitted       int
	envelopesSent       int
	reflexFired         int
	nonMonotonicTick    int

	promTracksActive        prometheus.Gauge
	promTracksNew           prometheus.Counter
	promTracksLost          prometheus.Counter
	promTracksLostPreWarmup prometheus.Counter
	promDeltasEmitted       prometheus.Counter
	promEnvelopesSent       prometheus.Counter
	promReflexFired         prometheus.Counter
	promNonMonotonicTick    prometheus.Counter
}

// PreventabilitySignal is a structured event capturing the observability
// state at the moment of a domain-significant failure — e.g., a track
// decaying to lost while still classified as a live risk. One record is
// logged per occurrence; never used as a control-flow input.
type PreventabilitySignal struct {
	DeathTick          int
	TrackID            string
	TrackExisted       bool
	TrackConfidence    float64
	TicksSinceLastSeen int
	NearestThreatKind  string
	NearestThreatLevel string
	NearestThreatDist  int
}

// New constructs a Telemetry instance. zapLog may be nil, in which case
// structured events are silently dropped (useful for tests that only
// care about the counters).
func New(zapLog *zap.Logger) *Telemetry {
	t := &Telemetry{
		zapLog: zapLog,
		promTracksActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "saliencycore_tracks_active",
			Help: "Current number of live tracks.",
		}),
		promTracksNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_tracks_new_total",
			Help: "Total number of tracks that completed warmup and fired new_threat.",
		}),
		promTracksLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_tracks_lost_total",
			Help: "Total number of tracks that transitioned to lost visibility.",
		}),
		promTracksLostPreWarmup: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_tracks_lost_pre_warmup_total",
			Help: "Total number of tracks lost before ever completing warmup.",
		}),
		promDeltasEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_deltas_emitted_total",
			Help: "Total number of saliency deltas emitted by the TrackSet.",
		}),
		promEnvelopesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_envelopes_sent_total",
			Help: "Total number of envelopes built by the BeliefBus.",
		}),
		promReflexFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_reflex_fired_total",
			Help: "Total number of downstream reflex actions triggered.",
		}),
		promNonMonotonicTick: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "saliencycore_non_monotonic_tick_total",
			Help: "Total number of decreasing or repeated tickId values observed.",
		}),
	}
	safeRegister(
		t.promTracksActive,
		t.promTracksNew,
		t.promTracksLost,
		t.promTracksLostPreWarmup,
		t.promDeltasEmitted,
		t.promEnvelopesSent,
		t.promReflexFired,
		t.promNonMonotonicTick,
	)
	return t
}

// safeRegister registers Prometheus collectors, ignoring
// AlreadyRegisteredError so repeated construction in tests does not panic.
func safeRegister(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				continue
			}
		}
	}
}

// StartServer exposes the registered collectors on /metrics.
func StartServer(addr string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, nil)
}

// SetTracksActive records the current TrackSet size.
func (t *Telemetry) SetTracksActive(n int) {
	t.tracksActive = n
	t.promTracksActive.Set(float64(n))
}

// RecordTrackNew increments tracksNew on a completed warmup.
func (t *Telemetry) RecordTrackNew() {
	t.tracksNew++
	t.promTracksNew.Inc()
}

// RecordTrackLost increments tracksLost, and tracksLostPreWarmup when the
// track never completed warmup before decaying.
func (t *Telemetry) RecordTrackLost(preWarmup bool) {
	t.tracksLost++
	t.promTracksLost.Inc()
	if preWarmup {
		t.tracksLostPreWarmup++
		t.promTracksLostPreWarmup.Inc()
	}
}

// RecordDeltaEmitted increments deltasEmitted.
func (t *Telemetry) RecordDeltaEmitted() {
	t.deltasEmitted++
	t.promDeltasEmitted.Inc()
}

// RecordEnvelopeSent increments envelopesSent.
func (t *Telemetry) RecordEnvelopeSent() {
	t.envelopesSent++
	t.promEnvelopesSent.Inc()
}

// RecordReflexFired increments reflexFired.
func (t *Telemetry) RecordReflexFired() {
	t.reflexFired++
	t.promReflexFired.Inc()
}

// RecordNonMonotonicTick increments nonMonotonicTick.
func (t *Telemetry) RecordNonMonotonicTick() {
	t.nonMonotonicTick++
	t.promNonMonotonicTick.Inc()
}

// LogPreventabilitySignal writes one structured event record. A nil
// logger makes this a no-op.
func (t *Telemetry) LogPreventabilitySignal(s PreventabilitySignal) {
	if t.zapLog == nil {
		return
	}
	t.zapLog.Info("preventability_signal",
		zap.Int("death_tick", s.DeathTick),
		zap.String("track_id", s.TrackID),
		zap.Bool("track_existed", s.TrackExisted),
		zap.Float64("track_confidence", s.TrackConfidence),
		zap.Int("ticks_since_last_seen", s.TicksSinceLastSeen),
		zap.String("nearest_threat_kind", s.NearestThreatKind),
		zap.String("nearest_threat_level", s.NearestThreatLevel),
		zap.Int("nearest_threat_dist", s.NearestThreatDist),
	)
}

// Snapshot is a point-in-time copy of every counter.
type Snapshot struct {
	TracksActive        int
	TracksNew           int
	TracksLost          int
	TracksLostPreWarmup int
	DeltasEmitted       int
	EnvelopesSent       int
	ReflexFired         int
	NonMonotonicTick    int
}

// Snapshot returns a copy of every counter's current value.
func (t *Telemetry) Snapshot() Snapshot {
	return Snapshot{
		TracksActive:        t.tracksActive,
		TracksNew:           t.tracksNew,
		TracksLost:          t.tracksLost,
		TracksLostPreWarmup: t.tracksLostPreWarmup,
		DeltasEmitted:       t.deltasEmitted,
		EnvelopesSent:       t.envelopesSent,
		ReflexFired:         t.reflexFired,
		NonMonotonicTick:    t.nonMonotonicTick,
	}
}

// Reset zeroes the local counters used by Snapshot. The Prometheus
// collectors are left untouched.
func (t *Telemetry) Reset() {
	t.tracksActive = 0
	t.tracksNew = 0
	t.tracksLost = 0
	t.tracksLostPreWarmup = 0
	t.deltasEmitted = 0
	t.envelopesSent = 0
	t.reflexFired = 0
	t.nonMonotonicTick = 0
}
