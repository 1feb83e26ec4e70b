// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Command saliencyd demonstrates the pipeline end-to-end: a reference
// evidence builder feeds a TrackSet, a BeliefBus drains its deltas into
// envelopes on a 1 Hz cadence, and the result is both logged and pushed
// over a WebSocket feed. It exposes Prometheus metrics on /metrics.
//
// This binary is a wiring demo, not part of the core contract; the core
// (TrackSet, BeliefBus) has no knowledge of any of the transport or
// telemetry machinery assembled here.
package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"saliencycore/belief"
	"saliencycore/classifier"
	"saliencycore/config"
	"saliencycore/evidence/reference"
	"saliencycore/logger"
	"saliencycore/telemetry"
	"saliencycore/track"
	"saliencycore/transport/botauth"
	"saliencycore/transport/wsfeed"
)

func main() {
	logger.Init("info")
	logger.Info("saliencyd starting")

	cfg := config.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	zapLog, err := zap.NewProduction()
	if err != nil {
		logger.Error("failed to build structured logger: %v", err)
		os.Exit(1)
	}
	defer zapLog.Sync()

	tel := telemetry.New(zapLog)

	cls := classifier.NewMobClassifier()
	hooks := &track.Hooks{
		OnTrackCreated: func(trackID string) {
			logger.Debug("track created: %s", trackID)
		},
		OnTrackLost: func(trackID string, preWarmup bool) {
			tel.RecordTrackLost(preWarmup)
		},
		OnDeltaEmitted: func(d track.SaliencyDelta) {
			tel.RecordDeltaEmitted()
			if d.Type == track.NewThreat {
				tel.RecordTrackNew()
			}
		},
		OnNonMonotonicTick: func(tickID int) {
			tel.RecordNonMonotonicTick()
		},
	}

	set := track.New(toTrackConfig(cfg), cls, hooks)

	signer := botauth.NewSigner(envOr("SALIENCYD_JWT_SECRET", "dev-secret"), time.Hour)
	botID := envOr("SALIENCYD_BOT_ID", "bot-demo-1")
	if _, err := signer.Issue(botID); err != nil {
		logger.Warn("failed to issue demo bot token: %v", err)
	}

	busHooks := &belief.Hooks{
		OnEnvelopeSent: func(e belief.Envelope) {
			tel.RecordEnvelopeSent()
		},
		OnDroppedNewThreat: func(trackID string) {
			logger.Warn("dropped new_threat for %s: missing track payload", trackID)
		},
	}
	bus := belief.New(botID, "stream-"+randSuffix(), set, belief.Config{
		DeltaCap:              cfg.DeltaCap,
		SnapshotIntervalTicks: cfg.SnapshotIntervalTicks,
	}, busHooks)

	feed := wsfeed.New(wsfeed.Config{MaxConnections: 32, BufferSize: 16})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stream", feed.HandleWebSocket)
	server := &http.Server{Addr: ":8090", Handler: mux}
	go func() {
		logger.Info("metrics and stream server listening on :8090")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	builder := reference.NewBuilder(float64(cfg.PosBucketSize), float64(cfg.ProximityBucketSize))
	runLoop(ctx, bus, set, tel, builder, feed)

	logger.Info("saliencyd shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
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

// runLoop drives the tick cadence itself: ticks at a fixed 5 Hz (the
// default TickHz; cfg.TickHz is not read here), emits an envelope once
// per second and broadcasts it on feed. The core has no timer of its own — it is
// purely reactive to Ingest/Tick calls — so this loop is what actually
// drives it forward in time.
func runLoop(ctx context.Context, bus *belief.Bus, set *track.Set, tel *telemetry.Telemetry, builder *reference.Builder, feed *wsfeed.Feed) {
	tickInterval := time.Second / time.Duration(5)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	emitTicker := time.NewTicker(time.Second)
	defer emitTicker.Stop()

	tickID := 0
	seq := 0

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickID++
			raw := syntheticDetections(tickID)
			batch := builder.Build(tickID, raw)
			bus.Ingest(batch)
			tel.SetTracksActive(set.Size())
		case <-emitTicker.C:
			if !bus.HasContent() {
				continue
			}
			seq++
			env := bus.BuildEnvelope(seq)
			logger.Info("envelope seq=%d tick=%d deltas=%d snapshot=%v",
				env.Seq, env.TickID, len(env.SaliencyEvents), env.Snapshot != nil)
			feed.Broadcast(env)
		}
	}
}

// syntheticDetections is a placeholder raw-sensor feed for the demo; a
// real deployment replaces this with an actual evidence builder.
func syntheticDetections(tickID int) []reference.RawDetection {
	return []reference.RawDetection{
		{
			EngineID:   1,
			ClassLabel: "zombie",
			ClassEnum:  1,
			X:          0,
			Y:          0,
			Z:          0,
			Distance:   float64(6 - tickID%6),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func randSuffix() string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}
