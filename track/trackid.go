// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package track

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// idGen derives content-addressed trackIds. Its disambiguator is a plain
// per-instance counter, never persisted and never shared across TrackSet
// instances — two instances fed identical inputs start counting from the
// same value and therefore derive identical trackIds, which is what makes
// trackIds reproducible across independent runs of the same scenario.
type idGen struct {
	disambiguator int
}

// next hashes (firstSeenTick, posBucket{X,Y,Z}, classEnum, disambiguator)
// with SHA-256 and truncates to the first 16 hex characters. The
// disambiguator is incremented on every call so that two items landing on
// the same five preceding keys within one tick never collide.
func (g *idGen) next(firstSeenTick, posBucketX, posBucketY, posBucketZ, classEnum int) string {
	d := g.disambiguator
	g.disambiguator++

	seed := fmt.Sprintf("%d|%d|%d|%d|%d|%d", firstSeenTick, posBucketX, posBucketY, posBucketZ, classEnum, d)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}
