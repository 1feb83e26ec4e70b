// Copyright (C) 2024 right-sizer contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package conformance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// descriptorHash content-addresses a Descriptor the same way trackIds
// are derived: SHA-256 over a canonical field encoding, truncated to 16
// hex characters. Slices are sorted before hashing so field order never
// affects the result.
func descriptorHash(d Descriptor) string {
	claims := append([]string(nil), d.SubClaims...)
	sort.Strings(claims)
	ext := append([]string(nil), d.DeclaredExtensions...)
	sort.Strings(ext)

	seed := fmt.Sprintf("%s|%s|%s|%d|%d|%d",
		strings.Join(claims, ","), d.Mode, strings.Join(ext, ","),
		d.TrackCap, d.DeltaCap, d.SnapshotInterval)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}
