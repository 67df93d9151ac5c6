// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package rldp implements the reliable large-datagram transport: message
// fragmentation into FEC-coded parts, a transfer registry keyed by
// bitwise-complement transfer id pairs, and the query/answer engine that
// drives adaptive-timeout send and receive loops over it.
package rldp

import "time"

const (
	// MinTimeout is the floor below which CalcTimeout never drops,
	// regardless of how fast a peer's measured roundtrip gets.
	MinTimeout = 500 * time.Millisecond
	// MaxTimeout is the ceiling used for a peer with no roundtrip
	// estimate yet.
	MaxTimeout = 10 * time.Second
	// TransferLoopInterval is how often a send loop wakes to check
	// whether its current wave has been acknowledged.
	TransferLoopInterval = 10 * time.Millisecond
	// MaxTransferWave bounds how many unacknowledged symbols a send
	// loop emits before pausing to check progress.
	MaxTransferWave = 10
	// DefaultMaxAnswerSize bounds an answer payload when the caller
	// does not specify one.
	DefaultMaxAnswerSize = 128 * 1024
	// DefaultPartSize is the number of payload bytes per transfer part,
	// before FEC coding splits it into symbols.
	DefaultPartSize = 2048
)

// CalcTimeout derives a per-wave timeout from a roundtrip estimate. A
// zero estimate (no measurement yet) maps to MaxTimeout; anything below
// MinTimeout is clamped up to it.
func CalcTimeout(roundtrip time.Duration) time.Duration {
	if roundtrip == 0 {
		roundtrip = MaxTimeout
	}
	if roundtrip < MinTimeout {
		return MinTimeout
	}
	return roundtrip
}

// UpdateRoundtrip folds a freshly observed sample (elapsed since start)
// into the running estimate pointed to by roundtrip: the first sample
// replaces it outright, and each later sample adds half its value to the
// estimate, so the estimate never decreases. It returns CalcTimeout of
// the updated estimate.
func UpdateRoundtrip(roundtrip *time.Duration, start time.Time) time.Duration {
	elapsed := time.Since(start)
	if *roundtrip == 0 {
		*roundtrip = elapsed
	} else {
		*roundtrip += elapsed / 2
	}
	return CalcTimeout(*roundtrip)
}

// IsTimedOut reports whether start is more than timeout ago, with an
// extra 1% grace per prior update — a query that has already received
// several acknowledged waves is given proportionally more slack before
// the next one is declared lost.
func IsTimedOut(start time.Time, timeout time.Duration, updates uint32) bool {
	grace := timeout * time.Duration(updates) / 100
	return time.Since(start) > timeout+grace
}
