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

package rldp

import (
	"testing"
	"time"
)

func TestCalcTimeoutNoEstimate(t *testing.T) {
	if got := CalcTimeout(0); got != MaxTimeout {
		t.Fatalf("CalcTimeout(0) = %v, want %v", got, MaxTimeout)
	}
}

func TestCalcTimeoutClampsToMin(t *testing.T) {
	if got := CalcTimeout(10 * time.Millisecond); got != MinTimeout {
		t.Fatalf("CalcTimeout(10ms) = %v, want %v", got, MinTimeout)
	}
}

func TestCalcTimeoutPassesThrough(t *testing.T) {
	r := 2 * time.Second
	if got := CalcTimeout(r); got != r {
		t.Fatalf("CalcTimeout(%v) = %v, want %v", r, got, r)
	}
}

func TestUpdateRoundtripFirstSampleReplaces(t *testing.T) {
	var r time.Duration
	start := time.Now().Add(-100 * time.Millisecond)
	UpdateRoundtrip(&r, start)
	if r < 90*time.Millisecond || r > 500*time.Millisecond {
		t.Fatalf("first sample = %v, want roughly 100ms", r)
	}
}

func TestUpdateRoundtripAddsHalfOfLaterSamples(t *testing.T) {
	r := 100 * time.Millisecond
	start := time.Now().Add(-300 * time.Millisecond)
	UpdateRoundtrip(&r, start)
	// 100ms + (~300ms)/2 = ~250ms, strictly more than the initial
	// estimate and strictly less than the raw new sample.
	if r <= 100*time.Millisecond {
		t.Fatalf("averaged estimate %v did not move past the prior one", r)
	}
}

func TestIsTimedOut(t *testing.T) {
	start := time.Now().Add(-1 * time.Second)
	if !IsTimedOut(start, 500*time.Millisecond, 0) {
		t.Fatal("expected timeout with no updates")
	}
	if IsTimedOut(start, 2*time.Second, 0) {
		t.Fatal("did not expect timeout when elapsed is under the budget")
	}
}

func TestIsTimedOutGraceGrowsWithUpdates(t *testing.T) {
	start := time.Now().Add(-550 * time.Millisecond)
	timeout := 500 * time.Millisecond
	if !IsTimedOut(start, timeout, 0) {
		t.Fatal("expected timeout with zero updates and no grace")
	}
	if IsTimedOut(start, timeout, 50) {
		t.Fatal("50 updates should grant enough grace to avoid a timeout here")
	}
}
