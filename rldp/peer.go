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
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/probechain/adnl-network/common"
)

// maxTrackedPeers bounds the number of per-peer roundtrip handles kept
// in memory; a node that has exchanged queries with more peers than this
// simply re-measures roundtrip from scratch for the least recently used
// ones once they're evicted.
const maxTrackedPeers = 4096

// peerHandle holds one peer's roundtrip estimate, serialized by its own
// mutex so concurrent queries to the same peer update it safely without
// contending on a package-wide lock.
type peerHandle struct {
	mu        sync.Mutex
	roundtrip time.Duration
}

// beginQuery snapshots the current roundtrip estimate to seed a new
// query's timeout.
func (p *peerHandle) beginQuery() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roundtrip
}

// endQuery folds a completed query's observed latency back into the
// estimate.
func (p *peerHandle) endQuery(start time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	UpdateRoundtrip(&p.roundtrip, start)
}

// setRoundtrip overwrites the estimate outright, used when a query times
// out: the engine backs off by doubling rather than averaging in a
// sample it never actually observed.
func (p *peerHandle) setRoundtrip(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roundtrip = d
}

// current returns the estimate as it stands right now.
func (p *peerHandle) current() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.roundtrip
}

// peerTable is a bounded, concurrency-safe cache of per-peer roundtrip
// handles, evicting least-recently-used entries once full.
type peerTable struct {
	cache *lru.Cache
	mu    sync.Mutex
}

func newPeerTable() *peerTable {
	c, err := lru.New(maxTrackedPeers)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// maxTrackedPeers never is.
		panic(err)
	}
	return &peerTable{cache: c}
}

func (t *peerTable) handle(peerID common.NodeIDShort) *peerHandle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if v, ok := t.cache.Get(peerID); ok {
		return v.(*peerHandle)
	}
	h := &peerHandle{}
	t.cache.Add(peerID, h)
	return h
}
