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

// Package dht implements the peer-discovery side of the overlay: a
// Kademlia-style XOR-affinity peer table and the iterator that picks
// lookup candidates for a given key.
package dht

import (
	"sync"

	"github.com/probechain/adnl-network/common"
)

// Dht is the surface PeerIterator needs from the local node's peer
// table: the full known set, and a badness verdict used to exclude
// peers a prior lookup already found unresponsive or malicious.
type Dht interface {
	KnownPeers() []common.NodeIDShort
	IsBadPeer(id common.NodeIDShort) bool
}

// Table is a concurrency-safe, in-memory Dht: the set of peers this node
// currently knows about, plus a denylist of ones to skip.
type Table struct {
	mu    sync.RWMutex
	peers map[common.NodeIDShort]struct{}
	bad   map[common.NodeIDShort]struct{}
}

// NewTable returns an empty peer table.
func NewTable() *Table {
	return &Table{
		peers: make(map[common.NodeIDShort]struct{}),
		bad:   make(map[common.NodeIDShort]struct{}),
	}
}

// AddPeer records id as known.
func (t *Table) AddPeer(id common.NodeIDShort) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[id] = struct{}{}
}

// RemovePeer forgets id entirely.
func (t *Table) RemovePeer(id common.NodeIDShort) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.peers, id)
}

// MarkBad flags id so future lookups skip it without forgetting that it
// was once known.
func (t *Table) MarkBad(id common.NodeIDShort) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bad[id] = struct{}{}
}

// KnownPeers implements Dht.
func (t *Table) KnownPeers() []common.NodeIDShort {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]common.NodeIDShort, 0, len(t.peers))
	for id := range t.peers {
		out = append(out, id)
	}
	return out
}

// IsBadPeer implements Dht.
func (t *Table) IsBadPeer(id common.NodeIDShort) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, bad := t.bad[id]
	return bad
}
