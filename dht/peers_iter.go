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

package dht

import (
	"sort"

	"github.com/probechain/adnl-network/common"
)

// PeerIterator walks a key's lookup candidates in descending order of
// XOR affinity to that key. Fill snapshots and ranks the current
// candidate set; Next drains it one peer at a time.
type PeerIterator struct {
	key        common.NodeIDShort
	candidates []common.NodeIDShort
	pos        int
}

// WithKeyID returns an iterator ranking peers by affinity to key.
func WithKeyID(key common.NodeIDShort) *PeerIterator {
	return &PeerIterator{key: key}
}

// Fill replaces the iterator's candidate set with d's known, non-bad
// peers, ranked by descending affinity to the iterator's key. At most
// batchLen peers are retained, except that every peer tied with the
// batchLen-th on affinity is kept too — a lookup round should never
// arbitrarily drop one of several equally good candidates. It returns
// the number of candidates now queued. A non-positive batchLen retains
// every ranked peer.
func (it *PeerIterator) Fill(d Dht, batchLen int) int {
	known := d.KnownPeers()
	filtered := make([]common.NodeIDShort, 0, len(known))
	for _, p := range known {
		if !d.IsBadPeer(p) {
			filtered = append(filtered, p)
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return common.Affinity(it.key, filtered[i]) > common.Affinity(it.key, filtered[j])
	})

	if batchLen > 0 && len(filtered) > batchLen {
		cutoff := common.Affinity(it.key, filtered[batchLen-1])
		end := batchLen
		for end < len(filtered) && common.Affinity(it.key, filtered[end]) == cutoff {
			end++
		}
		filtered = filtered[:end]
	}

	it.candidates = filtered
	it.pos = 0
	return len(it.candidates)
}

// Next returns the next-best candidate and true, or the zero value and
// false once the current fill is exhausted.
func (it *PeerIterator) Next() (common.NodeIDShort, bool) {
	if it.pos >= len(it.candidates) {
		return common.NodeIDShort{}, false
	}
	id := it.candidates[it.pos]
	it.pos++
	return id, true
}

// Remaining reports how many candidates Next has not yet returned.
func (it *PeerIterator) Remaining() int {
	return len(it.candidates) - it.pos
}
