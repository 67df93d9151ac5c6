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

	"github.com/probechain/adnl-network/common"
)

type entryKind int

const (
	entryOutgoing entryKind = iota
	entryIncoming
	entryDone
)

// registryQueueSize bounds the per-incoming-transfer chunk queue. The
// send side waves in batches of at most MaxTransferWave symbols and
// waits for acknowledgment before sending more, so the queue never
// needs to hold more than a few waves' worth at once; a full queue
// indicates a stuck consumer and chunks are dropped rather than blocking
// the dispatcher.
const registryQueueSize = 4 * MaxTransferWave

type registryEntry struct {
	kind entryKind

	outgoing *OutgoingTransfer
	incoming *IncomingTransfer
	queue    chan MessagePart
}

// Registry is the process-wide table of in-flight transfers, keyed by
// the wire transfer id. Entries are tombstoned (entryDone) rather than
// removed immediately on completion, and swept after a delay, so a
// straggling retransmit from a peer that hasn't yet seen the final
// acknowledgment doesn't spawn a brand new transfer.
type Registry struct {
	entries sync.Map // common.TransferID -> *registryEntry
}

// NewRegistry returns an empty transfer registry.
func NewRegistry() *Registry { return &Registry{} }

// PutOutgoing registers a freshly created outgoing transfer.
func (r *Registry) PutOutgoing(t *OutgoingTransfer) {
	r.entries.Store(t.ID(), &registryEntry{kind: entryOutgoing, outgoing: t})
}

// PutIncoming registers a freshly created incoming transfer with its
// chunk queue.
func (r *Registry) PutIncoming(t *IncomingTransfer) {
	r.entries.Store(t.ID(), &registryEntry{
		kind:     entryIncoming,
		incoming: t,
		queue:    make(chan MessagePart, registryQueueSize),
	})
}

// GetOutgoing returns the outgoing transfer registered under id, if any.
func (r *Registry) GetOutgoing(id common.TransferID) (*OutgoingTransfer, bool) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, false
	}
	e := v.(*registryEntry)
	if e.kind != entryOutgoing {
		return nil, false
	}
	return e.outgoing, true
}

// GetIncoming returns the incoming transfer registered under id, if any.
func (r *Registry) GetIncoming(id common.TransferID) (*IncomingTransfer, chan MessagePart, bool) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, nil, false
	}
	e := v.(*registryEntry)
	if e.kind != entryIncoming {
		return nil, nil, false
	}
	return e.incoming, e.queue, true
}

// Deliver routes one arriving chunk to the registered transfer under its
// id: a chunk addressed to a known incoming transfer is queued for its
// receive loop; a chunk addressed to a known outgoing transfer is an
// acknowledgment, folded directly into its state. It returns false if
// the id is not registered (the chunk starts a brand new transfer,
// which is the caller's responsibility to open).
func (r *Registry) Deliver(mp MessagePart) bool {
	v, ok := r.entries.Load(mp.TransferID)
	if !ok {
		return false
	}
	e := v.(*registryEntry)
	switch e.kind {
	case entryIncoming:
		select {
		case e.queue <- mp:
		default:
		}
		return true
	case entryOutgoing:
		e.outgoing.State().AdvanceSeqnoIn(mp.Seqno)
		return true
	default:
		return true
	}
}

// MarkDone tombstones id so a late chunk addressed to it is acknowledged
// as routed (and dropped) rather than mistaken for a fresh transfer, then
// schedules its removal after delay.
func (r *Registry) MarkDone(id common.TransferID, after time.Duration) {
	r.entries.Store(id, &registryEntry{kind: entryDone})
	time.AfterFunc(after, func() {
		r.entries.Delete(id)
	})
}
