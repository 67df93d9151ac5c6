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
	"github.com/probechain/adnl-network/common"
	"github.com/probechain/adnl-network/fec"
	"github.com/probechain/adnl-network/log"
)

// IncomingTransfer reassembles a transfer part by part as its chunks
// arrive, in order, appending each decoded part to the running buffer.
// Chunks for a part already completed are discarded; chunks for a part
// not yet reached are discarded too, since only one decoder is kept
// live at a time — the sender's wave-then-wait protocol keeps this from
// mattering in practice.
type IncomingTransfer struct {
	id      common.TransferID
	factory fec.Factory
	log     log.Logger

	totalSize   int64
	buffer      []byte
	currentPart int32
	dec         fec.Decoder
	state       *IncomingState
}

// NewIncomingTransfer builds an empty reassembly state for id.
func NewIncomingTransfer(id common.TransferID, factory fec.Factory) *IncomingTransfer {
	return &IncomingTransfer{
		id:        id,
		factory:   factory,
		log:       log.New("module", "rldp", "transfer", id.Hex()),
		totalSize: -1,
		state:     &IncomingState{},
	}
}

// ID returns the transfer's wire id.
func (t *IncomingTransfer) ID() common.TransferID { return t.id }

// State returns the update-count state the receive loop's timeout grace
// period consults.
func (t *IncomingTransfer) State() *IncomingState { return t.state }

// TotalSize returns the declared payload size, or -1 if not yet known.
func (t *IncomingTransfer) TotalSize() int64 { return t.totalSize }

// Data returns the bytes reassembled so far.
func (t *IncomingTransfer) Data() []byte { return t.buffer }

// IsComplete reports whether every part has been reassembled.
func (t *IncomingTransfer) IsComplete() bool {
	return t.totalSize >= 0 && int64(len(t.buffer)) == t.totalSize
}

// ProcessChunk folds one arriving symbol into the current part's
// decoder. It returns a bare acknowledgment part to send back to the
// peer, or nil if the chunk could not be applied (e.g. total size still
// unknown).
func (t *IncomingTransfer) ProcessChunk(mp MessagePart) (*MessagePart, error) {
	if mp.Part < t.currentPart {
		return nil, nil
	}
	if mp.Part > t.currentPart {
		return nil, nil
	}

	if t.totalSize < 0 {
		if mp.TotalSize < 0 {
			t.log.Warn("dropping chunk before total size is known")
			return nil, nil
		}
		t.totalSize = mp.TotalSize
	}

	if t.dec == nil {
		t.dec = t.factory.Decoder(t.partLength(t.currentPart), fec.DefaultSymbolSize)
	}

	data, done, err := t.dec.AddSymbol(uint32(mp.Seqno), mp.Data)
	if err != nil {
		return nil, err
	}
	t.state.IncreaseUpdates()

	ack := &MessagePart{
		TransferID: t.id,
		Part:       t.currentPart,
		Seqno:      int32(t.dec.ReceivedCount()),
		TotalSize:  -1,
	}

	if done {
		t.buffer = append(t.buffer, data...)
		t.currentPart++
		t.dec = nil
	}

	return ack, nil
}

func (t *IncomingTransfer) partLength(part int32) int {
	if t.totalSize < 0 {
		return DefaultPartSize
	}
	start := int64(part) * DefaultPartSize
	remaining := t.totalSize - start
	switch {
	case remaining > DefaultPartSize:
		return DefaultPartSize
	case remaining < 0:
		return 0
	default:
		return int(remaining)
	}
}
