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
)

// OutgoingTransfer fragments one payload into DefaultPartSize parts and
// FEC-codes each part in turn, one at a time, handing the send loop a
// fresh wave of symbols every time it moves to the next part.
type OutgoingTransfer struct {
	id      common.TransferID
	data    []byte
	factory fec.Factory
	state   *OutgoingState

	numParts int32
	curPart  int32
	curEnc   fec.Encoder
	curSeqno uint32
}

// NewOutgoingTransfer builds a transfer over data, identified on the
// wire by id.
func NewOutgoingTransfer(id common.TransferID, data []byte, factory fec.Factory) *OutgoingTransfer {
	numParts := (len(data) + DefaultPartSize - 1) / DefaultPartSize
	if numParts == 0 {
		numParts = 1
	}
	return &OutgoingTransfer{
		id:       id,
		data:     data,
		factory:  factory,
		state:    &OutgoingState{},
		numParts: int32(numParts),
		curPart:  -1,
	}
}

// ID returns the transfer's wire id.
func (t *OutgoingTransfer) ID() common.TransferID { return t.id }

// State returns the shared state the receive loop updates with peer
// acknowledgments.
func (t *OutgoingTransfer) State() *OutgoingState { return t.state }

// StartNextPart advances to the next part, building a fresh encoder over
// it. It returns ok=false once every part has been started, at which
// point the transfer has nothing further to send.
func (t *OutgoingTransfer) StartNextPart() (waveSize int, ok bool) {
	next := t.curPart + 1
	if next >= t.numParts {
		return 0, false
	}

	start := int(next) * DefaultPartSize
	end := start + DefaultPartSize
	if end > len(t.data) {
		end = len(t.data)
	}

	enc, err := t.factory.Encoder(t.data[start:end], fec.DefaultSymbolSize)
	if err != nil {
		return 0, false
	}

	t.curPart = next
	t.curEnc = enc
	t.curSeqno = 0
	t.state.SetPart(next)
	t.state.ResetSeqnoIn()

	return int(enc.SystematicCount()) + 2, true
}

// PrepareChunk produces the next outbound symbol for the current part,
// annotated with the total payload size when it is the very first
// symbol of the whole transfer.
func (t *OutgoingTransfer) PrepareChunk() (MessagePart, error) {
	sym, err := t.curEnc.Encode(t.curSeqno)
	if err != nil {
		return MessagePart{}, err
	}

	mp := MessagePart{
		TransferID: t.id,
		Part:       t.curPart,
		Seqno:      int32(t.curSeqno),
		TotalSize:  -1,
		Data:       sym,
	}
	if t.curPart == 0 && t.curSeqno == 0 {
		mp.TotalSize = int64(len(t.data))
	}
	t.curSeqno++
	return mp, nil
}

// IsFinishedOrNextPart reports whether the part currently being sent has
// either already been acknowledged in full, or superseded by state
// moving on without this caller's help (e.g. a retransmit racing a wave
// that already completed). On the last part, a reply that has started to
// arrive also counts as finished.
func (t *OutgoingTransfer) IsFinishedOrNextPart(part int32) bool {
	if t.state.Part() != part {
		return true
	}
	if t.curPart == t.numParts-1 && t.state.ReplyReceived() {
		return true
	}
	return t.state.SeqnoIn() >= int32(t.curEnc.SystematicCount())
}

// Done reports whether every part has been started and the last one
// acknowledged.
func (t *OutgoingTransfer) Done() bool {
	if t.curPart < t.numParts-1 {
		return false
	}
	if t.curEnc == nil {
		return false
	}
	return t.state.SeqnoIn() >= int32(t.curEnc.SystematicCount())
}
