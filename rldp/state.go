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

import "sync/atomic"

// OutgoingState is the portion of an outgoing transfer's bookkeeping the
// engine's receive side touches concurrently with the transfer's own
// send loop: which part is currently being sent, how far the peer has
// acknowledged it, and whether any answer traffic has been observed yet.
type OutgoingState struct {
	part          int32
	seqnoIn       int32
	replyReceived int32
}

// Part returns the part index currently being sent.
func (s *OutgoingState) Part() int32 { return atomic.LoadInt32(&s.part) }

// SetPart records that the send loop has moved on to a new part.
func (s *OutgoingState) SetPart(part int32) { atomic.StoreInt32(&s.part, part) }

// SeqnoIn returns the highest symbol count the peer has acknowledged
// receiving for the current part.
func (s *OutgoingState) SeqnoIn() int32 { return atomic.LoadInt32(&s.seqnoIn) }

// ResetSeqnoIn clears the acknowledgment high-water mark, used when the
// send loop moves on to a new part whose symbols start counting from
// zero again.
func (s *OutgoingState) ResetSeqnoIn() { atomic.StoreInt32(&s.seqnoIn, 0) }

// AdvanceSeqnoIn records an acknowledgment, keeping only the high-water
// mark: acks can arrive out of order or be replayed, but the send loop
// only cares about the best progress seen so far.
func (s *OutgoingState) AdvanceSeqnoIn(seqno int32) {
	for {
		cur := atomic.LoadInt32(&s.seqnoIn)
		if seqno <= cur {
			return
		}
		if atomic.CompareAndSwapInt32(&s.seqnoIn, cur, seqno) {
			return
		}
	}
}

// ReplyReceived reports whether any chunk of the paired answer has been
// observed yet.
func (s *OutgoingState) ReplyReceived() bool {
	return atomic.LoadInt32(&s.replyReceived) != 0
}

// SetReplyReceived latches the reply-observed flag.
func (s *OutgoingState) SetReplyReceived() {
	atomic.StoreInt32(&s.replyReceived, 1)
}

// IncomingState tracks how many chunks an incoming transfer has
// successfully folded in, used by the receive loop's timeout grace
// period.
type IncomingState struct {
	updates int32
}

// IncreaseUpdates bumps the update counter and returns its new value.
func (s *IncomingState) IncreaseUpdates() int32 {
	return atomic.AddInt32(&s.updates, 1)
}

// Updates returns the current update count.
func (s *IncomingState) Updates() int32 { return atomic.LoadInt32(&s.updates) }
