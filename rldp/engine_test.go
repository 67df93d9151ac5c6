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
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/probechain/adnl-network/common"
	"github.com/probechain/adnl-network/fec"
)

// link wires one engine's outbound datagrams into another engine's
// Deliver entrypoint, as the ADNL dispatcher would.
type link struct {
	other *Engine
}

func (l *link) SendCustomMessage(localID, peerID common.NodeIDShort, data []byte) error {
	return l.other.Deliver(peerID, localID, data)
}

func echoSubscriber(_ context.Context, _, _ common.NodeIDShort, q Query) ([]byte, error) {
	out := append([]byte("echo:"), q.Data...)
	return out, nil
}

func TestQueryHappyPathSmallPayload(t *testing.T) {
	idA := common.BytesToNodeID([]byte{0xAA})
	idB := common.BytesToNodeID([]byte{0xBB})
	codec := NewBinaryCodec()
	factory := fec.NewRaptorCodec()

	linkA, linkB := &link{}, &link{}
	engineA := NewEngine(linkA, codec, factory, nil)
	engineB := NewEngine(linkB, codec, factory, echoSubscriber)
	linkA.other, linkB.other = engineB, engineA

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	answer, roundtrip, err := engineA.Query(ctx, idA, idB, []byte("ping"), 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !bytes.Equal(answer, []byte("echo:ping")) {
		t.Fatalf("answer = %q, want %q", answer, "echo:ping")
	}
	if roundtrip < MinTimeout {
		t.Fatalf("roundtrip = %v, want >= %v", roundtrip, MinTimeout)
	}
}

func TestQueryHappyPathMultiPartPayload(t *testing.T) {
	idA := common.BytesToNodeID([]byte{0x01})
	idB := common.BytesToNodeID([]byte{0x02})
	codec := NewBinaryCodec()
	factory := fec.NewRaptorCodec()

	linkA, linkB := &link{}, &link{}
	engineA := NewEngine(linkA, codec, factory, nil)
	engineB := NewEngine(linkB, codec, factory, echoSubscriber)
	linkA.other, linkB.other = engineB, engineA

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	payload := bytes.Repeat([]byte("q"), DefaultPartSize*2+77)
	answer, _, err := engineA.Query(ctx, idA, idB, payload, 0)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := append([]byte("echo:"), payload...)
	if !bytes.Equal(answer, want) {
		t.Fatalf("answer mismatch: got %d bytes, want %d", len(answer), len(want))
	}
}

// mismatchPeer answers the very first message part it observes with a
// well-formed, but wrongly-addressed, Answer: one whose query id does
// not match the outstanding query. It lets TestQueryIDMismatch exercise
// Engine.Query's validation without a cooperating second engine.
type mismatchPeer struct {
	target *Engine
	codec  Codec
	sent   bool
}

func (p *mismatchPeer) SendCustomMessage(localID, peerID common.NodeIDShort, data []byte) error {
	if p.sent {
		return nil
	}
	v, err := p.codec.Deserialize(data)
	if err != nil {
		return err
	}
	mp, ok := v.(MessagePart)
	if !ok {
		return nil
	}
	p.sent = true

	replyTransferID := mp.TransferID.Complement()
	bogus := Answer{QueryID: common.QueryID(common.BytesToTransferID([]byte{0xDE, 0xAD, 0xBE, 0xEF})), Data: []byte("not the answer you wanted")}
	payload, err := p.codec.Serialize(bogus)
	if err != nil {
		return err
	}
	ack := MessagePart{TransferID: replyTransferID, Part: 0, Seqno: 0, TotalSize: int64(len(payload)), Data: payload}
	raw, err := p.codec.Serialize(ack)
	if err != nil {
		return err
	}
	return p.target.Deliver(localID, peerID, raw)
}

func TestQueryIDMismatch(t *testing.T) {
	idA := common.BytesToNodeID([]byte{0x10})
	idB := common.BytesToNodeID([]byte{0x20})
	codec := NewBinaryCodec()
	factory := fec.NewRaptorCodec()

	peer := &mismatchPeer{codec: codec}
	engineA := NewEngine(peer, codec, factory, nil)
	peer.target = engineA

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := engineA.Query(ctx, idA, idB, []byte("ping"), 0)
	if err != ErrQueryIDMismatch {
		t.Fatalf("expected ErrQueryIDMismatch, got %v", err)
	}
}

// deafPeer drops every datagram it is asked to send: the remote side
// never exists.
type deafPeer struct{}

func (deafPeer) SendCustomMessage(common.NodeIDShort, common.NodeIDShort, []byte) error { return nil }

// trickleAckPeer simulates a peer that keeps the querier's incoming
// transfer alive with a steady trickle of small, never-completing
// chunks (so its receive loop never observes ErrQueryTimeout) while
// never acknowledging a single chunk of the querier's outgoing
// transfer, so the send loop's waves never make progress and it
// eventually exhausts its retry budget with ErrTransferAborted.
type trickleAckPeer struct {
	target *Engine
	codec  Codec
	seqno  int32
}

func (p *trickleAckPeer) SendCustomMessage(localID, peerID common.NodeIDShort, data []byte) error {
	v, err := p.codec.Deserialize(data)
	if err != nil {
		return err
	}
	mp, ok := v.(MessagePart)
	if !ok || mp.IsAck() {
		return nil
	}

	seqno := p.seqno
	p.seqno++

	reply := MessagePart{TransferID: mp.TransferID.Complement(), Part: 0, Seqno: seqno, TotalSize: 1 << 30, Data: []byte("x")}
	raw, err := p.codec.Serialize(reply)
	if err != nil {
		return err
	}
	return p.target.Deliver(localID, peerID, raw)
}

func TestQueryTreatsTransferAbortedAsBackoffNotError(t *testing.T) {
	idA := common.BytesToNodeID([]byte{0x70})
	idB := common.BytesToNodeID([]byte{0x80})
	codec := NewBinaryCodec()
	factory := fec.NewRaptorCodec()

	peer := &trickleAckPeer{codec: codec}
	engineA := NewEngine(peer, codec, factory, nil)
	peer.target = engineA
	engineA.peers.handle(idB).setRoundtrip(MinTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Two parts, so the trickled reply cannot end the send loop: a reply
	// only counts as finished once the send loop is on its last part.
	payload := bytes.Repeat([]byte("p"), DefaultPartSize+1)
	answer, roundtrip, err := engineA.Query(ctx, idA, idB, payload, 0)
	if err != nil {
		t.Fatalf("expected a stalled send to report no error, got %v", err)
	}
	if answer != nil {
		t.Fatalf("expected a nil answer on an aborted send, got %q", answer)
	}
	if roundtrip != 2*MinTimeout {
		t.Fatalf("roundtrip = %v, want %v (doubled MinTimeout)", roundtrip, 2*MinTimeout)
	}
}

func TestQueryTimeoutReturnsBackedOffRoundtripNotError(t *testing.T) {
	idA := common.BytesToNodeID([]byte{0x30})
	idB := common.BytesToNodeID([]byte{0x40})
	codec := NewBinaryCodec()
	factory := fec.NewRaptorCodec()

	engineA := NewEngine(deafPeer{}, codec, factory, nil)
	// Seed a small roundtrip estimate so CalcTimeout clamps to
	// MinTimeout instead of waiting out the 10s default.
	engineA.peers.handle(idB).setRoundtrip(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	answer, roundtrip, err := engineA.Query(ctx, idA, idB, []byte("ping"), 0)
	if err != nil {
		t.Fatalf("expected a timed-out query to report no error, got %v", err)
	}
	if answer != nil {
		t.Fatalf("expected a nil answer on timeout, got %q", answer)
	}
	if roundtrip != 2*MinTimeout {
		t.Fatalf("roundtrip = %v, want %v (doubled MinTimeout)", roundtrip, 2*MinTimeout)
	}
}
