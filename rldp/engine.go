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
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/probechain/adnl-network/common"
	"github.com/probechain/adnl-network/fec"
	"github.com/probechain/adnl-network/log"
)

// sweepDelay is how long a completed transfer's tombstone lingers in the
// registry before being removed, to absorb stray retransmits.
const sweepDelay = 2 * MaxTimeout

// maxWaveRetries bounds how many times a send loop re-emits an
// unacknowledged wave before giving up on the transfer.
const maxWaveRetries = 16

// Subscriber answers an incoming query, invoked once its payload has
// been fully reassembled. A non-nil error suppresses the reply.
type Subscriber func(ctx context.Context, localID, peerID common.NodeIDShort, q Query) ([]byte, error)

// Engine is one node's RLDP layer: it owns the transfer registry and
// per-peer roundtrip handles, and drives both the querier role (Query)
// and, when a Subscriber is installed, the answerer role for queries
// arriving from peers.
type Engine struct {
	adnl       AdnlLayer
	codec      Codec
	fec        fec.Factory
	registry   *Registry
	peers      *peerTable
	subscriber Subscriber
	log        log.Logger
}

// NewEngine builds an Engine. subscriber may be nil for a node that only
// issues queries and never answers them.
func NewEngine(adnl AdnlLayer, codec Codec, factory fec.Factory, subscriber Subscriber) *Engine {
	return &Engine{
		adnl:       adnl,
		codec:      codec,
		fec:        factory,
		registry:   NewRegistry(),
		peers:      newPeerTable(),
		subscriber: subscriber,
		log:        log.New("module", "rldp"),
	}
}

func randomID() [32]byte {
	var b [32]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(err)
	}
	return b
}

func newTransferID() common.TransferID { return common.TransferID(randomID()) }
func newQueryID() common.QueryID       { return common.QueryID(randomID()) }

// Query sends data to peerID and blocks until the matching answer
// arrives, ctx is cancelled, or the adaptive timeout expires.
// maxAnswerSize bounds the reply the peer is permitted to send back.
//
// A timed-out query is not reported as an error: per the transport's
// retry contract it returns (nil, newRoundtrip, nil), with newRoundtrip
// backed off to double the prior estimate (capped at MaxTimeout) so a
// caller that retries immediately waits longer next time. Protocol and
// I/O failures are returned as err instead.
func (e *Engine) Query(ctx context.Context, localID, peerID common.NodeIDShort, data []byte, maxAnswerSize int64) ([]byte, time.Duration, error) {
	if maxAnswerSize <= 0 {
		maxAnswerSize = DefaultMaxAnswerSize
	}

	handle := e.peers.handle(peerID)
	roundtrip := handle.beginQuery()
	start := time.Now()

	queryID := newQueryID()
	outID := newTransferID()
	inID := outID.Complement()

	q := Query{QueryID: queryID, MaxAnswerSize: maxAnswerSize, TimeoutMs: int32(MaxTimeout / time.Millisecond), Data: data}
	payload, err := e.codec.Serialize(q)
	if err != nil {
		return nil, roundtrip, err
	}

	out := NewOutgoingTransfer(outID, payload, e.fec)
	e.registry.PutOutgoing(out)
	in := NewIncomingTransfer(inID, e.fec)
	e.registry.PutIncoming(in)

	defer func() {
		e.registry.MarkDone(outID, sweepDelay)
		e.registry.MarkDone(inID, sweepDelay)
	}()

	// Send and receive loops run as independent tasks sharing only the
	// outgoing transfer's state; errgroup cancels the other the moment
	// either one reports a real failure, instead of letting a dead send
	// loop keep retrying for its own full timeout budget after the
	// receive side has already given up.
	group, gctx := errgroup.WithContext(ctx)
	var answerData []byte
	group.Go(func() error {
		return e.runSendLoop(gctx, localID, peerID, out, roundtrip)
	})
	group.Go(func() error {
		var err error
		answerData, err = e.runReceiveLoop(gctx, localID, peerID, in, out.State(), roundtrip)
		return err
	})
	recvErr := group.Wait()

	if isStall(recvErr) {
		backoff := CalcTimeout(roundtrip) * 2
		if backoff > MaxTimeout {
			backoff = MaxTimeout
		}
		handle.setRoundtrip(backoff)
		return nil, backoff, nil
	}
	if recvErr != nil {
		return nil, roundtrip, recvErr
	}

	handle.endQuery(start)
	final := CalcTimeout(handle.current())

	v, err := e.codec.Deserialize(answerData)
	if err != nil {
		return nil, final, err
	}
	ans, ok := v.(Answer)
	if !ok {
		return nil, final, ErrUnexpectedAnswer
	}
	if !ans.QueryID.Equal(queryID) {
		return nil, final, ErrQueryIDMismatch
	}
	return ans.Data, final, nil
}

// Deliver hands one already-decrypted datagram from the ADNL dispatcher
// to the engine. Known transfer ids are routed to their registered
// entry; an unknown id whose first chunk is part 0/seqno 0 opens a fresh
// incoming transfer and, if a Subscriber is installed, spawns the
// answerer flow for it.
func (e *Engine) Deliver(localID, peerID common.NodeIDShort, raw []byte) error {
	v, err := e.codec.Deserialize(raw)
	if err != nil {
		return err
	}
	mp, ok := v.(MessagePart)
	if !ok {
		return fmt.Errorf("rldp: deserialized value is not a message part: %T", v)
	}

	if e.registry.Deliver(mp) {
		return nil
	}

	if mp.Part != 0 || mp.Seqno != 0 {
		e.log.Trace("dropping chunk for unknown transfer", "id", mp.TransferID.Hex())
		return nil
	}

	in := NewIncomingTransfer(mp.TransferID, e.fec)
	e.registry.PutIncoming(in)
	_, queue, _ := e.registry.GetIncoming(mp.TransferID)
	select {
	case queue <- mp:
	default:
	}

	if e.subscriber != nil {
		go e.serveIncoming(localID, peerID, in)
	}
	return nil
}

// serveIncoming drives the answerer role for a freshly opened incoming
// transfer: wait for it to complete, decode it as a Query, invoke the
// subscriber, then send the Answer back as a mirrored outgoing transfer
// addressed by the incoming transfer's complemented id.
func (e *Engine) serveIncoming(localID, peerID common.NodeIDShort, in *IncomingTransfer) {
	ctx := context.Background()
	handle := e.peers.handle(peerID)
	roundtrip := handle.beginQuery()
	start := time.Now()

	data, err := e.runReceiveLoop(ctx, localID, peerID, in, nil, roundtrip)
	if err != nil {
		e.log.Warn("incoming query transfer failed", "err", err)
		e.registry.MarkDone(in.ID(), sweepDelay)
		return
	}
	handle.endQuery(start)

	v, err := e.codec.Deserialize(data)
	if err != nil {
		e.log.Warn("failed to decode incoming query", "err", err)
		e.registry.MarkDone(in.ID(), sweepDelay)
		return
	}
	q, ok := v.(Query)
	if !ok {
		e.log.Warn("completed transfer did not decode to a query")
		e.registry.MarkDone(in.ID(), sweepDelay)
		return
	}

	answerData, err := e.subscriber(ctx, localID, peerID, q)
	if err != nil {
		e.log.Warn("subscriber rejected query", "err", err)
		e.registry.MarkDone(in.ID(), sweepDelay)
		return
	}

	payload, err := e.codec.Serialize(Answer{QueryID: q.QueryID, Data: answerData})
	if err != nil {
		e.log.Warn("failed to encode answer", "err", err)
		e.registry.MarkDone(in.ID(), sweepDelay)
		return
	}

	replyID := in.ID().Complement()
	out := NewOutgoingTransfer(replyID, payload, e.fec)
	e.registry.PutOutgoing(out)

	if err := e.runSendLoop(ctx, localID, peerID, out, roundtrip); err != nil {
		if isStall(err) {
			backoff := CalcTimeout(roundtrip) * 2
			if backoff > MaxTimeout {
				backoff = MaxTimeout
			}
			handle.setRoundtrip(backoff)
			e.log.Trace("answer send stalled, backed off roundtrip estimate", "peer", peerID.Hex(), "roundtrip", backoff)
		} else {
			e.log.Warn("failed to send answer", "err", err)
		}
	}

	e.registry.MarkDone(in.ID(), sweepDelay)
	e.registry.MarkDone(replyID, sweepDelay)
}

// runSendLoop emits a transfer's parts wave by wave, waiting after each
// wave for the peer to acknowledge it before moving on, and resending
// the wave if the adaptive timeout elapses first.
func (e *Engine) runSendLoop(ctx context.Context, localID, peerID common.NodeIDShort, out *OutgoingTransfer, roundtrip time.Duration) error {
	timeout := CalcTimeout(roundtrip)

	for {
		wave, ok := out.StartNextPart()
		if !ok {
			return nil
		}
		if wave > MaxTransferWave {
			wave = MaxTransferWave
		}
		part := out.State().Part()

		if err := e.sendWave(localID, peerID, out, wave); err != nil {
			return err
		}

		waveStart := time.Now()
		retries := 0
		for !out.IsFinishedOrNextPart(part) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(TransferLoopInterval):
			}
			if IsTimedOut(waveStart, timeout, uint32(wave)) {
				retries++
				if retries > maxWaveRetries {
					return ErrTransferAborted
				}
				if err := e.sendWave(localID, peerID, out, wave); err != nil {
					return err
				}
				waveStart = time.Now()
			}
		}
	}
}

func (e *Engine) sendWave(localID, peerID common.NodeIDShort, out *OutgoingTransfer, wave int) error {
	for i := 0; i < wave; i++ {
		mp, err := out.PrepareChunk()
		if err != nil {
			return err
		}
		raw, err := e.codec.Serialize(mp)
		if err != nil {
			return err
		}
		if err := e.adnl.SendCustomMessage(localID, peerID, raw); err != nil {
			return err
		}
	}
	return nil
}

// runReceiveLoop drains an incoming transfer's chunk queue, acking each
// chunk back to the sender, until the transfer completes, ctx is
// cancelled, or it times out. mirrorOut, if non-nil, is the local
// outgoing transfer this receive loop is paired with inside one Query
// call; its reply-received flag is set the moment any chunk arrives.
func (e *Engine) runReceiveLoop(ctx context.Context, localID, peerID common.NodeIDShort, in *IncomingTransfer, mirrorOut *OutgoingState, roundtrip time.Duration) ([]byte, error) {
	timeout := CalcTimeout(roundtrip)
	_, queue, ok := e.registry.GetIncoming(in.ID())
	if !ok {
		return nil, fmt.Errorf("rldp: incoming transfer %s not registered", in.ID().Hex())
	}

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case mp := <-queue:
			ack, err := in.ProcessChunk(mp)
			if err != nil {
				return nil, err
			}
			if mirrorOut != nil {
				mirrorOut.SetReplyReceived()
			}
			if ack != nil {
				if raw, err := e.codec.Serialize(*ack); err == nil {
					_ = e.adnl.SendCustomMessage(localID, peerID, raw)
				}
			}
			if in.IsComplete() {
				return in.Data(), nil
			}
			start = time.Now()
		case <-time.After(timeout):
			if IsTimedOut(start, timeout, uint32(in.State().Updates())) {
				return nil, ErrQueryTimeout
			}
		}
	}
}
