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

// Package adnl implements the secure channel layer: direction-asymmetric,
// Diffie-Hellman-derived symmetric channels between two node identities,
// with checksum-authenticated, AES-256-CTR-encrypted datagrams and an
// inactivity-reset drop timer.
package adnl

import (
	"bytes"
	"sync/atomic"

	"github.com/probechain/adnl-network/common"
	"github.com/probechain/adnl-network/crypto"
	"github.com/probechain/adnl-network/log"
)

// ChannelResetTimeout is how long, in seconds, a channel may sit idle
// after being marked for reset before the outer dispatcher should tear
// it down.
const ChannelResetTimeout int32 = 30

// ChannelID identifies one direction of a channel on the wire. It
// prefixes every encrypted datagram so the dispatcher can route it in
// O(1) without touching the ciphertext.
type ChannelID [32]byte

// Hex renders the channel id as a 0x-prefixed hex string.
func (id ChannelID) Hex() string { return common.BytesToNodeID(id[:]).Hex() }

type channelSide struct {
	secret [32]byte
	id     ChannelID
}

func newChannelSide(secret [32]byte) channelSide {
	tagged := crypto.TaggedHash("pub.aes", secret[:])
	return channelSide{secret: secret, id: ChannelID(tagged)}
}

// Channel is bound to a (local, peer) identity pair and owns one inbound
// and one outbound side, each with its own secret and channel id.
type Channel struct {
	localID common.NodeIDShort
	peerID  common.NodeIDShort

	out channelSide
	in  channelSide

	// drop is the deadline (seconds since epoch) after which an idle
	// channel should be evicted; 0 means no pending reset.
	drop int32

	log log.Logger
}

// New performs the X25519 key agreement and derives the two channel
// sides per the direction-asymmetry rule: the peer with the
// lexicographically smaller id gets the byte-reversed secret outbound,
// so that one peer's outbound secret always equals the other's inbound
// secret.
func New(localID, peerID common.NodeIDShort, localPrivate, peerPublic [32]byte) (*Channel, error) {
	shared, err := crypto.X25519SharedSecret(localPrivate, peerPublic)
	if err != nil {
		return nil, err
	}
	reversed := crypto.Reversed(shared)

	var outSecret, inSecret [32]byte
	switch {
	case localID.Less(peerID):
		outSecret, inSecret = reversed, shared
	case peerID.Less(localID):
		outSecret, inSecret = shared, reversed
	default:
		outSecret, inSecret = shared, shared
	}

	return &Channel{
		localID: localID,
		peerID:  peerID,
		out:     newChannelSide(outSecret),
		in:      newChannelSide(inSecret),
		log:     log.New("module", "adnl", "peer", peerID.Hex()),
	}, nil
}

// LocalID returns the local node identity this channel is bound to.
func (c *Channel) LocalID() common.NodeIDShort { return c.localID }

// PeerID returns the remote node identity this channel is bound to.
func (c *Channel) PeerID() common.NodeIDShort { return c.peerID }

// ChannelOutID returns the id peers should use to route datagrams
// encrypted by this channel's outbound side.
func (c *Channel) ChannelOutID() ChannelID { return c.out.id }

// ChannelInID returns the id this channel's inbound side listens on.
func (c *Channel) ChannelInID() ChannelID { return c.in.id }

// Encrypt produces a wire-ready datagram: a 64-byte cleartext header
// (outbound channel id, then the SHA-256 checksum of payload) followed
// by payload encrypted under AES-256-CTR, keyed by the outbound secret
// and IV'd by the checksum itself.
func (c *Channel) Encrypt(payload []byte) ([]byte, error) {
	checksum := crypto.SHA256(payload)

	buf := make([]byte, 64+len(payload))
	copy(buf[0:32], c.out.id[:])
	copy(buf[32:64], checksum[:])
	copy(buf[64:], payload)

	stream, err := crypto.NewCTRStream(c.out.secret, checksum[:])
	if err != nil {
		return nil, err
	}
	stream.XORKeyStream(buf[64:], buf[64:])
	return buf, nil
}

// Decrypt verifies and strips the 64-byte header from an inbound
// datagram in place, advancing view past it. It never touches the
// channel's drop timer; that is the dispatcher's responsibility once it
// knows whether the datagram was genuine traffic.
func (c *Channel) Decrypt(view *PacketView) error {
	if view.Len() < 64 {
		return &ErrMessageTooShort{Len: view.Len()}
	}

	buf := view.Bytes()
	checksum := make([]byte, 32)
	copy(checksum, buf[32:64])

	stream, err := crypto.NewCTRStream(c.in.secret, checksum)
	if err != nil {
		return err
	}
	stream.XORKeyStream(buf[64:], buf[64:])

	got := crypto.SHA256(buf[64:])
	if !bytes.Equal(got[:], checksum) {
		c.log.Trace("dropping channel datagram", "reason", "checksum mismatch")
		return ErrInvalidChecksum
	}

	view.RemovePrefix(64)
	return nil
}

// UpdateDropTimeout attempts to arm the drop deadline for now+30s. If
// another caller already armed it, the existing deadline is returned
// instead and no write happens — the CAS loser just learns when the
// channel is scheduled to drop. The CAS uses acquire ordering so a
// caller observing a non-zero deadline is guaranteed to see whatever
// happened-before the arming.
func (c *Channel) UpdateDropTimeout(now int32) int32 {
	deadline := now + ChannelResetTimeout
	if atomic.CompareAndSwapInt32(&c.drop, 0, deadline) {
		return deadline
	}
	return atomic.LoadInt32(&c.drop)
}

// ResetDropTimeout cancels a pending reset, e.g. because fresh traffic
// arrived on the channel before the deadline elapsed.
func (c *Channel) ResetDropTimeout() {
	atomic.StoreInt32(&c.drop, 0)
}

// DropDeadline returns the currently armed deadline, or 0 if unarmed.
func (c *Channel) DropDeadline() int32 {
	return atomic.LoadInt32(&c.drop)
}
