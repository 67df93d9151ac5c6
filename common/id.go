// Copyright 2015 The ProbeChain Authors
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

// Package common holds the fixed-size identifier types shared by the
// channel, transfer and DHT layers.
package common

import (
	"bytes"
	"encoding/hex"

	"github.com/holiman/uint256"
)

// IDLength is the byte length of a node or transfer identifier.
const IDLength = 32

// NodeIDShort is the 256-bit opaque identifier nodes use to address each
// other. It supports byte-lexicographic total ordering (used to break the
// symmetry tie in channel secret derivation) and XOR distance (used by the
// DHT affinity metric).
type NodeIDShort [IDLength]byte

// BytesToNodeID crops or left-pads b into a NodeIDShort.
func BytesToNodeID(b []byte) NodeIDShort {
	var id NodeIDShort
	if len(b) > IDLength {
		b = b[len(b)-IDLength:]
	}
	copy(id[IDLength-len(b):], b)
	return id
}

// Bytes returns the identifier's byte representation.
func (id NodeIDShort) Bytes() []byte { return id[:] }

// Hex renders the identifier as a 0x-prefixed hex string.
func (id NodeIDShort) Hex() string { return "0x" + hex.EncodeToString(id[:]) }

// String implements fmt.Stringer.
func (id NodeIDShort) String() string { return id.Hex() }

// Less reports whether id sorts strictly before other in byte-lexicographic
// order. Channel construction uses this to decide which side of the
// handshake uses the reversed secret.
func (id NodeIDShort) Less(other NodeIDShort) bool {
	return bytes.Compare(id[:], other[:]) < 0
}

// Equal reports byte-wise equality.
func (id NodeIDShort) Equal(other NodeIDShort) bool {
	return id == other
}

// Xor returns the bitwise exclusive-or of id and other.
func (id NodeIDShort) Xor(other NodeIDShort) NodeIDShort {
	var out NodeIDShort
	for i := range id {
		out[i] = id[i] ^ other[i]
	}
	return out
}

// LeadingZeroBits counts the number of leading zero bits in the
// identifier, treating it as a big-endian 256-bit integer. This is the
// affinity metric the DHT peer iterator ranks candidates by: the XOR
// distance between a key and a peer id, with more leading zero bits
// meaning a closer peer.
func (id NodeIDShort) LeadingZeroBits() int {
	var u uint256.Int
	u.SetBytes(id[:])
	return IDLength*8 - u.BitLen()
}

// Affinity returns the number of leading matching bits of key XOR peer,
// i.e. how close peer is to key in the XOR metric. Higher values mean
// closer peers.
func Affinity(key, peer NodeIDShort) int {
	return key.Xor(peer).LeadingZeroBits()
}

// TransferID is the 256-bit correlation identifier for one direction of an
// RLDP transfer.
type TransferID [IDLength]byte

// Complement returns the bitwise complement of the transfer id: the
// mirrored incoming transfer's id equals the outgoing transfer's id
// complemented, and vice versa, so peers never need to exchange a
// separate reply-id.
func (t TransferID) Complement() TransferID {
	var out TransferID
	for i, b := range t {
		out[i] = ^b
	}
	return out
}

// Bytes returns the identifier's byte representation.
func (t TransferID) Bytes() []byte { return t[:] }

// Hex renders the identifier as a 0x-prefixed hex string.
func (t TransferID) Hex() string { return "0x" + hex.EncodeToString(t[:]) }

// String implements fmt.Stringer.
func (t TransferID) String() string { return t.Hex() }

// BytesToTransferID crops or left-pads b into a TransferID.
func BytesToTransferID(b []byte) TransferID {
	var t TransferID
	if len(b) > IDLength {
		b = b[len(b)-IDLength:]
	}
	copy(t[IDLength-len(b):], b)
	return t
}

// QueryID is the 256-bit random identifier the RLDP engine uses to
// correlate a Query message with its Answer.
type QueryID [IDLength]byte

// Hex renders the identifier as a 0x-prefixed hex string.
func (q QueryID) Hex() string { return "0x" + hex.EncodeToString(q[:]) }

func (q QueryID) String() string { return q.Hex() }

// Equal reports byte-wise equality, used by the engine to validate an
// incoming Answer against the outstanding Query.
func (q QueryID) Equal(other QueryID) bool { return q == other }

