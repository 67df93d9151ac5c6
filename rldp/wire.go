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

import "github.com/probechain/adnl-network/common"

// AdnlLayer is the minimal surface the query engine needs from the
// secure channel layer: fire-and-forget delivery of one already-encoded
// datagram to a peer. Framing, encryption and retransmission below the
// datagram boundary are the adnl package's concern, not rldp's.
type AdnlLayer interface {
	SendCustomMessage(localID, peerID common.NodeIDShort, data []byte) error
}

// Codec serializes and deserializes the wire values this package sends:
// MessagePart, Query and Answer. The engine treats the wire format as
// external and pluggable; tests supply an in-memory codec.
type Codec interface {
	Serialize(v interface{}) ([]byte, error)
	Deserialize(data []byte) (interface{}, error)
}

// MessagePart is the one datagram type RLDP exchanges on the wire,
// carrying either a FEC-coded data symbol or a bare acknowledgment (Data
// nil). TotalSize is set only on the very first chunk of part 0 of a
// transfer; -1 means absent.
type MessagePart struct {
	TransferID common.TransferID
	Part       int32
	Seqno      int32
	TotalSize  int64
	Data       []byte
}

// IsAck reports whether this part carries no payload, i.e. is a bare
// progress acknowledgment rather than a data symbol.
func (m MessagePart) IsAck() bool { return m.Data == nil }

// Query is the payload an outgoing transfer carries when a caller of
// Engine.Query initiates a request.
type Query struct {
	QueryID       common.QueryID
	MaxAnswerSize int64
	TimeoutMs     int32
	Data          []byte
}

// Answer is the payload an outgoing transfer carries when replying to a
// Query.
type Answer struct {
	QueryID common.QueryID
	Data    []byte
}
