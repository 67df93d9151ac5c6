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
	"encoding/binary"
	"fmt"
)

const (
	tagMessagePart byte = iota
	tagQuery
	tagAnswer
)

// BinaryCodec is the default Codec: a flat, tag-prefixed binary layout
// with no external schema dependency, matching the wire boundary the
// specification leaves to the implementer.
type BinaryCodec struct{}

// NewBinaryCodec returns the default codec.
func NewBinaryCodec() BinaryCodec { return BinaryCodec{} }

func (BinaryCodec) Serialize(v interface{}) ([]byte, error) {
	switch m := v.(type) {
	case MessagePart:
		buf := make([]byte, 0, 1+32+4+4+8+4+len(m.Data))
		buf = append(buf, tagMessagePart)
		buf = append(buf, m.TransferID.Bytes()...)
		buf = appendInt32(buf, m.Part)
		buf = appendInt32(buf, m.Seqno)
		buf = appendInt64(buf, m.TotalSize)
		buf = appendInt32(buf, int32(len(m.Data)))
		buf = append(buf, m.Data...)
		return buf, nil
	case Query:
		buf := []byte{tagQuery}
		buf = append(buf, m.QueryID[:]...)
		buf = appendInt64(buf, m.MaxAnswerSize)
		buf = appendInt32(buf, m.TimeoutMs)
		buf = appendInt32(buf, int32(len(m.Data)))
		buf = append(buf, m.Data...)
		return buf, nil
	case Answer:
		buf := []byte{tagAnswer}
		buf = append(buf, m.QueryID[:]...)
		buf = appendInt32(buf, int32(len(m.Data)))
		buf = append(buf, m.Data...)
		return buf, nil
	default:
		return nil, fmt.Errorf("rldp: codec cannot serialize %T", v)
	}
}

func (BinaryCodec) Deserialize(data []byte) (interface{}, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("rldp: empty datagram")
	}
	tag, body := data[0], data[1:]

	switch tag {
	case tagMessagePart:
		if len(body) < 32+4+4+8+4 {
			return nil, fmt.Errorf("rldp: message part too short")
		}
		var mp MessagePart
		copy(mp.TransferID[:], body[:32])
		body = body[32:]
		mp.Part, body = readInt32(body)
		mp.Seqno, body = readInt32(body)
		mp.TotalSize, body = readInt64(body)
		n, body := readInt32(body)
		if int32(len(body)) < n {
			return nil, fmt.Errorf("rldp: message part data truncated")
		}
		if n > 0 {
			mp.Data = append([]byte(nil), body[:n]...)
		}
		return mp, nil

	case tagQuery:
		if len(body) < 32+8+4+4 {
			return nil, fmt.Errorf("rldp: query too short")
		}
		var q Query
		copy(q.QueryID[:], body[:32])
		body = body[32:]
		q.MaxAnswerSize, body = readInt64(body)
		q.TimeoutMs, body = readInt32(body)
		n, body := readInt32(body)
		if int32(len(body)) < n {
			return nil, fmt.Errorf("rldp: query data truncated")
		}
		q.Data = append([]byte(nil), body[:n]...)
		return q, nil

	case tagAnswer:
		if len(body) < 32+4 {
			return nil, fmt.Errorf("rldp: answer too short")
		}
		var a Answer
		copy(a.QueryID[:], body[:32])
		body = body[32:]
		n, body := readInt32(body)
		if int32(len(body)) < n {
			return nil, fmt.Errorf("rldp: answer data truncated")
		}
		a.Data = append([]byte(nil), body[:n]...)
		return a, nil

	default:
		return nil, fmt.Errorf("rldp: unknown wire tag %d", tag)
	}
}

func appendInt32(buf []byte, v int32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return append(buf, b[:]...)
}

func appendInt64(buf []byte, v int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return append(buf, b[:]...)
}

func readInt32(buf []byte) (int32, []byte) {
	return int32(binary.BigEndian.Uint32(buf[:4])), buf[4:]
}

func readInt64(buf []byte) (int64, []byte) {
	return int64(binary.BigEndian.Uint64(buf[:8])), buf[8:]
}
