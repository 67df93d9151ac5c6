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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probechain/adnl-network/common"
)

func TestBinaryCodecRoundTripsMessagePart(t *testing.T) {
	codec := NewBinaryCodec()
	want := MessagePart{
		TransferID: common.BytesToTransferID([]byte{0x01, 0x02}),
		Part:       3,
		Seqno:      7,
		TotalSize:  4096,
		Data:       []byte("a coded symbol"),
	}

	raw, err := codec.Serialize(want)
	assert.NoError(t, err)

	v, err := codec.Deserialize(raw)
	assert.NoError(t, err)

	got, ok := v.(MessagePart)
	assert.True(t, ok, "expected a MessagePart")
	assert.Equal(t, want, got)
}

func TestBinaryCodecRoundTripsQueryAndAnswer(t *testing.T) {
	codec := NewBinaryCodec()

	q := Query{QueryID: common.QueryID(common.BytesToTransferID([]byte{0xAA})), MaxAnswerSize: 1024, TimeoutMs: 500, Data: []byte("payload")}
	raw, err := codec.Serialize(q)
	assert.NoError(t, err)
	v, err := codec.Deserialize(raw)
	assert.NoError(t, err)
	gotQ, ok := v.(Query)
	assert.True(t, ok)
	assert.Equal(t, q, gotQ)

	a := Answer{QueryID: q.QueryID, Data: []byte("reply")}
	raw, err = codec.Serialize(a)
	assert.NoError(t, err)
	v, err = codec.Deserialize(raw)
	assert.NoError(t, err)
	gotA, ok := v.(Answer)
	assert.True(t, ok)
	assert.Equal(t, a, gotA)
}

func TestBinaryCodecRejectsUnknownTag(t *testing.T) {
	codec := NewBinaryCodec()
	_, err := codec.Deserialize([]byte{0xFF})
	assert.Error(t, err)
}
