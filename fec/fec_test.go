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

package fec

import (
	"bytes"
	"testing"
)

func TestRoundTripNoLoss(t *testing.T) {
	codec := NewRaptorCodec()
	data := bytes.Repeat([]byte("rldp-part-payload-"), 50)

	enc, err := codec.Encoder(data, 64)
	if err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	dec := codec.Decoder(len(data), 64)

	var out []byte
	for seqno := uint32(0); ; seqno++ {
		sym, err := enc.Encode(seqno)
		if err != nil {
			t.Fatalf("Encode(%d): %v", seqno, err)
		}
		result, done, err := dec.AddSymbol(seqno, sym)
		if err != nil {
			t.Fatalf("AddSymbol(%d): %v", seqno, err)
		}
		if done {
			out = result
			break
		}
		if seqno > enc.SystematicCount()+4 {
			t.Fatal("decoder failed to complete with all systematic symbols delivered")
		}
	}

	if !bytes.Equal(out, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(out), len(data))
	}
}

func TestRecoverSingleLoss(t *testing.T) {
	codec := NewRaptorCodec()
	data := bytes.Repeat([]byte("x"), 300)

	enc, err := codec.Encoder(data, 64)
	if err != nil {
		t.Fatalf("Encoder: %v", err)
	}
	dec := codec.Decoder(len(data), 64)

	dropSeqno := uint32(1)
	var done bool
	var out []byte
	for seqno := uint32(0); seqno < enc.SystematicCount(); seqno++ {
		if seqno == dropSeqno {
			continue
		}
		sym, _ := enc.Encode(seqno)
		out, done, err = dec.AddSymbol(seqno, sym)
		if err != nil {
			t.Fatalf("AddSymbol: %v", err)
		}
	}
	if done {
		t.Fatal("decoder should not be done before repair symbol arrives")
	}

	repair, _ := enc.Encode(enc.SystematicCount())
	out, done, err = dec.AddSymbol(enc.SystematicCount(), repair)
	if err != nil {
		t.Fatalf("AddSymbol repair: %v", err)
	}
	if !done {
		t.Fatal("expected decoder to complete after repair symbol")
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("repaired data mismatch: got %d bytes, want %d", len(out), len(data))
	}
}

func TestDuplicateSymbolIdempotent(t *testing.T) {
	codec := NewRaptorCodec()
	data := bytes.Repeat([]byte("short part"), 10) // two 64-byte symbols
	dec := codec.Decoder(len(data), 64)
	enc, _ := codec.Encoder(data, 64)

	sym, _ := enc.Encode(0)
	if _, _, err := dec.AddSymbol(0, sym); err != nil {
		t.Fatalf("AddSymbol: %v", err)
	}
	if _, done, err := dec.AddSymbol(0, sym); err != nil || done {
		t.Fatalf("duplicate symbol should be a no-op, got done=%v err=%v", done, err)
	}
	if dec.ReceivedCount() != 1 {
		t.Fatalf("ReceivedCount = %d, want 1", dec.ReceivedCount())
	}
}

func TestEncoderRejectsEmptyData(t *testing.T) {
	codec := NewRaptorCodec()
	if _, err := codec.Encoder(nil, 64); err != ErrDataEmpty {
		t.Fatalf("expected ErrDataEmpty, got %v", err)
	}
}
