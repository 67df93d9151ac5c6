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

// Package fec provides the forward-error-correction codec that the RLDP
// transfer layer fragments transfer parts through. The query engine and
// the transfers only depend on the Encoder/Decoder/Factory interfaces;
// RaptorCodec is a systematic XOR-parity default, adequate for
// single-symbol-loss recovery and for exercising the transfer state
// machine in tests without pulling in a full erasure-code library.
package fec

import "errors"

// DefaultSymbolSize is the size, in bytes, of one systematic coded symbol
// when the caller does not request a specific part size.
const DefaultSymbolSize = 768

var (
	// ErrDataEmpty is returned when an encoder is built over an empty part.
	ErrDataEmpty = errors.New("fec: part data is empty")
	// ErrUnknownSymbol reports a symbol whose length does not match the
	// part's symbol size. RaptorCodec's decoder does not check symbol
	// lengths and never returns it.
	ErrUnknownSymbol = errors.New("fec: symbol size mismatch")
	// ErrSeqnoOutOfRange reports an encode request beyond a codec's
	// repair-symbol budget. RaptorCodec's encoder has no such budget and
	// never returns it.
	ErrSeqnoOutOfRange = errors.New("fec: seqno exceeds repair budget")
)

// Encoder produces a possibly-unbounded stream of coded symbols for one
// transfer part. Seqnos below the systematic count return the raw data
// slices; seqnos at or beyond it return repair symbols.
type Encoder interface {
	// Encode returns the symbol for seqno, or an error if seqno is beyond
	// what this codec can produce.
	Encode(seqno uint32) ([]byte, error)
	// SystematicCount is the number of systematic (non-repair) symbols
	// the source part was split into.
	SystematicCount() uint32
	// PartSize is the symbol size, in bytes, the encoder splits its part
	// into (the partSize it was built with).
	PartSize() int
}

// Decoder consumes symbols (tagged by seqno) and reconstructs the part
// payload once it has enough information to do so.
type Decoder interface {
	// AddSymbol feeds one arriving symbol. It returns the reconstructed
	// part and true once decoding is complete; subsequent calls after
	// completion are no-ops returning (nil, true, nil).
	AddSymbol(seqno uint32, symbol []byte) (data []byte, done bool, err error)
	// ReceivedCount reports how many distinct symbols have been accepted.
	ReceivedCount() int
}

// Factory builds encoders and decoders for transfer parts. RLDP's
// outgoing transfer calls Encoder per part; the incoming transfer calls
// Decoder once it learns the part's declared total size.
type Factory interface {
	Encoder(data []byte, partSize int) (Encoder, error)
	Decoder(totalSize int, partSize int) Decoder
}

// RaptorCodec is the default Factory. The name echoes the fountain-code
// family this slot is meant for; the XOR-parity scheme here is a
// deliberately simple stand-in that satisfies the same interface.
type RaptorCodec struct{}

// NewRaptorCodec returns the default FEC factory.
func NewRaptorCodec() *RaptorCodec { return &RaptorCodec{} }

func (RaptorCodec) Encoder(data []byte, partSize int) (Encoder, error) {
	return newSymbolEncoder(data, partSize)
}

func (RaptorCodec) Decoder(totalSize int, partSize int) Decoder {
	return newSymbolDecoder(totalSize, partSize)
}

type symbolEncoder struct {
	symbols  [][]byte
	parity   []byte
	partSize int
}

func newSymbolEncoder(data []byte, partSize int) (*symbolEncoder, error) {
	if len(data) == 0 {
		return nil, ErrDataEmpty
	}
	if partSize <= 0 {
		partSize = DefaultSymbolSize
	}

	var symbols [][]byte
	for off := 0; off < len(data); off += partSize {
		end := off + partSize
		if end > len(data) {
			end = len(data)
		}
		symbols = append(symbols, data[off:end])
	}

	parity := make([]byte, partSize)
	for _, sym := range symbols {
		for i, b := range sym {
			parity[i] ^= b
		}
	}

	return &symbolEncoder{symbols: symbols, parity: parity, partSize: partSize}, nil
}

func (e *symbolEncoder) SystematicCount() uint32 { return uint32(len(e.symbols)) }
func (e *symbolEncoder) PartSize() int           { return e.partSize }

// Encode serves systematic symbols verbatim and repeats the single XOR
// parity symbol for every seqno past the systematic range, so a receiver
// can recover from the loss of exactly one systematic symbol regardless
// of how many repair symbols it happens to see.
func (e *symbolEncoder) Encode(seqno uint32) ([]byte, error) {
	if seqno < e.SystematicCount() {
		return e.symbols[seqno], nil
	}
	return e.parity, nil
}

type symbolDecoder struct {
	totalSize int
	partSize  int
	symbols   map[uint32][]byte
	done      bool
	result    []byte
}

func newSymbolDecoder(totalSize, partSize int) *symbolDecoder {
	if partSize <= 0 {
		partSize = DefaultSymbolSize
	}
	return &symbolDecoder{
		totalSize: totalSize,
		partSize:  partSize,
		symbols:   make(map[uint32][]byte),
	}
}

func (d *symbolDecoder) systematicCount() uint32 {
	if d.totalSize == 0 {
		return 0
	}
	n := d.totalSize / d.partSize
	if d.totalSize%d.partSize != 0 {
		n++
	}
	return uint32(n)
}

func (d *symbolDecoder) ReceivedCount() int { return len(d.symbols) }

func (d *symbolDecoder) AddSymbol(seqno uint32, symbol []byte) ([]byte, bool, error) {
	if d.done {
		return nil, true, nil
	}
	// Duplicate or already-superseded symbols are tolerated silently, per
	// the incoming-transfer idempotency contract.
	if _, ok := d.symbols[seqno]; ok {
		return nil, false, nil
	}
	d.symbols[seqno] = symbol

	want := d.systematicCount()
	if want == 0 {
		return nil, false, nil
	}

	haveAllSystematic := true
	for i := uint32(0); i < want; i++ {
		if _, ok := d.symbols[i]; !ok {
			haveAllSystematic = false
			break
		}
	}

	if haveAllSystematic {
		d.result = d.assembleSystematic(want)
		d.done = true
		return d.result, true, nil
	}

	if recovered := d.tryRepairOneMissing(want); recovered != nil {
		for i, sym := range recovered {
			d.symbols[uint32(i)] = sym
		}
		d.result = d.assembleSystematic(want)
		d.done = true
		return d.result, true, nil
	}

	return nil, false, nil
}

func (d *symbolDecoder) assembleSystematic(want uint32) []byte {
	out := make([]byte, 0, d.totalSize)
	for i := uint32(0); i < want; i++ {
		out = append(out, d.symbols[i]...)
	}
	if len(out) > d.totalSize {
		out = out[:d.totalSize]
	}
	return out
}

// tryRepairOneMissing reconstructs a single missing systematic symbol
// from a received repair symbol, if exactly one is absent.
func (d *symbolDecoder) tryRepairOneMissing(want uint32) map[int][]byte {
	var repair []byte
	for seqno, sym := range d.symbols {
		if seqno >= want {
			repair = sym
			break
		}
	}
	if repair == nil {
		return nil
	}

	missing := -1
	missingCount := 0
	for i := uint32(0); i < want; i++ {
		if _, ok := d.symbols[i]; !ok {
			missing = int(i)
			missingCount++
		}
	}
	if missingCount != 1 {
		return nil
	}

	reconstructed := make([]byte, d.partSize)
	copy(reconstructed, repair)
	for i := uint32(0); i < want; i++ {
		if int(i) == missing {
			continue
		}
		sym := d.symbols[i]
		for j, b := range sym {
			reconstructed[j] ^= b
		}
	}

	return map[int][]byte{missing: reconstructed}
}
