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

// Package crypto re-exports the cryptographic primitives that the overlay
// network stack is pinned to: X25519 key agreement, SHA-256 digests, and
// AES-256-CTR keystreams. Node identity signing (Ed25519) is assumed to be
// handled by the key-management layer and is out of scope here.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the byte length of an X25519 private or public key half, and
// of the derived shared secret.
const KeySize = 32

var errSharedSecret = errors.New("crypto: X25519 scalar multiplication failed")

// GenerateX25519Keypair produces a fresh private scalar and its public
// counterpart, suitable for the Diffie-Hellman step in channel derivation.
func GenerateX25519Keypair() (priv, pub [KeySize]byte, err error) {
	if _, err = io.ReadFull(rand.Reader, priv[:]); err != nil {
		return priv, pub, err
	}
	p, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, err
	}
	copy(pub[:], p)
	return priv, pub, nil
}

// X25519SharedSecret computes the Diffie-Hellman shared secret between a
// local private scalar and a peer public key.
func X25519SharedSecret(localPrivate, peerPublic [KeySize]byte) ([KeySize]byte, error) {
	var secret [KeySize]byte
	s, err := curve25519.X25519(localPrivate[:], peerPublic[:])
	if err != nil {
		return secret, errSharedSecret
	}
	copy(secret[:], s)
	return secret, nil
}

// Reversed returns a byte-reversed copy of a 32-byte secret. Channel
// derivation uses this to give the two directions of a channel distinct,
// but mutually derivable, secrets.
func Reversed(secret [KeySize]byte) [KeySize]byte {
	var out [KeySize]byte
	for i, b := range secret {
		out[KeySize-1-i] = b
	}
	return out
}

// SHA256 returns the SHA-256 digest of data.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// NewCTRStream builds an AES-256-CTR keystream cipher from a 32-byte key
// and a 16-byte (or longer, truncated) IV. Channel encryption uses the
// packet checksum as the IV, binding the keystream to the payload it
// protects.
func NewCTRStream(key [32]byte, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	if len(iv) < aes.BlockSize {
		return nil, errors.New("crypto: IV shorter than AES block size")
	}
	return cipher.NewCTR(block, iv[:aes.BlockSize]), nil
}

// TaggedHash computes the schema-tagged hash used to derive node and
// channel identifiers: SHA-256 of a short ASCII tag followed by the
// payload. This mirrors the wire schema's practice of hashing a
// boxed/tagged TL structure rather than raw bytes, without requiring the
// full schema codec to be present.
func TaggedHash(tag string, payload []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(tag))
	h.Write(payload)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
