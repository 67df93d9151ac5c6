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

package adnl

import (
	"errors"
	"fmt"
)

// ErrInvalidChecksum is returned when a decrypted packet's SHA-256 digest
// does not match the checksum carried in its header. Per policy this is a
// silent-drop condition at the dispatcher level; it is surfaced here so
// callers can decide whether to log it.
var ErrInvalidChecksum = errors.New("adnl: invalid channel message checksum")

// ErrMessageTooShort is returned when a datagram is shorter than the
// 64-byte channel header.
type ErrMessageTooShort struct {
	Len int
}

func (e *ErrMessageTooShort) Error() string {
	return fmt.Sprintf("adnl: channel message is too short: %d", e.Len)
}
