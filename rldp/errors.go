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

import "errors"

var (
	// ErrQueryIDMismatch is returned when an arriving Answer's query id
	// does not match the outstanding Query it was paired against.
	ErrQueryIDMismatch = errors.New("rldp: answer query id does not match outstanding query")
	// ErrUnexpectedAnswer is returned when a completed incoming transfer
	// decodes to something other than an Answer while a Query is
	// outstanding on it.
	ErrUnexpectedAnswer = errors.New("rldp: completed transfer did not decode to an answer")
	// ErrQueryTimeout is returned by a receive loop when no chunk arrives
	// before the deadline computed from the roundtrip estimate. Query does
	// not return it; it reports the timeout as a backed-off roundtrip.
	ErrQueryTimeout = errors.New("rldp: query timed out")
	// ErrTransferAborted is returned by a send loop that exhausts its
	// retries without the peer acknowledging the current part. Query does
	// not return it; it reports the stall as a backed-off roundtrip.
	ErrTransferAborted = errors.New("rldp: transfer aborted, peer did not acknowledge")
)

// isStall reports whether err is one of the internal sentinels marking a
// stalled transfer rather than a protocol or I/O failure: a send loop that
// exhausted its wave retries, or a receive loop that never saw the answer
// complete. Per the timeout contract neither is surfaced to callers as an
// error; both back off the peer's roundtrip estimate instead.
func isStall(err error) bool {
	return err == ErrQueryTimeout || err == ErrTransferAborted
}
