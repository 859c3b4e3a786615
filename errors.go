// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memsock

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Send: an earlier message has not been received yet, or another
// sender holds the next turn.
// For Recv: no message is pending for the next receive turn.
//
// Only returned by non-blocking calls (FlagBlock unset, or FlagDontWait).
// No sequence number is consumed when it is returned, so the call can
// simply be retried.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrInvalidArgument is returned for a non-positive socket capacity and for
// buffers longer than the socket capacity.
var ErrInvalidArgument = errors.New("memsock: invalid argument")

// ErrTruncated is returned by Recv when the pending message was longer than
// the receive buffer. The bytes that fit are copied; the message is consumed.
var ErrTruncated = errors.New("memsock: message truncated")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
