// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memsock

import (
	"context"
	"fmt"
	"strings"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// Flags configures the behavior of Send and Recv.
//
// The flags of a call are the socket's global flags OR'ed with the flags
// passed to that call.
type Flags uint32

const (
	// FlagBlock makes calls wait for their turn instead of returning
	// ErrWouldBlock.
	FlagBlock Flags = 1 << iota
	// FlagDebug traces every wait and notify transition through the
	// socket's Logger.
	FlagDebug
	// FlagDontWait forces a single call to be non-blocking even when
	// FlagBlock is set globally.
	FlagDontWait
)

// String returns the set flags joined by "|", or "0".
func (f Flags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	if f&FlagBlock != 0 {
		parts = append(parts, "block")
	}
	if f&FlagDebug != 0 {
		parts = append(parts, "debug")
	}
	if f&FlagDontWait != 0 {
		parts = append(parts, "dontwait")
	}
	if rest := f &^ (FlagBlock | FlagDebug | FlagDontWait); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

func (f Flags) blocking() bool {
	return f&FlagBlock != 0 && f&FlagDontWait == 0
}

// Socket is a fixed-capacity, turn-ordered byte channel between goroutines.
//
// A Socket is backed by one [OrderedSlot] holding at most one message of up
// to Cap() bytes. Each Send draws the next send ticket k and runs at slot
// position 2k; each Recv draws the next receive ticket k and runs at
// position 2k+1. The k-th Recv therefore observes exactly the k-th Send,
// and no two calls touch the payload at the same time.
//
// In blocking mode Send returns only after its message has been received.
// Two goroutines alternating Send and Recv thus form a strict ping-pong:
//
//	A: Send(X)                 B: Recv() == X
//	                           B: Send(f(X))
//	A: Recv() == f(X)
//
// In non-blocking mode (FlagBlock unset, or FlagDontWait) a call claims a
// ticket only if the slot is already at its position, and otherwise returns
// [ErrWouldBlock] without side effects. A non-blocking Send does not wait
// for its message to be received.
//
// Liveness is the caller's responsibility: a blocking Recv with no matching
// Send, or a blocking Send that is never received, waits forever. Use
// [Socket.SendContext] and [Socket.RecvContext] for bounded waits.
//
// Socket must not be copied after first use.
type Socket struct {
	_ noCopy

	_     pad
	sends atomix.Int64 // next send ticket
	_     pad
	recvs atomix.Int64 // next receive ticket
	_     pad
	flags atomix.Uint64

	slot     *OrderedSlot[[]byte]
	buf      []byte
	capacity int
	name     string
	log      Logger
}

// NewSocket creates a socket carrying messages of up to capacity bytes.
//
// Returns ErrInvalidArgument if capacity <= 0.
//
// Example:
//
//	s, err := memsock.NewSocket(8, memsock.WithFlags(memsock.FlagBlock))
func NewSocket(capacity int, opts ...Option) (*Socket, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("memsock: capacity %d: %w", capacity, ErrInvalidArgument)
	}

	c := socketConfig{name: "memsock"}
	for _, o := range opts {
		o(&c)
	}
	if c.log == nil {
		c.log = NewLogger()
	}

	s := &Socket{
		slot:     NewOrderedSlot[[]byte](c.name, c.slotOpts...),
		buf:      make([]byte, capacity),
		capacity: capacity,
		name:     c.name,
		log:      c.log,
	}
	s.flags.StoreRelease(uint64(c.flags))
	return s, nil
}

// Cap returns the maximum number of bytes a single message may carry.
func (s *Socket) Cap() int {
	return s.capacity
}

// Name returns the diagnostic label of the socket.
func (s *Socket) Name() string {
	return s.name
}

// SetGlobalFlags replaces the flags applied to every call.
func (s *Socket) SetGlobalFlags(flags Flags) {
	s.flags.StoreRelease(uint64(flags))
}

// GlobalFlags returns the flags applied to every call.
func (s *Socket) GlobalFlags() Flags {
	return Flags(s.flags.LoadAcquire())
}

// Pending reports whether a sent message is waiting to be received.
func (s *Socket) Pending() bool {
	return s.slot.Occupied()
}

// Send transfers p to the receiver of the next receive turn.
//
// Returns ErrInvalidArgument if len(p) > Cap(), and ErrWouldBlock if the
// call is non-blocking and the socket is not ready.
func (s *Socket) Send(tag string, p []byte, flags Flags) error {
	if len(p) > s.capacity {
		return fmt.Errorf("memsock: send %d bytes over capacity %d: %w", len(p), s.capacity, ErrInvalidArgument)
	}
	f := s.GlobalFlags() | flags
	trace := s.tracer(f)

	if !f.blocking() {
		k, ok := s.claim(&s.sends, sendReady)
		if !ok {
			if trace != nil {
				trace.Info(tag, "socket %s: send would block", s.name)
			}
			return ErrWouldBlock
		}
		s.store(tag, p, sendPosition(k), trace)
		return nil
	}

	k := s.sends.AddAcqRel(1) - 1
	if trace != nil {
		trace.Info(tag, "socket %s: send #%d of %d bytes (flags %s)", s.name, k, len(p), f)
	}
	s.store(tag, p, sendPosition(k), trace)
	s.slot.waitReached(recvPosition(k), tag, trace)
	if trace != nil {
		trace.Info(tag, "socket %s: send #%d received", s.name, k)
	}
	return nil
}

// Recv copies the message of the next receive turn into p and returns the
// number of bytes copied.
//
// Returns ErrInvalidArgument if len(p) > Cap(), ErrWouldBlock if the call is
// non-blocking and no message is pending, and ErrTruncated if the message
// did not fit into p.
func (s *Socket) Recv(tag string, p []byte, flags Flags) (int, error) {
	if len(p) > s.capacity {
		return 0, fmt.Errorf("memsock: recv %d bytes over capacity %d: %w", len(p), s.capacity, ErrInvalidArgument)
	}
	f := s.GlobalFlags() | flags
	trace := s.tracer(f)

	var k int64
	if f.blocking() {
		k = s.recvs.AddAcqRel(1) - 1
		if trace != nil {
			trace.Info(tag, "socket %s: recv #%d (flags %s)", s.name, k, f)
		}
	} else {
		var ok bool
		k, ok = s.claim(&s.recvs, recvReady)
		if !ok {
			if trace != nil {
				trace.Info(tag, "socket %s: recv would block", s.name)
			}
			return 0, ErrWouldBlock
		}
	}

	var n, size int
	s.slot.loadFunc(recvPosition(k), tag, trace, true, func(msg []byte) {
		size = len(msg)
		n = copy(p, msg)
	})
	// the slot only ever carries views of s.buf; anything larger means the
	// payload was stored by something other than this socket
	if size > s.capacity {
		s.log.Fatal(tag, "socket %s: recv #%d loaded %d bytes over capacity %d", s.name, k, size, s.capacity)
	}
	if trace != nil {
		trace.Info(tag, "socket %s: recv #%d got %d of %d bytes", s.name, k, n, size)
	}
	if n < size {
		return n, ErrTruncated
	}
	return n, nil
}

// SendContext retries a non-blocking Send with backoff until it succeeds,
// fails, or ctx is done.
//
// Unlike a blocking Send it does not wait for the message to be received,
// and it never leaves a goroutine parked on the socket.
func (s *Socket) SendContext(ctx context.Context, tag string, p []byte, flags Flags) error {
	backoff := iox.Backoff{}
	for {
		err := s.Send(tag, p, flags|FlagDontWait)
		if !IsWouldBlock(err) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		backoff.Wait()
	}
}

// RecvContext retries a non-blocking Recv with backoff until it succeeds,
// fails, or ctx is done.
func (s *Socket) RecvContext(ctx context.Context, tag string, p []byte, flags Flags) (int, error) {
	backoff := iox.Backoff{}
	for {
		n, err := s.Recv(tag, p, flags|FlagDontWait)
		if !IsWouldBlock(err) {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		backoff.Wait()
	}
}

func (s *Socket) tracer(f Flags) Logger {
	if f&FlagDebug != 0 {
		return s.log
	}
	return nil
}

// store copies p into the socket buffer inside the turn at position.
// The buffer is free: the previous message was consumed at position-1.
func (s *Socket) store(tag string, p []byte, position int64, trace Logger) {
	s.slot.storeFunc(position, tag, trace, func() []byte {
		n := copy(s.buf, p)
		return s.buf[:n]
	})
}

// claim takes ticket k from counter only if the slot has completed
// position ready(k), so the turn that follows can run without waiting.
func (s *Socket) claim(counter *atomix.Int64, ready func(k int64) int64) (int64, bool) {
	sw := spin.Wait{}
	for {
		k := counter.LoadAcquire()
		if s.slot.Order() != ready(k) {
			return 0, false
		}
		if counter.CompareAndSwapAcqRel(k, k+1) {
			return k, true
		}
		sw.Once()
	}
}

func sendPosition(k int64) int64 { return 2 * k }
func recvPosition(k int64) int64 { return 2*k + 1 }

// sendReady is the position that must be complete before send k runs:
// receive k-1 (or OrderUnset for the first send).
func sendReady(k int64) int64 { return sendPosition(k) - 1 }

// recvReady is the position that must be complete before receive k runs:
// send k.
func recvReady(k int64) int64 { return recvPosition(k) - 1 }
