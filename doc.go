// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memsock provides a fixed-capacity, turn-ordered in-process byte
// channel ("memory socket") and the ordered-access primitive it is built on.
//
// # Quick Start
//
//	s, err := memsock.New(8).Flags(memsock.FlagBlock).Build()
//	if err != nil {
//	    return err
//	}
//
//	go func() { // UI
//	    msg := []byte{1, 0, 0, 0, 0, 0, 0, 0}
//	    s.Send("UI", msg, 0)    // returns once AUDIO has received it
//	    s.Recv("UI", msg, 0)    // AUDIO's reply
//	}()
//
//	go func() { // AUDIO
//	    msg := make([]byte, 8)
//	    s.Recv("AUDIO", msg, 0)
//	    msg[4] = 5
//	    s.Send("AUDIO", msg, 0)
//	}()
//
// # OrderedSlot
//
// [OrderedSlot] is a single-item cell in which every operation declares the
// sequence position it runs at. An operation at position p waits until the
// sequence is p-1, performs its effect and advances the sequence to p:
//
//	slot := memsock.NewOrderedSlot[int]("counter")
//	go slot.Store(42, 0, "producer")
//	v := slot.Load(1, "consumer") // 42, always after the Store
//
// Store waits only for its turn. Load and Peek wait for their turn and then
// for a value to be present; Peek leaves the value in place.
//
//	Empty ──Store──▶ Occupied ──Load──▶ Empty
//	                    │  ▲
//	                    └──┘ Peek
//
// A slot constructed with [NewOrderedSlotWith] starts Occupied and its first
// Load or Peek runs at position 0.
//
// # Socket
//
// [Socket] assigns sequence positions itself. Sends and receives draw
// tickets from two counters: the k-th Send runs at position 2k and the k-th
// Recv at 2k+1, so the k-th Recv always observes the k-th Send. A blocking
// Send returns once its message has been received, which makes alternating
// Send/Recv between two goroutines a strict ping-pong regardless of which
// goroutine the scheduler runs first.
//
// # Flags
//
//	FlagBlock    - wait for the turn instead of returning ErrWouldBlock
//	FlagDebug    - trace every wait/notify transition through the Logger
//	FlagDontWait - per-call override: never wait
//
// Global flags (see [Socket.SetGlobalFlags]) are OR'ed with per-call flags.
//
// # Error Handling
//
// Non-blocking calls return [ErrWouldBlock] when they cannot proceed. This
// error is sourced from [code.hybscloud.com/iox] for ecosystem consistency
// and no sequence number is consumed, so the call may simply be retried:
//
//	backoff := iox.Backoff{}
//	for {
//	    err := s.Send("UI", msg, memsock.FlagDontWait)
//	    if err == nil {
//	        break
//	    }
//	    if !memsock.IsWouldBlock(err) {
//	        return err
//	    }
//	    backoff.Wait()
//	}
//
// [Socket.SendContext] and [Socket.RecvContext] wrap this loop with a
// context. Oversized buffers and non-positive capacities yield
// [ErrInvalidArgument].
//
// # Liveness
//
// Neither type detects deadlocks. Waiting for a position that is never
// reached, or receiving when nothing will be sent, blocks forever. Blocked
// goroutines cannot be cancelled; bound waits with the context variants
// instead of abandoning a blocked call.
//
// # Logging
//
// Diagnostics go through the injected [Logger] interface. [NewLogger]
// returns the default implementation, built on
// [github.com/joeycumines/logiface] with the stumpy JSON backend.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// backoff, [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause instructions.
package memsock
