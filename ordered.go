// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memsock

import (
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// OrderUnset is the sequence value of a slot that has not completed any
// operation. The first operation on a fresh slot runs at position 0.
const OrderUnset int64 = -1

// defaultSpinLimit is the number of pause iterations WaitForOrder spends
// polling the sequence before parking on the condition variable.
const defaultSpinLimit = 64

// OrderedSlot is a single-item rendezvous cell with a strict, caller-declared
// execution sequence.
//
// Every operation names the position it runs at. An operation at position p
// blocks until the slot's sequence equals p-1, performs its effect, then
// advances the sequence to p and wakes all other waiters. Operations on one
// slot therefore complete in strictly increasing position order.
//
// Two wait conditions are kept apart:
//   - order: whose turn it is (orderMu, orderCond)
//   - value: whether an item is present (valueMu, valueCond)
//
// Store waits only for order. Load and Peek wait for order and then for a
// value to be present.
//
// Misuse contract:
//   - Waiting for a position that is never reached blocks forever. There is
//     no timeout and no deadlock detection.
//   - Two goroutines using the same position is undefined. Every completed
//     operation still advances the sequence by one, so two operations that
//     ran at position p leave it at p+1.
//   - A slot must outlive every goroutine blocked on it.
//
// OrderedSlot must not be copied after first use; always pass it by pointer.
type OrderedSlot[T any] struct {
	_ noCopy

	order     atomix.Int64
	orderMu   sync.Mutex
	orderCond sync.Cond

	valueMu   sync.Mutex
	valueCond sync.Cond
	value     T
	occupied  bool

	name      string
	log       Logger
	spinLimit int
}

// SlotOption configures an [OrderedSlot].
type SlotOption func(c *slotConfig)

type slotConfig struct {
	log       Logger
	spinLimit int
}

// WithSlotLogger enables step-by-step tracing of every wait and notify
// transition through l.
func WithSlotLogger(l Logger) SlotOption {
	return func(c *slotConfig) {
		c.log = l
	}
}

// WithSpinLimit sets how many pause iterations a waiter spends polling the
// sequence before it parks. Zero parks immediately.
func WithSpinLimit(n int) SlotOption {
	return func(c *slotConfig) {
		if n < 0 {
			n = 0
		}
		c.spinLimit = n
	}
}

// NewOrderedSlot creates an empty slot whose first operation runs at
// position 0.
func NewOrderedSlot[T any](name string, opts ...SlotOption) *OrderedSlot[T] {
	c := slotConfig{spinLimit: defaultSpinLimit}
	for _, o := range opts {
		o(&c)
	}
	if RaceEnabled {
		// the race detector cannot observe atomix orderings; park instead
		c.spinLimit = 0
	}

	s := &OrderedSlot[T]{
		name:      name,
		log:       c.log,
		spinLimit: c.spinLimit,
	}
	s.orderCond.L = &s.orderMu
	s.valueCond.L = &s.valueMu
	s.order.StoreRelease(OrderUnset)
	return s
}

// NewOrderedSlotWith creates a slot pre-seeded with initial.
//
// The seed is stored at position OrderUnset, so the first Load or Peek runs
// at position 0 without a prior Store.
func NewOrderedSlotWith[T any](name string, initial T, opts ...SlotOption) *OrderedSlot[T] {
	s := NewOrderedSlot[T](name, opts...)
	s.order.StoreRelease(OrderUnset - 1)
	s.Store(initial, OrderUnset, "constructor")
	return s
}

// Name returns the diagnostic label given at construction.
func (s *OrderedSlot[T]) Name() string {
	return s.name
}

// Order returns the sequence value of the last completed operation.
func (s *OrderedSlot[T]) Order() int64 {
	if RaceEnabled {
		// atomix loads and stores are invisible to the detector as
		// synchronization; pair them through orderMu like advance does
		s.orderMu.Lock()
		defer s.orderMu.Unlock()
	}
	return s.order.LoadAcquire()
}

// Occupied reports whether an item is currently held.
func (s *OrderedSlot[T]) Occupied() bool {
	s.valueMu.Lock()
	defer s.valueMu.Unlock()
	return s.occupied
}

// SetOrder forces the sequence to position and wakes all order waiters.
// Used for manual resets between logical rounds.
func (s *OrderedSlot[T]) SetOrder(position int64, tag string) {
	s.setOrder(position, tag, s.log)
}

// ResetOrder sets the sequence back to [OrderUnset].
func (s *OrderedSlot[T]) ResetOrder(tag string) {
	s.setOrder(OrderUnset, tag, s.log)
}

// WaitForOrder blocks until the sequence equals position-1.
// It does not touch the value.
func (s *OrderedSlot[T]) WaitForOrder(position int64, tag string) {
	s.waitForOrder(position, tag, s.log)
}

// WaitReached blocks until the sequence is at least position, that is,
// until the operation at position has completed.
func (s *OrderedSlot[T]) WaitReached(position int64, tag string) {
	s.waitReached(position, tag, s.log)
}

// Store waits for its turn, writes item, signals that a value is available
// and advances the sequence.
//
// Store never waits on value state: storing into an occupied slot
// overwrites the previous item. Keeping the slot logically empty at that
// point is the caller's protocol.
func (s *OrderedSlot[T]) Store(item T, position int64, tag string) {
	s.storeFunc(position, tag, s.log, func() T { return item })
}

// Load waits for its turn and for a value, takes the value out leaving the
// slot empty, and advances the sequence.
func (s *OrderedSlot[T]) Load(position int64, tag string) T {
	var v T
	s.loadFunc(position, tag, s.log, true, func(item T) { v = item })
	return v
}

// Peek is Load without removing the value.
func (s *OrderedSlot[T]) Peek(position int64, tag string) T {
	var v T
	s.loadFunc(position, tag, s.log, false, func(item T) { v = item })
	return v
}

// StoreAndResetOrder is Store followed by ResetOrder.
func (s *OrderedSlot[T]) StoreAndResetOrder(item T, position int64, tag string) {
	s.Store(item, position, tag)
	s.ResetOrder(tag)
}

// LoadAndResetOrder is Load followed by ResetOrder.
func (s *OrderedSlot[T]) LoadAndResetOrder(position int64, tag string) T {
	v := s.Load(position, tag)
	s.ResetOrder(tag)
	return v
}

// PeekAndResetOrder is Peek followed by ResetOrder.
func (s *OrderedSlot[T]) PeekAndResetOrder(position int64, tag string) T {
	v := s.Peek(position, tag)
	s.ResetOrder(tag)
	return v
}

func (s *OrderedSlot[T]) setOrder(position int64, tag string, log Logger) {
	s.orderMu.Lock()
	s.order.StoreRelease(position)
	s.orderCond.Broadcast()
	s.orderMu.Unlock()
	if log != nil {
		log.Info(tag, "slot %s: order set to %d", s.name, position)
	}
}

func (s *OrderedSlot[T]) waitForOrder(position int64, tag string, log Logger) {
	if log != nil {
		log.Info(tag, "slot %s: waiting for order %d", s.name, position)
	}

	sw := spin.Wait{}
	for range s.spinLimit {
		if s.order.LoadAcquire()+1 == position {
			if log != nil {
				log.Info(tag, "slot %s: obtained order %d (spin)", s.name, position)
			}
			return
		}
		sw.Once()
	}

	s.orderMu.Lock()
	for s.order.LoadAcquire()+1 != position {
		if log != nil {
			log.Info(tag, "slot %s: order is %d, parking until %d", s.name, s.order.LoadAcquire(), position-1)
		}
		s.orderCond.Wait()
	}
	s.orderMu.Unlock()

	if log != nil {
		log.Info(tag, "slot %s: obtained order %d", s.name, position)
	}
}

func (s *OrderedSlot[T]) waitReached(position int64, tag string, log Logger) {
	if log != nil {
		log.Info(tag, "slot %s: waiting for position %d to complete", s.name, position)
	}
	s.orderMu.Lock()
	for s.order.LoadAcquire() < position {
		s.orderCond.Wait()
	}
	s.orderMu.Unlock()
	if log != nil {
		log.Info(tag, "slot %s: position %d completed", s.name, position)
	}
}

// advance increments the sequence, moving it from position-1 to position
// when called by the goroutine holding the turn at position.
func (s *OrderedSlot[T]) advance(position int64, tag string, log Logger) {
	s.orderMu.Lock()
	order := s.order.AddAcqRel(1)
	s.orderCond.Broadcast()
	s.orderMu.Unlock()
	if log != nil {
		log.Info(tag, "slot %s: advanced order to %d (turn %d)", s.name, order, position)
	}
}

// storeFunc runs produce inside the caller's turn and stores its result.
func (s *OrderedSlot[T]) storeFunc(position int64, tag string, log Logger, produce func() T) {
	if log != nil {
		log.Info(tag, "slot %s: storing at %d", s.name, position)
	}
	s.waitForOrder(position, tag, log)

	item := produce()
	s.valueMu.Lock()
	s.value = item
	s.occupied = true
	// at most one goroutine holds the current turn, so at most one waits here
	s.valueCond.Signal()
	s.valueMu.Unlock()

	s.advance(position, tag, log)
	if log != nil {
		log.Info(tag, "slot %s: stored at %d", s.name, position)
	}
}

// loadFunc waits for a value inside the caller's turn and passes it to
// consume before the sequence advances. If take is set the slot is emptied.
func (s *OrderedSlot[T]) loadFunc(position int64, tag string, log Logger, take bool, consume func(T)) {
	if log != nil {
		if take {
			log.Info(tag, "slot %s: loading at %d", s.name, position)
		} else {
			log.Info(tag, "slot %s: peeking at %d", s.name, position)
		}
	}
	s.waitForOrder(position, tag, log)

	s.valueMu.Lock()
	for !s.occupied {
		if log != nil {
			log.Info(tag, "slot %s: empty, waiting for a value", s.name)
		}
		s.valueCond.Wait()
	}
	item := s.value
	if take {
		var zero T
		s.value = zero
		s.occupied = false
	}
	s.valueMu.Unlock()

	consume(item)
	s.advance(position, tag, log)
	if log != nil {
		log.Info(tag, "slot %s: done at %d", s.name, position)
	}
}

// noCopy may be embedded into structs which must not be copied after first
// use. See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
