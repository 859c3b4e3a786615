// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package memsock

// Option configures socket creation.
type Option func(c *socketConfig)

type socketConfig struct {
	flags    Flags
	log      Logger
	name     string
	slotOpts []SlotOption
}

// WithFlags sets the initial global flags. Defaults to 0 (non-blocking,
// no tracing).
func WithFlags(flags Flags) Option {
	return func(c *socketConfig) {
		c.flags = flags
	}
}

// WithLogger sets the Logger used for FlagDebug traces and for fatal
// consistency failures. Defaults to [NewLogger] with its default streams.
func WithLogger(l Logger) Option {
	return func(c *socketConfig) {
		c.log = l
	}
}

// WithName sets the diagnostic label of the socket and its slot.
func WithName(name string) Option {
	return func(c *socketConfig) {
		c.name = name
	}
}

// WithSlotOptions passes options through to the backing [OrderedSlot].
func WithSlotOptions(opts ...SlotOption) Option {
	return func(c *socketConfig) {
		c.slotOpts = append(c.slotOpts, opts...)
	}
}

// Builder creates sockets with fluent configuration.
//
// Example:
//
//	s, err := memsock.New(8).
//	    Flags(memsock.FlagBlock | memsock.FlagDebug).
//	    Name("ui-audio").
//	    Build()
type Builder struct {
	capacity int
	opts     []Option
}

// New creates a socket builder for messages of up to capacity bytes.
// The capacity is validated by Build.
func New(capacity int) *Builder {
	return &Builder{capacity: capacity}
}

// Flags sets the initial global flags.
func (b *Builder) Flags(flags Flags) *Builder {
	b.opts = append(b.opts, WithFlags(flags))
	return b
}

// Logger sets the socket Logger.
func (b *Builder) Logger(l Logger) *Builder {
	b.opts = append(b.opts, WithLogger(l))
	return b
}

// Name sets the diagnostic label.
func (b *Builder) Name(name string) *Builder {
	b.opts = append(b.opts, WithName(name))
	return b
}

// SpinLimit bounds the busy-spin phase of the backing slot.
func (b *Builder) SpinLimit(n int) *Builder {
	b.opts = append(b.opts, WithSlotOptions(WithSpinLimit(n)))
	return b
}

// Build creates the socket.
// Returns ErrInvalidArgument if the capacity is not positive.
func (b *Builder) Build() (*Socket, error) {
	return NewSocket(b.capacity, b.opts...)
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
