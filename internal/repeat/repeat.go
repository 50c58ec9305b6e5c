package repeat

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// Name is the name the helper is registered under.
const Name = "repeat"

// Body is an engine-owned compiled block. The helper only asks it to render
// itself against the data context it was created with and the given scope.
type Body interface {
	Render(ctx context.Context, scope Scope, out io.Writer) error
}

// BodyFunc adapts a function to the Body interface.
type BodyFunc func(ctx context.Context, scope Scope, out io.Writer) error

// Render calls f.
func (f BodyFunc) Render(ctx context.Context, scope Scope, out io.Writer) error {
	return f(ctx, scope, out)
}

// Invocation is a single call of the helper from a template.
type Invocation struct {
	// Name overrides the helper name reported in errors. Defaults to Name.
	Name    string
	Params  []interface{}
	Scope   Scope
	Body    Body
	Inverse Body
	Out     io.Writer
}

// Helper renders a block a given number of times. A Helper holds no state
// between invocations and is safe for concurrent use.
type Helper struct {
	logger   *zap.Logger
	maxCount uint64
}

// Option configures a Helper.
type Option func(*Helper)

// WithLogger sets the logger used for invocation tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Helper) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxCount rejects counts above limit. Zero means no limit.
func WithMaxCount(limit uint64) Option {
	return func(h *Helper) {
		h.maxCount = limit
	}
}

// New creates a repeat helper.
func New(opts ...Option) *Helper {
	h := &Helper{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Invoke validates the invocation and renders it to inv.Out.
//
// Validation happens in order: the count argument must be present, it must be
// a non-negative integer, and a block body must be attached. A failed
// validation produces no output. Body failures are returned unchanged after
// the iteration's frame has been popped; output already written stays written.
func (h *Helper) Invoke(ctx context.Context, inv Invocation) error {
	name := inv.Name
	if name == "" {
		name = Name
	}

	if len(inv.Params) == 0 {
		return argumentMissing(name, 0)
	}

	count, ok := DecodeCount(inv.Params[0])
	if !ok {
		return argumentTypeMismatch(name, 0, inv.Params[0])
	}

	if inv.Body == nil {
		return blockBodyRequired(name)
	}

	if h.maxCount > 0 && count > h.maxCount {
		return countLimitExceeded(name, count, h.maxCount)
	}

	if inv.Scope == nil {
		inv.Scope = NewStack()
	}
	if inv.Out == nil {
		inv.Out = io.Discard
	}

	h.logger.Debug("repeat invoked",
		zap.String("helper", name),
		zap.Uint64("count", count),
		zap.Bool("has_inverse", inv.Inverse != nil),
	)

	if count == 0 {
		if inv.Inverse == nil {
			return nil
		}
		return inv.Inverse.Render(ctx, inv.Scope, inv.Out)
	}

	for i := uint64(0); i < count; i++ {
		if err := ctx.Err(); err != nil {
			h.logger.Debug("repeat stopped",
				zap.String("helper", name),
				zap.Uint64("index", i),
				zap.Error(err),
			)
			return err
		}
		if err := h.iterate(ctx, inv, i, count); err != nil {
			return err
		}
	}

	return nil
}

// iterate renders one iteration inside its own frame.
func (h *Helper) iterate(ctx context.Context, inv Invocation, i, count uint64) error {
	frame := inv.Scope.Current().Clone()
	frame[BindingIndex] = int(i)
	frame[BindingFirst] = i == 0
	frame[BindingLast] = i == count-1

	inv.Scope.Push(frame)
	defer inv.Scope.Pop()

	return inv.Body.Render(ctx, inv.Scope, inv.Out)
}
