// Package repeat implements the "repeat" block helper: it renders its block
// body count times and falls back to the inverse block when count is zero.
//
// The helper is independent of any template engine. A host engine hands it an
// Invocation carrying the positional parameters, a Scope for loop-local
// bindings and opaque Body handles it can ask to render:
//
//	h := repeat.New(repeat.WithLogger(logger))
//	err := h.Invoke(ctx, repeat.Invocation{
//	    Params:  []interface{}{3},
//	    Scope:   repeat.NewStack(),
//	    Body:    body,
//	    Inverse: inverse,
//	    Out:     &buf,
//	})
//
// Within each iteration three bindings are visible through the scope:
//   - index - 0-based position of the iteration
//   - first - true for the first iteration
//   - last  - true for the last iteration
//
// Each iteration pushes its own frame and pops it before the next one starts,
// including when the body fails, so nested repeat blocks see the enclosing
// loop-locals and never leak their own.
package repeat
