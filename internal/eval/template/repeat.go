package template

import (
	"context"
	"io"
	"runtime"
	"strings"

	"github.com/aescanero/dago-node-render/internal/repeat"
	"github.com/aymerick/raymond"
)

// repeatHelper binds the repeat helper to raymond. Raymond reports helper
// failures by panicking with an error, which ExecWith turns back into its
// returned error.
func (e *Engine) repeatHelper(count interface{}, options *raymond.Options) raymond.SafeString {
	var out strings.Builder

	err := e.repeat.Invoke(renderContext(options), repeat.Invocation{
		Params:  []interface{}{count},
		Scope:   repeat.NewStack(),
		Body:    &blockBody{options: options},
		Inverse: &inverseBody{options: options},
		Out:     &out,
	})
	if err != nil {
		panic(err)
	}

	// Block output is already escaped by raymond
	return raymond.SafeString(out.String())
}

// renderContext returns the context passed to Engine.Render
func renderContext(options *raymond.Options) context.Context {
	if ctx, ok := options.DataFrame().Get(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// blockBody renders the main block with the scope's live frame exposed as
// @-prefixed private data. The data frame is a copy of the enclosing one, so
// outer @variables stay visible unless shadowed.
type blockBody struct {
	options *raymond.Options
}

func (b *blockBody) Render(_ context.Context, scope repeat.Scope, out io.Writer) (err error) {
	defer recoverRender(&err)

	frame := b.options.NewDataFrame()
	for name, value := range scope.Current() {
		frame.Set(name, value)
	}

	_, err = io.WriteString(out, b.options.FnData(frame))
	return err
}

// inverseBody renders the {{else}} section with the data frame of the call site.
type inverseBody struct {
	options *raymond.Options
}

func (b *inverseBody) Render(_ context.Context, _ repeat.Scope, out io.Writer) (err error) {
	defer recoverRender(&err)

	_, err = io.WriteString(out, b.options.Inverse())
	return err
}

// recoverRender turns a raymond evaluation panic into an error so the
// helper can pop its frame before failing.
func recoverRender(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(runtime.Error); ok {
		panic(r)
	}
	if err, ok := r.(error); ok {
		*errp = err
		return
	}
	panic(r)
}
