package repeat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopBody mimics "{{name}}:{{@index}}:{{@first}}:{{@last}} ".
func loopBody(name string) Body {
	return BodyFunc(func(ctx context.Context, scope Scope, out io.Writer) error {
		f := scope.Current()
		_, err := fmt.Fprintf(out, "%s:%v:%v:%v ", name, f[BindingIndex], f[BindingFirst], f[BindingLast])
		return err
	})
}

func textBody(text string) Body {
	return BodyFunc(func(ctx context.Context, scope Scope, out io.Writer) error {
		_, err := io.WriteString(out, text)
		return err
	})
}

func TestInvokeRendersIterations(t *testing.T) {
	tests := []struct {
		count    interface{}
		expected string
	}{
		{0, "bar"},
		{1, "foo:0:true:true "},
		{2, "foo:0:true:false foo:1:false:true "},
		{3, "foo:0:true:false foo:1:false:false foo:2:false:true "},
		{uint64(2), "foo:0:true:false foo:1:false:true "},
		{float64(1), "foo:0:true:true "},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T(%v)", tt.count, tt.count), func(t *testing.T) {
			var buf bytes.Buffer
			scope := NewStack()

			err := New().Invoke(context.Background(), Invocation{
				Params:  []interface{}{tt.count},
				Scope:   scope,
				Body:    loopBody("foo"),
				Inverse: textBody("bar"),
				Out:     &buf,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, buf.String())
			assert.Equal(t, 0, scope.Depth())
		})
	}
}

func TestInvokeArgumentMissing(t *testing.T) {
	for _, params := range [][]interface{}{nil, {}} {
		var buf bytes.Buffer
		err := New().Invoke(context.Background(), Invocation{
			Params: params,
			Scope:  NewStack(),
			Body:   textBody("x"),
			Out:    &buf,
		})

		require.ErrorIs(t, err, ErrArgumentMissing)
		var rerr *Error
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, "repeat", rerr.Helper)
		assert.Equal(t, 0, rerr.Position)
		assert.Empty(t, buf.String())
	}
}

func TestInvokeArgumentTypeMismatch(t *testing.T) {
	values := []interface{}{
		"foo", "3", -1, int64(-5), 1.5, -2.0, true, nil,
		map[string]interface{}{"n": 1}, []interface{}{1},
	}

	for _, v := range values {
		t.Run(fmt.Sprintf("%T(%v)", v, v), func(t *testing.T) {
			var buf bytes.Buffer
			err := New().Invoke(context.Background(), Invocation{
				Params:  []interface{}{v},
				Scope:   NewStack(),
				Body:    textBody("x"),
				Inverse: textBody("y"),
				Out:     &buf,
			})

			require.ErrorIs(t, err, ErrArgumentTypeMismatch)
			var rerr *Error
			require.True(t, errors.As(err, &rerr))
			assert.Equal(t, "repeat", rerr.Helper)
			assert.Equal(t, 0, rerr.Position)
			assert.Equal(t, "non-negative integer", rerr.Expected)
			assert.Contains(t, err.Error(), "non-negative integer")
			assert.Empty(t, buf.String())
		})
	}
}

func TestInvokeBlockBodyRequired(t *testing.T) {
	for count := 0; count <= 3; count++ {
		var buf bytes.Buffer
		err := New().Invoke(context.Background(), Invocation{
			Params:  []interface{}{count},
			Scope:   NewStack(),
			Inverse: textBody("bar"),
			Out:     &buf,
		})

		require.ErrorIs(t, err, ErrBlockBodyRequired, "count %d", count)
		assert.Empty(t, buf.String())
	}
}

func TestInvokeValidationOrder(t *testing.T) {
	err := New().Invoke(context.Background(), Invocation{Scope: NewStack()})
	assert.ErrorIs(t, err, ErrArgumentMissing)

	err = New().Invoke(context.Background(), Invocation{Params: []interface{}{"foo"}, Scope: NewStack()})
	assert.ErrorIs(t, err, ErrArgumentTypeMismatch)
}

func TestInvokeZeroWithoutInverse(t *testing.T) {
	var buf bytes.Buffer
	rendered := false

	err := New().Invoke(context.Background(), Invocation{
		Params: []interface{}{0},
		Scope:  NewStack(),
		Body: BodyFunc(func(context.Context, Scope, io.Writer) error {
			rendered = true
			return nil
		}),
		Out: &buf,
	})

	require.NoError(t, err)
	assert.False(t, rendered)
	assert.Empty(t, buf.String())
}

func TestInvokeInverseSeesEntryScope(t *testing.T) {
	base := Frame{"root": "x"}
	scope := NewStack(base)
	calls := 0

	err := New().Invoke(context.Background(), Invocation{
		Params: []interface{}{0},
		Scope:  scope,
		Body:   textBody("body"),
		Inverse: BodyFunc(func(ctx context.Context, s Scope, out io.Writer) error {
			calls++
			assert.Equal(t, 1, scope.Depth())
			assert.Equal(t, base, s.Current())
			_, ok := scope.Lookup(BindingIndex)
			assert.False(t, ok)
			return nil
		}),
		Out: io.Discard,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestInvokeInheritsEnclosingBindings(t *testing.T) {
	scope := NewStack(Frame{"root": "x", BindingIndex: 42})
	var seen []interface{}

	err := New().Invoke(context.Background(), Invocation{
		Params: []interface{}{2},
		Scope:  scope,
		Body: BodyFunc(func(ctx context.Context, s Scope, out io.Writer) error {
			f := s.Current()
			assert.Equal(t, "x", f["root"])
			seen = append(seen, f[BindingIndex])
			return nil
		}),
		Out: io.Discard,
	})

	require.NoError(t, err)
	assert.Equal(t, []interface{}{0, 1}, seen)
	// shadowed binding restored
	assert.Equal(t, 42, scope.Current()[BindingIndex])
	assert.Equal(t, 1, scope.Depth())
}

func TestInvokeNested(t *testing.T) {
	h := New()
	scope := NewStack()
	var buf bytes.Buffer

	inner := BodyFunc(func(ctx context.Context, s Scope, out io.Writer) error {
		_, err := fmt.Fprintf(out, "[%v]", s.Current()[BindingIndex])
		return err
	})

	outer := BodyFunc(func(ctx context.Context, s Scope, out io.Writer) error {
		before := s.Current()[BindingIndex]
		depth := scope.Depth()
		if err := h.Invoke(ctx, Invocation{
			Params: []interface{}{2},
			Scope:  s,
			Body:   inner,
			Out:    out,
		}); err != nil {
			return err
		}
		assert.Equal(t, depth, scope.Depth())
		assert.Equal(t, before, s.Current()[BindingIndex])
		_, err := fmt.Fprintf(out, "%v;", before)
		return err
	})

	err := h.Invoke(context.Background(), Invocation{
		Params: []interface{}{3},
		Scope:  scope,
		Body:   outer,
		Out:    &buf,
	})

	require.NoError(t, err)
	assert.Equal(t, "[0][1]0;[0][1]1;[0][1]2;", buf.String())
	assert.Equal(t, 0, scope.Depth())
}

func TestInvokeBodyErrorPopsFrame(t *testing.T) {
	errBoom := errors.New("boom")
	scope := NewStack(Frame{"root": "x"})
	var buf bytes.Buffer

	err := New().Invoke(context.Background(), Invocation{
		Params: []interface{}{4},
		Scope:  scope,
		Body: BodyFunc(func(ctx context.Context, s Scope, out io.Writer) error {
			i := s.Current()[BindingIndex].(int)
			if i == 2 {
				return errBoom
			}
			_, err := fmt.Fprintf(out, "%d", i)
			return err
		}),
		Out: &buf,
	})

	assert.Same(t, errBoom, err)
	assert.Equal(t, "01", buf.String())
	assert.Equal(t, 1, scope.Depth())
	assert.Equal(t, Frame{"root": "x"}, scope.Current())
}

func TestInvokeInverseErrorPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	err := New().Invoke(context.Background(), Invocation{
		Params: []interface{}{0},
		Scope:  NewStack(),
		Body:   textBody("x"),
		Inverse: BodyFunc(func(context.Context, Scope, io.Writer) error {
			return errBoom
		}),
		Out: io.Discard,
	})

	assert.Same(t, errBoom, err)
}

func TestInvokeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scope := NewStack()
	var buf bytes.Buffer

	err := New().Invoke(ctx, Invocation{
		Params: []interface{}{5},
		Scope:  scope,
		Body: BodyFunc(func(ctx context.Context, s Scope, out io.Writer) error {
			_, err := fmt.Fprintf(out, "%v", s.Current()[BindingIndex])
			cancel()
			return err
		}),
		Out: &buf,
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "0", buf.String())
	assert.Equal(t, 0, scope.Depth())
}

func TestInvokeMaxCount(t *testing.T) {
	h := New(WithMaxCount(3))

	err := h.Invoke(context.Background(), Invocation{
		Params: []interface{}{3},
		Body:   textBody("x"),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = h.Invoke(context.Background(), Invocation{
		Params: []interface{}{4},
		Body:   textBody("x"),
		Out:    &buf,
	})
	require.ErrorIs(t, err, ErrCountLimitExceeded)
	assert.Empty(t, buf.String())
}

func TestInvokeCustomName(t *testing.T) {
	err := New().Invoke(context.Background(), Invocation{Name: "times"})

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "times", rerr.Helper)
	assert.Contains(t, err.Error(), `"times"`)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{argumentMissing(Name, 0), "argument_missing"},
		{fmt.Errorf("wrapped: %w", argumentTypeMismatch(Name, 0, "x")), "argument_type_mismatch"},
		{blockBodyRequired(Name), "block_body_required"},
		{countLimitExceeded(Name, 5, 1), "count_limit_exceeded"},
		{context.Canceled, "canceled"},
		{context.DeadlineExceeded, "deadline_exceeded"},
		{errors.New("other"), "render_failed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Kind(tt.err))
	}
}
