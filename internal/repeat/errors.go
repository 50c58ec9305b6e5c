package repeat

import (
	"context"
	"errors"
	"fmt"
)

// Error conditions reported by the helper before any output is produced.
var (
	ErrArgumentMissing      = errors.New("argument missing")
	ErrArgumentTypeMismatch = errors.New("argument type mismatch")
	ErrBlockBodyRequired    = errors.New("block body required")
	ErrCountLimitExceeded   = errors.New("count limit exceeded")
)

// Error describes a failed helper invocation. It unwraps to one of the
// sentinel errors above.
type Error struct {
	Err      error
	Helper   string
	Position int
	Expected string
	Value    interface{}
}

func (e *Error) Error() string {
	switch {
	case errors.Is(e.Err, ErrArgumentMissing):
		return fmt.Sprintf("helper %q: %v at position %d", e.Helper, e.Err, e.Position)
	case errors.Is(e.Err, ErrArgumentTypeMismatch):
		return fmt.Sprintf("helper %q: %v at position %d: expected %s, got %T",
			e.Helper, e.Err, e.Position, e.Expected, e.Value)
	case errors.Is(e.Err, ErrCountLimitExceeded):
		return fmt.Sprintf("helper %q: %v: %v exceeds %s", e.Helper, e.Err, e.Value, e.Expected)
	default:
		return fmt.Sprintf("helper %q: %v", e.Helper, e.Err)
	}
}

// Unwrap returns the sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}

func argumentMissing(helper string, pos int) error {
	return &Error{Err: ErrArgumentMissing, Helper: helper, Position: pos}
}

func argumentTypeMismatch(helper string, pos int, value interface{}) error {
	return &Error{
		Err:      ErrArgumentTypeMismatch,
		Helper:   helper,
		Position: pos,
		Expected: ExpectedType,
		Value:    value,
	}
}

func blockBodyRequired(helper string) error {
	return &Error{Err: ErrBlockBodyRequired, Helper: helper}
}

func countLimitExceeded(helper string, count, limit uint64) error {
	return &Error{
		Err:      ErrCountLimitExceeded,
		Helper:   helper,
		Expected: fmt.Sprintf("limit %d", limit),
		Value:    count,
	}
}

// Kind returns a short machine-readable name for err, suitable for event
// payloads and log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrArgumentMissing):
		return "argument_missing"
	case errors.Is(err, ErrArgumentTypeMismatch):
		return "argument_type_mismatch"
	case errors.Is(err, ErrBlockBodyRequired):
		return "block_body_required"
	case errors.Is(err, ErrCountLimitExceeded):
		return "count_limit_exceeded"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline_exceeded"
	default:
		return "render_failed"
	}
}
