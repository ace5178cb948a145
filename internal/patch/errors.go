package patch

import "fmt"

// Kind classifies a per-edit application failure. Every kind is non-fatal to
// the apply pass as a whole: it becomes a failed ApplicationResult, never an
// abort of the remaining edits.
type Kind string

const (
	KindPathEscape     Kind = "PathEscape"
	KindAlreadyExists  Kind = "AlreadyExists"
	KindNotFound       Kind = "NotFound"
	KindLineOutOfRange Kind = "LineOutOfRange"
	KindIOFailure      Kind = "IOFailure"
)

// Error is a classified per-edit failure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
