// Package xerrors implements the stable error-category taxonomy every
// capability-typed facade in corehft returns instead of throwing.
package xerrors

import "github.com/yanun0323/errors"

// Category is one of the stable taxonomy symbols from the error-handling
// design. Categories nest: Incorrect and Connection are parents of the
// finer-grained children below them.
type Category string

const (
	// Fault is the unknown/uncategorized bucket.
	Fault Category = "fault"

	// Incorrect and its children describe a caller or venue mistake.
	Incorrect      Category = "incorrect"
	Unsupported    Category = "unsupported"
	NotFound       Category = "not_found"
	InvalidParams  Category = "invalid_params"
	Unauthorized   Category = "unauthorized"

	// Connection and its children describe transport-level failures.
	Connection  Category = "connection"
	Timeout     Category = "timeout"
	Unavailable Category = "unavailable"
	Busy        Category = "busy"
	RateLimited Category = "rate_limited"
	Outdated    Category = "outdated"

	// Forbidden and Interrupted are referenced by documentation but never
	// defined as first-class taxonomy members. They alias the categories
	// the design notes name; see Canonical.
	Forbidden   Category = "forbidden"
	Interrupted Category = "interrupted"
)

var aliases = map[Category]Category{
	Forbidden:   Unauthorized,
	Interrupted: Fault,
}

// Canonical resolves documentation-only aliases to a taxonomy member.
func Canonical(c Category) Category {
	if resolved, ok := aliases[c]; ok {
		return resolved
	}
	return c
}

// Error is a value-typed, category-tagged failure. It is returned, never
// thrown: every operation that can fail (§7) returns one under a reserved
// key on the failing value rather than raising an exception.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(Canonical(e.Category))
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ", err: " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a categorized error, wrapping cause with yanun0323/errors so
// the chain stays inspectable with errors.Is/errors.As.
func New(category Category, op string, cause error) *Error {
	if cause != nil {
		cause = errors.Wrap(cause, op)
	}
	return &Error{Category: Canonical(category), Op: op, Err: cause}
}

// Is reports whether err carries the given category anywhere in its chain.
func Is(err error, category Category) bool {
	category = Canonical(category)
	for err != nil {
		if ce, ok := err.(*Error); ok {
			if ce.Category == category {
				return true
			}
			err = ce.Err
			continue
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// CategoryOf extracts the category of err, or Fault if err does not carry
// one.
func CategoryOf(err error) Category {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			return ce.Category
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	return Fault
}

// Sentinel, comparable errors for programmer-fault preconditions that fail
// fatally rather than propagate as a value (§7): duplicate node ids and
// links to nonexistent nodes are caller bugs, not runtime conditions.
var (
	ErrDuplicateNodeID  = errors.New("pipeline: duplicate node id")
	ErrUnknownNode      = errors.New("pipeline: link references unknown node")
	ErrDuplicateLink    = errors.New("pipeline: duplicate link")
	ErrUnknownLink      = errors.New("pipeline: link not found")
)
