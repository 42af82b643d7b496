package xerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalResolvesDocumentationOnlyAliases(t *testing.T) {
	assert.Equal(t, Unauthorized, Canonical(Forbidden))
	assert.Equal(t, Fault, Canonical(Interrupted))
	assert.Equal(t, NotFound, Canonical(NotFound), "already-canonical categories pass through unchanged")
}

func TestNewCanonicalizesTheCategory(t *testing.T) {
	err := New(Forbidden, "authorize", nil)
	assert.Equal(t, Unauthorized, err.Category)
}

func TestErrorStringFormatting(t *testing.T) {
	assert.Equal(t, "fault", New(Fault, "", nil).Error())
	assert.Equal(t, "lookup: not_found", New(NotFound, "lookup", nil).Error())

	withCause := New(NotFound, "lookup", errors.New("boom"))
	assert.Contains(t, withCause.Error(), "lookup: not_found, err:")
	assert.Contains(t, withCause.Error(), "boom")
}

func TestNilErrorIsSafe(t *testing.T) {
	var e *Error
	assert.Equal(t, "", e.Error())
	assert.Nil(t, e.Unwrap())
}

func TestUnwrapExposesTheWrappedCause(t *testing.T) {
	cause := errors.New("dial refused")
	err := New(Connection, "dial", cause)

	require.NotNil(t, err.Unwrap())
	assert.True(t, errors.Is(err, cause), "the standard errors.Is chain must reach the original cause")
}

func TestIsMatchesCategoryAnywhereInTheChain(t *testing.T) {
	inner := New(NotFound, "read-order", nil)
	outer := New(Fault, "reconcile", inner)

	assert.True(t, Is(outer, Fault), "the outer error's own category matches")
	assert.True(t, Is(outer, NotFound), "a nested *Error's category must also match")
	assert.False(t, Is(outer, Timeout))
}

func TestIsCanonicalizesTheQueriedCategory(t *testing.T) {
	err := New(Unauthorized, "place-order", nil)
	assert.True(t, Is(err, Forbidden), "querying with an alias must resolve before comparing")
}

func TestCategoryOfReturnsFaultForUncategorizedErrors(t *testing.T) {
	assert.Equal(t, Fault, CategoryOf(errors.New("plain")))
	assert.Equal(t, Fault, CategoryOf(nil))
}

func TestCategoryOfReturnsTheOutermostCategory(t *testing.T) {
	inner := New(NotFound, "read-order", nil)
	outer := New(Busy, "reconcile", inner)
	assert.Equal(t, Busy, CategoryOf(outer), "CategoryOf reports the error's own category, not a nested one")
}

func TestSentinelErrorsAreDistinguishable(t *testing.T) {
	assert.True(t, errors.Is(ErrDuplicateNodeID, ErrDuplicateNodeID))
	assert.False(t, errors.Is(ErrDuplicateNodeID, ErrUnknownNode))
	assert.False(t, errors.Is(ErrDuplicateLink, ErrUnknownLink))
}
