package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "persist cart")

	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "persist cart", err.Message())
	assert.ErrorIs(t, err, cause)
}

func TestAsFindsTypedErrorThroughChain(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("handler: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeValidation, fmt.Errorf("bad quantity"), "update quantity")
	dump := Dump(err)

	assert.Equal(t, CodeValidation, dump.Code)
	assert.Len(t, dump.Chain, 2)
}
