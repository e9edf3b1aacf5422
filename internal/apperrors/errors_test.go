package apperrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf_WalksWrappedChain(t *testing.T) {
	base := NewCatalogUnavailableError("fetch diseases", context.DeadlineExceeded)
	wrapped := fmt.Errorf("predict: %w", base)

	assert.Equal(t, ErrorTypeCatalogUnavailable, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeCatalogUnavailable))
	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded))
	assert.True(t, base.Retryable())
}

func TestTypeOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(errors.New("boom")))
	assert.False(t, Is(nil, ErrorTypeInternal))
}

func TestAppError_Message(t *testing.T) {
	err := NewInvalidInputError("exactly 3 symptoms are required")
	assert.Equal(t, "INVALID_INPUT: exactly 3 symptoms are required", err.Error())
	assert.False(t, err.Retryable())

	err = NewMalformedCatalogEntryError("Flu", errors.New("bad json"))
	assert.Equal(t, `MALFORMED_CATALOG_ENTRY: catalog entry "Flu": bad json`, err.Error())
}
