package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "malformed index", errType: ErrTypeMalformedIndex, expected: "MALFORMED_INDEX"},
		{name: "duplicate key", errType: ErrTypeDuplicateKey, expected: "DUPLICATE_KEY"},
		{name: "transform", errType: ErrTypeTransform, expected: "TRANSFORM"},
		{name: "pool construction", errType: ErrTypePoolConstruction, expected: "POOL_CONSTRUCTION"},
		{name: "timeout", errType: ErrTypeTimeout, expected: "TIMEOUT"},
		{name: "cancelled", errType: ErrTypeCancelled, expected: "CANCELLED"},
		{name: "storage", errType: ErrTypeStorage, expected: "STORAGE"},
		{name: "config", errType: ErrTypeConfig, expected: "CONFIG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "type only",
			err:      NewAppError(ErrTypeConfig, "", "bad value", nil),
			expected: "[CONFIG]: bad value",
		},
		{
			name:     "with stage",
			err:      NewTransformError("percent is not numeric", nil),
			expected: "[TRANSFORM] transform: percent is not numeric",
		},
		{
			name:     "with stage, path and cause",
			err:      NewStorageError(StageWrite, "save workbook", fmt.Errorf("disk full")).WithPath("/tmp/a.csv"),
			expected: "[STORAGE] write /tmp/a.csv: save workbook: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_UnwrapAndAs(t *testing.T) {
	cause := fmt.Errorf("strconv failure")
	appErr := NewMalformedIndexError(7, "x1", cause)
	wrapped := fmt.Errorf("file a.csv: %w", appErr)

	assert.True(t, errors.Is(wrapped, cause))

	var target *AppError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, ErrTypeMalformedIndex, target.Type)
	assert.Equal(t, StageReconstruct, target.Stage)
	assert.Equal(t, 7, target.Context["line"])
	assert.Equal(t, "x1", target.Context["cell"])
}

func TestTypeOfAndIs(t *testing.T) {
	assert.Equal(t, ErrTypeDuplicateKey, TypeOf(fmt.Errorf("wrap: %w", NewDuplicateKeyError("t", "1"))))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.Equal(t, ErrorType(""), TypeOf(nil))

	assert.True(t, Is(NewPoolConstructionError("no workers", nil), ErrTypePoolConstruction))
	assert.False(t, Is(nil, ErrTypePoolConstruction))
	assert.False(t, Is(NewTimeoutError(StageTransform, nil), ErrTypeCancelled))

	assert.Equal(t, StageTransform, StageOf(NewTimeoutError(StageTransform, nil)))
	assert.Equal(t, "", StageOf(errors.New("plain")))
}

func TestWithContext_InitializesMap(t *testing.T) {
	e := &AppError{Type: ErrTypeTransform}
	e.WithContext("row", 3)
	assert.Equal(t, 3, e.Context["row"])
}
