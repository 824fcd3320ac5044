package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := New(ErrorTypeValidation, "bad input", http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR: bad input", err.Error())

	wrapped := Wrap(fmt.Errorf("disk full"), ErrorTypeInternal, "save failed", http.StatusInternalServerError)
	assert.Equal(t, "INTERNAL_ERROR: save failed (caused by: disk full)", wrapped.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := WrapInternalError(cause, "something broke")
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())
	assert.Nil(t, New(ErrorTypeInternal, "standalone", http.StatusInternalServerError).Unwrap())
}

func TestAppErrorBuilders(t *testing.T) {
	err := NewValidationError("nope").
		WithCode("E100").
		WithDetails(map[string]interface{}{"field": "fps"})

	assert.Equal(t, "E100", err.Code)
	assert.Equal(t, "fps", err.Details["field"])
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("x"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("session"), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("x"), ErrorTypeInternal, http.StatusInternalServerError},
		{"allocation", NewAllocationError("x"), ErrorTypeAllocation, http.StatusInsufficientStorage},
		{"geometry", NewGeometryError("x"), ErrorTypeGeometry, http.StatusUnprocessableEntity},
		{"missing pts", NewMissingTimestampError(), ErrorTypeMissingPTS, http.StatusBadRequest},
		{"duplicate pts", NewDuplicateTimestampError(42), ErrorTypeDuplicatePTS, http.StatusBadRequest},
		{"discontinuity", NewDiscontinuityError(10, 5), ErrorTypeDiscontinuity, http.StatusBadRequest},
		{"inexact", NewInexactTimebaseError("x"), ErrorTypeInexact, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NewNotFoundError("conversion session")
	assert.Equal(t, "conversion session not found", err.Message)
}

func TestDuplicateTimestampMessage(t *testing.T) {
	err := NewDuplicateTimestampError(96)
	assert.Contains(t, err.Message, "96")
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(NewInternalError("x")))
	assert.False(t, IsAppError(fmt.Errorf("plain")))

	appErr, ok := GetAppError(NewGeometryError("x"))
	require.True(t, ok)
	assert.Equal(t, ErrorTypeGeometry, appErr.Type)

	_, ok = GetAppError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestIsAllocationFailure(t *testing.T) {
	assert.True(t, IsAllocationFailure(NewAllocationError("x")))
	assert.False(t, IsAllocationFailure(NewInternalError("x")))
	assert.False(t, IsAllocationFailure(fmt.Errorf("plain")))
}
