package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "validation", err: Validation("weight must be positive"), want: CodeValidation},
		{name: "not found", err: NotFound("session"), want: CodeNotFound},
		{name: "conflict", err: Conflict("session is %s", "skipped"), want: CodeConflict},
		{name: "conversion", err: ConversionFailed(errors.New("boom")), want: CodeConversionFailed},
		{name: "wrapped", err: fmt.Errorf("adding set: %w", NotFound("exercise")), want: CodeNotFound},
		{name: "plain", err: errors.New("connection reset"), want: CodeUnknown},
		{name: "nil", err: nil, want: CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
			assert.True(t, IsCode(tt.err, tt.want))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "session not found", NotFound("session").Error())
	assert.Equal(t, "session is skipped", Conflict("session is %s", "skipped").Error())

	cause := errors.New("disk full")
	err := ConversionFailed(cause)
	assert.Equal(t, "unit conversion aborted: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
}
