package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/paygate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	other := errors.New("connection refused")
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "nil error returns nil", input: nil, expected: nil},
		{name: "record not found maps to ErrNotFound", input: gorm.ErrRecordNotFound, expected: domain.ErrNotFound},
		{name: "wrapped record not found", input: fmt.Errorf("get: %w", gorm.ErrRecordNotFound), expected: domain.ErrNotFound},
		{name: "unmapped error returned unchanged", input: other, expected: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MapGormErrorToDomain(tt.input))
		})
	}
}

func TestWrapError(t *testing.T) {
	err := WrapError(func() error { return gorm.ErrRecordNotFound })
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, WrapError(func() error { return nil }))
}
