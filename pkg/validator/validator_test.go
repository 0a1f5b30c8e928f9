package validator

import (
	"errors"
	"testing"

	"storefront/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string          `validate:"required,max=5"`
	Stock    int             `validate:"gte=0"`
	Category domain.Category `validate:"required,category"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected Errors
	}{
		{
			name:  "valid",
			input: sample{Name: "Mug", Category: domain.CategoryHome},
		},
		{
			name:  "every rule fails",
			input: sample{Name: "too long", Stock: -1, Category: "toys"},
			expected: Errors{
				{Field: "Name", Tag: "max", Param: "5"},
				{Field: "Stock", Tag: "gte", Param: "0"},
				{Field: "Category", Tag: "category"},
			},
		},
		{
			name:  "pointer to struct",
			input: &sample{Category: domain.CategoryBeauty},
			expected: Errors{
				{Field: "Name", Tag: "required"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.input)
			if tt.expected == nil {
				assert.NoError(t, err)
				return
			}
			var got Errors
			require.True(t, errors.As(err, &got))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStruct_ErrorMessage(t *testing.T) {
	err := Struct(sample{Name: "too long", Category: "toys"})
	require.Error(t, err)
	assert.Equal(t, "Name failed on max=5; Category failed on category", err.Error())
}

func TestStruct_NonStructDoesNotPanic(t *testing.T) {
	var err error
	assert.NotPanics(t, func() { err = Struct("not a struct") })
	require.Error(t, err)

	var fieldErrs Errors
	assert.False(t, errors.As(err, &fieldErrs))
}
