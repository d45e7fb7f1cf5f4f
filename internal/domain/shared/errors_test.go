package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel by code", func(t *testing.T) {
		err := NewNotFoundError("Product with ID %d not found", 7)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrForbidden))
		assert.Equal(t, "Product with ID 7 not found", err.Error())
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("loading sale: %w", NewForbiddenError("Access denied"))
		assert.ErrorIs(t, err, ErrForbidden)

		var de *DomainError
		assert.True(t, errors.As(err, &de))
		assert.Equal(t, CodeForbidden, de.Code)
	})
}

func TestNewInternalError(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := NewInternalError("Failed to create sale", cause)

	assert.Equal(t, "Failed to create sale", err.Error())
	assert.NotContains(t, err.Error(), "pq")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestAsInternal(t *testing.T) {
	assert.NoError(t, AsInternal(nil, "x"))

	domainErr := NewValidationError("Sale must have at least one item")
	assert.Same(t, domainErr, AsInternal(domainErr, "x"))

	err := AsInternal(errors.New("deadlock detected"), "Failed to update sale")
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, "Failed to update sale", err.Error())
}

func TestLastPage(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 8, 0},
		{1, 8, 1},
		{8, 8, 1},
		{10, 8, 2},
		{17, 8, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.pageSize), func(t *testing.T) {
			assert.Equal(t, tt.want, LastPage(tt.total, tt.pageSize))
		})
	}
}

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: -3}.Normalize()
	assert.Equal(t, DefaultPage, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 8}.Normalize()
	assert.Equal(t, 16, f.Offset())
}
