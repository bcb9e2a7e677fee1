package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParams_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   PageParams
		want PageParams
	}{
		{"zero values get defaults", PageParams{}, PageParams{Page: 1, Size: DefaultPageSize}},
		{"negative page", PageParams{Page: -3, Size: 10}, PageParams{Page: 1, Size: 10}},
		{"size clamped", PageParams{Page: 2, Size: 5000}, PageParams{Page: 2, Size: MaxPageSize}},
		{"valid untouched", PageParams{Page: 3, Size: 20}, PageParams{Page: 3, Size: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in
			p.Validate()
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPageParams_Offset(t *testing.T) {
	assert.Equal(t, 0, PageParams{Page: 1, Size: 25}.Offset())
	assert.Equal(t, 50, PageParams{Page: 3, Size: 25}.Offset())
}
