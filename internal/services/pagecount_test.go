package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountPages(t *testing.T) {
	n, err := countPages(samplePDF())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountPagesMalformed(t *testing.T) {
	data := samplePDF()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "header only", data: data[:9]},
		{name: "cut inside first object", data: data[:120]},
		{name: "garbage", data: []byte("%PDF-1.4\n(unterminated string")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = countPages(tt.data) })
			assert.Error(t, err)
		})
	}
}
