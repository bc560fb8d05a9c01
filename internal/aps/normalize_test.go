package aps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestNormalize_EnvelopeShapes(t *testing.T) {
	logger := arbor.NewLogger()

	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{
			name:    "bare array",
			body:    `[{"id":"a"},{"id":"b"}]`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "results envelope",
			body:    `{"results":[{"id":"a"},{"id":"b"}]}`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "data envelope",
			body:    `{"data":[{"id":"a"}]}`,
			wantIDs: []string{"a"},
		},
		{
			name:    "empty results falls back to data",
			body:    `{"results":[],"data":[{"id":"a"},{"id":"b"}]}`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "single record with id and attributes",
			body:    `{"id":"solo","attributes":{"title":"One"}}`,
			wantIDs: []string{"solo"},
		},
		{
			name:    "empty results and no data",
			body:    `{"results":[]}`,
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Normalize([]byte(tt.body), logger)
			require.NoError(t, err)
			require.Len(t, records, len(tt.wantIDs))
			for i, want := range tt.wantIDs {
				assert.Equal(t, want, records[i]["id"])
			}
		})
	}
}

func TestNormalize_ErrorShapes(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("bare string is an upstream error", func(t *testing.T) {
		_, err := Normalize([]byte(`"quota exceeded"`), logger)
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "quota exceeded", upstream.Message)
	})

	t.Run("error-only object is an upstream error", func(t *testing.T) {
		_, err := Normalize([]byte(`{"error":"token expired"}`), logger)
		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, "token expired", upstream.Message)
	})

	t.Run("unrecognized object is a shape error", func(t *testing.T) {
		_, err := Normalize([]byte(`{"unexpected":true}`), logger)
		var shape *ShapeError
		assert.ErrorAs(t, err, &shape)
	})

	t.Run("scalar body is a shape error", func(t *testing.T) {
		_, err := Normalize([]byte(`42`), logger)
		var shape *ShapeError
		assert.ErrorAs(t, err, &shape)
	})

	t.Run("invalid JSON is a shape error", func(t *testing.T) {
		_, err := Normalize([]byte(`{not json`), logger)
		var shape *ShapeError
		assert.ErrorAs(t, err, &shape)
	})

	t.Run("object with data takes priority over error key", func(t *testing.T) {
		records, err := Normalize([]byte(`{"data":[{"id":"a"}],"error":"ignored"}`), logger)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("error key alongside other keys is not an upstream error", func(t *testing.T) {
		_, err := Normalize([]byte(`{"error":"x","extra":1}`), logger)
		var upstream *UpstreamError
		assert.False(t, errors.As(err, &upstream))
	})
}

func TestNormalize_SkipsMalformedItems(t *testing.T) {
	logger := arbor.NewLogger()

	body := `{"results":[{"id":"keep"},"not an object",{"title":"no id"},{"id":""},{"id":123,"title":"numeric id"}]}`
	records, err := Normalize([]byte(body), logger)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "keep", records[0]["id"])
	assert.Equal(t, float64(123), records[1]["id"])
}
