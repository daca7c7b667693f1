package history

import (
	"context"
	"image"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectArrayRoundTrip(t *testing.T) {
	r := image.Rect(180, 160, 820, 640)
	assert.Equal(t, []int32{180, 160, 820, 640}, rectToArray(r))
	assert.Equal(t, r, arrayToRect(rectToArray(r)))
	assert.True(t, arrayToRect([]int32{1, 2}).Empty())
}

// TestStoreIntegration needs a reachable PostgreSQL in DATABASE_URL.
func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	s, err := New(ctx, url)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))
	s.Close(ctx)

	s, err = New(ctx, url)
	require.NoError(t, err)
	defer s.Close(ctx)

	id, err := s.Record(ctx, Entry{
		ImagePath:   "/tmp/in.jpg",
		Target:      "/tmp/out.jpg",
		Crop:        image.Rect(10, 20, 110, 120),
		Faces:       2,
		Orientation: 90,
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/tmp/out.jpg", entries[0].Target)
	assert.Equal(t, image.Rect(10, 20, 110, 120), entries[0].Crop)
	assert.Equal(t, 90, entries[0].Orientation)
}
