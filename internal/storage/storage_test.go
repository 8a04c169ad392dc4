package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	n, err := s.Put(ctx, "rates/USD/2024/03/14/100000.json", "application/json", strings.NewReader(`{"base":"USD"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)

	rc, err := s.Get(ctx, "rates/USD/2024/03/14/100000.json")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, `{"base":"USD"}`, string(body))

	require.NoError(t, s.Delete(ctx, "rates/USD/2024/03/14/100000.json"))
	require.NoError(t, s.Delete(ctx, "rates/USD/2024/03/14/100000.json"), "deleting twice is fine")

	_, err = s.Get(ctx, "rates/USD/2024/03/14/100000.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsEscapingNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.json", "/etc/passwd", "."} {
		_, err := s.Put(context.Background(), name, "application/json", strings.NewReader("{}"))
		assert.Error(t, err, name)
	}
}
