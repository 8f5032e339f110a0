package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("../../Postopek Prijave (v2).PDF")
	assert.True(t, strings.HasSuffix(key, "-postopek-prijave-v2.pdf"), key)
	assert.NotContains(t, key, "/")

	assert.True(t, strings.HasSuffix(ObjectKey(".pdf"), "-document.pdf"))
	assert.NotEqual(t, ObjectKey("a.txt"), ObjectKey("a.txt"))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	obj, err := s.Put("policy.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), obj.Size)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", obj.Checksum)

	rc, err := s.Open(obj.Key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.Delete(obj.Key))
	_, err = s.Open(obj.Key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(obj.Key), ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
		_, err := s.Open(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
