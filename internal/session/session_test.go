package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "healthvault/internal/errors"
	"healthvault/internal/security"
	"healthvault/pkg/contracts/domain"
)

func TestSessionLifecycle(t *testing.T) {
	t.Run("new session has identity and no payload", func(t *testing.T) {
		s := New("export.zip", 1024, 3)
		assert.NotEmpty(t, s.ID)
		assert.Nil(t, s.Key())
		_, ok := s.Blob()
		assert.False(t, ok)
		assert.False(t, s.Complete())
	})

	t.Run("blob round trip", func(t *testing.T) {
		s := New("export.xml", 10, 1)
		blob := domain.EncryptedBlob{Ciphertext: "Y3Q=", IV: "aXY="}
		s.SetBlob(blob)

		got, ok := s.Blob()
		require.True(t, ok)
		assert.Equal(t, blob, got)
	})

	t.Run("clear wipes key and payload", func(t *testing.T) {
		key, err := security.GenerateKey()
		require.NoError(t, err)

		s := New("export.xml", 10, 1)
		s.AttachKey(key)
		s.SetBlob(domain.EncryptedBlob{Ciphertext: "Y3Q=", IV: "aXY="})

		s.Clear()
		assert.Nil(t, s.Key())
		_, ok := s.Blob()
		assert.False(t, ok)

		// The key material itself is dead, not just the reference.
		_, _, err = security.Encrypt([]byte("x"), key)
		assert.Error(t, err)
	})
}

func TestSessionChunks(t *testing.T) {
	chunk := func(i int) domain.EncryptedChunk {
		return domain.EncryptedChunk{Ciphertext: "Y3Q=", IV: "aXY=", Index: i}
	}

	t.Run("complete when all chunks arrive", func(t *testing.T) {
		s := New("export.zip", 100, 3)
		require.NoError(t, s.AddChunk(chunk(0)))
		assert.False(t, s.Complete())
		require.NoError(t, s.AddChunk(chunk(2)))
		require.NoError(t, s.AddChunk(chunk(1)))
		assert.True(t, s.Complete())

		got := s.Chunks()
		require.Len(t, got, 3)
		for i, c := range got {
			assert.Equal(t, i, c.Index)
		}
	})

	t.Run("out of range index rejected", func(t *testing.T) {
		s := New("export.zip", 100, 2)
		assert.Error(t, s.AddChunk(chunk(5)))
		assert.Error(t, s.AddChunk(chunk(-1)))
	})

	t.Run("sealed session rejects chunks", func(t *testing.T) {
		s := New("export.zip", 100, 2)
		s.Seal()
		err := s.AddChunk(chunk(0))
		assert.ErrorIs(t, err, apperrors.ErrSessionSealed)
	})

	t.Run("duplicate index overwrites", func(t *testing.T) {
		s := New("export.zip", 100, 1)
		require.NoError(t, s.AddChunk(chunk(0)))
		replacement := domain.EncryptedChunk{Ciphertext: "b3RoZXI=", IV: "aXY=", Index: 0}
		require.NoError(t, s.AddChunk(replacement))

		got := s.Chunks()
		require.Len(t, got, 1)
		assert.Equal(t, "b3RoZXI=", got[0].Ciphertext)
	})
}

func TestStore(t *testing.T) {
	t.Run("put and get", func(t *testing.T) {
		st := NewStore()
		s := New("export.xml", 10, 1)
		st.Put(s)

		got, err := st.Get(s.ID)
		require.NoError(t, err)
		assert.Same(t, s, got)
		assert.Equal(t, 1, st.Len())
	})

	t.Run("unknown id", func(t *testing.T) {
		st := NewStore()
		_, err := st.Get("missing")
		assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("remove clears the session", func(t *testing.T) {
		key, err := security.GenerateKey()
		require.NoError(t, err)

		st := NewStore()
		s := New("export.xml", 10, 1)
		s.AttachKey(key)
		st.Put(s)

		st.Remove(s.ID)
		assert.Equal(t, 0, st.Len())
		assert.Nil(t, s.Key())

		_, err = st.Get(s.ID)
		assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("ids lists live sessions", func(t *testing.T) {
		st := NewStore()
		a := New("a.xml", 1, 1)
		b := New("b.xml", 1, 1)
		st.Put(a)
		st.Put(b)

		ids := st.IDs()
		assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
	})
}
