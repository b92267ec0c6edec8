package security

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "healthvault/internal/errors"
	"healthvault/pkg/contracts/domain"
)

func TestChunkedRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("multi chunk payload reassembles", func(t *testing.T) {
		// Five whole chunks plus a partial tail.
		payload := make([]byte, 5*ChunkSize+1234)
		_, err := rand.Read(payload)
		require.NoError(t, err)

		chunks, err := EncryptChunks(ctx, bytes.NewReader(payload), int64(len(payload)), key, nil)
		require.NoError(t, err)
		require.Len(t, chunks, 6)

		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index)
		}

		got, err := DecryptChunks(ctx, chunks, key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("out of order chunks reassemble by index", func(t *testing.T) {
		payload := make([]byte, 2*ChunkSize+10)
		_, err := rand.Read(payload)
		require.NoError(t, err)

		chunks, err := EncryptChunks(ctx, bytes.NewReader(payload), int64(len(payload)), key, nil)
		require.NoError(t, err)

		shuffled := []domain.EncryptedChunk{chunks[2], chunks[0], chunks[1]}
		got, err := DecryptChunks(ctx, shuffled, key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("sub chunk payload is one chunk", func(t *testing.T) {
		payload := []byte("tiny")

		chunks, err := EncryptChunks(ctx, bytes.NewReader(payload), int64(len(payload)), key, nil)
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		got, err := DecryptChunks(ctx, chunks, key)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("each chunk has its own iv", func(t *testing.T) {
		payload := make([]byte, 3*ChunkSize)
		chunks, err := EncryptChunks(ctx, bytes.NewReader(payload), int64(len(payload)), key, nil)
		require.NoError(t, err)

		ivs := make(map[string]bool)
		for _, chunk := range chunks {
			require.False(t, ivs[chunk.IV], "iv reused across chunks")
			ivs[chunk.IV] = true
		}
	})
}

func TestChunkedProgress(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	payload := make([]byte, 4*ChunkSize)
	var reported []float64

	_, err = EncryptChunks(context.Background(), bytes.NewReader(payload), int64(len(payload)), key,
		func(percent float64) { reported = append(reported, percent) })
	require.NoError(t, err)

	require.Equal(t, []float64{25, 50, 75, 100}, reported)
}

func TestChunkedFailures(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("tampered chunk aborts reassembly", func(t *testing.T) {
		payload := make([]byte, 2*ChunkSize)
		chunks, err := EncryptChunks(ctx, bytes.NewReader(payload), int64(len(payload)), key, nil)
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(chunks[1].Ciphertext)
		require.NoError(t, err)
		raw[0] ^= 0x01
		chunks[1].Ciphertext = base64.StdEncoding.EncodeToString(raw)

		_, err = DecryptChunks(ctx, chunks, key)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrAuthentication)
	})

	t.Run("canceled context stops encryption", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		payload := make([]byte, ChunkSize)
		_, err := EncryptChunks(canceled, bytes.NewReader(payload), int64(len(payload)), key, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("short reader fails cleanly", func(t *testing.T) {
		_, err := EncryptChunks(ctx, bytes.NewReader([]byte("abc")), 100, key, nil)
		require.Error(t, err)
	})
}
