package security

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sort"

	"healthvault/pkg/contracts/domain"
)

// ChunkSize is the fixed plaintext slice size for chunked encryption:
// 1 MiB. Chunk boundaries are byte-exact slices of the input.
const ChunkSize = 1 << 20

// ProgressFunc receives the percentage of chunks completed, in
// [0, 100]. Calls are monotonically non-decreasing and reach exactly
// 100 only after the final chunk.
type ProgressFunc func(percent float64)

// EncryptChunks splits the input into fixed-size chunks and seals each
// under its own fresh IV. Chunks are processed strictly sequentially by
// index so progress reporting is deterministic; the returned slice is
// already index-ordered.
func EncryptChunks(ctx context.Context, r io.Reader, size int64, key *Key, onProgress ProgressFunc) ([]domain.EncryptedChunk, error) {
	if size < 0 {
		return nil, fmt.Errorf("invalid input size %d", size)
	}

	totalChunks := int((size + ChunkSize - 1) / ChunkSize)
	chunks := make([]domain.EncryptedChunk, 0, totalChunks)
	buf := make([]byte, ChunkSize)

	for i := 0; i < totalChunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		want := ChunkSize
		if remaining := size - int64(i)*ChunkSize; remaining < ChunkSize {
			want = int(remaining)
		}
		if _, err := io.ReadFull(r, buf[:want]); err != nil {
			return nil, fmt.Errorf("failed to read chunk %d: %w", i, err)
		}

		ciphertext, iv, err := Encrypt(buf[:want], key)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt chunk %d: %w", i, err)
		}

		chunks = append(chunks, domain.EncryptedChunk{
			Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
			IV:         base64.StdEncoding.EncodeToString(iv),
			Index:      i,
		})

		if onProgress != nil {
			onProgress(float64(i+1) / float64(totalChunks) * 100)
		}
	}

	return chunks, nil
}

// DecryptChunks reassembles a chunked encryption: chunks are ordered by
// ascending index and their plaintexts concatenated before any further
// interpretation. Any chunk failing authentication aborts the whole
// reassembly.
func DecryptChunks(ctx context.Context, chunks []domain.EncryptedChunk, key *Key) ([]byte, error) {
	ordered := make([]domain.EncryptedChunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var out []byte
	for _, chunk := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ciphertext, err := base64.StdEncoding.DecodeString(chunk.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("bad ciphertext encoding in chunk %d: %w", chunk.Index, err)
		}
		iv, err := base64.StdEncoding.DecodeString(chunk.IV)
		if err != nil {
			return nil, fmt.Errorf("bad iv encoding in chunk %d: %w", chunk.Index, err)
		}

		plaintext, err := Decrypt(ciphertext, iv, key)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
		out = append(out, plaintext...)
	}

	return out, nil
}
