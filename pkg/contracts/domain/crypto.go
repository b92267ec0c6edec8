package domain

// EncryptedBlob is a single-shot authenticated encryption result.
// Ciphertext carries the GCM tag; IV is always exactly 12 bytes before
// encoding. Both fields are standard base64.
type EncryptedBlob struct {
	Ciphertext string `json:"ciphertext" validate:"required,base64"`
	IV         string `json:"iv" validate:"required,base64"`
}

// EncryptedChunk is one fixed-size slice of a chunked encryption.
// Index is the chunk ordinal; reassembly concatenates plaintexts in
// ascending index order before any further interpretation.
type EncryptedChunk struct {
	Ciphertext string `json:"ciphertext" validate:"required,base64"`
	IV         string `json:"iv" validate:"required,base64"`
	Index      int    `json:"index" validate:"min=0"`
}
