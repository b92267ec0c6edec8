// Package session holds the per-upload state that crosses the
// core/consumer boundary: the symmetric key and the encrypted payload.
// A Session is an explicit object passed by reference, created when an
// upload succeeds and cleared as an explicit state transition; there is
// no ambient global store.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "healthvault/internal/errors"
	"healthvault/internal/security"
	"healthvault/pkg/contracts/domain"
)

// Session is the volatile state of one protected upload. All state is
// in-memory only; nothing is persisted.
type Session struct {
	ID          string
	FileName    string
	FileSize    int64
	TotalChunks int
	CreatedAt   time.Time

	mu      sync.Mutex
	key     *security.Key
	blob    *domain.EncryptedBlob
	chunks  map[int]domain.EncryptedChunk
	sealed  bool
	cleared bool
}

// New creates a session for an upload.
func New(fileName string, fileSize int64, totalChunks int) *Session {
	return &Session{
		ID:          uuid.New().String(),
		FileName:    fileName,
		FileSize:    fileSize,
		TotalChunks: totalChunks,
		CreatedAt:   time.Now().UTC(),
		chunks:      make(map[int]domain.EncryptedChunk),
	}
}

// AttachKey hands the session its symmetric key.
func (s *Session) AttachKey(key *security.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// Key returns the session key, nil after Clear.
func (s *Session) Key() *security.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// SetBlob stores the single-shot encrypted document.
func (s *Session) SetBlob(blob domain.EncryptedBlob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = &blob
}

// Blob returns the single-shot encrypted document, if any.
func (s *Session) Blob() (domain.EncryptedBlob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return domain.EncryptedBlob{}, false
	}
	return *s.blob, true
}

// AddChunk records one encrypted chunk. A sealed or cleared session
// accepts no more chunks.
func (s *Session) AddChunk(chunk domain.EncryptedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed || s.cleared {
		return apperrors.ErrSessionSealed
	}
	if chunk.Index < 0 || (s.TotalChunks > 0 && chunk.Index >= s.TotalChunks) {
		return fmt.Errorf("chunk index %d out of range", chunk.Index)
	}
	s.chunks[chunk.Index] = chunk
	return nil
}

// Chunks returns the stored chunks in ascending index order.
func (s *Session) Chunks() []domain.EncryptedChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EncryptedChunk, 0, len(s.chunks))
	for i := 0; i < s.TotalChunks; i++ {
		if chunk, ok := s.chunks[i]; ok {
			out = append(out, chunk)
		}
	}
	return out
}

// Complete reports whether every expected chunk has arrived.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks) == s.TotalChunks
}

// Seal closes the session to further chunks.
func (s *Session) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Sealed reports whether the session stopped accepting chunks.
func (s *Session) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Clear wipes the key material and drops the encrypted payload. This is
// the reset/navigation-away transition; the session is dead afterwards.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		s.key.Clear()
		s.key = nil
	}
	s.blob = nil
	s.chunks = make(map[int]domain.EncryptedChunk)
	s.sealed = true
	s.cleared = true
}

// Metadata is the externally visible description of a session.
type Metadata struct {
	UploadID    string    `json:"upload_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	TotalChunks int       `json:"total_chunks"`
	CreatedAt   time.Time `json:"created_at"`
	Sealed      bool      `json:"sealed"`
}

// Metadata returns the session's description.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Metadata{
		UploadID:    s.ID,
		FileName:    s.FileName,
		FileSize:    s.FileSize,
		TotalChunks: s.TotalChunks,
		CreatedAt:   s.CreatedAt,
		Sealed:      s.sealed,
	}
}

// Store keeps live sessions by ID. In-memory only.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put registers a session.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Get looks up a session by ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, id)
	}
	return s, nil
}

// Remove clears a session and drops it from the store.
func (st *Store) Remove(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		s.Clear()
		delete(st.sessions, id)
	}
}

// IDs returns the IDs of all live sessions.
func (st *Store) IDs() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	ids := make([]string, 0, len(st.sessions))
	for id := range st.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
