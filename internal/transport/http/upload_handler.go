package http

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apperrors "healthvault/internal/errors"
	"healthvault/internal/security"
	"healthvault/internal/session"
	"healthvault/pkg/contracts/domain"
)

// UploadHandler serves the chunked protected upload flow: the client
// encrypts its payload in fixed-size chunks under a passphrase-derived
// key and streams them up one by one.
type UploadHandler struct {
	store        *session.Store
	maxChunks    int
	validate     *validator.Validate
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewUploadHandler creates an upload handler.
func NewUploadHandler(store *session.Store, maxChunks int, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		store:        store,
		maxChunks:    maxChunks,
		validate:     validator.New(),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "upload")),
	}
}

// Routes returns the router for upload endpoints.
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/init", h.Init)
	r.Post("/{id}/chunk", h.Chunk)
	r.Post("/{id}/complete", h.Complete)
	r.Get("/{id}", h.Metadata)
	return r
}

// InitRequest starts a chunked upload session.
type InitRequest struct {
	FileName    string `json:"file_name" validate:"required,max=255"`
	FileSize    int64  `json:"file_size" validate:"required,gt=0"`
	TotalChunks int    `json:"total_chunks" validate:"required,gt=0"`
	Passphrase  string `json:"passphrase" validate:"required,min=8"`
}

// InitResponse returns the session ID and the key derivation salt.
type InitResponse struct {
	UploadID string `json:"upload_id"`
	Salt     string `json:"salt"`
}

// Init creates a session and derives the upload key from the supplied
// passphrase. The salt is returned so the client can derive the same
// key locally.
func (h *UploadHandler) Init(w http.ResponseWriter, r *http.Request) {
	var req InitRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}
	if req.TotalChunks > h.maxChunks {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("too many chunks"))
		return
	}

	salt, err := security.NewDeriveSalt()
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewInternalError(err))
		return
	}
	key, err := security.DeriveKey(req.Passphrase, salt)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewInternalError(err))
		return
	}

	sess := session.New(req.FileName, req.FileSize, req.TotalChunks)
	sess.AttachKey(key)
	h.store.Put(sess)

	h.logger.Info("upload session created",
		slog.String("upload_id", sess.ID),
		slog.Int("total_chunks", req.TotalChunks))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, InitResponse{
		UploadID: sess.ID,
		Salt:     base64.StdEncoding.EncodeToString(salt),
	})
}

// ChunkRequest carries one encrypted chunk.
type ChunkRequest struct {
	Index      int    `json:"index" validate:"gte=0"`
	Ciphertext string `json:"ciphertext" validate:"required,base64"`
	IV         string `json:"iv" validate:"required,base64"`
}

// Chunk stores one encrypted chunk on the session.
func (h *UploadHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var req ChunkRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("invalid JSON body"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	chunk := domain.EncryptedChunk{
		Ciphertext: req.Ciphertext,
		IV:         req.IV,
		Index:      req.Index,
	}
	if err := sess.AddChunk(chunk); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"received": req.Index,
		"complete": sess.Complete(),
	})
}

// Complete verifies the upload: every chunk present and every chunk
// authenticating under the session key. On success the session is
// sealed.
func (h *UploadHandler) Complete(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if !sess.Complete() {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("upload incomplete, chunks missing"))
		return
	}

	if _, err := security.DecryptChunks(r.Context(), sess.Chunks(), sess.Key()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sess.Seal()
	h.logger.Info("upload sealed", slog.String("upload_id", sess.ID))
	render.JSON(w, r, sess.Metadata())
}

// Metadata returns the session description.
func (h *UploadHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, sess.Metadata())
}
