package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "healthvault/internal/errors"
	"healthvault/internal/exporter"
	"healthvault/internal/middleware"
	"healthvault/internal/operations"
	"healthvault/internal/security"
	"healthvault/internal/session"
	"healthvault/pkg/contracts/domain"
)

// DataHandler serves archive ingest, summaries and exports.
type DataHandler struct {
	ingestor     *operations.Ingestor
	store        *session.Store
	exportDir    string
	maxFileSize  int64
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewDataHandler creates a data handler.
func NewDataHandler(ingestor *operations.Ingestor, store *session.Store, exportDir string, maxFileSize int64, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		ingestor:     ingestor,
		store:        store,
		exportDir:    exportDir,
		maxFileSize:  maxFileSize,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "data")),
	}
}

// Routes returns the router for data endpoints.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/ingest", h.Ingest)
	r.Get("/data/{id}", h.Metadata)
	r.Get("/data/{id}/summary", h.Summary)
	r.Get("/data/{id}/export", h.Export)
	r.Delete("/data/{id}", h.Clear)
	return r
}

// IngestResponse is returned after a successful ingest.
type IngestResponse struct {
	UploadID string           `json:"upload_id"`
	Metadata session.Metadata `json:"metadata"`
	Counts   RecordCounts     `json:"counts"`
	Profile  *ProfileView     `json:"profile,omitempty"`
}

// RecordCounts summarizes how many records each series produced.
type RecordCounts struct {
	Steps         int `json:"steps"`
	HeartRate     int `json:"heart_rate"`
	ActiveEnergy  int `json:"active_energy"`
	RestingEnergy int `json:"resting_energy"`
	Sleep         int `json:"sleep"`
	Workouts      int `json:"workouts"`
}

// ProfileView is the export-facing shape of the parsed profile.
type ProfileView struct {
	Name          string `json:"name,omitempty"`
	Age           int    `json:"age,omitempty"`
	BiologicalSex string `json:"biological_sex,omitempty"`
	BloodType     string `json:"blood_type,omitempty"`
	SkinType      int    `json:"skin_type,omitempty"`
}

// Ingest accepts a multipart upload of an export archive (or bare
// XML), runs the pipeline and returns the session metadata.
func (h *DataHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("multipart form required"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("file field is required"))
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		h.errorHandler.HandleError(w, r,
			apperrors.NewValidationError(fmt.Sprintf("file exceeds %d byte limit", h.maxFileSize)))
		return
	}

	result, err := h.ingestor.Run(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		middleware.ObserveIngest("error", time.Since(start))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	middleware.ObserveIngest("success", time.Since(start))

	resp := IngestResponse{
		UploadID: result.Session.ID,
		Metadata: result.Session.Metadata(),
		Counts: RecordCounts{
			Steps:         len(result.Data.Steps),
			HeartRate:     len(result.Data.HeartRate),
			ActiveEnergy:  len(result.Data.ActiveEnergy),
			RestingEnergy: len(result.Data.RestingEnergy),
			Sleep:         len(result.Data.Sleep),
			Workouts:      len(result.Data.Workouts),
		},
	}
	if p := result.Data.UserInfo; p != nil {
		resp.Profile = &ProfileView{
			Name:          p.Name,
			Age:           p.Age,
			BiologicalSex: string(p.BiologicalSex),
			BloodType:     string(p.BloodType),
			SkinType:      p.SkinType,
		}
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// Metadata returns the session description for an upload.
func (h *DataHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, sess.Metadata())
}

// Summary decrypts the stored document and returns an aggregated
// summary for one metric at the requested granularity.
func (h *DataHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.decryptData(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	metric := r.URL.Query().Get("metric")
	series, err := seriesForMetric(data, metric)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	granularity := domain.Granularity(r.URL.Query().Get("granularity"))
	if granularity == "" {
		granularity = domain.GranularityDaily
	}

	summary, err := seriesSummary(series, granularity)
	if err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"metric":      metric,
		"granularity": granularity,
		"summary":     summary,
	})
}

// Export writes the decrypted series to CSV or XLSX files on disk and
// streams the workbook (or reports the CSV directory).
func (h *DataHandler) Export(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.decryptData(r.Context(), sess)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}

	dir := filepath.Join(h.exportDir, sess.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.errorHandler.HandleError(w, r, apperrors.NewInternalError(err))
		return
	}

	switch format {
	case "csv":
		writer := exporter.NewCSVWriter(h.logger)
		if err := writer.WriteAll(data, dir); err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewInternalError(err))
			return
		}
		render.JSON(w, r, map[string]string{"dir": dir})

	case "xlsx":
		path := filepath.Join(dir, "health_export.xlsx")
		writer := exporter.NewWorkbookWriter(h.logger)
		if err := writer.Write(data, path); err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewInternalError(err))
			return
		}

		f, err := os.Open(path)
		if err != nil {
			h.errorHandler.HandleError(w, r, apperrors.NewInternalError(err))
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="health_export.xlsx"`)
		io.Copy(w, f)

	default:
		h.errorHandler.HandleError(w, r, apperrors.NewValidationError("format must be csv or xlsx"))
	}
}

// Clear wipes the session key and payload and removes the session.
func (h *DataHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.store.Get(id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.store.Remove(id)
	render.NoContent(w, r)
}

func (h *DataHandler) decryptData(ctx context.Context, sess *session.Session) (*domain.ParsedHealthData, error) {
	key := sess.Key()
	if key == nil {
		return nil, apperrors.ErrSessionNotFound
	}

	var data domain.ParsedHealthData
	if blob, ok := sess.Blob(); ok {
		if err := security.DecryptJSON(blob, key, &data); err != nil {
			return nil, err
		}
		return &data, nil
	}

	plaintext, err := security.DecryptChunks(ctx, sess.Chunks(), key)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDeserialization, err)
	}
	return &data, nil
}
