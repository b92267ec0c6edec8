package operations

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthvault/internal/archive"
	"healthvault/internal/dataprocessing"
	apperrors "healthvault/internal/errors"
	"healthvault/internal/security"
	"healthvault/internal/session"
	"healthvault/pkg/contracts/domain"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="en_US">
 <Record type="HKQuantityTypeIdentifierStepCount" startDate="2023-06-15 08:00:00 +0000" value="5000"/>
 <Record type="HKQuantityTypeIdentifierStepCount" startDate="2023-06-15 18:00:00 +0000" value="3000"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" startDate="2023-06-15 08:00:00 +0000" value="72"/>
</HealthData>`

type capturingSink struct {
	events []ProgressEvent
}

func (s *capturingSink) Publish(e ProgressEvent) { s.events = append(s.events, e) }

func newTestIngestor(store *session.Store, sink ProgressSink) *Ingestor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewIngestor(archive.NewExtractor(logger), dataprocessing.NewParser(logger), store, sink, logger)
}

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIngestorRun(t *testing.T) {
	t.Run("zip upload end to end", func(t *testing.T) {
		store := session.NewStore()
		sink := &capturingSink{}
		ing := newTestIngestor(store, sink)

		data := buildZip(t, map[string]string{"apple_health_export/export.xml": sampleExport})
		result, err := ing.Run(context.Background(), "upload.zip", bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)

		require.Len(t, result.Data.Steps, 1)
		assert.Equal(t, 8000.0, result.Data.Steps[0].Value)

		// The session is registered, sealed and decryptable.
		sess, err := store.Get(result.Session.ID)
		require.NoError(t, err)
		assert.True(t, sess.Sealed())

		blob, ok := sess.Blob()
		require.True(t, ok)

		var roundTripped domain.ParsedHealthData
		require.NoError(t, security.DecryptJSON(blob, sess.Key(), &roundTripped))
		assert.Equal(t, result.Data.Steps, roundTripped.Steps)
		assert.Equal(t, result.Data.HeartRate, roundTripped.HeartRate)

		// Every stage reported start and completion.
		stages := make(map[string]bool)
		for _, e := range sink.events {
			if e.Percent == 100 {
				stages[e.Stage] = true
			}
		}
		assert.True(t, stages[StageExtract])
		assert.True(t, stages[StageParse])
		assert.True(t, stages[StageEncrypt])
	})

	t.Run("raw xml upload", func(t *testing.T) {
		store := session.NewStore()
		ing := newTestIngestor(store, nil)

		result, err := ing.Run(context.Background(), "export.xml",
			bytes.NewReader([]byte(sampleExport)), int64(len(sampleExport)))
		require.NoError(t, err)
		assert.Len(t, result.Data.Steps, 1)
	})

	t.Run("unsupported format leaves store empty", func(t *testing.T) {
		store := session.NewStore()
		ing := newTestIngestor(store, nil)

		_, err := ing.Run(context.Background(), "data.pdf", bytes.NewReader([]byte("junk")), 4)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("unreadable document leaves store empty", func(t *testing.T) {
		store := session.NewStore()
		ing := newTestIngestor(store, nil)

		payload := `<HealthData><Record </HealthData`
		_, err := ing.Run(context.Background(), "export.xml", bytes.NewReader([]byte(payload)), int64(len(payload)))
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrParse)
		assert.Equal(t, 0, store.Len())
	})
}

func TestIngestorRunFile(t *testing.T) {
	store := session.NewStore()
	ing := newTestIngestor(store, nil)

	path := filepath.Join(t.TempDir(), "export.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleExport), 0o600))

	result, err := ing.RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "export.xml", result.Session.FileName)
	assert.Len(t, result.Data.Steps, 1)
}

func TestTracker(t *testing.T) {
	tr := NewTracker(StageParse, 4)
	assert.Equal(t, 0.0, tr.Percent())

	tr.Increment()
	tr.Increment()
	assert.Equal(t, 50.0, tr.Percent())

	tr.Set(1)
	assert.Equal(t, 50.0, tr.Percent(), "counts never move backwards")

	tr.Set(4)
	assert.Equal(t, 100.0, tr.Percent())

	e := tr.Event("done")
	assert.Equal(t, StageParse, e.Stage)
	assert.Equal(t, "done", e.Message)

	zero := NewTracker(StageExtract, 0)
	assert.Equal(t, 100.0, zero.Percent())
}
