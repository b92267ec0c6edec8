// Package archive extracts the single XML payload from an uploaded
// health export, either a raw .xml file or a .zip archive container.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "healthvault/internal/errors"
)

const (
	// PayloadName is the well-known payload filename inside an export archive.
	PayloadName = "export.xml"

	// PayloadFolder is the well-known subfolder the vendor nests the payload under.
	PayloadFolder = "apple_health_export"
)

// rootMarkers are the accepted openings of a raw payload, checked after
// leading whitespace is trimmed.
var rootMarkers = []string{"<?xml", "<HealthData"}

// Extractor resolves an uploaded file into its raw payload text.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With(slog.String("component", "archive"))}
}

// Extract returns the payload text for the named input. The reader must
// cover the full content; no handles are retained after returning.
func (e *Extractor) Extract(name string, r io.ReaderAt, size int64) (string, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(name), ".xml"):
		return e.extractRaw(r, size)
	case strings.HasSuffix(strings.ToLower(name), ".zip"):
		return e.extractZip(r, size)
	default:
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ExtractFile is a path convenience over Extract.
func (e *Extractor) ExtractFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	return e.Extract(info.Name(), f, info.Size())
}

func (e *Extractor) extractRaw(r io.ReaderAt, size int64) (string, error) {
	text, err := readAll(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}

	if !hasRootMarker(text) {
		return "", apperrors.ErrInvalidPayload
	}
	return text, nil
}

// lookup is a single archive search strategy: the payload entry or nil.
type lookup func(zr *zip.Reader) *zip.File

// lookups are tried in order; first match wins. Keeping them as an
// explicit list makes the precedence testable on its own.
var lookups = []lookup{
	func(zr *zip.Reader) *zip.File { return entryByName(zr, PayloadName) },
	func(zr *zip.Reader) *zip.File {
		return entryByName(zr, PayloadFolder+"/"+PayloadName)
	},
	func(zr *zip.Reader) *zip.File {
		for _, f := range zr.File {
			if strings.HasSuffix(f.Name, PayloadName) {
				return f
			}
		}
		return nil
	},
}

func (e *Extractor) extractZip(r io.ReaderAt, size int64) (string, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrUnsupportedFormat, err)
	}

	for _, find := range lookups {
		entry := find(zr)
		if entry == nil {
			continue
		}

		e.logger.Debug("payload entry located",
			slog.String("entry", entry.Name),
			slog.Uint64("size", entry.UncompressedSize64))

		rc, err := entry.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read archive entry %s: %w", entry.Name, err)
		}
		return string(data), nil
	}

	return "", apperrors.ErrPayloadNotFound
}

func entryByName(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func hasRootMarker(text string) bool {
	trimmed := strings.TrimLeft(text, " \t\r\n")
	for _, marker := range rootMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

func readAll(r io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(r, 0, size), buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
