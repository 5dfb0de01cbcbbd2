// Package ingest turns uploaded workbooks into stored calibration records.
package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ziltek/calcombine/internal/extract"
	"github.com/ziltek/calcombine/internal/fileid"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/storage"
	"go.uber.org/zap"
)

var (
	// ErrNoUpload means there is nothing to ingest yet. It is a no-op signal, not a failure.
	ErrNoUpload = errors.New("no upload")
	// ErrUploadDecode is returned when the upload payload is not valid base64.
	ErrUploadDecode = errors.New("upload decode failed")
)

// Upload is a workbook sent by a client, typically from a browser file picker.
type Upload struct {
	Filename string `json:"filename"`
	// Type is the source type tag; when empty it is taken from Filename.
	Type string `json:"type"`
	// Contents is a data URL ("data:<mime>;base64,<payload>") or bare base64.
	Contents string `json:"contents"`
}

// DecodeUpload returns the bytes carried by contents.
func DecodeUpload(contents string) ([]byte, error) {
	contents = strings.TrimSpace(contents)
	if contents == "" {
		return nil, ErrNoUpload
	}
	payload := contents
	if strings.HasPrefix(contents, "data:") {
		i := strings.IndexByte(contents, ',')
		if i < 0 {
			return nil, fmt.Errorf("%w: data URL without payload", ErrUploadDecode)
		}
		if !strings.HasSuffix(contents[:i], ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64", ErrUploadDecode)
		}
		payload = contents[i+1:]
	}
	if payload == "" {
		return nil, ErrNoUpload
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients strip the padding.
		if data, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); rawErr == nil {
			return data, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUploadDecode, err)
	}
	return data, nil
}

// Ingestor extracts uploaded workbooks and optionally appends their rows to a store.
type Ingestor struct {
	extractor *extract.Extractor
	store     storage.Store
	logger    *zap.Logger
}

// NewIngestor returns an Ingestor. store may be nil when records are only returned.
func NewIngestor(ext *extract.Extractor, store storage.Store, logger *zap.Logger) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{extractor: ext, store: store, logger: logger}
}

// Result is the outcome of one ingestion.
type Result struct {
	Filename string            `json:"filename"`
	Type     string            `json:"type"`
	Records  []models.Record   `json:"records"`
	Warnings []extract.Warning `json:"warnings,omitempty"`
}

// Ingest decodes u, extracts one record per sheet and, when appendRows is set, appends the
// records to the store. Nothing is stored unless every step succeeds. Record IDs are derived
// from the file name, source type and sheet name, so uploading the same workbook twice
// updates its rows while a different workbook with matching sheet names adds new ones.
func (in *Ingestor) Ingest(ctx context.Context, u Upload, appendRows bool) (*Result, error) {
	data, err := DecodeUpload(u.Contents)
	if err != nil {
		return nil, err
	}
	typ := u.Type
	if typ == "" {
		typ = models.SourceTypeFromFilename(u.Filename)
	}
	if err := checkWorkbook(data); err != nil {
		return nil, fmt.Errorf("%s: %w", u.Filename, err)
	}
	sheets, err := in.extractor.ExtractBytes(data, typ)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Filename, err)
	}
	res := &Result{Filename: u.Filename, Type: typ, Records: make([]models.Record, 0, len(sheets))}
	for _, sr := range sheets {
		res.Records = append(res.Records, sr.Record)
		for _, d := range sr.Duplicates {
			res.Warnings = append(res.Warnings, extract.DuplicateWarning(u.Filename, sr.Sheet, d))
		}
	}
	fileid.AssignScopedRecordIDs(filepath.Base(u.Filename), res.Records)

	if appendRows && in.store != nil {
		if err := in.store.Append(ctx, res.Records); err != nil {
			return nil, fmt.Errorf("append records: %w", err)
		}
	}
	in.logger.Info("upload ingested",
		zap.String("filename", u.Filename),
		zap.String("type", typ),
		zap.Int("records", len(res.Records)),
		zap.Bool("appended", appendRows && in.store != nil))
	return res, nil
}
