package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ziltek/calcombine/internal/aggregate"
	"github.com/ziltek/calcombine/internal/extract"
	"github.com/ziltek/calcombine/internal/fileid"
	"github.com/ziltek/calcombine/internal/ingest"
	"github.com/ziltek/calcombine/internal/models"
	"github.com/ziltek/calcombine/internal/output"
	"github.com/ziltek/calcombine/internal/report"
	"github.com/ziltek/calcombine/internal/storage"
	"go.uber.org/zap"
)

const (
	uploadDoneMessage   = "Data cleaning and extraction completed"
	uploadFailedMessage = "An error occurred while processing the file. Please check the file format and try again."
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"records": count,
	}
	if s.config != nil {
		resp["addr"] = s.config.Addr()
	}
	if sz, ok := s.store.(interface{ SizeBytes() (int64, error) }); ok {
		if n, err := sz.SizeBytes(); err == nil {
			resp["database_size_bytes"] = n
		}
	}
	if s.combiner != nil {
		artifact, err := output.Stat(s.combiner.OutputPath())
		if err != nil {
			s.logger.Warn("status: stat output failed", zap.Error(err))
		} else {
			resp["output"] = artifact
		}
		resp["sources"] = s.combiner.Sources()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("list records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleReplaceRecords(w http.ResponseWriter, r *http.Request) {
	var records []models.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("replace records request", zap.Int("records", len(records)))
	if err := s.store.ReplaceAll(r.Context(), records); err != nil {
		s.logger.Error("replace records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"records": len(records), "status": "saved"})
}

// handleAddRecord inserts the posted record, or a blank row when the body is empty.
func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var rec models.Record
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &rec); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if err := s.store.Add(r.Context(), &rec); err != nil {
		s.logger.Error("add record failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondStoreError(w, "get record", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var rec models.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec.ID = id
	s.logger.Debug("update record request", zap.String("id", id))
	if err := s.store.Update(r.Context(), &rec); err != nil {
		s.respondStoreError(w, "update record", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete record request", zap.String("id", id))
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondStoreError(w, "delete record", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

type uploadResponse struct {
	Message  string            `json:"message"`
	Filename string            `json:"filename"`
	Type     string            `json:"type"`
	Records  int               `json:"records"`
	Warnings []extract.Warning `json:"warnings,omitempty"`
}

// handleUpload extracts an uploaded workbook and appends its rows to the store.
// No contents yet is a no-op (204), not a failure.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var u ingest.Upload
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.ingestor.Ingest(r.Context(), u, true)
	switch {
	case errors.Is(err, ingest.ErrNoUpload):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, ingest.ErrUploadDecode), errors.Is(err, extract.ErrWorkbookUnreadable):
		s.logger.Warn("upload rejected", zap.String("filename", u.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, uploadFailedMessage)
		return
	case err != nil:
		s.logger.Error("upload failed", zap.String("filename", u.Filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, uploadFailedMessage)
		return
	}
	s.respondJSON(w, http.StatusOK, uploadResponse{
		Message:  uploadDoneMessage,
		Filename: res.Filename,
		Type:     res.Type,
		Records:  len(res.Records),
		Warnings: res.Warnings,
	})
}

type combineResponse struct {
	Skipped  bool              `json:"skipped"`
	Rows     int               `json:"rows"`
	Sheets   int               `json:"sheets"`
	Loaded   bool              `json:"loaded"`
	Output   string            `json:"output"`
	Warnings []extract.Warning `json:"warnings,omitempty"`
}

// handleCombine runs the combiner over the configured sources. With load=true the
// resulting table (or the current artifact, when the run was skipped) replaces the store.
func (s *Server) handleCombine(w http.ResponseWriter, r *http.Request) {
	if s.combiner == nil {
		s.respondError(w, http.StatusNotImplemented, "combine not configured")
		return
	}
	force, err := queryBool(r, "force")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid force parameter")
		return
	}
	load, err := queryBool(r, "load")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid load parameter")
		return
	}
	s.logger.Debug("combine request", zap.Bool("force", force), zap.Bool("load", load))
	res, err := s.combiner.Combine(r.Context(), force)
	switch {
	case errors.Is(err, aggregate.ErrInputNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, extract.ErrWorkbookUnreadable):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.Error("combine failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	table := res.Table
	if load && res.Skipped {
		table, err = output.ReadFile(s.combiner.OutputPath())
		if err != nil {
			s.logger.Error("combine: read output failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	if load {
		fileid.AssignRecordIDs(table)
		if err := s.store.ReplaceAll(r.Context(), table); err != nil {
			s.logger.Error("combine: load records failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	s.respondJSON(w, http.StatusOK, combineResponse{
		Skipped:  res.Skipped,
		Rows:     len(table),
		Sheets:   res.SheetsProcessed,
		Loaded:   load,
		Output:   s.combiner.OutputPath(),
		Warnings: res.Warnings,
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := output.WriteCSV(&buf, records); err != nil {
		s.logger.Error("export failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="combine.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleTestsPerYear(w http.ResponseWriter, r *http.Request) {
	records, ok := s.listForReport(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(report.TestsPerYear(records)))
}

func (s *Server) handleTestsPerMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "year is required")
		return
	}
	records, ok := s.listForReport(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(report.TestsPerMonth(records, year)))
}

func (s *Server) handleMeasurements(w http.ResponseWriter, r *http.Request) {
	records, ok := s.listForReport(w, r)
	if !ok {
		return
	}
	summaries, err := report.Measurements(records)
	if err != nil {
		s.logger.Error("measurements report failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(summaries))
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	records, ok := s.listForReport(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, nonNil(report.Trends(records)))
}

func (s *Server) listForReport(w http.ResponseWriter, r *http.Request) ([]models.Record, bool) {
	records, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("report: list records failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return records, true
}

// nonNil makes empty reports encode as [] rather than null.
func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func queryBool(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (s *Server) respondStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "record not found")
		return
	}
	s.logger.Error(op+" failed", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
		body = []byte(`{"error":"failed to encode response"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
