package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/benjaminschreck/docfill/pkg/docfill"
	"github.com/benjaminschreck/docfill/pkg/docfill/datamodel"
)

// handleFill fills an uploaded template. The multipart form carries
//
//	template  the template file (required)
//	format    the template format, when the file name does not tell
//	model     a model file (json, yaml or cbor) or a JSON model as a field
//	schema    an optional JSON Schema the model must satisfy
func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	tmpl, status, err := s.readTemplate(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	model, status, err := s.readModel(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	var out bytes.Buffer
	if err := s.engine.Fill(r.Context(), tmpl, model, &out); err != nil {
		s.log.Warn("fill failed", "template", tmpl.Name, "error", err)
		jsonError(w, err.Error(), fillStatus(err))
		return
	}

	w.Header().Set("Content-Type", tmpl.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(tmpl)))
	w.Write(out.Bytes())
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	tmpl, status, err := s.readTemplate(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	report, err := s.engine.Inspect(tmpl)
	if report == nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"report": report,
		"valid":  err == nil,
	})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"templates": s.engine.Templates(),
	})
}

// handleRegisterTemplate makes the uploaded template importable under the
// name in the URL.
func (s *Server) handleRegisterTemplate(w http.ResponseWriter, r *http.Request) {
	if !s.parseForm(w, r) {
		return
	}
	defer r.MultipartForm.RemoveAll()

	name := chi.URLParam(r, "name")
	tmpl, status, err := s.readTemplate(r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	if err := s.engine.RegisterTemplate(name, tmpl); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Info("template registered", "name", name, "format", tmpl.Format)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"name":   name,
		"format": tmpl.Format,
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	type format struct {
		Name        docfill.Format `json:"name"`
		ContentType string         `json:"content_type"`
	}
	formats := make([]format, 0, len(docfill.Formats))
	for _, f := range docfill.Formats {
		formats = append(formats, format{Name: f, ContentType: f.ContentType()})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"formats": formats})
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	// Limit total request size; the extra MB covers form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.opts.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) readTemplate(r *http.Request) (*docfill.Template, int, error) {
	file, header, err := r.FormFile("template")
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("template is required: %w", err)
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	var format docfill.Format
	if v := r.FormValue("format"); v != "" {
		format, err = docfill.ParseFormat(v)
	} else {
		format, err = docfill.FormatFromPath(name)
	}
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	data, status, err := s.readFile(file)
	if err != nil {
		return nil, status, err
	}
	tmpl, err := docfill.ParseTemplate(name, format, data)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	return tmpl, 0, nil
}

func (s *Server) readModel(r *http.Request) (*datamodel.Node, int, error) {
	var (
		model *datamodel.Node
		err   error
	)
	if file, header, ferr := r.FormFile("model"); ferr == nil {
		defer file.Close()
		data, status, err := s.readFile(file)
		if err != nil {
			return nil, status, err
		}
		model, err = datamodel.Decode(bytes.NewReader(data), datamodel.FormatFromPath(header.Filename))
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid model: %w", err)
		}
	} else if v := r.FormValue("model"); strings.TrimSpace(v) != "" {
		model, err = datamodel.DecodeJSON(strings.NewReader(v))
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid model: %w", err)
		}
	} else {
		model = datamodel.NewMap()
	}

	if file, _, ferr := r.FormFile("schema"); ferr == nil {
		defer file.Close()
		schema, status, err := s.readFile(file)
		if err != nil {
			return nil, status, err
		}
		if err := datamodel.ValidateSchema(schema, model); err != nil {
			return nil, http.StatusUnprocessableEntity, fmt.Errorf("model does not match schema: %w", err)
		}
	}
	return model, 0, nil
}

func (s *Server) readFile(file multipart.File) ([]byte, int, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to read upload")
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.opts.MaxUploadBytes)
	}
	return data, 0, nil
}

// fillStatus maps fill errors to HTTP status codes: problems in the
// template or model are the client's, everything else is ours.
func fillStatus(err error) int {
	switch {
	case docfill.IsConfigError(err), docfill.IsMissingValueError(err), docfill.IsUnclaimedError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case docfill.IsDocumentError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func outputName(t *docfill.Template) string {
	ext := filepath.Ext(t.Name)
	base := strings.TrimSuffix(t.Name, ext)
	if t.Format == docfill.FormatMarkdown {
		ext = ".html"
	}
	return base + "-filled" + ext
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
