package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hyperjump/tablekit/internal/cli"
	"github.com/hyperjump/tablekit/internal/export"
	"github.com/hyperjump/tablekit/internal/reader"
	"github.com/hyperjump/tablekit/internal/suggest"
	"github.com/hyperjump/tablekit/internal/textenc"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// multipartMemory is how much of an upload is buffered before spilling to disk.
const multipartMemory = 8 << 20

var contentTypes = map[string]string{
	export.MethodCSV:         "text/csv; charset=utf-8",
	export.MethodJSON:        "application/json",
	export.MethodJSONL:       "application/x-ndjson",
	export.MethodExcel:       "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	export.MethodExcelSheets: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// upload is a received file stored under a unique temporary name.
type upload struct {
	path string
	// name is the client's file name, used in responses and output names.
	name string
}

func (u *upload) remove() {
	_ = os.Remove(u.path)
}

// receive stores the multipart "file" field in the temp dir. The stored name
// keeps the full extension, compression suffix included, so the factory picks
// the same reader the client's file name implies.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) (*upload, int, error) {
	limit := int64(s.config.Server.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d MB", s.config.Server.MaxUploadMB)
		}
		return nil, http.StatusBadRequest, errors.New("invalid multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("file is required")
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !s.factory.Supports(name) {
		return nil, http.StatusUnsupportedMediaType, fmt.Errorf("%w: %s", reader.ErrUnsupportedExtension, name)
	}
	suffix := strings.TrimPrefix(name, textenc.Stem(name))
	path := filepath.Join(os.TempDir(), "tablekit-"+uuid.NewString()+suffix)

	out, err := os.Create(path)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(path)
		return nil, http.StatusInternalServerError, err
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return nil, http.StatusInternalServerError, err
	}
	s.logger.Debug("upload stored", zap.String("name", name), zap.String("path", path), zap.Int64("size", header.Size))
	return &upload{path: path, name: name}, http.StatusOK, nil
}

// readOptions applies the query parameters to a copy of the server's read options.
func (s *Server) readOptions(r *http.Request) (reader.ReadOptions, error) {
	opts := s.opts
	q := r.URL.Query()
	ints := map[string]*int{
		"sheet_index": &opts.SheetIndex,
		"table":       &opts.TableIndex,
		"skip_rows":   &opts.SkipRows,
	}
	for key, dst := range ints {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return opts, fmt.Errorf("invalid %s: %q", key, v)
			}
			*dst = n
		}
	}
	bools := map[string]*bool{
		"lines":             &opts.Lines,
		"detect_header":     &opts.DetectHeader,
		"capture_bad_lines": &opts.CaptureBadLines,
		"normalize_values":  &opts.Normalize,
	}
	for key, dst := range bools {
		if v := q.Get(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, fmt.Errorf("invalid %s: %q", key, v)
			}
			*dst = b
		}
	}
	if v := q.Get("sheet"); v != "" {
		opts.Sheet = v
	}
	if v := q.Get("orient"); v != "" {
		opts.Orient = v
	}
	return opts, nil
}

// readUpload receives the upload and reads it, writing the error response on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*reader.Result, *upload, bool) {
	opts, err := s.readOptions(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	up, status, err := s.receive(w, r)
	if err != nil {
		s.respondError(w, status, err.Error())
		return nil, nil, false
	}
	defer up.remove()

	res, err := s.factory.Read(up.path, opts)
	if err != nil {
		s.logger.Warn("read failed", zap.String("name", up.name), zap.Error(err))
		s.respondError(w, readStatus(err), strings.ReplaceAll(err.Error(), up.path, up.name))
		return nil, nil, false
	}
	res.Path = up.name
	return res, up, true
}

func readStatus(err error) int {
	switch {
	case errors.Is(err, reader.ErrUnsupportedExtension):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, reader.ErrUnsupportedEncoding),
		errors.Is(err, reader.ErrUnsupportedStructure),
		errors.Is(err, reader.ErrEmptyTable):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	preview := cli.DefaultPreviewRows
	if v := r.URL.Query().Get("preview"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid preview: %q", v))
			return
		}
		preview = n
	}
	res, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := cli.WriteResult(w, res, cli.OutputJSON, preview); err != nil {
		s.logger.Error("write response failed", zap.Error(err))
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	method := strings.ToLower(r.URL.Query().Get("method"))
	if method == "" {
		method = s.config.Export.Method
	}
	if !knownMethod(method) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("%v: %q%s", export.ErrUnknownMethod, method, suggest.Hint(method, export.Methods())))
		return
	}
	res, up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	dir, err := os.MkdirTemp("", "tablekit-convert-")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.RemoveAll(dir)

	exp, err := export.New(dir, export.WithLogger(s.logger))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := cli.OutputName(textenc.Stem(up.name), method)
	paths, err := exp.Export(res.Table, method, cli.ExportOptions(s.config, name))
	if err != nil {
		s.logger.Error("convert failed", zap.String("name", up.name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(paths) != 1 {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("method %s wrote %d files; use excel_sheets for a single workbook", method, len(paths)))
		return
	}

	f, err := os.Open(paths[0])
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	ct, ok := contentTypes[method]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(paths[0])))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Error("write response failed", zap.Error(err))
	}
}

func knownMethod(method string) bool {
	for _, m := range export.Methods() {
		if m == method {
			return true
		}
	}
	return false
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string][]string{
		"extensions":  s.factory.SupportedExtensions(),
		"compression": {".gz", ".zst", ".xz"},
		"methods":     export.Methods(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
