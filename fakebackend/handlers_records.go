package fakebackend

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-partner-portal/internal/utils"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxUploadSize   = 32 << 20
)

type page struct {
	Count    int      `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []record `json:"results"`
}

// ListHandler serves a paginated collection. Query parameters other than
// page and page_size filter on exact field values.
func (s *Server) ListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, ok := collectionName(w, r)
		if !ok {
			return
		}
		query := r.URL.Query()
		pageNum := queryInt(query, "page", 1)
		pageSize := min(queryInt(query, "page_size", defaultPageSize), maxPageSize)

		matched := make([]record, 0)
		for _, rec := range s.records.List(collection) {
			if matchesFilters(rec, query) {
				matched = append(matched, rec)
			}
		}

		start := min((pageNum-1)*pageSize, len(matched))
		end := min(start+pageSize, len(matched))
		p := page{Count: len(matched), Results: matched[start:end]}
		if end < len(matched) {
			p.Next = utils.Ptr(pageURL(r, pageNum+1))
		}
		if pageNum > 1 {
			p.Previous = utils.Ptr(pageURL(r, pageNum-1))
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) CreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, ok := collectionName(w, r)
		if !ok {
			return
		}
		fields, ok := decodeRecord(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusCreated, s.records.Create(collection, fields))
	}
}

func (s *Server) RetrieveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, ok := collectionName(w, r)
		if !ok {
			return
		}
		rec, err := s.records.Get(collection, pathID(r))
		if err != nil {
			writeDetail(w, http.StatusNotFound, "No "+collection+" matches the given query.")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) UpdateHandler(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, ok := collectionName(w, r)
		if !ok {
			return
		}
		fields, ok := decodeRecord(w, r)
		if !ok {
			return
		}
		rec, err := s.records.Update(collection, pathID(r), fields, partial)
		if err != nil {
			writeDetail(w, http.StatusNotFound, "No "+collection+" matches the given query.")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) DestroyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collection, ok := collectionName(w, r)
		if !ok {
			return
		}
		if err := s.records.Delete(collection, pathID(r)); err != nil {
			writeDetail(w, http.StatusNotFound, "No "+collection+" matches the given query.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UploadDocumentHandler stores the multipart "file" part as a document.
func (s *Server) UploadDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeDetail(w, http.StatusBadRequest, "Multipart form parse error")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"file": []string{"No file was submitted."}})
			return
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "Could not read file")
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fields := record{
			"name":         header.Filename,
			"content_type": contentType,
			"size":         len(content),
			"uploaded_by":  currentUser(r).ID,
		}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				fields[key] = formValue(values[0])
			}
		}

		rec := s.records.CreateFile(fields, storedFile{name: header.Filename, contentType: contentType, content: content})
		writeJSON(w, http.StatusCreated, rec)
	}
}

func (s *Server) DownloadDocumentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := s.records.File(pathID(r))
		if err != nil {
			writeDetail(w, http.StatusNotFound, "No documents matches the given query.")
			return
		}
		writeAttachment(w, f.contentType, f.name, f.content)
	}
}

// ExportReportHandler renders the named collection as CSV.
func (s *Server) ExportReportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		rows := make([]record, 0)
		for _, rec := range s.records.List(name) {
			if matchesFilters(rec, r.URL.Query()) {
				rows = append(rows, rec)
			}
		}

		columns := csvColumns(rows)
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		_ = cw.Write(columns)
		for _, rec := range rows {
			line := make([]string, len(columns))
			for i, col := range columns {
				if v, ok := rec[col]; ok && v != nil {
					line[i] = fmt.Sprint(v)
				}
			}
			_ = cw.Write(line)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			s.logger.Err(err).Str("report", name).Msg("failed to render report")
			writeDetail(w, http.StatusInternalServerError, "Could not render report")
			return
		}
		writeAttachment(w, "text/csv", name+".csv", buf.Bytes())
	}
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, content []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func collectionName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := mux.Vars(r)["resource"]
	if name == "auth" {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return "", false
	}
	return name, true
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (record, bool) {
	fields := record{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && err != io.EOF {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return nil, false
	}
	return fields, true
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func queryInt(query url.Values, key string, def int) int {
	v, err := strconv.Atoi(query.Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

func matchesFilters(rec record, query url.Values) bool {
	for key, values := range query {
		if key == "page" || key == "page_size" || len(values) == 0 {
			continue
		}
		v, ok := rec[key]
		if !ok || fmt.Sprint(v) != values[0] {
			return false
		}
	}
	return true
}

// formValue keeps numeric form fields numeric so they filter like JSON ids.
func formValue(v string) any {
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return v
}

func pageURL(r *http.Request, pageNum int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	query := r.URL.Query()
	query.Set("page", strconv.Itoa(pageNum))
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: query.Encode()}
	return u.String()
}

func csvColumns(rows []record) []string {
	seen := map[string]struct{}{"id": {}}
	columns := []string{}
	for _, rec := range rows {
		for key := range rec {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	return append([]string{"id"}, columns...)
}
