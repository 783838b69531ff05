// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"bytes"
	"encoding"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/z5labs/relay/pipeline"
	"github.com/z5labs/relay/procedure"
	"github.com/z5labs/relay/slogfield"
)

// Input slot names an HTTP request is decomposed into. A procedure
// declares validators for the slots it cares about; undeclared
// slots pass through to the handler unvalidated.
const (
	SlotPath   = "path"
	SlotQuery  = "query"
	SlotHeader = "header"
	SlotBody   = "body"
)

// RequestField is the context field name under which the raw
// [*http.Request] is seeded for middleware and handlers.
const RequestField = "request"

// ContentTyper
type ContentTyper interface {
	ContentType() string
}

// ErrorResponse is the wire shape of every non success response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type handler struct {
	ex  *pipeline.Executor
	p   *procedure.Procedure
	log *slog.Logger

	pathParams []string
}

func newHandler(ex *pipeline.Executor, p *procedure.Procedure, log *slog.Logger) http.Handler {
	return &handler{
		ex:         ex,
		p:          p,
		log:        log,
		pathParams: pathParams(p.Pattern()),
	}
}

// pathParams extracts the wildcard segment names of a
// [http.ServeMux] style pattern, e.g. "/books/{id}" yields ["id"].
func pathParams(pattern string) []string {
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}

		name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
		name = strings.TrimSuffix(name, "...")
		if name == "" || name == "$" {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.bundle(r)
	if err != nil {
		h.log.DebugContext(r.Context(), "failed to read request body", slogfield.Error(err))
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid input: body",
		})
		return
	}

	result := h.ex.Execute(r.Context(), h.p, bundle, procedure.Fields{RequestField: r})
	h.writeResult(w, r, result)
}

func (h *handler) bundle(r *http.Request) (pipeline.Bundle, error) {
	path := make(map[string]any, len(h.pathParams))
	for _, name := range h.pathParams {
		path[name] = r.PathValue(name)
	}

	query := make(map[string]any)
	for name, vals := range r.URL.Query() {
		if len(vals) > 0 {
			query[name] = vals[0]
		}
	}

	header := make(map[string]any, len(r.Header))
	for name, vals := range r.Header {
		if len(vals) > 0 {
			header[name] = vals[0]
		}
	}

	bundle := pipeline.Bundle{
		SlotPath:   path,
		SlotQuery:  query,
		SlotHeader: header,
	}

	if r.Body == nil || r.Body == http.NoBody {
		return bundle, nil
	}
	defer func() {
		_ = r.Body.Close()
	}()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 {
		bundle[SlotBody] = b
	}
	return bundle, nil
}

func (h *handler) writeResult(w http.ResponseWriter, r *http.Request, result pipeline.Result) {
	switch result.Kind {
	case pipeline.KindSuccess:
		h.writeSuccess(w, r, result.Value)
	case pipeline.KindInvalid:
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: result.Message,
		})
	case pipeline.KindClassified:
		status, ok := result.Key.Status()
		if !ok {
			status = http.StatusInternalServerError
		}
		writeError(w, status, ErrorResponse{
			Error:   string(result.Key),
			Message: result.Message,
		})
	default:
		writeError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal",
			Message: result.Message,
		})
	}
}

func (h *handler) writeSuccess(w http.ResponseWriter, r *http.Request, v any) {
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// a raw value keeps full control over the response
	if rh, ok := v.(http.Handler); ok {
		rh.ServeHTTP(w, r)
		return
	}

	if bm, ok := v.(encoding.BinaryMarshaler); ok {
		h.writeBinary(w, r, bm)
		return
	}

	b, err := json.Marshal(v)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to marshal response body", slogfield.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal",
			Message: "internal error",
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(b))
}

func (h *handler) writeBinary(w http.ResponseWriter, r *http.Request, bm encoding.BinaryMarshaler) {
	b, err := bm.MarshalBinary()
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to marshal response body", slogfield.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal",
			Message: "internal error",
		})
		return
	}

	if ct, ok := bm.(ContentTyper); ok {
		w.Header().Set("Content-Type", ct.ContentType())
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(b))
}

func writeError(w http.ResponseWriter, status int, resp ErrorResponse) {
	b, err := json.Marshal(resp)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(b))
}
