package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/linkpath"
)

// requestOverhead leaves room for the JSON envelope around a document.
const requestOverhead = 64 * 1024

// decodeBody reads a JSON request body no larger than the document limit.
// On failure the response has already been written.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxDocumentBytes+requestOverhead)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", s.cfg.MaxDocumentBytes), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

type applyTextRequest struct {
	Text      string           `json:"text"`
	Operation engine.Operation `json:"operation"`
}

// handleApplyText runs one operation on caller-supplied text.
func (s *Server) handleApplyText(w http.ResponseWriter, r *http.Request) {
	var req applyTextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	var res engine.Result
	err := s.store.Stats().Time(string(req.Operation.Kind), func() error {
		var err error
		res, err = engine.Run(req.Text, req.Operation, s.opts)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type tasksTextRequest struct {
	Text string `json:"text"`
}

// handleListTasksText indexes caller-supplied text.
func (s *Server) handleListTasksText(w http.ResponseWriter, r *http.Request) {
	var req tasksTextRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	nodes, err := engine.ListTasks(req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": nodes})
}

type resolveRequest struct {
	Href     string `json:"href"`
	DocPath  string `json:"doc_path"`
	RootPath string `json:"root_path"`
}

type resolveResponse struct {
	Href     string `json:"href"`
	External bool   `json:"external"`
	Absolute string `json:"absolute,omitempty"`
	Relative string `json:"relative,omitempty"`
}

// handleResolveLink normalizes one link target. The configured root is used
// when the request does not name one.
func (s *Server) handleResolveLink(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Href == "" {
		jsonError(w, "href is required", http.StatusBadRequest)
		return
	}
	root := req.RootPath
	if root == "" {
		root = s.cfg.RootPath
	}

	resp := resolveResponse{Href: req.Href}
	if linkpath.IsExternal(req.Href) {
		resp.External = true
	} else {
		resp.Absolute = linkpath.ResolveAbsolute(req.Href, req.DocPath)
		if root != "" {
			resp.Relative = linkpath.ResolveRelative(req.Href, req.DocPath, root)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
