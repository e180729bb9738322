package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/store"
)

type createDocumentRequest struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// handleCreateDocument stores a document for later edits.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	snap, err := s.store.Create(req.Path, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	setETag(w, snap)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": s.store.List()})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Get(chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, err)
		return
	}
	setETag(w, snap)
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "docID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocumentTasks(w http.ResponseWriter, r *http.Request) {
	nodes, err := s.store.Tasks(chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": nodes})
}

// handleDocumentTask returns one task with its body and resolved links.
func (s *Server) handleDocumentTask(w http.ResponseWriter, r *http.Request) {
	detail, links, err := s.store.Task(chi.URLParam(r, "docID"), chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if links == nil {
		links = []engine.ResolvedLink{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task":  detail,
		"links": links,
	})
}

// handleApplyDocument edits a stored document. An If-Match header turns the
// edit into a compare-and-swap against the current revision.
func (s *Server) handleApplyDocument(w http.ResponseWriter, r *http.Request) {
	var op engine.Operation
	if !s.decodeBody(w, r, &op) {
		return
	}
	snap, res, err := s.store.Apply(r.Context(), chi.URLParam(r, "docID"), ifMatch(r), op)
	if err != nil {
		writeError(w, err)
		return
	}
	setETag(w, snap)
	writeJSON(w, http.StatusOK, map[string]any{
		"document": snap,
		"id":       res.ID,
	})
}

// handleNextID allocates an id without changing the document.
func (s *Server) handleNextID(w http.ResponseWriter, r *http.Request) {
	id, err := s.store.NextID(chi.URLParam(r, "docID"), r.URL.Query().Get("parent"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func setETag(w http.ResponseWriter, snap store.Snapshot) {
	w.Header().Set("ETag", `"`+snap.Revision+`"`)
}

// ifMatch returns the revision named by If-Match, or "" for none or "*".
func ifMatch(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	if v == "*" {
		return ""
	}
	return v
}
