// Package store keeps task documents in memory for the HTTP service and
// serializes the edits made to each one.
package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/taskdoc/internal/config"
	"github.com/dgallion1/taskdoc/internal/doctree"
	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/stats"
)

var (
	ErrNotFound         = errors.New("document not found")
	ErrRevisionMismatch = errors.New("revision mismatch")
	ErrTooLarge         = errors.New("document too large")
)

// Document is one stored markdown file. Edits hold mu for their whole
// read-apply-write cycle.
type Document struct {
	mu sync.Mutex

	ID        string
	Path      string
	text      string
	revision  string
	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a JSON-safe copy of a document's state.
type Snapshot struct {
	ID        string    `json:"doc_id"`
	Path      string    `json:"path"`
	Text      string    `json:"text,omitempty"`
	Revision  string    `json:"revision"`
	Tasks     int       `json:"tasks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Document) snapshot(withText bool) Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked(withText)
}

func (d *Document) snapshotLocked(withText bool) Snapshot {
	s := Snapshot{
		ID:        d.ID,
		Path:      d.Path,
		Revision:  d.revision,
		CreatedAt: d.createdAt,
		UpdatedAt: d.updatedAt,
	}
	if withText {
		s.Text = d.text
	}
	if nodes, err := engine.ListTasks(d.text); err == nil {
		s.Tasks = len(nodes)
	}
	return s
}

// Store is a thread-safe in-memory document registry with TTL eviction.
type Store struct {
	mu   sync.Mutex
	docs map[string]*Document

	cfg  config.Config
	opts engine.Options
	ops  *stats.Ops
	log  *slog.Logger
	now  func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a store. ops may be nil.
func New(cfg config.Config, ops *stats.Ops, log *slog.Logger) *Store {
	if ops == nil {
		ops = stats.NewOps(time.Hour)
	}
	return &Store{
		docs: make(map[string]*Document),
		cfg:  cfg,
		opts: cfg.EngineOptions(),
		ops:  ops,
		log:  log,
		now:  time.Now,
	}
}

// Start launches the background eviction loop.
func (s *Store) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					s.log.Info("evicted idle documents", "count", n)
				}
			}
		}
	}()
}

// Stop ends the eviction loop.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Stats returns the operation tracker edits are recorded in.
func (s *Store) Stats() *stats.Ops {
	return s.ops
}

// Create stores text under a fresh id. The text must index cleanly, so a
// document with duplicate identifiers is refused up front.
func (s *Store) Create(path, text string) (Snapshot, error) {
	if int64(len(text)) > s.cfg.MaxDocumentBytes {
		return Snapshot{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(text), s.cfg.MaxDocumentBytes)
	}
	if _, err := doctree.Index(doctree.Parse(text)); err != nil {
		return Snapshot{}, err
	}

	now := s.now()
	doc := &Document{
		ID:        uuid.New().String(),
		Path:      path,
		text:      text,
		revision:  ContentHashHex([]byte(text)),
		createdAt: now,
		updatedAt: now,
	}

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()

	s.log.Info("document stored", "doc_id", doc.ID, "path", path, "bytes", len(text))
	return doc.snapshot(false), nil
}

func (s *Store) get(id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return doc, nil
}

// Get returns the document including its text.
func (s *Store) Get(id string) (Snapshot, error) {
	doc, err := s.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return doc.snapshot(true), nil
}

// List returns every stored document without text.
func (s *Store) List() []Snapshot {
	s.mu.Lock()
	docs := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	s.mu.Unlock()

	out := make([]Snapshot, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.snapshot(false))
	}
	return out
}

// Delete drops a document.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.docs, id)
	return nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Apply runs op against the stored text. A non-empty ifMatch must equal the
// current revision. Edits to one document never interleave.
func (s *Store) Apply(ctx context.Context, id, ifMatch string, op engine.Operation) (Snapshot, engine.Result, error) {
	doc, err := s.get(id)
	if err != nil {
		return Snapshot{}, engine.Result{}, err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Snapshot{}, engine.Result{}, err
	}
	if ifMatch != "" && ifMatch != doc.revision {
		return Snapshot{}, engine.Result{}, fmt.Errorf("%w: have %s", ErrRevisionMismatch, doc.revision)
	}

	var res engine.Result
	err = s.ops.Time(string(op.Kind), func() error {
		var err error
		res, err = engine.Run(doc.text, op, s.opts)
		return err
	})
	if err != nil {
		s.log.Warn("edit rejected", "doc_id", id, "op", op.Kind, "task_id", op.ID, "error", err)
		return Snapshot{}, engine.Result{}, err
	}
	if int64(len(res.Text)) > s.cfg.MaxDocumentBytes {
		return Snapshot{}, engine.Result{}, fmt.Errorf("%w: edit would grow document to %d bytes", ErrTooLarge, len(res.Text))
	}

	doc.text = res.Text
	doc.revision = ContentHashHex([]byte(res.Text))
	doc.updatedAt = s.now()

	s.log.Info("edit applied", "doc_id", id, "op", op.Kind, "task_id", res.ID, "revision", doc.revision)
	return doc.snapshotLocked(false), res, nil
}

// Tasks lists the task nodes of a stored document.
func (s *Store) Tasks(id string) ([]doctree.Node, error) {
	text, err := s.text(id)
	if err != nil {
		return nil, err
	}
	return engine.ListTasks(text)
}

// Task returns one task with its links resolved against the document path
// and the configured root.
func (s *Store) Task(id, taskID string) (engine.TaskDetail, []engine.ResolvedLink, error) {
	doc, err := s.get(id)
	if err != nil {
		return engine.TaskDetail{}, nil, err
	}
	doc.mu.Lock()
	text, path := doc.text, doc.Path
	doc.mu.Unlock()

	detail, err := engine.Task(text, taskID)
	if err != nil {
		return engine.TaskDetail{}, nil, err
	}
	links, err := engine.TaskLinks(text, taskID, path, s.cfg.RootPath)
	if err != nil {
		return engine.TaskDetail{}, nil, err
	}
	return detail, links, nil
}

// NextID allocates the next free id: top-level when parent is empty,
// otherwise the next direct child of parent.
func (s *Store) NextID(id, parent string) (string, error) {
	text, err := s.text(id)
	if err != nil {
		return "", err
	}
	if parent == "" {
		return engine.NextMainID(text, s.opts.Prefix)
	}
	return engine.NextSubID(text, parent)
}

func (s *Store) text(id string) (string, error) {
	doc, err := s.get(id)
	if err != nil {
		return "", err
	}
	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.text, nil
}

// Cleanup removes documents idle for longer than the configured TTL and
// reports how many were dropped.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, doc := range s.docs {
		doc.mu.Lock()
		idle := now.Sub(doc.updatedAt)
		doc.mu.Unlock()
		if idle > s.cfg.DocumentTTL {
			delete(s.docs, id)
			n++
		}
	}
	return n
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
