package service

import (
	"Go_Blog/config"
	"Go_Blog/internal/metrics"
	"Go_Blog/internal/storage"
	"Go_Blog/model"
	"Go_Blog/utils"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/url"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ChunkStatus is the outcome of a delivered chunk.
type ChunkStatus string

const (
	ChunkAccepted        ChunkStatus = "chunk-accepted"
	ChunkAlreadyUploaded ChunkStatus = "already-uploaded"
	UploadCompleted      ChunkStatus = "completed"
)

const (
	defaultChunkSize     = 16 * 1024
	defaultMaxUploadSize = 50 * 1024 * 1024
	defaultUploadTimeout = 5 * time.Minute
)

// UploadOptions tunes an UploadManager. Non-positive values fall back to
// the defaults.
type UploadOptions struct {
	ChunkSize       int64
	MaxSize         int64
	Timeout         time.Duration
	ResetOnActivity bool
	AssetBaseURL    string
}

// UploadOptionsFromConfig maps the upload settings of cfg.
func UploadOptionsFromConfig(cfg *config.Config) UploadOptions {
	return UploadOptions{
		ChunkSize:       cfg.UploadChunkSize,
		MaxSize:         cfg.UploadMaxSize,
		Timeout:         cfg.UploadSessionTimeout,
		ResetOnActivity: cfg.UploadResetOnActivity(),
		AssetBaseURL:    cfg.Storage.BaseURL,
	}
}

// ChunkUpload is one chunk delivery. FinalName and TotalChunks must echo
// the values returned when the session was started.
type ChunkUpload struct {
	UserID      uint64
	SessionID   string
	Index       int
	FinalName   string
	TotalChunks int
	Payload     io.Reader
}

// ChunkResult reports what happened to a chunk. Asset is set once the
// upload has been published.
type ChunkResult struct {
	Status ChunkStatus
	Asset  *model.Asset
}

// UploadProgress lists the chunks a session already holds.
type UploadProgress struct {
	SessionID   string    `json:"sessionId"`
	FinalName   string    `json:"finalName"`
	TotalChunks int       `json:"totalChunks"`
	Uploaded    []int     `json:"uploaded"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// AssetWriter records published uploads.
type AssetWriter interface {
	Insert(ctx context.Context, row *model.Asset) (uint64, error)
}

type uploadSession struct {
	model.UploadSession
	uploaded map[int]struct{}
	inflight map[int]bool
	timer    *time.Timer
}

func (s *uploadSession) uploadedIndices() []int {
	out := make([]int, 0, len(s.uploaded))
	for i := range s.uploaded {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// UploadManager runs the chunked upload protocol. Sessions are held in
// memory; a session ends either by reassembly or by expiry, never both.
type UploadManager struct {
	opts   UploadOptions
	chunks *storage.ChunkStore
	store  storage.Store
	assets AssetWriter
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*uploadSession
	names    map[string]struct{}
}

// NewUploadManager builds a manager and removes chunks left over by a
// previous process. assets may be nil.
func NewUploadManager(opts UploadOptions, chunks *storage.ChunkStore, store storage.Store, assets AssetWriter) *UploadManager {
	if n, err := chunks.Sweep(); err != nil {
		log.Printf("upload: sweep stale chunks: %v", err)
	} else if n > 0 {
		log.Printf("upload: removed %d stale chunk files", n)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = defaultMaxUploadSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultUploadTimeout
	}
	return &UploadManager{
		opts:     opts,
		chunks:   chunks,
		store:    store,
		assets:   assets,
		now:      time.Now,
		sessions: make(map[string]*uploadSession),
		names:    make(map[string]struct{}),
	}
}

// ChunkSize returns the fixed chunk length.
func (m *UploadManager) ChunkSize() int64 {
	return m.opts.ChunkSize
}

// Active returns the number of open sessions.
func (m *UploadManager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// AssetURL returns the public URL of a published object.
func (m *UploadManager) AssetURL(finalName string) string {
	return m.opts.AssetBaseURL + "/" + url.PathEscape(finalName)
}

// StartSession validates the declared size and opens a session whose
// expiry timer starts immediately.
func (m *UploadManager) StartSession(_ context.Context, userID uint64, filename string, size int64) (*model.UploadSession, error) {
	if size > m.opts.MaxSize {
		metrics.UploadSessions.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrSizeExceeded, size, m.opts.MaxSize)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: file size must be positive", ErrInvalidInput)
	}
	clean := utils.SanitizeFilename(filename)
	if clean == "" {
		return nil, fmt.Errorf("%w: filename required", ErrInvalidInput)
	}

	now := m.now()
	s := &uploadSession{
		UploadSession: model.UploadSession{
			ID:          utils.NewID(),
			UserID:      userID,
			FileName:    clean,
			Size:        size,
			TotalChunks: int((size + m.opts.ChunkSize - 1) / m.opts.ChunkSize),
			CreatedAt:   now,
			ExpiresAt:   now.Add(m.opts.Timeout),
		},
		uploaded: make(map[int]struct{}),
		inflight: make(map[int]bool),
	}

	m.mu.Lock()
	stamp := now.UnixMilli()
	for {
		s.FinalName = fmt.Sprintf("%d-%s", stamp, clean)
		if _, taken := m.names[s.FinalName]; !taken {
			break
		}
		stamp++
	}
	m.names[s.FinalName] = struct{}{}
	m.sessions[s.ID] = s
	s.timer = time.AfterFunc(m.opts.Timeout, func() { m.expire(s) })
	view := s.UploadSession
	metrics.UploadActive.Inc()
	m.mu.Unlock()

	metrics.UploadSessions.WithLabelValues("started").Inc()
	return &view, nil
}

// lookupLocked resolves a session for its owner. Unknown ids and mismatched
// echoes are reported identically.
func (m *UploadManager) lookupLocked(userID uint64, sessionID, finalName string) (*uploadSession, error) {
	s, ok := m.sessions[sessionID]
	if !ok || s.UserID != userID || s.FinalName != finalName {
		return nil, ErrInvalidSession
	}
	return s, nil
}

func (m *UploadManager) expectedChunkSize(s *uploadSession, index int) int64 {
	if index == s.TotalChunks-1 {
		return s.Size - int64(s.TotalChunks-1)*m.opts.ChunkSize
	}
	return m.opts.ChunkSize
}

// ReceiveChunk stores one chunk. The chunk that completes the set triggers
// reassembly exactly once; duplicates are acknowledged without rewriting.
func (m *UploadManager) ReceiveChunk(ctx context.Context, in ChunkUpload) (*ChunkResult, error) {
	m.mu.Lock()
	s, err := m.lookupLocked(in.UserID, in.SessionID, in.FinalName)
	if err == nil && s.TotalChunks != in.TotalChunks {
		err = ErrInvalidSession
	}
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	if in.Index < 0 || in.Index >= s.TotalChunks {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: chunk index %d out of range", ErrInvalidInput, in.Index)
	}
	if _, done := s.uploaded[in.Index]; done {
		m.mu.Unlock()
		return &ChunkResult{Status: ChunkAlreadyUploaded}, nil
	}
	if s.inflight[in.Index] {
		m.mu.Unlock()
		return nil, ErrChunkInFlight
	}
	s.inflight[in.Index] = true
	m.mu.Unlock()

	want := m.expectedChunkSize(s, in.Index)
	written, werr := m.chunks.Write(s.FinalName, in.Index, io.LimitReader(in.Payload, want+1))
	if werr != nil {
		werr = fmt.Errorf("%w: %v", ErrChunkWrite, werr)
	} else if written != want {
		_ = m.chunks.Remove(s.FinalName, in.Index)
		werr = fmt.Errorf("%w: chunk %d has %d bytes, want %d", ErrInvalidInput, in.Index, written, want)
	}

	m.mu.Lock()
	delete(s.inflight, in.Index)
	if m.sessions[s.ID] != s {
		m.mu.Unlock()
		_ = m.chunks.Remove(s.FinalName, in.Index)
		return nil, ErrInvalidSession
	}
	if werr != nil {
		m.mu.Unlock()
		return nil, werr
	}
	s.uploaded[in.Index] = struct{}{}
	if len(s.uploaded) < s.TotalChunks {
		if m.opts.ResetOnActivity {
			s.ExpiresAt = m.now().Add(m.opts.Timeout)
			s.timer.Reset(m.opts.Timeout)
		}
		m.mu.Unlock()
		return &ChunkResult{Status: ChunkAccepted}, nil
	}
	s.timer.Stop()
	m.removeLocked(s)
	m.mu.Unlock()

	// The session is already gone, so a client disconnect must not abort
	// the publish half way.
	asset, err := m.reassemble(context.WithoutCancel(ctx), s)
	if err != nil {
		return nil, err
	}
	return &ChunkResult{Status: UploadCompleted, Asset: asset}, nil
}

func (m *UploadManager) removeLocked(s *uploadSession) {
	delete(m.sessions, s.ID)
	delete(m.names, s.FinalName)
	metrics.UploadActive.Dec()
}

// reassemble publishes chunks 0..n-1 in order and always deletes them.
func (m *UploadManager) reassemble(ctx context.Context, s *uploadSession) (*model.Asset, error) {
	defer func() {
		if err := m.chunks.Remove(s.FinalName, s.uploadedIndices()...); err != nil {
			log.Printf("upload: remove chunks of %s: %v", s.FinalName, err)
		}
	}()

	reader, size, err := m.chunks.Reader(s.FinalName, s.TotalChunks)
	if err != nil {
		metrics.UploadSessions.WithLabelValues("failed").Inc()
		log.Printf("upload: reassemble %s: %v", s.FinalName, err)
		return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
	}
	defer reader.Close()

	hasher := sha256.New()
	opts := storage.PutOptions{ContentType: mime.TypeByExtension(filepath.Ext(s.FileName))}
	if err = m.store.PutObject(ctx, s.FinalName, io.TeeReader(reader, hasher), size, opts); err != nil {
		metrics.UploadSessions.WithLabelValues("failed").Inc()
		log.Printf("upload: publish %s: %v", s.FinalName, err)
		return nil, fmt.Errorf("%w: %v", ErrReassembly, err)
	}

	asset := &model.Asset{
		UserID:    s.UserID,
		FileName:  s.FileName,
		FinalName: s.FinalName,
		Size:      size,
		Hash:      hex.EncodeToString(hasher.Sum(nil)),
		Backend:   m.store.Backend(),
		CreatedAt: utcNow(),
	}
	if m.assets != nil {
		if _, err = m.assets.Insert(ctx, asset); err != nil {
			_ = m.store.RemoveObject(ctx, s.FinalName)
			metrics.UploadSessions.WithLabelValues("failed").Inc()
			return nil, fmt.Errorf("%w: record asset: %v", ErrReassembly, err)
		}
	}
	asset.URL = m.AssetURL(s.FinalName)
	metrics.UploadSessions.WithLabelValues("completed").Inc()
	metrics.UploadBytes.Add(float64(size))
	log.Printf("upload: published %s (%d bytes, %d chunks)", s.FinalName, size, s.TotalChunks)
	return asset, nil
}

// expire purges a session whose timer fired. It does nothing when the
// session already completed, or when activity pushed the deadline out
// while the callback was waiting for the lock.
func (m *UploadManager) expire(s *uploadSession) {
	m.mu.Lock()
	if m.sessions[s.ID] != s || m.now().Before(s.ExpiresAt) {
		m.mu.Unlock()
		return
	}
	m.removeLocked(s)
	indices := s.uploadedIndices()
	m.mu.Unlock()

	if err := m.chunks.Remove(s.FinalName, indices...); err != nil {
		log.Printf("upload: remove chunks of expired %s: %v", s.FinalName, err)
	}
	metrics.UploadSessions.WithLabelValues("expired").Inc()
	log.Printf("upload: session %s expired, removed %d chunks", s.ID, len(indices))
}

// Progress reports the chunks received so far, letting a client resume.
func (m *UploadManager) Progress(_ context.Context, userID uint64, sessionID, finalName string) (*UploadProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.lookupLocked(userID, sessionID, finalName)
	if err != nil {
		return nil, err
	}
	return &UploadProgress{
		SessionID:   s.ID,
		FinalName:   s.FinalName,
		TotalChunks: s.TotalChunks,
		Uploaded:    s.uploadedIndices(),
		ExpiresAt:   s.ExpiresAt,
	}, nil
}

// Shutdown stops every timer and purges all open sessions.
func (m *UploadManager) Shutdown() {
	m.mu.Lock()
	open := make([]*uploadSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.timer.Stop()
		open = append(open, s)
		m.removeLocked(s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range open {
		errs = append(errs, m.chunks.Remove(s.FinalName, s.uploadedIndices()...))
	}
	if err := errors.Join(errs...); err != nil {
		log.Printf("upload: shutdown cleanup: %v", err)
	}
}
