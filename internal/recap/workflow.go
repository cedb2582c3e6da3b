package recap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPollInterval    = 5 * time.Second
	DefaultMaxPollAttempts = 720
	DefaultBatchSize       = 10
	DefaultResultFormat    = "fbx"
	DefaultSceneFormat     = "obj"

	progressDone = "DONE"
)

var (
	// ErrNoSession is returned when an operation needs a created photoscene
	ErrNoSession = errors.New("no photoscene has been created")
	// ErrPollAttemptsExceeded is returned when the scene never reports DONE
	ErrPollAttemptsExceeded = errors.New("poll attempts exceeded")
	// ErrNoResult is returned when downloading before a scene link is known
	ErrNoResult = errors.New("no result available")
)

// State is the lifecycle position of a photoscene session
type State int

const (
	StateIdle State = iota
	StateSceneCreated
	StatePhotosUploading
	StateProcessing
	StatePolling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSceneCreated:
		return "scene-created"
	case StatePhotosUploading:
		return "photos-uploading"
	case StateProcessing:
		return "processing"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// BatchError reports the photo batch that stopped an upload. Batches before
// it were accepted by the service and are not rolled back.
type BatchError struct {
	Batch    int
	Total    int
	Uploaded int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed batch upload %d/%d (%d photos already uploaded): %v", e.Batch, e.Total, e.Uploaded, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Snapshot is one published progress observation
type Snapshot struct {
	SceneID   string `json:"scene_id" yaml:"scene_id"`
	Progress  string `json:"progress" yaml:"progress"`
	Message   string `json:"message" yaml:"message"`
	SceneLink string `json:"scene_link,omitempty" yaml:"scene_link,omitempty"`
}

// Observer receives progress and result notifications
type Observer interface {
	OnProgress(Snapshot)
	OnResult(link string)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Progress func(Snapshot)
	Result   func(string)
}

func (o ObserverFuncs) OnProgress(s Snapshot) {
	if o.Progress != nil {
		o.Progress(s)
	}
}

func (o ObserverFuncs) OnResult(link string) {
	if o.Result != nil {
		o.Result(link)
	}
}

// Options tune the workflow
type Options struct {
	PollInterval    time.Duration
	MaxPollAttempts int
	// PollTimeout bounds the whole polling phase when positive
	PollTimeout  time.Duration
	ResultFormat string
	SceneFormat  string
	BatchSize    int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		PollInterval:    DefaultPollInterval,
		MaxPollAttempts: DefaultMaxPollAttempts,
		ResultFormat:    DefaultResultFormat,
		SceneFormat:     DefaultSceneFormat,
		BatchSize:       DefaultBatchSize,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = d.PollInterval
	}
	if o.MaxPollAttempts <= 0 {
		o.MaxPollAttempts = d.MaxPollAttempts
	}
	if o.ResultFormat == "" {
		o.ResultFormat = d.ResultFormat
	}
	if o.SceneFormat == "" {
		o.SceneFormat = d.SceneFormat
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	return o
}

// Session is one photoscene moving through create, upload, process and poll
type Session struct {
	ID    string
	Name  string
	RunID uuid.UUID

	wf *Workflow

	mu          sync.RWMutex
	state       State
	progress    string
	message     string
	downloadURL string
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Progress returns the last published progress value
func (s *Session) Progress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// DownloadURL returns the scene link once the result has been fetched
func (s *Session) DownloadURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.downloadURL
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()
	slog.Debug("Photoscene state changed", "scene_id", s.ID, "from", prev.String(), "to", state.String())
}

// UploadPhotos sends the files in sequential batches of batchSize. A
// non-positive size uses the configured batch size.
func (s *Session) UploadPhotos(ctx context.Context, files []string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = s.wf.opts.BatchSize
	}

	batches := Batches(files, batchSize)
	s.setState(StatePhotosUploading)

	uploaded := 0
	for i, batch := range batches {
		resp, err := s.wf.client.UploadFiles(ctx, s.ID, batch)
		if err != nil {
			s.setState(StateFailed)
			return &BatchError{Batch: i + 1, Total: len(batches), Uploaded: uploaded, Err: err}
		}
		uploaded += len(batch)
		slog.Info("Uploaded photo batch",
			"scene_id", s.ID,
			"batch", i+1,
			"total", len(batches),
			"accepted", len(resp.Files))
	}
	return nil
}

// Process starts reconstruction of the uploaded photos
func (s *Session) Process(ctx context.Context) error {
	s.setState(StateProcessing)
	msg, err := s.wf.client.Process(ctx, s.ID)
	if err != nil {
		s.setState(StateFailed)
		return fmt.Errorf("process failed: %w", err)
	}
	slog.Info("Photoscene processing started", "scene_id", s.ID, "msg", msg)
	return nil
}

// Poll performs a single progress check. Failures are logged and reported
// as nil.
func (s *Session) Poll(ctx context.Context) *Snapshot {
	info, err := s.wf.client.Progress(ctx, s.ID)
	if err != nil {
		slog.Warn("Progress check failed", "scene_id", s.ID, "error", err)
		return nil
	}
	return &Snapshot{
		SceneID:   s.ID,
		Progress:  info.Progress.String(),
		Message:   info.ProgressMsg,
		SceneLink: info.SceneLink,
	}
}

func (s *Session) publish(snap *Snapshot) {
	out := Snapshot{SceneID: s.ID}
	if snap != nil {
		out = *snap
	}

	s.mu.Lock()
	s.progress = out.Progress
	s.message = out.Message
	s.mu.Unlock()

	slog.Debug("Photoscene progress", "scene_id", s.ID, "progress", out.Progress, "status", out.Message)
	for _, o := range s.wf.observerList() {
		o.OnProgress(out)
	}
}

// AwaitResult processes the scene, polls until it reports DONE and then
// fetches the result link
func (s *Session) AwaitResult(ctx context.Context) (string, error) {
	if err := s.Process(ctx); err != nil {
		return "", err
	}

	opts := s.wf.opts
	if opts.PollTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.PollTimeout)
		defer cancel()
	}

	s.setState(StatePolling)
	for attempt := 1; attempt <= opts.MaxPollAttempts; attempt++ {
		if err := s.wf.wait(ctx, opts.PollInterval); err != nil {
			s.setState(StateFailed)
			return "", fmt.Errorf("polling photoscene %s stopped: %w", s.ID, err)
		}

		snap := s.Poll(ctx)
		s.publish(snap)

		if snap != nil && snap.Message == progressDone {
			return s.fetchResult(ctx)
		}
	}

	s.setState(StateFailed)
	return "", fmt.Errorf("photoscene %s not done after %d checks: %w", s.ID, opts.MaxPollAttempts, ErrPollAttemptsExceeded)
}

func (s *Session) fetchResult(ctx context.Context) (string, error) {
	info, err := s.wf.client.Result(ctx, s.ID, s.wf.opts.ResultFormat)
	if err != nil {
		s.setState(StateFailed)
		return "", fmt.Errorf("result failed: %w", err)
	}
	if info.SceneLink == "" {
		s.setState(StateFailed)
		return "", fmt.Errorf("result for photoscene %s: %w", s.ID, ErrNoResult)
	}

	s.mu.Lock()
	s.downloadURL = info.SceneLink
	s.mu.Unlock()
	s.setState(StateDone)

	slog.Info("Photoscene result ready", "scene_id", s.ID, "url", info.SceneLink)
	for _, o := range s.wf.observerList() {
		o.OnResult(info.SceneLink)
	}
	return info.SceneLink, nil
}

// Workflow drives photoscenes through the reconstruction service. It tracks
// one current session; creating a new scene replaces it.
type Workflow struct {
	client *Client
	opts   Options
	wait   func(ctx context.Context, d time.Duration) error
	now    func() time.Time

	mu        sync.RWMutex
	observers []Observer
	current   *Session
}

// NewWorkflow creates a workflow over the given transport
func NewWorkflow(client *Client, opts Options) *Workflow {
	return &Workflow{
		client: client,
		opts:   opts.withDefaults(),
		wait:   sleepContext,
		now:    time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Subscribe registers an observer for progress and result events
func (w *Workflow) Subscribe(o Observer) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, o)
}

func (w *Workflow) observerList() []Observer {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Observer(nil), w.observers...)
}

// Session returns the tracked session, or nil before the first create
func (w *Workflow) Session() *Session {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Workflow) active() (*Session, error) {
	s := w.Session()
	if s == nil || s.ID == "" {
		return nil, ErrNoSession
	}
	return s, nil
}

// CreatePhotoscene creates a scene and makes it the tracked session. An
// empty format uses the configured scene format. On failure the tracked
// session is marked failed and nil is returned.
func (w *Workflow) CreatePhotoscene(ctx context.Context, name, format string) (*Session, error) {
	if format == "" {
		format = w.opts.SceneFormat
	}

	session := &Session{
		Name:  name,
		RunID: uuid.New(),
		wf:    w,
	}

	info, err := w.client.CreateScene(ctx, name, format)
	if err != nil {
		session.state = StateFailed
		w.setCurrent(session)
		slog.Error("Failed to create photoscene", "name", name, "run_id", session.RunID, "error", err)
		return nil, err
	}

	session.ID = info.ID
	session.state = StateSceneCreated
	w.setCurrent(session)

	slog.Info("Created photoscene", "scene_id", session.ID, "name", name, "format", format, "run_id", session.RunID)
	return session, nil
}

// Attach tracks a scene created earlier, e.g. by another process
func (w *Workflow) Attach(sceneID string) *Session {
	s := &Session{
		ID:    sceneID,
		RunID: uuid.New(),
		wf:    w,
		state: StateSceneCreated,
	}
	w.setCurrent(s)
	return s
}

// FetchResult fetches the result link of the tracked session without
// polling
func (w *Workflow) FetchResult(ctx context.Context) (string, error) {
	s, err := w.active()
	if err != nil {
		return "", err
	}
	return s.fetchResult(ctx)
}

func (w *Workflow) setCurrent(s *Session) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = s
}

// UploadPhotosInBatches uploads photos to the tracked session
func (w *Workflow) UploadPhotosInBatches(ctx context.Context, files []string, batchSize int) error {
	s, err := w.active()
	if err != nil {
		return err
	}
	return s.UploadPhotos(ctx, files, batchSize)
}

// ProcessPhotoscene starts processing the tracked session
func (w *Workflow) ProcessPhotoscene(ctx context.Context) error {
	s, err := w.active()
	if err != nil {
		return err
	}
	return s.Process(ctx)
}

// PollProgress checks the tracked session once. It returns nil when there
// is no session or the check fails.
func (w *Workflow) PollProgress(ctx context.Context) *Snapshot {
	s, err := w.active()
	if err != nil {
		return nil
	}
	return s.Poll(ctx)
}

// GetProgress processes the tracked session and polls it to completion,
// returning the result link
func (w *Workflow) GetProgress(ctx context.Context) (string, error) {
	s, err := w.active()
	if err != nil {
		return "", err
	}
	return s.AwaitResult(ctx)
}

// Run creates a scene, uploads the photos and waits for the result
func (w *Workflow) Run(ctx context.Context, name string, files []string) (*Session, error) {
	s, err := w.CreatePhotoscene(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if err := s.UploadPhotos(ctx, files, w.opts.BatchSize); err != nil {
		return s, err
	}
	if _, err := s.AwaitResult(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// DownloadResult saves the tracked session's result into dir as
// result_<unixmillis>.<format>
func (w *Workflow) DownloadResult(ctx context.Context, dir string) (string, error) {
	s, err := w.active()
	if err != nil {
		return "", err
	}
	link := s.DownloadURL()
	if link == "" {
		return "", ErrNoResult
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("result_%d.%s", w.now().UnixMilli(), w.opts.ResultFormat))
	if err := w.client.Download(ctx, link, dest); err != nil {
		return "", fmt.Errorf("failed to download result: %w", err)
	}

	slog.Info("Saved photoscene result", "scene_id", s.ID, "path", dest)
	return dest, nil
}

// Batches splits files into consecutive groups of at most size, preserving
// order
func Batches(files []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]string
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		out = append(out, files[start:end])
	}
	return out
}
