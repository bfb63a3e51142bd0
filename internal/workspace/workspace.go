package workspace

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/conversation"
	"github.com/resume2job/resume2job/internal/intake"
	"github.com/resume2job/resume2job/internal/logger"
	"github.com/resume2job/resume2job/internal/session"
)

const DefaultNotificationTTL = 2 * time.Second

var (
	ErrUploadInProgress = errors.New("documents are being uploaded")
	ErrSessionActive    = errors.New("documents already uploaded, change documents first")
	ErrNoDocument       = errors.New("document is required")
)

type uploader interface {
	Upload(ctx context.Context, resume, jobDescription intake.Document) (*session.Session, error)
}

type querier interface {
	Query(ctx context.Context, sessionID, prompt string) (string, error)
}

type Option func(*Workspace)

func WithNotificationTTL(d time.Duration) Option {
	return func(w *Workspace) { w.notificationTTL = d }
}

func WithRevealDelay(d time.Duration) Option {
	return func(w *Workspace) { w.revealDelay = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// Workspace is the single state store behind every shell. It wires intake,
// upload and conversation together and publishes a View on each change.
type Workspace struct {
	uploader        uploader
	engine          *conversation.Engine
	logger          *zap.Logger
	notificationTTL time.Duration
	revealDelay     time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu           sync.Mutex
	resume       *intake.Document
	pendingJD    *intake.Document
	jdName       string
	session      *session.Session
	uploading    bool
	uploadGen    uint64
	uploadCancel context.CancelFunc
	notification *Notification
	noticeSeq    uint64
	noticeTimer  *time.Timer

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

func New(up uploader, q querier, opts ...Option) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())

	w := &Workspace{
		uploader:        up,
		logger:          zap.NewNop(),
		notificationTTL: DefaultNotificationTTL,
		revealDelay:     conversation.DefaultRevealDelay,
		ctx:             ctx,
		cancel:          cancel,
		subs:            make(map[int]chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.engine = conversation.New(q,
		conversation.WithRevealDelay(w.revealDelay),
		conversation.WithOnChange(w.broadcast),
		conversation.WithLogger(w.logger),
	)

	return w
}

// SelectResume stores the resume and starts the upload when a job description is pending.
func (w *Workspace) SelectResume(doc intake.Document) error {
	if doc.IsZero() {
		return ErrNoDocument
	}

	w.mu.Lock()
	if err := w.intakeAllowedLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.resume = &doc
	w.maybeUploadLocked()
	w.mu.Unlock()

	w.broadcast()
	return nil
}

// SubmitJobDescription queues the confirmed job description and starts the
// upload when a resume is present.
func (w *Workspace) SubmitJobDescription(doc intake.Document) error {
	if doc.IsZero() {
		return ErrNoDocument
	}

	w.mu.Lock()
	if err := w.intakeAllowedLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	w.pendingJD = &doc
	w.maybeUploadLocked()
	w.mu.Unlock()

	w.broadcast()
	return nil
}

func (w *Workspace) intakeAllowedLocked() error {
	if w.uploading {
		return ErrUploadInProgress
	}
	if w.session != nil {
		return ErrSessionActive
	}
	return nil
}

// maybeUploadLocked fires once per intake action that leaves both documents present.
func (w *Workspace) maybeUploadLocked() {
	if w.resume == nil || w.pendingJD == nil || w.uploading {
		return
	}

	w.uploading = true
	w.uploadGen++
	gen := w.uploadGen
	resume, jd := *w.resume, *w.pendingJD

	ctx, cancel := context.WithCancel(w.ctx)
	w.uploadCancel = cancel

	w.logger.Info("phase change", zap.Stringer(logger.FieldPhase, PhaseUploading))

	w.wg.Go(func() {
		defer cancel()
		w.upload(ctx, gen, resume, jd)
	})
}

func (w *Workspace) upload(ctx context.Context, gen uint64, resume, jd intake.Document) {
	s, err := w.uploader.Upload(ctx, resume, jd)

	w.mu.Lock()
	if gen != w.uploadGen {
		w.mu.Unlock()
		return
	}

	w.uploading = false
	w.uploadCancel = nil
	if err != nil {
		w.logger.Warn("upload failed", zap.Error(err))
		w.notifyLocked(NotificationFailure, MessageUploadFailure)
	} else {
		w.session = s
		w.jdName = s.JobDescriptionName
		w.pendingJD = nil
		w.logger.Info("phase change",
			zap.Stringer(logger.FieldPhase, PhaseReady),
			zap.String(logger.FieldSession, s.ID),
		)
		w.notifyLocked(NotificationSuccess, MessageUploadSuccess)
	}
	w.mu.Unlock()

	w.broadcast()
}

// Send posts a prompt bound to the current session. It holds the workspace
// lock so a concurrent Reset cannot clear the session in between.
func (w *Workspace) Send(prompt string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	sessionID := ""
	if w.session != nil {
		sessionID = w.session.ID
	}
	return w.engine.Send(sessionID, prompt)
}

// CanSend reports whether the composer accepts input: non-blank input, no
// query in flight and a session.
func (w *Workspace) CanSend(input string) bool {
	return w.engine.CanSend(w.sessionID(), input)
}

func (w *Workspace) sessionID() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session == nil {
		return ""
	}
	return w.session.ID
}

// Reset clears documents, session and transcript, returning to the intake view.
func (w *Workspace) Reset() {
	w.mu.Lock()
	if w.uploadCancel != nil {
		w.uploadCancel()
		w.uploadCancel = nil
	}
	w.uploadGen++
	w.uploading = false
	w.resume = nil
	w.pendingJD = nil
	w.jdName = ""
	w.session = nil
	w.engine.Reset()
	w.mu.Unlock()

	w.logger.Info("phase change", zap.Stringer(logger.FieldPhase, PhaseNoDocuments), zap.String("reason", "reset"))
	w.broadcast()
}

func (w *Workspace) View() View {
	messages := w.engine.Messages()
	loading := w.engine.Loading()

	w.mu.Lock()
	defer w.mu.Unlock()

	v := View{
		Uploading: w.uploading,
		PendingJD: w.pendingJD != nil,
		Loading:   loading,
		Messages:  messages,
	}
	if w.resume != nil {
		v.ResumeName = w.resume.DisplayName()
	}
	v.JobDescriptionName = w.jdName
	if w.session != nil {
		v.SessionID = w.session.ID
	}
	if w.notification != nil {
		n := *w.notification
		v.Notification = &n
	}

	switch {
	case v.Uploading:
		v.Phase = PhaseUploading
	case v.SessionID == "":
		v.Phase = PhaseNoDocuments
	case len(v.Messages) == 0:
		v.Phase = PhaseReady
	default:
		v.Phase = PhaseConversing
	}

	return v
}

// Subscribe returns a channel signalled after every change. Signals coalesce,
// so readers should call View after each receive.
func (w *Workspace) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	w.subsMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = ch
	w.subsMu.Unlock()

	return ch, func() {
		w.subsMu.Lock()
		delete(w.subs, id)
		w.subsMu.Unlock()
	}
}

func (w *Workspace) broadcast() {
	w.subsMu.Lock()
	defer w.subsMu.Unlock()

	for _, ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Wait blocks until background uploads and exchanges finish.
func (w *Workspace) Wait() {
	w.wg.Wait()
	w.engine.Wait()
}

// Close cancels outstanding work and waits for it to stop.
func (w *Workspace) Close() {
	w.cancel()
	w.wg.Wait()
	w.engine.Close()

	w.mu.Lock()
	if w.noticeTimer != nil {
		w.noticeTimer.Stop()
	}
	w.mu.Unlock()
}
