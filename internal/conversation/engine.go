package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/resume2job/resume2job/internal/logger"
	"github.com/resume2job/resume2job/internal/utils"
)

const (
	// Apology replaces the assistant placeholder when a query fails.
	Apology = "Sorry, I couldn't process that query right now. Please try again."

	DefaultRevealDelay = 100 * time.Millisecond
)

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrBusy        = errors.New("a query is already in flight")
	ErrNoSession   = errors.New("documents are not uploaded yet")
)

type querier interface {
	Query(ctx context.Context, sessionID, prompt string) (string, error)
}

type Option func(*Engine)

// WithRevealDelay sets the pause between revealed words.
func WithRevealDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithOnChange registers a callback invoked after every transcript change.
func WithOnChange(fn func()) Option {
	return func(e *Engine) { e.onChange = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine keeps the transcript and runs one exchange with the backend at a time.
type Engine struct {
	client   querier
	delay    time.Duration
	wait     func(ctx context.Context, d time.Duration) error
	onChange func()
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu       sync.Mutex
	messages []Message
	loading  bool
	lastID   int64
	gen      uint64
	inflight context.CancelFunc
}

func New(client querier, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		client: client,
		delay:  DefaultRevealDelay,
		wait:   utils.WaitFor,
		logger: zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CanSend reports whether Send would accept input right now.
func (e *Engine) CanSend(sessionID, input string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return strings.TrimSpace(input) != "" && !e.loading && sessionID != ""
}

// Send appends the prompt and an assistant placeholder, then queries the
// backend in the background.
func (e *Engine) Send(sessionID, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if sessionID == "" {
		return ErrNoSession
	}

	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return ErrBusy
	}

	e.loading = true
	e.messages = append(e.messages, Message{ID: e.nextID(), Role: RoleUser, Content: prompt})
	placeholder := e.nextID()
	e.messages = append(e.messages, Message{ID: placeholder, Role: RoleAssistant, Typing: true})

	ctx, cancel := context.WithCancel(e.ctx)
	e.inflight = cancel
	gen := e.gen
	e.mu.Unlock()

	e.changed()

	e.wg.Go(func() {
		defer cancel()
		e.exchange(ctx, gen, placeholder, sessionID, prompt)
	})

	return nil
}

func (e *Engine) exchange(ctx context.Context, gen uint64, id int64, sessionID, prompt string) {
	log := logger.WithSession(e.logger, sessionID, "")

	answer, err := e.client.Query(ctx, sessionID, prompt)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("query abandoned", zap.Error(err))
			return
		}
		log.Error("query error", zap.Error(err))
		e.rewrite(gen, id, Apology, false, true)
		return
	}

	words := strings.Split(answer, " ")
	log.Debug("revealing answer", zap.Int("words", len(words)))

	for i := range words {
		typing := i+1 < len(words)
		if !e.rewrite(gen, id, strings.Join(words[:i+1], " "), typing, false) {
			return
		}
		if err := e.wait(ctx, e.delay); err != nil {
			return
		}
	}

	e.mu.Lock()
	if gen == e.gen {
		e.loading = false
		e.inflight = nil
	}
	e.mu.Unlock()

	e.changed()
}

// rewrite replaces the placeholder content. It reports false once the
// transcript was reset after the exchange started.
func (e *Engine) rewrite(gen uint64, id int64, content string, typing, done bool) bool {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return false
	}

	for i := range e.messages {
		if e.messages[i].ID == id {
			e.messages[i].Content = content
			e.messages[i].Typing = typing
			break
		}
	}
	if done {
		e.loading = false
		e.inflight = nil
	}
	e.mu.Unlock()

	e.changed()
	return true
}

// Messages returns a copy of the transcript.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Message, len(e.messages))
	copy(out, e.messages)
	return out
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.loading
}

// Reset clears the transcript and abandons the exchange in flight.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.inflight != nil {
		e.inflight()
		e.inflight = nil
	}
	e.gen++
	e.messages = nil
	e.loading = false
	e.mu.Unlock()

	e.changed()
}

// Wait blocks until background exchanges finish.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close abandons any exchange and waits for it to stop.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) nextID() int64 {
	e.lastID++
	return e.lastID
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}
