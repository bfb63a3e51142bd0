package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeQuerier struct {
	mu      sync.Mutex
	answer  string
	err     error
	block   chan struct{}
	prompts []string
}

func (f *fakeQuerier) Query(ctx context.Context, sessionID, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, sessionID+":"+prompt)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return f.answer, f.err
}

type recorder struct {
	mu     sync.Mutex
	frames [][]Message
	engine *Engine
}

func (r *recorder) record() {
	msgs := r.engine.Messages()
	r.mu.Lock()
	r.frames = append(r.frames, msgs)
	r.mu.Unlock()
}

func TestSendRevealsAnswerWordByWord(t *testing.T) {
	q := &fakeQuerier{answer: "Hi there"}
	rec := &recorder{}

	var delays []time.Duration
	e := New(q, WithOnChange(rec.record))
	e.wait = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	rec.engine = e

	if err := e.Send("session-1", "Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Wait()

	msgs := e.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "Hello" {
		t.Fatalf("unexpected user message %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant || msgs[1].Content != "Hi there" || msgs[1].Typing {
		t.Fatalf("unexpected assistant message %+v", msgs[1])
	}
	if e.Loading() {
		t.Fatalf("loading guard must clear after the reveal")
	}

	if len(delays) != 2 || delays[0] != DefaultRevealDelay {
		t.Fatalf("expected one %s delay per word, got %v", DefaultRevealDelay, delays)
	}

	// placeholder, "Hi", "Hi there", loading cleared
	if len(rec.frames) != 4 {
		t.Fatalf("expected 4 change notifications, got %d", len(rec.frames))
	}
	placeholder := rec.frames[0][1]
	if placeholder.Content != "" || !placeholder.Typing {
		t.Fatalf("unexpected placeholder %+v", placeholder)
	}
	partial := rec.frames[1][1]
	if partial.Content != "Hi" || !partial.Typing {
		t.Fatalf("unexpected partial reveal %+v", partial)
	}

	if q.prompts[0] != "session-1:Hello" {
		t.Fatalf("unexpected query %v", q.prompts)
	}
}

func TestSendGuards(t *testing.T) {
	q := &fakeQuerier{answer: "ok", block: make(chan struct{})}
	e := New(q, WithRevealDelay(0))

	if err := e.Send("s", "   "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if err := e.Send("", "Hello"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if e.CanSend("", "Hello") || e.CanSend("s", " ") {
		t.Fatalf("CanSend must be false without session or input")
	}
	if !e.CanSend("s", "Hello") {
		t.Fatalf("CanSend must be true when idle with session and input")
	}

	if err := e.Send("s", "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.CanSend("s", "second") {
		t.Fatalf("CanSend must be false while a query is in flight")
	}
	if err := e.Send("s", "second"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	close(q.block)
	e.Wait()

	if len(e.Messages()) != 2 {
		t.Fatalf("rejected sends must not touch the transcript, got %+v", e.Messages())
	}
	if !e.CanSend("s", "second") {
		t.Fatalf("CanSend must be true once the exchange completes")
	}
}

func TestSendFailureShowsApology(t *testing.T) {
	e := New(&fakeQuerier{err: errors.New("bad status: 500")}, WithRevealDelay(0))

	if err := e.Send("s", "Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Wait()

	msgs := e.Messages()
	if msgs[1].Content != Apology || msgs[1].Typing {
		t.Fatalf("unexpected assistant message %+v", msgs[1])
	}
	if e.Loading() {
		t.Fatalf("loading guard must clear after a failure")
	}
}

func TestEmptyAnswerClearsTyping(t *testing.T) {
	e := New(&fakeQuerier{answer: ""}, WithRevealDelay(0))

	if err := e.Send("s", "Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e.Wait()

	msgs := e.Messages()
	if msgs[1].Content != "" || msgs[1].Typing {
		t.Fatalf("unexpected assistant message %+v", msgs[1])
	}
}

func TestResetAbandonsInflightQuery(t *testing.T) {
	q := &fakeQuerier{answer: "late answer", block: make(chan struct{})}
	e := New(q, WithRevealDelay(0))

	if err := e.Send("s", "Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.Reset()
	e.Wait()

	if len(e.Messages()) != 0 {
		t.Fatalf("expected empty transcript, got %+v", e.Messages())
	}
	if e.Loading() {
		t.Fatalf("reset must clear the loading guard")
	}

	q.mu.Lock()
	q.block = nil
	q.mu.Unlock()

	if err := e.Send("s2", "Again"); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
	e.Wait()

	msgs := e.Messages()
	if len(msgs) != 2 || msgs[1].Content != "late answer" {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if msgs[0].ID >= msgs[1].ID {
		t.Fatalf("message ids must increase, got %d then %d", msgs[0].ID, msgs[1].ID)
	}
}

func TestCloseStopsReveal(t *testing.T) {
	e := New(&fakeQuerier{answer: "one two three"})
	e.wait = func(ctx context.Context, _ time.Duration) error {
		<-ctx.Done()
		return ctx.Err()
	}

	if err := e.Send("s", "Hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Close did not stop the reveal")
	}

	if got := e.Messages()[1].Content; got != "one" {
		t.Fatalf("expected reveal to stop after the first word, got %q", got)
	}
}
