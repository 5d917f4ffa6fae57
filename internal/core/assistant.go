package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"cinestream.app/cinebot/internal/locale"
	"cinestream.app/cinebot/internal/store"
)

var ErrBusy = errors.New("a recommendation request is already in flight")

// State is the position of an assistant in its submission cycle.
type State int

const (
	StateIdle State = iota
	StateFormatting
	StateAwaitingCompletion
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFormatting:
		return "formatting"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// Assistant runs the recommendation conversation of one session. At most
// one submission is in flight; others are rejected with ErrBusy.
type Assistant struct {
	mu        sync.Mutex
	state     State
	locale    locale.Locale
	conv      *store.Conversation
	completer Completer
	logger    *zap.SugaredLogger
}

// NewAssistant seeds conv with the greeting of l if it is empty.
func NewAssistant(conv *store.Conversation, completer Completer, l locale.Locale, logger *zap.SugaredLogger) *Assistant {
	conv.EnsureSeeded(l)
	return &Assistant{
		state:     StateIdle,
		locale:    l,
		conv:      conv,
		completer: completer,
		logger:    logger,
	}
}

func (a *Assistant) Conversation() *store.Conversation {
	return a.conv
}

func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Pending reports whether a submission is between formatting and settlement.
func (a *Assistant) Pending() bool {
	return a.State() != StateIdle
}

func (a *Assistant) Locale() locale.Locale {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locale
}

// SetLocale switches the instruction used for later requests. Stored
// messages are left alone; the greeting is only added to an empty log.
func (a *Assistant) SetLocale(l locale.Locale) {
	a.mu.Lock()
	a.locale = l
	a.mu.Unlock()
	a.conv.EnsureSeeded(l)
}

// Start records the user message and launches the completion. The returned
// channel receives the model message once it has been appended.
func (a *Assistant) Start(ctx context.Context, text string) (<-chan store.Message, error) {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	if isBlank(text) {
		a.mu.Unlock()
		return nil, ErrEmptyInput
	}

	// Format, then record the user turn before the call goes out
	a.state = StateFormatting
	req, err := BuildRequest(text, a.locale)
	if err != nil {
		a.state = StateIdle
		a.mu.Unlock()
		return nil, err
	}
	a.conv.Append(store.NewMessage(store.RoleUser, text))
	a.state = StateAwaitingCompletion
	a.mu.Unlock()

	done := make(chan store.Message, 1)
	// Closing the session does not cancel the request; the reply lands in
	// the detached conversation.
	go a.run(context.WithoutCancel(ctx), req, done)
	return done, nil
}

// Submit is Start followed by waiting for the reply. If ctx ends first the
// reply is still appended when it arrives.
func (a *Assistant) Submit(ctx context.Context, text string) (store.Message, error) {
	done, err := a.Start(ctx, text)
	if err != nil {
		return store.Message{}, err
	}
	select {
	case msg := <-done:
		return msg, nil
	case <-ctx.Done():
		return store.Message{}, ctx.Err()
	}
}

func (a *Assistant) run(ctx context.Context, req Request, done chan<- store.Message) {
	reply := a.await(ctx, req)
	done <- a.reconcile(reply)
}

// reconcile appends the reply and returns the assistant to idle under a.mu,
// so whoever sees the reply also sees the idle state. Append never blocks.
func (a *Assistant) reconcile(reply string) store.Message {
	msg := store.NewMessage(store.RoleModel, reply)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateReconciling
	a.conv.Append(msg)
	a.state = StateIdle
	return msg
}

// await never panics: anything escaping the completer becomes the
// connection error reply.
func (a *Assistant) await(ctx context.Context, req Request) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Errorw("Completion panicked", "locale", req.Locale, "panic", r)
			reply = locale.For(req.Locale).ConnectionError
		}
	}()
	return a.completer.Complete(ctx, req)
}
