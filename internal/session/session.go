// Package session runs shortcut recording sessions: it pauses global
// shortcuts, turns key presses into an accelerator, and restores the
// shortcuts when the session ends.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/soundpp/internal/fsm"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/logging"
)

// DefaultTimeout ends a session whose key-up never arrives.
const DefaultTimeout = 15 * time.Second

// Reason records why a session ended.
type Reason string

const (
	ReasonKeyUp    = Reason(fsm.EventKeyUp)
	ReasonEscape   = Reason(fsm.EventEscape)
	ReasonTimeout  = Reason(fsm.EventTimeout)
	ReasonCancel   = Reason(fsm.EventCancel)
	ReasonReplaced = Reason(fsm.EventReplaced)
)

// Result is the outcome of one recording session.
type Result struct {
	Accelerator string             `json:"accelerator"`
	Display     string             `json:"display"`
	Reason      Reason             `json:"reason"`
	StartedAt   time.Time          `json:"startedAt"`
	FinishedAt  time.Time          `json:"finishedAt"`
	Applied     hotkey.ApplyResult `json:"applied"`
}

// Registry is the recorder-facing subset of hotkey.Registry.
type Registry interface {
	Suspend(context.Context)
	Resume(context.Context, []hotkey.Binding) hotkey.ApplyResult
}

// PlanFunc returns the bindings to restore from persisted state.
type PlanFunc func() []hotkey.Binding

// Options tunes a Recorder.
type Options struct {
	Timeout time.Duration
	Logger  *slog.Logger
	// OnEnd receives every finished session, including timeouts.
	OnEnd func(Result)
}

// Recorder owns at most one recording session at a time.
type Recorder struct {
	registry Registry
	plan     PlanFunc
	logger   *slog.Logger
	timeout  time.Duration
	onEnd    func(Result)

	mu        sync.Mutex
	state     fsm.State
	pending   string
	display   string
	startedAt time.Time
	timer     *time.Timer
	gen       uint64
}

// NewRecorder builds an idle recorder.
func NewRecorder(registry Registry, plan PlanFunc, opts Options) *Recorder {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if plan == nil {
		plan = func() []hotkey.Binding { return nil }
	}
	return &Recorder{
		registry: registry,
		plan:     plan,
		logger:   logging.OrDiscard(opts.Logger),
		timeout:  timeout,
		onEnd:    opts.OnEnd,
		state:    fsm.StateIdle,
	}
}

// State returns the current FSM state snapshot.
func (r *Recorder) State() fsm.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Display returns the text shown while recording.
func (r *Recorder) Display() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.display
}

// Start ends any running session, suspends global shortcuts, and begins
// recording.
func (r *Recorder) Start(ctx context.Context) error {
	r.end(ReasonReplaced)

	if r.registry != nil {
		r.registry.Suspend(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := fsm.Transition(r.state, fsm.EventStart)
	if err != nil {
		return err
	}
	r.state = next
	r.pending = ""
	r.display = ""
	r.startedAt = time.Now()
	r.gen++
	gen := r.gen
	r.timer = time.AfterFunc(r.timeout, func() { r.expire(gen) })
	r.logger.Debug("recording started", "timeout_ms", r.timeout.Milliseconds())
	return nil
}

// KeyDown feeds one key press. A bare modifier only updates the display;
// any other key commits its accelerator. Escape ends the session without
// committing itself.
func (r *Recorder) KeyDown(ev hotkey.KeyEvent) (string, *Result, error) {
	if hotkey.IsEscape(ev) {
		result, ok := r.end(ReasonEscape)
		if !ok {
			return "", nil, fmt.Errorf("key press outside recording: %w", fsm.ErrInvalidTransition)
		}
		return result.Display, &result, nil
	}

	event := fsm.EventKey
	if hotkey.IsModifierKey(ev.Key) {
		event = fsm.EventModifier
	}

	r.mu.Lock()
	next, err := fsm.Transition(r.state, event)
	if err != nil {
		r.mu.Unlock()
		return "", nil, fmt.Errorf("key press outside recording: %w", err)
	}
	r.state = next

	acc := hotkey.FromKeyEvent(ev)
	r.display = hotkey.ToDisplay(acc)
	if event == fsm.EventKey {
		r.pending = acc
	}
	display := r.display
	r.mu.Unlock()
	return display, nil, nil
}

// KeyUp ends the session with whatever was committed.
func (r *Recorder) KeyUp() (Result, bool) {
	return r.end(ReasonKeyUp)
}

// Cancel ends the session from outside, e.g. when the UI closes.
func (r *Recorder) Cancel() (Result, bool) {
	return r.end(ReasonCancel)
}

func (r *Recorder) expire(gen uint64) {
	r.mu.Lock()
	stale := gen != r.gen
	r.mu.Unlock()
	if !stale {
		r.end(ReasonTimeout)
	}
}

// end stops a running session and restores shortcuts. It reports false
// when no session was running.
func (r *Recorder) end(reason Reason) (Result, bool) {
	r.mu.Lock()
	next, err := fsm.Transition(r.state, fsm.Event(reason))
	if err != nil {
		r.mu.Unlock()
		return Result{}, false
	}
	r.state = next
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	result := Result{
		Accelerator: r.pending,
		Display:     hotkey.ToDisplay(r.pending),
		Reason:      reason,
		StartedAt:   r.startedAt,
		FinishedAt:  time.Now(),
	}
	r.mu.Unlock()

	if r.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		result.Applied = r.registry.Resume(ctx, r.plan())
		cancel()
	}

	r.logger.Info("recording ended",
		"reason", result.Reason,
		"accelerator", result.Accelerator,
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"registered", result.Applied.Registered,
		"failed", len(result.Applied.Failed),
	)
	if r.onEnd != nil {
		r.onEnd(result)
	}
	return result, true
}
