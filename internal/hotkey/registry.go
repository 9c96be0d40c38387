package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbright/soundpp/internal/logging"
)

var (
	// ErrDuplicate reports an accelerator that is already registered.
	ErrDuplicate = errors.New("shortcut already registered")
	// ErrSuspended reports a registration attempted while a recording
	// session owns the keyboard.
	ErrSuspended = errors.New("shortcuts suspended while recording")
)

// Binder installs and removes global shortcuts in the desktop session.
type Binder interface {
	Bind(ctx context.Context, accelerator, target string) error
	Unbind(ctx context.Context, accelerator string) error
}

// Binding pairs an accelerator with the target it triggers.
type Binding struct {
	Accelerator string `json:"accelerator"`
	Target      string `json:"target"`
	Label       string `json:"label,omitempty"`
}

// Failure is a binding the registry could not install.
type Failure struct {
	Binding Binding `json:"binding"`
	Error   string  `json:"error"`
}

// ApplyResult summarizes a batch registration.
type ApplyResult struct {
	Registered int       `json:"registered"`
	Failed     []Failure `json:"failed"`
}

// Registry tracks which accelerators are bound and to what. The first
// registration of an accelerator wins; later ones fail with ErrDuplicate.
type Registry struct {
	mu        sync.Mutex
	binder    Binder
	logger    *slog.Logger
	bindings  []Binding
	suspended bool
}

// NewRegistry builds a registry on binder.
func NewRegistry(binder Binder, logger *slog.Logger) *Registry {
	return &Registry{binder: binder, logger: logging.OrDiscard(logger)}
}

// Register binds accelerator to target. It fails with ErrSuspended until
// Resume is called.
func (r *Registry) Register(ctx context.Context, accelerator, target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.suspended {
		return fmt.Errorf("%w: %s", ErrSuspended, ToDisplay(ToAccelerator(accelerator)))
	}
	return r.registerLocked(ctx, Binding{Accelerator: accelerator, Target: target})
}

func (r *Registry) registerLocked(ctx context.Context, b Binding) error {
	b.Accelerator = ToAccelerator(b.Accelerator)
	if _, key := Split(b.Accelerator); key == "" {
		return fmt.Errorf("shortcut %q has no key", b.Accelerator)
	}
	if r.indexLocked(b.Accelerator) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, ToDisplay(b.Accelerator))
	}
	if r.binder != nil {
		if err := r.binder.Bind(ctx, b.Accelerator, b.Target); err != nil {
			return fmt.Errorf("register %s: %w", ToDisplay(b.Accelerator), err)
		}
	}
	r.bindings = append(r.bindings, b)
	r.logger.Debug("shortcut registered", "accelerator", b.Accelerator, "target", b.Target)
	return nil
}

func (r *Registry) indexLocked(accelerator string) int {
	for i, b := range r.bindings {
		if b.Accelerator == accelerator {
			return i
		}
	}
	return -1
}

// UnregisterAll removes every binding. Unbind failures are logged; the
// registry forgets the binding regardless.
func (r *Registry) UnregisterAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterAllLocked(ctx)
}

func (r *Registry) unregisterAllLocked(ctx context.Context) {
	for _, b := range r.bindings {
		if r.binder == nil {
			continue
		}
		if err := r.binder.Unbind(ctx, b.Accelerator); err != nil {
			r.logger.Warn("shortcut unbind failed", "accelerator", b.Accelerator, "error", err.Error())
		}
	}
	r.bindings = nil
}

// IsRegistered reports whether accelerator is currently bound.
func (r *Registry) IsRegistered(accelerator string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexLocked(ToAccelerator(accelerator)) >= 0
}

// Target returns the target bound to accelerator.
func (r *Registry) Target(accelerator string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(ToAccelerator(accelerator)); i >= 0 {
		return r.bindings[i].Target, true
	}
	return "", false
}

// Registered lists the current bindings in registration order.
func (r *Registry) Registered() []Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Binding(nil), r.bindings...)
}

// Suspended reports whether a recording session paused the registry.
func (r *Registry) Suspended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suspended
}

// Suspend unregisters everything so key presses reach the recorder.
func (r *Registry) Suspend(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterAllLocked(ctx)
	r.suspended = true
}

// Resume clears the suspension and applies plan from scratch.
func (r *Registry) Resume(ctx context.Context, plan []Binding) ApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suspended = false
	r.unregisterAllLocked(ctx)
	return r.applyLocked(ctx, plan)
}

// Apply replaces every binding with plan. Each failure is reported and the
// remaining bindings are still attempted.
func (r *Registry) Apply(ctx context.Context, plan []Binding) ApplyResult {
	return r.Resume(ctx, plan)
}

func (r *Registry) applyLocked(ctx context.Context, plan []Binding) ApplyResult {
	result := ApplyResult{Failed: []Failure{}}
	for _, b := range plan {
		if err := r.registerLocked(ctx, b); err != nil {
			r.logger.Warn("shortcut registration failed", "accelerator", b.Accelerator, "target", b.Target, "error", err.Error())
			result.Failed = append(result.Failed, Failure{Binding: b, Error: err.Error()})
			continue
		}
		result.Registered++
	}
	return result
}
