// Package indicator shows transient host notifications and plays short
// audio cues around hotkey recording.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/soundpp/internal/hypr"
	"github.com/rbright/soundpp/internal/logging"
)

const (
	// BackendHypr routes notifications through hyprctl.
	BackendHypr = "hypr"
	// BackendDesktop routes notifications through org.freedesktop.Notifications.
	BackendDesktop = "desktop"

	colorInfo      = "rgb(89b4fa)"
	colorRecording = "rgb(cba6f7)"
	colorError     = "rgb(f38ba8)"

	fallbackInfoTimeout  = 3 * time.Second
	fallbackErrorTimeout = 1200 * time.Millisecond
)

// Options configures a Notifier.
type Options struct {
	Backend      string
	Enable       bool
	SoundEnable  bool
	InfoTimeout  time.Duration
	ErrorTimeout time.Duration
	AppName      string
}

// DefaultOptions enables hyprctl notifications and cues.
func DefaultOptions() Options {
	return Options{
		Backend:      BackendHypr,
		Enable:       true,
		SoundEnable:  true,
		InfoTimeout:  3 * time.Second,
		ErrorTimeout: 4 * time.Second,
		AppName:      "soundpp",
	}
}

// Notifier is the concrete indicator used by the host.
type Notifier struct {
	opts     Options
	logger   *slog.Logger
	messages messages

	mu                    sync.Mutex
	desktopNotificationID uint32
	soundMu               sync.Mutex
}

// New creates a Notifier.
func New(opts Options, logger *slog.Logger) *Notifier {
	return &Notifier{
		opts:     opts,
		logger:   logging.OrDiscard(logger),
		messages: messagesFromEnv(),
	}
}

// Info shows a short-lived message.
func (n *Notifier) Info(ctx context.Context, text string) {
	if !n.opts.Enable || strings.TrimSpace(text) == "" {
		return
	}
	timeout := n.opts.InfoTimeout
	if timeout <= 0 {
		timeout = fallbackInfoTimeout
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.Notification{Icon: hypr.IconInfo, Timeout: timeout, Color: colorInfo, Text: text})
	})
}

// Error shows a failure message, or the generic one when text is empty.
func (n *Notifier) Error(ctx context.Context, text string) {
	if !n.opts.Enable {
		return
	}
	if text == "" {
		text = n.messages.errorText
	}
	timeout := n.opts.ErrorTimeout
	if timeout <= 0 {
		timeout = fallbackErrorTimeout
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.Notification{Icon: hypr.IconError, Timeout: timeout, Color: colorError, Text: text})
	})
}

// ShowRecording signals that hotkeys are suspended while a shortcut is
// being captured. The message stays up until Hide or the recording timeout.
func (n *Notifier) ShowRecording(ctx context.Context, timeout time.Duration) {
	n.playCue(cueStart)
	if !n.opts.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, hypr.Notification{Icon: hypr.IconInfo, Timeout: timeout, Color: colorRecording, Text: n.messages.recording})
	})
}

// RecordingEnded replaces the recording message with the captured shortcut.
func (n *Notifier) RecordingEnded(ctx context.Context, display string, canceled bool) {
	if canceled {
		n.playCue(cueCancel)
	} else {
		n.playCue(cueComplete)
	}
	if !n.opts.Enable {
		return
	}
	n.run(ctx, n.dismiss)
	if canceled || display == "" {
		n.Info(ctx, n.messages.recordCanceled)
		return
	}
	n.Info(ctx, n.messages.recorded+display)
}

// Swept reports removed orphan files.
func (n *Notifier) Swept(ctx context.Context, removed int) {
	if removed <= 0 {
		return
	}
	n.Info(ctx, n.messages.sweptText(removed))
}

// Muted reports a mute toggle.
func (n *Notifier) Muted(ctx context.Context, muted bool) {
	if muted {
		n.Info(ctx, n.messages.muted)
		return
	}
	n.Info(ctx, n.messages.unmuted)
}

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.opts.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// notify dispatches through the configured backend.
func (n *Notifier) notify(ctx context.Context, note hypr.Notification) error {
	if strings.EqualFold(strings.TrimSpace(n.opts.Backend), BackendDesktop) {
		return n.notifyDesktop(ctx, note.Timeout, note.Text)
	}
	return hypr.Notify(ctx, note)
}

func (n *Notifier) dismiss(ctx context.Context) error {
	if strings.EqualFold(strings.TrimSpace(n.opts.Backend), BackendDesktop) {
		return n.dismissDesktop(ctx)
	}
	return hypr.DismissNotify(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, timeout time.Duration, text string) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.opts.AppName)
	if appName == "" {
		appName = "soundpp"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeout)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes a notification with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.logger.Debug("indicator dispatch failed", "error", err.Error())
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.opts.SoundEnable {
		return
	}
	go func() {
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := emitCue(ctx, kind); err != nil {
			n.logger.Debug("indicator audio cue failed", "error", err.Error())
		}
	}()
}
