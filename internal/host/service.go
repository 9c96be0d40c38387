// Package host serves the SoundPP command contract: it owns the library,
// the settings, the global shortcuts, the recorder, and playback.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rbright/soundpp/internal/archive"
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/desktop"
	"github.com/rbright/soundpp/internal/fsm"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
	"github.com/rbright/soundpp/internal/logging"
	"github.com/rbright/soundpp/internal/probe"
	"github.com/rbright/soundpp/internal/session"
)

// ErrNoHotkeys reports a shortcut command served without a registry,
// i.e. outside a running host.
var ErrNoHotkeys = errors.New("global shortcuts need a running host (soundpp serve)")

// Player is the playback surface the service drives.
type Player interface {
	Play(ctx context.Context, path, sink string) error
	Stop() bool
	Playing() (string, bool)
	Volume() int
	SetVolume(v int)
	Muted() bool
	ToggleMute() (int, bool)
}

// Notifier shows transient desktop messages.
type Notifier interface {
	Info(ctx context.Context, text string)
	Error(ctx context.Context, text string)
	ShowRecording(ctx context.Context, timeout time.Duration)
	RecordingEnded(ctx context.Context, display string, canceled bool)
	Swept(ctx context.Context, removed int)
	Muted(ctx context.Context, muted bool)
	Hide(ctx context.Context)
}

// Launcher opens directories and reveals files.
type Launcher interface {
	Open(ctx context.Context, target string) error
	Reveal(ctx context.Context, path string) error
}

// Options wires a Service. Registry, Notifier, and Launcher are optional.
type Options struct {
	Paths    config.Paths
	Store    *library.Store
	Settings config.Settings
	Registry *hotkey.Registry
	Player   Player
	Notifier Notifier
	Launcher Launcher
	Broker   *Broker
	Version  string
	Timeout  time.Duration
	Logger   *slog.Logger
	// Shutdown is called once by the quit command.
	Shutdown func()
}

// Service implements every host command against its collaborators.
type Service struct {
	paths    config.Paths
	store    *library.Store
	registry *hotkey.Registry
	recorder *session.Recorder
	player   Player
	notifier Notifier
	launcher Launcher
	broker   *Broker
	version  string
	timeout  time.Duration
	logger   *slog.Logger

	settingsMu sync.Mutex
	settings   config.Settings

	shutdownOnce sync.Once
	shutdown     func()
}

// New builds a Service.
func New(opts Options) *Service {
	s := &Service{
		paths:    opts.Paths,
		store:    opts.Store,
		registry: opts.Registry,
		player:   opts.Player,
		notifier: opts.Notifier,
		launcher: opts.Launcher,
		broker:   opts.Broker,
		version:  opts.Version,
		timeout:  opts.Timeout,
		logger:   logging.OrDiscard(opts.Logger),
		settings: config.Merge(opts.Settings),
		shutdown: opts.Shutdown,
	}
	if s.timeout <= 0 {
		s.timeout = session.DefaultTimeout
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.broker == nil {
		s.broker = NewBroker()
	}
	if s.player != nil {
		s.player.SetVolume(s.settings.DefaultVolume)
	}

	var reg session.Registry
	if s.registry != nil {
		reg = s.registry
	}
	s.recorder = session.NewRecorder(reg, s.plan, session.Options{
		Timeout: s.timeout,
		Logger:  s.logger,
		OnEnd:   s.recordingEnded,
	})
	return s
}

// Subscribe implements ipc.Streamer.
func (s *Service) Subscribe() (<-chan ipc.Event, func()) {
	return s.broker.Subscribe()
}

// Broker exposes the event broker.
func (s *Service) Broker() *Broker {
	return s.broker
}

// Recorder exposes the recording session controller.
func (s *Service) Recorder() *session.Recorder {
	return s.recorder
}

func (s *Service) publish(ev ipc.Event) {
	s.broker.Publish(ev)
}

// Settings returns the in-memory settings.
func (s *Service) Settings() config.Settings {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	return s.settings.Clone()
}

// SaveSettings merges, validates, and persists settings, then applies the
// new volume and shortcut plan.
func (s *Service) SaveSettings(ctx context.Context, next config.Settings) (config.Settings, error) {
	s.settingsMu.Lock()
	saved, err := config.Save(s.paths, next)
	if err == nil {
		s.settings = saved
	}
	s.settingsMu.Unlock()
	if err != nil {
		return config.Settings{}, err
	}

	if s.player != nil {
		s.player.SetVolume(saved.DefaultVolume)
	}
	s.reapplyQuiet(ctx)
	s.publish(ipc.Event{Event: EventSettingsChanged})
	return saved, nil
}

func (s *Service) plan() []hotkey.Binding {
	return hotkey.Plan(s.store.Items(library.KeyAll), s.Settings())
}

// Startup sweeps orphans, applies shortcuts, and reports the sweep.
func (s *Service) Startup(ctx context.Context) hotkey.ApplyResult {
	if res, err := s.store.Sweep(); err != nil {
		s.logger.Warn("startup sweep failed", "error", err.Error())
	} else {
		s.reportSweep(ctx, res)
	}
	result, _ := s.ReapplyShortcuts(ctx)
	return result
}

// FillDurations probes items that still have an unknown duration.
func (s *Service) FillDurations(ctx context.Context) error {
	n, err := probe.FillMissing(ctx, s.store, probe.DefaultConcurrency, s.logger)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("filled missing durations", "count", n)
		s.publish(ipc.Event{Event: EventLibraryChanged})
	}
	return nil
}

func (s *Service) reportSweep(ctx context.Context, res library.SweepResult) {
	for _, f := range res.Failures {
		s.logger.Warn("sweep failed to remove file", "path", f.Path, "error", f.Err.Error())
	}
	if res.Removed > 0 {
		s.notifier.Swept(ctx, res.Removed)
		s.publish(ipc.Event{Event: EventNotification, Message: fmt.Sprintf("已清理 %d 个未引用的音频文件", res.Removed)})
	}
}

// Play starts the clip addressed by params.
func (s *Service) Play(ctx context.Context, p PlayParams) (PlayData, error) {
	if s.player == nil {
		return PlayData{}, errors.New("playback is not available")
	}
	path := strings.TrimSpace(p.Path)
	id := ""
	if path == "" {
		it, err := s.store.Item(p.ID)
		if err != nil {
			return PlayData{}, err
		}
		path = it.Path
		id = strconv.FormatInt(it.ID, 10)
	}
	if err := s.player.Play(ctx, path, s.Settings().DefaultOutputDeviceID); err != nil {
		return PlayData{}, fmt.Errorf("play %q: %w", path, err)
	}
	s.publish(ipc.Event{Event: EventPlayAudioFile, ID: id, Path: path})
	return PlayData{Path: path}, nil
}

// Trigger handles a fired global shortcut.
func (s *Service) Trigger(ctx context.Context, target string) (any, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, errors.New("trigger target is required")
	}
	s.publish(ipc.Event{Event: EventShortcutTriggered, ID: target})
	if target == hotkey.MuteTarget {
		return s.ToggleMute(ctx)
	}
	id, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: trigger target %q", library.ErrNotFound, target)
	}
	return s.Play(ctx, PlayParams{ID: id})
}

// Stop halts playback.
func (s *Service) Stop() VolumeData {
	if s.player == nil {
		return VolumeData{}
	}
	stopped := s.player.Stop()
	return VolumeData{Volume: s.player.Volume(), Muted: s.player.Muted(), Stopped: stopped}
}

// ToggleMute mutes or restores the player volume.
func (s *Service) ToggleMute(ctx context.Context) (VolumeData, error) {
	if s.player == nil {
		return VolumeData{}, errors.New("playback is not available")
	}
	vol, muted := s.player.ToggleMute()
	s.notifier.Muted(ctx, muted)
	s.publish(ipc.Event{Event: EventMuteChanged, Message: strconv.Itoa(vol)})
	return VolumeData{Volume: vol, Muted: muted}, nil
}

// SetVolume changes the runtime volume without touching settings.
func (s *Service) SetVolume(v int) (VolumeData, error) {
	if s.player == nil {
		return VolumeData{}, errors.New("playback is not available")
	}
	s.player.SetVolume(v)
	return VolumeData{Volume: s.player.Volume(), Muted: s.player.Muted()}, nil
}

// Status reports host state.
func (s *Service) Status() StatusData {
	st := StatusData{State: string(s.recorder.State()), Version: s.version}
	if s.player != nil {
		st.Playing, _ = s.player.Playing()
		st.Volume = s.player.Volume()
		st.Muted = s.player.Muted()
	}
	if s.registry != nil {
		st.Registered = len(s.registry.Registered())
		st.Suspended = s.registry.Suspended()
	}
	return st
}

// Quit unregisters shortcuts, stops playback, and signals shutdown.
func (s *Service) Quit(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		s.recorder.Cancel()
		if s.registry != nil {
			s.registry.UnregisterAll(ctx)
		}
		if s.player != nil {
			s.player.Stop()
		}
		s.publish(ipc.Event{Event: EventQuit})
		if s.shutdown != nil {
			s.shutdown()
		}
	})
}

// RegisterShortcut binds one accelerator to an item id.
func (s *Service) RegisterShortcut(ctx context.Context, p RegisterParams) error {
	if s.registry == nil {
		return ErrNoHotkeys
	}
	acc := hotkey.ToAccelerator(p.Accelerator)
	if acc == "" {
		return errors.New("accelerator is required")
	}
	return s.registry.Register(ctx, acc, p.ID)
}

// UnregisterAllShortcuts removes every global shortcut.
func (s *Service) UnregisterAllShortcuts(ctx context.Context) error {
	if s.registry == nil {
		return ErrNoHotkeys
	}
	s.registry.UnregisterAll(ctx)
	return nil
}

// ReapplyShortcuts replaces the registered shortcuts with the plan built
// from settings and library.
func (s *Service) ReapplyShortcuts(ctx context.Context) (hotkey.ApplyResult, error) {
	if s.registry == nil {
		return hotkey.ApplyResult{}, ErrNoHotkeys
	}
	if s.recorder.State() == fsm.StateRecording {
		// The recorder re-applies the plan when the session ends.
		return hotkey.ApplyResult{}, nil
	}
	return s.registry.Apply(ctx, s.plan()), nil
}

func (s *Service) reapplyQuiet(ctx context.Context) {
	if s.registry == nil {
		return
	}
	_, _ = s.ReapplyShortcuts(ctx)
}

// Library returns the snapshot with counts.
func (s *Service) Library() LibraryData {
	snap := s.store.Snapshot()
	return LibraryData{Items: snap.Items, Groups: snap.Groups, Counts: library.CountItems(snap.Items, snap.Groups)}
}

// ListItems filters the library by group and search text.
func (s *Service) ListItems(p ListParams) LibraryData {
	snap := s.store.Snapshot()
	group := p.Group
	if group == "" {
		group = library.KeyAll
	}
	return LibraryData{
		Items:  library.Filter(snap.Items, snap.Groups, group, p.Query),
		Groups: snap.Groups,
		Counts: library.CountItems(snap.Items, snap.Groups),
	}
}

// SaveLibrary persists a full or items-only payload.
func (s *Service) SaveLibrary(ctx context.Context, p library.Payload) (LibraryData, error) {
	if err := s.store.SavePayload(p); err != nil {
		return LibraryData{}, err
	}
	s.libraryChanged(ctx)
	return s.Library(), nil
}

func (s *Service) libraryChanged(ctx context.Context) {
	s.reapplyQuiet(ctx)
	s.publish(ipc.Event{Event: EventLibraryChanged})
}

func (s *Service) archiveOptions() archive.Options {
	return archive.Options{Version: s.version, Logger: s.logger}
}

// ExportGroup writes a group archive.
func (s *Service) ExportGroup(p ArchiveParams) (PathData, error) {
	path, err := archive.Export(s.store, p.GroupKey, p.Output, s.archiveOptions())
	if err != nil {
		return PathData{}, err
	}
	return PathData{Path: path}, nil
}

// ShareGroup exports a group archive and reveals it.
func (s *Service) ShareGroup(ctx context.Context, p ArchiveParams) (PathData, error) {
	var revealer archive.Revealer
	if s.launcher != nil {
		revealer = s.launcher
	}
	path, err := archive.Share(ctx, s.store, p.GroupKey, p.Output, s.archiveOptions(), revealer)
	if err != nil {
		return PathData{}, err
	}
	return PathData{Path: path}, nil
}

// ImportGroup unpacks an archive into the library.
func (s *Service) ImportGroup(ctx context.Context, p ImportParams) (CountData, error) {
	n, err := archive.Import(s.store, p.Path, p.TargetGroupKey, s.archiveOptions())
	if err != nil {
		return CountData{}, err
	}
	s.libraryChanged(ctx)
	return CountData{Count: n}, nil
}

// AppPaths lists the resolved directories.
func (s *Service) AppPaths() AppPathsData {
	return AppPathsData{
		DataDir:      s.paths.DataDir(),
		SoundsDir:    s.paths.SoundsDir(),
		UserDataDir:  s.paths.UserDataDir,
		InstallDir:   s.paths.InstallDir,
		SettingsPath: s.paths.SettingsPath(),
		LibraryPath:  s.paths.LibraryPath(),
	}
}

// OpenSoundsDir opens the preferred path when it exists, else the sounds directory.
func (s *Service) OpenSoundsDir(ctx context.Context, p OpenParams) (PathData, error) {
	target, err := desktop.ResolveTarget(p.PreferredPath, s.paths.SoundsDir())
	if err != nil {
		return PathData{}, err
	}
	if s.launcher == nil {
		return PathData{Path: target}, nil
	}
	if err := s.launcher.Open(ctx, target); err != nil {
		return PathData{}, err
	}
	return PathData{Path: target}, nil
}

// AddFiles imports audio files and probes their durations.
func (s *Service) AddFiles(ctx context.Context, p AddFilesParams) (ItemsData, error) {
	added, err := s.store.AddFiles(p.Paths, p.Group)
	if len(added) == 0 {
		return ItemsData{}, err
	}
	if err != nil {
		s.logger.Warn("some files were not added", "error", err.Error())
	}
	for i, it := range added {
		label := probe.Label(it.Path)
		if label == library.UnknownDuration {
			continue
		}
		if setErr := s.store.SetDuration(it.ID, label); setErr != nil {
			s.logger.Warn("store probed duration failed", "id", it.ID, "error", setErr.Error())
			continue
		}
		added[i].Duration = label
	}
	s.libraryChanged(ctx)
	return ItemsData{Items: added}, nil
}

// UpdateItem edits one item.
func (s *Service) UpdateItem(ctx context.Context, p UpdateItemParams) (ItemData, error) {
	if p.Patch.Shortcut != nil {
		acc := hotkey.ToAccelerator(*p.Patch.Shortcut)
		p.Patch.Shortcut = &acc
	}
	it, err := s.store.UpdateItem(p.ID, p.Patch)
	if err != nil {
		return ItemData{}, err
	}
	s.libraryChanged(ctx)
	return ItemData{Item: it}, nil
}

// DeleteItems removes items and sweeps their files.
func (s *Service) DeleteItems(ctx context.Context, p DeleteItemsParams) (DeleteItemsData, error) {
	removed, sweep, err := s.store.DeleteItems(p.IDs...)
	if err != nil {
		return DeleteItemsData{}, err
	}
	s.reportSweep(ctx, sweep)
	s.libraryChanged(ctx)
	return DeleteItemsData{Removed: removed, Sweep: sweep}, nil
}

// MoveItem moves one item to another group.
func (s *Service) MoveItem(ctx context.Context, p MoveItemParams) (ItemData, error) {
	it, err := s.store.MoveItem(p.ID, p.Group)
	if err != nil {
		return ItemData{}, err
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return ItemData{Item: it}, nil
}

// AddGroup creates a group after p.After.
func (s *Service) AddGroup(p GroupParams) (GroupData, error) {
	g, err := s.store.AddGroup(p.Name, p.After)
	if err != nil {
		return GroupData{}, err
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return GroupData{Group: g}, nil
}

// RenameGroup changes a group's display name.
func (s *Service) RenameGroup(p GroupParams) (GroupData, error) {
	g, err := s.store.RenameGroup(p.Key, p.Name)
	if err != nil {
		return GroupData{}, err
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return GroupData{Group: g}, nil
}

// DescribeGroup changes a group's description.
func (s *Service) DescribeGroup(p GroupParams) (GroupData, error) {
	g, err := s.store.DescribeGroup(p.Key, p.Description)
	if err != nil {
		return GroupData{}, err
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return GroupData{Group: g}, nil
}

// DeleteGroup removes a group, moving its items to ungrouped.
func (s *Service) DeleteGroup(p GroupParams) (CountData, error) {
	moved, err := s.store.DeleteGroup(p.Key)
	if err != nil {
		return CountData{}, err
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return CountData{Count: moved}, nil
}

// ReorderGroup moves one group to another's position.
func (s *Service) ReorderGroup(p ReorderParams) error {
	if err := s.store.ReorderGroup(p.From, p.To); err != nil {
		return err
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return nil
}

// Slice cuts a range of an item into a new item.
func (s *Service) Slice(p SliceParams) (ItemData, error) {
	it, err := s.store.Slice(p.ID, p.Start, p.End)
	if err != nil {
		return ItemData{}, err
	}
	if label := probe.Label(it.Path); label != library.UnknownDuration {
		if err := s.store.SetDuration(it.ID, label); err == nil {
			it.Duration = label
		}
	}
	s.publish(ipc.Event{Event: EventLibraryChanged})
	return ItemData{Item: it}, nil
}

// Sweep removes orphaned files from the sounds directory.
func (s *Service) Sweep(ctx context.Context) (library.SweepResult, error) {
	res, err := s.store.Sweep()
	if err != nil {
		return res, err
	}
	s.reportSweep(ctx, res)
	return res, nil
}

// RecordStart begins a shortcut recording session.
func (s *Service) RecordStart(ctx context.Context) error {
	if err := s.recorder.Start(ctx); err != nil {
		return err
	}
	s.notifier.ShowRecording(ctx, s.timeout)
	return nil
}

// RecordKey feeds one key press into the session.
func (s *Service) RecordKey(ev hotkey.KeyEvent) (RecordKeyData, error) {
	display, result, err := s.recorder.KeyDown(ev)
	if err != nil {
		return RecordKeyData{}, err
	}
	if result == nil {
		return RecordKeyData{Display: display}, nil
	}
	ended := wireResult(*result)
	return RecordKeyData{Display: display, Ended: true, Result: &ended}, nil
}

// RecordKeyUp ends the session with the committed accelerator.
func (s *Service) RecordKeyUp() (RecordingEnded, bool) {
	res, ok := s.recorder.KeyUp()
	return wireResult(res), ok
}

// RecordCancel abandons the session.
func (s *Service) RecordCancel() (RecordingEnded, bool) {
	res, ok := s.recorder.Cancel()
	return wireResult(res), ok
}

func (s *Service) recordingEnded(res session.Result) {
	canceled := res.Accelerator == "" || res.Reason == session.ReasonCancel || res.Reason == session.ReasonReplaced
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.notifier.RecordingEnded(ctx, res.Display, canceled)
	s.publish(ipc.Event{Event: EventRecordingEnded, ID: string(res.Reason), Message: res.Accelerator})
}

func wireResult(res session.Result) RecordingEnded {
	display := res.Display
	if res.Accelerator == "" {
		display = ""
	}
	return RecordingEnded{
		Accelerator: res.Accelerator,
		Display:     display,
		Reason:      string(res.Reason),
		Applied:     res.Applied,
	}
}

type nopNotifier struct{}

func (nopNotifier) Info(context.Context, string)                 {}
func (nopNotifier) Error(context.Context, string)                {}
func (nopNotifier) ShowRecording(context.Context, time.Duration) {}
func (nopNotifier) RecordingEnded(context.Context, string, bool) {}
func (nopNotifier) Swept(context.Context, int)                   {}
func (nopNotifier) Muted(context.Context, bool)                  {}
func (nopNotifier) Hide(context.Context)                         {}
