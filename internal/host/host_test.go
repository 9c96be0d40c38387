package host

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
)

type fakePlayer struct {
	mu      sync.Mutex
	played  []string
	sinks   []string
	volume  int
	last    int
	muted   bool
	playing string
}

func (p *fakePlayer) Play(_ context.Context, path, sink string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, path)
	p.sinks = append(p.sinks, sink)
	p.playing = path
	return nil
}

func (p *fakePlayer) Stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	was := p.playing != ""
	p.playing = ""
	return was
}

func (p *fakePlayer) Playing() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing, p.playing != ""
}

func (p *fakePlayer) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *fakePlayer) SetVolume(v int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *fakePlayer) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

func (p *fakePlayer) ToggleMute() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted {
		p.volume, p.muted = max(10, p.last), false
		return p.volume, false
	}
	p.last, p.volume, p.muted = p.volume, 0, true
	return 0, true
}

type fakeBinder struct {
	mu     sync.Mutex
	bound  map[string]string
	reject map[string]bool
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{bound: map[string]string{}, reject: map[string]bool{}}
}

func (b *fakeBinder) Bind(_ context.Context, acc, target string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reject[acc] {
		return errors.New("rejected by compositor")
	}
	b.bound[acc] = target
	return nil
}

func (b *fakeBinder) Unbind(_ context.Context, acc string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.bound, acc)
	return nil
}

func (b *fakeBinder) snapshot() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := map[string]string{}
	for k, v := range b.bound {
		out[k] = v
	}
	return out
}

type fakeNotifier struct {
	nopNotifier
	mu    sync.Mutex
	swept []int
	muted []bool
}

func (n *fakeNotifier) Swept(_ context.Context, removed int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.swept = append(n.swept, removed)
}

func (n *fakeNotifier) Muted(_ context.Context, muted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.muted = append(n.muted, muted)
}

type fakeLauncher struct {
	opened   []string
	revealed []string
}

func (l *fakeLauncher) Open(_ context.Context, target string) error {
	l.opened = append(l.opened, target)
	return nil
}

func (l *fakeLauncher) Reveal(_ context.Context, path string) error {
	l.revealed = append(l.revealed, path)
	return nil
}

type fixture struct {
	svc      *Service
	paths    config.Paths
	store    *library.Store
	player   *fakePlayer
	binder   *fakeBinder
	notifier *fakeNotifier
	launcher *fakeLauncher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	paths := config.Paths{UserDataDir: t.TempDir(), InstallDir: t.TempDir()}
	store, err := library.Open(paths, library.Options{})
	require.NoError(t, err)

	f := fixture{
		paths:    paths,
		store:    store,
		player:   &fakePlayer{},
		binder:   newFakeBinder(),
		notifier: &fakeNotifier{},
		launcher: &fakeLauncher{},
	}
	f.svc = New(Options{
		Paths:    paths,
		Store:    store,
		Settings: config.Default(),
		Registry: hotkey.NewRegistry(f.binder, nil),
		Player:   f.player,
		Notifier: f.notifier,
		Launcher: f.launcher,
		Version:  "test",
		Timeout:  time.Minute,
	})
	return f
}

func (f fixture) call(t *testing.T, command string, params any) ipc.Response {
	t.Helper()
	req, err := ipc.NewRequest(command, params)
	require.NoError(t, err)
	return f.svc.Handle(context.Background(), req)
}

func (f fixture) mustCall(t *testing.T, command string, params any, out any) {
	t.Helper()
	resp := f.call(t, command, params)
	require.True(t, resp.OK, "%s: %s", command, resp.Error)
	if out != nil {
		require.NoError(t, resp.Decode(out))
	}
}

func writeClip(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("clip:"+name), 0o644))
	return path
}

func (f fixture) addClips(t *testing.T, group string, names ...string) []library.Item {
	t.Helper()
	src := t.TempDir()
	var paths []string
	for _, n := range names {
		paths = append(paths, writeClip(t, src, n))
	}
	var data ItemsData
	f.mustCall(t, CmdAddFiles, AddFilesParams{Paths: paths, Group: group}, &data)
	require.Len(t, data.Items, len(names))
	return data.Items
}

func TestSettingsRoundTripAndValidation(t *testing.T) {
	f := newFixture(t)

	var got SettingsPayload
	f.mustCall(t, CmdGetSettings, nil, &got)
	require.Equal(t, 70, got.Settings.DefaultVolume)
	require.Equal(t, 70, f.player.Volume())

	next := got.Settings
	next.DefaultVolume = 35
	next.MuteHotkey = "ctrl+m"
	var saved SettingsPayload
	f.mustCall(t, CmdSaveSettings, SettingsPayload{Settings: next}, &saved)
	require.Equal(t, 35, saved.Settings.DefaultVolume)
	require.Equal(t, 35, f.player.Volume())
	require.Equal(t, hotkey.MuteTarget, f.binder.snapshot()["CommandOrControl+M"])

	loaded, err := config.Load(f.paths)
	require.NoError(t, err)
	require.Equal(t, 35, loaded.Settings.DefaultVolume)

	bad := next
	bad.DefaultVolume = 140
	resp := f.call(t, CmdSaveSettings, SettingsPayload{Settings: bad})
	require.False(t, resp.OK)
	require.Equal(t, 35, f.svc.Settings().DefaultVolume)
}

func TestRejectedSaveLeavesUnknownKeysUntouched(t *testing.T) {
	f := newFixture(t)

	f.mustCall(t, CmdSaveSettings, json.RawMessage(`{"settings":{"theme":"dark"}}`), nil)
	require.Contains(t, f.svc.Settings().Extra, "theme")

	resp := f.call(t, CmdSaveSettings, json.RawMessage(`{"settings":{"defaultVolume":500,"sneaky":true}}`))
	require.False(t, resp.OK)

	current := f.svc.Settings()
	require.Equal(t, 70, current.DefaultVolume)
	require.Len(t, current.Extra, 1)
	require.JSONEq(t, `"dark"`, string(current.Extra["theme"]))

	current.Extra["leak"] = json.RawMessage(`1`)
	require.NotContains(t, f.svc.Settings().Extra, "leak")
}

func TestAddFilesThenPlayByIDPublishesEvent(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.svc.Subscribe()
	defer cancel()

	items := f.addClips(t, "game", "boom.mp3")
	require.Equal(t, "game", items[0].Group)
	require.Equal(t, library.DescriptionImported, items[0].Description)

	var played PlayData
	f.mustCall(t, CmdPlay, PlayParams{ID: items[0].ID}, &played)
	require.Equal(t, items[0].Path, played.Path)
	require.Equal(t, []string{items[0].Path}, f.player.played)
	require.Equal(t, []string{"default"}, f.player.sinks)

	var sawPlay bool
	for !sawPlay {
		select {
		case ev := <-events:
			if ev.Event == EventPlayAudioFile {
				sawPlay = true
				require.Equal(t, items[0].Path, ev.Path)
			}
		case <-time.After(time.Second):
			t.Fatal("play event not published")
		}
	}

	resp := f.call(t, CmdPlay, PlayParams{ID: 404})
	require.False(t, resp.OK)
}

func TestTriggerRoutesMuteAndItems(t *testing.T) {
	f := newFixture(t)
	items := f.addClips(t, "", "a.wav")
	f.player.SetVolume(60)

	var vol VolumeData
	f.mustCall(t, CmdTrigger, TriggerParams{Target: hotkey.MuteTarget}, &vol)
	require.True(t, vol.Muted)
	require.Equal(t, 0, vol.Volume)
	f.mustCall(t, CmdTrigger, TriggerParams{Target: hotkey.MuteTarget}, &vol)
	require.False(t, vol.Muted)
	require.Equal(t, 60, vol.Volume)
	require.Equal(t, []bool{true, false}, f.notifier.muted)

	f.mustCall(t, CmdTrigger, TriggerParams{Target: itemTarget(items[0])}, nil)
	require.Equal(t, []string{items[0].Path}, f.player.played)

	require.False(t, f.call(t, CmdTrigger, TriggerParams{Target: "nope"}).OK)
	require.False(t, f.call(t, CmdTrigger, TriggerParams{}).OK)
}

func TestShortcutRegistrationAndReapply(t *testing.T) {
	f := newFixture(t)
	items := f.addClips(t, "", "a.wav", "b.wav")

	shortcut := "Ctrl+Shift+1"
	f.mustCall(t, CmdUpdateItem, UpdateItemParams{ID: items[0].ID, Patch: library.ItemPatch{Shortcut: &shortcut}}, nil)
	require.Equal(t, itemTarget(items[0]), f.binder.snapshot()["CommandOrControl+Shift+1"])

	stored, err := f.store.Item(items[0].ID)
	require.NoError(t, err)
	require.Equal(t, "CommandOrControl+Shift+1", stored.Shortcut)

	resp := f.call(t, CmdRegisterShortcut, RegisterParams{Accelerator: "control+shift+1", ID: itemTarget(items[1])})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, hotkey.ErrDuplicate.Error())

	f.mustCall(t, CmdUnregisterAllShortcuts, nil, nil)
	require.Empty(t, f.binder.snapshot())

	var applied hotkey.ApplyResult
	f.mustCall(t, CmdReapplyShortcuts, nil, &applied)
	require.Equal(t, 1, applied.Registered)
	require.Empty(t, applied.Failed)

	var st StatusData
	f.mustCall(t, CmdStatus, nil, &st)
	require.Equal(t, "idle", st.State)
	require.Equal(t, 1, st.Registered)
}

func TestShortcutCommandsWithoutRegistry(t *testing.T) {
	paths := config.Paths{UserDataDir: t.TempDir(), InstallDir: t.TempDir()}
	store, err := library.Open(paths, library.Options{})
	require.NoError(t, err)
	svc := New(Options{Paths: paths, Store: store, Settings: config.Default()})

	req, err := ipc.NewRequest(CmdReapplyShortcuts, nil)
	require.NoError(t, err)
	resp := svc.Handle(context.Background(), req)
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "running host")

	req, err = ipc.NewRequest(CmdPlay, PlayParams{Path: "/tmp/x.wav"})
	require.NoError(t, err)
	require.False(t, svc.Handle(context.Background(), req).OK)
}

func TestGroupLifecycle(t *testing.T) {
	f := newFixture(t)

	var g GroupData
	f.mustCall(t, CmdAddGroup, GroupParams{Name: "Team Calls", After: "game"}, &g)
	require.Equal(t, "team-calls", g.Group.Key)

	items := f.addClips(t, g.Group.Key, "hello.mp3")

	f.mustCall(t, CmdRenameGroup, GroupParams{Key: g.Group.Key, Name: "Calls"}, &g)
	require.Equal(t, "Calls", g.Group.Name)
	f.mustCall(t, CmdDescribeGroup, GroupParams{Key: g.Group.Key, Description: "standups"}, &g)
	require.Equal(t, "standups", g.Group.Description)

	f.mustCall(t, CmdReorderGroup, ReorderParams{From: g.Group.Key, To: library.KeyUngrouped}, nil)
	var lib LibraryData
	f.mustCall(t, CmdGetAudioLibrary, nil, &lib)
	require.Equal(t, "team-calls", lib.Groups[0].Key)
	require.Equal(t, 1, lib.Counts["team-calls"])

	resp := f.call(t, CmdDeleteGroup, GroupParams{Key: library.KeyUngrouped})
	require.False(t, resp.OK)

	var moved CountData
	f.mustCall(t, CmdDeleteGroup, GroupParams{Key: "team-calls"}, &moved)
	require.Equal(t, 1, moved.Count)

	it, err := f.store.Item(items[0].ID)
	require.NoError(t, err)
	require.Equal(t, library.KeyUngrouped, it.Group)

	var listed LibraryData
	f.mustCall(t, CmdListItems, ListParams{Group: library.KeyUngrouped, Query: "HEL"}, &listed)
	require.Len(t, listed.Items, 1)
}

func TestDeleteItemsSweepsAndNotifies(t *testing.T) {
	f := newFixture(t)
	items := f.addClips(t, "", "a.mp3", "b.mp3")
	writeClip(t, f.paths.SoundsDir(), "stray.ogg")

	var data DeleteItemsData
	f.mustCall(t, CmdDeleteItems, DeleteItemsParams{IDs: []int64{items[0].ID}}, &data)
	require.Equal(t, 1, data.Removed)
	require.Equal(t, 2, data.Sweep.Removed)
	require.Equal(t, []int{2}, f.notifier.swept)

	_, err := os.Stat(items[0].Path)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(items[1].Path)
	require.NoError(t, err)
}

func TestExportImportThroughHandler(t *testing.T) {
	f := newFixture(t)
	f.addClips(t, "meeting", "intro.mp3", "outro.mp3")

	var exported PathData
	f.mustCall(t, CmdExportGroupZip, ArchiveParams{GroupKey: "meeting", Output: t.TempDir()}, &exported)
	require.FileExists(t, exported.Path)

	var shared PathData
	f.mustCall(t, CmdShareGroupZip, ArchiveParams{GroupKey: "meeting", Output: filepath.Join(t.TempDir(), "share.zip")}, &shared)
	require.Equal(t, []string{shared.Path}, f.launcher.revealed)

	resp := f.call(t, CmdImportGroupZip, ImportParams{})
	require.False(t, resp.OK)
	require.True(t, resp.Canceled)

	var count CountData
	f.mustCall(t, CmdImportGroupZip, ImportParams{Path: exported.Path, TargetGroupKey: "game"}, &count)
	require.Equal(t, 2, count.Count)

	var lib LibraryData
	f.mustCall(t, CmdGetAudioLibrary, nil, &lib)
	require.Equal(t, 2, lib.Counts["game"])
	require.Equal(t, 2, lib.Counts["meeting"])

	resp = f.call(t, CmdExportGroupZip, ArchiveParams{GroupKey: library.KeyAll})
	require.False(t, resp.OK)
}

func TestSaveAudioLibraryAcceptsBothPayloads(t *testing.T) {
	f := newFixture(t)

	full := `{"items":[{"id":1,"name":"x","path":"/tmp/x.mp3","group":"custom"}],"groups":[{"id":"custom","key":"custom","name":"Custom"}]}`
	resp := f.svc.Handle(context.Background(), ipc.Request{Command: CmdSaveAudioLibrary, Params: json.RawMessage(full)})
	require.True(t, resp.OK, resp.Error)

	var lib LibraryData
	require.NoError(t, resp.Decode(&lib))
	require.Len(t, lib.Items, 1)
	keys := []string{}
	for _, g := range lib.Groups {
		keys = append(keys, g.Key)
	}
	require.Contains(t, keys, "custom")
	require.Contains(t, keys, library.KeyUngrouped)

	legacy := `[{"id":2,"name":"y","path":"/tmp/y.mp3"}]`
	resp = f.svc.Handle(context.Background(), ipc.Request{Command: CmdSaveAudioLibrary, Params: json.RawMessage(legacy)})
	require.True(t, resp.OK, resp.Error)
	require.NoError(t, resp.Decode(&lib))
	require.Len(t, lib.Items, 1)
	require.Equal(t, int64(2), lib.Items[0].ID)
	require.Contains(t, groupKeys(lib.Groups), "custom")

	resp = f.svc.Handle(context.Background(), ipc.Request{Command: CmdSaveAudioLibrary, Params: json.RawMessage(`"nope"`)})
	require.False(t, resp.OK)
}

func TestRecordingSessionThroughHandler(t *testing.T) {
	f := newFixture(t)
	items := f.addClips(t, "", "a.wav")
	shortcut := "Ctrl+1"
	f.mustCall(t, CmdUpdateItem, UpdateItemParams{ID: items[0].ID, Patch: library.ItemPatch{Shortcut: &shortcut}}, nil)
	require.Len(t, f.binder.snapshot(), 1)

	events, cancel := f.svc.Subscribe()
	defer cancel()

	f.mustCall(t, CmdRecordStart, nil, nil)
	require.Empty(t, f.binder.snapshot())

	var st StatusData
	f.mustCall(t, CmdStatus, nil, &st)
	require.Equal(t, "recording", st.State)
	require.True(t, st.Suspended)

	var key RecordKeyData
	f.mustCall(t, CmdRecordKey, hotkey.KeyEvent{Key: "Control", Ctrl: true}, &key)
	require.Equal(t, "Ctrl", key.Display)
	f.mustCall(t, CmdRecordKey, hotkey.KeyEvent{Key: "!", Code: "Digit1", Ctrl: true, Shift: true}, &key)
	require.Equal(t, "Ctrl+Shift+1", key.Display)
	require.False(t, key.Ended)

	var ended RecordingEnded
	f.mustCall(t, CmdRecordKeyUp, nil, &ended)
	require.Equal(t, "CommandOrControl+Shift+1", ended.Accelerator)
	require.Equal(t, "keyup", ended.Reason)
	require.Equal(t, 1, ended.Applied.Registered)
	require.Len(t, f.binder.snapshot(), 1)

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Event != EventRecordingEnded {
				continue
			}
			require.Equal(t, "CommandOrControl+Shift+1", ev.Message)
			require.Equal(t, "keyup", ev.ID)
			return
		case <-deadline:
			t.Fatal("recording-ended event not published")
		}
	}
}

func TestRecordingEscapeCommitsNothing(t *testing.T) {
	f := newFixture(t)
	f.mustCall(t, CmdRecordStart, nil, nil)

	var key RecordKeyData
	f.mustCall(t, CmdRecordKey, hotkey.KeyEvent{Key: "Escape"}, &key)
	require.True(t, key.Ended)
	require.NotNil(t, key.Result)
	require.Equal(t, "", key.Result.Accelerator)
	require.Equal(t, "escape", key.Result.Reason)

	require.False(t, f.call(t, CmdRecordKeyUp, nil).OK)
	require.True(t, f.call(t, CmdRecordCancel, nil).OK)
	require.False(t, f.call(t, CmdRecordKey, hotkey.KeyEvent{Key: "a"}).OK)
}

func TestRegisterShortcutRefusedDuringRecording(t *testing.T) {
	f := newFixture(t)
	items := f.addClips(t, "", "a.wav")
	f.mustCall(t, CmdRecordStart, nil, nil)

	resp := f.call(t, CmdRegisterShortcut, RegisterParams{Accelerator: "Ctrl+2", ID: itemTarget(items[0])})
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, hotkey.ErrSuspended.Error())
	require.Empty(t, f.binder.snapshot())

	f.mustCall(t, CmdRecordCancel, nil, nil)
	f.mustCall(t, CmdRegisterShortcut, RegisterParams{Accelerator: "Ctrl+2", ID: itemTarget(items[0])}, nil)
	require.Equal(t, itemTarget(items[0]), f.binder.snapshot()["CommandOrControl+2"])
}

func TestOpenSoundsDirAndAppPaths(t *testing.T) {
	f := newFixture(t)

	var paths AppPathsData
	f.mustCall(t, CmdGetAppPaths, nil, &paths)
	require.Equal(t, f.paths.SoundsDir(), paths.SoundsDir)
	require.Equal(t, f.paths.DataDir(), paths.DataDir)

	var opened PathData
	f.mustCall(t, CmdOpenSoundsDir, OpenParams{PreferredPath: "/definitely/missing"}, &opened)
	require.Equal(t, paths.SoundsDir, opened.Path)

	other := t.TempDir()
	f.mustCall(t, CmdOpenSoundsDir, OpenParams{PreferredPath: other}, &opened)
	require.Equal(t, []string{paths.SoundsDir, other}, f.launcher.opened)
}

func TestStopVolumeAndUnknownCommand(t *testing.T) {
	f := newFixture(t)
	f.player.playing = "/tmp/a.wav"

	var vol VolumeData
	f.mustCall(t, CmdStop, nil, &vol)
	require.True(t, vol.Stopped)

	f.mustCall(t, CmdSetVolume, VolumeParams{Volume: 25}, &vol)
	require.Equal(t, 25, vol.Volume)

	resp := f.call(t, "launchRockets", nil)
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "unknown command")
}

func TestQuitUnregistersAndShutsDown(t *testing.T) {
	f := newFixture(t)
	called := 0
	f.svc.shutdown = func() { called++ }
	items := f.addClips(t, "", "a.wav")
	shortcut := "F9"
	f.mustCall(t, CmdUpdateItem, UpdateItemParams{ID: items[0].ID, Patch: library.ItemPatch{Shortcut: &shortcut}}, nil)
	require.Len(t, f.binder.snapshot(), 1)

	f.mustCall(t, CmdQuit, nil, nil)
	f.mustCall(t, CmdQuit, nil, nil)
	require.Equal(t, 1, called)
	require.Empty(t, f.binder.snapshot())
}

func itemTarget(it library.Item) string {
	return strconv.FormatInt(it.ID, 10)
}

func groupKeys(groups []library.Group) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		keys = append(keys, g.Key)
	}
	return keys
}
