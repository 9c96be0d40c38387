package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
)

// ErrUnknownCommand reports a request for a command the host does not serve.
var ErrUnknownCommand = errors.New("unknown command")

// Handle implements ipc.Handler. Every failure is returned as an
// ok=false response.
func (s *Service) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	resp := s.dispatch(ctx, req)
	if !resp.OK && !resp.Canceled {
		s.logger.Warn("command failed", "command", req.Command, "error", resp.Error)
	} else {
		s.logger.Debug("command handled", "command", req.Command)
	}
	return resp
}

func (s *Service) dispatch(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case CmdPlay:
		var p PlayParams
		return respond(req, &p, func() (any, error) { return s.Play(ctx, p) })
	case CmdTrigger:
		var p TriggerParams
		return respond(req, &p, func() (any, error) { return s.Trigger(ctx, p.Target) })
	case CmdStop:
		data := s.Stop()
		return ipc.Success("stopped", data)
	case CmdToggleMute:
		return respond(req, nil, func() (any, error) { return s.ToggleMute(ctx) })
	case CmdSetVolume:
		var p VolumeParams
		return respond(req, &p, func() (any, error) { return s.SetVolume(p.Volume) })
	case CmdStatus:
		st := s.Status()
		resp := ipc.Success("", st)
		resp.State = st.State
		return resp
	case CmdQuit:
		s.Quit(ctx)
		return ipc.Success("quitting", nil)

	case CmdRegisterShortcut:
		var p RegisterParams
		return respond(req, &p, func() (any, error) { return nil, s.RegisterShortcut(ctx, p) })
	case CmdUnregisterAllShortcuts:
		return respond(req, nil, func() (any, error) { return nil, s.UnregisterAllShortcuts(ctx) })
	case CmdReapplyShortcuts:
		return respond(req, nil, func() (any, error) { return s.ReapplyShortcuts(ctx) })

	case CmdGetSettings:
		return ipc.Success("", SettingsPayload{Settings: s.Settings()})
	case CmdSaveSettings:
		var p SettingsPayload
		p.Settings = s.Settings()
		return respond(req, &p, func() (any, error) {
			saved, err := s.SaveSettings(ctx, p.Settings)
			return SettingsPayload{Settings: saved}, err
		})

	case CmdGetAudioLibrary:
		return ipc.Success("", s.Library())
	case CmdSaveAudioLibrary:
		payload, err := library.ParsePayload(req.Params)
		if err != nil {
			return ipc.Failure(err)
		}
		return respond(req, nil, func() (any, error) { return s.SaveLibrary(ctx, payload) })
	case CmdListItems:
		var p ListParams
		return respond(req, &p, func() (any, error) { return s.ListItems(p), nil })

	case CmdExportGroupZip:
		var p ArchiveParams
		return respond(req, &p, func() (any, error) { return s.ExportGroup(p) })
	case CmdShareGroupZip:
		var p ArchiveParams
		return respond(req, &p, func() (any, error) { return s.ShareGroup(ctx, p) })
	case CmdImportGroupZip:
		var p ImportParams
		if err := req.Decode(&p); err != nil {
			return ipc.Failure(err)
		}
		if p.Path == "" {
			return ipc.Response{OK: false, Canceled: true}
		}
		return respond(req, nil, func() (any, error) { return s.ImportGroup(ctx, p) })
	case CmdGetAppPaths:
		return ipc.Success("", s.AppPaths())
	case CmdOpenSoundsDir:
		var p OpenParams
		return respond(req, &p, func() (any, error) { return s.OpenSoundsDir(ctx, p) })

	case CmdAddFiles:
		var p AddFilesParams
		return respond(req, &p, func() (any, error) { return s.AddFiles(ctx, p) })
	case CmdUpdateItem:
		var p UpdateItemParams
		return respond(req, &p, func() (any, error) { return s.UpdateItem(ctx, p) })
	case CmdDeleteItems:
		var p DeleteItemsParams
		return respond(req, &p, func() (any, error) { return s.DeleteItems(ctx, p) })
	case CmdMoveItem:
		var p MoveItemParams
		return respond(req, &p, func() (any, error) { return s.MoveItem(ctx, p) })
	case CmdAddGroup:
		var p GroupParams
		return respond(req, &p, func() (any, error) { return s.AddGroup(p) })
	case CmdRenameGroup:
		var p GroupParams
		return respond(req, &p, func() (any, error) { return s.RenameGroup(p) })
	case CmdDescribeGroup:
		var p GroupParams
		return respond(req, &p, func() (any, error) { return s.DescribeGroup(p) })
	case CmdDeleteGroup:
		var p GroupParams
		return respond(req, &p, func() (any, error) { return s.DeleteGroup(p) })
	case CmdReorderGroup:
		var p ReorderParams
		return respond(req, &p, func() (any, error) { return nil, s.ReorderGroup(p) })
	case CmdSlice:
		var p SliceParams
		return respond(req, &p, func() (any, error) { return s.Slice(p) })
	case CmdSweep:
		return respond(req, nil, func() (any, error) { return s.Sweep(ctx) })

	case CmdRecordStart:
		return respond(req, nil, func() (any, error) { return nil, s.RecordStart(ctx) })
	case CmdRecordKey:
		var ev hotkey.KeyEvent
		return respond(req, &ev, func() (any, error) { return s.RecordKey(ev) })
	case CmdRecordKeyUp:
		res, ok := s.RecordKeyUp()
		if !ok {
			return ipc.Failure(errors.New("no recording in progress"))
		}
		return ipc.Success("", res)
	case CmdRecordCancel:
		res, ok := s.RecordCancel()
		if !ok {
			return ipc.Success("idle", nil)
		}
		return ipc.Success("", res)

	default:
		return ipc.Failure(fmt.Errorf("%w: %q", ErrUnknownCommand, req.Command))
	}
}

// respond decodes params into dst (when non-nil), runs fn, and wraps the outcome.
func respond(req ipc.Request, dst any, fn func() (any, error)) ipc.Response {
	if dst != nil {
		if err := req.Decode(dst); err != nil {
			return ipc.Failure(err)
		}
	}
	data, err := fn()
	if err != nil {
		return ipc.Failure(err)
	}
	return ipc.Success("", data)
}
