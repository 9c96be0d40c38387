package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rbright/soundpp/internal/cli"
	"github.com/rbright/soundpp/internal/host"
	"github.com/rbright/soundpp/internal/ipc"
	"github.com/rbright/soundpp/internal/library"
)

// render prints a successful response as text, or as indented JSON when
// --json is set.
func render(w io.Writer, parsed cli.Parsed, resp ipc.Response) error {
	if parsed.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	switch parsed.View {
	case cli.ViewItems:
		return renderItems(w, resp)
	case cli.ViewGroups:
		return renderGroups(w, resp)
	case cli.ViewSettings:
		var p host.SettingsPayload
		if err := resp.Decode(&p); err != nil {
			return err
		}
		s := p.Settings
		fmt.Fprintf(w, "enableHotkeys=%t\n", s.EnableHotkeys)
		fmt.Fprintf(w, "defaultVolume=%d\n", s.DefaultVolume)
		fmt.Fprintf(w, "muteHotkey=%s\n", s.MuteHotkey)
		fmt.Fprintf(w, "defaultOutputDeviceId=%s\n", s.DefaultOutputDeviceID)
		return nil
	case cli.ViewLibrary:
		var snap host.LibraryData
		if err := resp.Decode(&snap); err != nil {
			return err
		}
		fmt.Fprintf(w, "items=%d | groups=%d\n", len(snap.Items), len(snap.Groups))
		return nil
	}

	return renderDefault(w, parsed.Request.Command, resp)
}

func renderItems(w io.Writer, resp ipc.Response) error {
	var data struct {
		Items []library.Item `json:"items"`
		Item  *library.Item  `json:"item"`
	}
	if err := resp.Decode(&data); err != nil {
		return err
	}
	items := data.Items
	if data.Item != nil {
		items = []library.Item{*data.Item}
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "no items")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(w, "%d | name=%q | group=%s | duration=%s | shortcut=%s\n",
			it.ID, it.Name, it.GroupKey(), it.Duration, orDash(it.Shortcut))
	}
	return nil
}

func renderGroups(w io.Writer, resp ipc.Response) error {
	var data struct {
		Groups []library.Group `json:"groups"`
		Counts library.Counts  `json:"counts"`
		Group  *library.Group  `json:"group"`
	}
	if err := resp.Decode(&data); err != nil {
		return err
	}
	if data.Group != nil {
		g := *data.Group
		fmt.Fprintf(w, "%s | name=%q | description=%q\n", g.Key, g.Name, g.Description)
		return nil
	}
	for _, g := range data.Groups {
		fmt.Fprintf(w, "%s | name=%q | items=%d | description=%q\n", g.Key, g.Name, data.Counts[g.Key], g.Description)
	}
	return nil
}

func renderDefault(w io.Writer, command string, resp ipc.Response) error {
	switch command {
	case host.CmdStatus:
		var st host.StatusData
		if err := resp.Decode(&st); err != nil {
			return err
		}
		state := st.State
		if state == "" {
			state = "idle"
		}
		fmt.Fprintln(w, state)
		if st.Playing != "" {
			fmt.Fprintf(w, "playing=%s\n", st.Playing)
		}
		fmt.Fprintf(w, "volume=%d | muted=%s | registered=%d | suspended=%s\n",
			st.Volume, yesNo(st.Muted), st.Registered, yesNo(st.Suspended))
		return nil
	case host.CmdPlay:
		var p host.PlayData
		if err := resp.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(w, "playing %s\n", p.Path)
		return nil
	case host.CmdStop, host.CmdToggleMute, host.CmdSetVolume:
		var v host.VolumeData
		if err := resp.Decode(&v); err != nil {
			return err
		}
		fmt.Fprintf(w, "volume=%d | muted=%s\n", v.Volume, yesNo(v.Muted))
		return nil
	case host.CmdDeleteItems:
		var d host.DeleteItemsData
		if err := resp.Decode(&d); err != nil {
			return err
		}
		fmt.Fprintf(w, "removed=%d | swept=%d\n", d.Removed, d.Sweep.Removed)
		return nil
	case host.CmdSweep:
		var res library.SweepResult
		if err := resp.Decode(&res); err != nil {
			return err
		}
		fmt.Fprintf(w, "removed=%d\n", res.Removed)
		return nil
	case host.CmdGetAppPaths:
		var p host.AppPathsData
		if err := resp.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintf(w, "userData=%s\ninstall=%s\ndata=%s\nsounds=%s\nsettings=%s\nlibrary=%s\n",
			p.UserDataDir, p.InstallDir, p.DataDir, p.SoundsDir, p.SettingsPath, p.LibraryPath)
		return nil
	case host.CmdExportGroupZip, host.CmdShareGroupZip, host.CmdOpenSoundsDir:
		var p host.PathData
		if err := resp.Decode(&p); err != nil {
			return err
		}
		fmt.Fprintln(w, p.Path)
		return nil
	case host.CmdImportGroupZip:
		var c host.CountData
		if err := resp.Decode(&c); err != nil {
			return err
		}
		fmt.Fprintf(w, "imported %d items\n", c.Count)
		return nil
	case host.CmdDeleteGroup:
		var c host.CountData
		if err := resp.Decode(&c); err != nil {
			return err
		}
		fmt.Fprintf(w, "deleted; %d items moved to ungrouped\n", c.Count)
		return nil
	case host.CmdReapplyShortcuts:
		var res struct {
			Registered int `json:"registered"`
			Failed     []struct {
				Error string `json:"error"`
			} `json:"failed"`
		}
		if err := resp.Decode(&res); err != nil {
			return err
		}
		fmt.Fprintf(w, "registered=%d | failed=%d\n", res.Registered, len(res.Failed))
		for _, f := range res.Failed {
			fmt.Fprintf(w, "  %s\n", f.Error)
		}
		return nil
	}

	if resp.Message != "" {
		fmt.Fprintln(w, resp.Message)
		return nil
	}
	fmt.Fprintln(w, "ok")
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
