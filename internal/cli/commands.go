package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbright/soundpp/internal/host"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/library"
)

func addPlaybackCommands(root *cobra.Command, parsed *Parsed) {
	play := &cobra.Command{
		Use:   "play <id|path>",
		Short: "Play an item by id, or any audio file by path",
		Args:  cobra.ExactArgs(1),
	}
	noWait := play.Flags().Bool("no-wait", false, "Return immediately when playing without a host")
	play.RunE = func(cmd *cobra.Command, args []string) error {
		parsed.Wait = !*noWait
		return request(parsed, host.CmdPlay, ViewDefault, func(args []string) (any, error) {
			if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
				return host.PlayParams{ID: id}, nil
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return nil, err
			}
			return host.PlayParams{Path: path}, nil
		})(cmd, args)
	}

	trigger := &cobra.Command{
		Use:    "trigger <target>",
		Short:  "Fire a registered shortcut target (used by compositor bindings)",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: request(parsed, host.CmdTrigger, ViewDefault, func(args []string) (any, error) {
			return host.TriggerParams{Target: args[0]}, nil
		}),
	}

	volume := &cobra.Command{
		Use:   "volume <0-100>",
		Short: "Set the playback volume until the host restarts",
		Args:  cobra.ExactArgs(1),
		RunE: request(parsed, host.CmdSetVolume, ViewDefault, func(args []string) (any, error) {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 || v > 100 {
				return nil, fmt.Errorf("volume must be an integer between 0 and 100, got %q", args[0])
			}
			return host.VolumeParams{Volume: v}, nil
		}),
	}

	shortcuts := &cobra.Command{Use: "shortcuts", Short: "Manage global shortcut registrations", Args: noArgs}
	shortcuts.AddCommand(
		&cobra.Command{
			Use:   "apply",
			Short: "Re-register every shortcut from the library and settings",
			Args:  noArgs,
			RunE:  request(parsed, host.CmdReapplyShortcuts, ViewDefault, nil),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Unregister every global shortcut",
			Args:  noArgs,
			RunE:  request(parsed, host.CmdUnregisterAllShortcuts, ViewDefault, nil),
		},
		&cobra.Command{
			Use:   "register <accelerator> <id>",
			Short: "Register one shortcut without saving it",
			Args:  cobra.ExactArgs(2),
			RunE: request(parsed, host.CmdRegisterShortcut, ViewDefault, func(args []string) (any, error) {
				acc := hotkey.ToAccelerator(args[0])
				if acc == "" {
					return nil, fmt.Errorf("invalid accelerator %q", args[0])
				}
				return host.RegisterParams{Accelerator: acc, ID: args[1]}, nil
			}),
		},
	)

	root.AddCommand(
		play,
		trigger,
		volume,
		shortcuts,
		&cobra.Command{Use: "stop", Short: "Stop playback", Args: noArgs, RunE: request(parsed, host.CmdStop, ViewDefault, nil)},
		&cobra.Command{Use: "mute", Short: "Toggle mute", Args: noArgs, RunE: request(parsed, host.CmdToggleMute, ViewDefault, nil)},
		&cobra.Command{Use: "status", Short: "Print host state", Args: noArgs, RunE: request(parsed, host.CmdStatus, ViewDefault, nil)},
		&cobra.Command{Use: "quit", Short: "Stop the running host", Args: noArgs, RunE: request(parsed, host.CmdQuit, ViewDefault, nil)},
	)
}

func addLibraryCommands(root *cobra.Command, parsed *Parsed) {
	list := &cobra.Command{Use: "list", Short: "List items", Args: noArgs}
	listGroup := list.Flags().StringP("group", "g", library.KeyAll, "Group key")
	listQuery := list.Flags().StringP("query", "q", "", "Case-insensitive search on name and description")
	list.RunE = request(parsed, host.CmdListItems, ViewItems, func([]string) (any, error) {
		return host.ListParams{Group: *listGroup, Query: *listQuery}, nil
	})

	add := &cobra.Command{Use: "add <file>...", Short: "Copy audio files into the library", Args: cobra.MinimumNArgs(1)}
	addGroup := add.Flags().StringP("group", "g", "", "Destination group key (default ungrouped)")
	add.RunE = request(parsed, host.CmdAddFiles, ViewItems, func(args []string) (any, error) {
		paths, err := absPaths(args)
		if err != nil {
			return nil, err
		}
		return host.AddFilesParams{Paths: paths, Group: *addGroup}, nil
	})

	remove := &cobra.Command{
		Use:   "remove <id>...",
		Short: "Delete items and sweep their files",
		Args:  cobra.MinimumNArgs(1),
		RunE: request(parsed, host.CmdDeleteItems, ViewDefault, func(args []string) (any, error) {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			}
			return host.DeleteItemsParams{IDs: ids}, nil
		}),
	}

	move := &cobra.Command{
		Use:   "move <id> <group>",
		Short: "Move an item to another group",
		Args:  cobra.ExactArgs(2),
		RunE: request(parsed, host.CmdMoveItem, ViewItems, func(args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return host.MoveItemParams{ID: id, Group: args[1]}, nil
		}),
	}

	edit := &cobra.Command{Use: "edit <id>", Short: "Edit an item's name, description, or shortcut", Args: cobra.ExactArgs(1)}
	editName := edit.Flags().String("name", "", "New name")
	editDesc := edit.Flags().String("description", "", "New description")
	editShortcut := edit.Flags().String("shortcut", "", `Shortcut such as "Ctrl+Shift+1"; empty clears it`)
	edit.RunE = request(parsed, host.CmdUpdateItem, ViewItems, func(args []string) (any, error) {
		id, err := parseID(args[0])
		if err != nil {
			return nil, err
		}
		var patch library.ItemPatch
		if edit.Flags().Changed("name") {
			patch.Name = editName
		}
		if edit.Flags().Changed("description") {
			patch.Description = editDesc
		}
		if edit.Flags().Changed("shortcut") {
			patch.Shortcut = editShortcut
		}
		if patch == (library.ItemPatch{}) {
			return nil, fmt.Errorf("edit needs at least one of --name, --description, --shortcut")
		}
		return host.UpdateItemParams{ID: id, Patch: patch}, nil
	})

	slice := &cobra.Command{
		Use:   "slice <id> <start> <end>",
		Short: "Cut [start, end) seconds of a WAV item into a new item",
		Args:  cobra.ExactArgs(3),
		RunE: request(parsed, host.CmdSlice, ViewItems, func(args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			start, err := parseSeconds(args[1])
			if err != nil {
				return nil, err
			}
			end, err := parseSeconds(args[2])
			if err != nil {
				return nil, err
			}
			return host.SliceParams{ID: id, Start: start, End: end}, nil
		}),
	}

	open := &cobra.Command{
		Use:   "open [dir]",
		Short: "Open the sounds directory, or dir when it exists",
		Args:  cobra.MaximumNArgs(1),
		RunE: request(parsed, host.CmdOpenSoundsDir, ViewDefault, func(args []string) (any, error) {
			var p host.OpenParams
			if len(args) == 1 {
				p.PreferredPath = args[0]
			}
			return p, nil
		}),
	}

	libraryCmd := &cobra.Command{Use: "library", Short: "Read or replace the whole library document", Args: noArgs}
	libraryCmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the library document",
			Args:  noArgs,
			RunE:  request(parsed, host.CmdGetAudioLibrary, ViewLibrary, nil),
		},
		&cobra.Command{
			Use:   "save <file>",
			Short: "Replace the library with a document or a bare item array",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				parsed.PayloadFile = args[0]
				return request(parsed, host.CmdSaveAudioLibrary, ViewLibrary, nil)(cmd, args)
			},
		},
	)

	root.AddCommand(
		list, add, remove, move, edit, slice, open, libraryCmd,
		&cobra.Command{Use: "sweep", Short: "Delete unreferenced files from the sounds directory", Args: noArgs, RunE: request(parsed, host.CmdSweep, ViewDefault, nil)},
		&cobra.Command{Use: "paths", Short: "Print resolved data directories", Args: noArgs, RunE: request(parsed, host.CmdGetAppPaths, ViewDefault, nil)},
	)
}

func addGroupCommands(root *cobra.Command, parsed *Parsed) {
	group := &cobra.Command{Use: "group", Short: "Manage groups", Args: noArgs}

	add := &cobra.Command{Use: "add <name>", Short: "Create a group", Args: cobra.ExactArgs(1)}
	after := add.Flags().String("after", "", "Insert after this group key")
	add.RunE = request(parsed, host.CmdAddGroup, ViewGroups, func(args []string) (any, error) {
		return host.GroupParams{Name: args[0], After: *after}, nil
	})

	group.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List groups with item counts",
			Args:  noArgs,
			RunE:  request(parsed, host.CmdGetAudioLibrary, ViewGroups, nil),
		},
		add,
		&cobra.Command{
			Use:   "rename <key> <name>",
			Short: "Rename a group",
			Args:  cobra.ExactArgs(2),
			RunE: request(parsed, host.CmdRenameGroup, ViewGroups, func(args []string) (any, error) {
				return host.GroupParams{Key: args[0], Name: args[1]}, nil
			}),
		},
		&cobra.Command{
			Use:   "describe <key> <description>",
			Short: "Set a group's description",
			Args:  cobra.ExactArgs(2),
			RunE: request(parsed, host.CmdDescribeGroup, ViewGroups, func(args []string) (any, error) {
				return host.GroupParams{Key: args[0], Description: args[1]}, nil
			}),
		},
		&cobra.Command{
			Use:   "delete <key>",
			Short: "Delete a group; its items become ungrouped",
			Args:  cobra.ExactArgs(1),
			RunE: request(parsed, host.CmdDeleteGroup, ViewDefault, func(args []string) (any, error) {
				return host.GroupParams{Key: args[0]}, nil
			}),
		},
		&cobra.Command{
			Use:   "reorder <from> <to>",
			Short: "Move group <from> to the position of group <to>",
			Args:  cobra.ExactArgs(2),
			RunE: request(parsed, host.CmdReorderGroup, ViewDefault, func(args []string) (any, error) {
				return host.ReorderParams{From: args[0], To: args[1]}, nil
			}),
		},
	)
	root.AddCommand(group)
}

func addArchiveCommands(root *cobra.Command, parsed *Parsed) {
	export := &cobra.Command{Use: "export <group>", Short: "Write a group archive", Args: cobra.ExactArgs(1)}
	exportOut := export.Flags().StringP("output", "o", "", "Output file or directory (default current directory)")
	export.RunE = request(parsed, host.CmdExportGroupZip, ViewDefault, func(args []string) (any, error) {
		out, err := outputPath(*exportOut)
		if err != nil {
			return nil, err
		}
		return host.ArchiveParams{GroupKey: args[0], Output: out}, nil
	})

	share := &cobra.Command{Use: "share <group>", Short: "Write a group archive and reveal it in the file manager", Args: cobra.ExactArgs(1)}
	shareOut := share.Flags().StringP("output", "o", "", "Output file or directory (default current directory)")
	share.RunE = request(parsed, host.CmdShareGroupZip, ViewDefault, func(args []string) (any, error) {
		out, err := outputPath(*shareOut)
		if err != nil {
			return nil, err
		}
		return host.ArchiveParams{GroupKey: args[0], Output: out}, nil
	})

	imp := &cobra.Command{Use: "import <archive.zip>", Short: "Import a group archive", Args: cobra.ExactArgs(1)}
	impGroup := imp.Flags().StringP("group", "g", "", "Target group key (default: the archive's group)")
	imp.RunE = request(parsed, host.CmdImportGroupZip, ViewDefault, func(args []string) (any, error) {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return nil, err
		}
		return host.ImportParams{Path: path, TargetGroupKey: *impGroup}, nil
	})

	root.AddCommand(export, share, imp)
}

func addSettingsCommands(root *cobra.Command, parsed *Parsed) {
	settings := &cobra.Command{Use: "settings", Short: "Read or change settings", Args: noArgs}

	set := &cobra.Command{Use: "set", Short: "Change settings; unset flags keep their value", Args: noArgs}
	volume := set.Flags().Int("volume", 0, "Default volume 0-100")
	muteHotkey := set.Flags().String("mute-hotkey", "", `Mute toggle shortcut such as "Ctrl+M"; empty clears it`)
	device := set.Flags().String("device", "", `Output sink name, or "default"`)
	hotkeys := set.Flags().Bool("hotkeys", true, "Enable global shortcuts")
	set.RunE = request(parsed, host.CmdSaveSettings, ViewSettings, func([]string) (any, error) {
		patch := map[string]any{}
		if set.Flags().Changed("volume") {
			patch["defaultVolume"] = *volume
		}
		if set.Flags().Changed("mute-hotkey") {
			patch["muteHotkey"] = hotkey.ToAccelerator(*muteHotkey)
		}
		if set.Flags().Changed("device") {
			patch["defaultOutputDeviceId"] = strings.TrimSpace(*device)
		}
		if set.Flags().Changed("hotkeys") {
			patch["enableHotkeys"] = *hotkeys
		}
		if len(patch) == 0 {
			return nil, fmt.Errorf("settings set needs at least one flag")
		}
		return map[string]any{"settings": patch}, nil
	})

	settings.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print settings",
			Args:  noArgs,
			RunE:  request(parsed, host.CmdGetSettings, ViewSettings, nil),
		},
		set,
	)
	root.AddCommand(settings)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid time %q: want non-negative seconds", s)
	}
	return v, nil
}

func absPaths(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		p, err := filepath.Abs(a)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// outputPath resolves an archive destination against the caller's working
// directory, since the host may run elsewhere.
func outputPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		p = "."
	}
	return filepath.Abs(p)
}
