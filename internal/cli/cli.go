// Package cli turns argv into a Parsed invocation using a cobra command
// tree. Nothing here touches the library or the host; app runs the result.
package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbright/soundpp/internal/ipc"
)

// BinaryName is the name shown in usage text.
const BinaryName = "soundpp"

type Command string

const (
	CommandHelp    Command = "help"
	CommandVersion Command = "version"
	CommandServe   Command = "serve"
	CommandTUI     Command = "tui"
	CommandRecord  Command = "record"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	// CommandRequest sends Parsed.Request to the host, or serves it
	// in-process when no host is running.
	CommandRequest Command = "request"
)

// View selects how app renders a request's response.
type View string

const (
	ViewDefault  View = ""
	ViewItems    View = "items"
	ViewGroups   View = "groups"
	ViewSettings View = "settings"
	ViewLibrary  View = "library"
)

// Parsed is one fully parsed invocation.
type Parsed struct {
	Command Command
	Request ipc.Request
	View    View
	JSON    bool

	// Wait keeps an in-process play running until the clip ends.
	Wait bool
	// PayloadFile is read by app and sent as the request params.
	PayloadFile string
	// RecordID is the item whose shortcut `record` captures.
	RecordID int64

	ShowHelp bool
	Help     string
}

// Parse resolves args against the command tree. Every returned error is a
// usage error.
func Parse(args []string) (Parsed, error) {
	var (
		parsed Parsed
		out    bytes.Buffer
	)
	root := newRoot(&parsed)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&out)

	if err := root.Execute(); err != nil {
		return Parsed{}, err
	}
	if parsed.Command == "" {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
		parsed.Help = out.String()
	}
	return parsed, nil
}

// HelpText renders the top-level usage.
func HelpText() string {
	var parsed Parsed
	return newRoot(&parsed).UsageString()
}

func newRoot(parsed *Parsed) *cobra.Command {
	var showVersion bool
	root := &cobra.Command{
		Use:           BinaryName,
		Short:         "Soundboard for Hyprland: library, global shortcuts, playback",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				parsed.Command = CommandVersion
				return nil
			}
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
			parsed.Help = cmd.UsageString()
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVar(&showVersion, "version", false, "Show version")
	root.PersistentFlags().BoolVar(&parsed.JSON, "json", false, "Print responses as JSON")

	root.AddCommand(
		simple(parsed, "serve", "Run the host: shortcuts, playback, and the IPC socket", CommandServe),
		simple(parsed, "tui", "Open the interactive library browser", CommandTUI),
		simple(parsed, "devices", "List audio output devices", CommandDevices),
		simple(parsed, "doctor", "Run environment and configuration checks", CommandDoctor),
		simple(parsed, "version", "Print version information", CommandVersion),
		recordCmd(parsed),
	)
	addPlaybackCommands(root, parsed)
	addLibraryCommands(root, parsed)
	addGroupCommands(root, parsed)
	addArchiveCommands(root, parsed)
	addSettingsCommands(root, parsed)
	return root
}

func simple(parsed *Parsed, use, short string, command Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  noArgs,
		RunE: func(*cobra.Command, []string) error {
			parsed.Command = command
			return nil
		},
	}
}

func recordCmd(parsed *Parsed) *cobra.Command {
	return &cobra.Command{
		Use:   "record <id>",
		Short: "Record a global shortcut for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			parsed.Command = CommandRecord
			parsed.RecordID = id
			return nil
		},
	}
}

// request builds a cobra.RunE that records a host request.
func request(parsed *Parsed, command string, view View, params func(args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		var p any
		if params != nil {
			var err error
			if p, err = params(args); err != nil {
				return err
			}
		}
		req, err := ipc.NewRequest(command, p)
		if err != nil {
			return err
		}
		parsed.Command = CommandRequest
		parsed.Request = req
		parsed.View = view
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if cmd.HasSubCommands() {
		return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return fmt.Errorf("%q accepts no arguments", cmd.CommandPath())
}
