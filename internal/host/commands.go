package host

import (
	"github.com/rbright/soundpp/internal/config"
	"github.com/rbright/soundpp/internal/hotkey"
	"github.com/rbright/soundpp/internal/library"
)

// IPC command names served by Handle.
const (
	CmdPlay                   = "play"
	CmdTrigger                = "trigger"
	CmdStop                   = "stop"
	CmdToggleMute             = "toggleMute"
	CmdSetVolume              = "setVolume"
	CmdStatus                 = "status"
	CmdQuit                   = "quit"
	CmdRegisterShortcut       = "registerShortcut"
	CmdUnregisterAllShortcuts = "unregisterAllShortcuts"
	CmdReapplyShortcuts       = "reapplyShortcuts"
	CmdGetSettings            = "getSettings"
	CmdSaveSettings           = "saveSettings"
	CmdGetAudioLibrary        = "getAudioLibrary"
	CmdSaveAudioLibrary       = "saveAudioLibrary"
	CmdListItems              = "listItems"
	CmdExportGroupZip         = "exportGroupZip"
	CmdShareGroupZip          = "shareGroupZip"
	CmdImportGroupZip         = "importGroupZip"
	CmdGetAppPaths            = "getAppPaths"
	CmdOpenSoundsDir          = "openSoundsDir"
	CmdAddFiles               = "addFiles"
	CmdUpdateItem             = "updateItem"
	CmdDeleteItems            = "deleteItems"
	CmdMoveItem               = "moveItem"
	CmdAddGroup               = "addGroup"
	CmdRenameGroup            = "renameGroup"
	CmdDescribeGroup          = "describeGroup"
	CmdDeleteGroup            = "deleteGroup"
	CmdReorderGroup           = "reorderGroup"
	CmdSlice                  = "slice"
	CmdSweep                  = "sweep"
	CmdRecordStart            = "recordStart"
	CmdRecordKey              = "recordKey"
	CmdRecordKeyUp            = "recordKeyUp"
	CmdRecordCancel           = "recordCancel"
)

// PlayParams selects a clip by path or item id.
type PlayParams struct {
	Path string `json:"path,omitempty"`
	ID   int64  `json:"id,omitempty"`
}

// PlayData reports what started playing.
type PlayData struct {
	Path string `json:"path"`
}

// TriggerParams carries a registered shortcut target.
type TriggerParams struct {
	Target string `json:"target"`
}

// VolumeData reports the player volume after a change.
type VolumeData struct {
	Volume  int  `json:"volume"`
	Muted   bool `json:"muted"`
	Stopped bool `json:"stopped,omitempty"`
}

// VolumeParams sets the runtime volume.
type VolumeParams struct {
	Volume int `json:"volume"`
}

// StatusData describes the host.
type StatusData struct {
	State      string `json:"state"`
	Playing    string `json:"playing,omitempty"`
	Volume     int    `json:"volume"`
	Muted      bool   `json:"muted"`
	Registered int    `json:"registered"`
	Suspended  bool   `json:"suspended"`
	Version    string `json:"version,omitempty"`
}

// RegisterParams binds one accelerator to an item id.
type RegisterParams struct {
	Accelerator string `json:"accelerator"`
	ID          string `json:"id"`
}

// SettingsPayload wraps the settings document.
type SettingsPayload struct {
	Settings config.Settings `json:"settings"`
}

// LibraryData is the library snapshot plus per-group counts.
type LibraryData struct {
	Items  []library.Item  `json:"items"`
	Groups []library.Group `json:"groups"`
	Counts library.Counts  `json:"counts"`
}

// ListParams filters the item list.
type ListParams struct {
	Group string `json:"group,omitempty"`
	Query string `json:"query,omitempty"`
}

// ArchiveParams names a group and an output file or directory.
type ArchiveParams struct {
	GroupKey string `json:"groupKey"`
	Output   string `json:"output,omitempty"`
}

// PathData carries a filesystem path.
type PathData struct {
	Path string `json:"path"`
}

// ImportParams selects an archive and a destination group.
type ImportParams struct {
	TargetGroupKey string `json:"targetGroupKey,omitempty"`
	Path           string `json:"path"`
}

// CountData carries a count.
type CountData struct {
	Count int `json:"count"`
}

// AppPathsData lists the resolved directories.
type AppPathsData struct {
	DataDir      string `json:"dataDir"`
	SoundsDir    string `json:"soundsDir"`
	UserDataDir  string `json:"userDataDir"`
	InstallDir   string `json:"installDir"`
	SettingsPath string `json:"settingsPath"`
	LibraryPath  string `json:"libraryPath"`
}

// OpenParams names the preferred directory to open.
type OpenParams struct {
	PreferredPath string `json:"preferredPath,omitempty"`
}

// AddFilesParams imports files into a group.
type AddFilesParams struct {
	Paths []string `json:"paths"`
	Group string   `json:"group,omitempty"`
}

// ItemsData carries a list of items.
type ItemsData struct {
	Items []library.Item `json:"items"`
}

// UpdateItemParams edits one item.
type UpdateItemParams struct {
	ID    int64             `json:"id"`
	Patch library.ItemPatch `json:"patch"`
}

// ItemData carries one item.
type ItemData struct {
	Item library.Item `json:"item"`
}

// DeleteItemsParams lists item ids to delete.
type DeleteItemsParams struct {
	IDs []int64 `json:"ids"`
}

// DeleteItemsData reports a deletion and the sweep that followed it.
type DeleteItemsData struct {
	Removed int                 `json:"removed"`
	Sweep   library.SweepResult `json:"sweep"`
}

// MoveItemParams moves an item to another group.
type MoveItemParams struct {
	ID    int64  `json:"id"`
	Group string `json:"group"`
}

// GroupParams addresses a group; Name, Description and After are used by
// the commands that need them.
type GroupParams struct {
	Key         string `json:"key,omitempty"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	After       string `json:"after,omitempty"`
}

// GroupData carries one group.
type GroupData struct {
	Group library.Group `json:"group"`
}

// ReorderParams moves group From to the position of group To.
type ReorderParams struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SliceParams cuts [Start, End) seconds out of an item.
type SliceParams struct {
	ID    int64   `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RecordKeyData is the recorder's view after a key press.
type RecordKeyData struct {
	Display string          `json:"display"`
	Ended   bool            `json:"ended"`
	Result  *RecordingEnded `json:"result,omitempty"`
}

// RecordingEnded is the wire form of a finished recording session.
type RecordingEnded struct {
	Accelerator string             `json:"accelerator"`
	Display     string             `json:"display"`
	Reason      string             `json:"reason"`
	Applied     hotkey.ApplyResult `json:"applied"`
}
