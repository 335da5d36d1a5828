package explorer

import "fmt"

// KeyMap defines the keyboard shortcuts displayed in the footer.
type KeyMap struct {
	Open      string
	Up        string
	NewFile   string
	NewFolder string
	Rename    string
	Delete    string
	Edit      string
	Voice     string
	Shell     string
	Refresh   string
	Quit      string
	Help      string
}

// DefaultKeyMap returns the default shortcut mapping.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open:      "enter",
		Up:        "backspace",
		NewFile:   "n",
		NewFolder: "m",
		Rename:    "R",
		Delete:    "d",
		Edit:      "e",
		Voice:     "v",
		Shell:     ":",
		Refresh:   "r",
		Quit:      "q",
		Help:      "?",
	}
}

// HelpLine renders the footer help text.
func (k KeyMap) HelpLine() string {
	return fmt.Sprintf("[%s] open  [%s] up  [%s] file  [%s] folder  [%s] rename  [%s] delete  [%s] edit  [%s] voice  [%s] shell  [%s] refresh  [%s] quit  [%s] help",
		k.Open, k.Up, k.NewFile, k.NewFolder, k.Rename, k.Delete, k.Edit, k.Voice, k.Shell, k.Refresh, k.Quit, k.Help)
}

// HelpRows lists every binding with a description for the help popup.
func (k KeyMap) HelpRows() [][2]string {
	return [][2]string{
		{k.Open, "open folder / preview file"},
		{k.Up, "go to parent folder"},
		{k.NewFile, "create file"},
		{k.NewFolder, "create folder"},
		{k.Rename, "rename selected item"},
		{k.Delete, "delete selected item"},
		{k.Edit, "edit selected file"},
		{k.Voice, "toggle voice commands"},
		{k.Shell, "open terminal"},
		{k.Refresh, "refresh listing"},
		{k.Quit, "quit"},
		{k.Help, "toggle this help"},
	}
}
