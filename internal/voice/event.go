package voice

import (
	"fmt"
	"strings"
)

// Structured prefixes written by the speech worker after a successful command
const (
	prefixFolderCreated = "FOLDER_CREATED_"
	prefixFileCreated   = "FILE_CREATED_"
	prefixRename        = "RENAME_SUCCESS_"
	renameSeparator     = "_TO_"
)

// Substrings that mark a success message from a backend without structured prefixes
var successMarkers = []string{"SUCCESS", "success", "Folder created", "File created"}

// Kind identifies an Event variant
type Kind string

const (
	KindFolderCreated   Kind = "folder_created"
	KindFileCreated     Kind = "file_created"
	KindRenameSucceeded Kind = "rename_succeeded"
	KindGenericSuccess  Kind = "generic_success"
	KindUnclassified    Kind = "unclassified"
)

// Event is the classified form of a status text. The set of
// implementations is closed: FolderCreated, FileCreated, RenameSucceeded,
// GenericSuccess and Unclassified.
type Event interface {
	Kind() Kind
	// Message is the notification text for recognized events and the raw
	// text otherwise.
	Message() string
	// Recognized reports whether the event should refresh the listing and notify.
	Recognized() bool

	isEvent()
}

// FolderCreated reports a folder created by a voice command
type FolderCreated struct {
	Name string
}

func (e FolderCreated) Kind() Kind       { return KindFolderCreated }
func (e FolderCreated) Recognized() bool { return true }
func (e FolderCreated) Message() string {
	return fmt.Sprintf("Folder \"%s\" created successfully!", e.Name)
}
func (FolderCreated) isEvent() {}

// FileCreated reports a file created by a voice command
type FileCreated struct {
	Name string
}

func (e FileCreated) Kind() Kind       { return KindFileCreated }
func (e FileCreated) Recognized() bool { return true }
func (e FileCreated) Message() string {
	return fmt.Sprintf("File \"%s\" created successfully!", e.Name)
}
func (FileCreated) isEvent() {}

// RenameSucceeded reports a rename. Ambiguous is set when the status text
// could not be split into exactly two names.
type RenameSucceeded struct {
	From      string
	To        string
	Ambiguous bool
}

func (e RenameSucceeded) Kind() Kind       { return KindRenameSucceeded }
func (e RenameSucceeded) Recognized() bool { return true }
func (e RenameSucceeded) Message() string {
	if e.Ambiguous {
		return "Item renamed successfully!"
	}
	return fmt.Sprintf("\"%s\" renamed to \"%s\" successfully!", e.From, e.To)
}
func (RenameSucceeded) isEvent() {}

// GenericSuccess is a loosely matched success text shown verbatim
type GenericSuccess struct {
	Text string
}

func (e GenericSuccess) Kind() Kind       { return KindGenericSuccess }
func (e GenericSuccess) Recognized() bool { return true }
func (e GenericSuccess) Message() string  { return e.Text }
func (GenericSuccess) isEvent()           {}

// Unclassified is any other status text
type Unclassified struct {
	Text string
}

func (e Unclassified) Kind() Kind       { return KindUnclassified }
func (e Unclassified) Recognized() bool { return false }
func (e Unclassified) Message() string  { return e.Text }
func (Unclassified) isEvent()           {}

// Classify maps a status text to an Event. Structured prefixes win over
// the loose success markers.
func Classify(text string) Event {
	switch {
	case strings.HasPrefix(text, prefixFolderCreated):
		return FolderCreated{Name: strings.TrimPrefix(text, prefixFolderCreated)}
	case strings.HasPrefix(text, prefixFileCreated):
		return FileCreated{Name: strings.TrimPrefix(text, prefixFileCreated)}
	case strings.HasPrefix(text, prefixRename):
		parts := strings.Split(strings.TrimPrefix(text, prefixRename), renameSeparator)
		if len(parts) != 2 {
			return RenameSucceeded{Ambiguous: true}
		}
		return RenameSucceeded{From: parts[0], To: parts[1]}
	}

	for _, marker := range successMarkers {
		if strings.Contains(text, marker) {
			return GenericSuccess{Text: text}
		}
	}
	return Unclassified{Text: text}
}
