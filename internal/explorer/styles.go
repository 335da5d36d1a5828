package explorer

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	colorGreen   = lipgloss.Color("42")
	colorYellow  = lipgloss.Color("214")
	colorRed     = lipgloss.Color("196")
	colorBlue    = lipgloss.Color("39")
	colorCyan    = lipgloss.Color("45")
	colorGray    = lipgloss.Color("245")
	colorMagenta = lipgloss.Color("165")
	colorWhite   = lipgloss.Color("255")
	colorBorder  = lipgloss.Color("240")
)

// VoiceTone is the visual category of a voice status line
type VoiceTone string

const (
	ToneNone       VoiceTone = ""
	ToneListening  VoiceTone = "listening"
	ToneRecognized VoiceTone = "recognized"
	ToneError      VoiceTone = "error"
	ToneSuccess    VoiceTone = "success"
	ToneProcessing VoiceTone = "processing"
)

// Styles defines the visual styles for the explorer
type Styles struct {
	Box     lipgloss.Style
	Pane    lipgloss.Style
	Banner  lipgloss.Style
	Prompt  lipgloss.Style
	Title   lipgloss.Style
	Header  lipgloss.Style
	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Folder  lipgloss.Style
	File    lipgloss.Style
	Command lipgloss.Style

	VoiceListening  lipgloss.Style
	VoiceRecognized lipgloss.Style
	VoiceError      lipgloss.Style
	VoiceSuccess    lipgloss.Style
	VoiceProcessing lipgloss.Style

	IndicatorVoiceOn  string
	IndicatorVoiceOff string
	IconFolder        string
	IconFile          string
}

// DefaultStyles returns the default style configuration
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Padding(0, 1),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),

		Banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(colorGreen).
			Padding(0, 1),

		Prompt: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGray),

		Normal: lipgloss.NewStyle().
			Foreground(colorWhite),

		Muted: lipgloss.NewStyle().
			Foreground(colorGray),

		Error: lipgloss.NewStyle().
			Foreground(colorRed),

		Folder: lipgloss.NewStyle().
			Foreground(colorBlue),

		File: lipgloss.NewStyle().
			Foreground(colorWhite),

		Command: lipgloss.NewStyle().
			Foreground(colorCyan),

		VoiceListening: lipgloss.NewStyle().
			Foreground(colorCyan),

		VoiceRecognized: lipgloss.NewStyle().
			Foreground(colorMagenta),

		VoiceError: lipgloss.NewStyle().
			Foreground(colorRed),

		VoiceSuccess: lipgloss.NewStyle().
			Foreground(colorGreen),

		VoiceProcessing: lipgloss.NewStyle().
			Foreground(colorYellow),

		IndicatorVoiceOn:  "●",
		IndicatorVoiceOff: "○",
		IconFolder:        "▸",
		IconFile:          "·",
	}
}

// ToneOf picks the visual category for a voice status line. The checks run
// in order, so "Error: Failed to create folder" is an error, not a success.
func ToneOf(text string) VoiceTone {
	switch {
	case text == "":
		return ToneNone
	case strings.Contains(text, "Listening"):
		return ToneListening
	case strings.Contains(text, "Recognized:"):
		return ToneRecognized
	case strings.Contains(text, "ERROR"), strings.Contains(text, "Failed"), strings.Contains(text, "Error"):
		return ToneError
	case strings.Contains(text, "SUCCESS"), strings.Contains(text, "created"), strings.Contains(text, "Navigated"), strings.Contains(text, "Deleted"):
		return ToneSuccess
	case strings.Contains(text, "Processing"):
		return ToneProcessing
	default:
		return ToneNone
	}
}

// StyleVoice renders a voice status line in its tone
func (s Styles) StyleVoice(text string) string {
	switch ToneOf(text) {
	case ToneListening:
		return s.VoiceListening.Render(text)
	case ToneRecognized:
		return s.VoiceRecognized.Render(text)
	case ToneError:
		return s.VoiceError.Render(text)
	case ToneSuccess:
		return s.VoiceSuccess.Render(text)
	case ToneProcessing:
		return s.VoiceProcessing.Render(text)
	default:
		return s.Normal.Render(text)
	}
}
