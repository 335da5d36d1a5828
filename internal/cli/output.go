package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/s22625/voxfs/internal/model"
	"github.com/s22625/voxfs/internal/voice"
)

var (
	dirStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// printJSON writes v to stdout as indented JSON
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult reports a completed operation as text or {"ok":true,...}
func printResult(message string, fields map[string]any) error {
	if globalOpts.JSON {
		out := map[string]any{"ok": true}
		for k, v := range fields {
			out[k] = v
		}
		if message != "" {
			out["message"] = message
		}
		return printJSON(out)
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}

// colorType renders the item type column of ls -l
func colorType(item model.Item) string {
	if item.IsDir() {
		return dirStyle.Render(string(model.ItemTypeDirectory))
	}
	return fileStyle.Render(string(model.ItemTypeFile))
}

// colorEvent highlights recognized voice events
func colorEvent(e voice.Event) string {
	if e.Recognized() {
		return successStyle.Render(string(e.Kind()))
	}
	return mutedStyle.Render(string(e.Kind()))
}
