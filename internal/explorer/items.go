package explorer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/s22625/voxfs/internal/model"
)

// fileItem adapts a listing entry to the bubbles list
type fileItem struct {
	item model.Item
}

func (i fileItem) Title() string {
	if i.item.IsDir() {
		return i.item.Name + "/"
	}
	return i.item.Name
}

func (i fileItem) Description() string { return string(i.item.Type) }
func (i fileItem) FilterValue() string { return i.item.Name }

// itemDelegate renders one row per entry with a folder/file icon
type itemDelegate struct {
	styles Styles
}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	fi, ok := li.(fileItem)
	if !ok {
		return
	}

	icon, style := d.styles.IconFile, d.styles.File
	if fi.item.IsDir() {
		icon, style = d.styles.IconFolder, d.styles.Folder
	}

	width := m.Width() - 4
	if width < 1 {
		width = 1
	}
	label := truncate(fi.Title(), width)

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
		style = style.Bold(true)
	}
	fmt.Fprint(w, cursor+style.Render(icon+" "+label))
}

func toListItems(items []model.Item) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = fileItem{item: it}
	}
	return out
}
