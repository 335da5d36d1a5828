package explorer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/s22625/voxfs/internal/terminal"
)

// View implements tea.Model.
func (e *Explorer) View() string {
	switch e.mode {
	case modeHelp:
		return e.styles.Box.Render(e.viewHelp())
	case modeShell:
		return e.styles.Box.Render(e.viewShell())
	case modeEdit:
		return e.styles.Box.Render(e.viewEditor())
	default:
		return e.styles.Box.Render(e.viewBrowse())
	}
}

func (e *Explorer) viewBrowse() string {
	lines := e.renderHeader()

	w, h := e.bodySize()
	listW := e.listWidth(w)
	listPane := e.styles.Pane.Width(listW - 2).Height(h - 2).Render(e.list.View())
	previewPane := e.styles.Pane.Width(w - listW - 2).Height(h - 2).Render(e.renderPreview(w-listW-4, h-2))
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane))

	switch e.mode {
	case modePrompt:
		lines = append(lines, e.renderPrompt(w))
	case modeConfirmDelete:
		kind := "file"
		if e.promptTarget.IsDir() {
			kind = "folder"
		}
		lines = append(lines, e.styles.Prompt.Render(fmt.Sprintf("Delete %s %q? [y/N]", kind, e.promptTarget.Name)))
	}

	lines = append(lines, e.renderFooter(w))
	return strings.Join(lines, "\n")
}

func (e *Explorer) renderHeader() []string {
	w, _ := e.bodySize()

	title := e.styles.Title.Render("VOXFS")
	if who := e.identity(); who != "" {
		title += "  " + e.styles.Muted.Render(who)
	}
	indicator := e.styles.Muted.Render(e.styles.IndicatorVoiceOff + " voice off")
	if e.voiceActive {
		indicator = e.styles.VoiceSuccess.Render(e.styles.IndicatorVoiceOn + " voice on")
	}
	gap := w - lipgloss.Width(title) - lipgloss.Width(indicator)
	if gap < 1 {
		gap = 1
	}

	dir := e.dir
	if strings.TrimSpace(dir) == "" {
		dir = "/"
	}
	path := e.styles.Header.Render("Path: ") + e.styles.Normal.Render(truncate(dir, w-6))
	if e.loading {
		path += "  " + e.styles.Muted.Render("Loading...")
	}

	lines := []string{title + strings.Repeat(" ", gap) + indicator, path}
	if e.voiceStatus != "" {
		lines = append(lines, e.styles.Muted.Render("voice: ")+e.styles.StyleVoice(truncate(e.voiceStatus, w-7)))
	} else {
		lines = append(lines, "")
	}
	if e.banner != "" {
		lines = append(lines, e.styles.Banner.Render(truncate(e.banner, w-2)))
	} else {
		lines = append(lines, "")
	}
	if e.errText != "" {
		lines = append(lines, e.styles.Error.Render(truncate(e.errText, w)))
	} else {
		lines = append(lines, "")
	}
	return lines
}

func (e *Explorer) identity() string {
	user := ""
	if e.opts.Session != nil {
		user = e.opts.Session.Username
	}
	switch {
	case user != "" && e.opts.Server != "":
		return user + "@" + e.opts.Server
	case user != "":
		return user
	default:
		return e.opts.Server
	}
}

func (e *Explorer) renderPreview(width, height int) string {
	if e.preview.name == "" {
		return e.styles.Muted.Render("Select a file to preview")
	}
	header := e.styles.Header.Render(truncate("File: "+e.preview.name, width))
	var body []string
	switch {
	case e.preview.loading:
		body = []string{e.styles.Muted.Render("Loading...")}
	case e.preview.err != "":
		body = []string{e.styles.Error.Render(truncate(e.preview.err, width))}
	case e.preview.content == "":
		body = []string{e.styles.Muted.Render("(empty file)")}
	default:
		wrapped := wrapText(e.preview.content, width)
		limit := height - 2
		if limit > previewMaxLines {
			limit = previewMaxLines
		}
		if limit < 1 {
			limit = 1
		}
		if len(wrapped) > limit {
			wrapped = append(wrapped[:limit-1], e.styles.Muted.Render("..."))
		}
		body = wrapped
	}
	return strings.Join(append([]string{header, ""}, body...), "\n")
}

func (e *Explorer) renderPrompt(width int) string {
	var title string
	switch e.prompt {
	case promptNewFolder:
		title = "Create New Folder"
	case promptNewFile:
		title = "Create New File"
	case promptRename:
		kind := "File"
		if e.promptTarget.IsDir() {
			kind = "Folder"
		}
		title = fmt.Sprintf("Rename %s %q", kind, e.promptTarget.Name)
	}
	lines := []string{e.styles.Title.Render(title), e.input.View()}
	if e.promptErr != "" {
		lines = append(lines, e.styles.Error.Render(e.promptErr))
	}
	lines = append(lines, e.styles.Muted.Render("[enter] confirm  [esc] cancel"))
	return e.styles.Prompt.Width(width - 4).Render(strings.Join(lines, "\n"))
}

func (e *Explorer) renderFooter(width int) string {
	if e.message != "" {
		return e.styles.Muted.Render(truncate(e.message, width))
	}
	return e.styles.Muted.Render(truncate(e.keymap.HelpLine(), width))
}

func (e *Explorer) viewShell() string {
	w, _ := e.bodySize()
	height := e.height - 4
	if height < 5 {
		height = 5
	}

	var rendered []string
	for _, line := range e.shellLines {
		for _, text := range strings.Split(line.Text, "\n") {
			for _, part := range wrapText(text, w) {
				rendered = append(rendered, e.styleShellLine(line.Type, part))
			}
		}
	}
	rendered = tail(rendered, height)

	lines := []string{e.styles.Title.Render("Terminal") + "  " + e.styles.Muted.Render("[esc] back to explorer")}
	lines = append(lines, rendered...)
	input := e.shellInput.View()
	if e.shellBusy {
		input = e.styles.Muted.Render("running...")
	}
	lines = append(lines, input)
	return strings.Join(lines, "\n")
}

func (e *Explorer) styleShellLine(t terminal.LineType, text string) string {
	switch t {
	case terminal.LineSystem:
		return e.styles.Muted.Render(text)
	case terminal.LineCommand:
		return e.styles.Command.Render(text)
	case terminal.LineError:
		return e.styles.Error.Render(text)
	default:
		return e.styles.Normal.Render(text)
	}
}

func (e *Explorer) viewEditor() string {
	lines := []string{
		e.styles.Title.Render("Editing: " + e.editName),
		e.editor.View(),
		e.styles.Muted.Render("[ctrl+s] save  [esc] cancel"),
	}
	if e.errText != "" {
		lines = append(lines, e.styles.Error.Render(e.errText))
	}
	return strings.Join(lines, "\n")
}

func (e *Explorer) viewHelp() string {
	lines := []string{e.styles.Title.Render("Keys"), ""}
	for _, row := range e.keymap.HelpRows() {
		lines = append(lines, padRight(e.styles.Header.Render(row[0]), 12)+row[1])
	}
	lines = append(lines, "", e.styles.Muted.Render("press any key to close"))
	return strings.Join(lines, "\n")
}
