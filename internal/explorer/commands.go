package explorer

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/model"
)

// fetch reads the working directory and its sorted listing. A failing pwd
// only matters when the token was rejected.
func (e *Explorer) fetch(ctx context.Context) (string, []model.Item, error) {
	dir, err := e.backend.Pwd(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return "", nil, err
		}
		e.logger.Printf("explorer: pwd failed: %v", err)
		dir = ""
	}
	listing, err := e.backend.List(ctx)
	if err != nil {
		return dir, nil, err
	}
	return dir, listing.Sorted(), nil
}

// refreshFromVoice is the voice monitor's listing provider
func (e *Explorer) refreshFromVoice(ctx context.Context) error {
	dir, items, err := e.fetch(ctx)
	if err != nil {
		return err
	}
	e.post(listingMsg{voice: true, dir: dir, items: items})
	return nil
}

func (e *Explorer) loadCmd() tea.Cmd {
	e.loadSeq++
	seq := e.loadSeq
	e.loading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listingTimeout)
		defer cancel()
		dir, items, err := e.fetch(ctx)
		return listingMsg{seq: seq, dir: dir, items: items, err: err}
	}
}

func (e *Explorer) previewCmd(name string, edit bool) tea.Cmd {
	e.preview = previewState{name: name, loading: true}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		content, err := e.backend.ReadFile(ctx, name)
		return previewMsg{name: name, content: content, edit: edit, err: err}
	}
}

// opCmd runs a mutating call; on success the listing reloads and text is
// shown as a notification
func (e *Explorer) opCmd(text string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		return opDoneMsg{text: text, err: fn(ctx)}
	}
}

func (e *Explorer) changeDirCmd(name string) tea.Cmd {
	e.preview = previewState{}
	return e.opCmd("", func(ctx context.Context) error {
		_, err := e.backend.ChangeDir(ctx, name)
		return err
	})
}

func (e *Explorer) moveUpCmd() tea.Cmd {
	e.preview = previewState{}
	return e.opCmd("", e.backend.MoveUp)
}

// shellCmd runs line off the UI goroutine. History is recorded by the caller
// since up/down keep reading it while the command runs.
func (e *Explorer) shellCmd(line string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
		defer cancel()
		return shellMsg{res: e.shell.Run(ctx, line)}
	}
}

// toggleVoiceCmd flips the voice session off the UI goroutine; the monitor
// posts status changes back through the program.
func (e *Explorer) toggleVoiceCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), voiceTimeout)
		defer cancel()
		return voiceToggledMsg{active: e.monitor.Toggle(ctx)}
	}
}

// notifyCmd shows a notification through the shared notifier so voice and
// UI messages replace each other
func (e *Explorer) notifyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		d := e.opts.NotifyDuration
		if d <= 0 {
			d = defaultNotifyDuration
		}
		e.notes.Show(text, d)
		return nil
	}
}
