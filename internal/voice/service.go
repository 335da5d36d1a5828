package voice

import (
	"context"
	"time"

	"github.com/s22625/voxfs/internal/api"
	"github.com/s22625/voxfs/internal/model"
)

// StatusReport is one answer from the status endpoint
type StatusReport struct {
	Text      string
	HasText   bool
	Completed bool
}

// SessionService controls the backend speech recognition session
type SessionService interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Poll(ctx context.Context) (StatusReport, error)
}

// ListingProvider re-fetches the current directory contents
type ListingProvider interface {
	Refresh(ctx context.Context) error
}

// ListingFunc adapts a function to ListingProvider
type ListingFunc func(ctx context.Context) error

func (f ListingFunc) Refresh(ctx context.Context) error { return f(ctx) }

// NotificationSink displays a transient notification
type NotificationSink interface {
	Show(message string, d time.Duration)
}

// StatusSink receives the status line shown next to the voice control
type StatusSink interface {
	SetStatus(text string)
}

// StatusFunc adapts a function to StatusSink
type StatusFunc func(text string)

func (f StatusFunc) SetStatus(text string) { f(text) }

// Backend is the part of the API client used for voice sessions
type Backend interface {
	StartVoice(ctx context.Context) error
	StopVoice(ctx context.Context) error
	GetVoiceStatus(ctx context.Context) (*api.VoiceStatus, error)
}

// BackendSession implements SessionService over the HTTP API
type BackendSession struct {
	backend Backend
}

// NewBackendSession wraps an API client
func NewBackendSession(b Backend) *BackendSession {
	return &BackendSession{backend: b}
}

func (s *BackendSession) Start(ctx context.Context) error { return s.backend.StartVoice(ctx) }

func (s *BackendSession) Stop(ctx context.Context) error { return s.backend.StopVoice(ctx) }

// Poll fetches the status; a missing or empty text field yields HasText=false.
func (s *BackendSession) Poll(ctx context.Context) (StatusReport, error) {
	status, err := s.backend.GetVoiceStatus(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	report := StatusReport{Completed: status.Completed}
	if status.Text != nil && *status.Text != "" {
		report.Text = *status.Text
		report.HasText = true
	}
	return report, nil
}

// ListingFromClient refreshes by listing through the API client and handing
// the result to apply (which may be nil).
func ListingFromClient(c *api.Client, apply func(listing *model.Listing)) ListingProvider {
	return ListingFunc(func(ctx context.Context) error {
		listing, err := c.List(ctx)
		if err != nil {
			return err
		}
		if apply != nil {
			apply(listing)
		}
		return nil
	})
}
