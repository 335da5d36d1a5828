package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	socketFile = "voice.sock"

	RequestStatus = "status"
	RequestToggle = "toggle"
)

func SocketFilePath(stateDir string) string {
	return filepath.Join(stateDir, socketFile)
}

// Snapshot is the watcher state reported over the control socket
type Snapshot struct {
	PID          int    `json:"pid"`
	Server       string `json:"server"`
	Active       bool   `json:"active"`
	Status       string `json:"status"`
	LastText     string `json:"last_text"`
	Notification string `json:"notification,omitempty"`
}

type Request struct {
	Type string `json:"type"`
}

type Response struct {
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

// Controller is what the socket server exposes
type Controller interface {
	Snapshot() Snapshot
	Toggle(ctx context.Context) bool
}

type Logger interface {
	Printf(format string, v ...interface{})
}

type SocketServer struct {
	stateDir string
	ctrl     Controller
	listener net.Listener
	logger   Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewSocketServer(stateDir string, ctrl Controller, logger Logger) *SocketServer {
	return &SocketServer{
		stateDir: stateDir,
		ctrl:     ctrl,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (s *SocketServer) Start() error {
	socketPath := SocketFilePath(s.stateDir)

	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(socketPath, 0600); err != nil {
		s.logger.Printf("warning: failed to chmod socket: %v", err)
	}

	s.logger.Printf("control socket listening on %s", socketPath)

	go s.acceptLoop()

	return nil
}

func (s *SocketServer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.listener != nil {
			s.listener.Close()
		}
		os.Remove(SocketFilePath(s.stateDir))
	})
}

func (s *SocketServer) acceptLoop() {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
				s.logger.Printf("accept error: %v", err)
				continue
			}
		}

		go s.handleConnection(conn)
	}
}

func (s *SocketServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(30 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		s.logger.Printf("failed to decode request: %v", err)
		encoder.Encode(Response{OK: false, Error: "invalid request"})
		return
	}

	switch req.Type {
	case RequestStatus:
		snap := s.ctrl.Snapshot()
		encoder.Encode(Response{OK: true, Snapshot: &snap})
	case RequestToggle:
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		active := s.ctrl.Toggle(ctx)
		s.logger.Printf("toggled via socket, active=%v", active)
		snap := s.ctrl.Snapshot()
		encoder.Encode(Response{OK: true, Snapshot: &snap})
	default:
		encoder.Encode(Response{OK: false, Error: "unknown request type"})
	}
}

// Query sends one request to the running watcher
func Query(stateDir, reqType string) (*Snapshot, error) {
	conn, err := net.DialTimeout("unix", SocketFilePath(stateDir), 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice watcher: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(30 * time.Second))

	if err := json.NewEncoder(conn).Encode(Request{Type: reqType}); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("voice watcher error: %s", resp.Error)
	}
	if resp.Snapshot == nil {
		return nil, fmt.Errorf("voice watcher returned no state")
	}
	return resp.Snapshot, nil
}

func IsSocketAvailable(stateDir string) bool {
	if !IsRunning(stateDir) {
		return false
	}
	_, err := os.Stat(SocketFilePath(stateDir))
	return err == nil
}
