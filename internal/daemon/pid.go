package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	pidFile      = "voice.pid"
	logFile      = "voice.log"
	metadataFile = "voice.json"
)

// Metadata describes the running watcher
type Metadata struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	ExecPath  string    `json:"exec_path"`
	Server    string    `json:"server"`
	Username  string    `json:"username,omitempty"`
}

// PIDFilePath returns the path to the PID file
func PIDFilePath(stateDir string) string {
	return filepath.Join(stateDir, pidFile)
}

// LogFilePath returns the path to the watcher log file
func LogFilePath(stateDir string) string {
	return filepath.Join(stateDir, logFile)
}

func MetadataFilePath(stateDir string) string {
	return filepath.Join(stateDir, metadataFile)
}

// EnsureStateDir creates the state directory if it doesn't exist
func EnsureStateDir(stateDir string) error {
	return os.MkdirAll(stateDir, 0700)
}

func WriteMetadata(stateDir string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(MetadataFilePath(stateDir), data, 0600)
}

func ReadMetadata(stateDir string) (*Metadata, error) {
	data, err := os.ReadFile(MetadataFilePath(stateDir))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// WritePID writes the current process PID to the PID file
func WritePID(stateDir string) error {
	if err := EnsureStateDir(stateDir); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return os.WriteFile(PIDFilePath(stateDir), []byte(strconv.Itoa(os.Getpid())), 0644)
}

// ReadPID reads the PID from the PID file
func ReadPID(stateDir string) (int, error) {
	data, err := os.ReadFile(PIDFilePath(stateDir))
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}

	return pid, nil
}

// RemovePID removes the PID and metadata files
func RemovePID(stateDir string) error {
	_ = os.Remove(MetadataFilePath(stateDir))
	err := os.Remove(PIDFilePath(stateDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// IsProcessRunning checks if a process with the given PID is running
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so we need to send signal 0
	// to check if the process actually exists
	return process.Signal(syscall.Signal(0)) == nil
}

// IsRunning checks if the watcher is currently running for this state dir
func IsRunning(stateDir string) bool {
	return GetRunningPID(stateDir) != 0
}

// GetRunningPID returns the PID of the running watcher, or 0 if not running
func GetRunningPID(stateDir string) int {
	pid, err := ReadPID(stateDir)
	if err != nil {
		return 0
	}

	if !IsProcessRunning(pid) {
		return 0
	}

	return pid
}
