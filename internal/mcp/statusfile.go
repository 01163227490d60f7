package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status mirrors ~/.rah/mcp-status.json, the handshake file the desktop app
// reads to discover a locally running bridge.
type Status struct {
	Enabled       bool   `json:"enabled"`
	Port          int    `json:"port,omitempty"`
	URL           string `json:"url,omitempty"`
	TargetBaseURL string `json:"target_base_url,omitempty"`
	LastUpdated   string `json:"last_updated"`
	LastError     string `json:"last_error,omitempty"`
}

func statusPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".rah", "mcp-status.json"), nil
}

// WriteStatus persists the bridge state. Writes go through a temp file and
// rename so a concurrent reader never sees a truncated document.
func WriteStatus(st Status) error {
	path, err := statusPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}

	st.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

// ReadStatus loads the status file. A missing or malformed file is not an
// error, the bridge is simply considered not running.
func ReadStatus() (Status, bool) {
	path, err := statusPath()
	if err != nil {
		return Status{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Status{}, false
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, false
	}
	return st, true
}

// PortHint returns a graph base URL hint from the status file when no
// explicit target is configured. The target base URL is the REST API the
// running bridge proxies to; the file's url and port fields describe the
// bridge's own MCP endpoint and are only usable when no bridge URL claims
// the port.
func PortHint() string {
	st, ok := ReadStatus()
	if !ok || !st.Enabled {
		return ""
	}
	if st.TargetBaseURL != "" {
		return st.TargetBaseURL
	}
	if st.URL == "" && st.Port > 0 {
		return fmt.Sprintf("%d", st.Port)
	}
	return ""
}
