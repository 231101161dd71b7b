package app

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// historyEntry is one mutation recorded to the local audit log.
type historyEntry struct {
	At      time.Time `json:"at"`
	Profile string    `json:"profile"`
	Action  string    `json:"action"`
	Payload any       `json:"payload,omitempty"`
}

// recordHistory appends a mutation to the JSONL history file. The log is
// best-effort: a write failure never fails the command that caused it.
func (cc *commandContext) recordHistory(action string, payload any) {
	path := historyPath()
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	entry := historyEntry{
		At:      time.Now(),
		Profile: cc.opts.Profile,
		Action:  action,
		Payload: payload,
	}
	_ = json.NewEncoder(f).Encode(entry)
}

// readHistory loads up to limit entries from the log, newest first.
// limit <= 0 means all.
func readHistory(limit int) ([]historyEntry, error) {
	path := historyPath()
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []historyEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry historyEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			// Skip lines a crashed write left behind.
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func historyPath() string {
	if v := strings.TrimSpace(os.Getenv("HCAL_HISTORY_PATH")); v != "" {
		return v
	}
	base := defaultUserConfigPath()
	if base == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(base), "history.jsonl")
}
