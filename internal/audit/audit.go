package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/envault/envault/internal/configs"

	"github.com/google/uuid"
)

// Entry represents a single audit log entry.
type Entry struct {
	ID        string `json:"id"`   // Unique per entry, for correlation.
	Timestamp string `json:"ts"`   // RFC3339 with microseconds.
	User      string `json:"user"` // Email of the acting account.
	AccountID string `json:"account_id"`
	Operation string `json:"op"` // Operation name.

	// Optional fields depending on operation.
	WorkspaceID  string `json:"workspace_id,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	ProjectName  string `json:"project_name,omitempty"`
	SecretKey    string `json:"secret_key,omitempty"`   // Name only, never a value.
	TargetUser   string `json:"target_user,omitempty"`  // For invite/remove.
	Role         string `json:"role,omitempty"`         // For invite.
	KeyVersion   int    `json:"key_version,omitempty"`  // For migrate/rotate.
	SecretsCount int    `json:"secrets_count,omitempty"`
	Rotated      bool   `json:"rotated,omitempty"` // For remove.
}

// Log appends an entry to the audit log. If logging fails the operation
// carries on; an audit write must never block a secret workflow.
func Log(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}

	logPath := LogPath()
	if logPath == "" {
		// Not inside a bound project, skip logging.
		return
	}

	// #nosec G306 -- audit log should be readable by team members.
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// ForUser starts an entry with the acting account filled in from config.
func ForUser(op string) Entry {
	entry := Entry{Operation: op}

	userConfig, err := configs.LoadUserConfig()
	if err != nil {
		return entry
	}

	entry.User = userConfig.Account.Email
	entry.AccountID = userConfig.Account.AccountID

	return entry
}

// LogPath returns the path to the audit log file, or "" when the working
// directory is not inside a bound project.
func LogPath() string {
	projectPath := configs.ProjectEnvaultSettings.ProjectPath
	if projectPath == "" {
		return ""
	}
	return filepath.Join(projectPath, ".envault", "audit.jsonl")
}

// ReadEntries reads all entries from the audit log. Returns an empty slice
// if the log doesn't exist.
func ReadEntries() ([]Entry, error) {
	logPath := LogPath()
	if logPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return parseEntries(data)
}

// parseEntries parses JSON Lines data. Malformed lines are skipped so one
// corrupt line cannot hide the rest of the trail.
func parseEntries(data []byte) ([]Entry, error) {
	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
