package catalog

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tenantcrm/crm-authz/internal/db/models"
)

// Entry is the snapshot form of a catalog permission. It leaves out IDs and timestamps
// so two runs over the same routes produce identical bytes.
type Entry struct {
	Name         string `json:"name"`
	Resource     string `json:"resource"`
	Action       string `json:"action"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	Description  string `json:"description,omitempty"`
	IsWildcard   bool   `json:"isWildcard,omitempty"`
	IsAdminLevel bool   `json:"isAdminLevel,omitempty"`
}

// Snapshot renders perms as indented JSON in the given order.
func Snapshot(perms []models.Permission) ([]byte, error) {
	entries := make([]Entry, 0, len(perms))
	for _, p := range perms {
		entries = append(entries, Entry{
			Name:         p.Name,
			Resource:     p.Resource,
			Action:       p.Action,
			Method:       p.Method,
			Path:         p.Path,
			Description:  p.Description,
			IsWildcard:   p.IsWildcard,
			IsAdminLevel: p.IsAdminLevel,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal catalog snapshot: %w", err)
	}

	return append(data, '\n'), nil
}

// WriteSnapshot writes the snapshot of res to path.
func WriteSnapshot(path string, res *Result) error {
	if err := os.WriteFile(path, res.Snapshot, 0o600); err != nil {
		return fmt.Errorf("write catalog snapshot %s: %w", path, err)
	}

	return nil
}
