package export

import (
	"fmt"
	"os"
	"path/filepath"

	"churnscope/domain/core"
	"churnscope/internal/errors"
)

// WriteSummaryFile writes the rendered executive summary markdown next to
// the exported tables and returns the path written.
func WriteSummaryFile(dir, content string, stamp core.Timestamp) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("failed to create export directory %s", dir))
	}

	path := filepath.Join(dir, fmt.Sprintf("executive_summary_%s.md", stamp.Stamp()))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("failed to write %s", path))
	}

	return path, nil
}
