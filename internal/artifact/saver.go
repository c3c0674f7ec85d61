// Package artifact delivers completed export files to the local filesystem,
// the desktop counterpart of a browser-triggered download.
package artifact

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jetpackmatt/freightdesk/internal/domain"
)

// Extra headroom required beyond the artifact size before writing.
const saveMinHeadroom = 16 * 1024 * 1024 // 16MB

// Saver writes export artifacts into a download directory.
type Saver struct {
	dir    string
	logger *slog.Logger
}

// NewSaver creates a saver rooted at dir.
func NewSaver(dir string, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{dir: dir, logger: logger}
}

// Save writes data as a named file in the download directory and returns the
// full path. The name is sanitized; an empty or hostile name falls back to a
// generic one. Free disk space is checked before writing.
func (s *Saver) Save(name, contentType string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	if free := getFreeDiskSpace(s.dir); free > 0 && free < int64(len(data))+saveMinHeadroom {
		return "", fmt.Errorf("%w: need %s, have %s",
			domain.ErrStorageFull,
			formatBytes(int64(len(data))+saveMinHeadroom),
			formatBytes(free),
		)
	}

	path := filepath.Join(s.dir, SanitizeFilename(name))
	if err := writeFileSync(path, data, 0644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	s.logger.Info("artifact written", "path", path, "content_type", contentType, "bytes", len(data))
	return path, nil
}

// SanitizeFilename strips path components and characters that are unsafe in
// a filename on any of the supported platforms.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('_')
		default:
			if r < 0x20 {
				b.WriteRune('_')
			} else {
				b.WriteRune(r)
			}
		}
	}

	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "export.dat"
	}
	return out
}

// writeFileSync writes data to a file and ensures it's flushed to disk.
// Matters for removable and network volumes that may not flush immediately.
func writeFileSync(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KB", "MB", "GB", "TB", "PB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}
