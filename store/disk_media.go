package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pulse/models"
)

// DiskSink stores media files under a directory. The reference is the
// stored filename; uniqueness comes from a timestamp suffix on the
// sanitized base name. Used by the flat-file and relational backends.
type DiskSink struct {
	dir string
}

// NewDiskSink creates the directory when missing and returns a sink.
func NewDiskSink(dir string) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskSink{dir: dir}, nil
}

// Store writes the bytes under a unique name derived from suggestedName.
func (d *DiskSink) Store(_ context.Context, data []byte, suggestedName string) (string, error) {
	now := time.Now()
	base := sanitizeName(filepath.Base(suggestedName))
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	if name == "" {
		name = "file"
	}
	unique := fmt.Sprintf("%s_%s_%d%s", name, now.Format("20060102_150405"), now.Nanosecond(), strings.ToLower(ext))
	if err := os.WriteFile(filepath.Join(d.dir, unique), data, 0o644); err != nil {
		return "", err
	}
	return unique, nil
}

// Retrieve resolves a stored filename back to bytes and content type.
func (d *DiskSink) Retrieve(_ context.Context, ref string) ([]byte, string, error) {
	// refs are bare filenames; refuse anything that walks out of dir
	if ref == "" || ref != filepath.Base(ref) {
		return nil, "", models.ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(d.dir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", models.ErrNotFound
		}
		return nil, "", err
	}
	return data, ContentTypeFor(ref), nil
}

// sanitizeName keeps letters, digits, dot, dash and underscore.
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
