package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrForbiddenType = errors.New("forbidden file type")
	ErrOutsideRoots  = errors.New("file outside allowed directories")
	ErrNotFound      = errors.New("not found")
)

// AudioTypes maps the proxied extensions to their content types.
var AudioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".m4a":  "audio/mp4",
	".aiff": "audio/aiff",
}

// Local reads audio files from disk. With no roots every directory is
// allowed.
type Local struct {
	roots []string
}

func NewLocal(roots []string) *Local {
	l := &Local{}
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			l.roots = append(l.roots, abs)
		}
	}
	return l
}

// Read returns the file contents and content type.
func (l *Local) Read(file string) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(file))
	mimeType, ok := AudioTypes[ext]
	if !ok {
		return nil, "", ErrForbiddenType
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", file, err)
	}
	if !l.allowed(abs) {
		return nil, "", ErrOutsideRoots
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}

func (l *Local) allowed(abs string) bool {
	if len(l.roots) == 0 {
		return true
	}
	for _, root := range l.roots {
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
