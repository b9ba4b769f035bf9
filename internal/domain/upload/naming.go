package upload

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const maxBaseName = 40

// StoredName builds a collision free name "<uuid>_<sanitized original><ext>".
// The extension comes from the original name, then from the detected MIME type.
func StoredName(f *File) string {
	ext := strings.ToLower(filepath.Ext(f.OriginalName()))
	if ext == "" {
		ext = extensionFor(f.DetectedMimeType())
	}
	return fmt.Sprintf("%s_%s%s", uuid.New().String(), sanitizeName(f.OriginalName()), ext)
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > maxBaseName {
		name = name[:maxBaseName]
	}
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

func extensionFor(mime string) string {
	if mime == "" {
		return ".bin"
	}
	if mt := mimetype.Lookup(mime); mt != nil && mt.Extension() != "" {
		return mt.Extension()
	}
	return ".bin"
}

// ResolveSubdir joins a client supplied sub directory onto root. Absolute
// paths and paths escaping root fail with ErrInvalidDir.
func ResolveSubdir(root, sub string) (string, error) {
	if sub == "" {
		return root, nil
	}
	if filepath.IsAbs(sub) || strings.HasPrefix(sub, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDir, sub)
	}
	clean := filepath.Clean(sub)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDir, sub)
	}
	return filepath.Join(root, clean), nil
}
