package media

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Store persists product images and returns the public reference saved on
// the product row.
type Store interface {
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

const maxNameLength = 100

// SanitizeFilename keeps ASCII letters, digits, '.', '_' and '-'; every other
// rune becomes '_'. Leading dots are stripped.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLength {
		out = out[len(out)-maxNameLength:]
	}
	if out == "" || out == "_" {
		return "upload"
	}
	return out
}

// objectName prefixes the sanitized name with a uuid and makes sure it
// carries an extension matching the detected type.
func objectName(filename string, detected *mimetype.MIME) string {
	name := SanitizeFilename(filename)
	if ext := detected.Extension(); ext != "" && !hasExtension(name, detected) {
		name += ext
	}
	return uuid.NewString() + "_" + name
}

func hasExtension(name string, detected *mimetype.MIME) bool {
	ext := strings.ToLower(path.Ext(name))
	if detected.Is("image/jpeg") {
		return ext == ".jpg" || ext == ".jpeg"
	}
	return ext == detected.Extension()
}
