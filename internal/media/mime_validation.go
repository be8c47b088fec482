package media

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const sniffLen = 3072

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// sniffImage inspects the head of body and returns the detected type plus a
// reader that still yields the full content.
func sniffImage(body io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable upload")
	}
	head = head[:n]
	if n == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "image is empty")
	}

	detected := mimetype.Detect(head)
	if !isAllowedImage(detected) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "image must be one of "+strings.Join(allowedImageTypes, ", ")).
			WithDetails(map[string]any{"detected": detected.String()})
	}
	return detected, io.MultiReader(bytes.NewReader(head), body), nil
}

func isAllowedImage(detected *mimetype.MIME) bool {
	for _, allowed := range allowedImageTypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
