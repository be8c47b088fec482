package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// QueryIDs collects every positive integer under key; unparsable entries are
// skipped. Both repeated keys and comma separated values are accepted.
func QueryIDs(r *http.Request, key string) []uint {
	var ids []uint
	seen := map[uint]struct{}{}
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			value, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil || value == 0 {
				continue
			}
			id := uint(value)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// PathID parses a positive integer route parameter. Invalid ids are reported
// as not found.
func PathID(r *http.Request, param, resource string) (uint, error) {
	raw := chi.URLParam(r, param)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, resource+" not found")
	}
	return uint(value), nil
}
