package queries

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"checkout-core/internal/pkg/errs"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	cursorPrefix = "v1:"
)

// Cursor is the opaque keyset position handed back to clients. It points at
// the last order of a page in (placed_at DESC, id DESC) order.
type Cursor struct {
	After string `json:"after,omitempty"`
}

// EncodeAfterCursor keeps microseconds, which is what Postgres stores.
func EncodeAfterCursor(placedAt time.Time, id uuid.UUID) string {
	raw := cursorPrefix + strconv.FormatInt(placedAt.UnixMicro(), 10) + "-" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func DecodeAfterCursor(cursor string) (time.Time, uuid.UUID, error) {
	if cursor == "" {
		return time.Time{}, uuid.Nil, errs.New("empty cursor")
	}
	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "cursor encoding")
	}

	payload, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok {
		return time.Time{}, uuid.Nil, errs.New("unsupported cursor version")
	}
	micros, rawID, ok := strings.Cut(payload, "-")
	if !ok {
		return time.Time{}, uuid.Nil, errs.Newf("malformed cursor %q", payload)
	}

	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "cursor timestamp")
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return time.Time{}, uuid.Nil, errs.Wrap(err, "cursor order id")
	}
	return time.UnixMicro(us).UTC(), id, nil
}

// ValidateLimit clamps a page size into [1, MaxListLimit].
func ValidateLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
