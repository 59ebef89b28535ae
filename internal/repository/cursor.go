package repository

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is a keyset position: the last row of the previous page under a
// given sort order.
type Cursor struct {
	Sort      model.SortOrder
	Key       float64
	CreatedAt time.Time
	ID        uuid.UUID
}

// CursorAfter builds the cursor that continues a listing after t.
func CursorAfter(order model.SortOrder, t *model.Take) Cursor {
	return Cursor{Sort: order, Key: t.SortKey(order), CreatedAt: t.CreatedAt, ID: t.ID}
}

// Encode returns the opaque base64url form "sort|key|createdAt|id".
func (c Cursor) Encode() string {
	raw := strings.Join([]string{
		string(c.Sort),
		strconv.FormatFloat(c.Key, 'g', -1, 64),
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.ID.String(),
	}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a cursor produced by Encode.
func DecodeCursor(s string) (Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.Split(string(b), "|")
	if len(parts) != 4 {
		return Cursor{}, ErrInvalidCursor
	}

	order := model.SortOrder(parts[0])
	if !model.ValidSortOrders[order] {
		return Cursor{}, ErrInvalidCursor
	}
	key, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if math.IsNaN(key) || math.IsInf(key, 0) {
		return Cursor{}, ErrInvalidCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[2])
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	id, err := uuid.Parse(parts[3])
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return Cursor{Sort: order, Key: key, CreatedAt: createdAt, ID: id}, nil
}
