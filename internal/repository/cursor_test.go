package repository

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akshadjaiswal/hot-takes-arena/internal/model"
)

func TestCursorRoundTrip(t *testing.T) {
	cs := 0.9583
	take := &model.Take{
		ID:               uuid.New(),
		ControversyScore: &cs,
		CreatedAt:        time.Date(2025, 3, 4, 5, 6, 7, 123456789, time.UTC),
	}

	encoded := CursorAfter(model.SortControversial, take).Encode()
	got, err := DecodeCursor(encoded)
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}

	if got.Sort != model.SortControversial {
		t.Errorf("sort = %q", got.Sort)
	}
	if got.Key != cs {
		t.Errorf("key = %v, want %v", got.Key, cs)
	}
	if !got.CreatedAt.Equal(take.CreatedAt) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, take.CreatedAt)
	}
	if got.ID != take.ID {
		t.Errorf("id = %v, want %v", got.ID, take.ID)
	}
}

func TestCursorKeepsFullFloatPrecision(t *testing.T) {
	c := Cursor{Sort: model.SortTrending, Key: 12.345678901234567, ID: uuid.New(), CreatedAt: time.Now()}
	got, err := DecodeCursor(c.Encode())
	if err != nil {
		t.Fatal(err)
	}
	if got.Key != c.Key {
		t.Errorf("key = %v, want %v", got.Key, c.Key)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		input string
	}{
		{"not base64", "!!!"},
		{"too few parts", enc("fresh|0|2025-01-01T00:00:00Z")},
		{"unknown sort", enc("newest|0|2025-01-01T00:00:00Z|" + uuid.NewString())},
		{"bad key", enc("fresh|abc|2025-01-01T00:00:00Z|" + uuid.NewString())},
		{"nan key", enc("trending|NaN|2025-01-01T00:00:00Z|" + uuid.NewString())},
		{"infinite key", enc("trending|+Inf|2025-01-01T00:00:00Z|" + uuid.NewString())},
		{"negative infinite key", enc("controversial|-Inf|2025-01-01T00:00:00Z|" + uuid.NewString())},
		{"bad time", enc("fresh|0|yesterday|" + uuid.NewString())},
		{"bad id", enc("fresh|0|2025-01-01T00:00:00Z|nope")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCursor(tt.input); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("err = %v, want ErrInvalidCursor", err)
			}
		})
	}
}
