package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bluelinehq/chel-archive/internal/domain/match"
)

func TestMatchServiceListBySeason(t *testing.T) {
	store := newFakeMatchStore()
	seasonID := "season-1"
	for i := 0; i < 3; i++ {
		m := match.Match{
			ID:          string(rune('a' + i)),
			EAMatchID:   string(rune('0' + i)),
			EATimestamp: int64(100 + i),
			SeasonID:    &seasonID,
		}
		if _, err := store.StoreMatch(context.Background(), m, nil); err != nil {
			t.Fatalf("seed match: %v", err)
		}
	}
	service := NewMatchService(store)

	items, total, err := service.ListBySeason(context.Background(), "season-1", 2, 0)
	if err != nil {
		t.Fatalf("ListBySeason: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d", len(items))
	}
	if total != 3 {
		t.Fatalf("total = %d", total)
	}

	if _, _, err := service.ListBySeason(context.Background(), "  ", 10, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank season error = %v, want invalid input", err)
	}

	items, total, err = service.ListBySeason(context.Background(), "season-404", 10, 0)
	if err != nil {
		t.Fatalf("unknown season: %v", err)
	}
	if len(items) != 0 || total != 0 {
		t.Fatalf("unknown season results = %d/%d", len(items), total)
	}
}
