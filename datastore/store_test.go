package datastore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mmdatafocus/insights_backend/models"
)

func TestStoreCurrentNeverNil(t *testing.T) {
	store := NewStore(func(ctx context.Context) (*Snapshot, error) {
		return NewSnapshot(nil, nil, nil, "loaded"), nil
	})
	snap := store.Current()
	if snap == nil || snap.Source != "empty" {
		t.Fatalf("expected seeded empty snapshot, got %+v", snap)
	}
}

func TestStoreReloadSwapsSnapshot(t *testing.T) {
	calls := 0
	store := NewStore(func(ctx context.Context) (*Snapshot, error) {
		calls++
		return NewSnapshot([]models.TransactionLine{{OrderId: "o1", Branch: "Main", Item: "Latte"}}, nil, nil, "loaded"), nil
	})

	snap, err := store.Reload(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "loaded" || calls != 1 {
		t.Fatalf("reload did not run the loader: source=%q calls=%d", snap.Source, calls)
	}
	if store.Current() != snap {
		t.Fatalf("Current must return the freshly loaded snapshot")
	}
}

func TestStoreReloadFailureKeepsOldSnapshot(t *testing.T) {
	fail := false
	store := NewStore(func(ctx context.Context) (*Snapshot, error) {
		if fail {
			return nil, errors.New("source unavailable")
		}
		return NewSnapshot(nil, nil, nil, "good"), nil
	})

	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := store.Current()

	fail = true
	if _, err := store.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	if store.Current() != before {
		t.Fatalf("failed reload must not replace the published snapshot")
	}
}

func TestStoreConcurrentReadersDuringReload(t *testing.T) {
	store := NewStore(func(ctx context.Context) (*Snapshot, error) {
		return NewSnapshot(nil, nil, nil, "loaded"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if store.Current() == nil {
					t.Error("Current returned nil during reload")
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if _, err := store.Reload(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	wg.Wait()
}
