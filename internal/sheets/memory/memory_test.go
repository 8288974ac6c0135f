package memory

import (
	"context"
	"testing"
	"time"

	"expenses/internal/core"
)

func TestAppendStoresAndReturnsRef(t *testing.T) {
	store := New()

	ref, err := store.Append(context.Background(), core.Entry{
		Title:    "Lunch",
		Amount:   12.5,
		Currency: "USD",
		Category: "Food",
		Type:     core.Expense,
		Date:     time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("Append() ref = %q, want mem:1", ref)
	}
	if got := store.Items(); len(got) != 1 || got[0].Title != "Lunch" {
		t.Errorf("Items() = %+v, want one Lunch entry", got)
	}
}

func TestAppendRejectsInvalidEntry(t *testing.T) {
	store := New()

	_, err := store.Append(context.Background(), core.Entry{Title: ""})
	if err == nil {
		t.Error("Append() with invalid entry should fail")
	}
	if len(store.Items()) != 0 {
		t.Error("invalid entry must not be stored")
	}
}
