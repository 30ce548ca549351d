package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func newTestStore(t *testing.T) TitleStore {
	t.Helper()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func TestInsertAndLookup(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertTitle(ctx, 1, 2, "Chief"); err != nil {
		t.Fatalf("InsertTitle: %v", err)
	}

	byUser, err := store.GetByUser(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if byUser == nil || byUser.Title != "Chief" {
		t.Fatalf("GetByUser = %+v, want title Chief", byUser)
	}

	byTitle, err := store.GetByTitle(ctx, 1, "Chief")
	if err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}
	if byTitle == nil || byTitle.UserID != 2 {
		t.Fatalf("GetByTitle = %+v, want user 2", byTitle)
	}
}

func TestLookupMissingIsNotError(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	record, err := store.GetByUser(ctx, 1, 99)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if record != nil {
		t.Fatalf("GetByUser = %+v, want nil", record)
	}

	record, err = store.GetByTitle(ctx, 1, "nobody")
	if err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}
	if record != nil {
		t.Fatalf("GetByTitle = %+v, want nil", record)
	}
}

func TestInsertConflictKeepsOriginal(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertTitle(ctx, 1, 2, "Chief"); err != nil {
		t.Fatalf("InsertTitle: %v", err)
	}

	err := store.InsertTitle(ctx, 1, 3, "Chief")
	if !errors.Is(err, ErrTitleInUse) {
		t.Fatalf("InsertTitle conflict = %v, want ErrTitleInUse", err)
	}

	record, err := store.GetByTitle(ctx, 1, "Chief")
	if err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}
	if record == nil || record.UserID != 2 {
		t.Fatalf("original mapping changed: %+v", record)
	}
}

func TestReclaimReplacesOldTitle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertTitle(ctx, 1, 2, "Chief"); err != nil {
		t.Fatalf("InsertTitle: %v", err)
	}
	if err := store.InsertTitle(ctx, 1, 2, "Boss"); err != nil {
		t.Fatalf("InsertTitle second claim: %v", err)
	}

	// Old reverse key must be gone so someone else can claim it.
	old, err := store.GetByTitle(ctx, 1, "Chief")
	if err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}
	if old != nil {
		t.Fatalf("old title still mapped: %+v", old)
	}

	if err := store.InsertTitle(ctx, 1, 3, "Chief"); err != nil {
		t.Fatalf("reclaiming freed title: %v", err)
	}
}

func TestRemoveByUserIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertTitle(ctx, 1, 2, "Chief"); err != nil {
		t.Fatalf("InsertTitle: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.RemoveByUser(ctx, 1, 2); err != nil {
			t.Fatalf("RemoveByUser call %d: %v", i+1, err)
		}
	}

	record, err := store.GetByTitle(ctx, 1, "Chief")
	if err != nil {
		t.Fatalf("GetByTitle: %v", err)
	}
	if record != nil {
		t.Fatalf("reverse key survived removal: %+v", record)
	}
}

func TestRemoveByTitleRemovesBothSides(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.InsertTitle(ctx, 1, 2, "Chief"); err != nil {
		t.Fatalf("InsertTitle: %v", err)
	}
	if err := store.RemoveByTitle(ctx, 1, "Chief"); err != nil {
		t.Fatalf("RemoveByTitle: %v", err)
	}

	record, err := store.GetByUser(ctx, 1, 2)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if record != nil {
		t.Fatalf("forward key survived removal: %+v", record)
	}

	if err := store.RemoveByTitle(ctx, 1, "Chief"); err != nil {
		t.Fatalf("second RemoveByTitle should be a no-op: %v", err)
	}
}

func TestListByChatIsolation(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	inserts := []TitleRecord{
		{ChatID: 1, UserID: 2, Title: "Chief"},
		{ChatID: 1, UserID: 3, Title: "Scribe"},
		{ChatID: -100, UserID: 2, Title: "Elder"},
		{ChatID: 10, UserID: 4, Title: "Guard"},
	}
	for _, r := range inserts {
		if err := store.InsertTitle(ctx, r.ChatID, r.UserID, r.Title); err != nil {
			t.Fatalf("InsertTitle %+v: %v", r, err)
		}
	}

	records, err := store.ListByChat(ctx, 1)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListByChat(1) returned %d records, want 2: %+v", len(records), records)
	}
	for _, r := range records {
		if r.ChatID != 1 {
			t.Errorf("record from wrong chat leaked into listing: %+v", r)
		}
	}

	empty, err := store.ListByChat(ctx, 114514)
	if err != nil {
		t.Fatalf("ListByChat empty chat: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("ListByChat for unknown chat = %+v, want empty", empty)
	}
}

func TestListByChatStableOrder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for user := int64(2); user <= 4; user++ {
		if err := store.InsertTitle(ctx, 7, user, fmt.Sprintf("Rank %d", user)); err != nil {
			t.Fatalf("InsertTitle: %v", err)
		}
	}

	first, err := store.ListByChat(ctx, 7)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	second, err := store.ListByChat(ctx, 7)
	if err != nil {
		t.Fatalf("ListByChat: %v", err)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("unexpected listing sizes: %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("listing order not stable: %+v vs %+v", first, second)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	t.Parallel()

	record, err := parseUserKey(userKey(-1001234, 42), []byte("Chief"))
	if err != nil {
		t.Fatalf("parseUserKey: %v", err)
	}
	want := TitleRecord{ChatID: -1001234, UserID: 42, Title: "Chief"}
	if record != want {
		t.Fatalf("parseUserKey = %+v, want %+v", record, want)
	}

	id, err := decodeUserID(encodeUserID(42))
	if err != nil {
		t.Fatalf("decodeUserID: %v", err)
	}
	if id != 42 {
		t.Fatalf("decodeUserID = %d, want 42", id)
	}
}
