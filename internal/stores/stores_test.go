package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStoreTest(t *testing.T) (*miniredis.Miniredis, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, rdb, func() {
		rdb.Close()
		mr.Close()
	}
}

func testConfirmationRecord(now time.Time) *ConfirmationRecord {
	return &ConfirmationRecord{
		AccountID: "acc-1",
		Email:     "user@example.com",
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(15 * time.Minute).Unix(),
	}
}

func TestConfirmationConsumeOnce(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	rec := testConfirmationRecord(time.Now())
	if err := store.Save(ctx, "hash-1", rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Consume(ctx, "hash-1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.AccountID != rec.AccountID || got.Email != rec.Email {
		t.Fatalf("consumed record mismatch: %+v", got)
	}
	if got.ConfirmedAt == 0 {
		t.Fatal("expected consumed record to carry confirmation time")
	}
}

func TestConfirmationConsumeReplay(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	if err := store.Save(ctx, "hash-1", testConfirmationRecord(time.Now()), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Consume(ctx, "hash-1"); err != nil {
		t.Fatalf("first consume: %v", err)
	}

	if _, err := store.Consume(ctx, "hash-1"); !errors.Is(err, ErrConfirmationConsumed) {
		t.Fatalf("expected consumed sentinel, got %v", err)
	}

	// The replayed record is deleted, so a third attempt no longer finds it.
	if _, err := store.Consume(ctx, "hash-1"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expected not-found sentinel after replay deletion, got %v", err)
	}
}

func TestConfirmationConsumeExpired(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	now := time.Now()
	rec := testConfirmationRecord(now)
	rec.ExpiresAt = now.Add(-time.Minute).Unix()
	if err := store.Save(ctx, "hash-expired", rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Consume(ctx, "hash-expired"); !errors.Is(err, ErrConfirmationExpired) {
		t.Fatalf("expected expired sentinel, got %v", err)
	}

	// Expired records are deleted inside the script run.
	if _, err := store.Lookup(ctx, "hash-expired"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expected not-found after expiry deletion, got %v", err)
	}
}

func TestConfirmationConsumeUnknown(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	store := NewConfirmationStore(rdb, "cnf")

	if _, err := store.Consume(context.Background(), "missing"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expected not-found sentinel, got %v", err)
	}
}

func TestConfirmationLookupAndDelete(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	rec := testConfirmationRecord(time.Now())
	if err := store.Save(ctx, "hash-1", rec, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Lookup(ctx, "hash-1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Email != rec.Email || got.ConfirmedAt != 0 {
		t.Fatalf("lookup record mismatch: %+v", got)
	}

	if err := store.Delete(ctx, "hash-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Delete is idempotent.
	if err := store.Delete(ctx, "hash-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Lookup(ctx, "hash-1"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestConfirmationRecordTTLEviction(t *testing.T) {
	mr, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	if err := store.Save(ctx, "hash-ttl", testConfirmationRecord(time.Now()), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Lookup(ctx, "hash-ttl"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expected not-found after ttl eviction, got %v", err)
	}
}

func TestConfirmationConsumeKeepsRetentionTTL(t *testing.T) {
	mr, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	if err := store.Save(ctx, "hash-1", testConfirmationRecord(time.Now()), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Consume(ctx, "hash-1"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	ttl := mr.TTL("cnf:hash-1")
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("expected retention ttl preserved, got %v", ttl)
	}

	got, err := store.Lookup(ctx, "hash-1")
	if err != nil {
		t.Fatalf("lookup after consume: %v", err)
	}
	if got.ConfirmedAt == 0 {
		t.Fatal("expected stored record to be marked confirmed")
	}
}

func TestConfirmationCorruptRecord(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")

	if err := rdb.Set(ctx, "cnf:hash-bad", []byte{99, 1, 2}, time.Hour).Err(); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}

	// Unknown record version reads as not-found and the blob is dropped.
	if _, err := store.Consume(ctx, "hash-bad"); !errors.Is(err, ErrConfirmationNotFound) {
		t.Fatalf("expected not-found for corrupt record, got %v", err)
	}
	if n, _ := rdb.Exists(ctx, "cnf:hash-bad").Result(); n != 0 {
		t.Fatal("expected corrupt record to be deleted")
	}
}

func TestReplayGuardBlacklistOnce(t *testing.T) {
	_, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	guard := NewReplayGuard(rdb, "rjt")

	inserted, err := guard.Blacklist(ctx, "jti-1", time.Hour)
	if err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if !inserted {
		t.Fatal("expected first blacklist to insert")
	}

	inserted, err = guard.Blacklist(ctx, "jti-1", time.Hour)
	if err != nil {
		t.Fatalf("second blacklist: %v", err)
	}
	if inserted {
		t.Fatal("expected second blacklist to report replay")
	}

	seen, err := guard.IsBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if !seen {
		t.Fatal("expected jti to be blacklisted")
	}
}

func TestReplayGuardEntryExpires(t *testing.T) {
	mr, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	guard := NewReplayGuard(rdb, "rjt")

	if _, err := guard.Blacklist(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	seen, err := guard.IsBlacklisted(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is blacklisted: %v", err)
	}
	if seen {
		t.Fatal("expected entry to expire with its ttl")
	}
}

func TestReplayGuardClampsTinyTTL(t *testing.T) {
	mr, rdb, done := newStoreTest(t)
	defer done()
	guard := NewReplayGuard(rdb, "rjt")

	if _, err := guard.Blacklist(context.Background(), "jti-1", time.Millisecond); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	if ttl := mr.TTL("rjt:jti-1"); ttl < time.Second {
		t.Fatalf("expected ttl clamped to at least 1s, got %v", ttl)
	}
}

func TestStoresRedisUnavailable(t *testing.T) {
	mr, rdb, done := newStoreTest(t)
	defer done()
	ctx := context.Background()
	store := NewConfirmationStore(rdb, "cnf")
	guard := NewReplayGuard(rdb, "rjt")

	mr.Close()

	if err := store.Save(ctx, "h", testConfirmationRecord(time.Now()), time.Hour); !errors.Is(err, ErrConfirmationRedisUnavailable) {
		t.Fatalf("expected confirmation unavailable sentinel, got %v", err)
	}
	if _, err := store.Consume(ctx, "h"); !errors.Is(err, ErrConfirmationRedisUnavailable) {
		t.Fatalf("expected confirmation unavailable sentinel, got %v", err)
	}
	if _, err := guard.Blacklist(ctx, "jti", time.Hour); !errors.Is(err, ErrReplayRedisUnavailable) {
		t.Fatalf("expected replay unavailable sentinel, got %v", err)
	}
}
