package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestIdempotencyCreateProcessing(t *testing.T) {
	repo := NewIdempotencyRepository()

	record, err := repo.CreateProcessing("pay:o-1", "hash-1", time.Time{})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing, got %s", record.Status)
	}
	if record.TTLAt.IsZero() {
		t.Fatal("ttl must be defaulted")
	}

	// Повтор с тем же hash возвращает существующую запись
	existing, err := repo.CreateProcessing("pay:o-1", "hash-1", time.Time{})
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if existing.Key != "pay:o-1" {
		t.Fatalf("expected existing record, got %+v", existing)
	}

	// Повтор с другим hash — конфликт использования ключа
	if _, err := repo.CreateProcessing("pay:o-1", "hash-2", time.Time{}); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected hash mismatch, got %v", err)
	}
}

func TestIdempotencyCreateValidation(t *testing.T) {
	repo := NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("", "hash", time.Time{}); !errors.Is(err, domain.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected key required, got %v", err)
	}
	if _, err := repo.CreateProcessing("key", "", time.Time{}); !errors.Is(err, domain.ErrIdempotencyRequestHashRequired) {
		t.Fatalf("expected hash required, got %v", err)
	}
}

func TestIdempotencyMarkDoneAndFailed(t *testing.T) {
	repo := NewIdempotencyRepository()

	if _, err := repo.CreateProcessing("pay:o-1", "hash-1", time.Time{}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.MarkDone("pay:o-1", []byte(`{"payment_id":"pm-1"}`)); err != nil {
		t.Fatalf("mark done failed: %v", err)
	}

	record, err := repo.Get("pay:o-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone {
		t.Fatalf("expected done, got %s", record.Status)
	}
	if string(record.Result) != `{"payment_id":"pm-1"}` {
		t.Fatalf("unexpected result: %s", record.Result)
	}

	if err := repo.MarkFailed("missing", nil); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIdempotencyDeleteExpired(t *testing.T) {
	repo := NewIdempotencyRepository()
	now := time.Now().UTC()

	if _, err := repo.CreateProcessing("old-1", "h", now.Add(-time.Hour)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("old-2", "h", now.Add(-time.Minute)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.CreateProcessing("fresh", "h", now.Add(time.Hour)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	deleted, err := repo.DeleteExpired(now, 10)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	if _, err := repo.Get("fresh"); err != nil {
		t.Fatalf("fresh record must survive: %v", err)
	}
	if _, err := repo.Get("old-1"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected old record deleted, got %v", err)
	}
}
