package health

import (
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

// OutboxChecker следит за backlog transactional outbox.
// Растущий backlog означает, что события не доходят до Kafka.
type OutboxChecker struct {
	repo       domain.OutboxRepository
	maxPending int
}

// NewOutboxChecker создаёт проверку outbox. При maxPending <= 0 используется 1000.
func NewOutboxChecker(repo domain.OutboxRepository, maxPending int) *OutboxChecker {
	if maxPending <= 0 {
		maxPending = 1000
	}
	return &OutboxChecker{
		repo:       repo,
		maxPending: maxPending,
	}
}

// Check выполняет проверку
func (c *OutboxChecker) Check() Check {
	start := time.Now()
	stats, err := c.repo.Stats()
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:       "outbox",
			Status:     StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}

	if stats.PendingCount > c.maxPending {
		return Check{
			Name:       "outbox",
			Status:     StatusDegraded,
			Message:    fmt.Sprintf("%d pending events (threshold %d)", stats.PendingCount, c.maxPending),
			DurationMs: duration.Milliseconds(),
		}
	}

	return Check{
		Name:       "outbox",
		Status:     StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}
