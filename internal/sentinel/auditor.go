package sentinel

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/models"
	"github.com/forgecloud/backend/pkg/queue"
)

// AuditSourceName is the reserved per-organization source audit events are
// recorded under. It is created on first use.
const AuditSourceName = "forgecloud-audit"

// Auditor persists audit events as log entries under each organization's
// audit source. It is driven by the background worker, not by request
// handlers.
type Auditor struct {
	sources SourceStore
	entries EntryStore
	logger  *zap.Logger
}

// NewAuditor creates an auditor.
func NewAuditor(sources SourceStore, entries EntryStore, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{sources: sources, entries: entries, logger: logger}
}

// Record writes one audit event. Events without a surviving organization are
// logged and dropped.
func (a *Auditor) Record(ctx context.Context, payload queue.AuditEventPayload) error {
	if payload.OrganizationID == nil {
		a.logger.Info("audit event without organization",
			zap.String("event", payload.Event),
			zap.String("user_id", payload.UserID.String()),
			zap.Any("context", payload.Context))
		return nil
	}
	orgID := *payload.OrganizationID

	src, err := a.auditSource(ctx, orgID)
	if err != nil {
		return err
	}

	level := models.LogLevel(payload.Level)
	if !models.ValidLogLevel(level) {
		level = models.LevelInfo
	}

	entryContext := json.RawMessage(nil)
	if len(payload.Context) > 0 {
		entryContext, err = json.Marshal(payload.Context)
		if err != nil {
			return err
		}
	}
	metadata, err := json.Marshal(map[string]string{
		"event":   payload.Event,
		"user_id": payload.UserID.String(),
	})
	if err != nil {
		return err
	}

	entry := &models.LogEntry{
		OrganizationID: orgID,
		SourceID:       src.ID,
		Timestamp:      time.Now().UTC(),
		Level:          level,
		Message:        payload.Message,
		Context:        entryContext,
		Metadata:       metadata,
	}
	return a.entries.Create(ctx, entry)
}

// auditSource returns the organization's audit source, creating it on first
// use.
func (a *Auditor) auditSource(ctx context.Context, orgID uuid.UUID) (*models.LogSource, error) {
	src, err := a.sources.FindByOrgAndName(ctx, orgID, AuditSourceName)
	if err != nil {
		return nil, err
	}
	if src != nil {
		return src, nil
	}

	desc := "System-generated audit trail"
	env := "internal"
	src = &models.LogSource{
		OrganizationID: orgID,
		Name:           AuditSourceName,
		Type:           models.SourceAudit,
		Status:         models.SourceActive,
		Description:    &desc,
		Environment:    &env,
	}
	if err := a.sources.Create(ctx, src); err != nil {
		// Concurrent workers race on first use; the unique index decides.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return a.sources.FindByOrgAndName(ctx, orgID, AuditSourceName)
		}
		return nil, err
	}
	return src, nil
}

// QueuePublisher pushes audit events onto the Redis queue for the worker.
// Publishing is best effort: a full or unreachable queue never fails the
// request that triggered the event.
type QueuePublisher struct {
	queue  *queue.Queue
	logger *zap.Logger
}

// NewQueuePublisher creates a queue-backed audit publisher.
func NewQueuePublisher(q *queue.Queue, logger *zap.Logger) *QueuePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuePublisher{queue: q, logger: logger}
}

// Publish enqueues an audit event.
func (p *QueuePublisher) Publish(ctx context.Context, payload queue.AuditEventPayload) {
	if payload.Level == "" {
		payload.Level = string(models.LevelInfo)
	}
	if err := p.queue.EnqueueAuditEvent(ctx, payload); err != nil {
		p.logger.Warn("audit event dropped", zap.Error(err), zap.String("event", payload.Event))
	}
}
