package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forgecloud/backend/internal/sentinel"
	"github.com/forgecloud/backend/pkg/queue"
)

// AuditProcessor drains the audit event queue and records each event through
// the auditor.
type AuditProcessor struct {
	auditor *sentinel.Auditor
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewAuditProcessor creates an audit event processor.
func NewAuditProcessor(auditor *sentinel.Auditor, q *queue.Queue, logger *zap.Logger) *AuditProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditProcessor{auditor: auditor, queue: q, logger: logger}
}

// Process executes one audit event job.
func (p *AuditProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeAuditEvent {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.AuditEventPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.auditor.Record(ctx, payload); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *AuditProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("audit worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("audit worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
