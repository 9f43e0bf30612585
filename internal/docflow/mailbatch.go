package docflow

import (
	"context"

	"github.com/nordbok/invoice-ingest/internal/common"
	"github.com/nordbok/invoice-ingest/internal/mail"
)

// BatchConfig bounds one intake run over a mailbox.
type BatchConfig struct {
	Subject        string
	From           string
	MaxMessages    int
	MaxAttachments int
}

type BatchStats struct {
	Fetched    int
	Ingested   int
	Duplicates int
	Failed     int
}

// FetchBatch pulls matching messages and runs intake plus processing on
// each, sequentially. One bad message is counted and skipped; only the
// mailbox itself failing aborts the batch.
func (c *Controller) FetchBatch(ctx context.Context, mbox mail.Mailbox, cfg BatchConfig) (BatchStats, error) {
	var stats BatchStats

	msgs, err := mbox.Fetch(ctx, mail.Criteria{Subject: cfg.Subject, From: cfg.From, Limit: cfg.MaxMessages})
	if err != nil {
		return stats, common.NewAppError(common.CodeMailError, "fetch mail batch", err)
	}
	stats.Fetched = len(msgs)

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if cfg.MaxAttachments > 0 && len(msg.Attachments) > cfg.MaxAttachments {
			c.logger.Warn("docflow.batch.attachments_capped",
				"message_id", msg.ID, "have", len(msg.Attachments), "cap", cfg.MaxAttachments)
			msg.Attachments = msg.Attachments[:cfg.MaxAttachments]
		}

		doc, created, err := c.IntakeMail(ctx, msg)
		if err != nil {
			stats.Failed++
			c.logger.Error("docflow.batch.intake_failed", "message_id", msg.ID, "error", err)
			continue
		}
		if !created {
			stats.Duplicates++
			continue
		}
		if _, err := c.Process(ctx, doc.ID); err != nil {
			stats.Failed++
			c.logger.Error("docflow.batch.process_failed", "doc_id", doc.ID, "error", err)
			continue
		}
		stats.Ingested++
	}

	c.logger.Info("docflow.batch.done",
		"fetched", stats.Fetched,
		"ingested", stats.Ingested,
		"duplicates", stats.Duplicates,
		"failed", stats.Failed,
	)
	return stats, nil
}
