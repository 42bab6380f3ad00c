package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"inbox2notion/internal/classify"
	"inbox2notion/internal/database"
	"inbox2notion/internal/parser"
	"inbox2notion/pkg/models"
)

// Mailbox fetches raw messages received since an instant.
type Mailbox interface {
	FetchSince(ctx context.Context, since time.Time) ([]*models.RawEmail, error)
}

// Ledger is the dedup store consulted before and updated after publishing.
type Ledger interface {
	HasProcessed(ctx context.Context, emailID string) (bool, error)
	MarkProcessed(ctx context.Context, emailID, subject string, status models.ProcessStatus) error
}

// Publisher creates one task per qualifying email.
type Publisher interface {
	CreateTask(ctx context.Context, task *models.EmailTask) error
}

// IgnoreFilter suppresses messages matching the ignore rules.
type IgnoreFilter interface {
	ShouldIgnore(sender, subject string) bool
}

// Processor executes one fetch-classify-publish pass per trigger
type Processor struct {
	mailbox    Mailbox
	ledger     Ledger
	publisher  Publisher
	filter     IgnoreFilter
	classifier *classify.Classifier
	dates      *classify.DueDateDetector
	timeout    time.Duration
	logger     *slog.Logger
}

// New creates a processor
func New(mailbox Mailbox, ledger Ledger, publisher Publisher, ignore IgnoreFilter, classifier *classify.Classifier, dates *classify.DueDateDetector, fetchTimeout time.Duration, logger *slog.Logger) *Processor {
	return &Processor{
		mailbox:    mailbox,
		ledger:     ledger,
		publisher:  publisher,
		filter:     ignore,
		classifier: classifier,
		dates:      dates,
		timeout:    fetchTimeout,
		logger:     logger.With("component", "processor"),
	}
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeFailed
)

// Run executes one pass over messages received since the given instant. The
// returned error is pass-level (fetch failures only); faults on individual
// messages are logged and the batch continues.
func (p *Processor) Run(ctx context.Context, since time.Time) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	emails, err := p.mailbox.FetchSince(ctx, since)
	if err != nil {
		return fmt.Errorf("fetching messages: %w", err)
	}

	var created, skipped, failed int
	for _, email := range emails {
		switch p.processOne(ctx, email) {
		case outcomeCreated:
			created++
		case outcomeSkipped:
			skipped++
		case outcomeFailed:
			failed++
		}
	}

	p.logger.Info("pass finished", "since", since, "messages", len(emails), "created", created, "skipped", skipped, "failed", failed)
	return nil
}

func (p *Processor) processOne(ctx context.Context, email *models.RawEmail) outcome {
	logger := p.logger.With("email_id", email.MessageID, "subject", email.Subject)

	if p.filter.ShouldIgnore(email.FromAddr, email.Subject) {
		logger.Debug("ignored by rules", "from", email.FromAddr)
		return outcomeSkipped
	}

	seen, err := p.ledger.HasProcessed(ctx, email.MessageID)
	if err != nil {
		logger.Error("ledger check failed", "error", err)
		return outcomeFailed
	}
	if seen {
		logger.Debug("already processed")
		return outcomeSkipped
	}

	body := p.extractBody(email, logger)

	task := &models.EmailTask{
		MessageID: email.MessageID,
		Subject:   email.Subject,
		Body:      body,
		FromAddr:  email.FromAddr,
		TaskTypes: p.classifier.DetectTypes(email.Subject, body),
	}
	if due, ok := p.dates.ParseDueDate(email.Subject + " " + body); ok {
		task.DueDate = due
	}

	if err := p.publisher.CreateTask(ctx, task); err != nil {
		if isPermanent(err) {
			// The same request can never succeed; record it so the
			// message is not retried forever
			logger.Error("publish failed permanently", "error", err)
			p.mark(ctx, email, models.StatusFailed, logger)
			return outcomeFailed
		}
		// Left unmarked: the next pass whose window covers this
		// message retries it
		logger.Warn("publish failed, will retry next pass", "error", err)
		return outcomeFailed
	}

	p.mark(ctx, email, models.StatusSuccess, logger)
	logger.Info("task created", "types", task.TaskTypes, "due", task.DueDate)
	return outcomeCreated
}

// extractBody prefers the plaintext parts and falls back to stripped HTML
func (p *Processor) extractBody(email *models.RawEmail, logger *slog.Logger) string {
	if text := strings.TrimSpace(email.BodyText); text != "" {
		return text
	}
	if email.BodyHTML == "" {
		return ""
	}

	text, err := parser.ExtractText(email.BodyHTML)
	if err != nil {
		logger.Warn("html extraction failed", "error", err)
		return ""
	}
	return text
}

func (p *Processor) mark(ctx context.Context, email *models.RawEmail, status models.ProcessStatus, logger *slog.Logger) {
	err := p.ledger.MarkProcessed(ctx, email.MessageID, email.Subject, status)
	if err != nil && !errors.Is(err, database.ErrAlreadyExists) {
		logger.Error("failed to record outcome", "status", status, "error", err)
	}
}

// permanentError is implemented by publish errors that repeat on every retry
type permanentError interface {
	Permanent() bool
}

func isPermanent(err error) bool {
	var pe permanentError
	return errors.As(err, &pe) && pe.Permanent()
}
