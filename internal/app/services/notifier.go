package services

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/orbisedu/backoffice/internal/app/models"
	"github.com/orbisedu/backoffice/internal/pkg/email"
)

// DecisionNotice carries a review decision to the notification transport.
type DecisionNotice struct {
	Student      *models.Student
	DocumentName string
	Status       models.DocumentStatus
	RejectReason string
}

// DecisionNotifier delivers review-decision notifications. Delivery is
// fire-and-forget: the state transition that produced the notice has already
// been committed and must not be affected by transport failures.
type DecisionNotifier interface {
	NotifyDecision(notice DecisionNotice)
}

// OutboxNotifier queues decision notices behind the state transition and
// works them off on a single goroutine. A full queue drops the notice with an
// error log rather than blocking the caller.
type OutboxNotifier struct {
	mailer email.Mailer
	logger zerolog.Logger
	queue  chan DecisionNotice
	done   chan struct{}
	once   sync.Once
}

// NewOutboxNotifier creates the notifier and starts its worker.
func NewOutboxNotifier(mailer email.Mailer, logger zerolog.Logger) *OutboxNotifier {
	n := &OutboxNotifier{
		mailer: mailer,
		logger: logger,
		queue:  make(chan DecisionNotice, 256),
		done:   make(chan struct{}),
	}
	go n.work()
	return n
}

// NotifyDecision enqueues a notice without blocking.
func (n *OutboxNotifier) NotifyDecision(notice DecisionNotice) {
	select {
	case n.queue <- notice:
	default:
		n.logger.Error().
			Int64("studentId", notice.Student.ID).
			Str("document", notice.DocumentName).
			Msg("Notification queue full, decision notice dropped")
	}
}

// Close stops the worker after draining queued notices.
func (n *OutboxNotifier) Close() {
	n.once.Do(func() {
		close(n.queue)
		<-n.done
	})
}

func (n *OutboxNotifier) work() {
	defer close(n.done)
	for notice := range n.queue {
		subject, body := composeDecisionEmail(notice)
		if err := n.mailer.Send(notice.Student.Email, subject, body); err != nil {
			// Logged only; decision notifications have no retry path, the
			// underlying record state is already correct either way.
			n.logger.Error().Err(err).
				Int64("studentId", notice.Student.ID).
				Str("document", notice.DocumentName).
				Str("status", string(notice.Status)).
				Msg("Failed to deliver decision notification")
			continue
		}
		n.logger.Info().
			Int64("studentId", notice.Student.ID).
			Str("document", notice.DocumentName).
			Str("status", string(notice.Status)).
			Msg("Decision notification delivered")
	}
}

func composeDecisionEmail(notice DecisionNotice) (subject, body string) {
	switch notice.Status {
	case models.DocStatusApproved:
		subject = fmt.Sprintf("Document approved: %s", notice.DocumentName)
		body = fmt.Sprintf(
			"Hello %s,\n\nYour document %q has been approved.\n\nOrbisEdu Back Office",
			notice.Student.FullName(), notice.DocumentName)
	case models.DocStatusRejected:
		subject = fmt.Sprintf("Document rejected: %s", notice.DocumentName)
		body = fmt.Sprintf(
			"Hello %s,\n\nYour document %q was rejected.\n\nReason: %s\n\nPlease resubmit the document.\n\nOrbisEdu Back Office",
			notice.Student.FullName(), notice.DocumentName, notice.RejectReason)
	default:
		subject = fmt.Sprintf("Document status changed: %s", notice.DocumentName)
		body = fmt.Sprintf(
			"Hello %s,\n\nThe status of your document %q is now %s.\n\nOrbisEdu Back Office",
			notice.Student.FullName(), notice.DocumentName, notice.Status)
	}
	return subject, body
}
