package resumes

import (
	"context"
	"errors"
	"time"

	"socioscan-backend/internal/queue"
	"socioscan-backend/internal/shared/apperr"
	"socioscan-backend/internal/shared/metrics"
	"socioscan-backend/internal/shared/storage/object"
	"socioscan-backend/internal/shared/telemetry"
)

// Reasons recorded on reap requests.
const (
	ReasonReplaced = "replaced"
	ReasonRemoved  = "removed"
	ReasonAccount  = "account_deleted"
	ReasonOrphaned = "orphaned"
)

// ReapRequest names an object whose reference has already been dropped.
type ReapRequest struct {
	UserID    string
	Reference string
	Reason    string
	RequestID string
}

// Reaper deletes objects that no profile references any more. Failures are
// logged and counted; the caller's operation has already succeeded.
type Reaper interface {
	Reap(ctx context.Context, req ReapRequest)
}

// ObjectReaper deletes inline with retry, or hands the work to a queue when
// one is configured.
type ObjectReaper struct {
	Store   object.Gateway
	Queue   queue.Client
	Policy  apperr.RetryPolicy
	Timeout time.Duration
	now     func() time.Time
}

func NewObjectReaper(store object.Gateway, q queue.Client, timeout time.Duration) *ObjectReaper {
	return &ObjectReaper{Store: store, Queue: q, Policy: apperr.DefaultRetryPolicy, Timeout: timeout, now: time.Now}
}

func (r *ObjectReaper) Reap(ctx context.Context, req ReapRequest) {
	if r == nil || req.Reference == "" {
		return
	}
	fields := map[string]any{
		"user_id":    req.UserID,
		"reference":  req.Reference,
		"reason":     req.Reason,
		"request_id": req.RequestID,
	}
	if _, err := r.Store.KeyFromReference(req.Reference); err != nil {
		// Legacy or external references are not ours to delete.
		fields["error"] = err.Error()
		telemetry.Warn("reaper.skip_foreign", fields)
		return
	}

	// The request may finish before the delete; detach from its cancellation.
	ctx = context.WithoutCancel(ctx)

	if r.Queue != nil {
		err := r.Queue.Send(ctx, queue.Message{
			Kind:       queue.KindObjectDelete,
			Reference:  req.Reference,
			UserID:     req.UserID,
			Reason:     req.Reason,
			RequestID:  req.RequestID,
			EnqueuedAt: r.clock().UTC().Format(time.RFC3339),
		})
		if err == nil {
			telemetry.Info("reaper.enqueued", fields)
			return
		}
		fields["error"] = err.Error()
		telemetry.Warn("reaper.enqueue_failed", fields)
		delete(fields, "error")
	}

	if err := r.Delete(ctx, req.Reference); err != nil {
		fields["error"] = err.Error()
		telemetry.Error("reaper.delete_failed", fields)
		return
	}
	telemetry.Info("reaper.deleted", fields)
}

// Delete removes the object behind ref, retrying transient storage failures.
func (r *ObjectReaper) Delete(ctx context.Context, ref string) error {
	err := apperr.Retry(ctx, r.Policy, func(ctx context.Context) error {
		if r.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.Timeout)
			defer cancel()
		}
		return r.Store.Delete(ctx, ref)
	})
	if err != nil {
		metrics.IncReaperFailed()
		return err
	}
	metrics.IncReaperDeleted()
	return nil
}

// Process is the queue handler used by the worker. Returning an error leaves
// the message for redelivery.
func (r *ObjectReaper) Process(ctx context.Context, msg queue.Message) error {
	if msg.Kind != queue.KindObjectDelete {
		telemetry.Warn("reaper.unknown_kind", map[string]any{"kind": msg.Kind, "reference": msg.Reference})
		return nil
	}
	err := r.Delete(ctx, msg.Reference)
	fields := map[string]any{
		"user_id":    msg.UserID,
		"reference":  msg.Reference,
		"reason":     msg.Reason,
		"request_id": msg.RequestID,
	}
	switch {
	case err == nil:
		telemetry.Info("reaper.deleted", fields)
		return nil
	case errors.Is(err, apperr.Validation):
		// a malformed reference will never delete; drop it
		fields["error"] = err.Error()
		telemetry.Error("reaper.invalid_reference", fields)
		return nil
	default:
		return err
	}
}

func (r *ObjectReaper) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
