package notification

import (
	"context"
	"errors"
	"fmt"

	"go-permits/internal/features/account"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrUnknownEventType marks a dispatch for an event type missing from the
// template table. This is a programming error and must never be swallowed.
var ErrUnknownEventType = errors.New("unknown notification event type")

// Router persists and fans out typed notifications. Recipients are either
// the applicant of a permit/OOP or the holders of a personnel role.
//
// Role resolution policy: every account holding the role receives its own
// notification, in account-creation order. The source system picked an
// arbitrary "first account found"; fan-out is the deterministic replacement.
type Router interface {
	NotifyApplicant(ctx context.Context, applicantID primitive.ObjectID, event EventType, meta Metadata) error
	NotifyRole(ctx context.Context, role account.Role, event EventType, meta Metadata) error

	GetNotifications(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id string, recipientID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) error
}

type RouterImpl struct {
	repo        NotificationRepository
	accountRepo account.AccountRepository
	bus         EventBus
	logger      *zap.Logger
}

func NewRouter(repo NotificationRepository, accountRepo account.AccountRepository, bus EventBus, logger *zap.Logger) Router {
	return &RouterImpl{
		repo:        repo,
		accountRepo: accountRepo,
		bus:         bus,
		logger:      logger,
	}
}

func (r *RouterImpl) NotifyApplicant(ctx context.Context, applicantID primitive.ObjectID, event EventType, meta Metadata) error {
	return r.deliver(ctx, applicantID, RecipientApplicant, event, meta)
}

func (r *RouterImpl) NotifyRole(ctx context.Context, role account.Role, event EventType, meta Metadata) error {
	holders, err := r.accountRepo.FindByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("resolve role %s: %w", role, err)
	}
	if len(holders) == 0 {
		return fmt.Errorf("no accounts hold role %s", role)
	}

	for _, holder := range holders {
		if err := r.deliver(ctx, holder.ID, RecipientPersonnel, event, meta); err != nil {
			return err
		}
	}
	return nil
}

// deliver persists first, then publishes. A publish failure is logged and
// not propagated: the stored notification is the source of truth and live
// delivery is at-least-once.
func (r *RouterImpl) deliver(ctx context.Context, recipientID primitive.ObjectID, recipientType RecipientType, event EventType, meta Metadata) error {
	tmpl, ok := templates[event]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event)
	}

	message := fmt.Sprintf(tmpl.Message, meta.Reference)
	if meta.Remarks != "" {
		message = message + " Remarks: " + meta.Remarks
	}

	n := &Notification{
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Type:          event,
		Title:         tmpl.Title,
		Message:       message,
		Metadata:      meta,
		Priority:      tmpl.Priority,
	}

	if err := r.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if err := r.bus.Publish(*n); err != nil {
		r.logger.Warn("notification publish failed",
			zap.String("event", string(event)),
			zap.String("recipient", recipientID.Hex()),
			zap.Error(err))
	}

	return nil
}

func (r *RouterImpl) GetNotifications(ctx context.Context, recipientID primitive.ObjectID, unreadOnly bool, page, limit int64) ([]Notification, int64, error) {
	return r.repo.GetByRecipient(ctx, recipientID, unreadOnly, page, limit)
}

func (r *RouterImpl) GetUnreadCount(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return r.repo.GetUnreadCount(ctx, recipientID)
}

func (r *RouterImpl) MarkAsRead(ctx context.Context, id string, recipientID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	return r.repo.MarkAsRead(ctx, objID, recipientID)
}

func (r *RouterImpl) MarkAllAsRead(ctx context.Context, recipientID primitive.ObjectID) error {
	return r.repo.MarkAllAsRead(ctx, recipientID)
}
