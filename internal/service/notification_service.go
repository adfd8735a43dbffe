package service

import (
	"context"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"
	"github.com/sushmag0wda/Aims-Inventory/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notice is one in-app notification fanned out to a set of recipients.
type Notice struct {
	Message       string
	Link          string
	Type          string
	RelatedUserID *uuid.UUID
}

// NotificationService is both the notification sink used by other services and
// the inbox API of the current user.
type NotificationService interface {
	// Notify creates one notification per recipient and queues a copy by
	// e-mail for recipients that have an address. Failures are logged only.
	Notify(ctx context.Context, recipients []model.User, n Notice)
	List(ctx context.Context, actor Actor) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, actor Actor, id uuid.UUID) (*dto.MessageResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	// MarkReadByType and DeleteByType operate on the notifications of
	// recipient (every recipient when nil) filtered by type and related user.
	MarkReadByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) int64
	DeleteByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) int64
}

type notificationService struct {
	repo       repository.NotificationRepository
	users      repository.UserRepository
	dispatcher *worker.Dispatcher
}

// NewNotificationService accepts a nil dispatcher (no e-mail copies).
func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, dispatcher *worker.Dispatcher) NotificationService {
	return &notificationService{repo: repo, users: users, dispatcher: dispatcher}
}

const inboxSize = 50

func (s *notificationService) Notify(ctx context.Context, recipients []model.User, n Notice) {
	if len(recipients) == 0 {
		return
	}
	batch := make([]model.Notification, 0, len(recipients))
	for _, u := range recipients {
		batch = append(batch, model.Notification{
			RecipientID:   u.ID,
			Message:       n.Message,
			Link:          n.Link,
			Type:          n.Type,
			RelatedUserID: n.RelatedUserID,
		})
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		log.Warn().Err(err).Str("type", n.Type).Msg("notify: failed to store notifications")
		return
	}

	if s.dispatcher == nil {
		return
	}
	for _, u := range recipients {
		if u.Email == "" {
			continue
		}
		job := worker.EmailJobPayload{ToEmail: u.Email, Subject: "Stationery: " + n.Message, Body: n.Message}
		if err := s.dispatcher.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("to", u.Email).Msg("notify: failed to enqueue email")
		}
	}
}

func (s *notificationService) List(ctx context.Context, actor Actor) (*dto.NotificationListResponse, error) {
	items, err := s.repo.ListForRecipient(ctx, actor.UserID, inboxSize)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, len(items)),
		Unread:        unread,
	}
	for i, n := range items {
		resp.Notifications[i] = dto.NotificationResponse{
			ID:        n.ID.String(),
			Message:   n.Message,
			Link:      n.Link,
			Type:      n.Type,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor Actor, id uuid.UUID) (*dto.MessageResponse, error) {
	n, err := s.repo.FindForRecipient(ctx, id, actor.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Notification not found.")
		}
		return nil, err
	}
	if n.IsRead {
		return &dto.MessageResponse{Message: "Notification already marked as read."}, nil
	}
	if err := s.repo.MarkRead(ctx, n.ID); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: "Notification marked as read."}, nil
}

// Delete refuses to dismiss notifications that still call for an action: a
// sign-up awaiting a decision, or an unread help center message.
func (s *notificationService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	n, err := s.repo.FindForRecipient(ctx, id, actor.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Notification not found.")
		}
		return err
	}

	switch n.Type {
	case model.NotifyUserSignup:
		if n.RelatedUserID != nil {
			related, err := s.users.FindByID(ctx, *n.RelatedUserID)
			if err == nil && related.ApprovalStatus == model.ApprovalPending {
				return apierror.Conflict("Please approve or reject this registration before dismissing the notification.")
			}
		}
	case model.NotifyHelpMessage, model.NotifyHelpReply:
		if !n.IsRead {
			return apierror.Conflict("Read the chat message before dismissing this notification.")
		}
	}
	return s.repo.Delete(ctx, n.ID)
}

func (s *notificationService) MarkReadByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) int64 {
	n, err := s.repo.MarkReadByType(ctx, recipient, typ, related)
	if err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("notify: failed to mark notifications read")
	}
	return n
}

func (s *notificationService) DeleteByType(ctx context.Context, recipient *uuid.UUID, typ string, related *uuid.UUID) int64 {
	n, err := s.repo.DeleteByType(ctx, recipient, typ, related)
	if err != nil {
		log.Warn().Err(err).Str("type", typ).Msg("notify: failed to delete notifications")
	}
	return n
}
