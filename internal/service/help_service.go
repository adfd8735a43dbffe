package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// HelpService is the help center: one conversation per user, answered by the
// admins. Read and deleted flags are kept per side, the side being the role
// of the caller.
type HelpService interface {
	ListThreads(ctx context.Context, actor Actor, q dto.HelpThreadListQuery) (*dto.HelpThreadListResponse, error)
	GetThread(ctx context.Context, actor Actor, q dto.HelpThreadQuery) (*dto.HelpThreadResponse, error)
	MarkRead(ctx context.Context, actor Actor, req dto.HelpTargetRequest) (*dto.HelpMarkReadResponse, error)
	Clear(ctx context.Context, actor Actor, req dto.HelpTargetRequest) (*dto.HelpClearResponse, error)
	Post(ctx context.Context, actor Actor, req dto.PostHelpMessageRequest) (*dto.HelpMessageResponse, error)
	DeleteMessage(ctx context.Context, actor Actor, id uuid.UUID) error
}

type helpService struct {
	help          repository.HelpRepository
	users         repository.UserRepository
	notifications NotificationService
	superUsername string
}

func NewHelpService(help repository.HelpRepository, users repository.UserRepository, notifications NotificationService, superUsername string) HelpService {
	return &helpService{help: help, users: users, notifications: notifications, superUsername: superUsername}
}

var errHelpUserNotFound = apierror.NotFound("User not found.")

// target resolves the user whose conversation the caller addresses. Admins
// name it by id (approved accounts only); everyone else gets their own.
func (s *helpService) target(ctx context.Context, actor Actor, rawID string) (uuid.UUID, error) {
	rawID = strings.TrimSpace(rawID)
	if !actor.IsAdmin() || rawID == "" {
		return actor.UserID, nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, errHelpUserNotFound
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, errHelpUserNotFound
		}
		return uuid.Nil, err
	}
	if u.ApprovalStatus != model.ApprovalApproved {
		return uuid.Nil, errHelpUserNotFound
	}
	return u.ID, nil
}

func (s *helpService) ListThreads(ctx context.Context, actor Actor, q dto.HelpThreadListQuery) (*dto.HelpThreadListResponse, error) {
	if !actor.IsAdmin() {
		return nil, apierror.Forbidden("Admin access required.")
	}
	users, err := s.users.ListHelpUsers(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	type row struct {
		summary dto.HelpThreadSummary
		last    time.Time
		updated time.Time
	}
	var rows []row
	for _, u := range users {
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Username), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		thread, err := s.help.FindThreadByUser(ctx, u.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		unread, err := s.help.CountUnread(ctx, thread.ID, model.RoleAdmin, actor.UserID)
		if err != nil {
			return nil, err
		}
		r := row{
			summary: dto.HelpThreadSummary{
				ThreadID:     thread.ID.String(),
				UserID:       u.ID.String(),
				UserUsername: u.Username,
				UserRole:     string(u.Role),
				UserStatus:   string(u.ApprovalStatus),
				UnreadCount:  unread,
				UpdatedAt:    thread.UpdatedAt.Format(time.RFC3339),
			},
			updated: thread.UpdatedAt,
		}
		last, err := s.help.LastMessage(ctx, thread.ID, model.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if last != nil {
			at := last.CreatedAt.Format(time.RFC3339)
			r.summary.LastMessage = last.Content
			r.summary.LastMessageAt = &at
			r.last = last.CreatedAt
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].last.Equal(rows[j].last) {
			return rows[i].last.After(rows[j].last)
		}
		return rows[i].updated.After(rows[j].updated)
	})
	resp := &dto.HelpThreadListResponse{Threads: make([]dto.HelpThreadSummary, len(rows))}
	for i, r := range rows {
		resp.Threads[i] = r.summary
	}
	return resp, nil
}

// GetThread returns the caller's view of a conversation, creating it when
// missing. Unless mark_read is 0, false or no, the other side's messages and
// the matching notifications are flagged read.
func (s *helpService) GetThread(ctx context.Context, actor Actor, q dto.HelpThreadQuery) (*dto.HelpThreadResponse, error) {
	targetID, err := s.target(ctx, actor, q.UserID)
	if err != nil {
		return nil, err
	}
	thread, err := s.help.GetOrCreateThread(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if markRead(q.MarkRead) {
		if _, err := s.help.MarkRead(ctx, thread.ID, actor.Role, actor.UserID); err != nil {
			return nil, err
		}
		recipient := actor.UserID
		if actor.IsAdmin() && targetID != actor.UserID {
			s.notifications.MarkReadByType(ctx, &recipient, model.NotifyHelpMessage, &targetID)
		} else {
			s.notifications.MarkReadByType(ctx, &recipient, model.NotifyHelpReply, nil)
		}
	}

	msgs, err := s.help.ListMessages(ctx, thread.ID, actor.Role)
	if err != nil {
		return nil, err
	}
	unread, err := s.help.CountUnread(ctx, thread.ID, actor.Role, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &dto.HelpThreadResponse{
		ID:        thread.ID.String(),
		UserID:    thread.UserID.String(),
		Messages:  make([]dto.HelpMessageResponse, len(msgs)),
		Unread:    unread,
		UpdatedAt: thread.UpdatedAt.Format(time.RFC3339),
	}
	for i := range msgs {
		resp.Messages[i] = helpMessageToResponse(&msgs[i])
	}
	return resp, nil
}

func markRead(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "0", "false", "no":
		return false
	}
	return true
}

// dismissNotifications removes the caller's notifications about a thread
// once it has been read or cleared.
func (s *helpService) dismissNotifications(ctx context.Context, actor Actor, targetID uuid.UUID) {
	recipient := actor.UserID
	if actor.IsAdmin() {
		s.notifications.DeleteByType(ctx, &recipient, model.NotifyHelpMessage, &targetID)
		return
	}
	s.notifications.DeleteByType(ctx, &recipient, model.NotifyHelpReply, nil)
}

func (s *helpService) MarkRead(ctx context.Context, actor Actor, req dto.HelpTargetRequest) (*dto.HelpMarkReadResponse, error) {
	targetID, err := s.target(ctx, actor, req.UserID)
	if err != nil {
		return nil, err
	}
	thread, err := s.help.FindThreadByUser(ctx, targetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &dto.HelpMarkReadResponse{}, nil
		}
		return nil, err
	}
	marked, err := s.help.MarkRead(ctx, thread.ID, actor.Role, actor.UserID)
	if err != nil {
		return nil, err
	}
	s.dismissNotifications(ctx, actor, targetID)
	remaining, err := s.help.CountUnread(ctx, thread.ID, actor.Role, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &dto.HelpMarkReadResponse{Marked: marked, Unread: remaining}, nil
}

func (s *helpService) Clear(ctx context.Context, actor Actor, req dto.HelpTargetRequest) (*dto.HelpClearResponse, error) {
	raw := strings.TrimSpace(req.UserID)
	if actor.IsAdmin() && raw == "" {
		return nil, apierror.Validation("user_id is required.")
	}
	if !actor.IsAdmin() && raw != "" && raw != actor.UserID.String() {
		return nil, apierror.Forbidden("Not allowed.")
	}
	targetID, err := s.target(ctx, actor, raw)
	if err != nil {
		return nil, err
	}
	thread, err := s.help.FindThreadByUser(ctx, targetID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &dto.HelpClearResponse{}, nil
		}
		return nil, err
	}
	cleared, err := s.help.ClearForSide(ctx, thread.ID, actor.Role)
	if err != nil {
		return nil, err
	}
	s.dismissNotifications(ctx, actor, targetID)
	return &dto.HelpClearResponse{Cleared: cleared}, nil
}

func (s *helpService) Post(ctx context.Context, actor Actor, req dto.PostHelpMessageRequest) (*dto.HelpMessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apierror.Validation("Provide message text.")
	}
	if actor.IsAdmin() && strings.TrimSpace(req.UserID) == "" {
		return nil, apierror.Validation("user_id is required for admin replies.")
	}
	targetID, err := s.target(ctx, actor, req.UserID)
	if err != nil {
		return nil, err
	}
	thread, err := s.help.GetOrCreateThread(ctx, targetID)
	if err != nil {
		return nil, err
	}

	msg := &model.HelpMessage{
		ThreadID:    thread.ID,
		SenderID:    actor.UserID,
		Content:     content,
		IsAdminRead: actor.IsAdmin(),
		IsUserRead:  !actor.IsAdmin(),
	}
	if err := s.help.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.help.TouchThread(ctx, thread.ID); err != nil {
		log.Warn().Err(err).Msg("help: failed to touch thread")
	}

	if actor.IsAdmin() {
		s.notifyUser(ctx, targetID)
	} else {
		s.notifyAdmins(ctx, actor)
	}
	resp := helpMessageToResponse(msg)
	return &resp, nil
}

func (s *helpService) notifyUser(ctx context.Context, userID uuid.UUID) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("help: failed to load reply recipient")
		return
	}
	s.notifications.Notify(ctx, []model.User{*u}, Notice{
		Message: "New reply from admin in Help Center.",
		Link:    "/issue/?chat=open",
		Type:    model.NotifyHelpReply,
	})
}

func (s *helpService) notifyAdmins(ctx context.Context, actor Actor) {
	admins, err := s.users.ListSuperAdmins(ctx, s.superUsername)
	if err != nil {
		log.Warn().Err(err).Msg("help: failed to load admins to notify")
		return
	}
	approved := admins[:0]
	for _, a := range admins {
		if a.ApprovalStatus == model.ApprovalApproved {
			approved = append(approved, a)
		}
	}
	sender := actor.UserID
	s.notifications.Notify(ctx, approved, Notice{
		Message:       fmt.Sprintf("Help center message from %s.", actor.Username),
		Link:          fmt.Sprintf("/dashboard/?chat_user=%s", actor.UserID),
		Type:          model.NotifyHelpMessage,
		RelatedUserID: &sender,
	})
}

// DeleteMessage hides a message from the caller's side only. Deleting an
// already hidden message succeeds.
func (s *helpService) DeleteMessage(ctx context.Context, actor Actor, id uuid.UUID) error {
	msg, err := s.help.FindMessage(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return notFound("Message not found.")
		}
		return err
	}
	if actor.IsAdmin() {
		if msg.IsAdminDeleted {
			return nil
		}
		return s.help.SoftDeleteMessage(ctx, msg.ID, model.RoleAdmin)
	}
	if msg.Thread == nil || msg.Thread.UserID != actor.UserID {
		return apierror.Forbidden("Not allowed to delete this message.")
	}
	if msg.IsUserDeleted {
		return nil
	}
	return s.help.SoftDeleteMessage(ctx, msg.ID, actor.Role)
}

func helpMessageToResponse(m *model.HelpMessage) dto.HelpMessageResponse {
	return dto.HelpMessageResponse{
		ID:          m.ID.String(),
		ThreadID:    m.ThreadID.String(),
		SenderID:    m.SenderID.String(),
		Content:     m.Content,
		IsAdminRead: m.IsAdminRead,
		IsUserRead:  m.IsUserRead,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}
