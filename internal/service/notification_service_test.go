package service_test

import (
	"context"
	"testing"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications_DeleteGuards(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	admin := r.seedUser(model.User{Username: "admin", Role: model.RoleAdmin, ApprovalStatus: model.ApprovalApproved})
	applicant := r.seedUser(model.User{Username: "applicant", Role: model.RoleStationery, ApprovalStatus: model.ApprovalPending})
	svc := service.NewNotificationService(r.notifications, r.users, nil)

	svc.Notify(ctx, []model.User{admin}, service.Notice{Message: "signup", Type: model.NotifyUserSignup, RelatedUserID: &applicant.ID})
	svc.Notify(ctx, []model.User{admin}, service.Notice{Message: "help", Type: model.NotifyHelpMessage})
	svc.Notify(ctx, []model.User{admin}, service.Notice{Message: "fyi", Type: model.NotifyApproval})
	require.Len(t, r.db.notifications, 3)
	signup, help, plain := r.db.notifications[0].ID, r.db.notifications[1].ID, r.db.notifications[2].ID
	me := actorOf(admin)

	err := svc.Delete(ctx, me, signup)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err), "pending sign-up must be decided first")

	err = svc.Delete(ctx, me, help)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err), "unread chat must be read first")

	require.NoError(t, svc.Delete(ctx, me, plain))

	_, err = svc.MarkRead(ctx, me, help)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, me, help))

	applicant.ApprovalStatus = model.ApprovalApproved
	require.NoError(t, r.users.Update(ctx, &applicant))
	require.NoError(t, svc.Delete(ctx, me, signup))
	assert.Empty(t, r.db.notifications)
}

func TestNotifications_ListAndMarkRead(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	u := r.seedUser(model.User{Username: "clerk", Role: model.RoleStationery, ApprovalStatus: model.ApprovalApproved})
	other := r.seedUser(model.User{Username: "other", Role: model.RoleStationery, ApprovalStatus: model.ApprovalApproved})
	svc := service.NewNotificationService(r.notifications, r.users, nil)

	svc.Notify(ctx, []model.User{u, other}, service.Notice{Message: "hello", Type: model.NotifyApproval})
	svc.Notify(ctx, nil, service.Notice{Message: "nobody"})

	got, err := svc.List(ctx, actorOf(u))
	require.NoError(t, err)
	require.Len(t, got.Notifications, 1)
	assert.EqualValues(t, 1, got.Unread)

	id := uuid.MustParse(got.Notifications[0].ID)
	msg, err := svc.MarkRead(ctx, actorOf(u), id)
	require.NoError(t, err)
	assert.Equal(t, "Notification marked as read.", msg.Message)
	msg, err = svc.MarkRead(ctx, actorOf(u), id)
	require.NoError(t, err)
	assert.Equal(t, "Notification already marked as read.", msg.Message)

	_, err = svc.MarkRead(ctx, actorOf(other), id)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err), "notifications are private to their recipient")
}

func TestNotifications_ByTypeHelpers(t *testing.T) {
	r := newRepos()
	ctx := context.Background()
	a := r.seedUser(model.User{Username: "a", Role: model.RoleAdmin, ApprovalStatus: model.ApprovalApproved})
	b := r.seedUser(model.User{Username: "b", Role: model.RoleAdmin, ApprovalStatus: model.ApprovalApproved})
	related := uuid.New()
	svc := service.NewNotificationService(r.notifications, r.users, nil)

	svc.Notify(ctx, []model.User{a, b}, service.Notice{Type: model.NotifyUserSignup, RelatedUserID: &related})
	svc.Notify(ctx, []model.User{a}, service.Notice{Type: model.NotifyUserSignup})

	assert.EqualValues(t, 1, svc.MarkReadByType(ctx, &a.ID, model.NotifyUserSignup, &related))
	assert.EqualValues(t, 2, svc.DeleteByType(ctx, nil, model.NotifyUserSignup, &related))
	assert.Len(t, r.db.notifications, 1)
}
