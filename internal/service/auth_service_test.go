package service_test

import (
	"context"
	"testing"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/config"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	r     *repos
	svc   service.AuthService
	cfg   *config.Config
	admin model.User
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret-that-is-long-enough",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		SuperAdminUsername: "admin",
	}
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	r := newRepos()
	cfg := testConfig()
	admin := r.seedUser(model.User{
		Username: "admin", Email: "admin@example.com", PasswordHash: hashed(t, "Admin@123"),
		Role: model.RoleAdmin, ApprovalStatus: model.ApprovalApproved, IsSuperuser: true,
	})
	notifications := service.NewNotificationService(r.notifications, r.users, nil)
	return &authFixture{
		r:     r,
		svc:   service.NewAuthService(r.users, r.help, notifications, cfg),
		cfg:   cfg,
		admin: admin,
	}
}

func actorOf(u model.User) service.Actor {
	return service.Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func (f *authFixture) notificationsOf(id uuid.UUID) []model.Notification {
	var out []model.Notification
	for _, n := range f.r.db.notifications {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out
}

func TestLogin_IssuesTokensWithRoleLanding(t *testing.T) {
	f := newAuthFixture(t)

	got, err := f.svc.Login(context.Background(), dto.LoginRequest{Username: "ADMIN", Password: "Admin@123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", got.TokenType)
	assert.Equal(t, "/dashboard/", got.Redirect)
	assert.Equal(t, 8*3600, got.ExpiresIn)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(got.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(f.cfg.JWTSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, f.admin.ID.String(), claims["user_id"])
	assert.Equal(t, "admin", claims["role"])
}

func TestLogin_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.r.seedUser(model.User{
		Username: "waiting", PasswordHash: hashed(t, "pw1234"), Role: model.RoleStationery, ApprovalStatus: model.ApprovalPending,
	})

	_, err := f.svc.Login(ctx, dto.LoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))

	_, err = f.svc.Login(ctx, dto.LoginRequest{Username: "ghost", Password: "x"})
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))

	_, err = f.svc.Login(ctx, dto.LoginRequest{Username: "waiting", Password: "pw1234"})
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))

	_, err = f.svc.Login(ctx, dto.LoginRequest{Username: "admin", Password: "Admin@123", Role: "stationery"})
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))
	assert.Contains(t, err.Error(), "not authorized for this portal")
}

func TestRefresh(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, dto.LoginRequest{Username: "admin", Password: "Admin@123"})
	require.NoError(t, err)

	got, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, got.AccessToken)

	_, err = f.svc.Refresh(ctx, "not-a-token")
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))

	admin := f.admin
	admin.ApprovalStatus = model.ApprovalRejected
	require.NoError(t, f.r.users.Update(ctx, &admin))
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(err))
}

func TestRegister_CreatesPendingAccountAndNotifiesAdmins(t *testing.T) {
	f := newAuthFixture(t)

	got, err := f.svc.Register(context.Background(), dto.RegisterRequest{
		Username: "newbie", Email: "newbie@example.com", Password: "secret", Role: "superhero",
	})
	require.NoError(t, err)
	assert.Equal(t, "stationery", got.Role)
	assert.Equal(t, "pending", got.ApprovalStatus)

	user, err := f.r.users.FindByUsername(context.Background(), "newbie")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", user.PasswordHash)

	inbox := f.notificationsOf(f.admin.ID)
	require.Len(t, inbox, 1)
	assert.Equal(t, model.NotifyUserSignup, inbox[0].Type)
	assert.Equal(t, "New user 'newbie' registered for approval.", inbox[0].Message)
	require.NotNil(t, inbox[0].RelatedUserID)
	assert.Equal(t, user.ID, *inbox[0].RelatedUserID)
}

func TestRegister_Validation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	cases := map[string]dto.RegisterRequest{
		"Username, email, and password are required.": {Username: "x", Password: "abcd"},
		"Password must be at least 4 characters long.": {Username: "x", Email: "x@example.com", Password: "abc"},
		"Username already exists.":                     {Username: "Admin", Email: "other@example.com", Password: "abcd"},
		"Email already exists.":                        {Username: "fresh", Email: "admin@example.com", Password: "abcd"},
	}
	for want, req := range cases {
		_, err := f.svc.Register(ctx, req)
		require.Error(t, err, want)
		assert.Equal(t, apierror.KindValidation, apierror.KindOf(err), want)
		assert.Equal(t, want, err.Error())
	}
}

func TestDecide_ApproveWelcomesUserAndClearsSignupNotice(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, dto.RegisterRequest{Username: "clerk1", Email: "c1@example.com", Password: "abcd"})
	require.NoError(t, err)
	target, err := f.r.users.FindByUsername(ctx, "clerk1")
	require.NoError(t, err)

	got, err := f.svc.Decide(ctx, actorOf(f.admin), target.ID, dto.UserDecisionRequest{Action: "Approve"})
	require.NoError(t, err)
	assert.Equal(t, "User approved successfully.", got.Message)
	assert.Equal(t, "approved", got.User.ApprovalStatus)

	assert.Empty(t, f.notificationsOf(f.admin.ID), "sign-up notice is cleared once decided")

	inbox := f.notificationsOf(target.ID)
	require.Len(t, inbox, 2)
	assert.Equal(t, model.NotifyHelpReply, inbox[0].Type)
	assert.Equal(t, model.NotifyApproval, inbox[1].Type)
	assert.Equal(t, "Your account has been approved.", inbox[1].Message)
	assert.Equal(t, "/issue/", inbox[1].Link)

	require.Len(t, f.r.db.messages, 1)
	assert.Equal(t, "Welcome aboard! Your account is now active.", f.r.db.messages[0].Content)
	assert.True(t, f.r.db.messages[0].IsAdminRead)
	assert.False(t, f.r.db.messages[0].IsUserRead)
}

func TestDecide_RejectAndDelete(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	target := f.r.seedUser(model.User{Username: "clerk2", Role: model.RoleStationery, ApprovalStatus: model.ApprovalPending})

	got, err := f.svc.Decide(ctx, actorOf(f.admin), target.ID, dto.UserDecisionRequest{Action: "reject"})
	require.NoError(t, err)
	assert.True(t, got.ShowDelete)
	assert.Equal(t, "rejected", got.User.ApprovalStatus)

	got, err = f.svc.Decide(ctx, actorOf(f.admin), target.ID, dto.UserDecisionRequest{Action: "delete"})
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	_, err = f.r.users.FindByID(ctx, target.ID)
	assert.Error(t, err)

	_, err = f.svc.Decide(ctx, actorOf(f.admin), target.ID, dto.UserDecisionRequest{Action: "delete"})
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	_, err = f.svc.Decide(ctx, actorOf(f.admin), target.ID, dto.UserDecisionRequest{Action: "promote"})
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestDecide_ProtectsAdminAccounts(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	deputy := f.r.seedUser(model.User{Username: "deputy", Role: model.RoleAdmin, ApprovalStatus: model.ApprovalApproved})
	otherAdmin := f.r.seedUser(model.User{Username: "other", Role: model.RoleAdmin, ApprovalStatus: model.ApprovalPending})

	_, err := f.svc.Decide(ctx, actorOf(deputy), f.admin.ID, dto.UserDecisionRequest{Action: "reject"})
	assert.Equal(t, apierror.KindBusinessRule, apierror.KindOf(err), "main admin is immutable")

	_, err = f.svc.Decide(ctx, actorOf(deputy), deputy.ID, dto.UserDecisionRequest{Action: "reject"})
	assert.Equal(t, apierror.KindBusinessRule, apierror.KindOf(err), "no self decisions")

	_, err = f.svc.Decide(ctx, actorOf(deputy), otherAdmin.ID, dto.UserDecisionRequest{Action: "reject"})
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(err))

	_, err = f.svc.Decide(ctx, actorOf(f.admin), otherAdmin.ID, dto.UserDecisionRequest{Action: "approve"})
	assert.Equal(t, apierror.KindBusinessRule, apierror.KindOf(err), "admin role stays with the main admin")

	_, err = f.svc.Decide(ctx, actorOf(f.admin), otherAdmin.ID, dto.UserDecisionRequest{Action: "reject"})
	assert.NoError(t, err)
}

func TestListUsers_ExcludesActorAndFiltersStatus(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.r.seedUser(model.User{Username: "p1", Role: model.RoleStationery, ApprovalStatus: model.ApprovalPending})
	f.r.seedUser(model.User{Username: "a1", Role: model.RoleStationery, ApprovalStatus: model.ApprovalApproved})

	all, err := f.svc.ListUsers(ctx, actorOf(f.admin), dto.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.svc.ListUsers(ctx, actorOf(f.admin), dto.UserFilter{ApprovalStatus: "pending"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p1", pending[0].Username)

	unknown, err := f.svc.ListUsers(ctx, actorOf(f.admin), dto.UserFilter{ApprovalStatus: "weird"})
	require.NoError(t, err)
	assert.Len(t, unknown, 2)
}
