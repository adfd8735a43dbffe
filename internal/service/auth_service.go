package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sushmag0wda/Aims-Inventory/internal/apierror"
	"github.com/sushmag0wda/Aims-Inventory/internal/config"
	"github.com/sushmag0wda/Aims-Inventory/internal/dto"
	"github.com/sushmag0wda/Aims-Inventory/internal/model"
	"github.com/sushmag0wda/Aims-Inventory/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bcryptCost        = 12
	minPasswordLength = 4
	defaultWelcome    = "Welcome aboard! Your account is now active."
	defaultApproval   = "Your account has been approved."
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error)
	ListUsers(ctx context.Context, actor Actor, filter dto.UserFilter) ([]dto.UserResponse, error)
	Decide(ctx context.Context, actor Actor, userID uuid.UUID, req dto.UserDecisionRequest) (*dto.UserDecisionResponse, error)
}

type authService struct {
	users         repository.UserRepository
	help          repository.HelpRepository
	notifications NotificationService
	cfg           *config.Config
}

func NewAuthService(users repository.UserRepository, help repository.HelpRepository, notifications NotificationService, cfg *config.Config) AuthService {
	return &authService{users: users, help: help, notifications: notifications, cfg: cfg}
}

// HashPassword is shared with the seeding command.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.Unauthorized("Invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("Invalid credentials")
	}
	if user.ApprovalStatus != model.ApprovalApproved {
		return nil, apierror.Forbidden("Your account is pending approval. Please wait for the administrator.")
	}
	if requested := model.Role(strings.TrimSpace(req.Role)); requested.Valid() && requested != user.Role {
		return nil, apierror.Forbidden("You are not authorized for this portal.")
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Unauthorized("Refresh token is invalid or expired.")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("Malformed token.")
	}
	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, apierror.Unauthorized("Malformed token.")
	}

	user, err := s.users.FindByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.Unauthorized("User not found or not approved.")
		}
		return nil, err
	}
	if user.ApprovalStatus != model.ApprovalApproved {
		return nil, apierror.Unauthorized("User not found or not approved.")
	}
	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		Redirect:     landingPage(user.Role),
		User:         userToResponse(user),
	}, nil
}

func landingPage(role model.Role) string {
	if role == model.RoleAdmin {
		return "/dashboard/"
	}
	return "/issue/"
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, apierror.Validation("Username, email, and password are required.")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apierror.Validation(fmt.Sprintf("Password must be at least %d characters long.", minPasswordLength))
	}
	if err := s.ensureFree(ctx, s.users.FindByUsername, username, "Username already exists."); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, s.users.FindByEmail, email, "Email already exists."); err != nil {
		return nil, err
	}

	role := model.Role(strings.TrimSpace(req.Role))
	if !role.Valid() {
		role = model.RoleStationery
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		Role:           role,
		ApprovalStatus: model.ApprovalPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Validation("Username already exists.")
		}
		return nil, err
	}

	admins, err := s.users.ListApprovedAdmins(ctx)
	if err != nil {
		log.Warn().Err(err).Str("username", user.Username).Msg("register: failed to load admins to notify")
	}
	s.notifications.Notify(ctx, admins, Notice{
		Message:       fmt.Sprintf("New user '%s' registered for approval.", user.Username),
		Link:          fmt.Sprintf("/manage-users/?user_id=%s", user.ID),
		Type:          model.NotifyUserSignup,
		RelatedUserID: &user.ID,
	})

	return &dto.RegisterResponse{
		Message:        "Registration submitted for approval. Please wait for the admin to grant access.",
		Role:           string(user.Role),
		ApprovalStatus: string(user.ApprovalStatus),
	}, nil
}

func (s *authService) ensureFree(ctx context.Context, find func(context.Context, string) (*model.User, error), value, msg string) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return apierror.Validation(msg)
	case repository.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func (s *authService) ListUsers(ctx context.Context, actor Actor, filter dto.UserFilter) ([]dto.UserResponse, error) {
	rf := repository.UserFilter{Search: strings.TrimSpace(filter.Search), ExcludeID: actor.ref()}
	switch status := model.ApprovalStatus(filter.ApprovalStatus); status {
	case model.ApprovalPending, model.ApprovalApproved, model.ApprovalRejected:
		rf.Status = status
	}
	users, err := s.users.List(ctx, rf)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = userToResponse(&users[i])
	}
	return out, nil
}

// Decide applies an admin's approve, reject or delete decision to an account.
// The main admin account is immutable and only the main admin may act on
// admin accounts.
func (s *authService) Decide(ctx context.Context, actor Actor, userID uuid.UUID, req dto.UserDecisionRequest) (*dto.UserDecisionResponse, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	message := strings.TrimSpace(req.Message)
	if action != "approve" && action != "reject" && action != "delete" {
		return nil, apierror.Validation("Invalid action.")
	}

	target, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("User not found.")
		}
		return nil, err
	}
	if target.IsSuperAdmin(s.cfg.SuperAdminUsername) {
		return nil, apierror.BusinessRule("You cannot change the main admin's status.")
	}
	if target.ID == actor.UserID {
		return nil, apierror.BusinessRule("You cannot change your own approval status.")
	}
	if target.Role == model.RoleAdmin {
		current, err := s.users.FindByID(ctx, actor.UserID)
		if err != nil && !repository.IsNotFound(err) {
			return nil, err
		}
		if err != nil || !current.IsSuperAdmin(s.cfg.SuperAdminUsername) {
			return nil, apierror.Forbidden("Only the main admin can manage admin accounts.")
		}
	}

	resp := &dto.UserDecisionResponse{UserID: target.ID.String(), Username: target.Username}
	switch action {
	case "approve":
		if target.Role == model.RoleAdmin {
			return nil, apierror.BusinessRule("Only the designated super admin account can hold the admin role.")
		}
		target.ApprovalStatus = model.ApprovalApproved
		if err := s.users.Update(ctx, target); err != nil {
			return nil, err
		}
		s.welcome(ctx, actor, target, message)
		resp.Message = "User approved successfully."
		user := userToResponse(target)
		resp.User = &user

	case "reject":
		target.ApprovalStatus = model.ApprovalRejected
		if err := s.users.Update(ctx, target); err != nil {
			return nil, err
		}
		resp.Message = "User marked as rejected."
		resp.ShowDelete = true
		user := userToResponse(target)
		resp.User = &user

	case "delete":
		if err := s.users.Delete(ctx, target.ID); err != nil {
			return nil, err
		}
		resp.Message = "User deleted successfully."
		resp.Deleted = true
	}

	s.notifications.DeleteByType(ctx, nil, model.NotifyUserSignup, &target.ID)
	return resp, nil
}

// welcome opens the help center conversation of a freshly approved user.
func (s *authService) welcome(ctx context.Context, actor Actor, target *model.User, message string) {
	thread, err := s.help.GetOrCreateThread(ctx, target.ID)
	if err != nil {
		log.Warn().Err(err).Str("user", target.Username).Msg("approve: failed to open help thread")
	} else {
		content := message
		if content == "" {
			content = defaultWelcome
		}
		msg := &model.HelpMessage{
			ThreadID:    thread.ID,
			SenderID:    actor.UserID,
			Content:     content,
			IsAdminRead: true,
		}
		if err := s.help.CreateMessage(ctx, msg); err != nil {
			log.Warn().Err(err).Str("user", target.Username).Msg("approve: failed to post welcome message")
		} else if err := s.help.TouchThread(ctx, thread.ID); err != nil {
			log.Warn().Err(err).Msg("approve: failed to touch help thread")
		}
	}

	recipients := []model.User{*target}
	s.notifications.Notify(ctx, recipients, Notice{
		Message: "New welcome message from admin in Help Center.",
		Link:    "/issue/?chat=open",
		Type:    model.NotifyHelpReply,
	})
	approval := message
	if approval == "" {
		approval = defaultApproval
	}
	s.notifications.Notify(ctx, recipients, Notice{
		Message: approval,
		Link:    landingPage(target.Role),
		Type:    model.NotifyApproval,
	})
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"role":     string(user.Role),
		"exp":      time.Now().Add(duration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID.String(),
		Username:       u.Username,
		Email:          u.Email,
		Role:           string(u.Role),
		ApprovalStatus: string(u.ApprovalStatus),
		IsSuperuser:    u.IsSuperuser,
		DateJoined:     u.CreatedAt.Format(time.RFC3339),
	}
}
