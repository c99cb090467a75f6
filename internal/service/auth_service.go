package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/agricoop/magasin-service/internal/auth"
	"github.com/agricoop/magasin-service/internal/config"
	"github.com/agricoop/magasin-service/internal/domain"
	"github.com/agricoop/magasin-service/internal/events"
	"github.com/agricoop/magasin-service/internal/repository"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
)

// ActionConfirmEmail marks a token that may only confirm an email address.
const ActionConfirmEmail = "confirm_email"

var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials", nil)

// LoginThrottle counts failed logins per username.
type LoginThrottle interface {
	FailedLogins(ctx context.Context, username string) (int64, error)
	RecordFailedLogin(ctx context.Context, username string, window time.Duration) (int64, error)
	ResetFailedLogins(ctx context.Context, username string) error
}

// AuthService coordinates registration, confirmation and login flows.
type AuthService struct {
	users       repository.UserRepository
	magasins    repository.MagasinRepository
	throttle    LoginThrottle
	dispatcher  events.Dispatcher
	tokens      *auth.TokenManager
	logger      *zap.Logger
	bcryptCost  int
	maxAttempts int64
	window      time.Duration
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	MagasinRepo repository.MagasinRepository
	Throttle    LoginThrottle
	Dispatcher  events.Dispatcher
	Tokens      *auth.TokenManager
	Logger      *zap.Logger
}

// RegisterInput describes a self-registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// CreateUserInput describes an account created by an administrator.
type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	Role      domain.Role
	MagasinID *int64
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token string
	User  *domain.User
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		magasins:    deps.MagasinRepo,
		throttle:    deps.Throttle,
		dispatcher:  deps.Dispatcher,
		tokens:      deps.Tokens,
		logger:      logger,
		bcryptCost:  cfg.BcryptCost,
		maxAttempts: int64(cfg.LoginMaxAttempts),
		window:      cfg.LoginWindow(),
	}
}

// Register creates an unconfirmed producer account and publishes a
// confirmation token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	user, err := s.newUser(input.Username, input.Email, input.Password, domain.RoleProducer, nil)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(auth.Claims{
		"id":       user.ID,
		"username": user.Username,
		"action":   ActionConfirmEmail,
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventUserRegistered,
		ActorID: user.ID,
		Payload: events.UserRegisteredPayload{
			UserID:            user.ID,
			Username:          user.Username,
			Email:             user.Email,
			ConfirmationToken: token,
		},
	})
	return user, nil
}

// ConfirmEmail marks the account named by a confirmation token as confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("confirmation failed: "+err.Error(), err)
	}
	if claims.String("action") != ActionConfirmEmail {
		return nil, apperrors.NewUnauthorized("confirmation failed: not a confirmation token", auth.ErrMalformedToken)
	}
	id, ok := claims.Int64("id")
	if !ok {
		return nil, apperrors.NewUnauthorized("confirmation failed: id claim missing", auth.ErrMalformedToken)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if user.Confirmed {
		return user, nil
	}
	user.Confirmed = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and issues a bearer token carrying id, username,
// role and magasin_id.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if err := s.checkThrottle(ctx, username); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, pgx.ErrNoRows) {
		s.recordFailure(ctx, username)
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, username)
		return nil, errInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.NewForbidden("account disabled", nil)
	}
	if !user.Confirmed {
		return nil, apperrors.NewForbidden("account not confirmed", nil)
	}

	if s.throttle != nil {
		if err := s.throttle.ResetFailedLogins(ctx, username); err != nil {
			s.logger.Warn("reset login throttle", zap.String("username", username), zap.Error(err))
		}
	}

	token, err := s.tokens.Issue(auth.PrincipalClaims(user))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Logout is a no-op: tokens are stateless and stay valid until exp.
func (s *AuthService) Logout(_ context.Context, _ *auth.Principal) error {
	return nil
}

// CreateUser creates a confirmed account on behalf of an administrator. Only
// a superadmin may create admin or superadmin accounts.
func (s *AuthService) CreateUser(ctx context.Context, actor *auth.Principal, input CreateUserInput) (*domain.User, error) {
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": input.Role})
	}
	if input.Role.IsAdmin() && actor.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("only a superadmin may create administrators", auth.ErrInsufficientRole)
	}
	if input.Role == domain.RoleStock && input.MagasinID == nil {
		return nil, apperrors.NewValidationError("stock accounts require magasin_id", nil)
	}
	if input.MagasinID != nil {
		if _, err := s.magasins.GetByID(ctx, *input.MagasinID); err != nil {
			return nil, notFound(err, "magasin")
		}
	}

	user, err := s.newUser(input.Username, input.Email, input.Password, input.Role, input.MagasinID)
	if err != nil {
		return nil, err
	}
	user.Confirmed = true
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the account of the authenticated caller.
func (s *AuthService) Me(ctx context.Context, principal *auth.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *AuthService) newUser(username, email, password string, role domain.Role, magasinID *int64) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if len(username) < 3 || len(username) > 64 {
		return nil, apperrors.NewValidationError("username must be 3 to 64 characters", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("invalid email", nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrWeakPassword) {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		MagasinID:    magasinID,
		Active:       true,
	}, nil
}

func (s *AuthService) create(ctx context.Context, user *domain.User) error {
	err := s.users.Create(ctx, user)
	if apperrors.IsUniqueViolation(err) {
		return apperrors.NewConflict("username or email already registered", nil)
	}
	return err
}

func (s *AuthService) checkThrottle(ctx context.Context, username string) error {
	if s.throttle == nil || s.maxAttempts <= 0 {
		return nil
	}
	failures, err := s.throttle.FailedLogins(ctx, username)
	if err != nil {
		s.logger.Warn("read login throttle", zap.String("username", username), zap.Error(err))
		return nil
	}
	if failures >= s.maxAttempts {
		return apperrors.NewTooManyRequests("too many failed login attempts")
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	if s.throttle == nil || s.maxAttempts <= 0 {
		return
	}
	if _, err := s.throttle.RecordFailedLogin(ctx, username, s.window); err != nil {
		s.logger.Warn("record failed login", zap.String("username", username), zap.Error(err))
	}
}
