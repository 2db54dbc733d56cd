package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-exchange-engine/internal/apperr"
	"github.com/sbilibin2017/gw-exchange-engine/internal/logger"
	"github.com/sbilibin2017/gw-exchange-engine/internal/models"
	"github.com/sbilibin2017/gw-exchange-engine/internal/money"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

// Error variables
var (
	ErrUserAlreadyExists  = apperr.New(apperr.DuplicateReference, "username or email already exists")
	ErrUserDoesNotExist   = apperr.New(apperr.NotFound, "username does not exist")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserReader defines read-only operations for users.
type UserReader interface {
	GetUserByLogin(ctx context.Context, username, email string) (*models.User, error) // Finds a user by username or email
}

// UserWriter defines write operations for users.
type UserWriter interface {
	CreateUser(ctx context.Context, user *models.User) error // Inserts a user with its wallets
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, role string) (string, error) // Issues a signed token
}

// AuthService handles registration and login.
type AuthService struct {
	reader UserReader
	writer UserWriter
	jwt    JWTGenerator
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, jwt JWTGenerator) *AuthService {
	return &AuthService{
		reader: reader,
		writer: writer,
		jwt:    jwt,
	}
}

func (svc *AuthService) lookup(ctx context.Context, username, email string) (*models.User, error) {
	user, err := svc.reader.GetUserByLogin(ctx, username, email)
	if apperr.IsKind(err, apperr.NotFound) {
		return nil, nil
	}
	return user, err
}

// Register registers a new user with an empty fiat account.
func (svc *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := svc.lookup(ctx, req.Username, req.Email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return nil, err
	}
	if user != nil {
		logger.Log.Warnw("user already exists", "username", req.Username, "email", req.Email)
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	user = &models.User{
		UserID:       uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		FiatBalance:  money.Zero,
		IsActive:     true,
	}
	if err := svc.writer.CreateUser(ctx, user); err != nil {
		if apperr.IsKind(err, apperr.DuplicateReference) {
			return nil, ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return nil, err
	}

	return user, nil
}

// Login authenticates a user and returns a JWT token.
func (svc *AuthService) Login(ctx context.Context, req models.LoginRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	user, err := svc.lookup(ctx, req.Username, "")
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", err
	}
	if user == nil {
		logger.Log.Warnw("user does not exist", "username", req.Username)
		return "", ErrUserDoesNotExist
	}
	if !user.IsActive {
		logger.Log.Warnw("inactive user login", "username", req.Username)
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Log.Warnw("invalid credentials", "username", req.Username)
		return "", ErrInvalidCredentials
	}

	token, err := svc.jwt.Generate(ctx, user.UserID, user.Role)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	return token, nil
}
