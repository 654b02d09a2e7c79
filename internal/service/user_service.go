package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"commune/internal/cache"
	"commune/internal/models"
	"commune/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is the lifetime of an issued access token.
const tokenTTL = 24 * time.Hour

// UserService handles registration, login and profile management.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	// Login verifies credentials and returns the user plus a signed JWT.
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uint, name, bio, avatar *string, isPrivate *bool) (*models.User, error)
}

type userService struct {
	users     repository.UserRepository
	jwtSecret string
}

// NewUserService creates the user service. jwtSecret signs issued tokens.
func NewUserService(users repository.UserRepository, jwtSecret string) UserService {
	return &userService{users: users, jwtSecret: jwtSecret}
}

func (s *userService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	if len(username) < 3 || len(username) > 32 {
		return nil, models.NewValidationError("Username must be between 3 and 32 characters")
	}
	if !strings.Contains(email, "@") {
		return nil, models.NewValidationError("A valid email is required")
	}
	if len(password) < 8 {
		return nil, models.NewValidationError("Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Same answer for unknown email and wrong password.
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

func (s *userService) issueToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
}

func (s *userService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		user = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *userService) UpdateProfile(ctx context.Context, id uint, name, bio, avatar *string, isPrivate *bool) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		user.Name = *name
	}
	if bio != nil {
		user.Bio = *bio
	}
	if avatar != nil {
		user.Avatar = *avatar
	}
	if isPrivate != nil {
		user.IsPrivate = *isPrivate
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, id)
	return user, nil
}
