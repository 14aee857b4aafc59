package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/repository"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

// MsgEmailTaken is returned when an account email is already registered.
const MsgEmailTaken = "Email already exists."

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email" validate:"required,email"`
	Password string          `json:"password" validate:"required,min=6"`
	Role     models.UserRole `json:"role" validate:"required,oneof=PRINCIPAL HOMEROOM_TEACHER SUBJECT_TEACHER STUDENT ADMIN"`
}

// UserService handles user management workflows.
type UserService struct {
	repo       userRepository
	activities ActivityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
	hashCost   int
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, activities: activities, validator: validate, logger: logger, hashCost: bcrypt.DefaultCost}
}

// List returns every account ordered by role then name.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Create adds a new account with a bcrypt password hash.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actor *string) (*models.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, MsgEmailTaken)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = req.Email[:strings.Index(req.Email, "@")]
	}
	user := &models.User{Name: name, Email: req.Email, PasswordHash: string(hash), Role: req.Role}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, MsgEmailTaken)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityUserCreated, fmt.Sprintf("Account %s created with role %s", user.Email, user.Role))
	}
	return user, nil
}

// Delete removes an account.
func (s *UserService) Delete(ctx context.Context, id string, actor *string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if s.activities != nil {
		s.activities.Record(ctx, actor, models.ActivityUserDeleted, fmt.Sprintf("Account %s removed", user.Email))
	}
	return nil
}
