package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
	"ecoshop_back_end/internal/utils"
)

const (
	MinPasswordLength = 8
	avatarFolder      = "avatars"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

type ProfileInput struct {
	Name  string
	Email string
	Role  string
}

type UserService struct {
	users  repository.UserRepository
	images ImageStore
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(users repository.UserRepository, images ImageStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		images: images,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register crée un compte local. Un Role vide vaut customer.
func (s *UserService) Register(ctx context.Context, in RegisterInput, avatarPath string) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		removeTemp(nonEmpty(avatarPath))
		return nil, apperrors.Validation("Please enter name, email and password")
	}
	if len(in.Password) < MinPasswordLength {
		removeTemp(nonEmpty(avatarPath))
		return nil, apperrors.Validation(fmt.Sprintf("Password should be at least %d characters", MinPasswordLength))
	}
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleAdmin {
		removeTemp(nonEmpty(avatarPath))
		return nil, apperrors.Validation(fmt.Sprintf("Unknown role %q", role))
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		removeTemp(nonEmpty(avatarPath))
		return nil, apperrors.Internal(err)
	}

	user := &models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		Role:      role,
		Provider:  models.ProviderLocal,
		CreatedAt: s.now(),
	}
	if avatarPath != "" {
		img, err := s.images.Upload(ctx, avatarPath, avatarFolder)
		if err != nil {
			return nil, imageStoreError(err)
		}
		user.Avatar = img
	}

	if err := s.create(ctx, user); err != nil {
		s.removeImage(ctx, user.Avatar)
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", role))
	return user, nil
}

func (s *UserService) create(ctx context.Context, user *models.User) error {
	err := s.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return apperrors.Validation("Duplicate email entered")
	}
	if err != nil {
		return apperrors.Internal(fmt.Errorf("create user: %w", err))
	}
	return nil
}

// Login vérifie les identifiants. Les anciens hashs bcrypt passent en argon2id.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("Please enter email and password")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("load user by email: %w", err))
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil && !errors.Is(err, utils.ErrInvalidHash) {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}

	if utils.NeedsRehash(user.Password) {
		if hash, err := utils.HashPassword(password); err == nil {
			user.Password = hash
			if err := s.users.Update(ctx, user); err != nil {
				s.logger.Warn("password rehash not saved", zap.String("user_id", user.ID), zap.Error(err))
			}
		}
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("User", id)
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("get user %s: %w", id, err))
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list users: %w", err))
	}
	return users, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword, confirm string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ok, err := utils.VerifyPassword(oldPassword, user.Password)
	if err != nil && !errors.Is(err, utils.ErrInvalidHash) {
		return nil, apperrors.Internal(err)
	}
	if !ok {
		return nil, apperrors.Validation("Old password is incorrect")
	}
	if newPassword != confirm {
		return nil, apperrors.Validation("Password does not match")
	}
	if len(newPassword) < MinPasswordLength {
		return nil, apperrors.Validation(fmt.Sprintf("Password should be at least %d characters", MinPasswordLength))
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	user.Password = hash
	if err := s.update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfile modifie le nom et l'email, et remplace l'avatar si un nouveau est fourni.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput, avatarPath string) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		removeTemp(nonEmpty(avatarPath))
		return nil, err
	}
	if in.Name != "" {
		user.Name = strings.TrimSpace(in.Name)
	}
	if in.Email != "" {
		user.Email = strings.TrimSpace(in.Email)
	}

	old := user.Avatar
	if avatarPath != "" {
		img, err := s.images.Upload(ctx, avatarPath, avatarFolder)
		if err != nil {
			return nil, imageStoreError(err)
		}
		user.Avatar = img
	}

	if err := s.update(ctx, user); err != nil {
		if user.Avatar != old {
			s.removeImage(ctx, user.Avatar)
		}
		return nil, err
	}
	if user.Avatar != old {
		s.removeImage(ctx, old)
	}
	return user, nil
}

// UpdateRole est l'édition admin du nom, de l'email et du rôle.
func (s *UserService) UpdateRole(ctx context.Context, id string, in ProfileInput) (*models.User, error) {
	if in.Role != "" && in.Role != models.RoleCustomer && in.Role != models.RoleAdmin {
		return nil, apperrors.Validation(fmt.Sprintf("Unknown role %q", in.Role))
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		user.Name = strings.TrimSpace(in.Name)
	}
	if in.Email != "" {
		user.Email = strings.TrimSpace(in.Email)
	}
	if in.Role != "" {
		user.Role = in.Role
	}
	if err := s.update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user updated by admin", zap.String("user_id", id), zap.String("role", user.Role))
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("User", id)
		}
		return apperrors.Internal(fmt.Errorf("delete user %s: %w", id, err))
	}
	s.removeImage(ctx, user.Avatar)
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// OAuthLogin retrouve le compte d'une identité OAuth par email et le crée à la première connexion.
func (s *UserService) OAuthLogin(ctx context.Context, provider, email, name, avatarURL string) (*models.User, error) {
	if email == "" {
		return nil, apperrors.Validation(fmt.Sprintf("%s account has no email address", provider))
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(fmt.Errorf("load user by email: %w", err))
	}

	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	user = &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      models.RoleCustomer,
		Avatar:    models.Image{URL: avatarURL},
		Provider:  provider,
		CreatedAt: s.now(),
	}
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user created from oauth", zap.String("user_id", user.ID), zap.String("provider", provider))
	return user, nil
}

func (s *UserService) update(ctx context.Context, user *models.User) error {
	err := s.users.Update(ctx, user)
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.Validation("Duplicate email entered")
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("User", user.ID)
	case err != nil:
		return apperrors.Internal(fmt.Errorf("update user %s: %w", user.ID, err))
	}
	return nil
}

func (s *UserService) removeImage(ctx context.Context, img models.Image) {
	if img.PublicID == "" {
		return
	}
	if err := s.images.Remove(context.WithoutCancel(ctx), img.PublicID); err != nil {
		s.logger.Warn("avatar not removed", zap.String("public_id", img.PublicID), zap.Error(err))
	}
}

func nonEmpty(paths ...string) []string {
	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
