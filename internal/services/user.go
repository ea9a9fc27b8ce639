package services

import (
	"context"
	"errors"

	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/utils/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService is the administrative user CRUD. Two guards apply to
// every mutation: only an ADMIN agent may touch users who hold (or
// would be given) the ADMIN role, and no agent may update or delete
// their own account through this path.
type UserService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:  db,
		log: logger.New("USER_SERVICE"),
	}
}

type UserInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Avatar   string
	Status   models.UserStatus
	RoleID   string
}

func (s *UserService) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := models.Active(s.db.WithContext(ctx).Model(&models.User{})).Count(&total).Error; err != nil {
		return nil, 0, s.log.Error("failed to count users", err)
	}

	var users []models.User
	query := models.Active(s.db.WithContext(ctx)).
		Preload("Role").
		Order("created_at ASC")
	if page > 0 && limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, s.log.Error("failed to list users", err)
	}
	return users, total, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := models.Active(s.db.WithContext(ctx)).
		Preload("Role").
		First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFoundRecord
		}
		return nil, s.log.Error("failed to load user", err)
	}
	return &user, nil
}

func (s *UserService) Create(ctx context.Context, input UserInput, agentRoleName, createdByID string) (*models.User, error) {
	if err := s.verifyRole(ctx, agentRoleName, input.RoleID); err != nil {
		return nil, err
	}

	var count int64
	err := models.Active(s.db.WithContext(ctx).Model(&models.User{})).
		Where("email = ?", input.Email).Count(&count).Error
	if err != nil {
		return nil, s.log.Error("failed to check email", err)
	}
	if count > 0 {
		return nil, errs.ErrEmailAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, s.log.Error("failed to hash password", err)
	}

	user := models.User{
		Email:       input.Email,
		Password:    string(hashed),
		Name:        input.Name,
		Phone:       input.Phone,
		Avatar:      input.Avatar,
		Status:      models.UserStatusActive,
		RoleID:      input.RoleID,
		CreatedByID: &createdByID,
	}
	if input.Status != "" {
		user.Status = input.Status
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, s.log.Error("failed to create user", err)
	}
	return s.Get(ctx, user.ID)
}

// Update changes a user. The role guard runs against the target's
// current role as stored, never against the role in the request body.
func (s *UserService) Update(ctx context.Context, userID string, input UserInput, agentRoleName, updatedByID string) (*models.User, error) {
	if userID == updatedByID {
		return nil, errs.ErrCannotModifySelf
	}
	target, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.verifyRole(ctx, agentRoleName, target.RoleID); err != nil {
		return nil, err
	}
	if input.RoleID != "" && input.RoleID != target.RoleID {
		if err := s.verifyRole(ctx, agentRoleName, input.RoleID); err != nil {
			return nil, err
		}
	}

	if input.Email != "" && input.Email != target.Email {
		var count int64
		err := models.Active(s.db.WithContext(ctx).Model(&models.User{})).
			Where("email = ? AND id <> ?", input.Email, userID).Count(&count).Error
		if err != nil {
			return nil, s.log.Error("failed to check email", err)
		}
		if count > 0 {
			return nil, errs.ErrEmailAlreadyExists
		}
	}

	updates := map[string]interface{}{"updated_by_id": updatedByID}
	if input.Email != "" {
		updates["email"] = input.Email
	}
	if input.Name != "" {
		updates["name"] = input.Name
	}
	if input.Phone != "" {
		updates["phone"] = input.Phone
	}
	if input.Avatar != "" {
		updates["avatar"] = input.Avatar
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}
	if input.RoleID != "" {
		updates["role_id"] = input.RoleID
	}
	if input.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, s.log.Error("failed to hash password", err)
		}
		updates["password"] = string(hashed)
	}
	if err := s.db.WithContext(ctx).Model(target).Updates(updates).Error; err != nil {
		return nil, s.log.Error("failed to update user", err)
	}
	return s.Get(ctx, userID)
}

func (s *UserService) Delete(ctx context.Context, userID, agentRoleName, deletedByID string) error {
	if userID == deletedByID {
		return errs.ErrCannotModifySelf
	}
	target, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.verifyRole(ctx, agentRoleName, target.RoleID); err != nil {
		return err
	}

	result := models.SoftDelete(s.db.WithContext(ctx), &models.User{}, userID, deletedByID)
	if result.Error != nil {
		return s.log.Error("failed to delete user", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFoundRecord
	}
	return nil
}

// verifyRole rejects a non-ADMIN agent acting on the ADMIN role, and
// confirms the role referenced actually exists and is active.
func (s *UserService) verifyRole(ctx context.Context, agentRoleName, roleID string) error {
	var role models.Role
	err := models.Active(s.db.WithContext(ctx)).
		Where("is_active = ?", true).
		First(&role, "id = ?", roleID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.ErrNotFoundRecord
		}
		return s.log.Error("failed to load role", err)
	}
	if agentRoleName != models.RoleNameAdmin && role.Name == models.RoleNameAdmin {
		return errs.ErrPermissionDenied
	}
	return nil
}
