package repository

import (
	"context"
	"strings"
	"time"

	"handyhub/internal/model"
	"handyhub/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserFilter struct {
	Role   string
	Active *bool
	Search string
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, filter UserFilter, p pagination.Params) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	ApplyRating(ctx context.Context, id uuid.UUID, rating int) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return translate(GetDB(ctx, r.db).Create(user).Error, "create user", "User")
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err, "get user", "User")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, translate(err, "get user by email", "User")
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, p pagination.Params) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := GetDB(ctx, r.db).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count users", "User")
	}
	if err := query.Order("created_at desc").Offset(p.Offset).Limit(p.Limit).Find(&users).Error; err != nil {
		return nil, 0, translate(err, "list users", "User")
	}
	return users, total, nil
}

// userColumns leaves out the rating counters and last_login_at, which have their own writers
var userColumns = []string{
	"name", "email", "password_hash", "phone", "role", "is_verified", "is_active",
	"location_address", "location_lat", "location_lng", "updated_at",
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := GetDB(ctx, r.db).Model(user).Select(userColumns).Updates(user).Error
	return translate(err, "update user", "User")
}

func (r *userRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return translate(res.Error, "update user role", "User")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "update user role", "User")
	}
	return nil
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return translate(GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error, "touch last login", "User")
}

func (r *userRepository) ApplyRating(ctx context.Context, id uuid.UUID, rating int) error {
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"rating_average": gorm.Expr("(rating_average * rating_count + ?) / (rating_count + 1)", rating),
		"rating_count":   gorm.Expr("rating_count + 1"),
	}).Error
	return translate(err, "apply user rating", "User")
}
