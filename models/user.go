package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/pos_backend/config"
	"bitbucket.org/mmdatafocus/pos_backend/utils"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null;unique" json:"name"`
	Email     string    `gorm:"size:255;not null;unique" json:"email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('admin','cashier','manager');not null;default:cashier" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=6"`
	Role     UserRole `json:"role"`
}

type LoginInput struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginInfo struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// Login authenticates by operator name. A wrong name and a wrong
// password return the same error so the response does not reveal which
// accounts exist.
func Login(ctx context.Context, input *LoginInput) (*LoginInfo, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("name = ?", strings.TrimSpace(input.Name)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewUnauthorizedError("invalid credentials")
		}
		return nil, NewPersistenceError(err)
	}
	if !user.IsActive {
		return nil, NewUnauthorizedError("account is disabled")
	}
	if err := utils.ComparePassword(user.Password, input.Password); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}

	token, err := utils.JwtGenerate(user.ID, user.Name, string(user.Role))
	if err != nil {
		return nil, NewPersistenceError(err)
	}

	user.Password = ""
	return &LoginInfo{Token: token, User: &user}, nil
}

func (input *NewUser) validate(ctx context.Context, id int) error {
	if strings.TrimSpace(input.Name) == "" {
		return NewValidationError("name is required")
	}
	if !utils.IsValidEmail(input.Email) {
		return NewValidationError("invalid email address")
	}
	if input.Role != "" && !input.Role.IsValid() {
		return NewValidationError("invalid role %q", input.Role)
	}
	if err := utils.ValidateUnique[User](ctx, "name", strings.TrimSpace(input.Name), id); err != nil {
		return NewValidationError("user with this name already exists")
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, id); err != nil {
		return NewValidationError("user with this email already exists")
	}
	return nil
}

// CreateUser registers an operator account. The unique indexes on name
// and email are the real guard; the pre-check just gives a friendlier
// message when the race does not happen.
func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	if len(input.Password) < 6 {
		return nil, NewValidationError("password must be at least 6 characters")
	}
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, NewPersistenceError(err)
	}

	role := input.Role
	if role == "" {
		role = UserRoleCashier
	}

	user := User{
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Password: string(hashed),
		Role:     role,
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateEntry(err) {
			return nil, NewValidationError("user with this name or email already exists")
		}
		return nil, NewPersistenceError(err)
	}

	user.Password = ""
	return &user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	user, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func GetAllUsers(ctx context.Context) ([]*User, error) {
	db := config.GetDB()
	var results []*User
	if err := db.WithContext(ctx).Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	for _, u := range results {
		u.Password = ""
	}
	return results, nil
}

type UpdateUserInput struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Role     UserRole `json:"role" binding:"required"`
	IsActive *bool    `json:"is_active"`
}

func UpdateUser(ctx context.Context, id int, input *UpdateUserInput) (*User, error) {
	db := config.GetDB()

	asNewUser := NewUser{Name: input.Name, Email: input.Email, Role: input.Role}
	if err := asNewUser.validate(ctx, id); err != nil {
		return nil, err
	}
	if !input.Role.IsValid() {
		return nil, NewValidationError("invalid role %q", input.Role)
	}

	var user User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewValidationError("user %d not found", id)
		}
		return nil, NewPersistenceError(err)
	}

	updates := map[string]interface{}{
		"name":  strings.TrimSpace(input.Name),
		"email": input.Email,
		"role":  input.Role,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		if isDuplicateEntry(err) {
			return nil, NewValidationError("user with this name or email already exists")
		}
		return nil, NewPersistenceError(err)
	}

	user.Password = ""
	return &user, nil
}

// DeleteUser removes an account. Operators cannot delete themselves:
// the store must always retain at least the acting admin.
func DeleteUser(ctx context.Context, id int) error {
	db := config.GetDB()

	actingId, _ := utils.GetUserIdFromContext(ctx)
	if actingId == id {
		return NewValidationError("cannot delete your own account")
	}

	res := db.WithContext(ctx).Delete(&User{}, id)
	if res.Error != nil {
		return NewPersistenceError(res.Error)
	}
	if res.RowsAffected == 0 {
		return NewValidationError("user %d not found", id)
	}
	return nil
}

// ResetUserPassword is the admin path: no current-password check.
func ResetUserPassword(ctx context.Context, id int, newPassword string) error {
	db := config.GetDB()

	if len(newPassword) < 6 {
		return NewValidationError("password must be at least 6 characters")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return NewPersistenceError(err)
	}

	res := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Update("password", string(hashed))
	if res.Error != nil {
		return NewPersistenceError(res.Error)
	}
	if res.RowsAffected == 0 {
		return NewValidationError("user %d not found", id)
	}
	return nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

func ChangeUserPassword(ctx context.Context, input *ChangePasswordInput) error {
	db := config.GetDB()

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return NewUnauthorizedError("operator identity is required")
	}
	if len(input.NewPassword) < 6 {
		return NewValidationError("password must be at least 6 characters")
	}

	var user User
	if err := db.WithContext(ctx).First(&user, userId).Error; err != nil {
		return NewPersistenceError(err)
	}
	if err := utils.ComparePassword(user.Password, input.CurrentPassword); err != nil {
		return NewUnauthorizedError("current password is incorrect")
	}

	hashed, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return NewPersistenceError(err)
	}
	if err := db.WithContext(ctx).Model(&user).Update("password", string(hashed)).Error; err != nil {
		return NewPersistenceError(err)
	}
	return nil
}
