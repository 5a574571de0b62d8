// Package identity resolves member ids to display attributes for the HTTP
// layer. The connection core never depends on it.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/theleywin/talentnest-connections/src/models"
	"gorm.io/gorm"
)

var ErrMemberNotFound = errors.New("member not found")

// Directory looks up members.
type Directory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// Resolve returns display attributes for the ids that exist; unknown ids are omitted.
	Resolve(ctx context.Context, ids []string) (map[string]models.UserDto, error)
	// Suggest returns up to limit members whose ids are not in exclude.
	Suggest(ctx context.Context, exclude []string, limit int) ([]models.UserDto, error)
}

// GormDirectory reads members from the users table.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) (*GormDirectory, error) {
	if db == nil {
		return nil, errors.New("identity: nil db")
	}
	return &GormDirectory{db: db}, nil
}

var displayColumns = []string{"id", "name", "username", "email", "profile_picture", "head_line", "created_at", "updated_at"}

func (d *GormDirectory) FindByID(ctx context.Context, id string) (models.User, error) {
	return d.findOne(ctx, "id = ?", id)
}

func (d *GormDirectory) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return d.findOne(ctx, "username = ?", username)
}

func (d *GormDirectory) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	var user models.User
	err := d.db.WithContext(ctx).Select(displayColumns).Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrMemberNotFound
		}
		return models.User{}, fmt.Errorf("find member: %w", err)
	}
	return user, nil
}

func (d *GormDirectory) Resolve(ctx context.Context, ids []string) (map[string]models.UserDto, error) {
	out := make(map[string]models.UserDto, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	err := d.db.WithContext(ctx).Select(displayColumns).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("resolve members: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u.Dto()
	}
	return out, nil
}

func (d *GormDirectory) Suggest(ctx context.Context, exclude []string, limit int) ([]models.UserDto, error) {
	if limit <= 0 {
		limit = 3
	}
	q := d.db.WithContext(ctx).Select(displayColumns)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}

	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("suggest members: %w", err)
	}
	out := make([]models.UserDto, 0, len(users))
	for _, u := range users {
		out = append(out, u.Dto())
	}
	return out, nil
}
