package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theleywin/talentnest-connections/src/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDirectory(t *testing.T) (*GormDirectory, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:identity_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))

	dir, err := NewGormDirectory(db)
	require.NoError(t, err)
	return dir, db
}

func TestGormDirectory(t *testing.T) {
	dir, db := newDirectory(t)
	ctx := context.Background()

	users := []models.User{
		{ID: "m1", Name: "Ada", Username: "ada", Email: "ada@example.com", Password: "hash", HeadLine: "Engineer"},
		{ID: "m2", Name: "Grace", Username: "grace", Email: "grace@example.com", Password: "hash"},
	}
	require.NoError(t, db.Create(&users).Error)

	got, err := dir.FindByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)
	assert.Empty(t, got.Password)

	got, err = dir.FindByUsername(ctx, "grace")
	require.NoError(t, err)
	assert.Equal(t, "m2", got.ID)

	_, err = dir.FindByID(ctx, "nobody")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	resolved, err := dir.Resolve(ctx, []string{"m1", "m2", "ghost"})
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
	assert.Equal(t, "Engineer", resolved["m1"].Headline)

	empty, err := dir.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	suggested, err := dir.Suggest(ctx, []string{"m1"}, 5)
	require.NoError(t, err)
	require.Len(t, suggested, 1)
	assert.Equal(t, "m2", suggested[0].ID)
}
