package connections

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/theleywin/talentnest-connections/src/models"
	"gorm.io/gorm"
)

// GormStore persists connection requests through gorm.
// The handle must be opened with TranslateError so unique violations surface
// as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gorm store: nil db")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) FindByID(ctx context.Context, id string) (models.ConnectionRequest, error) {
	var rec models.ConnectionRequest
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ConnectionRequest{}, ErrNotFound
		}
		return models.ConnectionRequest{}, fmt.Errorf("find connection request %s: %w", id, err)
	}
	return rec, nil
}

func (s *GormStore) FindByPair(ctx context.Context, a, b string) (models.ConnectionRequest, bool, error) {
	var rec models.ConnectionRequest
	err := s.db.WithContext(ctx).Where("pair_key = ?", models.PairKey(a, b)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ConnectionRequest{}, false, nil
		}
		return models.ConnectionRequest{}, false, fmt.Errorf("find connection pair: %w", err)
	}
	return rec, true, nil
}

func (s *GormStore) FindByParticipant(ctx context.Context, member string) iter.Seq2[models.ConnectionRequest, error] {
	return func(yield func(models.ConnectionRequest, error) bool) {
		rows, err := s.db.WithContext(ctx).
			Model(&models.ConnectionRequest{}).
			Where("requester_id = ? OR target_id = ?", member, member).
			Order("created_at DESC").
			Order("id DESC").
			Rows()
		if err != nil {
			yield(models.ConnectionRequest{}, fmt.Errorf("list connection requests: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rec models.ConnectionRequest
			if err := s.db.ScanRows(rows, &rec); err != nil {
				yield(models.ConnectionRequest{}, fmt.Errorf("scan connection request: %w", err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.ConnectionRequest{}, fmt.Errorf("list connection requests: %w", err))
		}
	}
}

func (s *GormStore) Insert(ctx context.Context, rec models.ConnectionRequest) error {
	err := s.db.WithContext(ctx).Create(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("insert connection request: %w", err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, rec models.ConnectionRequest, expected models.ConnectionStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.ConnectionRequest{}).
		Where("id = ? AND status = ?", rec.ID, expected).
		Updates(map[string]interface{}{
			"status":     rec.Status,
			"updated_at": rec.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update connection request %s: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
