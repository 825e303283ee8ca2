package anonymous

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/partshub/chat-service/internal/domain"
)

var ErrAnonymousNotFound = errors.New("anonymous user not found")

type gormAnonymousRepository struct {
	db *gorm.DB
}

func NewAnonymousRepository(db *gorm.DB) AnonymousRepository {
	return &gormAnonymousRepository{db: db}
}

func (r *gormAnonymousRepository) WithTx(tx *gorm.DB) AnonymousRepository {
	return &gormAnonymousRepository{db: tx}
}

func (r *gormAnonymousRepository) Create(ctx context.Context, a *domain.AnonymousUser) (*domain.AnonymousUser, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Token == "" {
		a.Token = uuid.NewString()
	}
	a.LastActivity = time.Now()
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		log.Printf("[AnonymousRepository] Database error during creation: %v", err)
		return nil, errors.New("database error creating anonymous user")
	}
	return a, nil
}

func (r *gormAnonymousRepository) FindByID(ctx context.Context, id string) (*domain.AnonymousUser, error) {
	if id == "" {
		return nil, ErrAnonymousNotFound
	}
	var a domain.AnonymousUser
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnonymousNotFound
		}
		log.Printf("[AnonymousRepository] FindByID database error: %v", err)
		return nil, errors.New("database query failed")
	}
	return &a, nil
}

func (r *gormAnonymousRepository) TouchActivity(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&domain.AnonymousUser{}).
		Where("id = ?", id).
		Update("last_activity", time.Now()).Error
	if err != nil {
		log.Printf("[AnonymousRepository] TouchActivity database error for %s: %v", id, err)
		return errors.New("database error updating activity")
	}
	return nil
}

func (r *gormAnonymousRepository) AttachUser(ctx context.Context, id, userID string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.AnonymousUser{}).
		Where("id = ?", id).
		Update("user_id", userID)
	if result.Error != nil {
		log.Printf("[AnonymousRepository] AttachUser database error for %s: %v", id, result.Error)
		return errors.New("database error attaching user")
	}
	if result.RowsAffected == 0 {
		return ErrAnonymousNotFound
	}
	return nil
}
