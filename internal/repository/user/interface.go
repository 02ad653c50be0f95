package user

import (
	"context"

	"github.com/iyunix/go-lingochat/internal/domain"
)

// UserRepository caches backend user records and their target language.
type UserRepository interface {
	Upsert(ctx context.Context, user *domain.User) error
	FindByUID(ctx context.Context, uid string) (*domain.User, error)
	UpdateTargetLanguage(ctx context.Context, uid, language string) error
	FindAll(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, uid string) error
}
