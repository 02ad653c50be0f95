// File: internal/services/chat/interface.go
package chat

import (
	"context"

	"github.com/iyunix/go-lingochat/internal/domain"
	"github.com/iyunix/go-lingochat/internal/services/pipeline"
)

// Pipeline processes one message; see pipeline.Service.
type Pipeline interface {
	Process(ctx context.Context, job pipeline.Job) pipeline.Result
}

// PipelineFactory builds the session's pipeline reporting to observer.
type PipelineFactory func(observer pipeline.Observer) (Pipeline, error)

// UserCache is the local copy of user records.
type UserCache interface {
	Upsert(ctx context.Context, user *domain.User) error
	FindByUID(ctx context.Context, uid string) (*domain.User, error)
}

// Recognizer is the session's speech recognizer.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
	Stop()
	Cancel()
	Close() error
}
