package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/normalize"
	"cinepulse-catalog/pkg/locker"
)

const anonymousOwner = "anonymous"

// UploadService creates catalog items from user drafts.
type UploadService struct {
	gateway domain.Gateway
	locker  locker.DistributedLocker // optional
	lockTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewUploadService creates a new UploadService. A nil locker disables the
// duplicate submission guard.
func NewUploadService(gateway domain.Gateway, l locker.DistributedLocker, lockTTL time.Duration, logger *zap.Logger) *UploadService {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}

	return &UploadService{
		gateway: gateway,
		locker:  l,
		lockTTL: lockTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateContentItem validates draft, stores it and returns the created item.
// Validation failures return a *domain.ValidationError before any remote call.
// The owner is the current user from ctx, or none.
func (s *UploadService) CreateContentItem(ctx context.Context, draft domain.UploadDraft) (*domain.ContentItem, error) {
	if err := draft.Validate(s.now()); err != nil {
		return nil, err
	}

	owner, _ := domain.UserIDFrom(ctx)

	if s.locker != nil {
		key := uploadLockKey(owner, draft)
		acquired, err := s.locker.Acquire(ctx, key, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("guarding upload: %w", err)
		}
		if !acquired {
			return nil, domain.ErrUploadInProgress
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Warn("failed to release upload guard", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	raw, err := s.gateway.Insert(ctx, draft.Kind.Collection(), normalize.DraftRecord(draft, owner))
	if err != nil {
		s.logger.Error("content insert failed",
			zap.String("collection", draft.Kind.Collection()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("inserting content: %w", err)
	}

	item, err := normalize.Content(raw, draft.Kind)
	if err != nil {
		return nil, fmt.Errorf("normalizing created content: %w", err)
	}

	s.logger.Info("content created",
		zap.String("id", item.ID),
		zap.String("kind", string(item.Kind)),
		zap.Bool("anonymous", owner == ""),
	)

	return item, nil
}

// uploadLockKey identifies a submission by owner, kind and title.
func uploadLockKey(owner string, draft domain.UploadDraft) string {
	if owner == "" {
		owner = anonymousOwner
	}
	return "upload:" + owner + ":" + string(draft.Kind) + ":" + strings.ToLower(draft.Title)
}
