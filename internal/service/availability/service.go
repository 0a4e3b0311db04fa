package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/careling/booking-api/internal/model"
	"github.com/careling/booking-api/internal/repository"
	apperrors "github.com/careling/booking-api/pkg/errors"
	"github.com/careling/booking-api/pkg/validator"
)

const (
	userCacheTTL     = 5 * time.Minute
	userCacheCleanup = 10 * time.Minute
)

// Service records and queries provider time blocks.
type Service struct {
	repo      repository.AvailabilityRepository
	userRepo  repository.UserRepository
	userCache *cache.Cache
	validator validator.Validator
}

func NewService(repo repository.AvailabilityRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		repo:      repo,
		userRepo:  userRepo,
		userCache: cache.New(userCacheTTL, userCacheCleanup),
		validator: validator.New(),
	}
}

// AddBlock stores a new availability block for the provider.
func (s *Service) AddBlock(ctx context.Context, req *model.AddAvailabilityRequest) (uuid.UUID, error) {
	if err := s.validator.Validate(req); err != nil {
		return uuid.Nil, fmt.Errorf("invalid availability request: %w", err)
	}
	if !req.EndTime.After(req.StartTime) {
		return uuid.Nil, apperrors.InvalidRange("availability end time must be after start time")
	}

	exists, err := s.providerExists(ctx, req.ProviderID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to verify provider: %w", err)
	}
	if !exists {
		return uuid.Nil, apperrors.UnknownUser("provider")
	}

	block := &model.AvailabilityBlock{
		ProviderID:    req.ProviderID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		RecurringRule: req.RecurringRule,
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return uuid.Nil, fmt.Errorf("failed to add availability block: %w", err)
	}
	return block.ID, nil
}

// QueryBlocks returns the provider's blocks ordered by start time. A non-nil
// window narrows the result to blocks overlapping [window.Start, window.End).
// An empty result is not an error.
func (s *Service) QueryBlocks(ctx context.Context, providerID uuid.UUID, window *model.TimeWindow) ([]*model.AvailabilityBlock, error) {
	blocks, err := s.repo.ListForProvider(ctx, providerID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability blocks: %w", err)
	}
	return blocks, nil
}

// DeleteBlock removes the block only when it belongs to the requesting
// provider. A false result covers both "not found" and "not yours"; callers
// cannot tell them apart.
func (s *Service) DeleteBlock(ctx context.Context, blockID, requestingProviderID uuid.UUID) (bool, error) {
	deleted, err := s.repo.Delete(ctx, blockID, requestingProviderID)
	if err != nil {
		return false, fmt.Errorf("failed to delete availability block: %w", err)
	}
	return deleted, nil
}

func (s *Service) providerExists(ctx context.Context, providerID uuid.UUID) (bool, error) {
	key := providerID.String()
	if _, found := s.userCache.Get(key); found {
		return true, nil
	}

	exists, err := s.userRepo.Exists(ctx, providerID)
	if err != nil {
		return false, err
	}
	if exists {
		// Only positive lookups are cached; a user created a moment later
		// must not be masked by a stale negative entry.
		s.userCache.Set(key, struct{}{}, cache.DefaultExpiration)
	}
	return exists, nil
}
