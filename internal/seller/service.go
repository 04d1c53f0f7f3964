package seller

import (
	"context"
	"errors"
	"strings"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	"go.uber.org/zap"
)

const DefaultCommissionRate = 10.0

// Service is the backend authority for seller profiles. Unlike the client
// Store it enforces the status lifecycle.
type Service interface {
	GetForUser(ctx context.Context, userID string) (*Profile, error)
	Apply(ctx context.Context, userID string, input ApplyInput) (*Profile, error)
	UpdateStatus(ctx context.Context, profileID string, to Status) (*Profile, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetForUser(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) Apply(ctx context.Context, userID string, input ApplyInput) (*Profile, error) {
	log := logger.FromCtx(ctx).With(zap.String("user_id", userID))

	name := strings.TrimSpace(input.StoreName)
	if name == "" {
		return nil, ErrStoreNameRequired
	}

	p, err := s.repo.CreateAndPromote(ctx, &Profile{
		UserID:          userID,
		StoreName:       name,
		Slug:            Slugify(name, userID),
		Status:          StatusPending,
		BusinessDetails: input.BusinessDetails,
		BankDetails:     input.BankDetails,
		CommissionRate:  DefaultCommissionRate,
	})
	if err != nil {
		log.Warn("seller application failed", zap.Error(err))
		return nil, err
	}

	log.Info("seller application submitted", zap.String("profile_id", p.ID))
	return p, nil
}

func (s *service) UpdateStatus(ctx context.Context, profileID string, to Status) (*Profile, error) {
	log := logger.FromCtx(ctx).With(zap.String("profile_id", profileID), zap.String("to", string(to)))

	if !to.IsValid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(current.Status, to) {
		log.Warn("rejected status transition", zap.String("from", string(current.Status)))
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, profileID, current.Status, to)
	if err != nil {
		if !errors.Is(err, ErrInvalidTransition) {
			log.Error("failed to update seller status", zap.Error(err))
		}
		return nil, err
	}

	log.Info("seller status updated", zap.String("from", string(current.Status)))
	return updated, nil
}
