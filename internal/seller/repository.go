package seller

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	// CreateAndPromote inserts a pending profile and upgrades the owner's role to seller.
	CreateAndPromote(ctx context.Context, p *Profile) (*Profile, error)
	// UpdateStatus moves a profile from one status to another, failing with
	// ErrInvalidTransition if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Profile, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const profileColumns = `id, user_id, store_name, slug, status, business_details, bank_details, commission_rate, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p        Profile
		business []byte
		bank     []byte
	)
	err := row.Scan(&p.ID, &p.UserID, &p.StoreName, &p.Slug, &p.Status, &business, &bank, &p.CommissionRate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(business) > 0 {
		if err := json.Unmarshal(business, &p.BusinessDetails); err != nil {
			return nil, fmt.Errorf("decode business details: %w", err)
		}
	}
	if len(bank) > 0 {
		if err := json.Unmarshal(bank, &p.BankDetails); err != nil {
			return nil, fmt.Errorf("decode bank details: %w", err)
		}
	}
	return &p, nil
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetByUserID"),
		zap.String("user_id", userID),
	)

	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM seller_profiles WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("seller profile not found")
		return nil, ErrProfileNotFound
	}
	if err != nil {
		log.Error("failed to scan seller profile", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetProfile, err)
	}
	return p, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM seller_profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to scan seller profile", zap.String("profile_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFailedGetProfile, err)
	}
	return p, nil
}

func (r *repository) CreateAndPromote(ctx context.Context, p *Profile) (*Profile, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateAndPromote"),
		zap.String("user_id", p.UserID),
	)

	business, err := json.Marshal(p.BusinessDetails)
	if err != nil {
		return nil, err
	}
	bank, err := json.Marshal(p.BankDetails)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin tx", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO seller_profiles (user_id, store_name, slug, status, business_details, bank_details, commission_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+profileColumns,
		p.UserID, p.StoreName, p.Slug, p.Status, business, bank, p.CommissionRate,
	)
	created, err := scanProfile(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			return nil, ErrProfileExists
		}
		log.Error("failed to insert seller profile", zap.Error(err))
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET role = 'seller' WHERE id = $1 AND role = 'user'`, p.UserID,
	); err != nil {
		log.Error("failed to promote user", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit seller application", zap.Error(err))
		return nil, err
	}

	log.Info("seller profile created", zap.String("profile_id", created.ID))
	return created, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE seller_profiles SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+profileColumns,
		id, from, to,
	)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update seller status",
			zap.String("profile_id", id), zap.String("to", string(to)), zap.Error(err))
		return nil, err
	}
	return p, nil
}
