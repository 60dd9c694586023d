package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/salesai/api-server-go/internal/model"
)

type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	FindByAuthID(ctx context.Context, authID string) (*model.Profile, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Profile, error)
	Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error)
	SetStripeCustomerID(ctx context.Context, id string, customerID string) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ProfileRepository
}

type profileRepo struct {
	db queryer
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) WithTx(tx *sqlx.Tx) ProfileRepository {
	return &profileRepo{db: tx}
}

func (r *profileRepo) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM profiles WHERE id = $1
	`, id)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) FindByAuthID(ctx context.Context, authID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM profiles WHERE auth_id = $1
	`, authID)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT * FROM profiles WHERE stripe_customer_id = $1
	`, customerID)
	return HandleNotFound(&profile, err)
}

func (r *profileRepo) Create(ctx context.Context, params model.CreateProfileParams) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		INSERT INTO profiles (auth_id, company_id, email, full_name)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.AuthID, params.CompanyID, params.Email, params.FullName)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) SetStripeCustomerID(ctx context.Context, id string, customerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET
			stripe_customer_id = $2,
			updated_at = $3
		WHERE id = $1
	`, id, customerID, time.Now())
	return err
}
