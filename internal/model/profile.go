package model

import "time"

// Profile is the application-level identity, linked one-to-one to an
// identity in the external auth service via AuthID.
type Profile struct {
	ID               string    `db:"id" json:"id"`
	AuthID           string    `db:"auth_id" json:"authId"`
	CompanyID        *string   `db:"company_id" json:"companyId,omitempty"`
	Email            string    `db:"email" json:"email"`
	FullName         *string   `db:"full_name" json:"fullName,omitempty"`
	StripeCustomerID *string   `db:"stripe_customer_id" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateProfileParams struct {
	AuthID    string
	CompanyID *string
	Email     string
	FullName  *string
}
