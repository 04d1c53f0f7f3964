package seller

import "time"

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusSuspended Status = "suspended"

	// StatusNone marks an authenticated identity with no seller profile.
	// It is never stored on a Profile.
	StatusNone Status = "none"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusSuspended:
		return true
	default:
		return false
	}
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusSuspended},
}

// CanTransition reports whether a profile may move from one status to another.
// Rejected and suspended are terminal; re-applying creates a new profile.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type BusinessDetails struct {
	LegalName string `json:"legalName"`
	TaxID     string `json:"taxId"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
}

type BankDetails struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	BankName      string `json:"bankName"`
	IFSC          string `json:"ifsc"`
}

type Profile struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	StoreName       string          `json:"storeName"`
	Slug            string          `json:"slug"`
	Status          Status          `json:"status"`
	BusinessDetails BusinessDetails `json:"businessDetails"`
	BankDetails     BankDetails     `json:"bankDetails"`
	CommissionRate  float64         `json:"commissionRate"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// State is the client's mirror of the current identity's seller profile.
type State struct {
	HasSeller  bool     `json:"hasSeller"`
	IsApproved bool     `json:"isApproved"`
	Status     Status   `json:"status"`
	Profile    *Profile `json:"profile"`
}

func EmptyState() State {
	return State{Status: StatusNone}
}

// ApplyInput is what a user submits to become a seller.
type ApplyInput struct {
	StoreName       string          `json:"storeName"`
	BusinessDetails BusinessDetails `json:"businessDetails"`
	BankDetails     BankDetails     `json:"bankDetails"`
}
