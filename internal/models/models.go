package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentVerified, PaymentRejected:
		return true
	}
	return false
}

type Member struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	RollNo string `json:"roll_no"`
}

// Registration is one team entry: the leader plus up to three members.
// TotalMembers and TotalFee are derived from Members and stored alongside.
type Registration struct {
	ID               string        `json:"id,omitempty"`
	TeamName         string        `json:"team_name"`
	CollegeName      string        `json:"college_name"`
	LeaderName       string        `json:"leader_name"`
	LeaderEmail      string        `json:"leader_email"`
	LeaderPhone      string        `json:"leader_phone"`
	LeaderRollNo     string        `json:"leader_roll_no"`
	Members          []Member      `json:"team_members"`
	TotalMembers     int           `json:"total_members"`
	TotalFee         int           `json:"total_fee"`
	UPITransactionID string        `json:"upi_transaction_id"`
	PaymentStatus    PaymentStatus `json:"payment_status"`
	IsPresent        bool          `json:"is_present"`
	CreatedAt        time.Time     `json:"created_at,omitzero"`
}

// Confirmation is handed to the confirmation view after a successful insert.
// It is never persisted.
type Confirmation struct {
	TransactionID string `json:"transactionId"`
	Amount        int    `json:"amount"`
	TeamName      string `json:"teamName"`
	TeamID        string `json:"teamId"`
}
