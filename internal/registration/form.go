package registration

import (
	"strings"

	"devthon-registration/internal/models"
)

// Form is the candidate registration as the presentation layer collects it.
// The presentation layer owns it; functions in this package only read it or
// return modified copies.
type Form struct {
	TeamName      string          `json:"team_name"`
	CollegeName   string          `json:"college_name"`
	LeaderName    string          `json:"leader_name"`
	LeaderEmail   string          `json:"leader_email"`
	LeaderPhone   string          `json:"leader_phone"`
	LeaderRollNo  string          `json:"leader_roll_no"`
	Members       []models.Member `json:"members"`
	TransactionID string          `json:"upi_transaction_id"`
}

func (f Form) Totals() Totals {
	return ComputeTotals(ClampMemberCount(len(f.Members)))
}

// Normalized returns a copy with surrounding whitespace removed from every field.
func (f Form) Normalized() Form {
	out := Form{
		TeamName:      strings.TrimSpace(f.TeamName),
		CollegeName:   strings.TrimSpace(f.CollegeName),
		LeaderName:    strings.TrimSpace(f.LeaderName),
		LeaderEmail:   strings.TrimSpace(f.LeaderEmail),
		LeaderPhone:   strings.TrimSpace(f.LeaderPhone),
		LeaderRollNo:  strings.TrimSpace(f.LeaderRollNo),
		TransactionID: strings.TrimSpace(f.TransactionID),
	}
	if len(f.Members) > 0 {
		out.Members = make([]models.Member, len(f.Members))
		for i, m := range f.Members {
			out.Members[i] = models.Member{
				Name:   strings.TrimSpace(m.Name),
				Email:  strings.TrimSpace(m.Email),
				RollNo: strings.TrimSpace(m.RollNo),
			}
		}
	}
	return out
}

// Registration builds the record to persist. Status is always pending.
func (f Form) Registration() models.Registration {
	t := f.Totals()
	members := make([]models.Member, len(f.Members))
	copy(members, f.Members)
	return models.Registration{
		TeamName:         f.TeamName,
		CollegeName:      f.CollegeName,
		LeaderName:       f.LeaderName,
		LeaderEmail:      f.LeaderEmail,
		LeaderPhone:      f.LeaderPhone,
		LeaderRollNo:     f.LeaderRollNo,
		Members:          members,
		TotalMembers:     t.TotalMembers,
		TotalFee:         t.TotalFee,
		UPITransactionID: f.TransactionID,
		PaymentStatus:    models.PaymentPending,
	}
}
