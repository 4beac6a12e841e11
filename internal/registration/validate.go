package registration

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateForSubmission checks that the form is ready for payment and
// submission. Presence of every required field is checked before the email
// shape and the team size; members are checked last, in list order.
func ValidateForSubmission(f Form) error {
	required := []struct {
		field, label, value string
	}{
		{"team_name", "team name", f.TeamName},
		{"college_name", "college name", f.CollegeName},
		{"leader_name", "leader name", f.LeaderName},
		{"leader_roll_no", "leader roll number", f.LeaderRollNo},
		{"leader_email", "leader email", f.LeaderEmail},
		{"leader_phone", "leader phone", f.LeaderPhone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: r.label + " is required"}
		}
	}

	if !IsEmail(f.LeaderEmail) {
		return &ValidationError{Field: "leader_email", Message: "leader email is not a valid email address"}
	}

	if len(f.Members) > MaxExtraMembers {
		return &ValidationError{
			Field:   "team_members",
			Message: fmt.Sprintf("maximum %d members allowed (including team leader)", MaxTeamSize),
		}
	}
	if f.Totals().TotalMembers < MinTeamSize {
		return &ValidationError{
			Field:   "team_members",
			Message: fmt.Sprintf("minimum %d members required (including team leader)", MinTeamSize),
		}
	}

	for i, m := range f.Members {
		field := fmt.Sprintf("team_members[%d]", i)
		switch {
		case strings.TrimSpace(m.Name) == "":
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("member %d name is required", i+1)}
		case strings.TrimSpace(m.Email) == "":
			return &ValidationError{Field: field + ".email", Message: fmt.Sprintf("member %d email is required", i+1)}
		case strings.TrimSpace(m.RollNo) == "":
			return &ValidationError{Field: field + ".roll_no", Message: fmt.Sprintf("member %d roll number is required", i+1)}
		}
	}
	return nil
}

// ValidatePaymentReference checks the UPI transaction id entered after paying.
// The reference is opaque; only presence is required.
func ValidatePaymentReference(ref string) error {
	if strings.TrimSpace(ref) == "" {
		return &ValidationError{
			Field:   "upi_transaction_id",
			Message: "enter the transaction ID after completing payment",
		}
	}
	return nil
}

func IsEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}
