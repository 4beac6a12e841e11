package registration

import "devthon-registration/internal/models"

type MemberField string

const (
	FieldName   MemberField = "name"
	FieldEmail  MemberField = "email"
	FieldRollNo MemberField = "roll_no"
)

// AddMember appends a blank member. The input slice is never modified.
func AddMember(members []models.Member) ([]models.Member, error) {
	if len(members) >= MaxExtraMembers {
		return members, &CapacityError{Limit: MaxExtraMembers}
	}
	out := make([]models.Member, len(members), len(members)+1)
	copy(out, members)
	return append(out, models.Member{}), nil
}

// RemoveMember deletes the member at index. Out of range is a no-op.
func RemoveMember(members []models.Member, index int) []models.Member {
	if index < 0 || index >= len(members) {
		return members
	}
	out := make([]models.Member, 0, len(members)-1)
	out = append(out, members[:index]...)
	return append(out, members[index+1:]...)
}

// UpdateMember replaces one field of one member. Out of range indexes and
// unknown fields leave the list unchanged.
func UpdateMember(members []models.Member, index int, field MemberField, value string) []models.Member {
	if index < 0 || index >= len(members) {
		return members
	}
	out := make([]models.Member, len(members))
	copy(out, members)
	switch field {
	case FieldName:
		out[index].Name = value
	case FieldEmail:
		out[index].Email = value
	case FieldRollNo:
		out[index].RollNo = value
	default:
		return members
	}
	return out
}
