package registration

const (
	FeePerMember = 75

	// MaxExtraMembers is the number of members allowed besides the leader.
	MaxExtraMembers = 3
	MinTeamSize     = 2
	MaxTeamSize     = MaxExtraMembers + 1
)

type Totals struct {
	TotalMembers int `json:"total_members"`
	TotalFee     int `json:"total_fee"`
}

// ComputeTotals prices a team with memberCount members besides the leader.
// Callers clamp memberCount with ClampMemberCount first.
func ComputeTotals(memberCount int) Totals {
	total := memberCount + 1
	return Totals{TotalMembers: total, TotalFee: total * FeePerMember}
}

func ClampMemberCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxExtraMembers {
		return MaxExtraMembers
	}
	return n
}
