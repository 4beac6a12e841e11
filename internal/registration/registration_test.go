package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devthon-registration/internal/models"
)

func readyForm() Form {
	return Form{
		TeamName:     "Code Warriors",
		CollegeName:  "Tech College",
		LeaderName:   "Alice",
		LeaderEmail:  "alice@test.com",
		LeaderPhone:  "9876543210",
		LeaderRollNo: "CS001",
		Members: []models.Member{
			{Name: "Bob", Email: "bob@test.com", RollNo: "CS002"},
		},
	}
}

func TestComputeTotals(t *testing.T) {
	cases := []struct {
		members int
		total   int
		fee     int
	}{
		{0, 1, 75},
		{1, 2, 150},
		{2, 3, 225},
		{3, 4, 300},
	}
	for _, tc := range cases {
		got := ComputeTotals(tc.members)
		assert.Equal(t, tc.total, got.TotalMembers, "members=%d", tc.members)
		assert.Equal(t, tc.fee, got.TotalFee, "members=%d", tc.members)
		assert.Equal(t, got.TotalMembers*FeePerMember, got.TotalFee)
	}
}

func TestClampMemberCount(t *testing.T) {
	assert.Equal(t, 0, ClampMemberCount(-2))
	assert.Equal(t, 2, ClampMemberCount(2))
	assert.Equal(t, 3, ClampMemberCount(9))
}

func TestAddMember(t *testing.T) {
	var members []models.Member
	var err error
	for i := 0; i < MaxExtraMembers; i++ {
		members, err = AddMember(members)
		require.NoError(t, err)
	}
	require.Len(t, members, 3)

	after, err := AddMember(members)
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Limit)
	assert.Len(t, after, 3)
	assert.Contains(t, err.Error(), "maximum 4 members")
}

func TestAddMemberDoesNotAlias(t *testing.T) {
	base := make([]models.Member, 1, 3)
	next, err := AddMember(base)
	require.NoError(t, err)
	next[0].Name = "changed"
	assert.Empty(t, base[0].Name)
}

func TestRemoveMember(t *testing.T) {
	members := []models.Member{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	out := RemoveMember(members, 1)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Name)
	assert.Equal(t, "c", out[1].Name)
	assert.Len(t, members, 3)

	assert.Len(t, RemoveMember(members, 5), 3)
	assert.Len(t, RemoveMember(members, -1), 3)
}

func TestUpdateMember(t *testing.T) {
	members := []models.Member{{}, {}}

	out := UpdateMember(members, 1, FieldRollNo, "CS9")
	assert.Equal(t, "CS9", out[1].RollNo)
	assert.Empty(t, members[1].RollNo)

	out = UpdateMember(out, 0, FieldEmail, "x@y.z")
	assert.Equal(t, "x@y.z", out[0].Email)

	assert.Equal(t, members, UpdateMember(members, 4, FieldName, "nobody"))
	assert.Equal(t, members, UpdateMember(members, 0, MemberField("phone"), "1"))
}

func TestValidateForSubmission(t *testing.T) {
	t.Run("ready form passes", func(t *testing.T) {
		require.NoError(t, ValidateForSubmission(readyForm()))
	})

	t.Run("leader only is below minimum", func(t *testing.T) {
		f := readyForm()
		f.Members = nil
		err := ValidateForSubmission(f)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "team_members", ve.Field)
		assert.Contains(t, ve.Message, "minimum 2 members")
	})

	t.Run("malformed email", func(t *testing.T) {
		f := readyForm()
		f.LeaderEmail = "alice.test.com"
		var ve *ValidationError
		require.ErrorAs(t, ValidateForSubmission(f), &ve)
		assert.Equal(t, "leader_email", ve.Field)
	})

	t.Run("presence is reported before email shape", func(t *testing.T) {
		f := readyForm()
		f.LeaderEmail = "broken"
		f.LeaderPhone = "  "
		var ve *ValidationError
		require.ErrorAs(t, ValidateForSubmission(f), &ve)
		assert.Equal(t, "leader_phone", ve.Field)
	})

	t.Run("first missing field wins", func(t *testing.T) {
		f := readyForm()
		f.CollegeName = ""
		f.LeaderName = ""
		var ve *ValidationError
		require.ErrorAs(t, ValidateForSubmission(f), &ve)
		assert.Equal(t, "college_name", ve.Field)
	})

	t.Run("member details required", func(t *testing.T) {
		f := readyForm()
		f.Members = append(f.Members, models.Member{Name: "Carol", Email: "carol@test.com"})
		var ve *ValidationError
		require.ErrorAs(t, ValidateForSubmission(f), &ve)
		assert.Equal(t, "team_members[1].roll_no", ve.Field)
	})

	t.Run("more than three members", func(t *testing.T) {
		f := readyForm()
		for i := 0; i < 3; i++ {
			f.Members = append(f.Members, models.Member{Name: "m", Email: "m@test.com", RollNo: "r"})
		}
		var ve *ValidationError
		require.ErrorAs(t, ValidateForSubmission(f), &ve)
		assert.Contains(t, ve.Message, "maximum 4 members")
	})
}

func TestValidatePaymentReference(t *testing.T) {
	require.NoError(t, ValidatePaymentReference("412345678901"))

	err := ValidatePaymentReference("   ")
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "upi_transaction_id", ve.Field)
}

func TestReadinessAcrossMemberChanges(t *testing.T) {
	f := readyForm()
	f.Members = nil
	require.Error(t, ValidateForSubmission(f))
	assert.Equal(t, 75, f.Totals().TotalFee)

	members, err := AddMember(f.Members)
	require.NoError(t, err)
	members = UpdateMember(members, 0, FieldName, "Bob")
	members = UpdateMember(members, 0, FieldEmail, "bob@test.com")
	members = UpdateMember(members, 0, FieldRollNo, "CS002")
	f.Members = members

	require.NoError(t, ValidateForSubmission(f))
	assert.Equal(t, 150, f.Totals().TotalFee)
}

func TestFormRegistration(t *testing.T) {
	f := readyForm()
	f.TransactionID = " 412345678901 "
	f.TeamName = "  Code Warriors "

	reg := f.Normalized().Registration()
	assert.Equal(t, "Code Warriors", reg.TeamName)
	assert.Equal(t, "412345678901", reg.UPITransactionID)
	assert.Equal(t, 2, reg.TotalMembers)
	assert.Equal(t, 150, reg.TotalFee)
	assert.Equal(t, models.PaymentPending, reg.PaymentStatus)
	assert.False(t, reg.IsPresent)
	assert.Empty(t, reg.ID)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("john@test.com"))
	assert.True(t, IsEmail(" john@test.com "))
	assert.False(t, IsEmail("john"))
	assert.False(t, IsEmail("john@"))
	assert.False(t, IsEmail(""))
}
