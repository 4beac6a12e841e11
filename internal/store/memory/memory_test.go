package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func newRegistration(name string) models.Registration {
	return models.Registration{
		TeamName:         name,
		CollegeName:      "Test College",
		LeaderName:       "John Doe",
		LeaderEmail:      "john@example.com",
		LeaderPhone:      "1234567890",
		LeaderRollNo:     "CS001",
		Members:          []models.Member{{Name: "Jane", Email: "jane@example.com", RollNo: "CS002"}},
		TotalMembers:     2,
		TotalFee:         150,
		UPITransactionID: "412345678901",
		PaymentStatus:    models.PaymentPending,
	}
}

func (s *MemoryStoreSuite) TestInsertAndLookup() {
	id, err := s.store.Insert(s.ctx, newRegistration("Existing Team"))
	s.Require().NoError(err)
	s.NotEmpty(id)

	got, ok := s.store.Get(id)
	s.Require().True(ok)
	s.Equal(150, got.TotalFee)
	s.Equal(models.PaymentPending, got.PaymentStatus)
	s.False(got.CreatedAt.IsZero())
}

func (s *MemoryStoreSuite) TestNameCheckIsCaseInsensitive() {
	_, err := s.store.Insert(s.ctx, newRegistration("Existing Team"))
	s.Require().NoError(err)

	for _, name := range []string{"Existing Team", "existing team", " EXISTING TEAM "} {
		taken, err := s.store.IsTeamNameTaken(s.ctx, name)
		s.Require().NoError(err)
		s.True(taken, name)
	}

	taken, err := s.store.IsTeamNameTaken(s.ctx, "Fresh Team")
	s.Require().NoError(err)
	s.False(taken)
}

func (s *MemoryStoreSuite) TestDuplicateInsertRejected() {
	_, err := s.store.Insert(s.ctx, newRegistration("Dup"))
	s.Require().NoError(err)

	_, err = s.store.Insert(s.ctx, newRegistration("DUP"))
	s.Require().ErrorIs(err, store.ErrTeamNameTaken)
	var se *store.StoreError
	s.ErrorAs(err, &se)
	s.Equal(1, s.store.Len())
}

func (s *MemoryStoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.store.IsTeamNameTaken(ctx, "x")
	s.Require().Error(err)
	_, err = s.store.Insert(ctx, newRegistration("x"))
	s.Require().Error(err)
	s.Equal(0, s.store.Len())
}
