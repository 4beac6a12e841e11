package postgrest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/rest/v1/", "anon-key", "teams", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestIsTeamNameTaken(t *testing.T) {
	var gotFilter, gotKey string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/teams", r.URL.Path)
		gotFilter = r.URL.Query().Get("team_name")
		gotKey = r.Header.Get("apikey")
		_, _ = io.WriteString(w, `[{"team_name":"existing team"}]`)
	})

	taken, err := c.IsTeamNameTaken(context.Background(), " Existing Team ")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.Equal(t, "ilike.Existing Team", gotFilter)
	assert.Equal(t, "anon-key", gotKey)
}

func TestIsTeamNameTakenComparesExactly(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `ilike.100\% Team`, r.URL.Query().Get("team_name"))
		_, _ = io.WriteString(w, `[{"team_name":"100% Teamwork"}]`)
	})

	taken, err := c.IsTeamNameTaken(context.Background(), "100% Team")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestIsTeamNameTakenWithAsterisk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `ilike.Star*Team`, r.URL.Query().Get("team_name"))
		_, _ = io.WriteString(w, `[{"team_name":"StarXTeam"},{"team_name":"star*team"}]`)
	})

	taken, err := c.IsTeamNameTaken(context.Background(), "Star*Team")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestIsTeamNameTakenFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"message":"upstream unavailable"}`)
	})

	_, err := c.IsTeamNameTaken(context.Background(), "x")
	var se *store.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "upstream unavailable", err.Error())
}

func TestInsert(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"5f0c6c1e-8a8e-4c55-9d7e-111111111111","team_name":"Code Warriors"}`)
	})

	id, err := c.Insert(context.Background(), models.Registration{
		ID:               "ignored",
		TeamName:         "Code Warriors",
		Members:          []models.Member{{Name: "Bob", Email: "bob@test.com", RollNo: "CS002"}},
		TotalMembers:     2,
		TotalFee:         150,
		UPITransactionID: "412345678901",
	})
	require.NoError(t, err)
	assert.Equal(t, "5f0c6c1e-8a8e-4c55-9d7e-111111111111", id)

	assert.NotContains(t, body, "id")
	assert.Equal(t, "pending", body["payment_status"])
	assert.Equal(t, float64(150), body["total_fee"])
	members, ok := body["team_members"].([]any)
	require.True(t, ok)
	assert.Len(t, members, 1)
}

func TestInsertNumericID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":42}`)
	})

	id, err := c.Insert(context.Background(), models.Registration{TeamName: "t"})
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestInsertErrors(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
		})
		_, err := c.Insert(context.Background(), models.Registration{TeamName: "t"})
		assert.ErrorIs(t, err, store.ErrTeamNameTaken)
	})

	t.Run("message surfaces verbatim", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"code":"PGRST204","message":"Could not find the 'team_members' column of 'teams'"}`)
		})
		_, err := c.Insert(context.Background(), models.Registration{TeamName: "t"})
		var se *store.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "Could not find the 'team_members' column of 'teams'", err.Error())
	})
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New("  ", "k", "")
	assert.Error(t, err)
}
