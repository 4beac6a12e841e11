package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

// fakeSheets serves the two Values endpoints the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	rows    [][]interface{}
	failGet bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		if f.failGet {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": 500, "message": "backend error"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Teams!A1:Z", "values": f.rows})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := NewWithOptions(context.Background(), "sheet-1",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func TestEnsureHeadersAndInsert(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)
	ctx := context.Background()

	require.NoError(t, c.EnsureHeaders(ctx))
	require.NoError(t, c.EnsureHeaders(ctx))
	require.Len(t, f.rows, 1)

	id, err := c.Insert(ctx, models.Registration{
		TeamName:         "Code Warriors",
		CollegeName:      "Tech College",
		LeaderName:       "Alice",
		LeaderEmail:      "alice@test.com",
		LeaderPhone:      "9876543210",
		LeaderRollNo:     "CS001",
		Members:          []models.Member{{Name: "Bob", Email: "bob@test.com", RollNo: "CS002"}},
		TotalMembers:     2,
		TotalFee:         150,
		UPITransactionID: "412345678901",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	teams, err := c.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, id, teams[0].ID)
	assert.Equal(t, 150, teams[0].TotalFee)
	assert.Equal(t, models.PaymentPending, teams[0].PaymentStatus)
	assert.False(t, teams[0].IsPresent)
	require.Len(t, teams[0].Members, 1)
	assert.Equal(t, "CS002", teams[0].Members[0].RollNo)
}

func TestIsTeamNameTaken(t *testing.T) {
	f := &fakeSheets{rows: [][]interface{}{
		TeamsHeader,
		{"id-1", "Existing Team", "College"},
	}}
	c := newTestClient(t, f)

	taken, err := c.IsTeamNameTaken(context.Background(), "existing TEAM")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = c.IsTeamNameTaken(context.Background(), "team_name")
	require.NoError(t, err)
	assert.False(t, taken, "header row must not count as a team")
}

func TestIsTeamNameTakenFailure(t *testing.T) {
	c := newTestClient(t, &fakeSheets{failGet: true})

	_, err := c.IsTeamNameTaken(context.Background(), "x")
	var se *store.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "query", se.Op)
}

func TestListTeamsPaymentStatus(t *testing.T) {
	f := &fakeSheets{rows: [][]interface{}{
		TeamsHeader,
		{"id-1", "Alpha", "", "", "", "", "", "", "2", "150", "TXN1", " Verified "},
		{"id-2", "Beta", "", "", "", "", "", "", "2", "150", "TXN2", ""},
	}}
	c := newTestClient(t, f)

	teams, err := c.ListTeams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, models.PaymentVerified, teams[0].PaymentStatus)
	assert.Equal(t, models.PaymentPending, teams[1].PaymentStatus)

	f.rows = append(f.rows, []interface{}{"id-3", "Gamma", "", "", "", "", "", "", "2", "150", "TXN3", "paid"})
	_, err = c.ListTeams(context.Background())
	require.EqualError(t, err, `row 4: payment_status: unknown value "paid"`)
}
