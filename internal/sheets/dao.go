package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
	"devthon-registration/internal/util"
)

const SheetTeams = "Teams"

// Column order of the Teams sheet. Row 1 holds these headers.
var TeamsHeader = []interface{}{
	"id", "team_name", "college_name", "leader_name", "leader_email", "leader_phone",
	"leader_roll_no", "team_members", "total_members", "total_fee", "upi_transaction_id",
	"payment_status", "is_present", "created_at",
}

var _ store.Gateway = (*Client)(nil)

func (c *Client) readAll(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:Z").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:Z", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// ---------- Teams ----------

func (c *Client) IsTeamNameTaken(ctx context.Context, name string) (bool, error) {
	values, err := c.readAll(ctx, SheetTeams)
	if err != nil {
		return false, store.Wrap("query", err)
	}
	want := store.NameKey(name)
	// header row at index 0
	for i := 1; i < len(values); i++ {
		if store.NameKey(get(values[i], 1)) == want {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) Insert(ctx context.Context, reg models.Registration) (string, error) {
	members := reg.Members
	if members == nil {
		members = []models.Member{}
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return "", store.Wrap("insert", err)
	}
	id := uuid.NewString()
	row := []interface{}{
		id, reg.TeamName, reg.CollegeName, reg.LeaderName, reg.LeaderEmail, reg.LeaderPhone,
		reg.LeaderRollNo, string(raw), reg.TotalMembers, reg.TotalFee, reg.UPITransactionID,
		string(models.PaymentPending), false, util.NowISO(),
	}
	if err := c.appendRow(ctx, SheetTeams, row); err != nil {
		return "", store.Wrap("insert", err)
	}
	return id, nil
}

// ListTeams reads every registration row. Rows without a team name are skipped.
func (c *Client) ListTeams(ctx context.Context) ([]models.Registration, error) {
	values, err := c.readAll(ctx, SheetTeams)
	if err != nil {
		return nil, err
	}
	regs := []models.Registration{}
	for i := 1; i < len(values); i++ {
		row := values[i]
		if strings.TrimSpace(get(row, 1)) == "" {
			continue
		}
		reg, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func parseRow(row []interface{}) (models.Registration, error) {
	reg := models.Registration{
		ID:               get(row, 0),
		TeamName:         get(row, 1),
		CollegeName:      get(row, 2),
		LeaderName:       get(row, 3),
		LeaderEmail:      get(row, 4),
		LeaderPhone:      get(row, 5),
		LeaderRollNo:     get(row, 6),
		UPITransactionID: get(row, 10),
		IsPresent:        util.NormalizeBool(get(row, 12)),
	}
	// organizers edit the status column by hand when verifying payments
	status := models.PaymentStatus(strings.ToLower(strings.TrimSpace(get(row, 11))))
	if status == "" {
		status = models.PaymentPending
	}
	if !status.Valid() {
		return reg, fmt.Errorf("payment_status: unknown value %q", get(row, 11))
	}
	reg.PaymentStatus = status

	if raw := strings.TrimSpace(get(row, 7)); raw != "" {
		if err := json.Unmarshal([]byte(raw), &reg.Members); err != nil {
			return reg, fmt.Errorf("team_members: %w", err)
		}
	}
	reg.TotalMembers, _ = strconv.Atoi(strings.TrimSpace(get(row, 8)))
	reg.TotalFee, _ = strconv.Atoi(strings.TrimSpace(get(row, 9)))
	if t, err := time.Parse(time.RFC3339, get(row, 13)); err == nil {
		reg.CreatedAt = t
	}
	return reg, nil
}

// ---------- helpers ----------

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}

// EnsureHeaders writes the header row when the sheet is empty.
func (c *Client) EnsureHeaders(ctx context.Context) error {
	values, err := c.readAll(ctx, SheetTeams)
	if err != nil {
		return err
	}
	if len(values) > 0 {
		return nil
	}
	return c.appendRow(ctx, SheetTeams, TeamsHeader)
}
