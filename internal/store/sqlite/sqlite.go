// Package sqlite is a single-node registration store on an embedded SQLite
// file. Team names are compared on a folded key column with a unique
// constraint, so duplicates are rejected even if two checks race.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Gateway = (*Store)(nil)

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) IsTeamNameTaken(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teams WHERE team_name_key = ?)`
	var taken bool
	if err := s.db.QueryRowContext(ctx, query, store.NameKey(name)).Scan(&taken); err != nil {
		return false, store.Wrap("query", err)
	}
	return taken, nil
}

func (s *Store) Insert(ctx context.Context, reg models.Registration) (string, error) {
	const query = `INSERT INTO teams (
			id, team_name, team_name_key, college_name, leader_name, leader_email, leader_phone,
			leader_roll_no, team_members, total_members, total_fee, upi_transaction_id,
			payment_status, is_present, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`

	members := reg.Members
	if members == nil {
		members = []models.Member{}
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return "", store.Wrap("insert", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, query,
		id, reg.TeamName, store.NameKey(reg.TeamName), reg.CollegeName, reg.LeaderName,
		reg.LeaderEmail, reg.LeaderPhone, reg.LeaderRollNo, string(raw), reg.TotalMembers,
		reg.TotalFee, reg.UPITransactionID, string(models.PaymentPending),
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", store.Wrap("insert", store.ErrTeamNameTaken)
		}
		return "", store.Wrap("insert", err)
	}
	return id, nil
}

// Get returns the registration with id, or sql.ErrNoRows.
func (s *Store) Get(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id, team_name, college_name, leader_name, leader_email, leader_phone,
			leader_roll_no, team_members, total_members, total_fee, upi_transaction_id,
			payment_status, is_present, created_at
		FROM teams WHERE id = ?`

	var (
		reg       models.Registration
		raw       string
		status    string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID, &reg.TeamName, &reg.CollegeName, &reg.LeaderName, &reg.LeaderEmail,
		&reg.LeaderPhone, &reg.LeaderRollNo, &raw, &reg.TotalMembers, &reg.TotalFee,
		&reg.UPITransactionID, &status, &reg.IsPresent, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, store.Wrap("get", err)
	}
	if err := json.Unmarshal([]byte(raw), &reg.Members); err != nil {
		return nil, store.Wrap("get", fmt.Errorf("decode team_members: %w", err))
	}
	reg.PaymentStatus = models.PaymentStatus(status)
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		reg.CreatedAt = t
	}
	return &reg, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
