package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"devthon-registration/internal/models"
	"devthon-registration/internal/store"
)

const uniqueViolation = "23505"

// Repository implements store.Gateway on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ store.Gateway = (*Repository)(nil)

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (r *Repository) IsTeamNameTaken(ctx context.Context, name string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM teams WHERE lower(btrim(team_name)) = lower(btrim($1))
	)`
	var taken bool
	if err := r.pool.QueryRow(ctx, query, name).Scan(&taken); err != nil {
		return false, store.Wrap("query", err)
	}
	return taken, nil
}

func (r *Repository) Insert(ctx context.Context, reg models.Registration) (string, error) {
	const query = `INSERT INTO teams (
			team_name, college_name, leader_name, leader_email, leader_phone, leader_roll_no,
			team_members, total_members, total_fee, upi_transaction_id, payment_status, is_present
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id::text`

	members := reg.Members
	if members == nil {
		members = []models.Member{}
	}
	raw, err := json.Marshal(members)
	if err != nil {
		return "", store.Wrap("insert", err)
	}

	var id string
	err = r.pool.QueryRow(ctx, query,
		reg.TeamName, reg.CollegeName, reg.LeaderName, reg.LeaderEmail, reg.LeaderPhone, reg.LeaderRollNo,
		raw, reg.TotalMembers, reg.TotalFee, reg.UPITransactionID, string(models.PaymentPending), false,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", store.Wrap("insert", store.ErrTeamNameTaken)
		}
		return "", store.Wrap("insert", err)
	}
	return id, nil
}

// Get fetches a registration by id. It returns pgx.ErrNoRows when missing.
func (r *Repository) Get(ctx context.Context, id string) (*models.Registration, error) {
	const query = `SELECT id::text, team_name, college_name, leader_name, leader_email, leader_phone,
			leader_roll_no, team_members, total_members, total_fee, upi_transaction_id,
			payment_status, is_present, created_at
		FROM teams WHERE id = $1`

	var (
		reg    models.Registration
		raw    []byte
		status string
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&reg.ID, &reg.TeamName, &reg.CollegeName, &reg.LeaderName, &reg.LeaderEmail, &reg.LeaderPhone,
		&reg.LeaderRollNo, &raw, &reg.TotalMembers, &reg.TotalFee, &reg.UPITransactionID,
		&status, &reg.IsPresent, &reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, store.Wrap("get", err)
	}
	if err := json.Unmarshal(raw, &reg.Members); err != nil {
		return nil, store.Wrap("get", fmt.Errorf("decode team_members: %w", err))
	}
	reg.PaymentStatus = models.PaymentStatus(status)
	return &reg, nil
}
