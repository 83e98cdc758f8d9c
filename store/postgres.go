package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lexconnect/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned for lookups of cases or recommendations that
// do not exist.
var ErrNotFound = errors.New("not found")

type DBStorer interface {
	SaveCase(ctx context.Context, c *types.Case) error
	GetCaseByID(ctx context.Context, id int64) (*types.Case, error)
	ListCasesByClient(ctx context.Context, clientID int64) ([]types.Case, error)

	ListAvailableLawyers(ctx context.Context) ([]types.LawyerProfile, error)
	SaveRecommendation(ctx context.Context, rec *types.Recommendation) error
	GetRecommendationByID(ctx context.Context, id int64) (*types.Recommendation, error)
	ListRecommendationsByCase(ctx context.Context, caseID int64) ([]types.Recommendation, error)
	ListRecommendationsByLawyer(ctx context.Context, lawyerID int64, status types.RecStatus) ([]types.Recommendation, error)
	SetRecommendationStatus(ctx context.Context, id int64, status types.RecStatus) error
	GetLawyerByID(ctx context.Context, id int64) (*types.LawyerProfile, error)

	SaveActiveCase(ctx context.Context, ac *types.ActiveCase) error
	ListActiveCasesByLawyer(ctx context.Context, lawyerID int64) ([]types.ActiveCase, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS lawyer_profiles (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		specialization TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		experience_years INT NOT NULL DEFAULT 0,
		rating INT NOT NULL DEFAULT 0,
		is_available BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS cases (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL DEFAULT 0,
		issue_type TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_cases_client ON cases(client_id);

	CREATE TABLE IF NOT EXISTS lawyer_recommendations (
		id BIGSERIAL PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES cases(id),
		lawyer_id BIGINT NOT NULL REFERENCES lawyer_profiles(id),
		score INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'suggested',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_recs_case ON lawyer_recommendations(case_id);
	CREATE INDEX IF NOT EXISTS idx_recs_lawyer ON lawyer_recommendations(lawyer_id, status);

	CREATE TABLE IF NOT EXISTS active_cases (
		id BIGSERIAL PRIMARY KEY,
		case_id BIGINT NOT NULL REFERENCES cases(id),
		lawyer_id BIGINT NOT NULL REFERENCES lawyer_profiles(id),
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
	);
	`
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) SaveCase(ctx context.Context, c *types.Case) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO cases (client_id, issue_type, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, c.ClientID, c.IssueType, c.Description, c.Status).Scan(&c.ID, &c.CreatedAt)
}

func (p *PostgresStore) GetCaseByID(ctx context.Context, id int64) (*types.Case, error) {
	c := &types.Case{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, client_id, issue_type, description, status, created_at
		FROM cases WHERE id = $1
	`, id).Scan(&c.ID, &c.ClientID, &c.IssueType, &c.Description, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("case %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *PostgresStore) ListCasesByClient(ctx context.Context, clientID int64) ([]types.Case, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, client_id, issue_type, description, status, created_at
		FROM cases WHERE client_id = $1 ORDER BY id
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []types.Case
	for rows.Next() {
		var c types.Case
		if err := rows.Scan(&c.ID, &c.ClientID, &c.IssueType, &c.Description, &c.Status, &c.CreatedAt); err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func (p *PostgresStore) ListAvailableLawyers(ctx context.Context) ([]types.LawyerProfile, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, specialization, city, experience_years, rating, is_available
		FROM lawyer_profiles WHERE is_available ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLawyers(rows)
}

func (p *PostgresStore) GetLawyerByID(ctx context.Context, id int64) (*types.LawyerProfile, error) {
	l := &types.LawyerProfile{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, name, specialization, city, experience_years, rating, is_available
		FROM lawyer_profiles WHERE id = $1
	`, id).Scan(&l.ID, &l.Name, &l.Specialization, &l.City, &l.ExperienceYears, &l.Rating, &l.IsAvailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lawyer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func scanLawyers(rows pgx.Rows) ([]types.LawyerProfile, error) {
	var lawyers []types.LawyerProfile
	for rows.Next() {
		var l types.LawyerProfile
		if err := rows.Scan(&l.ID, &l.Name, &l.Specialization, &l.City, &l.ExperienceYears, &l.Rating, &l.IsAvailable); err != nil {
			return nil, err
		}
		lawyers = append(lawyers, l)
	}
	return lawyers, rows.Err()
}

func (p *PostgresStore) SaveRecommendation(ctx context.Context, rec *types.Recommendation) error {
	return p.pool.QueryRow(ctx, `
		INSERT INTO lawyer_recommendations (case_id, lawyer_id, score, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rec.CaseID, rec.LawyerID, rec.Score, rec.Status).Scan(&rec.ID, &rec.CreatedAt)
}

func (p *PostgresStore) GetRecommendationByID(ctx context.Context, id int64) (*types.Recommendation, error) {
	rec := &types.Recommendation{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, case_id, lawyer_id, score, status, created_at
		FROM lawyer_recommendations WHERE id = $1
	`, id).Scan(&rec.ID, &rec.CaseID, &rec.LawyerID, &rec.Score, &rec.Status, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("recommendation %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *PostgresStore) ListRecommendationsByCase(ctx context.Context, caseID int64) ([]types.Recommendation, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, case_id, lawyer_id, score, status, created_at
		FROM lawyer_recommendations WHERE case_id = $1 ORDER BY score DESC
	`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

func (p *PostgresStore) ListRecommendationsByLawyer(ctx context.Context, lawyerID int64, status types.RecStatus) ([]types.Recommendation, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, case_id, lawyer_id, score, status, created_at
		FROM lawyer_recommendations WHERE lawyer_id = $1 AND status = $2 ORDER BY id
	`, lawyerID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecommendations(rows)
}

func scanRecommendations(rows pgx.Rows) ([]types.Recommendation, error) {
	var recs []types.Recommendation
	for rows.Next() {
		var rec types.Recommendation
		if err := rows.Scan(&rec.ID, &rec.CaseID, &rec.LawyerID, &rec.Score, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (p *PostgresStore) SetRecommendationStatus(ctx context.Context, id int64, status types.RecStatus) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE lawyer_recommendations SET status = $2 WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("recommendation %d: %w", id, ErrNotFound)
	}
	return nil
}

func (p *PostgresStore) SaveActiveCase(ctx context.Context, ac *types.ActiveCase) error {
	if ac.Status == "" {
		ac.Status = "active"
	}
	return p.pool.QueryRow(ctx, `
		INSERT INTO active_cases (case_id, lawyer_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, ac.CaseID, ac.LawyerID, ac.Status).Scan(&ac.ID, &ac.CreatedAt)
}

func (p *PostgresStore) ListActiveCasesByLawyer(ctx context.Context, lawyerID int64) ([]types.ActiveCase, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, case_id, lawyer_id, status, created_at
		FROM active_cases WHERE lawyer_id = $1 AND status = 'active' ORDER BY id
	`, lawyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []types.ActiveCase
	for rows.Next() {
		var ac types.ActiveCase
		if err := rows.Scan(&ac.ID, &ac.CaseID, &ac.LawyerID, &ac.Status, &ac.CreatedAt); err != nil {
			return nil, err
		}
		cases = append(cases, ac)
	}
	return cases, rows.Err()
}

// SeedLawyers inserts the demo lawyer pool on an empty table.
func (p *PostgresStore) SeedLawyers(ctx context.Context) error {
	var count int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM lawyer_profiles").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		log.Printf("[SEED] lawyer_profiles already has %d rows, skipping", count)
		return nil
	}

	lawyers := []types.LawyerProfile{
		{Name: "Rajesh Kumar", Specialization: "property law, real estate", City: "Gurgaon", ExperienceYears: 12, Rating: 4},
		{Name: "Priya Sharma", Specialization: "family law, divorce", City: "Faridabad", ExperienceYears: 8, Rating: 5},
		{Name: "Amit Singh", Specialization: "contract law, construction", City: "Panipat", ExperienceYears: 10, Rating: 4},
		{Name: "Neha Gupta", Specialization: "property disputes", City: "Hisar", ExperienceYears: 6, Rating: 4},
		{Name: "Vikram Yadav", Specialization: "matrimonial law", City: "Rohtak", ExperienceYears: 15, Rating: 5},
		{Name: "Anita Rao", Specialization: "commercial contracts", City: "Sonipat", ExperienceYears: 7, Rating: 3},
		{Name: "Suresh Patel", Specialization: "land law", City: "Jhajjar", ExperienceYears: 9, Rating: 4},
		{Name: "Meera Joshi", Specialization: "family custody", City: "Bhiwani", ExperienceYears: 11, Rating: 5},
	}
	for _, l := range lawyers {
		_, err := p.pool.Exec(ctx, `
			INSERT INTO lawyer_profiles (name, specialization, city, experience_years, rating, is_available)
			VALUES ($1, $2, $3, $4, $5, TRUE)
		`, l.Name, l.Specialization, l.City, l.ExperienceYears, l.Rating)
		if err != nil {
			return fmt.Errorf("seed lawyer %s: %w", l.Name, err)
		}
	}
	log.Printf("[SEED] Seeded %d lawyers", len(lawyers))
	return nil
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
