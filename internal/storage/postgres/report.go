package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/battle/internal/game/combat"
)

// ErrReportNotFound is returned when a report lookup yields no results.
var ErrReportNotFound = errors.New("encounter report not found")

// ErrReportExists is returned when saving a report whose ID is already stored.
var ErrReportExists = errors.New("encounter report already exists")

// ReportRepository persists encounter reports.
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a ReportRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id::text, outcome, rounds, party, hostiles, survivors, defeated, failure, started_at, ended_at`

// Save inserts r.
//
// Precondition: r.ID must be non-zero.
// Postcondition: the report is stored, or ErrReportExists is returned when
// r.ID was already saved.
func (r *ReportRepository) Save(ctx context.Context, rep combat.Report) error {
	if rep.ID == uuid.Nil {
		return fmt.Errorf("saving report: id must not be nil")
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO encounter_reports
		   (id, outcome, rounds, party, hostiles, survivors, defeated, failure, started_at, ended_at)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rep.ID.String(), rep.Outcome.String(), rep.Rounds,
		nonNil(rep.Party), nonNil(rep.Hostiles), nonNil(rep.Survivors), nonNil(rep.Defeated),
		rep.Failure, rep.StartedAt, rep.EndedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrReportExists
		}
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

// Get retrieves the report with id.
//
// Postcondition: Returns the Report or ErrReportNotFound.
func (r *ReportRepository) Get(ctx context.Context, id uuid.UUID) (combat.Report, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM encounter_reports WHERE id = $1::uuid`,
		id.String(),
	)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.Report{}, ErrReportNotFound
		}
		return combat.Report{}, fmt.Errorf("querying report: %w", err)
	}
	return rep, nil
}

// Recent returns up to limit reports, most recently ended first.
//
// Precondition: limit > 0.
func (r *ReportRepository) Recent(ctx context.Context, limit int) ([]combat.Report, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+reportColumns+` FROM encounter_reports ORDER BY ended_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent reports: %w", err)
	}
	defer rows.Close()

	var out []combat.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning report: %w", err)
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports: %w", err)
	}
	return out, nil
}

// OutcomeCounts returns how many stored encounters ended in each outcome.
func (r *ReportRepository) OutcomeCounts(ctx context.Context) (map[combat.Outcome]int, error) {
	rows, err := r.db.Query(ctx, `SELECT outcome, COUNT(*) FROM encounter_reports GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[combat.Outcome]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning outcome count: %w", err)
		}
		o, err := combat.ParseOutcome(name)
		if err != nil {
			return nil, err
		}
		counts[o] = n
	}
	return counts, rows.Err()
}

func scanReport(row pgx.Row) (combat.Report, error) {
	var (
		rep     combat.Report
		id      string
		outcome string
	)
	err := row.Scan(&id, &outcome, &rep.Rounds, &rep.Party, &rep.Hostiles, &rep.Survivors, &rep.Defeated, &rep.Failure, &rep.StartedAt, &rep.EndedAt)
	if err != nil {
		return combat.Report{}, err
	}
	if rep.ID, err = uuid.Parse(id); err != nil {
		return combat.Report{}, fmt.Errorf("parsing report id: %w", err)
	}
	if rep.Outcome, err = combat.ParseOutcome(outcome); err != nil {
		return combat.Report{}, err
	}
	rep.StartedAt = rep.StartedAt.UTC()
	rep.EndedAt = rep.EndedAt.UTC()
	return rep, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
