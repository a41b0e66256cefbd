package state

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/types"
)

// DBConfig holds the connection parameters for the audit database.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Store persists cycle reports to PostgreSQL. Persistence is an audit trail
// only; the engine runs fine without it.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to the database and verifies the connection.
func Open(cfg DBConfig) (*Store, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	log := logger.GetForComponent("state")
	log.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("Database connection established.")
	return &Store{db: db, log: log}, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the cycle_reports table if it does not exist.
func (s *Store) EnsureSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS cycle_reports (
		id               BIGSERIAL PRIMARY KEY,
		cycle_id         TEXT NOT NULL,
		collateral_group TEXT NOT NULL,
		core_address     TEXT NOT NULL,
		height           BIGINT NOT NULL,
		known_borrowers  INT NOT NULL,
		active_borrowers INT NOT NULL,
		candidates       INT NOT NULL,
		liquidated       INT NOT NULL,
		balance_delta    TEXT,
		error            TEXT,
		duration_ms      BIGINT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cycle_reports_created_at ON cycle_reports (created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to ensure cycle_reports schema: %w", err)
	}
	s.log.Debug().Msg("Database schema verified.")
	return nil
}

// SaveCycleReport inserts one completed cycle's record and returns its row id.
func (s *Store) SaveCycleReport(report types.CycleReport) (int64, error) {
	const query = `
	INSERT INTO cycle_reports (
		cycle_id, collateral_group, core_address, height,
		known_borrowers, active_borrowers, candidates, liquidated,
		balance_delta, error, duration_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`

	var id int64
	err := s.db.QueryRow(query,
		report.CycleID,
		report.CollateralGroup,
		report.Core,
		report.Height,
		report.KnownBorrowers,
		report.ActiveBorrowers,
		report.Candidates,
		report.Liquidated,
		nullable(report.BalanceDelta),
		nullable(report.Error),
		report.DurationMs,
		report.Timestamp,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save cycle report: %w", err)
	}
	return id, nil
}

// RecentCycles returns the latest cycle reports, newest first.
func (s *Store) RecentCycles(limit int) ([]types.CycleReport, error) {
	const query = `
	SELECT cycle_id, collateral_group, core_address, height,
	       known_borrowers, active_borrowers, candidates, liquidated,
	       COALESCE(balance_delta, ''), COALESCE(error, ''), duration_ms, created_at
	FROM cycle_reports
	ORDER BY created_at DESC
	LIMIT $1`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle reports: %w", err)
	}
	defer rows.Close()

	var reports []types.CycleReport
	for rows.Next() {
		var r types.CycleReport
		if err := rows.Scan(
			&r.CycleID, &r.CollateralGroup, &r.Core, &r.Height,
			&r.KnownBorrowers, &r.ActiveBorrowers, &r.Candidates, &r.Liquidated,
			&r.BalanceDelta, &r.Error, &r.DurationMs, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cycle report row: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
