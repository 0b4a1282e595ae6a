package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lkmbench/lkmbench/core"
)

// Store persists training sessions and their per-iteration records in
// SQLite for later reporting.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		test_type TEXT NOT NULL,
		iterations INTEGER NOT NULL,
		improvement REAL NOT NULL,
		first_successful_compilation INTEGER,
		best_iteration INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS iterations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id),
		iteration INTEGER NOT NULL,
		overall_score REAL NOT NULL,
		compilation_success INTEGER NOT NULL,
		code_file TEXT NOT NULL,
		result_file TEXT NOT NULL,
		feedback_file TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_model ON sessions(model);
	CREATE INDEX IF NOT EXISTS idx_iterations_session ON iterations(session_id);
	`
	_, err := s.db.Exec(query)
	return err
}

// SaveSession writes a completed session and its iterations atomically and
// returns the session id.
func (s *Store) SaveSession(summary core.TrainingSummary) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var firstCompile sql.NullInt64
	if summary.FirstSuccessfulCompilation != nil {
		firstCompile = sql.NullInt64{Int64: int64(*summary.FirstSuccessfulCompilation), Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO sessions (model, test_type, iterations, improvement, first_successful_compilation, best_iteration)
		VALUES (?, ?, ?, ?, ?, ?)`,
		summary.Model, summary.TestType, len(summary.Iterations),
		summary.Improvement, firstCompile, summary.BestIteration,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}

	for _, rec := range summary.Iterations {
		if _, err := tx.Exec(`
			INSERT INTO iterations (session_id, iteration, overall_score, compilation_success, code_file, result_file, feedback_file)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sessionID, rec.Iteration, rec.OverallScore, rec.CompilationSuccess,
			rec.CodeFile, rec.ResultFile, rec.FeedbackFile,
		); err != nil {
			return 0, fmt.Errorf("insert iteration %d: %w", rec.Iteration, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit session: %w", err)
	}
	return sessionID, nil
}

// SessionInfo is one row of the session listing.
type SessionInfo struct {
	ID            int64
	Model         string
	TestType      string
	Iterations    int
	Improvement   float64
	BestIteration int
	CreatedAt     time.Time
}

// ListSessions returns recent sessions, newest first.
func (s *Store) ListSessions(limit int) ([]SessionInfo, error) {
	rows, err := s.db.Query(`
		SELECT id, model, test_type, iterations, improvement, best_iteration, created_at
		FROM sessions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.Model, &info.TestType, &info.Iterations,
			&info.Improvement, &info.BestIteration, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// IterationScores returns (iteration, overall_score) pairs for a session in
// iteration order.
func (s *Store) IterationScores(sessionID int64) (map[int]float64, error) {
	rows, err := s.db.Query(`
		SELECT iteration, overall_score FROM iterations
		WHERE session_id = ? ORDER BY iteration`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query iterations: %w", err)
	}
	defer rows.Close()

	scores := make(map[int]float64)
	for rows.Next() {
		var iteration int
		var score float64
		if err := rows.Scan(&iteration, &score); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		scores[iteration] = score
	}
	return scores, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
