package repos

import (
	"database/sql"
	"fmt"

	"github.com/charmbracelet/log"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wheelibin/homesim/internal/models"
)

// process lifetime only: the database lives in memory and is wiped on start
const InMemoryDSN = "file:homesim?mode=memory&cache=shared"

const initSchema = `
  CREATE TABLE IF NOT EXISTS transition (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    category TEXT NOT NULL,
    device_id TEXT NOT NULL,
    on_state INTEGER NOT NULL,
    intensity INTEGER NOT NULL,
    source TEXT NOT NULL,
    at TIMESTAMP NOT NULL
  );

  CREATE INDEX IF NOT EXISTS transition_device ON transition (category, device_id);

  DELETE FROM transition;
`

type TransitionRepo struct {
	logger *log.Logger
	db     *sql.DB
	retain int
}

// OpenDB opens the in-memory sqlite database. A single connection keeps every
// query on the same memory database.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("Error opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewTransitionRepo keeps at most retain transitions, older rows are trimmed on
// every Record. A retain of 0 keeps everything.
func NewTransitionRepo(logger *log.Logger, db *sql.DB, retain int) (*TransitionRepo, error) {

	_, err := db.Exec(initSchema)
	if err != nil {
		return nil, fmt.Errorf("Error initialising transition schema: %w", err)
	}

	return &TransitionRepo{logger: logger, db: db, retain: retain}, nil
}

func (r *TransitionRepo) Record(t models.Transition) error {
	_, err := r.db.Exec(
		`INSERT INTO transition
      (category, device_id, on_state, intensity, source, at)
     VALUES ($1, $2, $3, $4, $5, $6);`,
		t.Category,
		t.DeviceID,
		t.On,
		t.Intensity,
		t.Source,
		t.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("Error recording transition (%s/%s): %w", t.Category, t.DeviceID, err)
	}
	if r.retain <= 0 {
		return nil
	}

	_, err = r.db.Exec(
		`DELETE FROM transition
     WHERE id <= (SELECT max(id) FROM transition) - $1;`,
		r.retain,
	)
	if err != nil {
		return fmt.Errorf("Error trimming transitions: %w", err)
	}
	return nil
}

// Recent returns up to limit transitions, newest first.
func (r *TransitionRepo) Recent(limit int) ([]models.Transition, error) {
	rows, err := r.db.Query(`
    SELECT category, device_id, on_state, intensity, source, at
    FROM transition
    ORDER BY id DESC
    LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("Error reading transitions: %w", err)
	}
	defer rows.Close()

	transitions := []models.Transition{}

	for rows.Next() {
		var t models.Transition
		if err := rows.Scan(&t.Category, &t.DeviceID, &t.On, &t.Intensity, &t.Source, &t.At); err != nil {
			return nil, fmt.Errorf("Error reading transition: %w", err)
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}

func (r *TransitionRepo) Count() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT count(*) FROM transition").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("Error counting transitions: %w", err)
	}
	return n, nil
}
