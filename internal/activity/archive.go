package activity

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Archive retains sessions pruned from the JSON ring buffer in SQLite, so
// long-horizon history survives the retention cap. It is read-only from
// the heuristics' point of view — suggestions and scoring only ever see
// the live log.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (creating if needed) the sqlite archive at dbPath.
func OpenArchive(dbPath string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("activity: create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("activity: open archive: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("activity: pragma %q: %w", p, err)
		}
	}

	a := &Archive{db: db}
	if err := a.migrate(); err != nil {
		return nil, fmt.Errorf("activity: archive migration: %w", err)
	}
	return a, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

func (a *Archive) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			file_count INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS session_projects (
			session_id TEXT NOT NULL,
			project    TEXT NOT NULL,
			PRIMARY KEY (session_id, project),
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);

		CREATE INDEX IF NOT EXISTS idx_sp_project ON session_projects(project);
		CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at DESC);
	`
	_, err := a.db.Exec(schema)
	return err
}

// ArchiveSessions inserts pruned sessions. Re-archiving the same session
// id is a no-op, so retries after a partial failure are safe.
func (a *Archive) ArchiveSessions(sessions []Session) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, s := range sessions {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO sessions (id, started_at, file_count) VALUES (?, ?, ?)`,
			s.ID, s.StartedAt, len(s.Files),
		); err != nil {
			return err
		}
		for _, project := range s.Projects {
			if _, err := tx.Exec(
				`INSERT OR IGNORE INTO session_projects (session_id, project) VALUES (?, ?)`,
				s.ID, project,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ArchivedSession is one archived session as returned by history queries.
type ArchivedSession struct {
	ID        string   `json:"id"`
	StartedAt string   `json:"startedAt"`
	FileCount int      `json:"fileCount"`
	Projects  []string `json:"projects"`
}

// ProjectHistory returns archived sessions that touched the given project,
// most recent first, up to limit.
func (a *Archive) ProjectHistory(project string, limit int) ([]ArchivedSession, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := a.db.Query(`
		SELECT s.id, s.started_at, s.file_count
		FROM sessions s
		JOIN session_projects sp ON sp.session_id = s.id
		WHERE sp.project = ?
		ORDER BY s.started_at DESC
		LIMIT ?`, project, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ArchivedSession
	for rows.Next() {
		var s ArchivedSession
		if err := rows.Scan(&s.ID, &s.StartedAt, &s.FileCount); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		projects, err := a.sessionProjects(result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Projects = projects
	}
	return result, nil
}

func (a *Archive) sessionProjects(sessionID string) ([]string, error) {
	rows, err := a.db.Query(
		`SELECT project FROM session_projects WHERE session_id = ? ORDER BY project`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Projects returns the distinct project paths seen across all archived
// sessions, sorted.
func (a *Archive) Projects() ([]string, error) {
	rows, err := a.db.Query(`SELECT DISTINCT project FROM session_projects ORDER BY project`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
