package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/roman-kulish/sweep-heatmap/internal/spectrum"
)

// ErrSessionNotFound is returned when a session ID, or the latest session of an
// empty database, does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session is one ingested capture.
type Session struct {
	ID        int64
	StartTime time.Time
	Label     string
}

// SqliteStore keeps sweep records grouped into sessions in a SQLite database.
// The write and read connections are opened on first use.
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) Path() string {
	return s.dbPath
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_query_only=1"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// CreateSession starts a new session labelled label and returns its ID.
func (s *SqliteStore) CreateSession(ctx context.Context, label string) (sessionID int64, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, time.Now().Unix(), label)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	sessionID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
	}
	return
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (*Session, error) {
	return s.querySession(ctx, selectSessionSQL, id)
}

// LatestSession returns the most recently created session.
func (s *SqliteStore) LatestSession(ctx context.Context) (*Session, error) {
	return s.querySession(ctx, selectLatestSessionSQL)
}

func (s *SqliteStore) querySession(ctx context.Context, query string, args ...any) (session *Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, query)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var sess Session
	var startTime int64
	if err = stmt.QueryRowContext(ctx, args...).Scan(&sess.ID, &startTime, &sess.Label); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSessionNotFound
			return
		}
		err = fmt.Errorf("scanning session: %w", err)
		return
	}
	sess.StartTime = fromUnix(startTime, time.Local)

	return &sess, nil
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*Session, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var sess Session
		var startTime int64
		if err = rows.Scan(&sess.ID, &startTime, &sess.Label); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sess.StartTime = fromUnix(startTime, time.Local)
		sessions = append(sessions, &sess)
	}
	err = rows.Err()
	return
}

// CountSweeps returns the number of records stored in a session.
func (s *SqliteStore) CountSweeps(ctx context.Context, sessionID int64) (count int, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	if err = db.QueryRowContext(ctx, countSweepsSQL, sessionID).Scan(&count); err != nil {
		err = fmt.Errorf("counting sweeps: %w", err)
	}
	return
}

// StoreSweeps writes records to a session in a single transaction.
func (s *SqliteStore) StoreSweeps(ctx context.Context, sessionID int64, records []*spectrum.SweepRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			rollbackWithError(tx, &err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSweepSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx,
			sessionID,
			r.TimeKey,
			r.Timestamp.Unix(),
			r.RangeLow,
			r.RangeHigh,
			r.Step,
			r.NumSamples,
			encodeSamples(r.Samples),
		); err != nil {
			return fmt.Errorf("inserting sweep %s: %w", r.TimeKey, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// SweepSource returns a re-readable source over the records of a session. A
// sessionID of zero selects the latest session.
func (s *SqliteStore) SweepSource(ctx context.Context, sessionID int64, opts ...ReaderOption) (*SweepSource, error) {
	var (
		session *Session
		err     error
	)
	if sessionID == 0 {
		session, err = s.LatestSession(ctx)
	} else {
		session, err = s.Session(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}

	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	return newSweepSource(db, s.dbPath, session, opts...), nil
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
