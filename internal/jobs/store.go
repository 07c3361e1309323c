package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store manages job records in an in-memory SQLite database. Records live for
// the process lifetime; there is deliberately no durable persistence.
//
// A single mutex serializes mutations so the progress read-merge-write cycle
// is atomic; reads outside the mutex only ever observe fully-applied rows.
type Store struct {
	db *sql.DB

	mu sync.Mutex
}

// Open initializes the in-memory job database and applies the schema.
func Open() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open job db: %w", err)
	}
	// One connection keeps the single in-memory database alive and visible to
	// every query.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply job schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection, discarding all records.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new queued job for the request under a fresh identifier.
func (s *Store) Create(ctx context.Context, req Request) (*Job, error) {
	requestJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal job request: %w", err)
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	progressJSON := `{"stage":"waiting"}`

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            id, video_id, request_json, status, created_at, updated_at, progress_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		req.VideoID,
		string(requestJSON),
		StatusQueued,
		timestamp,
		timestamp,
		progressJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.getLocked(ctx, id)
}

// Get fetches a job by identifier, or nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, id)
}

func (s *Store) getLocked(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update applies a partial mutation: unset fields are no-ops and the progress
// patch is merged key-wise into the existing mapping. Returns the updated job,
// or nil when the identifier is unknown.
func (s *Store) Update(ctx context.Context, id string, update Update) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	status := current.Status
	if update.Status != nil {
		status = *update.Status
	}

	progress := current.Progress
	if progress == nil {
		progress = make(map[string]any)
	}
	for key, value := range update.Progress {
		progress[key] = value
	}
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return nil, fmt.Errorf("marshal job progress: %w", err)
	}

	result := current.Result
	if update.Result != nil {
		result = update.Result
	}
	errorInfo := current.Error
	if update.Error != nil {
		errorInfo = update.Error
	}

	resultJSON, err := marshalNullable(result)
	if err != nil {
		return nil, fmt.Errorf("marshal job result: %w", err)
	}
	errorJSON, err := marshalNullable(errorInfo)
	if err != nil {
		return nil, fmt.Errorf("marshal job error: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE jobs
         SET status = ?, progress_json = ?, result_json = ?, error_json = ?, updated_at = ?
         WHERE id = ?`,
		status,
		string(progressJSON),
		resultJSON,
		errorJSON,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return s.getLocked(ctx, id)
}

// List returns a point-in-time snapshot of jobs, optionally filtered by
// status, ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx, baseQuery+` WHERE status IN (`+placeholders+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const jobColumns = "id, video_id, request_json, status, created_at, updated_at, progress_json, result_json, error_json"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id          string
		videoID     string
		requestRaw  string
		statusStr   string
		createdRaw  string
		updatedRaw  string
		progressRaw string
		resultRaw   sql.NullString
		errorRaw    sql.NullString
	)
	if err := scanner.Scan(&id, &videoID, &requestRaw, &statusStr, &createdRaw, &updatedRaw, &progressRaw, &resultRaw, &errorRaw); err != nil {
		return nil, err
	}

	job := &Job{ID: id, Status: Status(statusStr)}
	if err := json.Unmarshal([]byte(requestRaw), &job.Request); err != nil {
		return nil, fmt.Errorf("decode job request: %w", err)
	}
	if job.Request.VideoID == "" {
		job.Request.VideoID = videoID
	}
	if err := json.Unmarshal([]byte(progressRaw), &job.Progress); err != nil {
		return nil, fmt.Errorf("decode job progress: %w", err)
	}
	if resultRaw.Valid {
		job.Result = new(Result)
		if err := json.Unmarshal([]byte(resultRaw.String), job.Result); err != nil {
			return nil, fmt.Errorf("decode job result: %w", err)
		}
	}
	if errorRaw.Valid {
		job.Error = new(ErrorInfo)
		if err := json.Unmarshal([]byte(errorRaw.String), job.Error); err != nil {
			return nil, fmt.Errorf("decode job error: %w", err)
		}
	}

	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func marshalNullable(value any) (any, error) {
	switch v := value.(type) {
	case *Result:
		if v == nil {
			return nil, nil
		}
	case *ErrorInfo:
		if v == nil {
			return nil, nil
		}
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
