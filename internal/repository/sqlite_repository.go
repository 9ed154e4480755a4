package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/anime-shed/lesion-inspector-go/pkg/models"
)

// MemoryDatabase opens a private in-memory database, used by tests and the CLI
const MemoryDatabase = ":memory:"

// dashboardRecent is the number of records shown on the dashboard
const dashboardRecent = 10

// Fixed width so that TEXT ordering matches chronological ordering
const storedTimeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteAnalysisRepository implements AnalysisRepository on a single SQLite file
type SQLiteAnalysisRepository struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// OpenSQLite opens or creates the history database at path
func OpenSQLite(path string) (*SQLiteAnalysisRepository, error) {
	dsn := path
	if path != MemoryDatabase {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// exists only on the connection that created it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteAnalysisRepository{db: db, dbPath: path, now: time.Now}

	ctx := context.Background()
	if path != MemoryDatabase {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := repo.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *SQLiteAnalysisRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteAnalysisRepository) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		risk_score INTEGER NOT NULL,
		image_format TEXT,
		camera TEXT,
		analysis_date TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_user_date ON analyses(user_id, analysis_date);
	`

	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveAnalysis inserts record, filling in ID and AnalysisDate when unset
func (r *SQLiteAnalysisRepository) SaveAnalysis(ctx context.Context, record *models.AnalysisRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("analysis record requires a user id")
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.AnalysisDate.IsZero() {
		record.AnalysisDate = r.now()
	}
	record.AnalysisDate = record.AnalysisDate.UTC()

	query := `
	INSERT INTO analyses (id, user_id, filename, risk_level, risk_score, image_format, camera, analysis_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.UserID,
		record.Filename,
		string(record.RiskLevel),
		record.RiskScore,
		record.ImageFormat,
		record.Camera,
		record.AnalysisDate.Format(storedTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns one of userID's records
func (r *SQLiteAnalysisRepository) GetAnalysis(ctx context.Context, userID, id string) (*models.AnalysisRecord, error) {
	query := `
	SELECT id, user_id, filename, risk_level, risk_score, image_format, camera, analysis_date
	FROM analyses
	WHERE user_id = ? AND id = ?
	`
	record, err := scanRecord(r.db.QueryRowContext(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListAnalyses returns userID's records, newest first
func (r *SQLiteAnalysisRepository) ListAnalyses(ctx context.Context, userID string, limit int) ([]models.AnalysisRecord, error) {
	query := `
	SELECT id, user_id, filename, risk_level, risk_score, image_format, camera, analysis_date
	FROM analyses
	WHERE user_id = ?
	ORDER BY analysis_date DESC, rowid DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	records := make([]models.AnalysisRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analyses: %w", err)
	}
	return records, nil
}

// Summarize builds the dashboard view for userID
func (r *SQLiteAnalysisRepository) Summarize(ctx context.Context, userID string) (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{
		ByLevel: map[models.RiskLevel]int{
			models.RiskLevelLow:      0,
			models.RiskLevelModerate: 0,
			models.RiskLevelHigh:     0,
		},
	}

	if err := r.countByLevel(ctx, userID, summary); err != nil {
		return nil, err
	}

	recent, err := r.ListAnalyses(ctx, userID, dashboardRecent)
	if err != nil {
		return nil, err
	}
	summary.Recent = recent
	return summary, nil
}

// countByLevel must release its rows before any other query runs on the
// single connection
func (r *SQLiteAnalysisRepository) countByLevel(ctx context.Context, userID string, summary *models.DashboardSummary) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT risk_level, COUNT(*) FROM analyses WHERE user_id = ? GROUP BY risk_level`, userID)
	if err != nil {
		return fmt.Errorf("failed to count analyses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return fmt.Errorf("failed to scan level count: %w", err)
		}
		summary.ByLevel[models.RiskLevel(level)] = count
		summary.TotalAnalyses += count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read level counts: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.AnalysisRecord, error) {
	var (
		record      models.AnalysisRecord
		level       string
		imageFormat sql.NullString
		camera      sql.NullString
		date        string
	)
	err := row.Scan(&record.ID, &record.UserID, &record.Filename, &level, &record.RiskScore,
		&imageFormat, &camera, &date)
	if err != nil {
		return nil, err
	}

	record.RiskLevel = models.RiskLevel(level)
	record.ImageFormat = imageFormat.String
	record.Camera = camera.String
	record.AnalysisDate, err = time.ParseInLocation(storedTimeLayout, date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis_date %q: %w", date, err)
	}
	return &record, nil
}
