package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// timeLayout is fixed-width so lexical order in SQLite equals time order.
const timeLayout = "2006-01-02 15:04:05.000000000"

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp          TEXT    NOT NULL,
	latitude           REAL    NOT NULL,
	longitude          REAL    NOT NULL,
	technology         TEXT    NOT NULL CHECK (length(technology) BETWEEN 1 AND 10),
	plmn_id            TEXT    CHECK (plmn_id IS NULL OR length(plmn_id) <= 10),
	lac                INTEGER,
	rac                INTEGER,
	tac                INTEGER,
	cell_id            INTEGER,
	frequency_band     TEXT    CHECK (frequency_band IS NULL OR length(frequency_band) <= 20),
	arfcn              INTEGER,
	rsrp               REAL,
	rsrq               REAL,
	rscp               REAL,
	ec_no              REAL,
	rxlev              REAL,
	download_rate      REAL,
	upload_rate        REAL,
	ping_response_time REAL,
	dns_response_time  REAL,
	web_response_time  REAL,
	sms_delivery_time  REAL,
	created_at         TEXT    NOT NULL,
	updated_at         TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measurements_timestamp ON measurements(timestamp);
CREATE INDEX IF NOT EXISTS idx_measurements_technology_timestamp ON measurements(technology, timestamp);
`

const selectColumns = `id, timestamp, latitude, longitude, technology,
	plmn_id, lac, rac, tac, cell_id, frequency_band, arfcn,
	rsrp, rsrq, rscp, ec_no, rxlev,
	download_rate, upload_rate, ping_response_time, dns_response_time, web_response_time, sms_delivery_time,
	created_at, updated_at`

const insertQuery = `INSERT INTO measurements (
	timestamp, latitude, longitude, technology,
	plmn_id, lac, rac, tac, cell_id, frequency_band, arfcn,
	rsrp, rsrq, rscp, ec_no, rxlev,
	download_rate, upload_rate, ping_response_time, dns_response_time, web_response_time, sms_delivery_time,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// MeasurementRepository implements domain.MeasurementRepository with SQLite
type MeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository creates a SQLite-backed repository
func NewMeasurementRepository(dbPath string) (*MeasurementRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serialises writers; a single connection also keeps ":memory:" databases intact.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &MeasurementRepository{db: db}, nil
}

// Create stores a measurement in SQLite
func (r *MeasurementRepository) Create(ctx context.Context, m *domain.Measurement) error {
	result, err := r.db.ExecContext(ctx, insertQuery, insertArgs(m)...)
	if err != nil {
		return classify("failed to insert measurement", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return classify("failed to get insert id", err)
	}

	m.ID = id
	return nil
}

// CreateBatch stores all measurements in one transaction
func (r *MeasurementRepository) CreateBatch(ctx context.Context, ms []*domain.Measurement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.BulkCreateError{Index: -1, Err: classify("failed to begin transaction", err)}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return &domain.BulkCreateError{Index: -1, Err: classify("failed to prepare insert", err)}
	}
	defer stmt.Close()

	ids := make([]int64, len(ms))
	for i, m := range ms {
		result, err := stmt.ExecContext(ctx, insertArgs(m)...)
		if err != nil {
			return &domain.BulkCreateError{Index: i, Err: classify("failed to insert measurement", err)}
		}
		if ids[i], err = result.LastInsertId(); err != nil {
			return &domain.BulkCreateError{Index: i, Err: classify("failed to get insert id", err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.BulkCreateError{Index: -1, Err: classify("failed to commit transaction", err)}
	}

	for i, m := range ms {
		m.ID = ids[i]
	}
	return nil
}

// Get retrieves a measurement by ID
func (r *MeasurementRepository) Get(ctx context.Context, id int64) (*domain.Measurement, error) {
	query := `SELECT ` + selectColumns + ` FROM measurements WHERE id = ?`

	m, err := scanMeasurement(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrMeasurementNotFound
	}
	if err != nil {
		return nil, classify("failed to query measurement", err)
	}

	return m, nil
}

// List returns one page of matching measurements and the total match count
func (r *MeasurementRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Measurement, int64, error) {
	where, args := whereClause(filter)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements`+where, args...).Scan(&total); err != nil {
		return nil, 0, classify("failed to count measurements", err)
	}

	query := `SELECT ` + selectColumns + ` FROM measurements` + where +
		` ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, classify("failed to query measurements", err)
	}
	defer rows.Close()

	results := make([]*domain.Measurement, 0, filter.Limit)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, 0, classify("failed to scan measurement", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("failed to iterate measurements", err)
	}

	return results, total, nil
}

// Delete removes a measurement by ID
func (r *MeasurementRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = ?`, id)
	if err != nil {
		return classify("failed to delete measurement", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return classify("failed to read affected rows", err)
	}
	if affected == 0 {
		return domain.ErrMeasurementNotFound
	}

	return nil
}

// Close closes the database connection
func (r *MeasurementRepository) Close() error {
	return r.db.Close()
}

func whereClause(filter domain.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Technology != "" {
		conds = append(conds, "technology = ?")
		args = append(args, filter.Technology)
	}
	if filter.StartDate != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, formatTime(*filter.StartDate))
	}
	if filter.EndDate != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, formatTime(*filter.EndDate))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func insertArgs(m *domain.Measurement) []any {
	return []any{
		formatTime(m.Timestamp), m.Latitude, m.Longitude, m.Technology,
		m.PLMNID, m.LAC, m.RAC, m.TAC, m.CellID, m.FrequencyBand, m.ARFCN,
		m.RSRP, m.RSRQ, m.RSCP, m.EcNo, m.RxLev,
		m.DownloadRate, m.UploadRate, m.PingResponseTime, m.DNSResponseTime, m.WebResponseTime, m.SMSDeliveryTime,
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (*domain.Measurement, error) {
	var (
		m                               domain.Measurement
		timestamp, createdAt, updatedAt string
	)

	err := row.Scan(
		&m.ID, &timestamp, &m.Latitude, &m.Longitude, &m.Technology,
		&m.PLMNID, &m.LAC, &m.RAC, &m.TAC, &m.CellID, &m.FrequencyBand, &m.ARFCN,
		&m.RSRP, &m.RSRQ, &m.RSCP, &m.EcNo, &m.RxLev,
		&m.DownloadRate, &m.UploadRate, &m.PingResponseTime, &m.DNSResponseTime, &m.WebResponseTime, &m.SMSDeliveryTime,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if m.Timestamp, err = parseTime(timestamp); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &m, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return t, nil
}

// classify maps constraint violations to invalid input and everything else
// to a storage failure.
func classify(msg string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrStorage, err)
}

var _ domain.MeasurementRepository = (*MeasurementRepository)(nil)
