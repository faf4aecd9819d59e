package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// Schema creates the measurements table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS measurements (
	id                 BIGSERIAL        PRIMARY KEY,
	timestamp          TIMESTAMPTZ      NOT NULL,
	latitude           DOUBLE PRECISION NOT NULL,
	longitude          DOUBLE PRECISION NOT NULL,
	technology         VARCHAR(10)      NOT NULL,
	plmn_id            VARCHAR(10),
	lac                BIGINT,
	rac                BIGINT,
	tac                BIGINT,
	cell_id            BIGINT,
	frequency_band     VARCHAR(20),
	arfcn              BIGINT,
	rsrp               DOUBLE PRECISION,
	rsrq               DOUBLE PRECISION,
	rscp               DOUBLE PRECISION,
	ec_no              DOUBLE PRECISION,
	rxlev              DOUBLE PRECISION,
	download_rate      DOUBLE PRECISION,
	upload_rate        DOUBLE PRECISION,
	ping_response_time DOUBLE PRECISION,
	dns_response_time  DOUBLE PRECISION,
	web_response_time  DOUBLE PRECISION,
	sms_delivery_time  DOUBLE PRECISION,
	created_at         TIMESTAMPTZ      NOT NULL,
	updated_at         TIMESTAMPTZ      NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measurements_timestamp ON measurements (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_measurements_technology_timestamp ON measurements (technology, timestamp DESC);
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
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
RETURNING id`

// MeasurementRepository implements domain.MeasurementRepository with Postgres
type MeasurementRepository struct {
	db *sql.DB
}

// Connect opens a Postgres handle, verifies it with a ping and applies the schema.
func Connect(ctx context.Context, dsn string) (*MeasurementRepository, error) {
	if dsn == "" {
		return nil, errors.New("postgres repository: DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres repository: open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres repository: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres repository: apply schema: %w", err)
	}

	return NewMeasurementRepository(db), nil
}

// NewMeasurementRepository wraps an existing handle. The schema must already exist.
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// Create stores a measurement and sets its ID from RETURNING
func (r *MeasurementRepository) Create(ctx context.Context, m *domain.Measurement) error {
	if err := r.db.QueryRowContext(ctx, insertQuery, insertArgs(m)...).Scan(&m.ID); err != nil {
		return classify("failed to insert measurement", err)
	}
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
		if err := stmt.QueryRowContext(ctx, insertArgs(m)...).Scan(&ids[i]); err != nil {
			return &domain.BulkCreateError{Index: i, Err: classify("failed to insert measurement", err)}
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
	query := `SELECT ` + selectColumns + ` FROM measurements WHERE id = $1`

	m, err := scanMeasurement(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
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

	query := fmt.Sprintf(`SELECT %s FROM measurements%s ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d`,
		selectColumns, where, len(args)+1, len(args)+2)

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
	result, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE id = $1`, id)
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
		args = append(args, filter.Technology)
		conds = append(conds, fmt.Sprintf("technology = $%d", len(args)))
	}
	if filter.StartDate != nil {
		args = append(args, filter.StartDate.UTC())
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.EndDate != nil {
		args = append(args, filter.EndDate.UTC())
		conds = append(conds, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func insertArgs(m *domain.Measurement) []any {
	return []any{
		m.Timestamp.UTC(), m.Latitude, m.Longitude, m.Technology,
		m.PLMNID, m.LAC, m.RAC, m.TAC, m.CellID, m.FrequencyBand, m.ARFCN,
		m.RSRP, m.RSRQ, m.RSCP, m.EcNo, m.RxLev,
		m.DownloadRate, m.UploadRate, m.PingResponseTime, m.DNSResponseTime, m.WebResponseTime, m.SMSDeliveryTime,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (*domain.Measurement, error) {
	var m domain.Measurement

	err := row.Scan(
		&m.ID, &m.Timestamp, &m.Latitude, &m.Longitude, &m.Technology,
		&m.PLMNID, &m.LAC, &m.RAC, &m.TAC, &m.CellID, &m.FrequencyBand, &m.ARFCN,
		&m.RSRP, &m.RSRQ, &m.RSCP, &m.EcNo, &m.RxLev,
		&m.DownloadRate, &m.UploadRate, &m.PingResponseTime, &m.DNSResponseTime, &m.WebResponseTime, &m.SMSDeliveryTime,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Timestamp = m.Timestamp.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

// classify maps integrity constraint violations (SQLSTATE class 23) and
// oversized values (22001) to invalid input; everything else is a storage failure.
func classify(msg string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() == "23" || pqErr.Code == "22001" {
			return fmt.Errorf("%s: %w: %w", msg, domain.ErrInvalidInput, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", msg, domain.ErrStorage, err)
}

var _ domain.MeasurementRepository = (*MeasurementRepository)(nil)
