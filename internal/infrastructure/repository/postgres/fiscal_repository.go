package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"

	auditMessageLimit = 500
	schemaLockID      = int64(2026030101)
)

//go:embed schema.sql
var defaultSchema string

// LoadSchema returns the DDL to run on startup. An empty path selects the
// embedded schema; a path that cannot be read is an error.
func LoadSchema(path string) (string, error) {
	if path == "" {
		return defaultSchema, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read schema file: %w", err)
	}
	return string(raw), nil
}

// OpenDB opens a pool limited to a single connection and verifies it.
func OpenDB(ctx context.Context, driverName, dsn string) (*sqlx.DB, error) {
	switch driverName {
	case "", DriverPgx:
		driverName = DriverPgx
	case DriverPq:
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "open database", fmt.Errorf("unsupported driver %q", driverName))
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, domain.WrapError(domain.ErrConnection, "db ping", err)
	}
	return db, nil
}

// FiscalRepository persists fiscal documents over one pinned connection.
// Calls must not be made concurrently.
type FiscalRepository struct {
	db     *sqlx.DB
	conn   *sqlx.Conn
	driver string
	schema string

	closeOnce sync.Once
	closeErr  error
}

type Option func(*FiscalRepository)

// WithSchema replaces the embedded DDL.
func WithSchema(ddl string) Option {
	return func(r *FiscalRepository) {
		if ddl != "" {
			r.schema = ddl
		}
	}
}

// NewFiscalRepository pins a connection from db. The repository owns db from
// here on and closes it in Close.
func NewFiscalRepository(ctx context.Context, db *sqlx.DB, opts ...Option) (*FiscalRepository, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConnection, "acquire connection", err)
	}
	r := &FiscalRepository{
		db:     db,
		conn:   conn,
		driver: db.DriverName(),
		schema: defaultSchema,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *FiscalRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return r.classify("begin schema tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent importer runs.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return r.classify("acquire schema lock", err)
	}
	if _, err := tx.ExecContext(ctx, r.schema); err != nil {
		return r.classify("execute schema ddl", err)
	}
	if err := tx.Commit(); err != nil {
		return r.classify("commit schema tx", err)
	}
	return nil
}

func (r *FiscalRepository) Exists(ctx context.Context, accessKey string, kind domain.DocumentKind) (bool, error) {
	table, err := headerTable(kind)
	if err != nil {
		return false, err
	}
	query := sqlx.Rebind(sqlx.BindType(r.driver), `SELECT 1 FROM `+table+` WHERE access_key = ? LIMIT 1`)

	var one int
	err = r.conn.QueryRowContext(ctx, query, accessKey).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, r.classify("check existing document", err)
	}
	return true, nil
}

// InsertDocument writes the header and, for invoices, every item in one
// transaction. Data errors roll back and come back as a failed outcome; the
// returned error is reserved for connection failures.
func (r *FiscalRepository) InsertDocument(ctx context.Context, rec *domain.Record, filename string) (domain.ImportOutcome, error) {
	if rec == nil {
		return domain.Failed("no record to insert"), nil
	}

	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		return r.failed("begin transaction", err)
	}

	var outcome domain.ImportOutcome
	switch rec.Kind {
	case domain.KindInvoice:
		outcome, err = r.insertInvoice(ctx, tx, rec, filename)
	case domain.KindFreight:
		outcome, err = r.insertFreight(ctx, tx, rec, filename)
	default:
		err = fmt.Errorf("unknown document kind %q", rec.Kind)
	}
	if err != nil {
		_ = tx.Rollback()
		return r.failed("insert document", err)
	}

	if err := tx.Commit(); err != nil {
		return r.failed("commit document", err)
	}
	return outcome, nil
}

const insertInvoiceSQL = `
INSERT INTO fiscal_invoices (
	access_key, document_number, series, issued_at,
	issuer_tax_id, issuer_legal_name, issuer_trade_name, issuer_state_registration,
	issuer_address, issuer_municipality, issuer_state, issuer_postal_code,
	recipient_tax_id, recipient_legal_name, recipient_trade_name, recipient_state_registration,
	recipient_address, recipient_municipality, recipient_state, recipient_postal_code,
	total_value, product_value, icms_value, ipi_value, pis_value, cofins_value, total_taxes_value,
	protocol_number, status_code, status_reason, raw_xml, filename
) VALUES (
	:access_key, :document_number, :series, :issued_at,
	:issuer.tax_id, :issuer.legal_name, :issuer.trade_name, :issuer.state_registration,
	:issuer.address, :issuer.municipality, :issuer.state, :issuer.postal_code,
	:recipient.tax_id, :recipient.legal_name, :recipient.trade_name, :recipient.state_registration,
	:recipient.address, :recipient.municipality, :recipient.state, :recipient.postal_code,
	:total_value, :product_value, :icms_value, :ipi_value, :pis_value, :cofins_value, :total_taxes_value,
	:protocol_number, :status_code, :status_reason, :raw_xml, :filename
) RETURNING id`

const insertItemSQL = `
INSERT INTO fiscal_invoice_items (
	invoice_id, access_key, sequence_number, product_code, description, ncm, cfop, cest,
	unit, quantity, unit_value, total_value, barcode,
	icms_value, ipi_value, pis_value, cofins_value
) VALUES (
	:invoice_id, :access_key, :sequence_number, :product_code, :description, :ncm, :cfop, :cest,
	:unit, :quantity, :unit_value, :total_value, :barcode,
	:icms_value, :ipi_value, :pis_value, :cofins_value
)`

func (r *FiscalRepository) insertInvoice(ctx context.Context, tx *sqlx.Tx, rec *domain.Record, filename string) (domain.ImportOutcome, error) {
	id, err := insertHeader(ctx, tx, insertInvoiceSQL, newInvoiceRow(rec, filename))
	if err != nil {
		return domain.ImportOutcome{}, err
	}
	for i, item := range rec.Items {
		if _, err := tx.NamedExecContext(ctx, insertItemSQL, newItemRow(id, rec.AccessKey, item)); err != nil {
			return domain.ImportOutcome{}, fmt.Errorf("insert item %d: %w", i+1, err)
		}
	}
	return domain.Inserted(id, len(rec.Items)), nil
}

const insertFreightSQL = `
INSERT INTO fiscal_freights (
	access_key, document_number, series, issued_at,
	modal, service_type, cfop, operation_nature,
	origin_municipality, origin_state, destination_municipality, destination_state,
	issuer_tax_id, issuer_legal_name, issuer_trade_name, issuer_state_registration,
	issuer_address, issuer_municipality, issuer_state, issuer_postal_code,
	sender_tax_id, sender_legal_name, sender_trade_name, sender_state_registration,
	sender_address, sender_municipality, sender_state, sender_postal_code,
	recipient_tax_id, recipient_legal_name, recipient_trade_name, recipient_state_registration,
	recipient_address, recipient_municipality, recipient_state, recipient_postal_code,
	total_value, receivable_value, cargo_value, icms_value,
	protocol_number, status_code, status_reason, raw_xml, filename
) VALUES (
	:access_key, :document_number, :series, :issued_at,
	:modal, :service_type, :cfop, :operation_nature,
	:origin_municipality, :origin_state, :destination_municipality, :destination_state,
	:issuer.tax_id, :issuer.legal_name, :issuer.trade_name, :issuer.state_registration,
	:issuer.address, :issuer.municipality, :issuer.state, :issuer.postal_code,
	:sender.tax_id, :sender.legal_name, :sender.trade_name, :sender.state_registration,
	:sender.address, :sender.municipality, :sender.state, :sender.postal_code,
	:recipient.tax_id, :recipient.legal_name, :recipient.trade_name, :recipient.state_registration,
	:recipient.address, :recipient.municipality, :recipient.state, :recipient.postal_code,
	:total_value, :receivable_value, :cargo_value, :icms_value,
	:protocol_number, :status_code, :status_reason, :raw_xml, :filename
) RETURNING id`

func (r *FiscalRepository) insertFreight(ctx context.Context, tx *sqlx.Tx, rec *domain.Record, filename string) (domain.ImportOutcome, error) {
	id, err := insertHeader(ctx, tx, insertFreightSQL, newFreightRow(rec, filename))
	if err != nil {
		return domain.ImportOutcome{}, err
	}
	return domain.Inserted(id, 0), nil
}

func insertHeader(ctx context.Context, tx *sqlx.Tx, query string, row any) (int64, error) {
	bound, args, err := tx.BindNamed(query, row)
	if err != nil {
		return 0, fmt.Errorf("bind header: %w", err)
	}
	var id int64
	if err := tx.QueryRowxContext(ctx, bound, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, errDuplicateKey
		}
		return 0, fmt.Errorf("insert header: %w", err)
	}
	return id, nil
}

const insertAuditSQL = `
INSERT INTO fiscal_import_log (run_id, kind, filename, status, message, access_key)
VALUES (:run_id, :kind, :filename, :status, :message, :access_key)`

// AppendLog writes one audit row outside any document transaction. Callers
// may ignore the error; it never affects a committed document.
func (r *FiscalRepository) AppendLog(ctx context.Context, entry domain.AuditEntry) error {
	query, args, err := sqlx.Named(insertAuditSQL, newAuditRow(entry))
	if err != nil {
		return fmt.Errorf("bind audit entry: %w", err)
	}
	query = sqlx.Rebind(sqlx.BindType(r.driver), query)
	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Close releases the pinned connection and the pool. Safe to call twice.
func (r *FiscalRepository) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = errors.Join(r.conn.Close(), r.db.Close())
	})
	return r.closeErr
}

func (r *FiscalRepository) failed(op string, err error) (domain.ImportOutcome, error) {
	switch {
	case isConnectionError(err):
		return domain.ImportOutcome{}, domain.WrapError(domain.ErrConnection, op, err)
	case errors.Is(err, errDuplicateKey):
		return domain.SkippedDuplicate(), nil
	default:
		return domain.Failed(fmt.Sprintf("%s: %v", op, err)), nil
	}
}

func (r *FiscalRepository) classify(op string, err error) error {
	if isConnectionError(err) {
		return domain.WrapError(domain.ErrConnection, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func headerTable(kind domain.DocumentKind) (string, error) {
	switch kind {
	case domain.KindInvoice:
		return "fiscal_invoices", nil
	case domain.KindFreight:
		return "fiscal_freights", nil
	}
	return "", domain.WrapError(domain.ErrInvalidInput, "resolve table", fmt.Errorf("unknown document kind %q", kind))
}
