package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/omerorhan/stay-pricing/internal/config"
	"github.com/omerorhan/stay-pricing/internal/engine"
)

const (
	selectRatesSQL = `
SELECT id, category_id, coalesce(contract_id, ''), base_rate::text, currency, valid_from, valid_to,
       markup_percentage::text, coalesce(days_of_week, '{}'), active
FROM rate_records
ORDER BY category_id, id`

	selectContractsSQL = `
SELECT id, supplier_commission_rate::text, supplier_vat_rate::text, customer_vat_rate::text,
       default_markup_percentage::text, service_fee_per_unit::text
FROM contracts
ORDER BY id`

	selectFeesSQL = `
SELECT contract_id, code, mode, amount::text, payable
FROM contract_fees
ORDER BY contract_id, position`

	selectRevisionSQL = `
SELECT coalesce(extract(epoch FROM greatest(
    (SELECT max(updated_at) FROM rate_records),
    (SELECT max(updated_at) FROM contracts)))::bigint, 0)`
)

// DefaultSnapshotValidity is how long a snapshot read from Postgres stays quotable.
const DefaultSnapshotValidity = 24 * time.Hour

// Connect creates a single connection pool.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PostgresSource reads the inventory snapshot straight from the inventory database.
type PostgresSource struct {
	pool     *pgxpool.Pool
	validity time.Duration
	now      func() time.Time
}

func NewPostgresSource(pool *pgxpool.Pool, validity time.Duration) *PostgresSource {
	if validity <= 0 {
		validity = DefaultSnapshotValidity
	}
	return &PostgresSource{pool: pool, validity: validity, now: time.Now}
}

// FetchInventory loads every rate record and contract in one read-only transaction. The revision is the
// newest updated_at across both tables, in unix seconds.
func (ps *PostgresSource) FetchInventory(ctx context.Context) (*InventoryEnvelope, error) {
	tx, err := ps.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	var revision int64
	if err := tx.QueryRow(ctx, selectRevisionSQL).Scan(&revision); err != nil {
		return nil, fmt.Errorf("read revision: %w", err)
	}

	rows, err := tx.Query(ctx, selectRatesSQL)
	if err != nil {
		return nil, fmt.Errorf("query rate_records: %w", err)
	}
	raws, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rateRow, error) {
		var r rateRow
		err := row.Scan(&r.ID, &r.CategoryID, &r.ContractID, &r.BaseRate, &r.Currency, &r.ValidFrom, &r.ValidTo,
			&r.Markup, &r.DaysOfWeek, &r.Active)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan rate_records: %w", err)
	}
	rates := make([]engine.RateRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := raw.toRecord()
		if err != nil {
			return nil, err
		}
		rates = append(rates, rec)
	}

	rows, err = tx.Query(ctx, selectFeesSQL)
	if err != nil {
		return nil, fmt.Errorf("query contract_fees: %w", err)
	}
	feeRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (feeRow, error) {
		var f feeRow
		err := row.Scan(&f.ContractID, &f.Code, &f.Mode, &f.Amount, &f.Payable)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan contract_fees: %w", err)
	}
	fees := make(map[string][]engine.Fee)
	for _, f := range feeRows {
		fee, err := f.toFee()
		if err != nil {
			return nil, err
		}
		fees[f.ContractID] = append(fees[f.ContractID], fee)
	}

	rows, err = tx.Query(ctx, selectContractsSQL)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}
	contractRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (contractRow, error) {
		var c contractRow
		err := row.Scan(&c.ID, &c.Commission, &c.SupplierVat, &c.CustomerVat, &c.Markup, &c.ServiceFee)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan contracts: %w", err)
	}
	contracts := make([]engine.ContractEconomics, 0, len(contractRows))
	for _, c := range contractRows {
		econ, err := c.toEconomics(fees[c.ID])
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, econ)
	}

	return &InventoryEnvelope{
		Revision:       int(revision),
		ValidUntilDate: ps.now().UTC().Add(ps.validity).Format(ValidUntilLayout),
		Rates:          rates,
		Contracts:      contracts,
		IsSuccessful:   true,
	}, nil
}

type rateRow struct {
	ID, CategoryID, ContractID string
	BaseRate, Currency         string
	ValidFrom, ValidTo         time.Time
	Markup                     *string
	DaysOfWeek                 []int16
	Active                     bool
}

func (r rateRow) toRecord() (engine.RateRecord, error) {
	base, err := decimal.NewFromString(r.BaseRate)
	if err != nil {
		return engine.RateRecord{}, fmt.Errorf("rate %s base_rate: %w", r.ID, err)
	}

	rec := engine.RateRecord{
		ID:         r.ID,
		CategoryID: r.CategoryID,
		ContractID: r.ContractID,
		BaseRate:   base,
		Currency:   r.Currency,
		ValidFrom:  civil.DateOf(r.ValidFrom),
		ValidTo:    civil.DateOf(r.ValidTo),
		Active:     r.Active,
	}
	if r.Markup != nil {
		m, err := decimal.NewFromString(*r.Markup)
		if err != nil {
			return engine.RateRecord{}, fmt.Errorf("rate %s markup_percentage: %w", r.ID, err)
		}
		rec.MarkupPercentage = &m
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return engine.RateRecord{}, fmt.Errorf("rate %s days_of_week: %d is not a weekday (0=Sunday..6)", r.ID, d)
		}
		rec.DaysOfWeek = append(rec.DaysOfWeek, time.Weekday(d))
	}
	return rec, nil
}

type feeRow struct {
	ContractID, Code, Mode, Amount, Payable string
}

func (f feeRow) toFee() (engine.Fee, error) {
	amount, err := decimal.NewFromString(f.Amount)
	if err != nil {
		return engine.Fee{}, fmt.Errorf("contract %s fee %s amount: %w", f.ContractID, f.Code, err)
	}
	return engine.Fee{
		Code:    f.Code,
		Mode:    engine.FeeMode(f.Mode),
		Amount:  amount,
		Payable: engine.Payable(f.Payable),
	}, nil
}

type contractRow struct {
	ID          string
	Commission  string
	SupplierVat string
	CustomerVat string
	Markup      string
	ServiceFee  string
}

func (c contractRow) toEconomics(fees []engine.Fee) (engine.ContractEconomics, error) {
	econ := engine.ContractEconomics{ContractID: c.ID, Fees: fees}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"supplier_commission_rate", c.Commission, &econ.SupplierCommissionRate},
		{"supplier_vat_rate", c.SupplierVat, &econ.SupplierVatRate},
		{"customer_vat_rate", c.CustomerVat, &econ.CustomerVatRate},
		{"default_markup_percentage", c.Markup, &econ.DefaultMarkupPercentage},
		{"service_fee_per_unit", c.ServiceFee, &econ.ServiceFeePerUnit},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return engine.ContractEconomics{}, fmt.Errorf("contract %s %s: %w", c.ID, f.name, err)
		}
		*f.dst = d
	}
	return econ, nil
}
