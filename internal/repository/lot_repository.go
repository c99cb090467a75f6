package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/agricoop/magasin-service/internal/domain"
)

// MovementInput describes who records a movement and why.
type MovementInput struct {
	ActorID int64
	Note    string
}

// LotRepository encapsulates lot persistence. Every stock change writes its
// movement row in the same transaction. Admit and Transfer lock the receiving
// magasin row and return *domain.CapacityError when it would overflow.
type LotRepository interface {
	Admit(ctx context.Context, lot *domain.Lot, in MovementInput) error
	Withdraw(ctx context.Context, lotID int64, quantity float64, in MovementInput) (*domain.Lot, error)
	Transfer(ctx context.Context, lotID, destinationID int64, quantity float64, reference string, in MovementInput) (*domain.Transfer, error)
	GetByID(ctx context.Context, id int64) (*domain.Lot, error)
	ListByMagasin(ctx context.Context, magasinID int64, limit, offset int) ([]domain.Lot, error)
	ListMovements(ctx context.Context, magasinID int64, limit, offset int) ([]domain.Movement, error)
	Summary(ctx context.Context, magasinID int64) (*domain.MagasinSummary, error)
}

type lotRepository struct {
	db DB
}

// NewLotRepository instantiates repository.
func NewLotRepository(db DB) LotRepository {
	return &lotRepository{db: db}
}

const lotColumns = `id, reference, magasin_id, producer_name, product, unit, quantity, unit_price, quality, created_at, updated_at`

func (r *lotRepository) Admit(ctx context.Context, lot *domain.Lot, in MovementInput) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := reserveCapacity(ctx, tx, lot.MagasinID, lot.Quantity); err != nil {
			return err
		}
		if err := insertLot(ctx, tx, lot); err != nil {
			return err
		}
		return insertMovement(ctx, tx, lot.ID, lot.MagasinID, domain.MovementAdmission, lot.Quantity, in)
	})
}

func (r *lotRepository) Withdraw(ctx context.Context, lotID int64, quantity float64, in MovementInput) (*domain.Lot, error) {
	var lot *domain.Lot
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		lot, err = decrementLot(ctx, tx, lotID, quantity)
		if err != nil {
			return err
		}
		return insertMovement(ctx, tx, lot.ID, lot.MagasinID, domain.MovementWithdrawal, quantity, in)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (r *lotRepository) Transfer(ctx context.Context, lotID, destinationID int64, quantity float64, reference string, in MovementInput) (*domain.Transfer, error) {
	var transfer *domain.Transfer
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		source, err := decrementLot(ctx, tx, lotID, quantity)
		if err != nil {
			return err
		}
		if err := insertMovement(ctx, tx, source.ID, source.MagasinID, domain.MovementTransferOut, quantity, in); err != nil {
			return err
		}
		if err := reserveCapacity(ctx, tx, destinationID, quantity); err != nil {
			return err
		}

		dest := domain.Lot{
			Reference:    reference,
			MagasinID:    destinationID,
			ProducerName: source.ProducerName,
			Product:      source.Product,
			Unit:         source.Unit,
			Quantity:     quantity,
			UnitPrice:    source.UnitPrice,
			Quality:      source.Quality,
		}
		if err := insertLot(ctx, tx, &dest); err != nil {
			return err
		}
		if err := insertMovement(ctx, tx, dest.ID, dest.MagasinID, domain.MovementTransferIn, quantity, in); err != nil {
			return err
		}
		transfer = &domain.Transfer{Source: *source, Destination: dest, Quantity: quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (r *lotRepository) GetByID(ctx context.Context, id int64) (*domain.Lot, error) {
	return scanLot(r.db.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id=$1`, id))
}

func (r *lotRepository) ListByMagasin(ctx context.Context, magasinID int64, limit, offset int) ([]domain.Lot, error) {
	limit, offset = page(limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM lots WHERE magasin_id=$1 AND quantity > 0
             ORDER BY created_at DESC LIMIT %d OFFSET %d`, lotColumns, limit, offset)

	rows, err := r.db.Query(ctx, query, magasinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *lot)
	}
	return result, rows.Err()
}

func (r *lotRepository) ListMovements(ctx context.Context, magasinID int64, limit, offset int) ([]domain.Movement, error) {
	limit, offset = page(limit, offset)
	query := fmt.Sprintf(`SELECT id, lot_id, magasin_id, kind, quantity, actor_id, note, created_at
             FROM movements WHERE magasin_id=$1
             ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.Query(ctx, query, magasinID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Movement
	for rows.Next() {
		var m domain.Movement
		if err := rows.Scan(&m.ID, &m.LotID, &m.MagasinID, &m.Kind, &m.Quantity, &m.ActorID, &m.Note, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *lotRepository) Summary(ctx context.Context, magasinID int64) (*domain.MagasinSummary, error) {
	const query = `
        WITH stock AS (
            SELECT COUNT(*) FILTER (WHERE quantity > 0)                          AS lot_count,
                   COALESCE(SUM(quantity), 0)                                    AS qty,
                   COALESCE(SUM(quantity * unit_price), 0)                       AS value,
                   COALESCE(SUM(quantity * CASE quality WHEN 'A' THEN 3
                                                        WHEN 'B' THEN 2
                                                        ELSE 1 END), 0)          AS quality_weight
            FROM lots WHERE magasin_id=$1
        ), moves AS (
            SELECT COALESCE(SUM(quantity) FILTER (WHERE kind='ADMISSION'), 0)    AS admitted,
                   COALESCE(SUM(quantity) FILTER (WHERE kind='WITHDRAWAL'), 0)   AS withdrawn,
                   COALESCE(SUM(quantity) FILTER (WHERE kind='TRANSFER_IN'), 0)  AS transferred_in,
                   COALESCE(SUM(quantity) FILTER (WHERE kind='TRANSFER_OUT'), 0) AS transferred_out
            FROM movements WHERE magasin_id=$1
        )
        SELECT lot_count, qty, value, quality_weight, admitted, withdrawn, transferred_in, transferred_out
        FROM stock, moves`

	summary := domain.MagasinSummary{MagasinID: magasinID}
	var qualityWeight float64
	if err := r.db.QueryRow(ctx, query, magasinID).Scan(
		&summary.LotCount,
		&summary.StockQuantity,
		&summary.StockValue,
		&qualityWeight,
		&summary.Admitted,
		&summary.Withdrawn,
		&summary.TransferredIn,
		&summary.TransferredOut,
	); err != nil {
		return nil, err
	}
	if summary.StockQuantity > 0 {
		summary.AverageQuality = domain.QualityFromScore(qualityWeight / summary.StockQuantity)
	}
	return &summary, nil
}

func insertLot(ctx context.Context, tx pgx.Tx, lot *domain.Lot) error {
	const query = `
        INSERT INTO lots (reference, magasin_id, producer_name, product, unit, quantity, unit_price, quality)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return tx.QueryRow(ctx, query,
		lot.Reference,
		lot.MagasinID,
		lot.ProducerName,
		lot.Product,
		lot.Unit,
		lot.Quantity,
		lot.UnitPrice,
		lot.Quality,
	).Scan(&lot.ID, &lot.CreatedAt, &lot.UpdatedAt)
}

// reserveCapacity locks the magasin row so concurrent admissions into the same
// magasin serialize on the stock check. A capacity of 0 means unlimited.
func reserveCapacity(ctx context.Context, tx pgx.Tx, magasinID int64, quantity float64) error {
	var capacity float64
	if err := tx.QueryRow(ctx, `SELECT capacity FROM magasins WHERE id=$1 FOR UPDATE`, magasinID).Scan(&capacity); err != nil {
		return err
	}
	if capacity <= 0 {
		return nil
	}

	var stock float64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM lots WHERE magasin_id=$1`, magasinID).Scan(&stock); err != nil {
		return err
	}
	if stock+quantity > capacity {
		return &domain.CapacityError{MagasinID: magasinID, Capacity: capacity, Available: capacity - stock}
	}
	return nil
}

// decrementLot locks the lot row before checking the remaining quantity.
func decrementLot(ctx context.Context, tx pgx.Tx, lotID int64, quantity float64) (*domain.Lot, error) {
	lot, err := scanLot(tx.QueryRow(ctx, `SELECT `+lotColumns+` FROM lots WHERE id=$1 FOR UPDATE`, lotID))
	if err != nil {
		return nil, err
	}
	if lot.Quantity < quantity {
		return nil, domain.ErrInsufficientStock
	}

	const update = `UPDATE lots SET quantity = quantity - $1, updated_at=NOW() WHERE id=$2 RETURNING quantity, updated_at`
	if err := tx.QueryRow(ctx, update, quantity, lotID).Scan(&lot.Quantity, &lot.UpdatedAt); err != nil {
		return nil, err
	}
	return lot, nil
}

func insertMovement(ctx context.Context, tx pgx.Tx, lotID, magasinID int64, kind domain.MovementKind, quantity float64, in MovementInput) error {
	const query = `
        INSERT INTO movements (lot_id, magasin_id, kind, quantity, actor_id, note)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := tx.Exec(ctx, query, lotID, magasinID, kind, quantity, in.ActorID, in.Note)
	return err
}

func scanLot(row pgx.Row) (*domain.Lot, error) {
	var lot domain.Lot
	if err := row.Scan(
		&lot.ID,
		&lot.Reference,
		&lot.MagasinID,
		&lot.ProducerName,
		&lot.Product,
		&lot.Unit,
		&lot.Quantity,
		&lot.UnitPrice,
		&lot.Quality,
		&lot.CreatedAt,
		&lot.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lot, nil
}

func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
