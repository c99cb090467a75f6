package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agricoop/magasin-service/internal/domain"
)

var (
	lotCols = []string{"id", "reference", "magasin_id", "producer_name", "product", "unit", "quantity", "unit_price", "quality", "created_at", "updated_at"}

	lockMagasinSQL = regexp.QuoteMeta(`SELECT capacity FROM magasins WHERE id=$1 FOR UPDATE`)
	stockSQL       = regexp.QuoteMeta(`SELECT COALESCE(SUM(quantity), 0) FROM lots WHERE magasin_id=$1`)
	lockLotSQL     = regexp.QuoteMeta(`SELECT ` + lotColumns + ` FROM lots WHERE id=$1 FOR UPDATE`)
	decrementSQL   = regexp.QuoteMeta(`UPDATE lots SET quantity = quantity - $1, updated_at=NOW() WHERE id=$2 RETURNING quantity, updated_at`)
	insertLotSQL   = `INSERT INTO lots`
	insertMoveSQL  = `INSERT INTO movements`
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, LotRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewLotRepository(mock)
}

func maizeLot(now time.Time, quantity float64) *pgxmock.Rows {
	return pgxmock.NewRows(lotCols).AddRow(
		int64(7), "BKO-0001", int64(1), "Awa Traore", "maize", "kg",
		quantity, 150.0, domain.QualityA, now, now,
	)
}

func TestAdmitReservesCapacityInsideTransaction(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()
	lot := &domain.Lot{
		Reference: "BKO-0002", MagasinID: 1, ProducerName: "Awa Traore",
		Product: "maize", Unit: "kg", Quantity: 100, UnitPrice: 150, Quality: domain.QualityB,
	}
	in := MovementInput{ActorID: 3, Note: "harvest"}

	mock.ExpectBegin()
	mock.ExpectQuery(lockMagasinSQL).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"capacity"}).AddRow(1000.0))
	mock.ExpectQuery(stockSQL).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(900.0))
	mock.ExpectQuery(insertLotSQL).
		WithArgs("BKO-0002", int64(1), "Awa Traore", "maize", "kg", 100.0, 150.0, domain.QualityB).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectExec(insertMoveSQL).
		WithArgs(int64(11), int64(1), domain.MovementAdmission, 100.0, int64(3), "harvest").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Admit(context.Background(), lot, in))
	assert.Equal(t, int64(11), lot.ID)
	assert.Equal(t, now, lot.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitOverCapacityRollsBack(t *testing.T) {
	mock, repo := newMockRepo(t)
	lot := &domain.Lot{MagasinID: 1, Quantity: 101, Quality: domain.QualityA}

	mock.ExpectBegin()
	mock.ExpectQuery(lockMagasinSQL).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"capacity"}).AddRow(1000.0))
	mock.ExpectQuery(stockSQL).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(900.0))
	mock.ExpectRollback()

	err := repo.Admit(context.Background(), lot, MovementInput{ActorID: 3})
	require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	var capErr *domain.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 100.0, capErr.Available)
	assert.Zero(t, lot.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdmitUnlimitedMagasinSkipsStockSum(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()
	lot := &domain.Lot{Reference: "BKO-0003", MagasinID: 2, Quantity: 5000, UnitPrice: 10, Quality: domain.QualityC}

	mock.ExpectBegin()
	mock.ExpectQuery(lockMagasinSQL).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"capacity"}).AddRow(0.0))
	mock.ExpectQuery(insertLotSQL).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(12), now, now))
	mock.ExpectExec(insertMoveSQL).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Admit(context.Background(), lot, MovementInput{ActorID: 3}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawLocksLotAndRecordsMovement(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()
	later := now.Add(time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(lockLotSQL).WithArgs(int64(7)).WillReturnRows(maizeLot(now, 40))
	mock.ExpectQuery(decrementSQL).WithArgs(15.0, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"quantity", "updated_at"}).AddRow(25.0, later))
	mock.ExpectExec(insertMoveSQL).
		WithArgs(int64(7), int64(1), domain.MovementWithdrawal, 15.0, int64(4), "sale").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	lot, err := repo.Withdraw(context.Background(), 7, 15, MovementInput{ActorID: 4, Note: "sale"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, lot.Quantity)
	assert.Equal(t, later, lot.UpdatedAt)
	assert.Equal(t, domain.QualityA, lot.Quality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawInsufficientStockRollsBack(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockLotSQL).WithArgs(int64(7)).WillReturnRows(maizeLot(time.Now(), 40))
	mock.ExpectRollback()

	lot, err := repo.Withdraw(context.Background(), 7, 41, MovementInput{ActorID: 4})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, lot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawUnknownLot(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockLotSQL).WithArgs(int64(99)).WillReturnRows(pgxmock.NewRows(lotCols))
	mock.ExpectRollback()

	_, err := repo.Withdraw(context.Background(), 99, 1, MovementInput{ActorID: 4})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferWritesBothLegsInOneTransaction(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()
	in := MovementInput{ActorID: 5, Note: "rebalance"}

	mock.ExpectBegin()
	mock.ExpectQuery(lockLotSQL).WithArgs(int64(7)).WillReturnRows(maizeLot(now, 40))
	mock.ExpectQuery(decrementSQL).WithArgs(10.0, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"quantity", "updated_at"}).AddRow(30.0, now))
	mock.ExpectExec(insertMoveSQL).
		WithArgs(int64(7), int64(1), domain.MovementTransferOut, 10.0, int64(5), "rebalance").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(lockMagasinSQL).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"capacity"}).AddRow(500.0))
	mock.ExpectQuery(stockSQL).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(100.0))
	mock.ExpectQuery(insertLotSQL).
		WithArgs("SKS-0001", int64(2), "Awa Traore", "maize", "kg", 10.0, 150.0, domain.QualityA).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(21), now, now))
	mock.ExpectExec(insertMoveSQL).
		WithArgs(int64(21), int64(2), domain.MovementTransferIn, 10.0, int64(5), "rebalance").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	transfer, err := repo.Transfer(context.Background(), 7, 2, 10, "SKS-0001", in)
	require.NoError(t, err)
	assert.Equal(t, 30.0, transfer.Source.Quantity)
	assert.Equal(t, int64(21), transfer.Destination.ID)
	assert.Equal(t, int64(2), transfer.Destination.MagasinID)
	assert.Equal(t, 150.0, transfer.Destination.UnitPrice)
	assert.Equal(t, 10.0, transfer.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferIntoFullMagasinRollsBackSource(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(lockLotSQL).WithArgs(int64(7)).WillReturnRows(maizeLot(now, 40))
	mock.ExpectQuery(decrementSQL).WithArgs(10.0, int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"quantity", "updated_at"}).AddRow(30.0, now))
	mock.ExpectExec(insertMoveSQL).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(lockMagasinSQL).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"capacity"}).AddRow(50.0))
	mock.ExpectQuery(stockSQL).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(45.0))
	mock.ExpectRollback()

	transfer, err := repo.Transfer(context.Background(), 7, 2, 10, "SKS-0002", MovementInput{ActorID: 5})
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
	assert.Nil(t, transfer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryAggregates(t *testing.T) {
	mock, repo := newMockRepo(t)

	cols := []string{"lot_count", "qty", "value", "quality_weight", "admitted", "withdrawn", "transferred_in", "transferred_out"}
	mock.ExpectQuery(`WITH stock AS`).WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(2), 100.0, 15000.0, 250.0, 150.0, 30.0, 10.0, 30.0))

	summary, err := repo.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.MagasinID)
	assert.Equal(t, int64(2), summary.LotCount)
	assert.Equal(t, 100.0, summary.StockQuantity)
	assert.Equal(t, 15000.0, summary.StockValue)
	assert.Equal(t, 150.0, summary.Admitted)
	assert.Equal(t, 30.0, summary.TransferredOut)
	assert.Equal(t, domain.QualityA, summary.AverageQuality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryEmptyMagasinHasNoQuality(t *testing.T) {
	mock, repo := newMockRepo(t)

	cols := []string{"lot_count", "qty", "value", "quality_weight", "admitted", "withdrawn", "transferred_in", "transferred_out"}
	mock.ExpectQuery(`WITH stock AS`).WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(0), 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0))

	summary, err := repo.Summary(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, domain.Quality(""), summary.AverageQuality)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingMagasin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewMagasinRepository(mock)

	mock.ExpectExec(`UPDATE magasins SET`).
		WithArgs("Sikasso", "Sikasso", 500.0, true, int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Update(context.Background(), &domain.Magasin{ID: 42, Name: "Sikasso", Region: "Sikasso", Capacity: 500, Active: true})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{20, 40, 20, 40},
		{500, -3, 50, 0},
		{200, 10, 200, 10},
	}
	for _, tt := range tests {
		limit, offset := page(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Fatalf("page(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
