package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agricoop/magasin-service/internal/domain"
	"github.com/agricoop/magasin-service/internal/events"
	"github.com/agricoop/magasin-service/internal/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeMagasinRepo struct {
	magasins map[int64]*domain.Magasin
}

func newFakeMagasinRepo(magasins ...domain.Magasin) *fakeMagasinRepo {
	r := &fakeMagasinRepo{magasins: make(map[int64]*domain.Magasin)}
	for i := range magasins {
		m := magasins[i]
		r.magasins[m.ID] = &m
	}
	return r
}

func (r *fakeMagasinRepo) Create(_ context.Context, m *domain.Magasin) error {
	for _, existing := range r.magasins {
		if existing.Code == m.Code {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	m.ID = int64(len(r.magasins) + 1)
	clone := *m
	r.magasins[m.ID] = &clone
	return nil
}

func (r *fakeMagasinRepo) Update(_ context.Context, m *domain.Magasin) error {
	if _, ok := r.magasins[m.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *m
	r.magasins[m.ID] = &clone
	return nil
}

func (r *fakeMagasinRepo) GetByID(_ context.Context, id int64) (*domain.Magasin, error) {
	if m, ok := r.magasins[id]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeMagasinRepo) List(_ context.Context, activeOnly bool) ([]domain.Magasin, error) {
	var out []domain.Magasin
	for id := int64(1); id <= int64(len(r.magasins)); id++ {
		m, ok := r.magasins[id]
		if !ok || (activeOnly && !m.Active) {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

type fakeLotRepo struct {
	nextID    int64
	lots      map[int64]*domain.Lot
	movements []domain.Movement
	capacity  map[int64]float64
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: make(map[int64]*domain.Lot), capacity: make(map[int64]float64)}
}

func (r *fakeLotRepo) reserve(magasinID int64, qty float64) error {
	capacity := r.capacity[magasinID]
	if capacity <= 0 {
		return nil
	}
	var stock float64
	for _, lot := range r.lots {
		if lot.MagasinID == magasinID {
			stock += lot.Quantity
		}
	}
	if stock+qty > capacity {
		return &domain.CapacityError{MagasinID: magasinID, Capacity: capacity, Available: capacity - stock}
	}
	return nil
}

func (r *fakeLotRepo) insert(lot *domain.Lot) {
	r.nextID++
	lot.ID = r.nextID
	clone := *lot
	r.lots[lot.ID] = &clone
}

func (r *fakeLotRepo) record(lot *domain.Lot, kind domain.MovementKind, qty float64, in repository.MovementInput) {
	r.movements = append(r.movements, domain.Movement{
		ID:        int64(len(r.movements) + 1),
		LotID:     lot.ID,
		MagasinID: lot.MagasinID,
		Kind:      kind,
		Quantity:  qty,
		ActorID:   in.ActorID,
		Note:      in.Note,
	})
}

func (r *fakeLotRepo) Admit(_ context.Context, lot *domain.Lot, in repository.MovementInput) error {
	if err := r.reserve(lot.MagasinID, lot.Quantity); err != nil {
		return err
	}
	r.insert(lot)
	r.record(lot, domain.MovementAdmission, lot.Quantity, in)
	return nil
}

func (r *fakeLotRepo) decrement(lotID int64, qty float64) (*domain.Lot, error) {
	lot, ok := r.lots[lotID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if lot.Quantity < qty {
		return nil, domain.ErrInsufficientStock
	}
	lot.Quantity -= qty
	clone := *lot
	return &clone, nil
}

func (r *fakeLotRepo) Withdraw(_ context.Context, lotID int64, qty float64, in repository.MovementInput) (*domain.Lot, error) {
	lot, err := r.decrement(lotID, qty)
	if err != nil {
		return nil, err
	}
	r.record(lot, domain.MovementWithdrawal, qty, in)
	return lot, nil
}

func (r *fakeLotRepo) Transfer(_ context.Context, lotID, destinationID int64, qty float64, reference string, in repository.MovementInput) (*domain.Transfer, error) {
	if err := r.reserve(destinationID, qty); err != nil {
		return nil, err
	}
	source, err := r.decrement(lotID, qty)
	if err != nil {
		return nil, err
	}
	r.record(source, domain.MovementTransferOut, qty, in)
	dest := domain.Lot{
		Reference:    reference,
		MagasinID:    destinationID,
		ProducerName: source.ProducerName,
		Product:      source.Product,
		Unit:         source.Unit,
		Quantity:     qty,
		UnitPrice:    source.UnitPrice,
		Quality:      source.Quality,
	}
	r.insert(&dest)
	r.record(&dest, domain.MovementTransferIn, qty, in)
	return &domain.Transfer{Source: *source, Destination: dest, Quantity: qty}, nil
}

func (r *fakeLotRepo) GetByID(_ context.Context, id int64) (*domain.Lot, error) {
	if lot, ok := r.lots[id]; ok {
		clone := *lot
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeLotRepo) ListByMagasin(_ context.Context, magasinID int64, _, _ int) ([]domain.Lot, error) {
	var out []domain.Lot
	for id := int64(1); id <= r.nextID; id++ {
		if lot, ok := r.lots[id]; ok && lot.MagasinID == magasinID && lot.Quantity > 0 {
			out = append(out, *lot)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) ListMovements(_ context.Context, magasinID int64, _, _ int) ([]domain.Movement, error) {
	var out []domain.Movement
	for _, m := range r.movements {
		if m.MagasinID == magasinID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeLotRepo) Summary(_ context.Context, magasinID int64) (*domain.MagasinSummary, error) {
	s := &domain.MagasinSummary{MagasinID: magasinID}
	var weight float64
	for _, lot := range r.lots {
		if lot.MagasinID != magasinID {
			continue
		}
		if lot.Quantity > 0 {
			s.LotCount++
		}
		s.StockQuantity += lot.Quantity
		s.StockValue += lot.Value()
		weight += lot.Quantity * lot.Quality.Score()
	}
	for _, m := range r.movements {
		if m.MagasinID != magasinID {
			continue
		}
		switch m.Kind {
		case domain.MovementAdmission:
			s.Admitted += m.Quantity
		case domain.MovementWithdrawal:
			s.Withdrawn += m.Quantity
		case domain.MovementTransferIn:
			s.TransferredIn += m.Quantity
		case domain.MovementTransferOut:
			s.TransferredOut += m.Quantity
		}
	}
	if s.StockQuantity > 0 {
		s.AverageQuality = domain.QualityFromScore(weight / s.StockQuantity)
	}
	return s, nil
}

type fakeThrottle struct {
	failures map[string]int64
	err      error
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{failures: make(map[string]int64)}
}

func (f *fakeThrottle) FailedLogins(_ context.Context, username string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.failures[username], nil
}

func (f *fakeThrottle) RecordFailedLogin(_ context.Context, username string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.failures[username]++
	return f.failures[username], nil
}

func (f *fakeThrottle) ResetFailedLogins(_ context.Context, username string) error {
	delete(f.failures, username)
	return f.err
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func newRecordingDispatcher(types ...events.EventType) (events.Dispatcher, *recorder) {
	d := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, t := range types {
		d.Subscribe(t, func(_ context.Context, e events.Event) error {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.events = append(rec.events, e)
			return nil
		})
	}
	return d, rec
}
