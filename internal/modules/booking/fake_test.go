package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"ridebook/internal/types"
)

// memStore is an in-memory Repository used by service tests.
type memStore struct {
	mu      sync.Mutex
	nextID  types.ID
	rows    map[types.ID]Booking
	numbers map[string]types.ID
	failDel  error
	failRead error
}

func newMemStore() *memStore {
	return &memStore{rows: map[types.ID]Booking{}, numbers: map[string]types.ID{}}
}

func (m *memStore) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.numbers[b.Number]; taken {
		return ErrDuplicateNumber
	}
	m.nextID++
	b.ID = m.nextID
	m.rows[b.ID] = *b
	m.numbers[b.Number] = b.ID
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead != nil {
		return nil, m.failRead
	}
	b, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memStore) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	m.mu.Lock()
	id, ok := m.numbers[number]
	fail := m.failRead
	m.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(ctx, id)
}

func (m *memStore) filter(keep func(Booking) bool) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRead != nil {
		return nil, m.failRead
	}
	out := make([]*Booking, 0)
	for _, b := range m.rows {
		if keep(b) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) List(context.Context) ([]*Booking, error) {
	return m.filter(func(Booking) bool { return true })
}

func (m *memStore) ListByCustomer(_ context.Context, customerID types.ID) ([]*Booking, error) {
	return m.filter(func(b Booking) bool { return b.CustomerID == customerID })
}

func (m *memStore) ListByDriver(_ context.Context, driverID types.ID) ([]*Booking, error) {
	return m.filter(func(b Booking) bool { return b.DriverID != nil && *b.DriverID == driverID })
}

func (m *memStore) SetStatus(_ context.Context, id types.ID, to Status, clearDriver bool) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	b.Status = to
	b.StatusVersion++
	if clearDriver {
		b.DriverID = nil
	}
	m.rows[id] = b
	return &b, nil
}

func (m *memStore) Update(_ context.Context, next *Booking) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rows[next.ID]
	if !ok {
		return nil, ErrNotFound
	}
	b := *next
	b.Number = cur.Number
	b.CustomerID = cur.CustomerID
	b.BookingDate = cur.BookingDate
	b.StatusVersion = cur.StatusVersion + 1
	m.rows[b.ID] = b
	return &b, nil
}

func (m *memStore) Delete(_ context.Context, id types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel != nil {
		return false, m.failDel
	}
	b, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	delete(m.rows, id)
	delete(m.numbers, b.Number)
	return true, nil
}

// scriptedNumbers replays fixed numbers, then falls back to a counter.
type scriptedNumbers struct {
	mu     sync.Mutex
	script []string
	n      int
	err    error
}

func (g *scriptedNumbers) Next(context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if len(g.script) > 0 {
		v := g.script[0]
		g.script = g.script[1:]
		return v, nil
	}
	g.n++
	return fmt.Sprintf("BKTEST%04d", g.n), nil
}

var errStoreDown = errors.New("store unavailable")
