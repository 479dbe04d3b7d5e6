package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/garyjia/fleet-reimbursement/internal/domain/entity"
	"github.com/garyjia/fleet-reimbursement/internal/domain/workflow"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
	calls               int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// mockRateRepo keeps one configuration per company in memory
type mockRateRepo struct {
	configs          map[int64]*entity.RateConfiguration
	listBandsCalls   int
	listBandsFunc    func(ctx context.Context, companyID int64, kind entity.RequestKind, vt entity.VehicleType) ([]entity.RateBand, error)
	createFunc       func(ctx context.Context, cfg *entity.RateConfiguration) error
	replaceBandsFunc func(ctx context.Context, cfg *entity.RateConfiguration) error
}

func newMockRateRepo() *mockRateRepo {
	return &mockRateRepo{configs: make(map[int64]*entity.RateConfiguration)}
}

func (m *mockRateRepo) Create(ctx context.Context, cfg *entity.RateConfiguration) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, cfg)
	}
	cfg.ID = int64(len(m.configs) + 1)
	m.configs[cfg.CompanyID] = cfg
	return nil
}

func (m *mockRateRepo) GetByCompanyID(ctx context.Context, companyID int64) (*entity.RateConfiguration, error) {
	cfg, ok := m.configs[companyID]
	if !ok {
		return nil, nil
	}
	copied := *cfg
	return &copied, nil
}

func (m *mockRateRepo) ReplaceBands(ctx context.Context, cfg *entity.RateConfiguration) error {
	if m.replaceBandsFunc != nil {
		return m.replaceBandsFunc(ctx, cfg)
	}
	m.configs[cfg.CompanyID] = cfg
	return nil
}

func (m *mockRateRepo) ListBands(ctx context.Context, companyID int64, kind entity.RequestKind, vt entity.VehicleType) ([]entity.RateBand, error) {
	m.listBandsCalls++
	if m.listBandsFunc != nil {
		return m.listBandsFunc(ctx, companyID, kind, vt)
	}
	cfg, ok := m.configs[companyID]
	if !ok {
		return nil, nil
	}
	return cfg.Table(kind, vt).Bands, nil
}

// mockCache misses on every read unless entries is set, in which case it
// stores tables per generation like the Redis cache
type mockCache struct {
	getFunc     func(ctx context.Context, companyID int64, kind entity.RequestKind, vt entity.VehicleType) ([]entity.RateBand, bool, error)
	setFunc     func(ctx context.Context, companyID int64, kind entity.RequestKind, vt entity.VehicleType, bands []entity.RateBand) error
	genErr      error
	entries     map[string][]entity.RateBand
	generations map[int64]int64
	sets        int
	invalidated []int64
}

func newStoringCache() *mockCache {
	return &mockCache{entries: make(map[string][]entity.RateBand)}
}

func cacheEntryKey(companyID, gen int64, kind entity.RequestKind, vt entity.VehicleType) string {
	return fmt.Sprintf("%d:%d:%s:%s", companyID, gen, kind, vt)
}

func (m *mockCache) Generation(ctx context.Context, companyID int64) (int64, error) {
	if m.genErr != nil {
		return 0, m.genErr
	}
	return m.generations[companyID], nil
}

func (m *mockCache) Get(ctx context.Context, companyID, gen int64, kind entity.RequestKind, vt entity.VehicleType) ([]entity.RateBand, bool, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, companyID, kind, vt)
	}
	if m.entries != nil {
		bands, ok := m.entries[cacheEntryKey(companyID, gen, kind, vt)]
		return bands, ok, nil
	}
	return nil, false, nil
}

func (m *mockCache) Set(ctx context.Context, companyID, gen int64, kind entity.RequestKind, vt entity.VehicleType, bands []entity.RateBand) error {
	m.sets++
	if m.setFunc != nil {
		return m.setFunc(ctx, companyID, kind, vt, bands)
	}
	if m.entries != nil {
		m.entries[cacheEntryKey(companyID, gen, kind, vt)] = bands
	}
	return nil
}

func (m *mockCache) InvalidateCompany(ctx context.Context, companyID int64) error {
	m.invalidated = append(m.invalidated, companyID)
	if m.generations == nil {
		m.generations = make(map[int64]int64)
	}
	m.generations[companyID]++
	return nil
}

type mockWorkbook struct {
	readBandsFunc func(r io.Reader) ([]entity.RateBand, []entity.RateBand, error)
	written       *entity.RateConfiguration
}

func (m *mockWorkbook) ReadBands(r io.Reader) ([]entity.RateBand, []entity.RateBand, error) {
	if m.readBandsFunc != nil {
		return m.readBandsFunc(r)
	}
	return nil, nil, nil
}

func (m *mockWorkbook) WriteBands(w io.Writer, cfg *entity.RateConfiguration) error {
	m.written = cfg
	_, err := io.WriteString(w, "xlsx")
	return err
}

type mockVehicleRepo struct {
	vehicles map[int64]*entity.Vehicle
}

func newMockVehicleRepo(vehicles ...*entity.Vehicle) *mockVehicleRepo {
	m := &mockVehicleRepo{vehicles: make(map[int64]*entity.Vehicle)}
	for _, v := range vehicles {
		m.vehicles[v.ID] = v
	}
	return m
}

func (m *mockVehicleRepo) Create(ctx context.Context, vehicle *entity.Vehicle) error {
	vehicle.ID = int64(len(m.vehicles) + 1)
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *mockVehicleRepo) GetByID(ctx context.Context, id int64) (*entity.Vehicle, error) {
	return m.vehicles[id], nil
}

func (m *mockVehicleRepo) List(ctx context.Context, vt entity.VehicleType) ([]*entity.Vehicle, error) {
	var out []*entity.Vehicle
	for _, v := range m.vehicles {
		if vt == "" || v.VehicleType == vt {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVehicleRepo) UpdateOdometer(ctx context.Context, id int64, odometer decimal.Decimal) error {
	v, ok := m.vehicles[id]
	if !ok {
		return fmt.Errorf("vehicle %d not found", id)
	}
	v.Odometer = odometer
	return nil
}

type mockRequestRepo struct {
	mu         sync.Mutex
	requests   map[int64]*entity.ReimbursementRequest
	createFunc func(ctx context.Context, req *entity.ReimbursementRequest) error
}

func newMockRequestRepo(requests ...*entity.ReimbursementRequest) *mockRequestRepo {
	m := &mockRequestRepo{requests: make(map[int64]*entity.ReimbursementRequest)}
	for _, r := range requests {
		m.requests[r.ID] = r
	}
	return m
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ReimbursementRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = int64(len(m.requests) + 1)
	m.requests[req.ID] = req
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ReimbursementRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	copied.TripSegments = nil
	copied.FuelSegments = nil
	return &copied, nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter entity.RequestFilter) ([]*entity.ReimbursementRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ReimbursementRequest
	for _, r := range m.requests {
		if filter.State == "" || r.State == filter.State {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRequestRepo) UpdateState(ctx context.Context, id int64, state workflow.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[id].State = state
	return nil
}

func (m *mockRequestRepo) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[id].TotalAmount = total
	return nil
}

func (m *mockRequestRepo) MarkPaid(ctx context.Context, id int64, paymentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[id].PaymentID = &paymentID
	m.requests[id].IsPaid = true
	return nil
}

// mockSegmentRepo stores copies so the service cannot mutate stored rows by pointer
type mockSegmentRepo struct {
	mu     sync.Mutex
	nextID int64
	trips  map[int64]entity.TripSegment
	fuel   map[int64]entity.FuelSegment
}

func newMockSegmentRepo() *mockSegmentRepo {
	return &mockSegmentRepo{
		trips: make(map[int64]entity.TripSegment),
		fuel:  make(map[int64]entity.FuelSegment),
	}
}

func (m *mockSegmentRepo) CreateTrip(ctx context.Context, seg *entity.TripSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	seg.ID = m.nextID
	m.trips[seg.ID] = *seg
	return nil
}

func (m *mockSegmentRepo) GetTrip(ctx context.Context, id int64) (*entity.TripSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.trips[id]
	if !ok {
		return nil, nil
	}
	return &seg, nil
}

func (m *mockSegmentRepo) ListTrips(ctx context.Context, requestID int64) ([]*entity.TripSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.TripSegment
	for _, s := range m.trips {
		if s.RequestID == requestID {
			seg := s
			out = append(out, &seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockSegmentRepo) UpdateTrip(ctx context.Context, seg *entity.TripSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[seg.ID] = *seg
	return nil
}

func (m *mockSegmentRepo) DeleteTrip(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, id)
	return nil
}

func (m *mockSegmentRepo) CreateFuel(ctx context.Context, seg *entity.FuelSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	seg.ID = m.nextID
	m.fuel[seg.ID] = *seg
	return nil
}

func (m *mockSegmentRepo) GetFuel(ctx context.Context, id int64) (*entity.FuelSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.fuel[id]
	if !ok {
		return nil, nil
	}
	return &seg, nil
}

func (m *mockSegmentRepo) ListFuel(ctx context.Context, requestID int64) ([]*entity.FuelSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.FuelSegment
	for _, s := range m.fuel {
		if s.RequestID == requestID {
			seg := s
			out = append(out, &seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockSegmentRepo) UpdateFuel(ctx context.Context, seg *entity.FuelSegment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fuel[seg.ID] = *seg
	return nil
}

func (m *mockSegmentRepo) DeleteFuel(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fuel, id)
	return nil
}

type mockHistoryRepo struct {
	histories []*entity.RequestHistory
	createErr error
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.RequestHistory) error {
	if m.createErr != nil {
		return m.createErr
	}
	history.ID = int64(len(m.histories) + 1)
	m.histories = append(m.histories, history)
	return nil
}

func (m *mockHistoryRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.RequestHistory, error) {
	var out []*entity.RequestHistory
	for _, h := range m.histories {
		if h.RequestID == requestID {
			out = append(out, h)
		}
	}
	return out, nil
}

type mockPaymentRepo struct {
	payments []*entity.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	payment.ID = int64(len(m.payments) + 100)
	m.payments = append(m.payments, payment)
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	for _, p := range m.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPaymentRepo) GetByRequestID(ctx context.Context, requestID int64) (*entity.Payment, error) {
	for _, p := range m.payments {
		if p.RequestID == requestID {
			return p, nil
		}
	}
	return nil, nil
}

type mockSequenceRepo struct {
	counters map[string]int
}

func (m *mockSequenceRepo) Next(ctx context.Context, code string) (string, error) {
	if m.counters == nil {
		m.counters = make(map[string]int)
	}
	m.counters[code]++
	prefix := map[string]string{"trip": "TRIP/", "fuel": "FUEL/"}[code]
	return fmt.Sprintf("%s%05d", prefix, m.counters[code]), nil
}
