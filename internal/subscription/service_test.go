// AngelaMos | 2026
// service_test.go

package subscription

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type fakePlan struct {
	name    string
	price   decimal.Decimal
	active  bool
	deleted bool
}

type fakeRepo struct {
	mu        sync.Mutex
	customers map[string]string
	plans     map[string]fakePlan
	subs      map[string]Subscription
	// blindCheck makes HasActive miss existing rows so the unique index path
	// can be exercised.
	blindCheck bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers: make(map[string]string),
		plans:     make(map[string]fakePlan),
		subs:      make(map[string]Subscription),
	}
}

func (f *fakeRepo) fill(s *Subscription) {
	s.CustomerName = f.customers[s.CustomerID]
	p := f.plans[s.PlanID]
	s.PlanName = p.name
	s.PlanPrice = p.price
}

func (f *fakeRepo) Create(_ context.Context, s *Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[s.CustomerID]; !ok {
		return fmt.Errorf("create subscription: %w", core.ErrNotFound)
	}
	if s.Status == StatusActive {
		for _, existing := range f.subs {
			if existing.CustomerID == s.CustomerID && existing.Status == StatusActive {
				return fmt.Errorf("create subscription: %w", ErrActiveExists)
			}
		}
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.subs[s.ID] = *s
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subs[id]
	if !ok {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	f.fill(&s)
	return &s, nil
}

func (f *fakeRepo) LockByID(ctx context.Context, id string) (*Subscription, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRepo) Update(_ context.Context, s *Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[s.ID]; !ok {
		return core.ErrNotFound
	}
	if s.Status == StatusActive {
		for id, existing := range f.subs {
			if id != s.ID && existing.CustomerID == s.CustomerID && existing.Status == StatusActive {
				return fmt.Errorf("update subscription: %w", ErrActiveExists)
			}
		}
	}
	s.UpdatedAt = time.Now()
	f.subs[s.ID] = *s
	return nil
}

func (f *fakeRepo) List(_ context.Context, params ListSubscriptionsParams) ([]Subscription, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Subscription
	for _, s := range f.subs {
		if params.CustomerID != "" && s.CustomerID != params.CustomerID {
			continue
		}
		if params.Status != "" && s.Status != params.Status {
			continue
		}
		f.fill(&s)
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeRepo) LockCustomer(_ context.Context, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[customerID]; !ok {
		return fmt.Errorf("lock customer: %w", core.ErrNotFound)
	}
	return nil
}

func (f *fakeRepo) PlanForShare(_ context.Context, planID string) (*PlanState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[planID]
	if !ok || p.deleted {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	return &PlanState{IsActive: p.active}, nil
}

func (f *fakeRepo) HasActive(_ context.Context, customerID, exceptID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.blindCheck {
		return false, nil
	}
	for id, s := range f.subs {
		if id != exceptID && s.CustomerID == customerID && s.Status == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

// serialTx runs one unit of work at a time and restores the subscription
// table when fn fails.
type serialTx struct {
	mu   sync.Mutex
	repo *fakeRepo
}

func (t *serialTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.repo.mu.Lock()
	snapshot := maps.Clone(t.repo.subs)
	t.repo.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.repo.mu.Lock()
		t.repo.subs = snapshot
		t.repo.mu.Unlock()
		return err
	}
	return nil
}

type fakeOwners map[string]string

func (o fakeOwners) CustomerIDForUser(_ context.Context, userID string) (string, error) {
	if id, ok := o[userID]; ok {
		return id, nil
	}
	return "", core.ErrNotFound
}

const (
	aliceID    = "c0000000-0000-0000-0000-00000000000a"
	bobID      = "c0000000-0000-0000-0000-00000000000b"
	basicID    = "b0000000-0000-0000-0000-000000000001"
	legacyID   = "b0000000-0000-0000-0000-000000000002"
	retiredID  = "b0000000-0000-0000-0000-000000000003"
	missingID  = "00000000-0000-0000-0000-000000000000"
	defaultDay = 30
)

var (
	adminClaim = policy.Claim{UserID: "admin-1", Username: "root", Role: policy.RoleAdmin}
	salesClaim = policy.Claim{UserID: "sales-1", Username: "sam", Role: policy.RoleSales}
	techClaim  = policy.Claim{UserID: "tech-1", Username: "tina", Role: policy.RoleTech}
	aliceClaim = policy.Claim{UserID: "user-alice", Username: "alice", Role: policy.RoleCustomer}
)

type fixture struct {
	svc  *Service
	repo *fakeRepo
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	repo.customers[aliceID] = "Alice"
	repo.customers[bobID] = "Bob"
	repo.plans[basicID] = fakePlan{name: "Basic", price: decimal.RequireFromString("29.99"), active: true}
	repo.plans[legacyID] = fakePlan{name: "Legacy", price: decimal.RequireFromString("9.99")}
	repo.plans[retiredID] = fakePlan{name: "Old", active: true, deleted: true}

	svc := NewService(repo, fakeOwners{aliceClaim.UserID: aliceID}, &serialTx{repo: repo}, Config{
		DefaultDays:          defaultDay,
		DefaultPaymentMethod: "cash",
	})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, repo: repo, now: now}
}

func (f *fixture) subscribe(t *testing.T, customerID string) *Subscription {
	t.Helper()
	sub, err := f.svc.Create(context.Background(), salesClaim, CreateSubscriptionRequest{
		CustomerID: customerID,
		PlanID:     basicID,
	})
	require.NoError(t, err)
	return sub
}

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)

	sub := f.subscribe(t, aliceID)

	assert.Equal(t, StatusActive, sub.Status)
	assert.Equal(t, "cash", sub.PaymentMethod)
	assert.Equal(t, f.now, sub.StartDate)
	require.NotNil(t, sub.EndDate)
	assert.Equal(t, f.now.AddDate(0, 0, defaultDay), *sub.EndDate)
	assert.Equal(t, "Basic", sub.PlanName)
	assert.Equal(t, "Alice", sub.CustomerName)
}

func TestCreateSecondActiveConflicts(t *testing.T) {
	f := newFixture(t)
	f.subscribe(t, aliceID)

	_, err := f.svc.Create(context.Background(), salesClaim, CreateSubscriptionRequest{
		CustomerID: aliceID,
		PlanID:     basicID,
	})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Len(t, f.repo.subs, 1, "no row written")

	f.subscribe(t, bobID)
}

func TestCreateUniqueIndexBackstop(t *testing.T) {
	f := newFixture(t)
	f.subscribe(t, aliceID)
	f.repo.blindCheck = true

	_, err := f.svc.Create(context.Background(), salesClaim, CreateSubscriptionRequest{
		CustomerID: aliceID,
		PlanID:     basicID,
	})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Len(t, f.repo.subs, 1)
}

func TestCreateConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), salesClaim, CreateSubscriptionRequest{
				CustomerID: aliceID,
				PlanID:     basicID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, core.ErrConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		claim policy.Claim
		req   CreateSubscriptionRequest
		want  error
	}{
		{"missing customer", salesClaim, CreateSubscriptionRequest{CustomerID: missingID, PlanID: basicID}, core.ErrNotFound},
		{"missing plan", salesClaim, CreateSubscriptionRequest{CustomerID: aliceID, PlanID: missingID}, core.ErrNotFound},
		{"retired plan", salesClaim, CreateSubscriptionRequest{CustomerID: aliceID, PlanID: retiredID}, core.ErrNotFound},
		{"inactive plan", salesClaim, CreateSubscriptionRequest{CustomerID: aliceID, PlanID: legacyID}, core.ErrInvalidState},
		{"tech", techClaim, CreateSubscriptionRequest{CustomerID: aliceID, PlanID: basicID}, core.ErrForbidden},
		{"customer", aliceClaim, CreateSubscriptionRequest{CustomerID: aliceID, PlanID: basicID}, core.ErrForbidden},
		{"past end date", salesClaim, CreateSubscriptionRequest{
			CustomerID: aliceID, PlanID: basicID, EndDate: ptr(f.now.Add(-time.Hour)),
		}, core.ErrInvalidInput},
		{"both durations", salesClaim, CreateSubscriptionRequest{
			CustomerID: aliceID, PlanID: basicID, EndDate: ptr(f.now.Add(time.Hour)), DurationDays: ptr(3),
		}, core.ErrInvalidInput},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.claim, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	assert.Empty(t, f.repo.subs)
}

func TestCreateExplicitPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, adminClaim, CreateSubscriptionRequest{
		CustomerID:    aliceID,
		PlanID:        basicID,
		PaymentMethod: "credit_card",
		DurationDays:  ptr(365),
	})
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(1, 0, 0), *sub.EndDate)
	assert.Equal(t, "credit_card", sub.PaymentMethod)

	end := f.now.Add(72 * time.Hour)
	sub, err = f.svc.Create(ctx, adminClaim, CreateSubscriptionRequest{
		CustomerID: bobID,
		PlanID:     basicID,
		EndDate:    &end,
	})
	require.NoError(t, err)
	assert.Equal(t, end, *sub.EndDate)
}

func TestUpdateStatusPermissive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.subscribe(t, aliceID)

	for _, status := range []Status{StatusSuspended, StatusInactive, StatusCancelled, StatusActive, StatusCancelled} {
		updated, err := f.svc.UpdateStatus(ctx, salesClaim, sub.ID, status)
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.Status)
	}

	_, err := f.svc.UpdateStatus(ctx, salesClaim, sub.ID, "paused")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.UpdateStatus(ctx, techClaim, sub.ID, StatusActive)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.UpdateStatus(ctx, salesClaim, missingID, StatusActive)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCancelFreesActiveSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.subscribe(t, aliceID)

	_, err := f.svc.UpdateStatus(ctx, salesClaim, first.ID, StatusCancelled)
	require.NoError(t, err)

	second := f.subscribe(t, aliceID)

	_, err = f.svc.UpdateStatus(ctx, salesClaim, first.ID, StatusActive)
	assert.ErrorIs(t, err, core.ErrConflict)

	stored, err := f.svc.Get(ctx, adminClaim, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status, "refused reactivation leaves the row unchanged")

	_, err = f.svc.UpdateStatus(ctx, salesClaim, second.ID, StatusActive)
	require.NoError(t, err, "already active is not a second activation")
}

func TestReactivateOnRetiredPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.subscribe(t, aliceID)

	_, err := f.svc.UpdateStatus(ctx, salesClaim, sub.ID, StatusSuspended)
	require.NoError(t, err)

	p := f.repo.plans[basicID]
	p.deleted = true
	f.repo.plans[basicID] = p

	_, err = f.svc.UpdateStatus(ctx, salesClaim, sub.ID, StatusActive)
	assert.ErrorIs(t, err, core.ErrInvalidState)
}

func TestCustomerVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.subscribe(t, aliceID)
	foreign := f.subscribe(t, bobID)

	got, err := f.svc.Get(ctx, aliceClaim, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = f.svc.Get(ctx, aliceClaim, foreign.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	subs, total, err := f.svc.List(ctx, aliceClaim, ListSubscriptionsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, own.ID, subs[0].ID)

	_, _, err = f.svc.List(ctx, aliceClaim, ListSubscriptionsParams{CustomerID: bobID})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, total, err = f.svc.List(ctx, techClaim, ListSubscriptionsParams{CustomerID: bobID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	_, total, err = f.svc.List(ctx, salesClaim, ListSubscriptionsParams{Status: StatusActive})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, _, err = f.svc.List(ctx, salesClaim, ListSubscriptionsParams{Status: "bogus"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUpdateBillingDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.subscribe(t, aliceID)

	method := "bank_transfer"
	updated, err := f.svc.Update(ctx, salesClaim, sub.ID, UpdateSubscriptionRequest{
		PaymentMethod: &method,
		ClearEndDate:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, method, updated.PaymentMethod)
	assert.Nil(t, updated.EndDate)

	_, err = f.svc.Update(ctx, salesClaim, sub.ID, UpdateSubscriptionRequest{EndDate: ptr(f.now.Add(-time.Hour))})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.Update(ctx, techClaim, sub.ID, UpdateSubscriptionRequest{PaymentMethod: &method})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestHandlerScenario(t *testing.T) {
	f := newFixture(t)

	serve := func(claim policy.Claim, method, path, body string) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		NewHandler(f.svc).RegisterRoutes(r, func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{Claim: claim})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec
	}

	body := `{"customer_id":"` + aliceID + `","plan_id":"` + basicID + `","payment_method":"cash"}`

	rec := serve(salesClaim, http.MethodPost, "/subscriptions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"active"`)

	rec = serve(salesClaim, http.MethodPost, "/subscriptions", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(salesClaim, http.MethodPost, "/subscriptions", `{"customer_id":"nope","plan_id":"`+basicID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var id string
	for k := range f.repo.subs {
		id = k
	}

	rec = serve(salesClaim, http.MethodPatch, "/subscriptions/"+id+"/status", `{"status":"frozen"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(techClaim, http.MethodPut, "/subscriptions/"+id+"/status", `{"status":"suspended"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(aliceClaim, http.MethodGet, "/subscriptions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func ptr[T any](v T) *T {
	return &v
}
