// AngelaMos | 2026
// service_test.go

package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

type fakeRepo struct {
	mu         sync.Mutex
	plans      map[string]ServicePlan
	activeSubs map[string]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:      make(map[string]ServicePlan),
		activeSubs: make(map[string]int),
	}
}

func (f *fakeRepo) Create(_ context.Context, p *ServicePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.plans[p.ID] = *p
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*ServicePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok || p.DeletedAt != nil {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	return &p, nil
}

func (f *fakeRepo) LockByID(ctx context.Context, id string) (*ServicePlan, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRepo) Update(_ context.Context, p *ServicePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plans[p.ID] = *p
	return nil
}

func (f *fakeRepo) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok || p.DeletedAt != nil {
		return core.ErrNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	p.IsActive = false
	f.plans[id] = p
	return nil
}

func (f *fakeRepo) List(_ context.Context, activeOnly bool) ([]ServicePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ServicePlan
	for _, p := range f.plans {
		if p.DeletedAt == nil && (p.IsActive || !activeOnly) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountActiveSubscriptions(_ context.Context, planID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeSubs[planID], nil
}

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	adminClaim = policy.Claim{UserID: "admin-1", Username: "root", Role: policy.RoleAdmin}
	salesClaim = policy.Claim{UserID: "sales-1", Username: "sam", Role: policy.RoleSales}
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func basicPlan(t *testing.T, svc *Service) *ServicePlan {
	t.Helper()
	p, err := svc.Create(context.Background(), adminClaim, CreatePlanRequest{
		Name:  "Basic",
		Speed: "25 Mbps",
		Price: price("29.99"),
	})
	require.NoError(t, err)
	return p
}

func TestCreatePlan(t *testing.T) {
	svc := NewService(newFakeRepo(), inlineTx{})
	ctx := context.Background()

	p := basicPlan(t, svc)
	assert.True(t, p.IsActive)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("29.99")))

	_, err := svc.Create(ctx, salesClaim, CreatePlanRequest{Name: "X", Speed: "1", Price: price("1")})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, adminClaim, CreatePlanRequest{Name: "X", Speed: "1", Price: price("-0.01")})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	free, err := svc.Create(ctx, adminClaim, CreatePlanRequest{Name: "Free", Speed: "1 Mbps", Price: price("0")})
	require.NoError(t, err)
	assert.True(t, free.Price.IsZero())
}

func TestListActiveOnly(t *testing.T) {
	svc := NewService(newFakeRepo(), inlineTx{})
	ctx := context.Background()
	basicPlan(t, svc)

	inactive := false
	_, err := svc.Create(ctx, adminClaim, CreatePlanRequest{
		Name: "Legacy", Speed: "5 Mbps", Price: price("9.99"), IsActive: &inactive,
	})
	require.NoError(t, err)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdatePlan(t *testing.T) {
	svc := NewService(newFakeRepo(), inlineTx{})
	p := basicPlan(t, svc)
	ctx := context.Background()

	updated, err := svc.Update(ctx, adminClaim, p.ID, UpdatePlanRequest{Price: price("34.99")})
	require.NoError(t, err)
	assert.Equal(t, "34.99", updated.Price.StringFixed(2))
	assert.Equal(t, "Basic", updated.Name)

	_, err = svc.Update(ctx, adminClaim, p.ID, UpdatePlanRequest{Price: price("-1")})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Update(ctx, salesClaim, p.ID, UpdatePlanRequest{Price: price("1")})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestDeleteRefusedWithActiveSubscriptions(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, inlineTx{})
	p := basicPlan(t, svc)
	repo.activeSubs[p.ID] = 1
	ctx := context.Background()

	err := svc.Delete(ctx, adminClaim, p.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConflict)

	var appErr *core.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.StatusCode)
	assert.Equal(t, 1, appErr.Details["active_subscriptions"])

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err, "plan survives a refused delete")

	repo.activeSubs[p.ID] = 0
	require.NoError(t, svc.Delete(ctx, adminClaim, p.ID))

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = svc.Delete(ctx, adminClaim, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestHandlerDeleteConflictBody(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, inlineTx{})
	p := basicPlan(t, svc)
	repo.activeSubs[p.ID] = 1

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{Claim: adminClaim})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	req := httptest.NewRequest(http.MethodDelete, "/plans/"+p.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "CONFLICT", body.Error.Code)
	assert.EqualValues(t, 1, body.Error.Details["active_subscriptions"])
}

func TestHandlerPublicList(t *testing.T) {
	svc := NewService(newFakeRepo(), inlineTx{})
	basicPlan(t, svc)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":"29.99"`)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"name":"x","speed":"1","price":1}`)
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/plans", body))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
