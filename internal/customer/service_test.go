// AngelaMos | 2026
// service_test.go

package customer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type fakeRepo struct {
	mu        sync.Mutex
	customers map[string]Customer
	lookups   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{customers: make(map[string]Customer)}
}

func (f *fakeRepo) Create(_ context.Context, c *Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.customers {
		if existing.Email == c.Email {
			return fmt.Errorf("create customer: %w", core.ErrDuplicateKey)
		}
	}
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	f.customers[c.ID] = *c
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("get customer: %w", core.ErrNotFound)
	}
	return &c, nil
}

func (f *fakeRepo) GetByUserID(_ context.Context, userID string) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.customers {
		if c.UserID != nil && *c.UserID == userID {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("get customer by user: %w", core.ErrNotFound)
}

func (f *fakeRepo) Update(_ context.Context, c *Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[c.ID]; !ok {
		return core.ErrNotFound
	}
	f.customers[c.ID] = *c
	return nil
}

func (f *fakeRepo) List(_ context.Context, params ListCustomersParams) ([]Customer, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Customer
	for _, c := range f.customers {
		if params.Search == "" || strings.Contains(c.Name, params.Search) {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

var (
	salesClaim = policy.Claim{UserID: "sales-1", Username: "sam", Role: policy.RoleSales}
	techClaim  = policy.Claim{UserID: "tech-1", Username: "tina", Role: policy.RoleTech}
	aliceClaim = policy.Claim{UserID: "user-alice", Username: "alice", Role: policy.RoleCustomer}
	bobClaim   = policy.Claim{UserID: "user-bob", Username: "bob", Role: policy.RoleCustomer}
)

func seed(t *testing.T) (*Service, *fakeRepo, string, string) {
	t.Helper()
	repo := newFakeRepo()
	svc := NewService(repo)
	ctx := context.Background()

	alice, err := svc.CreateLinkedProfile(ctx, aliceClaim.UserID, "alice", "Alice@x.com")
	require.NoError(t, err)
	bob, err := svc.CreateLinkedProfile(ctx, bobClaim.UserID, "bob", "bob@x.com")
	require.NoError(t, err)

	return svc, repo, alice, bob
}

func TestCreateLinkedProfile(t *testing.T) {
	svc, repo, alice, _ := seed(t)

	c := repo.customers[alice]
	assert.Equal(t, "alice", c.Name)
	assert.Equal(t, "alice@x.com", c.Email)
	assert.Equal(t, types.JSONText(`{}`), c.BillingInfo)

	id, err := svc.CustomerIDForUser(context.Background(), aliceClaim.UserID)
	require.NoError(t, err)
	assert.Equal(t, alice, id)
}

func TestCreateByStaff(t *testing.T) {
	svc, _, _, _ := seed(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, salesClaim, CreateCustomerRequest{
		Name:           "Carol",
		Email:          "carol@x.com",
		ServiceAddress: types.JSONText(`{"street":"1 Main St"}`),
	})
	require.NoError(t, err)
	assert.Nil(t, c.UserID)
	assert.JSONEq(t, `{"street":"1 Main St"}`, string(c.ServiceAddress))
	assert.Equal(t, types.JSONText(`{}`), c.PersonalInfo)

	_, err = svc.Create(ctx, salesClaim, CreateCustomerRequest{Name: "Dup", Email: "carol@x.com"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)

	_, err = svc.Create(ctx, techClaim, CreateCustomerRequest{Name: "X", Email: "x@x.com"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = svc.Create(ctx, aliceClaim, CreateCustomerRequest{Name: "X", Email: "x@x.com"})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCustomerSeesOnlyOwnProfile(t *testing.T) {
	svc, repo, alice, bob := seed(t)
	ctx := context.Background()

	c, err := svc.Get(ctx, aliceClaim, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", c.Name)

	before := repo.lookups
	_, err = svc.Get(ctx, aliceClaim, bob)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Equal(t, before, repo.lookups, "foreign profile is never fetched")

	_, err = svc.Get(ctx, aliceClaim, "does-not-exist")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, _, err = svc.List(ctx, aliceClaim, ListCustomersParams{})
	assert.ErrorIs(t, err, core.ErrForbidden)

	customers, total, err := svc.List(ctx, techClaim, ListCustomersParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, customers, 2)
}

func TestUpdate(t *testing.T) {
	svc, _, alice, bob := seed(t)
	ctx := context.Background()

	phone := "555-0100"
	c, err := svc.Update(ctx, aliceClaim, alice, UpdateCustomerRequest{
		Phone:       &phone,
		BillingInfo: types.JSONText(`{"card":"visa"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, phone, *c.Phone)
	assert.JSONEq(t, `{"card":"visa"}`, string(c.BillingInfo))

	_, err = svc.Update(ctx, aliceClaim, bob, UpdateCustomerRequest{Phone: &phone})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Update(ctx, techClaim, bob, UpdateCustomerRequest{Phone: &phone})
	assert.ErrorIs(t, err, core.ErrForbidden)

	empty := "  "
	_, err = svc.Update(ctx, salesClaim, bob, UpdateCustomerRequest{Name: &empty})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestCustomerWithoutProfileIsForbidden(t *testing.T) {
	svc, _, alice, _ := seed(t)
	orphan := policy.Claim{UserID: "user-orphan", Username: "o", Role: policy.RoleCustomer}

	_, err := svc.Get(context.Background(), orphan, alice)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func withClaim(claim policy.Claim) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{Claim: claim})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func TestHandlerStatusCodes(t *testing.T) {
	svc, _, alice, bob := seed(t)

	tests := []struct {
		name   string
		claim  policy.Claim
		method string
		path   string
		body   string
		status int
	}{
		{"own profile", aliceClaim, http.MethodGet, "/customers/" + alice, "", http.StatusOK},
		{"me", aliceClaim, http.MethodGet, "/customers/me", "", http.StatusOK},
		{"foreign profile hidden", aliceClaim, http.MethodGet, "/customers/" + bob, "", http.StatusNotFound},
		{"customer cannot list", aliceClaim, http.MethodGet, "/customers", "", http.StatusForbidden},
		{"tech lists", techClaim, http.MethodGet, "/customers?page=1&page_size=1", "", http.StatusOK},
		{"tech cannot create", techClaim, http.MethodPost, "/customers", `{"name":"x","email":"x@x.com"}`, http.StatusForbidden},
		{"invalid email", salesClaim, http.MethodPost, "/customers", `{"name":"x","email":"nope"}`, http.StatusBadRequest},
		{"duplicate email", salesClaim, http.MethodPost, "/customers", `{"name":"x","email":"bob@x.com"}`, http.StatusConflict},
		{"sales creates", salesClaim, http.MethodPost, "/customers", `{"name":"Carol","email":"carol@x.com"}`, http.StatusCreated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(svc).RegisterRoutes(r, withClaim(tc.claim))

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code, rec.Body.String())

			var resp core.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, rec.Code < 300, resp.Success)
		})
	}
}
