// AngelaMos | 2026
// service_test.go

package ticket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
	"github.com/carterperez-dev/templates/isp-backend/internal/policy"
)

type fakeRepo struct {
	mu        sync.Mutex
	customers map[string]string
	users     map[string]string
	tickets   map[string]Ticket
	clock     time.Time
	lookups   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		customers: make(map[string]string),
		users:     make(map[string]string),
		tickets:   make(map[string]Ticket),
		clock:     time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeRepo) Create(_ context.Context, t *Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.customers[t.CustomerID]; !ok {
		return fmt.Errorf("create ticket: %w", core.ErrNotFound)
	}
	t.CreatedAt = f.tick()
	t.UpdatedAt = t.CreatedAt
	f.tickets[t.ID] = *t
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	t, ok := f.tickets[id]
	if !ok {
		return nil, fmt.Errorf("get ticket: %w", core.ErrNotFound)
	}
	t.CustomerName = f.customers[t.CustomerID]
	if t.AssignedTo != nil {
		name := f.users[*t.AssignedTo]
		t.AssigneeName = &name
	}
	return &t, nil
}

func (f *fakeRepo) LockByID(ctx context.Context, id string) (*Ticket, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRepo) Update(_ context.Context, t *Ticket, markResolved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.AssignedTo != nil {
		if _, ok := f.users[*t.AssignedTo]; !ok {
			return fmt.Errorf("update ticket: %w", core.ErrNotFound)
		}
	}
	t.UpdatedAt = f.tick()
	if markResolved {
		at := t.UpdatedAt
		t.ResolvedAt = &at
	}
	f.tickets[t.ID] = *t
	return nil
}

func (f *fakeRepo) List(_ context.Context, params ListTicketsParams) ([]Ticket, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Ticket
	for _, t := range f.tickets {
		if params.CustomerID != "" && t.CustomerID != params.CustomerID {
			continue
		}
		if params.Status != "" && t.Status != params.Status {
			continue
		}
		if params.Priority != "" && t.Priority != params.Priority {
			continue
		}
		if params.VisibleTo != "" && t.AssignedTo != nil && *t.AssignedTo != params.VisibleTo {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

type inlineTx struct{}

func (inlineTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeOwners map[string]string

func (o fakeOwners) CustomerIDForUser(_ context.Context, userID string) (string, error) {
	if id, ok := o[userID]; ok {
		return id, nil
	}
	return "", core.ErrNotFound
}

const (
	aliceID   = "c0000000-0000-0000-0000-00000000000a"
	bobID     = "c0000000-0000-0000-0000-00000000000b"
	techID    = "d0000000-0000-0000-0000-000000000001"
	tech2ID   = "d0000000-0000-0000-0000-000000000002"
	missingID = "00000000-0000-0000-0000-000000000000"
)

var (
	adminClaim = policy.Claim{UserID: "admin-1", Username: "root", Role: policy.RoleAdmin}
	salesClaim = policy.Claim{UserID: "sales-1", Username: "sam", Role: policy.RoleSales}
	techClaim  = policy.Claim{UserID: techID, Username: "tina", Role: policy.RoleTech}
	aliceClaim = policy.Claim{UserID: "user-alice", Username: "alice", Role: policy.RoleCustomer}
)

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	repo.customers[aliceID] = "Alice"
	repo.customers[bobID] = "Bob"
	repo.users[techID] = "tina"
	repo.users[tech2ID] = "tom"
	return NewService(repo, fakeOwners{aliceClaim.UserID: aliceID}, inlineTx{}), repo
}

func open(t *testing.T, svc *Service, claim policy.Claim, customerID string) *Ticket {
	t.Helper()
	tk, err := svc.Create(context.Background(), claim, CreateTicketRequest{
		CustomerID:  customerID,
		Title:       "No connection",
		Description: "Router light is red",
	})
	require.NoError(t, err)
	return tk
}

func TestCreateBindsCustomerToOwnProfile(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tk := open(t, svc, aliceClaim, "")
	assert.Equal(t, aliceID, tk.CustomerID)
	assert.Equal(t, StatusOpen, tk.Status)
	assert.Equal(t, PriorityMedium, tk.Priority)
	assert.Nil(t, tk.ResolvedAt)
	assert.Equal(t, "Alice", tk.CustomerName)

	_, err := svc.Create(ctx, aliceClaim, CreateTicketRequest{
		CustomerID: bobID, Title: "x", Description: "y",
	})
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestCreateByStaff(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, salesClaim, CreateTicketRequest{Title: "x", Description: "y"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	tk, err := svc.Create(ctx, techClaim, CreateTicketRequest{
		CustomerID: bobID, Title: "Outage", Description: "Area down", Priority: PriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, tk.Priority)

	_, err = svc.Create(ctx, salesClaim, CreateTicketRequest{CustomerID: missingID, Title: "x", Description: "y"})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Create(ctx, salesClaim, CreateTicketRequest{CustomerID: bobID, Title: "x", Description: "y", Priority: "whenever"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	assert.Len(t, repo.tickets, 1)
}

func TestResolvedAtIsSticky(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tk := open(t, svc, aliceClaim, "")

	tk, err := svc.UpdateStatus(ctx, techClaim, tk.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Nil(t, tk.ResolvedAt)

	tk, err = svc.UpdateStatus(ctx, techClaim, tk.ID, StatusResolved)
	require.NoError(t, err)
	require.NotNil(t, tk.ResolvedAt)
	firstResolved := *tk.ResolvedAt
	assert.False(t, firstResolved.Before(tk.CreatedAt))

	tk, err = svc.UpdateStatus(ctx, techClaim, tk.ID, StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, firstResolved, *tk.ResolvedAt, "staying resolved is not a new resolution")

	tk, err = svc.UpdateStatus(ctx, techClaim, tk.ID, StatusOpen)
	require.NoError(t, err)
	require.NotNil(t, tk.ResolvedAt)
	assert.Equal(t, firstResolved, *tk.ResolvedAt)

	tk, err = svc.UpdateStatus(ctx, adminClaim, tk.ID, StatusResolved)
	require.NoError(t, err)
	assert.True(t, tk.ResolvedAt.After(firstResolved))

	tk, err = svc.UpdateStatus(ctx, adminClaim, tk.ID, StatusClosed)
	require.NoError(t, err)
	assert.NotNil(t, tk.ResolvedAt)
}

func TestStatusChangesArePermissive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tk := open(t, svc, aliceClaim, "")

	for _, s := range []Status{StatusClosed, StatusOpen, StatusResolved, StatusInProgress} {
		got, err := svc.UpdateStatus(ctx, techClaim, tk.ID, s)
		require.NoError(t, err, s)
		assert.Equal(t, s, got.Status)
	}

	_, err := svc.UpdateStatus(ctx, techClaim, tk.ID, "escalated")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestRestrictedFieldsRefusedBeforeLookup(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	tk := open(t, svc, aliceClaim, "")

	resolved := StatusResolved
	high := PriorityHigh
	assignee := techID

	tests := []struct {
		name  string
		claim policy.Claim
		req   UpdateTicketRequest
	}{
		{"customer status", aliceClaim, UpdateTicketRequest{Status: &resolved}},
		{"customer priority", aliceClaim, UpdateTicketRequest{Priority: &high}},
		{"customer assign", aliceClaim, UpdateTicketRequest{AssignedTo: &assignee}},
		{"sales status", salesClaim, UpdateTicketRequest{Status: &resolved}},
		{"sales assign", salesClaim, UpdateTicketRequest{AssignedTo: &assignee}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := repo.lookups
			_, err := svc.Update(ctx, tc.claim, tk.ID, tc.req)
			assert.ErrorIs(t, err, core.ErrForbidden)
			assert.Equal(t, before, repo.lookups)
		})
	}

	stored := repo.tickets[tk.ID]
	assert.Equal(t, StatusOpen, stored.Status)
	assert.Nil(t, stored.AssignedTo)
}

func TestAssign(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	tk := open(t, svc, aliceClaim, "")

	tk, err := svc.Assign(ctx, techClaim, tk.ID, tech2ID)
	require.NoError(t, err)
	require.NotNil(t, tk.AssignedTo)
	assert.Equal(t, tech2ID, *tk.AssignedTo)
	assert.Equal(t, "tom", *tk.AssigneeName)

	_, err = svc.Assign(ctx, techClaim, tk.ID, missingID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	tk, err = svc.Assign(ctx, adminClaim, tk.ID, "")
	require.NoError(t, err)
	assert.Nil(t, tk.AssignedTo)
}

func TestListScoping(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	own := open(t, svc, aliceClaim, "")
	mine := open(t, svc, salesClaim, bobID)
	theirs := open(t, svc, salesClaim, bobID)

	_, err := svc.Assign(ctx, adminClaim, mine.ID, techID)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, adminClaim, theirs.ID, tech2ID)
	require.NoError(t, err)

	tickets, total, err := svc.List(ctx, aliceClaim, ListTicketsParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, own.ID, tickets[0].ID)

	_, _, err = svc.List(ctx, aliceClaim, ListTicketsParams{CustomerID: bobID})
	assert.ErrorIs(t, err, core.ErrForbidden)

	tickets, total, err = svc.List(ctx, techClaim, ListTicketsParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "assigned to caller or unassigned")
	for _, tk := range tickets {
		assert.NotEqual(t, theirs.ID, tk.ID)
	}

	_, total, err = svc.List(ctx, salesClaim, ListTicketsParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, total, err = svc.List(ctx, adminClaim, ListTicketsParams{Priority: PriorityMedium, Status: StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	_, _, err = svc.List(ctx, adminClaim, ListTicketsParams{Priority: "p0"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestGetVisibility(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	foreign := open(t, svc, salesClaim, bobID)

	_, err := svc.Get(ctx, aliceClaim, foreign.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.Get(ctx, techClaim, foreign.ID)
	require.NoError(t, err)
}

func TestHandlerRoutes(t *testing.T) {
	svc, _ := newTestService()
	tk := open(t, svc, aliceClaim, "")

	serve := func(claim policy.Claim, method, path, body string) int {
		r := chi.NewRouter()
		NewHandler(svc).RegisterRoutes(r, func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := middleware.WithClaims(r.Context(), &middleware.AccessTokenClaims{Claim: claim})
				next.ServeHTTP(w, r.WithContext(ctx))
			})
		})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, serve(aliceClaim, http.MethodPost, "/tickets", `{"title":"Slow","description":"Evenings"}`))
	assert.Equal(t, http.StatusBadRequest, serve(aliceClaim, http.MethodPost, "/tickets", `{"title":"Slow"}`))
	assert.Equal(t, http.StatusForbidden, serve(aliceClaim, http.MethodPatch, "/tickets/"+tk.ID+"/status", `{"status":"closed"}`))
	assert.Equal(t, http.StatusOK, serve(techClaim, http.MethodPatch, "/tickets/"+tk.ID+"/status", `{"status":"closed"}`))
	assert.Equal(t, http.StatusOK, serve(techClaim, http.MethodPut, "/tickets/"+tk.ID+"/assign", `{"assigned_to":"`+techID+`"}`))
	assert.Equal(t, http.StatusBadRequest, serve(techClaim, http.MethodPut, "/tickets/"+tk.ID+"/assign", `{"assigned_to":"tina"}`))
	assert.Equal(t, http.StatusNotFound, serve(techClaim, http.MethodGet, "/tickets/"+missingID, ""))
	assert.Equal(t, http.StatusBadRequest, serve(techClaim, http.MethodPut, "/tickets/"+tk.ID, `{}`))
}
