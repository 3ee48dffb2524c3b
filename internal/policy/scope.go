// AngelaMos | 2026
// scope.go

package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/isp-backend/internal/core"
)

// OwnerResolver maps a user account to its linked customer profile.
type OwnerResolver interface {
	CustomerIDForUser(ctx context.Context, userID string) (string, error)
}

// CallerScope resolves the caller's own customer profile. It must run before
// any lookup of customer-owned data. Staff get an empty scope; a customer
// account without a profile owns nothing and is refused.
func CallerScope(ctx context.Context, owners OwnerResolver, claim Claim) (Target, error) {
	if !claim.IsCustomer() {
		return Target{}, nil
	}

	customerID, err := owners.CustomerIDForUser(ctx, claim.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Target{}, fmt.Errorf("caller has no customer profile: %w", core.ErrForbidden)
		}
		return Target{}, fmt.Errorf("resolve caller profile: %w", err)
	}

	return Target{CallerCustomerID: customerID}, nil
}

// Owned returns scope narrowed to a resource owned by customerID.
func (t Target) Owned(customerID string) Target {
	t.CustomerID = customerID
	return t
}

// AuthorizeLookup authorizes an action on a resource that was already
// fetched. An ownership denial for a customer becomes ErrNotFound so the
// resource's existence stays hidden.
func AuthorizeLookup(claim Claim, resource Resource, action Action, target Target) error {
	err := Authorize(claim, resource, action, target)
	if err == nil {
		return nil
	}

	if claim.IsCustomer() && scopeFor(claim.Role, resource, action) == scopeOwn {
		return fmt.Errorf("%s: %w", resource, core.ErrNotFound)
	}

	return err
}
