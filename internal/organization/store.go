package organization

import (
	"context"

	id "tributo/pkg/domain"
)

// Store resolves the tenant read model. Implementations return
// sentinel.ErrNotFound for unknown organizations and sentinel.ErrUnavailable
// when the backing store is unreachable.
type Store interface {
	GetOrganization(ctx context.Context, orgID id.OrgID) (*Organization, error)
}
