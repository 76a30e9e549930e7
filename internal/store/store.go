// Package store defines the Gateway port the reconciler, System Sync, and
// the Session Registry use to read and write asset-group state. A
// concrete implementation lives in internal/store/pg; a fake for unit
// tests lives in internal/store/storetest.
package store

import (
	"context"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
)

// Gateway is every read and write the rest of the system needs against
// the asset store. Implementations must treat every method as usable
// inside or outside a transaction: Tx() opens one, and every Gateway
// method is also available directly on the top-level Gateway for
// read-only call sites that don't need transactional isolation.
type Gateway interface {
	Reader
	Writer

	// Tx runs fn inside a single database transaction. If fn returns an
	// error, the transaction is rolled back and that error is returned
	// unchanged; otherwise the transaction is committed. fn receives a
	// Gateway scoped to that transaction — every write inside fn is
	// only visible once Tx returns nil.
	Tx(ctx context.Context, fn func(ctx context.Context, tx Gateway) error) error
}

// Reader is the read-only half of Gateway.
type Reader interface {
	// FindAssetGroup looks up one asset group by id.
	FindAssetGroup(ctx context.Context, assetGroupID int32) (domain.AssetGroup, error)

	// ServicesForGroup lists every service belonging to an asset group.
	ServicesForGroup(ctx context.Context, assetGroupID int32) ([]domain.Service, error)

	// FindServiceByAddress looks up a single service by its address
	// within an asset group.
	FindServiceByAddress(ctx context.Context, assetGroupID int32, address string) (domain.Service, error)

	// AddressToIDMap builds an address->service_id map for every
	// service in an asset group, used to resolve output_addresses into
	// service_edges rows during sync.
	AddressToIDMap(ctx context.Context, assetGroupID int32) (map[string]int32, error)

	// ConfigsForGroup lists every config belonging to an asset group.
	ConfigsForGroup(ctx context.Context, assetGroupID int32) ([]domain.Config, error)

	// ConfigNameToIDMap builds a name->config_id map for every config
	// in an asset group, used to resolve a service's config_name.
	ConfigNameToIDMap(ctx context.Context, assetGroupID int32) (map[string]int32, error)

	// EdgesForGroup lists every service_edges row for an asset group.
	EdgesForGroup(ctx context.Context, assetGroupID int32) ([]domain.ServiceEdge, error)
}

// Writer is the write half of Gateway.
type Writer interface {
	// InsertConfigsBulk inserts new configs, returning them with
	// ConfigID populated.
	InsertConfigsBulk(ctx context.Context, configs []domain.Config) ([]domain.Config, error)
	// UpdateConfig updates every mutable column of an existing config.
	UpdateConfig(ctx context.Context, config domain.Config) error
	// DeleteConfigsByIDs removes configs no longer present in a synced
	// desired state.
	DeleteConfigsByIDs(ctx context.Context, configIDs []int32) error

	// InsertServicesBulk inserts new services, returning them with
	// ServiceID populated.
	InsertServicesBulk(ctx context.Context, services []domain.Service) ([]domain.Service, error)
	// UpdateService updates every sync-owned column of an existing
	// service. health_status is never touched here — see
	// UpsertHealthyAddress / DisconnectAddress.
	UpdateService(ctx context.Context, service domain.Service) error
	// DeleteServicesByIDs removes services no longer present in a
	// synced desired state. The rows this deletes are services, never
	// configs — a prior revision of this sync step deleted configs by
	// id here, which silently corrupted unrelated config rows whenever
	// a service id happened to collide with a live config id.
	DeleteServicesByIDs(ctx context.Context, serviceIDs []int32) error

	// InsertEdgesBulk inserts service_edges rows.
	InsertEdgesBulk(ctx context.Context, edges []domain.ServiceEdge) error
	// DeleteOutgoingEdges removes every edge whose InputServiceID is
	// serviceID, ahead of reinserting the service's current
	// output_addresses. Edges are always rewritten delete-then-insert,
	// never diffed.
	DeleteOutgoingEdges(ctx context.Context, assetGroupID int32, serviceID int32) error

	// UpsertHealthyAddress is the Session Registry's write path for a
	// newly connected client: it sets health_status to Healthy for the
	// service at address, inserting a minimal placeholder row (name =
	// address, service_type = Input, no config) if none exists yet.
	UpsertHealthyAddress(ctx context.Context, assetGroupID int32, address string) error
	// DisconnectAddress sets health_status to Disconnected for the
	// service at address.
	DisconnectAddress(ctx context.Context, assetGroupID int32, address string) error
}
