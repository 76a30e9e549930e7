// Package storetest provides an in-memory store.Gateway for exercising
// the reconciler, System Sync, and the Session Registry without a live
// Postgres instance.
package storetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/apierr"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store"
)

// Fake is an in-memory store.Gateway. All methods lock a single mutex;
// it makes no attempt at the isolation levels a real Postgres
// transaction provides, but it gives reconcile/sync/registry tests a
// Gateway to run against.
type Fake struct {
	mu sync.Mutex

	nextServiceID int32
	nextConfigID  int32

	assetGroups map[int32]domain.AssetGroup
	services    map[int32]domain.Service
	configs     map[int32]domain.Config
	edges       map[[2]int32]domain.ServiceEdge
}

// New constructs an empty Fake.
func New() *Fake {
	return &Fake{
		nextServiceID: 1,
		nextConfigID:  1,
		assetGroups:   make(map[int32]domain.AssetGroup),
		services:      make(map[int32]domain.Service),
		configs:       make(map[int32]domain.Config),
		edges:         make(map[[2]int32]domain.ServiceEdge),
	}
}

// SeedAssetGroup registers an asset group so FindAssetGroup succeeds.
func (f *Fake) SeedAssetGroup(g domain.AssetGroup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assetGroups[g.AssetGroupID] = g
}

// SeedService inserts a service with a caller-chosen id, bypassing the
// id counter. Useful for constructing "existing state" fixtures.
func (f *Fake) SeedService(s domain.Service) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.services[s.ServiceID] = s
	if s.ServiceID >= f.nextServiceID {
		f.nextServiceID = s.ServiceID + 1
	}
}

// SeedConfig inserts a config with a caller-chosen id.
func (f *Fake) SeedConfig(c domain.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[c.ConfigID] = c
	if c.ConfigID >= f.nextConfigID {
		f.nextConfigID = c.ConfigID + 1
	}
}

func (f *Fake) FindAssetGroup(_ context.Context, assetGroupID int32) (domain.AssetGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.assetGroups[assetGroupID]
	if !ok {
		return domain.AssetGroup{}, apierr.NotFound(fmt.Sprintf("asset group %d not found", assetGroupID))
	}
	return g, nil
}

func (f *Fake) ServicesForGroup(_ context.Context, assetGroupID int32) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Service
	for _, s := range f.services {
		if s.AssetGroupID == assetGroupID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *Fake) FindServiceByAddress(_ context.Context, assetGroupID int32, address string) (domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.services {
		if s.AssetGroupID == assetGroupID && s.Address == address {
			return s, nil
		}
	}
	return domain.Service{}, apierr.NotFound(fmt.Sprintf("service %q not found", address))
}

func (f *Fake) AddressToIDMap(_ context.Context, assetGroupID int32) (map[string]int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int32)
	for _, s := range f.services {
		if s.AssetGroupID == assetGroupID {
			out[s.Address] = s.ServiceID
		}
	}
	return out, nil
}

func (f *Fake) ConfigsForGroup(_ context.Context, assetGroupID int32) ([]domain.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Config
	for _, c := range f.configs {
		if c.AssetGroupID == assetGroupID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *Fake) ConfigNameToIDMap(_ context.Context, assetGroupID int32) (map[string]int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int32)
	for _, c := range f.configs {
		if c.AssetGroupID == assetGroupID {
			out[c.Name] = c.ConfigID
		}
	}
	return out, nil
}

func (f *Fake) EdgesForGroup(_ context.Context, assetGroupID int32) ([]domain.ServiceEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ServiceEdge
	for _, e := range f.edges {
		if e.AssetGroupID == assetGroupID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *Fake) InsertConfigsBulk(_ context.Context, configs []domain.Config) ([]domain.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Config, len(configs))
	for i, c := range configs {
		c.ConfigID = f.nextConfigID
		f.nextConfigID++
		f.configs[c.ConfigID] = c
		out[i] = c
	}
	return out, nil
}

func (f *Fake) UpdateConfig(_ context.Context, config domain.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.configs[config.ConfigID]; !ok {
		return apierr.NotFound(fmt.Sprintf("config %d not found", config.ConfigID))
	}
	f.configs[config.ConfigID] = config
	return nil
}

func (f *Fake) DeleteConfigsByIDs(_ context.Context, configIDs []int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range configIDs {
		delete(f.configs, id)
	}
	return nil
}

func (f *Fake) InsertServicesBulk(_ context.Context, services []domain.Service) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Service, len(services))
	for i, s := range services {
		s.ServiceID = f.nextServiceID
		f.nextServiceID++
		if s.Health == "" {
			s.Health = domain.HealthHealthy
		}
		f.services[s.ServiceID] = s
		out[i] = s
	}
	return out, nil
}

func (f *Fake) UpdateService(_ context.Context, service domain.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.services[service.ServiceID]
	if !ok {
		return apierr.NotFound(fmt.Sprintf("service %d not found", service.ServiceID))
	}
	// health_status is sync-exempt; preserve whatever the registry set.
	service.Health = existing.Health
	f.services[service.ServiceID] = service
	return nil
}

func (f *Fake) DeleteServicesByIDs(_ context.Context, serviceIDs []int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range serviceIDs {
		delete(f.services, id)
		for k, e := range f.edges {
			if e.InputServiceID == id || e.OutputServiceID == id {
				delete(f.edges, k)
			}
		}
	}
	return nil
}

func (f *Fake) InsertEdgesBulk(_ context.Context, edges []domain.ServiceEdge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range edges {
		f.edges[[2]int32{e.InputServiceID, e.OutputServiceID}] = e
	}
	return nil
}

func (f *Fake) DeleteOutgoingEdges(_ context.Context, assetGroupID int32, serviceID int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, e := range f.edges {
		if e.AssetGroupID == assetGroupID && e.InputServiceID == serviceID {
			delete(f.edges, k)
		}
	}
	return nil
}

// UpsertHealthyAddress marks address Healthy, creating a minimal
// placeholder row (name = address, service_type = Input, no config)
// if no service is registered there yet, mirroring pg.Gateway's
// INSERT ... ON CONFLICT behavior.
func (f *Fake) UpsertHealthyAddress(_ context.Context, assetGroupID int32, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.services {
		if s.AssetGroupID == assetGroupID && s.Address == address {
			s.Health = domain.HealthHealthy
			f.services[id] = s
			return nil
		}
	}
	id := f.nextServiceID
	f.nextServiceID++
	f.services[id] = domain.Service{
		ServiceID:    id,
		AssetGroupID: assetGroupID,
		Name:         address,
		Address:      address,
		ServiceType:  domain.ServiceTypeInput,
		Health:       domain.HealthHealthy,
	}
	return nil
}

func (f *Fake) DisconnectAddress(_ context.Context, assetGroupID int32, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, s := range f.services {
		if s.AssetGroupID == assetGroupID && s.Address == address {
			s.Health = domain.HealthDisconnected
			f.services[id] = s
			return nil
		}
	}
	return apierr.NotFound(fmt.Sprintf("service %q not found", address))
}

// Tx runs fn against the same Fake: there is no real isolation, but an
// error from fn is propagated unchanged, matching the contract callers
// depend on.
func (f *Fake) Tx(ctx context.Context, fn func(ctx context.Context, tx store.Gateway) error) error {
	return fn(ctx, f)
}

var _ store.Gateway = (*Fake)(nil)
