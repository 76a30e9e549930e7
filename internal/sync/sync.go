// Package sync implements System Sync: given a client's complete
// desired state for one asset group, make the store match it inside a
// single transaction. Configs sync before services, since a service
// may reference a config by name; edges sync last, since an edge
// references two service ids that only exist once services have been
// written.
package sync

import (
	"context"
	"fmt"

	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/apierr"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domain"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/domainevent"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/logging"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/reconcile"
	"github.com/e1ectr0n-ai/pr0t0n-orchestrator/internal/store"
)

// Service runs System Sync against a store.Gateway and publishes
// observability events for each run.
type Service struct {
	gw  store.Gateway
	bus domainevent.Bus
}

// New constructs a sync Service. bus may be nil, in which case events
// are simply not published.
func New(gw store.Gateway, bus domainevent.Bus) *Service {
	return &Service{gw: gw, bus: bus}
}

// Upload validates and applies a SystemRepr, returning a *apierr.Error
// on any validation or store failure. The whole operation is one
// transaction: a failure partway through leaves the store unchanged.
func (s *Service) Upload(ctx context.Context, system domain.SystemRepr) error {
	if err := validate(system); err != nil {
		s.publishFailed(system.AssetGroupID, err)
		return err
	}

	var servicesWritten, configsWritten, edgesWritten int
	err := s.gw.Tx(ctx, func(ctx context.Context, tx store.Gateway) error {
		configIDByName, n, err := syncConfigs(ctx, tx, system.AssetGroupID, system.Configs)
		if err != nil {
			return err
		}
		configsWritten = n

		serviceIDByAddress, nServices, err := syncServices(ctx, tx, system.AssetGroupID, system.Services, configIDByName)
		if err != nil {
			return err
		}
		servicesWritten = nServices

		nEdges, err := syncEdges(ctx, tx, system.AssetGroupID, system.Services, serviceIDByAddress)
		if err != nil {
			return err
		}
		edgesWritten = nEdges
		return nil
	})
	if err != nil {
		s.publishFailed(system.AssetGroupID, err)
		return err
	}

	logging.InfoCF("sync", "system synced", logging.Fields{
		"asset_group_id": system.AssetGroupID,
		"services":       servicesWritten,
		"configs":        configsWritten,
		"edges":          edgesWritten,
	})
	if s.bus != nil {
		s.bus.Publish(domainevent.New(domainevent.EventSyncCompleted, system.AssetGroupID, domainevent.SyncCompletedPayload{
			ServicesWritten: servicesWritten,
			ConfigsWritten:  configsWritten,
			EdgesWritten:    edgesWritten,
		}))
	}
	return nil
}

func (s *Service) publishFailed(assetGroupID int32, err error) {
	logging.ErrorCF("sync", "system sync failed", logging.Fields{
		"asset_group_id": assetGroupID,
		"error":          err.Error(),
	})
	if s.bus != nil {
		s.bus.Publish(domainevent.New(domainevent.EventSyncFailed, assetGroupID, domainevent.SyncFailedPayload{
			Reason: err.Error(),
		}))
	}
}

// Download reconstructs a SystemRepr for an asset group from its
// currently persisted services, configs, and edges.
func Download(ctx context.Context, gw store.Gateway, assetGroupID int32) (domain.SystemRepr, error) {
	if _, err := gw.FindAssetGroup(ctx, assetGroupID); err != nil {
		return domain.SystemRepr{}, err
	}

	services, err := gw.ServicesForGroup(ctx, assetGroupID)
	if err != nil {
		return domain.SystemRepr{}, err
	}
	configs, err := gw.ConfigsForGroup(ctx, assetGroupID)
	if err != nil {
		return domain.SystemRepr{}, err
	}
	edges, err := gw.EdgesForGroup(ctx, assetGroupID)
	if err != nil {
		return domain.SystemRepr{}, err
	}

	idToAddress := make(map[int32]string, len(services))
	for _, svc := range services {
		idToAddress[svc.ServiceID] = svc.Address
	}
	idToConfigName := make(map[int32]string, len(configs))
	for _, c := range configs {
		idToConfigName[c.ConfigID] = c.Name
	}
	outputsByInput := make(map[int32][]string)
	for _, e := range edges {
		outputsByInput[e.InputServiceID] = append(outputsByInput[e.InputServiceID], idToAddress[e.OutputServiceID])
	}

	system := domain.SystemRepr{AssetGroupID: assetGroupID}
	for _, svc := range services {
		var configName *string
		if svc.ConfigID != nil {
			if name, ok := idToConfigName[*svc.ConfigID]; ok {
				configName = &name
			}
		}
		system.Services = append(system.Services, domain.ServiceRepr{
			Address:         svc.Address,
			ServiceType:     svc.ServiceType,
			HealthStatus:    svc.Health,
			Name:            svc.Name,
			OutputAddresses: outputsByInput[svc.ServiceID],
			ConfigName:      configName,
		})
	}
	for _, c := range configs {
		repr, err := domain.NewConfigRepr(c)
		if err != nil {
			return domain.SystemRepr{}, apierr.Internal("config decode failed", err)
		}
		system.Configs = append(system.Configs, repr)
	}
	return system, nil
}

// validate rejects a desired-state document whose services or configs
// are not internally consistent, before any write is attempted.
func validate(system domain.SystemRepr) error {
	if dupes := reconcile.Duplicates(system.Configs); len(dupes) > 0 {
		return apierr.SyncDuplicate(fmt.Sprintf("duplicate config name(s): %v", dupes))
	}
	if dupes := reconcile.Duplicates(system.Services); len(dupes) > 0 {
		return apierr.SyncDuplicate(fmt.Sprintf("duplicate service address(es): %v", dupes))
	}

	configNames := make(map[string]bool, len(system.Configs))
	for _, c := range system.Configs {
		configNames[c.Name] = true
	}
	addresses := make(map[string]bool, len(system.Services))
	for _, svc := range system.Services {
		addresses[svc.Address] = true
	}

	for _, svc := range system.Services {
		if svc.ServiceType != "" {
			if _, err := domain.ParseServiceType(string(svc.ServiceType)); err != nil {
				return apierr.BadRequest(fmt.Sprintf("service %q: %s", svc.Address, err.Error()))
			}
		}
		if svc.HealthStatus != "" {
			if _, err := domain.ParseHealthStatus(string(svc.HealthStatus)); err != nil {
				return apierr.BadRequest(fmt.Sprintf("service %q: %s", svc.Address, err.Error()))
			}
		}
		if svc.ConfigName != nil && !configNames[*svc.ConfigName] {
			return apierr.SyncReference(fmt.Sprintf("service %q references unknown config %q", svc.Address, *svc.ConfigName))
		}
		for _, out := range svc.OutputAddresses {
			if !addresses[out] {
				return apierr.SyncReference(fmt.Sprintf("service %q references unknown output address %q", svc.Address, out))
			}
		}
	}
	return nil
}

func syncConfigs(ctx context.Context, tx store.Gateway, assetGroupID int32, reprs []domain.ConfigRepr) (map[string]int32, int, error) {
	existingList, err := tx.ConfigsForGroup(ctx, assetGroupID)
	if err != nil {
		return nil, 0, err
	}
	existing := make(map[string]domain.Config, len(existingList))
	for _, c := range existingList {
		existing[c.GetStringID()] = c
	}

	toInsert, toUpdate, toDelete := reconcile.PartitionDiff[domain.ConfigRepr, domain.Config](existing, reprs)

	written := 0
	if len(toInsert) > 0 {
		newRows := make([]domain.Config, len(toInsert))
		for i, repr := range toInsert {
			newRows[i] = repr.AsNewConfig(assetGroupID)
		}
		inserted, err := tx.InsertConfigsBulk(ctx, newRows)
		if err != nil {
			return nil, 0, err
		}
		written += len(inserted)
	}

	for _, pair := range toUpdate {
		asset := pair.Asset
		if err := pair.Repr.TryMergeAsset(&asset); err != nil {
			return nil, 0, apierr.Internal("config merge failed", err)
		}
		if err := tx.UpdateConfig(ctx, asset); err != nil {
			return nil, 0, err
		}
		written++
	}

	if len(toDelete) > 0 {
		ids := make([]int32, len(toDelete))
		for i, c := range toDelete {
			ids[i] = c.ConfigID
		}
		if err := tx.DeleteConfigsByIDs(ctx, ids); err != nil {
			return nil, 0, err
		}
	}

	idByName, err := tx.ConfigNameToIDMap(ctx, assetGroupID)
	if err != nil {
		return nil, 0, err
	}
	return idByName, written, nil
}

func syncServices(ctx context.Context, tx store.Gateway, assetGroupID int32, reprs []domain.ServiceRepr, configIDByName map[string]int32) (map[string]int32, int, error) {
	existingList, err := tx.ServicesForGroup(ctx, assetGroupID)
	if err != nil {
		return nil, 0, err
	}
	existing := make(map[string]domain.Service, len(existingList))
	for _, svc := range existingList {
		existing[svc.GetStringID()] = svc
	}

	toInsert, toUpdate, toDelete := reconcile.PartitionDiff[domain.ServiceRepr, domain.Service](existing, reprs)

	written := 0
	if len(toInsert) > 0 {
		newRows := make([]domain.Service, len(toInsert))
		for i, repr := range toInsert {
			newRows[i] = domain.Service{
				AssetGroupID: assetGroupID,
				Address:      repr.Address,
				Name:         repr.Name,
				ServiceType:  repr.ServiceTypeOrDefault(),
				Health:       repr.HealthStatusOrDefault(),
				ConfigID:     resolveConfigID(repr.ConfigName, configIDByName),
			}
		}
		inserted, err := tx.InsertServicesBulk(ctx, newRows)
		if err != nil {
			return nil, 0, err
		}
		written += len(inserted)
	}

	for _, pair := range toUpdate {
		asset := pair.Asset
		if err := pair.Repr.TryMergeAsset(&asset, resolveConfigID(pair.Repr.ConfigName, configIDByName)); err != nil {
			return nil, 0, apierr.Internal("service merge failed", err)
		}
		if err := tx.UpdateService(ctx, asset); err != nil {
			return nil, 0, err
		}
		written++
	}

	// Deletes rows from services, matching the fixed behavior: an
	// earlier revision of this step issued the delete against config
	// ids collected here, which happened to work only because those
	// ids were usually disjoint from live config ids in testing.
	if len(toDelete) > 0 {
		ids := make([]int32, len(toDelete))
		for i, svc := range toDelete {
			ids[i] = svc.ServiceID
		}
		if err := tx.DeleteServicesByIDs(ctx, ids); err != nil {
			return nil, 0, err
		}
	}

	idByAddress, err := tx.AddressToIDMap(ctx, assetGroupID)
	if err != nil {
		return nil, 0, err
	}
	return idByAddress, written, nil
}

func resolveConfigID(name *string, configIDByName map[string]int32) *int32 {
	if name == nil {
		return nil
	}
	id, ok := configIDByName[*name]
	if !ok {
		return nil
	}
	return &id
}

func syncEdges(ctx context.Context, tx store.Gateway, assetGroupID int32, reprs []domain.ServiceRepr, serviceIDByAddress map[string]int32) (int, error) {
	written := 0
	for _, repr := range reprs {
		inputID, ok := serviceIDByAddress[repr.Address]
		if !ok {
			return 0, apierr.Internal("service address missing after sync", fmt.Errorf("address %q", repr.Address))
		}

		if err := tx.DeleteOutgoingEdges(ctx, assetGroupID, inputID); err != nil {
			return 0, err
		}

		if len(repr.OutputAddresses) == 0 {
			continue
		}
		edges := make([]domain.ServiceEdge, 0, len(repr.OutputAddresses))
		for _, outAddr := range repr.OutputAddresses {
			outputID, ok := serviceIDByAddress[outAddr]
			if !ok {
				return 0, apierr.SyncReference(fmt.Sprintf("output address %q does not resolve to a service", outAddr))
			}
			edges = append(edges, domain.ServiceEdge{
				InputServiceID:  inputID,
				OutputServiceID: outputID,
				AssetGroupID:    assetGroupID,
			})
		}
		if err := tx.InsertEdgesBulk(ctx, edges); err != nil {
			return 0, err
		}
		written += len(edges)
	}
	return written, nil
}
