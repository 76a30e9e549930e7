package domain

import (
	"encoding/json"
	"fmt"
)

// ConfigRepr is the desired-state representation of a Config. Identity
// is Name within the asset group.
type ConfigRepr struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	JSONConfig  json.RawMessage `json:"json_config"`
}

// GetStringID is the reconciler identity for a ConfigRepr: its name.
func (r ConfigRepr) GetStringID() string { return r.Name }

// TryMergeAsset copies this representation's fields onto an existing
// Config row ahead of an UPDATE. health_status has no analogue here —
// Config carries no liveness column.
//
// description is copied from r.Description, not r.Name: the original
// implementation this was ported from assigned asset.description =
// self.name, almost certainly a bug (see DESIGN.md Open Questions).
func (r *ConfigRepr) TryMergeAsset(asset *Config) error {
	asset.Name = r.Name
	asset.Description = r.Description
	asset.JSONConfig = string(r.JSONConfig)
	return nil
}

// AsNewConfig builds the row to insert for a repr with no existing asset.
func (r *ConfigRepr) AsNewConfig(assetGroupID int32) Config {
	return Config{
		AssetGroupID: assetGroupID,
		Name:         r.Name,
		Description:  r.Description,
		JSONConfig:   string(r.JSONConfig),
	}
}

// NewConfigRepr converts a persisted Config row into its representation,
// parsing the stored JSON text back into a value. Empty stored text is
// carried through as an empty value.
func NewConfigRepr(c Config) (ConfigRepr, error) {
	if c.JSONConfig != "" && !json.Valid([]byte(c.JSONConfig)) {
		return ConfigRepr{}, fmt.Errorf("config %q: stored json_config is not valid JSON", c.Name)
	}
	return ConfigRepr{
		Name:        c.Name,
		Description: c.Description,
		JSONConfig:  json.RawMessage(c.JSONConfig),
	}, nil
}

// ServiceRepr is the desired-state representation of a Service.
// Identity is Address.
type ServiceRepr struct {
	Address         string       `json:"address"`
	ServiceType     ServiceType  `json:"service_type"`
	HealthStatus    HealthStatus `json:"health_status"`
	Name            string       `json:"name"`
	OutputAddresses []string     `json:"output_addresses"`
	ConfigName      *string      `json:"config_name"`
}

// GetStringID is the reconciler identity for a ServiceRepr: its address.
func (r ServiceRepr) GetStringID() string { return r.Address }

// ServiceTypeOrDefault returns the repr's service_type, defaulting to
// None when the field was omitted from the request, matching
// ServiceType::default() in the original.
func (r ServiceRepr) ServiceTypeOrDefault() ServiceType {
	if r.ServiceType == "" {
		return ServiceTypeNone
	}
	return r.ServiceType
}

// HealthStatusOrDefault returns the repr's health_status, defaulting
// to Healthy when the field was omitted from the request, matching
// HealthStatus::default() in the original. It is consulted only on
// INSERT: an existing row's health_status is owned exclusively by the
// Session Registry (see TryMergeAsset).
func (r ServiceRepr) HealthStatusOrDefault() HealthStatus {
	if r.HealthStatus == "" {
		return HealthHealthy
	}
	return r.HealthStatus
}

// TryMergeAsset copies this representation's fields onto an existing
// Service row ahead of an UPDATE. health_status is deliberately left
// untouched: invariant 4 (§3) forbids sync from overwriting liveness
// transitions performed by the Session Registry. ConfigID is resolved
// by the caller (internal/sync), which has the name→id map; this
// method only updates the scalar fields sync itself owns.
func (r *ServiceRepr) TryMergeAsset(asset *Service, configID *int32) error {
	asset.Address = r.Address
	asset.Name = r.Name
	asset.ServiceType = r.ServiceTypeOrDefault()
	asset.ConfigID = configID
	return nil
}

// SystemRepr is the complete desired state for one asset group.
type SystemRepr struct {
	AssetGroupID int32         `json:"asset_group_id"`
	Services     []ServiceRepr `json:"services"`
	Configs      []ConfigRepr  `json:"configs"`
}
