package domain

// AssetGroup is the tenancy root for services, configs, and edges.
type AssetGroup struct {
	AssetGroupID int32
	Name         string
	Description  string
}

// Config is a named, opaque JSON document belonging to one asset group.
// json_config is kept as the raw text the client sent; it is only
// parsed into a JSON value on the download path (§9 "opaque JSON configs").
type Config struct {
	ConfigID     int32
	AssetGroupID int32
	Name         string
	Description  string
	JSONConfig   string
}

// GetStringID is the reconciler identity for a Config: its name.
func (c *Config) GetStringID() string { return c.Name }

// Service is one endpoint in a pipeline graph.
type Service struct {
	ServiceID    int32
	AssetGroupID int32
	Name         string
	Address      string
	ServiceType  ServiceType
	Health       HealthStatus
	ConfigID     *int32
}

// GetStringID is the reconciler identity for a Service: its address.
func (s *Service) GetStringID() string { return s.Address }

// ServiceEdge is a directed link from an input service to an output
// service within one asset group. The pair (InputServiceID,
// OutputServiceID) is the composite primary key.
type ServiceEdge struct {
	InputServiceID  int32
	OutputServiceID int32
	AssetGroupID    int32
}
