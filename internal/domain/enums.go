// Package domain holds the entities and desired-state representations
// shared by the Store Gateway, the Asset Reconciler, and System Sync.
package domain

import "fmt"

// ServiceType classifies a service's role in a pipeline graph.
type ServiceType string

const (
	ServiceTypeNone      ServiceType = "None"
	ServiceTypeInput     ServiceType = "Input"
	ServiceTypeOutput    ServiceType = "Output"
	ServiceTypeProcessor ServiceType = "Processor"
)

// Valid reports whether st is one of the closed set of service types.
func (st ServiceType) Valid() bool {
	switch st {
	case ServiceTypeNone, ServiceTypeInput, ServiceTypeOutput, ServiceTypeProcessor:
		return true
	default:
		return false
	}
}

// HealthStatus is the liveness state of a service. System Sync sets it
// only when inserting a new row; after that, only the Session Registry
// writes this column (see internal/registry).
type HealthStatus string

const (
	HealthHealthy      HealthStatus = "Healthy"
	HealthDisconnected HealthStatus = "Disconnected"
	HealthWarning      HealthStatus = "Warning"
	HealthCritical     HealthStatus = "Critical"
)

// Valid reports whether hs is one of the closed set of health statuses.
func (hs HealthStatus) Valid() bool {
	switch hs {
	case HealthHealthy, HealthDisconnected, HealthWarning, HealthCritical:
		return true
	default:
		return false
	}
}

// ParseServiceType validates an incoming JSON enum string.
func ParseServiceType(s string) (ServiceType, error) {
	st := ServiceType(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown service_type %q", s)
	}
	return st, nil
}

// ParseHealthStatus validates an incoming JSON enum string.
func ParseHealthStatus(s string) (HealthStatus, error) {
	hs := HealthStatus(s)
	if !hs.Valid() {
		return "", fmt.Errorf("unknown health_status %q", s)
	}
	return hs, nil
}
