// Package health provides health status types for the gateway's components.
package health

import "time"

// Health state names.
const (
	StateHealthy   = "healthy"
	StateDegraded  = "degraded"
	StateUnhealthy = "unhealthy"
)

// Status represents the health state of a component or system.
type Status struct {
	Component   string    `json:"component"`
	Healthy     bool      `json:"healthy"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	SubStatuses []Status  `json:"sub_statuses,omitempty"`
}

// NewHealthy creates a healthy status.
func NewHealthy(component, message string) Status {
	return Status{
		Component: component,
		Healthy:   true,
		Status:    StateHealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewDegraded creates a degraded status.
func NewDegraded(component, message string) Status {
	return Status{
		Component: component,
		Status:    StateDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewUnhealthy creates an unhealthy status.
func NewUnhealthy(component, message string) Status {
	return Status{
		Component: component,
		Status:    StateUnhealthy,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Aggregate combines component statuses into a system status: unhealthy if
// any component is unhealthy, degraded if any is degraded, healthy otherwise.
func Aggregate(systemName string, statuses []Status) Status {
	agg := NewHealthy(systemName, "all components healthy")
	for _, s := range statuses {
		switch s.Status {
		case StateUnhealthy:
			agg.Healthy = false
			agg.Status = StateUnhealthy
			agg.Message = s.Component + " unhealthy"
		case StateDegraded:
			if agg.Status == StateHealthy {
				agg.Healthy = false
				agg.Status = StateDegraded
				agg.Message = s.Component + " degraded"
			}
		}
	}
	agg.SubStatuses = statuses
	return agg
}
