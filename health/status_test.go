package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	s := NewHealthy("bus", "connected")
	assert.True(t, s.Healthy)
	assert.Equal(t, StateHealthy, s.Status)
	assert.False(t, s.Timestamp.IsZero())

	s = NewDegraded("bus", "reconnecting")
	assert.False(t, s.Healthy)
	assert.Equal(t, StateDegraded, s.Status)

	s = NewUnhealthy("bus", "disconnected")
	assert.False(t, s.Healthy)
	assert.Equal(t, StateUnhealthy, s.Status)
}

func TestAggregate(t *testing.T) {
	agg := Aggregate("busbridge", []Status{
		NewHealthy("bus", "connected"),
		NewHealthy("gateway", "serving"),
	})
	assert.True(t, agg.Healthy)
	assert.Equal(t, StateHealthy, agg.Status)
	assert.Len(t, agg.SubStatuses, 2)

	agg = Aggregate("busbridge", []Status{
		NewHealthy("gateway", "serving"),
		NewDegraded("bus", "reconnecting"),
	})
	assert.False(t, agg.Healthy)
	assert.Equal(t, StateDegraded, agg.Status)

	// Unhealthy dominates degraded regardless of order.
	agg = Aggregate("busbridge", []Status{
		NewUnhealthy("bus", "disconnected"),
		NewDegraded("gateway", "overloaded"),
	})
	assert.False(t, agg.Healthy)
	assert.Equal(t, StateUnhealthy, agg.Status)
	assert.Equal(t, "bus unhealthy", agg.Message)
}
