package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func status(flowOrder int) domain.Status {
	return domain.Status{FlowOrder: flowOrder}
}

func TestIsTransitionAllowedWindow(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		proposed int
		allowed  bool
	}{
		{"same status", 5, 5, true},
		{"one step forward", 1, 2, true},
		{"one step back", 5, 4, true},
		{"forward edge inclusive", 1, 21, true},
		{"just past forward edge", 1, 22, false},
		{"backward edge inclusive", 30, 20, true},
		{"just past backward edge", 30, 19, false},
		{"large forward jump inside window", 10, 30, true},
		{"large forward jump outside window", 10, 31, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.IsTransitionAllowed(status(tt.current), status(tt.proposed))
			assert.Equal(t, tt.allowed, got)
		})
	}
}

func TestDefaultStatusesShape(t *testing.T) {
	defaults := domain.DefaultStatuses()
	require.NotEmpty(t, defaults)

	assert.Equal(t, domain.StatusNameRegistered, defaults[0].Name)
	assert.Equal(t, 1, defaults[0].FlowOrder)

	seen := make(map[string]bool, len(defaults))
	prev := 0
	for _, s := range defaults {
		assert.False(t, seen[s.Name], "duplicate status name %q", s.Name)
		seen[s.Name] = true
		assert.Greater(t, s.FlowOrder, prev, "flow orders must be ascending")
		prev = s.FlowOrder
	}
}

func TestDefaultStatusesAllReachableFromInitial(t *testing.T) {
	defaults := domain.DefaultStatuses()
	initial := defaults[0]
	for _, s := range defaults {
		assert.True(t, domain.IsTransitionAllowed(initial, s),
			"default status %q must be reachable from the initial status", s.Name)
	}
}
