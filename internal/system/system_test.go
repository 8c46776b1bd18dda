package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampWorkers(t *testing.T) {
	tests := []struct {
		name string
		host Host
		in   int
		want int
	}{
		{"unknown host", Host{}, 8, 8},
		{"cpu bound", Host{LogicalCPUs: 4}, 8, 4},
		{"memory bound", Host{LogicalCPUs: 16, AvailableMemory: 3 * WorkerMemory}, 8, 3},
		{"fits", Host{LogicalCPUs: 16, AvailableMemory: 64 * WorkerMemory}, 8, 8},
		{"tiny memory", Host{LogicalCPUs: 4, AvailableMemory: WorkerMemory / 2}, 2, 1},
		{"zero request", Host{LogicalCPUs: 4}, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.host.ClampWorkers(tt.in))
		})
	}
}

func TestProbe(t *testing.T) {
	h, err := Probe()
	require.NoError(t, err)
	assert.Positive(t, h.LogicalCPUs)
	assert.Positive(t, h.TotalMemory)
	assert.GreaterOrEqual(t, h.TotalMemory, h.AvailableMemory)
}
