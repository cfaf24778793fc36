package sysinfo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeminfo(t *testing.T) {
	input := `MemTotal:        8388608 kB
MemFree:          524288 kB
MemAvailable:    2097152 kB
Buffers:          102400 kB
`
	var m Metrics
	require.NoError(t, parseMeminfo(strings.NewReader(input), &m))
	assert.InDelta(t, 8.0, m.MemoryTotalGB, 0.001)
	assert.InDelta(t, 2.0, m.MemoryFreeGB, 0.001)
	assert.InDelta(t, 6.0, m.MemoryUsedGB, 0.001)
}

func TestParseDF(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantErr     bool
		wantTotal   float64
		wantPercent float64
	}{
		{
			name: "posix output",
			output: `Filesystem     1024-blocks    Used Available Capacity Mounted on
/dev/sda1         41943040 10485760  31457280      25% /`,
			wantTotal:   40,
			wantPercent: 25,
		},
		{
			name:    "header only",
			output:  "Filesystem 1024-blocks Used Available Capacity Mounted on",
			wantErr: true,
		},
		{
			name: "garbage numbers",
			output: `Filesystem 1024-blocks Used Available Capacity Mounted on
/dev/sda1 x y z 0% /`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metrics
			err := parseDF(tt.output, &m)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantTotal, m.DiskTotalGB, 0.001)
			assert.InDelta(t, tt.wantPercent, m.DiskUsedPercent, 0.001)
		})
	}
}

func TestGetMetrics_DatabaseSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shiftdesk.sqlite")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024*1024), 0600))

	// Memory and disk probes are platform specific, so only the parts
	// that always work are checked here
	m, _ := GetMetrics(context.Background(), path)
	assert.Positive(t, m.CPUCount)
	assert.Positive(t, m.Goroutines)
	assert.InDelta(t, 1.0, m.DatabaseSizeMB, 0.001)
}
