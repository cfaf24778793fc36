package sysinfo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Metrics describes the host the API runs on
type Metrics struct {
	CPUCount        int     `json:"cpuCount"`
	Goroutines      int     `json:"goroutines"`
	MemoryTotalGB   float64 `json:"memoryTotalGb"`
	MemoryUsedGB    float64 `json:"memoryUsedGb"`
	MemoryFreeGB    float64 `json:"memoryFreeGb"`
	DiskTotalGB     float64 `json:"diskTotalGb"`
	DiskUsedGB      float64 `json:"diskUsedGb"`
	DiskAvailableGB float64 `json:"diskAvailableGb"`
	DiskUsedPercent float64 `json:"diskUsedPercent"`
	DatabaseSizeMB  float64 `json:"databaseSizeMb"`
}

// GetMetrics collects what it can. Memory and disk figures stay zero when the
// platform does not provide them, and the returned error lists what failed.
func GetMetrics(ctx context.Context, databasePath string) (Metrics, error) {
	metrics := Metrics{
		CPUCount:   runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
	}

	var errs []error
	if err := getMemoryInfo(&metrics); err != nil {
		errs = append(errs, fmt.Errorf("failed to get memory info: %w", err))
	}

	if databasePath != "" {
		if info, err := os.Stat(databasePath); err == nil {
			metrics.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
		}
		if err := getDiskInfo(ctx, filepath.Dir(databasePath), &metrics); err != nil {
			errs = append(errs, fmt.Errorf("failed to get disk info: %w", err))
		}
	}

	return metrics, errors.Join(errs...)
}

// getMemoryInfo reads memory information from /proc/meminfo
func getMemoryInfo(metrics *Metrics) error {
	file, err := os.Open("/proc/meminfo")
	if err != nil {
		return fmt.Errorf("failed to open /proc/meminfo: %w", err)
	}
	defer file.Close()

	return parseMeminfo(file, metrics)
}

func parseMeminfo(r io.Reader, metrics *Metrics) error {
	var memTotal, memAvailable float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			memTotal = value / (1024 * 1024) // KB to GB
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailable = value / (1024 * 1024) // KB to GB
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading meminfo: %w", err)
	}

	metrics.MemoryTotalGB = memTotal
	metrics.MemoryFreeGB = memAvailable
	metrics.MemoryUsedGB = memTotal - memAvailable

	return nil
}

// getDiskInfo reads usage of the filesystem holding dir using POSIX df
func getDiskInfo(ctx context.Context, dir string, metrics *Metrics) error {
	output, err := exec.CommandContext(ctx, "df", "-Pk", dir).Output()
	if err != nil {
		return fmt.Errorf("df failed: %w", err)
	}
	return parseDF(string(output), metrics)
}

func parseDF(output string, metrics *Metrics) error {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) < 2 {
		return fmt.Errorf("unexpected df output format")
	}

	// Filesystem 1024-blocks Used Available Capacity Mounted-on
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return fmt.Errorf("unexpected df output format")
	}

	used, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return fmt.Errorf("failed to parse used space: %w", err)
	}
	available, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return fmt.Errorf("failed to parse available space: %w", err)
	}

	metrics.DiskUsedGB = used / (1024 * 1024)
	metrics.DiskAvailableGB = available / (1024 * 1024)
	metrics.DiskTotalGB = metrics.DiskUsedGB + metrics.DiskAvailableGB
	if metrics.DiskTotalGB > 0 {
		metrics.DiskUsedPercent = (metrics.DiskUsedGB / metrics.DiskTotalGB) * 100
	}

	return nil
}
