package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shiftdesk/shiftdesk/internal/models"
	"github.com/shiftdesk/shiftdesk/internal/sysinfo"
)

// StoreStats counts the rows an operator cares about
type StoreStats struct {
	Students        int64            `json:"students"`
	Events          map[string]int64 `json:"events"`
	EventSignups    int64            `json:"eventSignups"`
	RecurringShifts int64            `json:"recurringShifts"`
	ShiftSignups    int64            `json:"shiftSignups"`
}

// SystemInfoResponse represents the combined system information
type SystemInfoResponse struct {
	Version string          `json:"version"`
	Host    sysinfo.Metrics `json:"host"`
	Store   StoreStats      `json:"store"`
}

// @Summary Get system information
// @Description Host metrics and row counts (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SystemInfoResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/admin/system [get]
func (s *Server) getSystemInfo(c *gin.Context) {
	ctx := c.Request.Context()

	metrics, err := sysinfo.GetMetrics(ctx, databaseFile(s.config.Database.URL))
	if err != nil {
		// Partial metrics are still useful
		s.logger.Debug().Err(err).Msg("Some system metrics unavailable")
	}

	stats := StoreStats{Events: map[string]int64{}}
	db := s.db.WithContext(ctx)
	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.Student{}, &stats.Students},
		{&models.EventSignup{}, &stats.EventSignups},
		{&models.RecurringShift{}, &stats.RecurringShifts},
		{&models.ShiftSignup{}, &stats.ShiftSignups},
	}
	for _, q := range counts {
		if err := db.Model(q.model).Count(q.dst).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to count rows")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&models.Event{}).Select("status, count(*) as count").Group("status").Scan(&byStatus).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count events")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	for _, row := range byStatus {
		stats.Events[row.Status] = row.Count
	}

	c.JSON(http.StatusOK, SystemInfoResponse{
		Version: s.version,
		Host:    metrics,
		Store:   stats,
	})
}

// databaseFile returns the on-disk path behind a sqlite DSN, or "" for
// in-memory databases
func databaseFile(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return ""
	}
	return path
}
