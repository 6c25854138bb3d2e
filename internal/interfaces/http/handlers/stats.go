// internal/interfaces/http/handlers/stats.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/product"
	"github.com/your-org/storefront/internal/domain/user"
)

const (
	statsCacheKey = "admin:stats"
	statsCacheTTL = 30 * time.Second
)

// StatsHandler handles the admin dashboard stats endpoint
type StatsHandler struct {
	db          *gorm.DB
	redisClient *redis.Client
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(db *gorm.DB, redisClient *redis.Client) *StatsHandler {
	return &StatsHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// DashboardStats represents store-wide counters for the admin view
type DashboardStats struct {
	TotalUsers    int64 `json:"total_users"`
	TotalProducts int64 `json:"total_products"`
	TotalOrders   int64 `json:"total_orders"`
	PendingOrders int64 `json:"pending_orders"`
	TotalRevenue  int64 `json:"total_revenue"` // Paid orders only, in cents
}

// GetStats handles GET /admin/stats. Results are cached briefly in
// Redis; the dashboard polls and the counts do not need to be exact
// to the second.
func (h *StatsHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	if h.redisClient != nil {
		if cached, err := h.redisClient.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats DashboardStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				c.JSON(http.StatusOK, gin.H{"data": stats, "cached": true})
				return
			}
		}
	}

	stats, err := h.collectStats()
	if err != nil {
		respondError(c, err)
		return
	}

	if h.redisClient != nil {
		if encoded, err := json.Marshal(stats); err == nil {
			if err := h.redisClient.Set(ctx, statsCacheKey, encoded, statsCacheTTL).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to cache dashboard stats")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (h *StatsHandler) collectStats() (*DashboardStats, error) {
	var stats DashboardStats

	if err := h.db.Model(&user.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := h.db.Model(&product.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := h.db.Model(&order.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := h.db.Model(&order.Order{}).
		Where("status = ?", order.StatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}

	err := h.db.Model(&order.Order{}).
		Where("status IN ?", []string{order.StatusProcessing, order.StatusShipped, order.StatusDelivered}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return &stats, nil
}
