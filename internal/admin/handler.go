// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/ledger"
	"github.com/carterperez-dev/component-store/internal/payment"
)

type LedgerStats interface {
	Stats(ctx context.Context, premiumThreshold decimal.Decimal) (*ledger.Stats, error)
}

type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[payment.OrderStatus]int, error)
}

type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	dbStats          func() sql.DBStats
	redisStats       func() *redis.PoolStats
	redisPing        func(ctx context.Context) error
	dbPing           func(ctx context.Context) error
	ledger           LedgerStats
	orders           OrderCounter
	users            Counter
	components       Counter
	premiumThreshold decimal.Decimal
}

type HandlerConfig struct {
	DBStats          func() sql.DBStats
	RedisStats       func() *redis.PoolStats
	RedisPing        func(ctx context.Context) error
	DBPing           func(ctx context.Context) error
	Ledger           LedgerStats
	Orders           OrderCounter
	Users            Counter
	Components       Counter
	PremiumThreshold decimal.Decimal
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:          cfg.DBStats,
		redisStats:       cfg.RedisStats,
		redisPing:        cfg.RedisPing,
		dbPing:           cfg.DBPing,
		ledger:           cfg.Ledger,
		orders:           cfg.Orders,
		users:            cfg.Users,
		components:       cfg.Components,
		premiumThreshold: cfg.PremiumThreshold,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.GetSystemStats)
		r.Get("/db", h.GetDatabaseStats)
		r.Get("/redis", h.GetRedisStats)
		r.Get("/runtime", h.GetRuntimeStats)
		r.Get("/store", h.GetStoreStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dbHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			dbHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	store, err := h.storeStats(ctx)
	if err != nil {
		slog.WarnContext(ctx, "store stats unavailable", "error", err)
	}

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: dbHealthy,
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
		Store:   store,
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) GetStoreStats(w http.ResponseWriter, r *http.Request) {
	store, err := h.storeStats(r.Context())
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.OK(w, store)
}

func (h *Handler) storeStats(ctx context.Context) (*StoreStats, error) {
	if h.ledger == nil {
		return nil, nil
	}

	ls, err := h.ledger.Stats(ctx, h.premiumThreshold)
	if err != nil {
		return nil, err
	}

	stats := &StoreStats{
		Donors:          ls.Donors,
		TotalDonated:    ls.TotalDonated.StringFixed(2),
		PremiumBuyers:   ls.PremiumBuyers,
		PremiumAccounts: ls.PremiumAccounts,
		OrdersByStatus:  map[payment.OrderStatus]int{},
	}

	if h.orders != nil {
		counts, err := h.orders.CountByStatus(ctx)
		if err != nil {
			return nil, err
		}
		stats.OrdersByStatus = counts
	}

	if h.users != nil {
		if stats.Users, err = h.users.Count(ctx); err != nil {
			return nil, err
		}
	}

	if h.components != nil {
		if stats.Components, err = h.components.Count(ctx); err != nil {
			return nil, err
		}
	}

	return stats, nil
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	if stats == nil {
		return nil
	}

	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
	Store    *StoreStats    `json:"store,omitempty"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type StoreStats struct {
	Users           int                         `json:"users"`
	Components      int                         `json:"components"`
	Donors          int                         `json:"donors"`
	TotalDonated    string                      `json:"total_donated"`
	PremiumBuyers   int                         `json:"premium_buyers"`
	PremiumAccounts int                         `json:"premium_accounts"`
	OrdersByStatus  map[payment.OrderStatus]int `json:"orders_by_status"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
