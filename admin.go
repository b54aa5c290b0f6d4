// admin.go - session tracking and the admin dashboard
package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachkp/zach-dev-sky/internal/background"
)

// SessionMetric is one page load and the seed it was given.
type SessionMetric struct {
	ID        string    `json:"id"`
	Seed      string    `json:"seed"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// SeedStat counts the scene requests made for one seed.
type SeedStat struct {
	Seed    string  `json:"seed"`
	Renders int64   `json:"renders"`
	Cached  int64   `json:"cached"`
	Ratio   float64 `json:"max_ratio"`
}

type AdminStats struct {
	TotalSessions    int64           `json:"total_sessions"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	SessionsToday    int64           `json:"sessions_today"`
	SessionsThisWeek int64           `json:"sessions_this_week"`
	TotalRenders     int64           `json:"total_renders"`
	CachedRenders    int64           `json:"cached_renders"`
	TopSeeds         []SeedStat      `json:"top_seeds"`
	RecentSessions   []SessionMetric `json:"recent_sessions"`
}

func (s *server) initAdminToken() error {
	token, err := generateAdminToken()
	if err != nil {
		return err
	}
	salt, err := generateAdminToken()
	if err != nil {
		return err
	}
	s.adminToken, s.hashingSalt = token, salt

	s.logger.Info("admin access available", "path", "/admin/login")
	if gin.Mode() == gin.DebugMode {
		s.logger.Debug("admin token (dev only)", "token", s.adminToken)
	}
	if s.cfg.DefaultCredentials() {
		s.logger.Warn("admin login uses development credentials; set ADMIN_USERNAME and ADMIN_PASSWORD")
	}
	return nil
}

func generateAdminToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate admin token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// hashIP is stable per address for the life of the process.
func (s *server) hashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + s.hashingSalt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (s *server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// sessionTrackingMiddleware records a session row for every page load that
// handed out a seed. Do Not Track is honoured.
func (s *server) sessionTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		sd := c.GetString(seedKey)
		if sd == "" || c.GetHeader("DNT") == "1" {
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/admin/") {
			return
		}
		s.trackSession(c.Request.Context(), sd, c.ClientIP(), c.GetHeader("User-Agent"), c.Request.URL.Path)
	}
}

func (s *server) trackSession(ctx context.Context, sd, ip, userAgent, path string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, seed, hashed_ip, user_agent, path)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), sd, s.hashIP(ip), userAgent, path)
	if err != nil {
		s.logger.Error("record session", "err", err)
	}
}

func (s *server) trackRender(ctx context.Context, scene background.Scene, cached bool) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders (seed, page_height, viewport_height, ratio, stars, cached)
		VALUES (?, ?, ?, ?, ?, ?)
	`, scene.Seed, scene.Geometry.PageHeight, scene.Geometry.ViewportHeight, scene.Ratio, len(scene.Stars), cached)
	if err != nil {
		s.logger.Error("record render", "err", err)
	}
}

// cleanupOldSessions drops tracking rows older than twelve months and
// returns how many went.
func (s *server) cleanupOldSessions(ctx context.Context) (int64, error) {
	var total int64
	for _, table := range []string{"sessions", "renders"} {
		res, err := s.db.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE timestamp < datetime('now', '-12 months')")
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if total > 0 {
		s.logger.Info("privacy cleanup", "removed", total)
	}
	return total, nil
}

func (s *server) getAdminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}

	counts := []struct {
		dst   *int64
		query string
	}{
		{&stats.TotalSessions, "SELECT COUNT(*) FROM sessions"},
		{&stats.UniqueVisitors, "SELECT COUNT(DISTINCT hashed_ip) FROM sessions"},
		{&stats.SessionsToday, "SELECT COUNT(*) FROM sessions WHERE DATE(timestamp) = DATE('now')"},
		{&stats.SessionsThisWeek, "SELECT COUNT(*) FROM sessions WHERE timestamp >= datetime('now', '-7 days')"},
		{&stats.TotalRenders, "SELECT COUNT(*) FROM renders"},
		{&stats.CachedRenders, "SELECT COUNT(*) FROM renders WHERE cached = 1"},
	}
	for _, q := range counts {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seed, COUNT(*) AS n, COALESCE(SUM(cached), 0), COALESCE(MAX(ratio), 0)
		FROM renders
		GROUP BY seed
		ORDER BY n DESC, seed
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st SeedStat
		if err := rows.Scan(&st.Seed, &st.Renders, &st.Cached, &st.Ratio); err != nil {
			return nil, fmt.Errorf("scan top seeds: %w", err)
		}
		stats.TopSeeds = append(stats.TopSeeds, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top seeds: %w", err)
	}

	stats.RecentSessions, err = s.recentSessions(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *server) recentSessions(ctx context.Context, limit int) ([]SessionMetric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seed, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM sessions
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []SessionMetric
	for rows.Next() {
		var m SessionMetric
		if err := rows.Scan(&m.ID, &m.Seed, &m.HashedIP, &m.UserAgent, &m.Path, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan session %s: %w", m.ID, err)
		}
		sessions = append(sessions, m)
	}
	return sessions, rows.Err()
}

func (s *server) validCredentials(username, password string) bool {
	u := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.AdminUsername))
	p := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword))
	return u&p == 1
}

func (s *server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		if s.validCredentials(c.PostForm("username"), c.PostForm("password")) {
			c.SetCookie("admin_token", s.adminToken, 3600*24, "/admin", "", false, true)
			s.logger.Info("admin login", "from", s.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
			return
		}
		s.logger.Warn("failed admin login", "from", s.hashIP(c.ClientIP()))
		c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
			"title": "Admin Login",
			"error": "Invalid credentials",
		})
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.getAdminStats(c.Request.Context())
		if err != nil {
			s.logger.Error("load admin stats", "err", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		n, err := s.cleanupOldSessions(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"removed": n})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.getAdminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=sky-stats.json")
		c.JSON(http.StatusOK, stats)
	})
}
