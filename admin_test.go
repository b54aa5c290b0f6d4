package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, r *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func adminCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "admin_token" {
			return c
		}
	}
	t.Fatal("no admin_token cookie set")
	return nil
}

func TestAdminRequiresLogin(t *testing.T) {
	_, r := newTestServer(t)

	for _, path := range []string{"/admin/dashboard", "/admin/api/stats", "/admin/export/stats"} {
		w := get(r, path, nil)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Equal(t, "/admin/login", w.Header().Get("Location"), path)
	}

	w := get(r, "/admin/api/stats", http.Header{"Cookie": {"admin_token=forged"}})
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestAdminLoginRejectsBadCredentials(t *testing.T) {
	_, r := newTestServer(t)

	w := login(t, r, "tester", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")

	w = login(t, r, "admin", "admin123")
	assert.Equal(t, http.StatusUnauthorized, w.Code, "development defaults must not work once credentials are set")
}

func TestAdminStats(t *testing.T) {
	srv, r := newTestServer(t)

	get(r, "/", nil)
	get(r, "/", nil)
	get(r, sceneURL(testSeed, 1000, 1000), nil)
	get(r, sceneURL(testSeed, 1000, 1000), nil)

	w := login(t, r, "tester", "s3cret")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/dashboard", w.Header().Get("Location"))
	cookie := adminCookie(t, w)

	w = get(r, "/admin/api/stats", http.Header{"Cookie": {"admin_token=" + cookie.Value}})
	require.Equal(t, http.StatusOK, w.Code)

	var stats AdminStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 2, stats.TotalSessions)
	assert.EqualValues(t, 1, stats.UniqueVisitors, "both loads came from the same address")
	assert.EqualValues(t, 2, stats.TotalRenders)
	assert.EqualValues(t, 1, stats.CachedRenders)
	require.Len(t, stats.TopSeeds, 1)
	assert.Equal(t, testSeed, stats.TopSeeds[0].Seed)
	assert.EqualValues(t, 2, stats.TopSeeds[0].Renders)

	w = get(r, "/admin/dashboard", http.Header{"Cookie": {"admin_token=" + cookie.Value}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), testSeed)

	var hashed string
	require.NoError(t, srv.db.QueryRow("SELECT hashed_ip FROM sessions LIMIT 1").Scan(&hashed))
	assert.Len(t, hashed, 16)
	assert.NotContains(t, hashed, "192.0.2.1")
}

func TestAdminStatsReportsUnreadableRows(t *testing.T) {
	srv, r := newTestServer(t)
	ctx := context.Background()

	// A REAL column keeps text it cannot convert, which then fails to scan.
	_, err := srv.db.Exec(`INSERT INTO renders (seed, ratio) VALUES (?, 'tall')`, testSeed)
	require.NoError(t, err)

	_, err = srv.getAdminStats(ctx)
	assert.ErrorContains(t, err, "scan top seeds")

	cookie := adminCookie(t, login(t, r, "tester", "s3cret"))
	w := get(r, "/admin/api/stats", http.Header{"Cookie": {"admin_token=" + cookie.Value}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "scan top seeds")
}

func TestAdminLogout(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, "/admin/logout", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	for _, c := range w.Result().Cookies() {
		if c.Name == "admin_token" {
			assert.Empty(t, c.Value)
		}
	}
}

func TestCleanupOldSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	_, err := srv.db.Exec(`INSERT INTO sessions (id, seed, hashed_ip, timestamp) VALUES ('old', ?, 'x', '2000-01-01 00:00:00')`, testSeed)
	require.NoError(t, err)
	_, err = srv.db.Exec(`INSERT INTO renders (seed, timestamp) VALUES (?, '2000-01-01 00:00:00')`, testSeed)
	require.NoError(t, err)
	srv.trackSession(ctx, testSeed, "192.0.2.1", "test", "/")

	n, err := srv.cleanupOldSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 1, count(t, srv, "SELECT COUNT(*) FROM sessions"))
	assert.Equal(t, 0, count(t, srv, "SELECT COUNT(*) FROM renders"))
}

func TestHashIPStable(t *testing.T) {
	srv, _ := newTestServer(t)

	assert.Equal(t, srv.hashIP("192.0.2.1"), srv.hashIP("192.0.2.1"))
	assert.NotEqual(t, srv.hashIP("192.0.2.1"), srv.hashIP("192.0.2.2"))
}
