package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/cache"
	"github.com/Zachkp/zach-dev-sky/internal/config"
	"github.com/Zachkp/zach-dev-sky/internal/seed"
)

const testSeed = "00000000abcdefabcdefabcdefabcdef"

func newTestServer(t *testing.T) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := openDB(filepath.Join(t.TempDir(), "sky.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.AdminUsername = "tester"
	cfg.AdminPassword = "s3cret"

	srv, err := newServer(cfg, db, cache.NewMemoryCache(cfg.CacheEntries), newLogger(io.Discard, log.DebugLevel))
	require.NoError(t, err)
	r, err := srv.router()
	require.NoError(t, err)
	return srv, r
}

func get(r http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func count(t *testing.T, srv *server, query string) int {
	t.Helper()
	var n int
	require.NoError(t, srv.db.QueryRow(query).Scan(&n))
	return n
}

func sceneURL(sd string, page, viewport float64) string {
	q := url.Values{}
	q.Set("seed", sd)
	q.Set("page_height", strconv.FormatFloat(page, 'f', -1, 64))
	q.Set("viewport_height", strconv.FormatFloat(viewport, 'f', -1, 64))
	q.Set("viewport_width", "1280")
	return "/api/scene?" + q.Encode()
}

func TestIndexPage(t *testing.T) {
	srv, r := newTestServer(t)

	w := get(r, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	m := regexp.MustCompile(`Seed: ([0-9a-f]{32})`).FindStringSubmatch(body)
	require.Len(t, m, 2, "page should carry the seed label")
	assert.Contains(t, body, `data-seed="`+m[1]+`"`)
	for _, id := range projectIDs() {
		assert.Contains(t, body, `data-card="`+id+`"`)
	}
	assert.Contains(t, body, `id="starfield"`)

	assert.Equal(t, 1, count(t, srv, "SELECT COUNT(*) FROM sessions"))
	var stored string
	require.NoError(t, srv.db.QueryRow("SELECT seed FROM sessions").Scan(&stored))
	assert.Equal(t, m[1], stored)
}

func TestIndexPageFreshSeedPerLoad(t *testing.T) {
	_, r := newTestServer(t)
	re := regexp.MustCompile(`Seed: ([0-9a-f]{32})`)

	a := re.FindStringSubmatch(get(r, "/", nil).Body.String())
	b := re.FindStringSubmatch(get(r, "/", nil).Body.String())
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.NotEqual(t, a[1], b[1])
}

func TestIndexPageRespectsDoNotTrack(t *testing.T) {
	srv, r := newTestServer(t)

	w := get(r, "/", http.Header{"Dnt": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, count(t, srv, "SELECT COUNT(*) FROM sessions"))
}

func TestSeedAPI(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, "/api/seed", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Seed  string `json:"seed"`
		Label string `json:"label"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, seed.Valid(resp.Seed))
	assert.Equal(t, "Seed: "+resp.Seed, resp.Label)
}

func TestSceneAPI(t *testing.T) {
	srv, r := newTestServer(t)

	w := get(r, sceneURL(testSeed, 1000, 1000), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))

	var scene background.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scene))
	assert.Equal(t, testSeed, scene.Seed)
	assert.Equal(t, 1.0, scene.Ratio)
	assert.Len(t, scene.Nodes, 7)
	assert.Len(t, scene.Stars, 213)
	assert.Len(t, scene.Bubbles, len(Projects))

	again := get(r, sceneURL(testSeed, 1000, 1000), nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "hit", again.Header().Get("X-Cache"))
	assert.JSONEq(t, w.Body.String(), again.Body.String())

	assert.Equal(t, 2, count(t, srv, "SELECT COUNT(*) FROM renders"))
	assert.Equal(t, 1, count(t, srv, "SELECT COUNT(*) FROM renders WHERE cached = 1"))
}

func TestSceneAPIScalesWithPage(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, sceneURL(testSeed, 4000, 1000), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var scene background.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scene))
	assert.Equal(t, 4.0, scene.Ratio)
	assert.Len(t, scene.Nodes, 28)
	assert.Len(t, scene.Stars, 536)
}

func TestSceneAPIRejectsBadInput(t *testing.T) {
	_, r := newTestServer(t)

	cases := map[string]string{
		"missing seed":    "/api/scene?page_height=1000&viewport_height=1000",
		"short seed":      "/api/scene?seed=abc",
		"uppercase seed":  "/api/scene?seed=" + strings.ToUpper(testSeed),
		"negative height": "/api/scene?seed=" + testSeed + "&page_height=-5",
		"not a number":    "/api/scene?seed=" + testSeed + "&viewport_height=tall",
		"unknown variant": "/api/scene?seed=" + testSeed + "&variant=spiral",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			w := get(r, target, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestSceneAPIDegenerateGeometry(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, "/api/scene?seed="+testSeed, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var scene background.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scene))
	assert.Equal(t, 1.0, scene.Ratio)
	assert.NotEmpty(t, scene.Nodes)
	assert.GreaterOrEqual(t, len(scene.Stars), 50)
}

func TestSceneAPIVariant(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, sceneURL(testSeed, 1000, 1000)+"&variant=range", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var scene background.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scene))
	assert.GreaterOrEqual(t, len(scene.Nodes), 4)
	assert.LessOrEqual(t, len(scene.Nodes), 8)
}

func TestSceneCSS(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, strings.Replace(sceneURL(testSeed, 1000, 1000), "/api/scene?", "/api/scene.css?", 1), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")

	css := w.Body.String()
	assert.Contains(t, css, "#sky {")
	assert.Contains(t, css, "#starfield .star:nth-child(213)")
	assert.NotContains(t, css, "#starfield .star:nth-child(214)")
	assert.Contains(t, css, `.bubble-card[data-card="project-one"]`)
}

func TestSkillsAPI(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, "/api/skills", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var graph struct {
		Connections map[string][]string `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &graph))
	assert.ElementsMatch(t, []string{"java", "cpp", "git"}, graph.Connections["python"])
}

func TestSkillLinesAPI(t *testing.T) {
	_, r := newTestServer(t)

	body := `{
		"container": {"left": 10, "top": 100, "width": 500, "height": 200},
		"nodes": {
			"python": {"left": 10, "top": 100, "width": 40, "height": 20},
			"java": {"left": 110, "top": 140, "width": 40, "height": 20},
			"adobe": {"left": 300, "top": 200, "width": 40, "height": 20}
		},
		"highlight": "python"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/skills/lines", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Lines []struct {
			From string  `json:"from"`
			To   string  `json:"to"`
			X1   float64 `json:"x1"`
			Y1   float64 `json:"y1"`
			X2   float64 `json:"x2"`
			Y2   float64 `json:"y2"`
		} `json:"lines"`
		Highlight struct {
			Skill  string            `json:"skill"`
			Skills []string          `json:"skills"`
			Lines  []json.RawMessage `json:"lines"`
		} `json:"highlight"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// java -> python and python -> java; adobe has no neighbour on the page.
	require.Len(t, resp.Lines, 2)
	first := resp.Lines[0]
	assert.Equal(t, "java", first.From)
	assert.Equal(t, "python", first.To)
	assert.Equal(t, 120.0, first.X1)
	assert.Equal(t, 50.0, first.Y1)
	assert.Equal(t, 20.0, first.X2)
	assert.Equal(t, 10.0, first.Y2)

	assert.Equal(t, "python", resp.Highlight.Skill)
	assert.ElementsMatch(t, []string{"java", "cpp", "git"}, resp.Highlight.Skills)
	assert.Len(t, resp.Highlight.Lines, 2)
}

func TestSkillLinesAPIRejectsMissingNodes(t *testing.T) {
	_, r := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/skills/lines", bytes.NewBufferString(`{"container": {}}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaticScript(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, "/static/js/sky.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/scene?")
}

func TestPageMeasuresContentOnly(t *testing.T) {
	_, r := newTestServer(t)

	// Decorations are sized from the last scene. If the page height included
	// them it could grow but never shrink.
	js := get(r, "/static/js/sky.js", nil).Body.String()
	assert.NotContains(t, js, "scrollHeight")
	assert.Contains(t, js, `hasAttribute("data-decoration")`)

	page := get(r, "/", nil).Body.String()
	for _, id := range []string{"sky", "starfield", "particles"} {
		assert.Regexp(t, `id="`+id+`" data-decoration`, page)
	}

	css := get(r, "/static/css/sky.css", nil).Body.String()
	assert.Regexp(t, `#sky, #starfield \{[^}]*overflow: hidden`, css)
	assert.Contains(t, css, "#particles { position: fixed")
}

func TestSceneAPIParticles(t *testing.T) {
	_, r := newTestServer(t)

	w := get(r, sceneURL(testSeed, 4000, 1000), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var scene background.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scene))
	assert.Len(t, scene.Particles.Particles, background.FieldParticles)
	assert.Equal(t, 1000.0, scene.Particles.Height, "particles cover the viewport")
	assert.Equal(t, 1280.0, scene.Particles.Width)
	require.Len(t, scene.Burst, background.BurstParticles)
	assert.Equal(t, 29*background.BurstStaggerMS, scene.Burst[29].DelayMS)
}
