package main

import (
	"database/sql"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/cache"
	"github.com/Zachkp/zach-dev-sky/internal/config"
	"github.com/Zachkp/zach-dev-sky/internal/seed"
	"github.com/Zachkp/zach-dev-sky/internal/skills"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// seedKey is the gin context key the page handler stores the session seed under.
const seedKey = "sky.seed"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type server struct {
	cfg     config.Config
	db      *sql.DB
	cache   cache.Cache
	skills  *skills.Graph
	variant background.Variant
	logger  *log.Logger

	adminToken  string
	hashingSalt string
}

func newServer(cfg config.Config, db *sql.DB, c cache.Cache, logger *log.Logger) (*server, error) {
	variant, err := cfg.Variant()
	if err != nil {
		return nil, err
	}
	graph, err := skills.Default()
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	s := &server{
		cfg:     cfg,
		db:      db,
		cache:   c,
		skills:  graph,
		variant: variant,
		logger:  logger,
	}
	if err := s.initAdminToken(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) router() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), s.sessionTrackingMiddleware())

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/static", http.FS(static))

	// Home page route; every load gets a fresh sky.
	r.GET("/", func(c *gin.Context) {
		sd := seed.New()
		c.Set(seedKey, sd)
		c.HTML(http.StatusOK, "index.html", gin.H{
			"seed":       sd,
			"seedLabel":  seed.Label(sd),
			"aboutMe":    AboutMe,
			"projects":   Projects,
			"debounceMS": s.cfg.DebounceMS,
			"variant":    s.variant.String(),
		})
	})

	api := r.Group("/api")
	api.GET("/seed", func(c *gin.Context) {
		sd := seed.New()
		c.JSON(http.StatusOK, gin.H{"seed": sd, "label": seed.Label(sd)})
	})
	api.GET("/scene", s.handleScene)
	api.GET("/scene.css", s.handleSceneCSS)
	api.GET("/skills", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.skills)
	})
	api.POST("/skills/lines", s.handleSkillLines)

	s.setupAdminRoutes(r)
	return r, nil
}
