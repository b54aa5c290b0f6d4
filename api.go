package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/cache"
	"github.com/Zachkp/zach-dev-sky/internal/prng"
	"github.com/Zachkp/zach-dev-sky/internal/seed"
	"github.com/Zachkp/zach-dev-sky/internal/skills"
)

// sceneQuery is the geometry a browser reports when it asks for a sky.
type sceneQuery struct {
	Seed           string  `form:"seed" binding:"required"`
	PageHeight     float64 `form:"page_height" binding:"gte=0,lte=10000000"`
	ViewportHeight float64 `form:"viewport_height" binding:"gte=0,lte=10000000"`
	ViewportWidth  float64 `form:"viewport_width" binding:"gte=0,lte=10000000"`
	Variant        string  `form:"variant"`
}

func (s *server) handleScene(c *gin.Context) {
	scene, ok := s.sceneFromQuery(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scene)
}

func (s *server) handleSceneCSS(c *gin.Context) {
	scene, ok := s.sceneFromQuery(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(scene.CSS()))
}

// sceneFromQuery validates the request and returns its scene. On failure it
// has already written the error response.
func (s *server) sceneFromQuery(c *gin.Context) (background.Scene, bool) {
	var q sceneQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return background.Scene{}, false
	}
	if !seed.Valid(q.Seed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be 32 lowercase hex characters"})
		return background.Scene{}, false
	}
	variant := s.variant
	if q.Variant != "" {
		v, err := background.ParseVariant(q.Variant)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return background.Scene{}, false
		}
		variant = v
	}

	geo := background.Geometry{
		PageHeight:     q.PageHeight,
		ViewportHeight: q.ViewportHeight,
		ViewportWidth:  q.ViewportWidth,
	}
	ctx := c.Request.Context()
	scene, cached, err := s.scene(ctx, q.Seed, geo, variant)
	if err != nil {
		s.logger.Error("generate scene", "seed", q.Seed, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate scene"})
		return background.Scene{}, false
	}

	if cached {
		c.Header("X-Cache", "hit")
	} else {
		c.Header("X-Cache", "miss")
	}
	s.trackRender(ctx, scene, cached)
	return scene, true
}

// scene returns the scene for seed and geometry. Every request rebuilds the
// generator from the seed, so the result is cacheable.
func (s *server) scene(ctx context.Context, sd string, geo background.Geometry, variant background.Variant) (background.Scene, bool, error) {
	key, err := cache.Key("scene", sd, geo, variant.String())
	if err != nil {
		s.logger.Warn("scene not cacheable", "err", err)
		scene, err := s.generate(sd, geo, variant)
		return scene, false, err
	}

	var scene background.Scene
	err = cache.GetJSON(ctx, s.cache, key, &scene)
	switch {
	case err == nil:
		return scene, true, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("scene cache read failed", "err", err)
	}

	scene, err = s.generate(sd, geo, variant)
	if err != nil {
		return background.Scene{}, false, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, scene, s.cfg.CacheTTL.Duration); err != nil {
		s.logger.Warn("scene cache write failed", "err", err)
	}
	return scene, false, nil
}

func (s *server) generate(sd string, geo background.Geometry, variant background.Variant) (background.Scene, error) {
	src, err := prng.FromSeed(sd)
	if err != nil {
		return background.Scene{}, err
	}
	return background.Generate(src, sd, geo, background.Options{Variant: variant, Cards: projectIDs()})
}

type skillLinesRequest struct {
	Container skills.Rect            `json:"container"`
	Nodes     map[string]skills.Rect `json:"nodes" binding:"required"`
	Highlight string                 `json:"highlight"`
}

// handleSkillLines lays out the connection lines for the node rectangles the
// page measured, plus the hover highlight if one was asked for.
func (s *server) handleSkillLines(c *gin.Context) {
	var req skillLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lines := s.skills.Lines(req.Nodes, req.Container)
	resp := gin.H{"lines": lines}
	if req.Highlight != "" {
		resp["highlight"] = s.skills.Highlight(req.Highlight, lines)
	}
	c.JSON(http.StatusOK, resp)
}
