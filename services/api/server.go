// Package api exposes the storage messages over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"sjsage522/dealscout/logger"
	"sjsage522/dealscout/services/transport"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// anySite in a path matches every known site
const anySite = "all"

// Server routes HTTP requests to a transport.Requester
type Server struct {
	requester transport.Requester
	engine    *gin.Engine
	log       *logger.Logger
	started   time.Time
}

// NewServer builds the router; production disables gin's debug output
func NewServer(requester transport.Requester, production bool) *Server {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		requester: requester,
		engine:    gin.New(),
		log:       logger.ForAPI(),
		started:   time.Now(),
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	s.engine.Use(gin.Recovery(), s.requestLogger(), cors.New(config))

	api := s.engine.Group("/api")
	{
		api.POST("/messages", s.postMessage)
		api.GET("/listings", s.getAllListings)
		api.DELETE("/listings", s.clearAll)
		api.POST("/listings", s.saveListing)
		api.POST("/listings/batch", s.saveListings)
		api.GET("/listings/:site/:id", s.getListing)
		api.DELETE("/listings/:site/:id", s.deleteListing)
		api.GET("/stats", s.getStats)
		api.POST("/analyze", s.analyze)
		api.POST("/extract", s.extract)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(s.started).Round(time.Second).String()})
		})
	}
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx ends
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("Request handled")
	}
}

// send forwards msg and writes the response. Unknown message types have
// no response and yield 204.
func (s *Server) send(c *gin.Context, msg transport.Message) (transport.Response, bool) {
	resp, err := s.requester.Request(c.Request.Context(), msg)
	if errors.Is(err, transport.ErrNoResponse) {
		c.Status(http.StatusNoContent)
		return nil, false
	}
	if err != nil {
		s.log.Error().Err(err).Str("type", string(msg.Type)).Msg("Request failed")
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return nil, false
	}
	return resp, true
}

func (s *Server) reply(c *gin.Context, msg transport.Message) {
	resp, ok := s.send(c, msg)
	if !ok {
		return
	}
	status := http.StatusOK
	if !resp.Success() {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

func (s *Server) postMessage(c *gin.Context) {
	var msg transport.Message
	if err := c.ShouldBindJSON(&msg); err != nil || msg.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid message"})
		return
	}
	resp, ok := s.send(c, msg)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getAllListings(c *gin.Context) {
	s.reply(c, transport.Message{Type: transport.TypeGetAllListings})
}

func (s *Server) clearAll(c *gin.Context) {
	s.reply(c, transport.Message{Type: transport.TypeClearAll})
}

func (s *Server) getStats(c *gin.Context) {
	s.reply(c, transport.Message{Type: transport.TypeGetStats})
}

func (s *Server) saveListing(c *gin.Context) {
	s.withBody(c, transport.TypeSaveListing)
}

func (s *Server) saveListings(c *gin.Context) {
	s.withBody(c, transport.TypeSaveListings)
}

func (s *Server) withBody(c *gin.Context, t transport.MessageType) {
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body"})
		return
	}
	s.reply(c, transport.Message{Type: t, Data: raw})
}

func siteParam(c *gin.Context) string {
	if site := c.Param("site"); site != anySite {
		return site
	}
	return ""
}

func (s *Server) getListing(c *gin.Context) {
	resp, ok := s.send(c, transport.Message{
		Type:      transport.TypeGetListing,
		Site:      siteParam(c),
		ListingNo: c.Param("id"),
	})
	if !ok {
		return
	}
	switch {
	case !resp.Success():
		c.JSON(http.StatusUnprocessableEntity, resp)
	case resp["listing"] == nil:
		c.JSON(http.StatusNotFound, resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) deleteListing(c *gin.Context) {
	s.reply(c, transport.Message{
		Type:      transport.TypeDeleteListing,
		Site:      siteParam(c),
		ListingNo: c.Param("id"),
	})
}

type analyzeRequest struct {
	ListingNo string          `json:"listingNo"`
	Site      string          `json:"site"`
	Data      json.RawMessage `json:"data"`
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body"})
		return
	}
	s.reply(c, transport.Message{
		Type:      transport.TypeAnalyzeRequest,
		ListingNo: req.ListingNo,
		Site:      req.Site,
		Data:      req.Data,
	})
}

type extractRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"`
	Kind string `json:"kind"`
}

func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "url is required"})
		return
	}
	t := transport.TypeGetData
	if req.Kind == "list" {
		t = transport.TypeGetList
	}
	s.reply(c, transport.Message{Type: t, URL: req.URL, HTML: req.HTML})
}
