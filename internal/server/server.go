// Package server exposes the HTTP API. Handlers are pass-through: they bind
// request DTOs, call the session store or the agent, and return its response.
// Agent responses are always 200 with the failure represented in-band.
package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techchamps/repoagent/internal/agent"
	"github.com/techchamps/repoagent/internal/session"
)

type Server struct {
	engine        *gin.Engine
	agent         *agent.Agent
	store         *session.Store
	authenticator *session.GitHubAuthenticator
}

func New(ag *agent.Agent, store *session.Store, authenticator *session.GitHubAuthenticator) *Server {
	s := &Server{
		engine:        gin.New(),
		agent:         ag,
		store:         store,
		authenticator: authenticator,
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/github/authenticate", s.handleAuthenticate)
	api.GET("/github/repositories", s.handleListRepositories)
	api.POST("/session/repository", s.handleSelectRepository)
	api.GET("/session/history", s.handleHistory)
	api.POST("/agent/chat", s.handleChat)
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler exposes the router for tests and custom http.Server setups.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type authenticateRequest struct {
	PersonalAccessToken string `json:"personalAccessToken" binding:"required"`
}

func (s *Server) handleAuthenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Personal Access Token is required"})
		return
	}

	username, err := s.authenticator.ValidateToken(c.Request.Context(), req.PersonalAccessToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Failed to authenticate with GitHub. Please check your Personal Access Token."})
		return
	}

	sess, err := s.store.Create(req.PersonalAccessToken, username)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"sessionId": sess.ID,
		"username":  sess.Username,
	})
}

func (s *Server) sessionFromRequest(c *gin.Context) (*session.UserSession, bool) {
	id := c.GetHeader("X-Session-ID")
	if id == "" {
		id = c.Query("sessionId")
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Session ID is required"})
		return nil, false
	}

	sess, err := s.store.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Session not found or expired"})
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to load session %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load session"})
		return nil, false
	}
	return sess, true
}

func (s *Server) handleListRepositories(c *gin.Context) {
	sess, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	repos, err := s.authenticator.ListRepositories(c.Request.Context(), sess.Credential)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "Failed to list repositories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "repositories": repos})
}

type selectRepositoryRequest struct {
	SessionID  string `json:"sessionId" binding:"required"`
	Repository string `json:"repository" binding:"required"`
}

func (s *Server) handleSelectRepository(c *gin.Context) {
	var req selectRepositoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Session ID and repository are required"})
		return
	}

	sess, err := s.store.SelectRepository(req.SessionID, req.Repository)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Session not found or expired"})
		return
	}
	if err != nil {
		log.Printf("Failed to select repository: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to select repository"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "repository": sess.Repository})
}

func (s *Server) handleHistory(c *gin.Context) {
	sess, ok := s.sessionFromRequest(c)
	if !ok {
		return
	}

	messages, err := s.store.History(sess.ID)
	if err != nil {
		log.Printf("Failed to load chat history: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load chat history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": messages})
}

type chatRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Session ID is required"})
		return
	}

	sess, err := s.store.Get(req.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Session not found or expired"})
		return
	}
	if err != nil {
		log.Printf("Failed to load session %s: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to load session"})
		return
	}

	sctx := session.Context{
		Credential: sess.Credential,
		Repository: sess.Repository,
	}
	reply := s.agent.ResolveAndExecute(c.Request.Context(), req.Message, sctx)

	if err := s.store.AppendMessage(sess.ID, "user", req.Message); err != nil {
		log.Printf("Failed to record user message: %v", err)
	}
	if err := s.store.AppendMessage(sess.ID, "assistant", reply); err != nil {
		log.Printf("Failed to record assistant message: %v", err)
	}
	if err := s.store.Touch(sess.ID); err != nil {
		log.Printf("Failed to touch session: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": reply})
}
