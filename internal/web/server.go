package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FashtimeDotCom/cow-blog/config"
	"github.com/FashtimeDotCom/cow-blog/internal/blog"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
)

// Server wires the HTTP surface to the blog service.
type Server struct {
	cfg      *config.Config
	session  *storage.Session
	svc      *blog.Service
	sessions *SessionStore
	logger   *slog.Logger
}

func NewServer(cfg *config.Config, session *storage.Session, svc *blog.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		session:  session,
		svc:      svc,
		sessions: NewSessionStore(cfg.HTTP.SessionTTL),
		logger:   logger,
	}
}

// Router builds the route table. Public reads, the comment box and the
// feed need no auth; everything under /admin does.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/", s.listPosts)
	r.GET("/post/:url", s.showPost)
	r.POST("/post/:url/comments", s.createComment)
	r.GET("/page/:url", s.showPage)
	r.GET("/tags", s.listTags)
	r.GET("/tag/:url", s.showTag)
	r.GET("/categories", s.listCategories)
	r.GET("/category/:url", s.showCategory)
	r.GET("/feed.xml", s.feed)

	r.POST("/login", s.login)
	r.POST("/logout", s.logout)

	admin := r.Group("/admin", s.requireAdmin())
	{
		admin.GET("/posts", s.adminListPosts)
		admin.GET("/posts/:id", s.adminShowPost)
		admin.POST("/posts", s.adminCreatePost)
		admin.PUT("/posts/:id", s.adminUpdatePost)
		admin.DELETE("/posts/:id", s.adminDeletePost)
		admin.POST("/comments/:id/spam", s.adminSpamComment)
		admin.DELETE("/comments/:id", s.adminDeleteComment)
		admin.POST("/categories", s.adminCreateCategory)
		admin.DELETE("/categories/:id", s.adminDeleteCategory)
		admin.POST("/counts/refresh", s.adminRefreshCounts)
	}

	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

func (s *Server) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := blog.Authenticate(c.Request.Context(), s.session, req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
		return
	}

	token := s.sessions.Issue(user.ID)
	c.SetCookie(sessionCookie, token, int(s.cfg.HTTP.SessionTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"username": user.Username})
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		s.sessions.Revoke(token)
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
