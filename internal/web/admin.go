package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FashtimeDotCom/cow-blog/internal/blog"
)

type postRequest struct {
	Title      string   `json:"title" binding:"required"`
	URL        string   `json:"url"`
	Markdown   string   `json:"markdown"`
	Status     string   `json:"status"`
	Type       string   `json:"type"`
	CategoryID int64    `json:"category_id"`
	ParentID   *int64   `json:"parent_id"`
	Tags       []string `json:"tags"`
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return 0, false
	}
	return id, true
}

func (s *Server) adminListPosts(c *gin.Context) {
	posts, err := blog.Posts(s.session).
		Admin(true).
		Newest().
		Page(s.page(c), s.cfg.Site.PageSize).
		WithCategory().
		Find(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) adminShowPost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	post, err := blog.Posts(s.session).
		Admin(true).
		ByID(id).
		WithComments().
		WithTags().
		One(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) adminCreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.svc.CreatePost(c.Request.Context(), blog.PostInput{
		Title:      req.Title,
		URL:        req.URL,
		Markdown:   req.Markdown,
		Status:     req.Status,
		Type:       req.Type,
		CategoryID: req.CategoryID,
		UserID:     c.GetInt64("user_id"),
		ParentID:   req.ParentID,
		Tags:       req.Tags,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) adminUpdatePost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := s.svc.UpdatePost(c.Request.Context(), id, blog.PostInput{
		Title:      req.Title,
		URL:        req.URL,
		Markdown:   req.Markdown,
		Status:     req.Status,
		Type:       req.Type,
		CategoryID: req.CategoryID,
		UserID:     c.GetInt64("user_id"),
		ParentID:   req.ParentID,
		Tags:       req.Tags,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) adminDeletePost(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.svc.DeletePost(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminSpamComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.svc.MarkCommentSpam(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminDeleteComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteComment(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminCreateCategory(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required"`
		URL   string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := s.svc.CreateCategory(c.Request.Context(), req.Title, req.URL)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) adminDeleteCategory(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteCategory(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) adminRefreshCounts(c *gin.Context) {
	if err := s.svc.UpdateCounts(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
