package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FashtimeDotCom/cow-blog/internal/blog"
	"github.com/FashtimeDotCom/cow-blog/internal/models"
	"github.com/FashtimeDotCom/cow-blog/internal/storage"
)

// fail translates storage errors into status codes.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, storage.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrConstraint):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		s.logger.ErrorContext(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (s *Server) page(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func (s *Server) listPosts(c *gin.Context) {
	ctx := c.Request.Context()
	q := blog.Posts(s.session).
		ByType(models.TypeBlog).
		Newest().
		Page(s.page(c), s.cfg.Site.PageSize).
		WithCategory().
		WithTags()

	posts, err := q.Find(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	total, err := blog.Posts(s.session).ByType(models.TypeBlog).Count(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "total": total})
}

func (s *Server) showPost(c *gin.Context) {
	post, err := blog.Posts(s.session).
		ByURL(c.Param("url")).
		ByType(models.TypeBlog).
		WithComments().
		WithTags().
		WithCategory().
		WithAuthor().
		One(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) showPage(c *gin.Context) {
	page, err := blog.Posts(s.session).
		ByURL(c.Param("url")).
		ByType(models.TypePage).
		WithParent().
		One(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) createComment(c *gin.Context) {
	var req struct {
		Author   string `json:"author"`
		Email    string `json:"email"`
		Homepage string `json:"homepage"`
		Markdown string `json:"markdown" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := blog.Posts(s.session).ByURL(c.Param("url")).One(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	comment, err := s.svc.CreateComment(c.Request.Context(), blog.CommentInput{
		PostID:   post.ID,
		Author:   req.Author,
		Email:    req.Email,
		Homepage: req.Homepage,
		Markdown: req.Markdown,
		IP:       c.ClientIP(),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) listTags(c *gin.Context) {
	tags, err := blog.AllTags(c.Request.Context(), s.session)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (s *Server) showTag(c *gin.Context) {
	ctx := c.Request.Context()
	tag, err := blog.TagByURL(ctx, s.session, c.Param("url"))
	if err != nil {
		s.fail(c, err)
		return
	}

	ids, err := blog.PostIDsForTag(ctx, s.session, tag.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	posts := []*models.Post{}
	if len(ids) > 0 {
		posts, err = blog.Posts(s.session).
			ByIDs(ids).
			ByType(models.TypeBlog).
			Newest().
			Page(s.page(c), s.cfg.Site.PageSize).
			Find(ctx)
		if err != nil {
			s.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag, "posts": posts})
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := blog.AllCategories(c.Request.Context(), s.session)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) showCategory(c *gin.Context) {
	ctx := c.Request.Context()
	category, err := blog.CategoryByURL(ctx, s.session, c.Param("url"))
	if err != nil {
		s.fail(c, err)
		return
	}

	posts, err := blog.Posts(s.session).
		ByCategory(category.ID).
		ByType(models.TypeBlog).
		Newest().
		Page(s.page(c), s.cfg.Site.PageSize).
		Find(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category, "posts": posts})
}
