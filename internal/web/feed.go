package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"github.com/FashtimeDotCom/cow-blog/internal/blog"
	"github.com/FashtimeDotCom/cow-blog/internal/models"
)

const feedSize = 10

// feed serves the RSS feed of the newest public blog entries.
func (s *Server) feed(c *gin.Context) {
	posts, err := blog.Posts(s.session).
		ByType(models.TypeBlog).
		Newest().
		Page(1, feedSize).
		Find(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	feed := &feeds.Feed{
		Title:       s.cfg.Site.Title,
		Link:        &feeds.Link{Href: s.cfg.Site.URL},
		Description: s.cfg.Site.Description,
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].CreatedAt
	}

	for _, post := range posts {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       post.Title,
			Link:        &feeds.Link{Href: s.cfg.Site.URL + "/post/" + post.URL},
			Description: post.HTML,
			Created:     post.CreatedAt,
			Id:          s.cfg.Site.URL + "/post/" + post.URL,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}
