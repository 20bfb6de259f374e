package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type insightApi struct {
	*Server
}

// registerInsightAPI serves the published posts.
func registerInsightAPI(g *echo.Group, s *Server) {
	api := insightApi{s}

	ig := g.Group("/insights")
	ig.GET("", api.query)
	ig.GET("/:slug", api.retrieve)
}

func (api *insightApi) query(ctx echo.Context) error {
	posts, err := api.opts.PostSvc.ListPublished(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "listing published posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *insightApi) retrieve(ctx echo.Context) error {
	p, err := api.opts.PostSvc.GetPublishedBySlugOrSimilar(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "finding published post")
	}
	return ctx.JSON(http.StatusOK, p)
}
