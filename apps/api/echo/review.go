package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/review"
)

type reviewApi struct {
	*Server
}

func registerReviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := reviewApi{s}

	rg := g.Group("/reviews")
	rg.GET("", api.query)
	rg.GET("/featured", api.queryFeatured)
	rg.GET("/:id", api.retrieve)
	rg.POST("", api.create, jwt)
	rg.POST("/:id/like", api.toggleLike, jwt)
}

func (api *reviewApi) query(ctx echo.Context) error {
	revs, err := api.opts.ReviewSvc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing reviews")
	}
	return ctx.JSON(http.StatusOK, revs)
}

func (api *reviewApi) queryFeatured(ctx echo.Context) error {
	revs, err := api.opts.ReviewSvc.ListFeatured(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing featured reviews")
	}
	return ctx.JSON(http.StatusOK, revs)
}

func (api *reviewApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rev, err := api.opts.ReviewSvc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding review")
	}
	return ctx.JSON(http.StatusOK, rev)
}

// create posts a review authored by the context user, named after them unless told otherwise.
func (api *reviewApi) create(ctx echo.Context) error {
	usr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data review.NewReview
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	data.AuthorID = usr.ID
	if core.CleanString(data.AuthorName) == "" {
		data.AuthorName = usr.Name
	}
	if err = data.Validate(ctx.Request().Context(), api.opts.Validate); err != nil {
		return err
	}

	rev, err := api.opts.ReviewSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating review")
	}
	return ctx.JSON(http.StatusCreated, rev)
}

func (api *reviewApi) toggleLike(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	viewer := getContextViewer(ctx)
	if !viewer.IsAuthenticated() {
		return errUnauthorized
	}

	rev, err := api.opts.ReviewSvc.ToggleLike(ctx.Request().Context(), id, viewer.ID)
	if err != nil {
		return errors.Wrap(err, "toggling review like")
	}
	return ctx.JSON(http.StatusOK, rev)
}
