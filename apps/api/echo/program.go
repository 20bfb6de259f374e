package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/access"
	"github.com/trezcool/coursehub/core/program"
)

type programApi struct {
	*Server
}

func registerProgramAPI(g *echo.Group, optionalAuth echo.MiddlewareFunc, s *Server) {
	api := programApi{s}

	pg := g.Group("/programs")
	pg.GET("", api.query)
	pg.GET("/:slug", api.retrieveOutline, optionalAuth)
}

func (api *programApi) query(ctx echo.Context) error {
	var filter program.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to program.QueryFilter")
	}

	progs, err := api.opts.ProgramSvc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing programs")
	}
	return ctx.JSON(http.StatusOK, progs)
}

// retrieveOutline returns the program matching the slug (or the most similar one) with its lectures
// as the viewer may see them.
func (api *programApi) retrieveOutline(ctx echo.Context) error {
	var filter access.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to access.Filter")
	}

	reqCtx := ctx.Request().Context()
	prog, err := api.opts.ProgramSvc.GetBySlugOrSimilar(reqCtx, ctx.Param("slug"))
	if err != nil {
		return errors.Wrap(err, "finding program")
	}
	lecs, err := api.opts.LectureSvc.ListByProgram(reqCtx, prog.ID)
	if err != nil {
		return errors.Wrap(err, "listing program lectures")
	}

	return ctx.JSON(http.StatusOK, access.BuildOutline(getContextViewer(ctx), prog, lecs, filter))
}
