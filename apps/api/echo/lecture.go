package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/access"
)

type lectureApi struct {
	*Server
}

func registerLectureAPI(g *echo.Group, optionalAuth echo.MiddlewareFunc, s *Server) {
	api := lectureApi{s}
	g.GET("/lectures/:id", api.retrieveEntry, optionalAuth)
}

// retrieveEntry returns the lecture as the viewer may see it: locked entries carry no content.
func (api *lectureApi) retrieveEntry(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var filter access.Filter
	if err = ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to access.Filter")
	}

	reqCtx := ctx.Request().Context()
	lec, err := api.opts.LectureSvc.Get(reqCtx, id)
	if err != nil {
		return errors.Wrap(err, "finding lecture")
	}
	prog, err := api.opts.ProgramSvc.Get(reqCtx, lec.ProgramID)
	if err != nil {
		return errors.Wrap(err, "finding lecture program")
	}
	siblings, err := api.opts.LectureSvc.ListByProgram(reqCtx, prog.ID)
	if err != nil {
		return errors.Wrap(err, "listing program lectures")
	}

	return ctx.JSON(http.StatusOK, access.LectureEntry(getContextViewer(ctx), prog, lec, siblings, filter))
}
