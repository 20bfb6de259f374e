package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/waitlist"
)

func registerWaitlistAPI(g *echo.Group, s *Server) {
	g.POST("/waitlist", s.joinWaitlist)
}

func (s *Server) joinWaitlist(ctx echo.Context) error {
	var data waitlist.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(ctx.Request().Context(), s.opts.Validate, s.opts.WaitlistSvc); err != nil {
		return err
	}

	entry, err := s.opts.WaitlistSvc.Join(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "joining waitlist")
	}
	return ctx.JSON(http.StatusCreated, entry)
}
