package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/user"
)

type userApi struct {
	*Server
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := userApi{s}

	ug := g.Group("/users")
	// un-authed endpoints
	ug.POST("/login", api.login)
	// authed endpoints
	ug.POST("/token-refresh", api.refreshToken, jwt)

	pg := g.Group("/profile", jwt)
	pg.GET("", api.retrieveProfile)
	pg.PUT("", api.updateProfile)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	claims, err := api.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.Server.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) retrieveProfile(ctx echo.Context) error {
	usr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

// updateProfile lets users change their name, email & password. Role, admin & cohort changes need an admin.
func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if data.AdminOnly() && !usr.IsAdmin {
		return errHttpForbidden
	}
	if err = data.Validate(ctx.Request().Context(), usr, api.opts.Validate, api.opts.UserSvc); err != nil {
		return err
	}

	usr, err = api.opts.UserSvc.Update(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}
