package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
)

type adminApi struct {
	*Server
}

// registerAdminAPI registers the admin endpoints on `g`, which must be restricted to admins.
func registerAdminAPI(g *echo.Group, s *Server) {
	api := adminApi{s}

	g.GET("/stats", api.stats)

	ug := g.Group("/users")
	ug.GET("", api.queryUsers)
	ug.POST("", api.createUser)
	ug.GET("/:id", api.retrieveUser)
	ug.PUT("/:id", api.updateUser)
	ug.DELETE("/:id", api.destroyUser)

	pg := g.Group("/programs")
	pg.GET("", api.queryPrograms)
	pg.POST("", api.createProgram)
	pg.GET("/:id", api.retrieveProgram)
	pg.PUT("/:id", api.updateProgram)
	pg.DELETE("/:id", api.destroyProgram)

	lg := g.Group("/lectures")
	lg.GET("", api.queryLectures)
	lg.POST("", api.createLecture)
	lg.GET("/:id", api.retrieveLecture)
	lg.PUT("/:id", api.updateLecture)
	lg.DELETE("/:id", api.destroyLecture)

	postg := g.Group("/posts")
	postg.GET("", api.queryPosts)
	postg.POST("", api.createPost)
	postg.GET("/:id", api.retrievePost)
	postg.PUT("/:id", api.updatePost)
	postg.DELETE("/:id", api.destroyPost)

	rg := g.Group("/reviews")
	rg.PUT("/:id", api.updateReview)
	rg.DELETE("/:id", api.destroyReview)

	wg := g.Group("/waitlist")
	wg.GET("", api.queryWaitlist)
	wg.DELETE("/:id", api.destroyWaitlistEntry)
}

// Stats are the admin dashboard counters.
type Stats struct {
	Users           int `json:"users"`
	Admins          int `json:"admins"`
	Programs        int `json:"programs"`
	Lectures        int `json:"lectures"`
	Reviews         int `json:"reviews"`
	FeaturedReviews int `json:"featured_reviews"`
	Posts           int `json:"posts"`
	PublishedPosts  int `json:"published_posts"`
	Waitlist        int `json:"waitlist"`
}

func (api *adminApi) stats(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	var stats Stats

	users, err := api.opts.UserSvc.List(reqCtx, user.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "listing users")
	}
	stats.Users = len(users)
	for _, usr := range users {
		if usr.IsAdmin {
			stats.Admins++
		}
	}

	progs, err := api.opts.ProgramSvc.List(reqCtx, program.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "listing programs")
	}
	stats.Programs = len(progs)

	lecs, err := api.opts.LectureSvc.List(reqCtx, lecture.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "listing lectures")
	}
	stats.Lectures = len(lecs)

	revs, err := api.opts.ReviewSvc.List(reqCtx)
	if err != nil {
		return errors.Wrap(err, "listing reviews")
	}
	stats.Reviews = len(revs)
	for _, rev := range revs {
		if rev.Featured {
			stats.FeaturedReviews++
		}
	}

	posts, err := api.opts.PostSvc.List(reqCtx, post.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	stats.Posts = len(posts)
	for _, p := range posts {
		if p.IsPublished() {
			stats.PublishedPosts++
		}
	}

	entries, err := api.opts.WaitlistSvc.List(reqCtx, waitlist.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "listing waitlist")
	}
	stats.Waitlist = len(entries)

	return ctx.JSON(http.StatusOK, stats)
}

// Users

func (api *adminApi) queryUsers(ctx echo.Context) error {
	var filter user.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to user.QueryFilter")
	}
	users, err := api.opts.UserSvc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *adminApi) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), api.opts.Validate, api.opts.UserSvc); err != nil {
		return err
	}
	usr, err := api.opts.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) getUser(ctx echo.Context) (user.User, error) {
	id, err := paramID(ctx)
	if err != nil {
		return user.User{}, err
	}
	usr, err := api.opts.UserSvc.Get(ctx.Request().Context(), id)
	return usr, errors.Wrap(err, "finding user")
}

func (api *adminApi) retrieveUser(ctx echo.Context) error {
	usr, err := api.getUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) updateUser(ctx echo.Context) error {
	usr, err := api.getUser(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
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

func (api *adminApi) destroyUser(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if id == getContextViewer(ctx).ID {
		return errHttpForbidden
	}
	if err = api.opts.UserSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Programs

func (api *adminApi) queryPrograms(ctx echo.Context) error {
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

func (api *adminApi) createProgram(ctx echo.Context) error {
	var data program.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(ctx.Request().Context(), api.opts.Validate, api.opts.ProgramSvc); err != nil {
		return err
	}
	prog, err := api.opts.ProgramSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, prog)
}

func (api *adminApi) getProgram(ctx echo.Context) (program.Program, error) {
	id, err := paramID(ctx)
	if err != nil {
		return program.Program{}, err
	}
	prog, err := api.opts.ProgramSvc.Get(ctx.Request().Context(), id)
	return prog, errors.Wrap(err, "finding program")
}

func (api *adminApi) retrieveProgram(ctx echo.Context) error {
	prog, err := api.getProgram(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *adminApi) updateProgram(ctx echo.Context) error {
	prog, err := api.getProgram(ctx)
	if err != nil {
		return err
	}
	var data program.UpdateProgram
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgram")
	}
	if err = data.Validate(ctx.Request().Context(), prog, api.opts.Validate, api.opts.ProgramSvc); err != nil {
		return err
	}
	prog, err = api.opts.ProgramSvc.Update(ctx.Request().Context(), prog, data)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, prog)
}

// destroyProgram also deletes the lectures of the program.
func (api *adminApi) destroyProgram(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.ProgramSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Lectures

func (api *adminApi) queryLectures(ctx echo.Context) error {
	var filter lecture.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to lecture.QueryFilter")
	}
	lecs, err := api.opts.LectureSvc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing lectures")
	}
	return ctx.JSON(http.StatusOK, lecs)
}

func (api *adminApi) createLecture(ctx echo.Context) error {
	var data lecture.NewLecture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	if err := data.Validate(ctx.Request().Context(), api.opts.Validate, api.opts.LectureSvc); err != nil {
		return err
	}
	lec, err := api.opts.LectureSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lecture")
	}
	return ctx.JSON(http.StatusCreated, lec)
}

func (api *adminApi) getLecture(ctx echo.Context) (lecture.Lecture, error) {
	id, err := paramID(ctx)
	if err != nil {
		return lecture.Lecture{}, err
	}
	lec, err := api.opts.LectureSvc.Get(ctx.Request().Context(), id)
	return lec, errors.Wrap(err, "finding lecture")
}

func (api *adminApi) retrieveLecture(ctx echo.Context) error {
	lec, err := api.getLecture(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lec)
}

func (api *adminApi) updateLecture(ctx echo.Context) error {
	lec, err := api.getLecture(ctx)
	if err != nil {
		return err
	}
	var data lecture.UpdateLecture
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLecture")
	}
	if err = data.Validate(ctx.Request().Context(), lec, api.opts.Validate, api.opts.LectureSvc); err != nil {
		return err
	}
	lec, err = api.opts.LectureSvc.Update(ctx.Request().Context(), lec, data)
	if err != nil {
		return errors.Wrap(err, "updating lecture")
	}
	return ctx.JSON(http.StatusOK, lec)
}

func (api *adminApi) destroyLecture(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.LectureSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting lecture")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Posts

func (api *adminApi) queryPosts(ctx echo.Context) error {
	var filter post.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to post.QueryFilter")
	}
	posts, err := api.opts.PostSvc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing posts")
	}
	return ctx.JSON(http.StatusOK, posts)
}

// createPost signs the post with the context user.
func (api *adminApi) createPost(ctx echo.Context) error {
	usr, err := api.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data post.NewPost
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	data.Author = usr.Name
	data.AuthorID = usr.ID
	if err = data.Validate(ctx.Request().Context(), api.opts.Validate, api.opts.PostSvc); err != nil {
		return err
	}
	p, err := api.opts.PostSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating post")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *adminApi) getPost(ctx echo.Context) (post.Post, error) {
	id, err := paramID(ctx)
	if err != nil {
		return post.Post{}, err
	}
	p, err := api.opts.PostSvc.Get(ctx.Request().Context(), id)
	return p, errors.Wrap(err, "finding post")
}

func (api *adminApi) retrievePost(ctx echo.Context) error {
	p, err := api.getPost(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *adminApi) updatePost(ctx echo.Context) error {
	p, err := api.getPost(ctx)
	if err != nil {
		return err
	}
	var data post.UpdatePost
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePost")
	}
	if err = data.Validate(ctx.Request().Context(), p, api.opts.Validate, api.opts.PostSvc); err != nil {
		return err
	}
	p, err = api.opts.PostSvc.Update(ctx.Request().Context(), p, data)
	if err != nil {
		return errors.Wrap(err, "updating post")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *adminApi) destroyPost(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.PostSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Reviews

func (api *adminApi) updateReview(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rev, err := api.opts.ReviewSvc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding review")
	}
	var data review.UpdateReview
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReview")
	}
	if err = data.Validate(ctx.Request().Context(), rev, api.opts.Validate); err != nil {
		return err
	}
	rev, err = api.opts.ReviewSvc.Update(ctx.Request().Context(), rev, data)
	if err != nil {
		return errors.Wrap(err, "updating review")
	}
	return ctx.JSON(http.StatusOK, rev)
}

func (api *adminApi) destroyReview(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.ReviewSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting review")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Waitlist

func (api *adminApi) queryWaitlist(ctx echo.Context) error {
	var filter waitlist.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to waitlist.QueryFilter")
	}
	entries, err := api.opts.WaitlistSvc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing waitlist")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *adminApi) destroyWaitlistEntry(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.opts.WaitlistSvc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting waitlist entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
