package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgrijalva/jwt-go"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/lecture"
	"github.com/trezcool/coursehub/core/post"
	"github.com/trezcool/coursehub/core/program"
	"github.com/trezcool/coursehub/core/review"
	"github.com/trezcool/coursehub/core/user"
	"github.com/trezcool/coursehub/core/waitlist"
)

// Options are the dependencies of the Server.
type Options struct {
	dig.In

	Conf        *core.Config
	Logger      core.Logger
	Validate    *validator.Validate
	Translator  ut.Translator
	ProgramSvc  program.ServiceInterface
	LectureSvc  lecture.ServiceInterface
	ReviewSvc   review.ServiceInterface
	UserSvc     user.ServiceInterface
	PostSvc     post.ServiceInterface
	WaitlistSvc waitlist.ServiceInterface
}

type Server struct {
	opts      Options
	app       *echo.Echo
	jwtConfig middleware.JWTConfig
	errors    chan error
	shutdown  chan os.Signal
}

func NewServer(opts Options) *Server {
	s := &Server{
		opts: opts,
		app:  echo.New(),
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(opts.Conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    contextTokenKey,
			Claims:        new(Claims),
		},
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf
	debug := conf.Debug && !conf.TestMode

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: conf.Server.AllowOrigins}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	jwtAuth := middleware.JWTWithConfig(s.jwtConfig)
	optionalJWTConfig := s.jwtConfig
	optionalJWTConfig.Skipper = func(ctx echo.Context) bool {
		return ctx.Request().Header.Get(echo.HeaderAuthorization) == ""
	}
	optionalAuth := middleware.JWTWithConfig(optionalJWTConfig)

	v1 := s.app.Group("/v1")
	registerUserAPI(v1, jwtAuth, s)
	registerProgramAPI(v1, optionalAuth, s)
	registerLectureAPI(v1, optionalAuth, s)
	registerReviewAPI(v1, jwtAuth, s)
	registerInsightAPI(v1, s)
	registerWaitlistAPI(v1, s)

	admin := v1.Group("/admin", jwtAuth, adminMiddleware())
	registerAdminAPI(admin, s)
}

// Start listens until the server is shut down. Unexpected failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

// Close stops the server immediately.
func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (s *Server) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(s.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(s.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Build   string `json:"build"`
}

// health reports whether the data backend answers.
func (s *Server) health(ctx echo.Context) error {
	resp := healthResponse{Status: "ok", Backend: s.opts.Conf.Backend, Build: s.opts.Conf.Build}
	if _, err := s.opts.ProgramSvc.List(ctx.Request().Context(), program.QueryFilter{}); err != nil {
		s.opts.Logger.Warn("health check failed", err)
		resp.Status = "unavailable"
		return ctx.JSON(http.StatusServiceUnavailable, resp)
	}
	return ctx.JSON(http.StatusOK, resp)
}
