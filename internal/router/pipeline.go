package router

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/deppfellow/base-api/internal/handler"
	"github.com/deppfellow/base-api/internal/middleware"
	"github.com/deppfellow/base-api/internal/server"
)

// Stage names, in the order they run.
const (
	StageMiddleware      = "middleware"
	StageRoutes          = "routes"
	StageNotFound        = "not_found"
	StageErrorNormalizer = "error_normalizer"
)

// stage is one step of router assembly.
//
// When advances is set, the server lifecycle moves to state once the
// stage has been applied.
type stage struct {
	name     string
	apply    func(e *echo.Echo)
	advances bool
	state    server.State
}

// Pipeline assembles the echo instance from an explicit, ordered list of
// stages: middleware, routes, the Not-Found responder and the error
// normalizer.
type Pipeline struct {
	server      *server.Server
	handlers    *handler.Handlers
	middlewares *middleware.Middlewares
	stages      []stage
}

// NewPipeline prepares the stages; nothing is mounted until Build.
func NewPipeline(s *server.Server, h *handler.Handlers) *Pipeline {
	p := &Pipeline{
		server:      s,
		handlers:    h,
		middlewares: middleware.NewMiddlewares(s),
	}

	p.stages = []stage{
		{name: StageMiddleware, apply: p.mountMiddleware},
		{name: StageRoutes, apply: p.mountRoutes, advances: true, state: server.StateRoutesMounted},
		{name: StageNotFound, apply: p.mountNotFound},
		{name: StageErrorNormalizer, apply: p.mountErrorNormalizer, advances: true, state: server.StateFallbacksMounted},
	}

	return p
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, st := range p.stages {
		names = append(names, st.name)
	}
	return names
}

// Build runs every stage in order on a new echo instance.
//
// It fails if the server lifecycle rejects a transition, e.g. when the
// router was already built for this server.
func (p *Pipeline) Build() (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	for _, st := range p.stages {
		st.apply(e)

		if st.advances {
			if err := p.server.Advance(st.state); err != nil {
				return nil, fmt.Errorf("router stage %s: %w", st.name, err)
			}
		}

		p.server.Logger.Debug().Str("stage", st.name).Msg("router stage mounted")
	}

	return e, nil
}

// mountMiddleware registers the global middleware chain.
//
// Order matters:
//   - Recover is outermost so it sees panics from everything below.
//   - RequestID and New Relic run before ContextEnhancer, which copies
//     their values into the request logger.
//   - BodyLimit runs before JSONBody, which reads the body.
func (p *Pipeline) mountMiddleware(e *echo.Echo) {
	mws := p.middlewares

	e.Use(
		mws.Global.Recover(),
		middleware.RequestID(),
		mws.Tracing.NewRelicMiddleware(),
		mws.Tracing.EnhanceTracing(),
		mws.ContextEnhancer.EnhanceContext(),
		mws.Global.RequestLogger(),
		mws.Global.CORS(),
		mws.Global.Secure(),
		mws.RateLimit.Limit(),
		mws.Global.BodyLimit(),
		middleware.JSONBody(),
		mws.Global.Timeout(),
	)
}

func (p *Pipeline) mountRoutes(e *echo.Echo) {
	h := p.handlers

	e.GET("/", handler.HandleText(h.Greeting.Handler, h.Greeting.Hello, http.StatusOK, handler.NewEmptyRequest))

	registerV1Routes(e.Group("/v1"), h)
	registerSystemRoutes(e, h, p.server)
}

// mountNotFound catches every request no route matched.
func (p *Pipeline) mountNotFound(e *echo.Echo) {
	e.RouteNotFound("/*", handler.NotFound)
}

func (p *Pipeline) mountErrorNormalizer(e *echo.Echo) {
	e.HTTPErrorHandler = p.middlewares.Global.GlobalErrorHandler
}
