package http_server

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"gitlab.faza.io/quote-project/draft-quote-service/domain"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	quote_service "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/services/quote"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils"
)

const (
	apiPrefix             string = "/api/v1"
	defaultRequestTimeout        = 15 * time.Second
	contentTypeJSON       string = "application/json"
)

type Server struct {
	address        string
	port           uint16
	sessions       domain.ISessionRegistry
	logger         applog.Logger
	requestTimeout time.Duration
	metricsHandler fasthttp.RequestHandler
	server         *fasthttp.Server
}

func NewServer(address string, port uint16, sessions domain.ISessionRegistry, gatherer prometheus.Gatherer, logger applog.Logger) *Server {
	server := &Server{
		address:        address,
		port:           port,
		sessions:       sessions,
		logger:         logger,
		requestTimeout: defaultRequestTimeout,
		metricsHandler: fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
	}
	server.server = &fasthttp.Server{
		Name:         "draft-quote-service",
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return server
}

func (server *Server) Handler() fasthttp.RequestHandler {
	return server.accessLog(server.route)
}

func (server *Server) Start() error {
	port := strconv.Itoa(int(server.port))
	server.logger.Info("HTTP server started", "fn", "Start", "address", server.address, "port", port)
	if err := server.server.ListenAndServe(server.address + ":" + port); err != nil {
		server.logger.Error("HTTP server start failed", "fn", "Start", "port", port, "error", err)
		return errors.Wrap(err, "http listen failed")
	}
	return nil
}

func (server *Server) Serve(lis net.Listener) error {
	return server.server.Serve(lis)
}

func (server *Server) Shutdown() error {
	return server.server.Shutdown()
}

func (server *Server) route(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := string(ctx.Path())

	switch path {
	case "/health":
		server.health(ctx)
		return
	case "/metrics":
		server.metricsHandler(ctx)
		return
	case apiPrefix + "/options/totals":
		if method == fasthttp.MethodPost {
			server.calculateTotals(ctx)
			return
		}
	case apiPrefix + "/draft-quotes/validate":
		if method == fasthttp.MethodPost {
			server.validateDraftQuote(ctx)
			return
		}
	case apiPrefix + "/sessions":
		if method == fasthttp.MethodPost {
			server.openSession(ctx)
			return
		}
	}

	if strings.HasPrefix(path, apiPrefix+"/sessions/") {
		segments := strings.Split(strings.TrimPrefix(path, apiPrefix+"/sessions/"), "/")
		if server.routeSession(ctx, method, segments) {
			return
		}
	}

	writeError(ctx, fasthttp.StatusNotFound, "Route Not Found")
}

// routeSession dispatches /api/v1/sessions/{sid}/... and reports whether a route matched.
func (server *Server) routeSession(ctx *fasthttp.RequestCtx, method string, segments []string) bool {
	if len(segments) == 0 || segments[0] == "" {
		return false
	}
	sessionId := segments[0]

	switch {
	case len(segments) == 1 && method == fasthttp.MethodGet:
		server.withSession(ctx, sessionId, server.getSession)
	case len(segments) == 1 && method == fasthttp.MethodDelete:
		server.closeSession(ctx, sessionId)
	case len(segments) == 2:
		return server.routeSessionAction(ctx, method, sessionId, segments[1])
	case len(segments) == 3 && segments[1] == "options":
		optionId := segments[2]
		switch method {
		case fasthttp.MethodPatch:
			server.withSession(ctx, sessionId, func(ctx *fasthttp.RequestCtx, session domain.Session) {
				server.updateOption(ctx, session, optionId)
			})
		case fasthttp.MethodDelete:
			server.withSession(ctx, sessionId, func(ctx *fasthttp.RequestCtx, session domain.Session) {
				server.deleteOption(ctx, session, optionId)
			})
		default:
			return false
		}
	case len(segments) == 4 && segments[1] == "options":
		optionId := segments[2]
		switch {
		case segments[3] == "totals" && method == fasthttp.MethodPost:
			server.withSession(ctx, sessionId, func(ctx *fasthttp.RequestCtx, session domain.Session) {
				server.recalculateOption(ctx, session, optionId)
			})
		case segments[3] == "persist" && method == fasthttp.MethodPost:
			server.withSession(ctx, sessionId, func(ctx *fasthttp.RequestCtx, session domain.Session) {
				server.persistOption(ctx, session, optionId)
			})
		case segments[3] == "persist" && method == fasthttp.MethodDelete:
			server.withSession(ctx, sessionId, func(ctx *fasthttp.RequestCtx, session domain.Session) {
				server.removePersistedOption(ctx, session, optionId)
			})
		default:
			return false
		}
	default:
		return false
	}
	return true
}

func (server *Server) routeSessionAction(ctx *fasthttp.RequestCtx, method, sessionId, action string) bool {
	var handler func(ctx *fasthttp.RequestCtx, session domain.Session)
	switch method + " " + action {
	case "PATCH customer":
		handler = server.updateCustomer
	case "PATCH shipment":
		handler = server.updateShipment
	case "PATCH wizard":
		handler = server.updateWizard
	case "PATCH commercial-terms":
		handler = server.updateCommercialTerms
	case "PUT notes":
		handler = server.updateNotes
	case "POST options":
		handler = server.addOption
	case "POST totals":
		handler = server.recalculateAll
	case "PUT selection":
		handler = server.selectOption
	case "PUT status":
		handler = server.setStatus
	case "PUT editing":
		handler = server.setEditing
	case "POST save":
		handler = server.save
	case "POST finalize":
		handler = server.finalize
	case "POST reset":
		handler = server.reset
	case "POST delete":
		handler = server.deleteDraftQuote
	default:
		return false
	}
	server.withSession(ctx, sessionId, handler)
	return true
}

func (server *Server) withSession(ctx *fasthttp.RequestCtx, sessionId string, handler func(ctx *fasthttp.RequestCtx, session domain.Session)) {
	session, err := server.sessions.Get(sessionId)
	if err != nil {
		writeError(ctx, fasthttp.StatusNotFound, "Session Not Found")
		return
	}
	handler(ctx, session)
}

func (server *Server) accessLog(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		startTime := time.Now()
		next(ctx)
		server.logger.Debug("finished http request",
			"fn", "accessLog",
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"status", ctx.Response.StatusCode(),
			"took_sec", time.Since(startTime))
	}
}

// portContext carries the request id and bearer token of the http request to the quote service.
// It is detached from the fasthttp request, which is recycled once the handler returns.
func (server *Server) portContext(ctx *fasthttp.RequestCtx, session domain.Session) (context.Context, context.CancelFunc) {
	portCtx := context.WithValue(context.Background(), utils.CtxSessionId, session.SessionId)
	if requestId := string(ctx.Request.Header.Peek("X-Request-Id")); requestId != "" {
		portCtx = context.WithValue(portCtx, utils.CtxTrackingId, requestId)
	}
	if authorization := string(ctx.Request.Header.Peek("Authorization")); strings.HasPrefix(authorization, "Bearer ") {
		portCtx = context.WithValue(portCtx, utils.CtxAuthToken, strings.TrimPrefix(authorization, "Bearer "))
	}
	if userAgent := string(ctx.UserAgent()); userAgent != "" {
		portCtx = context.WithValue(portCtx, utils.CtxUserAgent, userAgent)
	}
	return context.WithTimeout(portCtx, server.requestTimeout)
}

func decodeBody(ctx *fasthttp.RequestCtx, value interface{}) bool {
	body := ctx.PostBody()
	if len(body) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "Request Body Required")
		return false
	}
	if err := json.Unmarshal(body, value); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid Request Body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, statusCode int, value interface{}) {
	body, err := json.Marshal(value)
	if err != nil {
		applog.GLog.Logger.Error("marshal response failed", "fn", "writeJSON", "error", err)
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType(contentTypeJSON)
	ctx.SetStatusCode(statusCode)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, statusCode int, message string, validationErrors ...string) {
	writeJSON(ctx, statusCode, quote_service.ErrorResponse{
		Status:  statusCode,
		Message: message,
		Errors:  validationErrors,
	})
}
