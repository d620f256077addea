// Package server exposes the assistant over HTTP: one conversation per
// session, answers streamed as server-sent events.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/websage/config"
	"github.com/mohammad-safakhou/websage/internal/chat"
	"github.com/mohammad-safakhou/websage/internal/pipeline"
	"github.com/mohammad-safakhou/websage/internal/telemetry"
	"github.com/mohammad-safakhou/websage/provider"
	"github.com/mohammad-safakhou/websage/tools/web_fetch"
	"github.com/mohammad-safakhou/websage/tools/web_search"
)

type api struct {
	chat   *chat.Chat
	store  *chat.Store
	logger *log.Logger
}

// New builds the echo application around an already wired chat service.
func New(chatSvc *chat.Chat, store *chat.Store, tele *telemetry.Telemetry, logger *log.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(tele.Handler()))

	a := &api{chat: chatSvc, store: store, logger: logger}
	g := e.Group("/api")
	g.POST("/sessions", a.createSession)
	g.GET("/sessions/:id", a.getSession)
	g.DELETE("/sessions/:id", a.deleteSession)
	g.POST("/sessions/:id/messages", a.postMessage)

	return e
}

// Run wires all dependencies from config and serves until the listener
// fails. Sessions live in memory only.
func Run(cfg *config.Config) error {
	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)

	prov, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}
	searcher, err := web_search.NewWebSearcher(web_search.Provider(cfg.Search.Provider), cfg.Search.Endpoint, cfg.Search.UserAgent, cfg.Search.Timeout)
	if err != nil {
		return err
	}
	fetcher, err := web_fetch.NewWebFetcher(web_fetch.ReadabilityFetcherType, cfg.Extract.Timeout, cfg.Extract.MaxChars, cfg.Search.UserAgent)
	if err != nil {
		return err
	}

	tele := telemetry.New()
	pipeLogger := log.New(log.Writer(), "[PIPELINE] ", log.LstdFlags)
	orch := pipeline.NewOrchestrator(cfg, prov, searcher, fetcher, pipeLogger, tele)
	chatLogger := log.New(log.Writer(), "[CHAT] ", log.LstdFlags)
	chatSvc := chat.NewChat(cfg, prov, orch, chatLogger, tele)

	e := New(chatSvc, chat.NewStore(), tele, logger)
	return e.Start(cfg.Server.Address)
}

func (a *api) createSession(c echo.Context) error {
	sess := a.store.Create(chat.DefaultSystemPrompt)
	return c.JSON(http.StatusCreated, map[string]string{"session_id": sess.ID()})
}

func (a *api) getSession(c echo.Context) error {
	sess, ok := a.store.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sess.ID(),
		"turns":      sess.Turns(),
	})
}

func (a *api) deleteSession(c echo.Context) error {
	if _, ok := a.store.Get(c.Param("id")); !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	a.store.Delete(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

type messageRequest struct {
	Content string `json:"content"`
}

// postMessage runs one exchange and streams answer tokens as SSE events:
// token events while the model talks, then a single done event. Pipeline
// failures never surface here — they degrade inside the exchange.
func (a *api) postMessage(c echo.Context) error {
	sess, ok := a.store.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	var req messageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content required")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	err := a.chat.Respond(c.Request().Context(), sess, req.Content, func(token string) error {
		data, merr := json.Marshal(map[string]string{"token": token})
		if merr != nil {
			return merr
		}
		if _, werr := fmt.Fprintf(res, "event: token\ndata: %s\n\n", data); werr != nil {
			return werr
		}
		res.Flush()
		return nil
	})
	if err != nil {
		// Headers are already out; report the failure in-stream.
		a.logger.Printf("respond: %v", err)
		fmt.Fprintf(res, "event: error\ndata: %q\n\n", err.Error())
		res.Flush()
		return nil
	}

	fmt.Fprintf(res, "event: done\ndata: {}\n\n")
	res.Flush()
	return nil
}
