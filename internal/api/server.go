package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"relicboard/internal/config"
	"relicboard/internal/dashboard"
	"relicboard/internal/metrics"
	"relicboard/internal/slack"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// intentTimeout bounds the background work an acknowledged Slack request
// can trigger (storage plus up to three New Relic calls).
const intentTimeout = 15 * time.Second

// Server receives Slack events and interactivity requests, acknowledges
// them fast, and drives the dashboard controller.
type Server struct {
	cfg        *config.Config
	router     *gin.Engine
	srv        *http.Server
	controller *dashboard.Controller
	logger     *slog.Logger
}

func NewServer(cfg *config.Config, controller *dashboard.Controller, m *metrics.Metrics, logger *slog.Logger) (*Server, error) {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Setup basic middleware
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		cfg:        cfg,
		router:     router,
		controller: controller,
		logger:     logger,
	}
	s.setupRoutes(m)

	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	return s, nil
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) setupRoutes(m *metrics.Metrics) {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus metrics endpoint
	s.router.GET("/metrics", gin.WrapH(m.Handler()))

	slackGroup := s.router.Group("/slack")
	slackGroup.Use(VerifySlackSignature(s.cfg.Slack.SigningSecret, s.logger))
	{
		slackGroup.POST("/events", s.handleEvents)
		slackGroup.POST("/interactivity", s.handleInteractivity)
	}
}

// handleEvents serves the Events API: the url_verification handshake and
// app_home_opened event callbacks. Events are acknowledged immediately; the
// Home tab is published afterwards via views.publish.
func (s *Server) handleEvents(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	var envelope slack.EventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		s.logger.Warn("dropping undecodable event request", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	switch envelope.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": envelope.Challenge})
	case "event_callback":
		c.Status(http.StatusOK)
		if envelope.Event.Type == "app_home_opened" {
			userID := envelope.Event.User
			s.dispatch("home_opened", userID, func(ctx context.Context) error {
				return s.controller.HomeOpened(ctx, userID)
			})
		}
	default:
		c.Status(http.StatusOK)
	}
}

// handleInteractivity serves block actions and view submissions. Block
// actions get a bare acknowledgement with the real work running behind it;
// view submissions answer synchronously because their response rides the
// acknowledgement.
func (s *Server) handleInteractivity(c *gin.Context) {
	payload, err := slack.ParseInteraction([]byte(c.PostForm("payload")))
	if err != nil {
		s.logger.Warn("dropping undecodable interaction payload", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case "block_actions":
		c.Status(http.StatusOK)
		s.dispatchBlockAction(payload)
	case "view_submission":
		s.handleViewSubmission(c, payload)
	default:
		// view_closed and anything newer just need the ack.
		c.Status(http.StatusOK)
	}
}

func (s *Server) dispatchBlockAction(payload *slack.InteractionPayload) {
	if len(payload.Actions) == 0 {
		return
	}
	action := payload.Actions[0]
	userID := payload.User.ID
	triggerID := payload.TriggerID

	viewID := ""
	if payload.View != nil {
		viewID = payload.View.ID
	}
	selected := ""
	if action.SelectedOption != nil {
		selected = action.SelectedOption.Value
	}

	switch action.ActionID {
	case "settings-button":
		s.dispatch("settings_opened", userID, func(ctx context.Context) error {
			return s.controller.SettingsOpened(ctx, userID, triggerID)
		})
	case "clear-settings-button":
		s.dispatch("settings_cleared", userID, func(ctx context.Context) error {
			return s.controller.SettingsCleared(ctx, userID)
		})
	case "select-app-overlay-menu":
		s.dispatch("application_selected", userID, func(ctx context.Context) error {
			return s.controller.ApplicationSelected(ctx, userID, selected)
		})
	case "query-button":
		s.dispatch("query_runner_opened", userID, func(ctx context.Context) error {
			return s.controller.QueryRunnerOpened(ctx, userID, triggerID)
		})
	case "query-history-button":
		s.dispatch("history_opened", userID, func(ctx context.Context) error {
			return s.controller.HistoryOpened(ctx, userID, viewID)
		})
	case "query-radio-button":
		s.dispatch("history_picked", userID, func(ctx context.Context) error {
			return s.controller.HistoryPicked(ctx, userID, viewID, selected)
		})
	case "view-in-browser-button":
		// Link buttons need nothing beyond the ack.
	default:
		s.logger.Warn("ignoring unknown block action", "action_id", action.ActionID)
	}
}

func (s *Server) handleViewSubmission(c *gin.Context, payload *slack.InteractionPayload) {
	userID := payload.User.ID
	callbackID := ""
	if payload.View != nil {
		callbackID = payload.View.CallbackID
	}

	switch callbackID {
	case "settings-modal":
		creds := dashboard.Credentials{
			AccountID:   payload.View.InputValue(dashboard.BlockAccountID, "input"),
			RestAPIKey:  payload.View.InputValue(dashboard.BlockRestAPIKey, "input"),
			QueryAPIKey: payload.View.InputValue(dashboard.BlockQueryAPIKey, "input"),
		}
		resp, err := s.controller.SettingsSubmitted(c.Request.Context(), userID, creds)
		if err != nil {
			s.logger.Error("settings submission failed", "user", userID, "error", err)
			c.JSON(http.StatusOK, slack.ErrorsResponse(map[string]string{
				dashboard.BlockAccountID: "Something went wrong while saving. Please try again.",
			}))
			return
		}
		if resp != nil {
			c.JSON(http.StatusOK, resp)
			return
		}
		c.Status(http.StatusOK)
		s.dispatch("settings_saved", userID, func(ctx context.Context) error {
			return s.controller.PublishFreshHome(ctx, userID)
		})
	case "query-modal":
		query := payload.View.InputValue("input-query", "input")
		resp, err := s.controller.QuerySubmitted(c.Request.Context(), userID, query)
		if err != nil {
			s.logger.Error("query submission failed", "user", userID, "error", err)
			c.JSON(http.StatusOK, slack.ErrorsResponse(map[string]string{
				"input-query": "Something went wrong while running the query. Please try again.",
			}))
			return
		}
		c.JSON(http.StatusOK, resp)
	default:
		c.Status(http.StatusOK)
	}
}

// dispatch runs intent work behind the acknowledgement with its own bounded
// context and a correlation id for the logs.
func (s *Server) dispatch(intent, userID string, fn func(ctx context.Context) error) {
	logger := s.logger.With("intent", intent, "user", userID, "request_id", uuid.NewString())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), intentTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Error("intent failed", "error", err)
		}
	}()
}
