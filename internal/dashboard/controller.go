package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"relicboard/internal/newrelic"
	"relicboard/internal/slack"
	"relicboard/internal/store"
)

// ViewSender delivers rendered views back to Slack. *slack.Client satisfies
// it; tests use a fake.
type ViewSender interface {
	ViewsPublish(ctx context.Context, userID string, view *slack.View) error
	ViewsOpen(ctx context.Context, triggerID string, view *slack.View) error
	ViewsUpdate(ctx context.Context, viewID string, view *slack.View) error
}

// IntentRecorder counts handled intents. *metrics.Metrics satisfies it.
type IntentRecorder interface {
	RecordIntent(intent string)
}

// Controller orchestrates the dashboard intents: it loads state from the
// store, pulls live data from New Relic, and hands composed views to the
// sender. All collaborators are injected; the controller holds no state of
// its own.
type Controller struct {
	store     Store
	history   *History
	validator *Validator
	rest      RestFactory
	insights  InsightsFactory
	views     ViewSender
	logger    *slog.Logger
	intents   IntentRecorder
}

func NewController(s Store, rest RestFactory, insights InsightsFactory, views ViewSender, logger *slog.Logger, intents IntentRecorder) *Controller {
	return &Controller{
		store:     s,
		history:   NewHistory(s),
		validator: NewValidator(rest, insights, logger),
		rest:      rest,
		insights:  insights,
		views:     views,
		logger:    logger,
		intents:   intents,
	}
}

func (c *Controller) recordIntent(intent string) {
	if c.intents != nil {
		c.intents.RecordIntent(intent)
	}
}

// HomeOpened renders and publishes the Home tab for a user entering the App
// Home surface.
func (c *Controller) HomeOpened(ctx context.Context, userID string) error {
	c.recordIntent("home_opened")

	settings, err := c.findSettings(userID)
	if err != nil {
		return err
	}
	defaultApplicationID := ""
	if settings != nil {
		defaultApplicationID = settings.DefaultApplicationID
	}
	view := c.renderHome(ctx, settings, defaultApplicationID)
	return c.views.ViewsPublish(ctx, userID, view)
}

// ApplicationSelected persists the picked application as the user's default
// and republishes the Home tab focused on it.
func (c *Controller) ApplicationSelected(ctx context.Context, userID, applicationID string) error {
	c.recordIntent("application_selected")

	settings, err := c.store.FindSettings(userID)
	if err != nil {
		return fmt.Errorf("application selected without settings: %w", err)
	}
	settings.DefaultApplicationID = applicationID
	if err := c.store.SaveSettings(settings); err != nil {
		return err
	}
	view := c.renderHome(ctx, settings, applicationID)
	return c.views.ViewsPublish(ctx, userID, view)
}

// SettingsOpened opens the credentials modal, pre-filled for returning
// users.
func (c *Controller) SettingsOpened(ctx context.Context, userID, triggerID string) error {
	c.recordIntent("settings_opened")

	settings, err := c.findSettings(userID)
	if err != nil {
		return err
	}
	return c.views.ViewsOpen(ctx, triggerID, BuildSettingsModal(settings))
}

// SettingsSubmitted validates the submitted credentials. On any validation
// error it returns the field errors to surface inline and persists nothing.
// On success the merged settings are saved and a nil response (plain ack)
// is returned; the caller then republishes the Home tab.
func (c *Controller) SettingsSubmitted(ctx context.Context, userID string, creds Credentials) (*slack.SubmissionResponse, error) {
	c.recordIntent("settings_submitted")

	if validationErrors := c.validator.Validate(ctx, creds); len(validationErrors) > 0 {
		return slack.ErrorsResponse(validationErrors), nil
	}

	settings, err := c.findSettings(userID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &store.Settings{}
	}
	settings.UserID = userID
	settings.AccountID = creds.AccountID
	settings.RestAPIKey = creds.RestAPIKey
	settings.QueryAPIKey = creds.QueryAPIKey
	if err := c.store.SaveSettings(settings); err != nil {
		return nil, err
	}
	return nil, nil
}

// PublishFreshHome renders the Home tab ignoring the stored default
// application, so a just-configured user sees their first application.
func (c *Controller) PublishFreshHome(ctx context.Context, userID string) error {
	settings, err := c.findSettings(userID)
	if err != nil {
		return err
	}
	view := c.renderHome(ctx, settings, "")
	return c.views.ViewsPublish(ctx, userID, view)
}

// SettingsCleared deletes the user's settings and query history and resets
// the Home tab to the setup state.
func (c *Controller) SettingsCleared(ctx context.Context, userID string) error {
	c.recordIntent("settings_cleared")

	if err := c.store.DeleteAll(userID); err != nil {
		return err
	}
	return c.views.ViewsPublish(ctx, userID, BuildUnconfiguredHomeView())
}

// QueryRunnerOpened opens the query modal with the user's most recent query
// (or the default), records it as run, and executes it when a query key is
// on file.
func (c *Controller) QueryRunnerOpened(ctx context.Context, userID, triggerID string) error {
	c.recordIntent("query_runner_opened")

	settings, err := c.store.FindSettings(userID)
	if err != nil {
		return fmt.Errorf("query runner opened without settings: %w", err)
	}
	queries, err := c.history.List(userID)
	if err != nil {
		return err
	}
	given := ""
	if len(queries) > 0 {
		given = queries[0]
	}
	query := BuildQuery(given, settings)
	if err := c.history.Record(userID, query); err != nil {
		return err
	}
	return c.views.ViewsOpen(ctx, triggerID, c.renderQueryModal(ctx, settings, query))
}

// QuerySubmitted records the submitted query and answers the submission
// with an updated modal carrying live results.
func (c *Controller) QuerySubmitted(ctx context.Context, userID, query string) (*slack.SubmissionResponse, error) {
	c.recordIntent("query_submitted")

	if err := c.history.Record(userID, query); err != nil {
		return nil, err
	}
	settings, err := c.store.FindSettings(userID)
	if err != nil {
		return nil, fmt.Errorf("query submitted without settings: %w", err)
	}
	return slack.UpdateResponse(c.renderQueryModal(ctx, settings, query)), nil
}

// HistoryOpened swaps the query modal for the query history list.
func (c *Controller) HistoryOpened(ctx context.Context, userID, viewID string) error {
	c.recordIntent("history_opened")

	queries, err := c.history.List(userID)
	if err != nil {
		return err
	}
	return c.views.ViewsUpdate(ctx, viewID, BuildHistoryModal(queries))
}

// HistoryPicked re-runs the selected history entry: it becomes the most
// recent query and the modal swaps back to the runner with fresh results.
func (c *Controller) HistoryPicked(ctx context.Context, userID, viewID, value string) error {
	c.recordIntent("history_picked")

	idx, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("bad history index %q: %w", value, err)
	}
	queries, err := c.history.List(userID)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(queries) {
		return fmt.Errorf("history index %d out of range (%d entries)", idx, len(queries))
	}
	query := queries[idx]
	if err := c.history.Record(userID, query); err != nil {
		return err
	}
	settings, err := c.store.FindSettings(userID)
	if err != nil {
		return fmt.Errorf("history picked without settings: %w", err)
	}
	return c.views.ViewsUpdate(ctx, viewID, c.renderQueryModal(ctx, settings, query))
}

// findSettings treats "never configured" as nil settings rather than an
// error; anything else from the store is a hard failure.
func (c *Controller) findSettings(userID string) (*store.Settings, error) {
	settings, err := c.store.FindSettings(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// renderHome fetches live data and composes the Home tab. Every fetch
// degrades independently: a failed applications call renders the header
// only, failed hosts or violations calls just omit their section.
func (c *Controller) renderHome(ctx context.Context, settings *store.Settings, defaultApplicationID string) *slack.View {
	if settings == nil || settings.RestAPIKey == "" {
		return BuildUnconfiguredHomeView()
	}

	rest := c.rest(settings.RestAPIKey)
	data := &HomeData{AccountID: settings.AccountID}

	apps, err := rest.ApplicationsList(ctx)
	if err != nil {
		c.logger.Error("failed to list applications, rendering without them", "user", settings.UserID, "error", err)
	}
	data.Applications = apps
	if len(apps) == 0 {
		return BuildHomeView(data)
	}

	data.Active = ActiveApplication(apps, defaultApplicationID)

	if hosts, err := rest.ApplicationHostsList(ctx, data.Active.ID); err != nil {
		c.logger.Error("failed to list hosts, omitting section", "user", settings.UserID, "error", err)
	} else {
		data.Hosts = hosts
	}

	if violations, err := rest.AlertsViolationsList(ctx, data.Active.ID); err != nil {
		c.logger.Error("failed to list violations, omitting section", "user", settings.UserID, "error", err)
	} else {
		data.Violations = violations
	}

	return BuildHomeView(data)
}

// renderQueryModal composes the query runner, executing the query live when
// the user holds a query key. Query failures render the modal without
// result rows.
func (c *Controller) renderQueryModal(ctx context.Context, settings *store.Settings, query string) *slack.View {
	var result *newrelic.QueryResult
	if settings.QueryAPIKey != "" {
		res, err := c.insights(settings.AccountID, settings.QueryAPIKey).Query(ctx, query)
		if err != nil {
			c.logger.Error("query execution failed, rendering without results", "user", settings.UserID, "error", err)
		} else {
			result = res
		}
	}
	return BuildQueryModal(query, settings.AccountID, result)
}
