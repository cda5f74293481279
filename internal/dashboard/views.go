package dashboard

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"relicboard/internal/newrelic"
	"relicboard/internal/slack"
	"relicboard/internal/store"
)

// View composition. Every function here is pure: given the same settings
// and fetched data it produces the same document, so each one is directly
// testable without any collaborator.

const (
	maxRenderedEvents      = 20
	maxRenderedEventFields = 10
)

// healthStatusEmoji maps a New Relic health status to the emoji shown next
// to applications and hosts. Anything unrecognized renders as healthy.
func healthStatusEmoji(healthStatus string) string {
	switch healthStatus {
	case "red":
		return "red_circle"
	case "gray":
		return "black_circle"
	default:
		return "large_blue_circle"
	}
}

// ActiveApplication picks the application the dashboard focuses on: the one
// matching the user's stored default id, or the first in the list.
func ActiveApplication(apps []newrelic.Application, defaultApplicationID string) newrelic.Application {
	if defaultApplicationID != "" {
		for _, app := range apps {
			if strconv.FormatInt(app.ID, 10) == defaultApplicationID {
				return app
			}
		}
	}
	return apps[0]
}

// BuildUnconfiguredHomeView renders the setup call-to-action shown to users
// without stored credentials.
func BuildUnconfiguredHomeView() *slack.View {
	return slack.HomeView(
		slack.Section(slack.Mrkdwn("*:loud_sound: Unlock your personalized :new-relic: dashboard!*")),
		slack.Actions(&slack.ButtonElement{
			Type:     "button",
			ActionID: "settings-button",
			Style:    "primary",
			Text:     slack.PlainText("Enable Now"),
		}),
	)
}

// HomeData is everything the configured Home tab renders. Nil Hosts or
// Violations mean that section is omitted, either because the fetch failed
// or because there was nothing to show.
type HomeData struct {
	AccountID    string
	Applications []newrelic.Application
	Active       newrelic.Application
	Hosts        []newrelic.Host
	Violations   []newrelic.Violation
}

// BuildHomeView renders the configured Home tab. When the application list
// is empty (or its fetch failed) only the header and actions render.
func BuildHomeView(data *HomeData) *slack.View {
	blocks := []slack.Block{
		&slack.SectionBlock{
			Type: "section",
			Text: slack.Mrkdwn("*:new-relic: New Relic Dashboard :new-relic:*"),
			Accessory: &slack.ButtonElement{
				Type:     "button",
				ActionID: "clear-settings-button",
				Style:    "danger",
				Text:     slack.PlainText("Clear Settings"),
				Confirm: &slack.ConfirmObject{
					Title: slack.PlainText("Clear Settings"),
					Text:  slack.PlainText("Are you sure?"),
				},
			},
		},
		slack.Actions(&slack.ButtonElement{
			Type:     "button",
			ActionID: "query-button",
			Text:     slack.PlainText(":pencil: Query Runner"),
		}),
		slack.Divider(),
	}

	if len(data.Applications) == 0 {
		return slack.HomeView(blocks...)
	}

	options := make([]*slack.Option, 0, len(data.Applications))
	for _, app := range data.Applications {
		options = append(options, &slack.Option{
			Text:  slack.PlainText(app.Name),
			Value: strconv.FormatInt(app.ID, 10),
		})
	}
	blocks = append(blocks, &slack.SectionBlock{
		Type: "section",
		Text: slack.PlainText("Select Application :arrow_right:"),
		Accessory: &slack.OverflowElement{
			Type:     "overflow",
			ActionID: "select-app-overlay-menu",
			Options:  options,
		},
	})

	blocks = append(blocks, applicationBlocks(data.AccountID, data.Active)...)
	blocks = append(blocks, hostBlocks(data.Hosts)...)
	blocks = append(blocks, violationBlocks(data.AccountID, data.Active.ID, data.Violations)...)

	return slack.HomeView(blocks...)
}

func applicationBlocks(accountID string, app newrelic.Application) []slack.Block {
	lastReported := app.LastReportedAt
	if lastReported == "" {
		lastReported = "-"
	}
	text := fmt.Sprintf("Name: *%s*\nLanguage: *:%s:*\nHealth Status: *:%s:*\nLast Reported: *%s*",
		app.Name, app.Language, healthStatusEmoji(app.HealthStatus), lastReported)

	return []slack.Block{
		slack.Section(slack.Mrkdwn("*:mag: Application*")),
		slack.Divider(),
		&slack.SectionBlock{
			Type: "section",
			Text: slack.Mrkdwn(text),
			Accessory: &slack.ButtonElement{
				Type:     "button",
				ActionID: "view-in-browser-button",
				Text:     slack.PlainText("View in browser"),
				URL:      fmt.Sprintf("https://rpm.newrelic.com/accounts/%s/applications/%d", accountID, app.ID),
			},
		},
	}
}

func hostBlocks(hosts []newrelic.Host) []slack.Block {
	if len(hosts) == 0 {
		return nil
	}
	fields := make([]*slack.TextObject, 0, len(hosts))
	for _, host := range hosts {
		fields = append(fields, slack.Mrkdwn(fmt.Sprintf("Host: *%s*\nHealth Status: *:%s:*",
			host.Host, healthStatusEmoji(host.HealthStatus))))
	}
	return []slack.Block{
		slack.Section(slack.Mrkdwn("*:electric_plug: Hosts*")),
		slack.Divider(),
		&slack.SectionBlock{Type: "section", Fields: fields},
	}
}

func violationBlocks(accountID string, applicationID int64, violations []newrelic.Violation) []slack.Block {
	if len(violations) == 0 {
		return nil
	}
	fields := make([]*slack.TextObject, 0, len(violations))
	for _, v := range violations {
		opened := time.UnixMilli(v.OpenedAt).UTC().Format(time.RFC3339)
		fields = append(fields, slack.Mrkdwn(fmt.Sprintf("Priority: *%s*\nViolation: *%s*\nOpened: *%s*",
			v.Priority, v.Label, opened)))
	}
	return []slack.Block{
		&slack.SectionBlock{
			Type: "section",
			Text: slack.Mrkdwn("*:warning: Alert Violations*"),
			Accessory: &slack.ButtonElement{
				Type:     "button",
				ActionID: "view-in-browser-button",
				Text:     slack.PlainText("View in browser"),
				URL:      fmt.Sprintf("https://rpm.newrelic.com/accounts/%s/applications/%d/violations", accountID, applicationID),
			},
		},
		slack.Divider(),
		&slack.SectionBlock{Type: "section", Fields: fields},
	}
}

// BuildSettingsModal renders the credentials form, pre-filled from existing
// settings. The key fields default to their literal prefixes so users see
// the expected format.
func BuildSettingsModal(settings *store.Settings) *slack.View {
	accountID := ""
	restAPIKey := "NRRA-"
	queryAPIKey := "NRIQ-"
	if settings != nil {
		accountID = settings.AccountID
		if settings.RestAPIKey != "" {
			restAPIKey = settings.RestAPIKey
		}
		if settings.QueryAPIKey != "" {
			queryAPIKey = settings.QueryAPIKey
		}
	}

	return &slack.View{
		Type:       "modal",
		Title:      slack.PlainTextNoEmoji("New Relic Settings"),
		Submit:     slack.PlainTextNoEmoji("Save"),
		Close:      slack.PlainTextNoEmoji("Close"),
		CallbackID: "settings-modal",
		Blocks: []slack.Block{
			&slack.InputBlock{
				Type:    "input",
				BlockID: BlockAccountID,
				Label:   slack.PlainText("Account Id"),
				Element: &slack.PlainTextInputElement{
					Type:         "plain_text_input",
					ActionID:     "input",
					Placeholder:  slack.PlainText("Check rpm.newrelic.com/accounts/"),
					InitialValue: accountID,
				},
			},
			&slack.InputBlock{
				Type:    "input",
				BlockID: BlockRestAPIKey,
				Label:   slack.PlainText("REST API Key"),
				Element: &slack.PlainTextInputElement{
					Type:         "plain_text_input",
					ActionID:     "input",
					Placeholder:  slack.PlainText("Check rpm.newrelic.com/accounts/{id}/integrations?page=api_keys"),
					InitialValue: restAPIKey,
				},
			},
			&slack.InputBlock{
				Type:    "input",
				BlockID: BlockQueryAPIKey,
				Label:   slack.PlainText("Insights Query API Key"),
				Element: &slack.PlainTextInputElement{
					Type:         "plain_text_input",
					ActionID:     "input",
					Placeholder:  slack.PlainText("Check insights.newrelic.com/accounts/{id}/manage/api_keys"),
					InitialValue: queryAPIKey,
				},
			},
		},
	}
}

// BuildQueryModal renders the query runner: the editable query on top, live
// results below when available. A nil result means the query was not run
// (no query key) or failed; either way only the input renders.
func BuildQueryModal(query, accountID string, result *newrelic.QueryResult) *slack.View {
	blocks := []slack.Block{
		slack.Actions(
			&slack.ButtonElement{
				Type:     "button",
				ActionID: "view-in-browser-button",
				Text:     slack.PlainText("What's NRQL?"),
				URL:      "https://docs.newrelic.com/docs/query-data/nrql-new-relic-query-language/getting-started/nrql-syntax-components-functions",
			},
			&slack.ButtonElement{
				Type:     "button",
				ActionID: "query-history-button",
				Text:     slack.PlainText("Query History"),
			},
		),
		&slack.InputBlock{
			Type:    "input",
			BlockID: "input-query",
			Label:   slack.PlainText("Query (NRQL)"),
			Element: &slack.PlainTextInputElement{
				Type:         "plain_text_input",
				ActionID:     "input",
				Placeholder:  slack.PlainText("Write an NRQL query here"),
				InitialValue: query,
				Multiline:    true,
			},
		},
	}

	blocks = append(blocks, resultBlocks(result)...)

	blocks = append(blocks,
		slack.Divider(),
		slack.Actions(&slack.ButtonElement{
			Type:     "button",
			ActionID: "view-in-browser-button",
			Text:     slack.PlainText("View in browser"),
			URL:      fmt.Sprintf("https://insights.newrelic.com/accounts/%s/query?query=%s", accountID, url.QueryEscape(query)),
		}),
	)

	return &slack.View{
		Type:       "modal",
		Title:      slack.PlainTextNoEmoji("Insights Query Runner"),
		Submit:     slack.PlainTextNoEmoji("Run"),
		Close:      slack.PlainTextNoEmoji("Close"),
		CallbackID: "query-modal",
		Blocks:     blocks,
	}
}

func resultBlocks(result *newrelic.QueryResult) []slack.Block {
	if result == nil {
		return nil
	}

	if result.Kind == newrelic.KindEvents {
		if len(result.Events) == 0 {
			return []slack.Block{
				slack.Divider(),
				slack.Section(slack.Mrkdwn("No data found.")),
			}
		}
		events := result.Events
		if len(events) > maxRenderedEvents {
			events = events[:maxRenderedEvents]
		}
		var blocks []slack.Block
		for _, event := range events {
			fields := event
			if len(fields) > maxRenderedEventFields {
				fields = fields[:maxRenderedEventFields]
			}
			lines := make([]string, 0, len(fields))
			for _, f := range fields {
				lines = append(lines, fmt.Sprintf("%s: *%s*", f.Key, formatValue(f.Value)))
			}
			blocks = append(blocks,
				slack.Divider(),
				slack.Section(slack.Mrkdwn(strings.Join(lines, "\n"))),
			)
		}
		return blocks
	}

	var blocks []slack.Block
	for _, f := range result.Aggregate {
		blocks = append(blocks,
			slack.Divider(),
			slack.Section(slack.Mrkdwn(fmt.Sprintf("%s: *%s*", f.Key, formatValue(f.Value)))),
		)
	}
	return blocks
}

// formatValue renders one result value the way it appeared in the JSON:
// numbers keep their literal form, null stays null.
func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(encoded)
	}
}

// BuildHistoryModal renders stored queries as a radio list. Each entry gets
// a short label from the query's leading tokens and a truncated description
// from the rest; the option value is the history index.
func BuildHistoryModal(queries []string) *slack.View {
	options := make([]*slack.Option, 0, len(queries))
	for idx, query := range queries {
		label, description := splitQueryLabel(query)
		options = append(options, &slack.Option{
			Text:        slack.PlainText(label),
			Description: slack.PlainText(description),
			Value:       strconv.Itoa(idx),
		})
	}

	return &slack.View{
		Type:       "modal",
		Title:      slack.PlainTextNoEmoji("Insights Query History"),
		Close:      slack.PlainTextNoEmoji("Close"),
		CallbackID: "query-history-modal",
		Blocks: []slack.Block{
			&slack.SectionBlock{
				Type: "section",
				Text: slack.Mrkdwn("Here is the list of the queries you recently ran. Select a query you'd like to run again."),
				Accessory: &slack.RadioButtonsElement{
					Type:     "radio_buttons",
					ActionID: "query-radio-button",
					Options:  options,
				},
			},
		},
	}
}

// splitQueryLabel walks the query's space-separated tokens, keeping them in
// the label while it stays within 70 characters and nothing has spilled
// into the description yet; everything after goes to the description, which
// is cut at 70 characters and always gets an ellipsis.
func splitQueryLabel(query string) (label, description string) {
	for _, token := range strings.Split(query, " ") {
		if len(description) == 0 && len(label+token) <= 70 {
			label = label + " " + token
		} else {
			description = description + " " + token
		}
	}
	if len(description) > 70 {
		description = description[:70]
	}
	return label, description + "..."
}
