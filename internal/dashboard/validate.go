package dashboard

import (
	"context"
	"log/slog"
	"regexp"

	"relicboard/internal/newrelic"
)

// Block ids of the settings modal inputs. Validation errors are keyed by
// these so Slack can surface them inline on the right field.
const (
	BlockAccountID   = "input-account-id"
	BlockRestAPIKey  = "input-rest-api-key"
	BlockQueryAPIKey = "input-query-api-key"
)

// probeQuery is the fixed NRQL used to verify a query key is live.
const probeQuery = "select max(duration) from Transaction since 3 days ago"

var (
	accountIDPattern   = regexp.MustCompile(`^\d+$`)
	restAPIKeyPattern  = regexp.MustCompile(`^NRRA-\w{42}$`)
	queryAPIKeyPattern = regexp.MustCompile(`^NRIQ-\w{32}$`)
)

// Credentials is one submitted settings form, pre-persistence.
type Credentials struct {
	AccountID   string
	RestAPIKey  string
	QueryAPIKey string
}

// Validator checks submitted credentials against format rules and, when
// those pass, against the live API. Liveness failures and network failures
// are deliberately indistinguishable: either way the key is unusable.
type Validator struct {
	rest     RestFactory
	insights InsightsFactory
	logger   *slog.Logger
}

func NewValidator(rest RestFactory, insights InsightsFactory, logger *slog.Logger) *Validator {
	return &Validator{rest: rest, insights: insights, logger: logger}
}

// Validate runs every rule and returns the accumulated errors keyed by
// block id. All three fields are checked independently so the user sees
// every problem at once; an empty map means the credentials are good.
func (v *Validator) Validate(ctx context.Context, creds Credentials) map[string]string {
	errors := make(map[string]string)

	for _, rule := range []func(context.Context, Credentials, map[string]string){
		v.checkAccountID,
		v.checkRestAPIKey,
		v.checkQueryAPIKey,
	} {
		rule(ctx, creds, errors)
	}

	return errors
}

func (v *Validator) checkAccountID(_ context.Context, creds Credentials, errors map[string]string) {
	if !accountIDPattern.MatchString(creds.AccountID) {
		errors[BlockAccountID] = "Account Id must be a numeric value"
	}
}

func (v *Validator) checkRestAPIKey(ctx context.Context, creds Credentials, errors map[string]string) {
	if !restAPIKeyPattern.MatchString(creds.RestAPIKey) {
		errors[BlockRestAPIKey] = "REST API Key must be in a valid format"
		return
	}
	if _, err := v.rest(creds.RestAPIKey).ApplicationsList(ctx); err != nil {
		v.logger.Info("REST API key failed liveness check", "error", err)
		errors[BlockRestAPIKey] = "REST API Key seems to be invalid"
	}
}

func (v *Validator) checkQueryAPIKey(ctx context.Context, creds Credentials, errors map[string]string) {
	if !queryAPIKeyPattern.MatchString(creds.QueryAPIKey) {
		errors[BlockQueryAPIKey] = "Query API Key must be in a valid format"
		return
	}
	if _, err := v.insights(creds.AccountID, creds.QueryAPIKey).Query(ctx, probeQuery); err != nil {
		v.logger.Info("query API key failed liveness check", "error", err)
		errors[BlockQueryAPIKey] = "Query API Key (or Account Id) seems to be invalid"
	}
}

// RestAPI is the read side of the New Relic collaborator.
type RestAPI interface {
	ApplicationsList(ctx context.Context) ([]newrelic.Application, error)
	ApplicationHostsList(ctx context.Context, applicationID int64) ([]newrelic.Host, error)
	AlertsViolationsList(ctx context.Context, applicationID int64) ([]newrelic.Violation, error)
}

// InsightsAPI is the query side of the New Relic collaborator.
type InsightsAPI interface {
	Query(ctx context.Context, nrql string) (*newrelic.QueryResult, error)
}

// RestFactory builds a REST client bound to one API key. Clients are
// per-user, so the controller gets a factory rather than a client.
type RestFactory func(restAPIKey string) RestAPI

// InsightsFactory builds an Insights client bound to one account and query
// key.
type InsightsFactory func(accountID, queryAPIKey string) InsightsAPI
