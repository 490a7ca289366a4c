package shopify

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/indieinfra/hydrogen/config"
	"github.com/indieinfra/hydrogen/metrics"
)

// Gateway executes GraphQL documents against the remote platform's admin API.
// A non-nil error means the request never produced an HTTP response; any response,
// successful or not, is returned as status code and raw body.
type Gateway interface {
	Execute(ctx context.Context, query string, variables map[string]any) (int, []byte, error)
}

// Session is the context the gateway is initialized with.
type Session struct {
	ApiKey      string
	AccessToken string
	Scopes      []string
	Domain      string
	ApiVersion  string
	Timeout     time.Duration
}

func SessionFromConfig(cfg *config.Shopify) Session {
	return Session{
		ApiKey:      cfg.ApiKey,
		AccessToken: cfg.AccessToken,
		Scopes:      cfg.Scopes,
		Domain:      cfg.Domain,
		ApiVersion:  cfg.ApiVersion,
		Timeout:     cfg.Timeout,
	}
}

// Endpoint returns the admin GraphQL URL for the session's shop domain.
func (s Session) Endpoint() string {
	base := strings.TrimRight(strings.TrimSpace(s.Domain), "/")
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", base, s.ApiVersion)
}

type Client struct {
	http     *resty.Client
	endpoint string
	logger   zerolog.Logger
}

var _ Gateway = (*Client)(nil)

func NewClient(session Session, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(session.AccessToken) == "" {
		return nil, fmt.Errorf("shopify access token is required")
	}
	if strings.TrimSpace(session.Domain) == "" {
		return nil, fmt.Errorf("shopify domain is required")
	}

	logger = logger.With().Str("component", "gateway").Logger()

	rc := resty.New().
		SetHeader("X-Shopify-Access-Token", session.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	if session.Timeout > 0 {
		rc.SetTimeout(session.Timeout)
	}

	rc.OnAfterResponse(func(c *resty.Client, r *resty.Response) error {
		logger.Debug().
			Int("status", r.StatusCode()).
			Str("method", r.Request.Method).
			Str("url", r.Request.URL).
			Dur("latency", r.Time()).
			Msg("graphql request")
		return nil
	})

	logger.Debug().
		Str("endpoint", session.Endpoint()).
		Strs("scopes", session.Scopes).
		Msg("gateway session initialized")

	return &Client{
		http:     rc,
		endpoint: session.Endpoint(),
		logger:   logger,
	}, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (int, []byte, error) {
	op := OperationName(query)
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(graphqlRequest{Query: query, Variables: variables}).
		Post(c.endpoint)

	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		return 0, nil, fmt.Errorf("graphql %s: %w", op, err)
	}

	metrics.GatewayRequestsTotal.WithLabelValues(op, fmt.Sprint(resp.StatusCode())).Inc()
	return resp.StatusCode(), resp.Body(), nil
}

var operationPattern = regexp.MustCompile(`^\s*(?:query|mutation)\s+([A-Za-z_][A-Za-z0-9_]*)`)

// OperationName extracts the operation name from a GraphQL document, or "anonymous".
func OperationName(query string) string {
	if m := operationPattern.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return "anonymous"
}
