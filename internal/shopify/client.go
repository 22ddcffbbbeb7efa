package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
	"golang.org/x/time/rate"

	"github.com/fleura/storefront/internal/logging"
	"github.com/fleura/storefront/internal/metrics"
)

// ErrMissingConfig is returned by NewClient when the endpoint or token is empty.
var ErrMissingConfig = errors.New("shopify: endpoint and storefront token are required")

// GraphQLError is a top-level error returned in a GraphQL response envelope.
type GraphQLError struct {
	Operation string
	Message   string
	Code      string
}

func (e *GraphQLError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Operation, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Throttled reports whether the API rejected the call for exceeding its cost budget.
func (e *GraphQLError) Throttled() bool {
	return e.Code == "THROTTLED"
}

// CartErrors carries userErrors returned by a cart mutation.
type CartErrors []UserError

func (e CartErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, ue := range e {
		msgs = append(msgs, ue.Message)
	}
	return "cart: " + strings.Join(msgs, "; ")
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	Endpoint          string
	StorefrontToken   string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            logrus.FieldLogger
	Metrics           *metrics.Recorder
}

const (
	defaultUserAgent = "fleura/0.1"
	defaultTimeout   = 10 * time.Second
)

// Client talks to the Storefront GraphQL API.
type Client struct {
	endpoint  string
	token     string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	log       logrus.FieldLogger
	metrics   *metrics.Recorder
	ops       map[string]operation
}

type operation struct {
	name     string
	root     string
	document string
}

// NewClient validates cfg and parses every operation document.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	token := strings.TrimSpace(cfg.StorefrontToken)
	if endpoint == "" || token == "" {
		return nil, ErrMissingConfig
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	ops := make(map[string]operation, len(documents))
	for _, doc := range documents {
		op, err := parseOperation(doc)
		if err != nil {
			return nil, err
		}
		ops[op.name] = op
	}

	return &Client{
		endpoint:  endpoint,
		token:     token,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, burst),
		log:       logging.Component(log, "gateway"),
		metrics:   cfg.Metrics,
		ops:       ops,
	}, nil
}

// parseOperation extracts the operation name and the response key of its
// first root field.
func parseOperation(doc string) (operation, error) {
	parsed, perr := parser.ParseQuery(&ast.Source{Input: doc})
	if perr != nil {
		return operation{}, fmt.Errorf("parse document: %v", perr)
	}
	if len(parsed.Operations) != 1 {
		return operation{}, fmt.Errorf("parse document: want 1 operation, got %d", len(parsed.Operations))
	}
	op := parsed.Operations[0]
	if op.Name == "" {
		return operation{}, fmt.Errorf("parse document: operation is anonymous")
	}
	if len(op.SelectionSet) == 0 {
		return operation{}, fmt.Errorf("parse document %s: empty selection set", op.Name)
	}
	field, ok := op.SelectionSet[0].(*ast.Field)
	if !ok {
		return operation{}, fmt.Errorf("parse document %s: first selection is not a field", op.Name)
	}
	root := field.Alias
	if root == "" {
		root = field.Name
	}
	return operation{name: op.Name, root: root, document: doc}, nil
}

type requestBody struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// execute runs the named operation and decodes its root payload into dest.
// A null root leaves dest untouched.
func (c *Client) execute(ctx context.Context, name string, variables map[string]any, dest any) (err error) {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	op, ok := c.ops[name]
	if !ok {
		return fmt.Errorf("unknown operation %q", name)
	}

	requestID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{"op": op.name, "request_id": requestID})
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		elapsed := time.Since(start)
		c.metrics.ObserveGateway(op.name, outcome, elapsed)
		if err != nil {
			log.WithError(err).WithField("elapsed", elapsed).Debug("gateway call failed")
			return
		}
		log.WithField("elapsed", elapsed).Debug("gateway call")
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	payload, err := json.Marshal(requestBody{Query: op.document, OperationName: op.name, Variables: variables})
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.token)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		outcome = metrics.OutcomeTransport
		if resp.StatusCode == http.StatusTooManyRequests {
			outcome = metrics.OutcomeRateLimited
		}
		return fmt.Errorf("api %s returned status %d", op.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("decode response: invalid json")
	}

	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		first := errs.Array()[0]
		gqlErr := &GraphQLError{
			Operation: op.name,
			Message:   first.Get("message").String(),
			Code:      first.Get("extensions.code").String(),
		}
		outcome = metrics.OutcomeGraphQL
		if gqlErr.Throttled() {
			outcome = metrics.OutcomeRateLimited
		}
		return gqlErr
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() || data.Type == gjson.Null {
		outcome = metrics.OutcomeGraphQL
		return fmt.Errorf("api %s returned no data", op.name)
	}
	root := data.Get(op.root)
	if !root.Exists() || root.Type == gjson.Null || dest == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(root.Raw), dest); err != nil {
		outcome = metrics.OutcomeTransport
		return fmt.Errorf("decode %s: %w", op.root, err)
	}
	if hasUserErrors(root) {
		outcome = metrics.OutcomeUserError
	}
	return nil
}

func hasUserErrors(root gjson.Result) bool {
	for _, key := range []string{"customerUserErrors", "userErrors"} {
		if v := root.Get(key); v.IsArray() && len(v.Array()) > 0 {
			return true
		}
	}
	return false
}
