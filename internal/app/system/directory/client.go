// internal/app/system/directory/client.go

// Package directory is the HTTP client for the remote directory service,
// the system of record for users, projects, and companies. Responses are
// validated against embedded JSON schemas before anything reaches the
// local store.
package directory

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/htmlsanitize"
	"github.com/jackson-sweet/opsapp-sub003/internal/domain/models"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var (
	// ErrNotFound means the directory service has no record for the id.
	ErrNotFound = errors.New("directory: not found")
	// ErrUnavailable means the service could not be reached or answered
	// with a server error; the caller should treat the client as offline.
	ErrUnavailable = errors.New("directory: service unavailable")
	// ErrInvalidPayload means the service answered with a body that does
	// not match the published schema.
	ErrInvalidPayload = errors.New("directory: invalid payload")
)

// Config holds the connection settings for the directory service.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration // per-request timeout (default 15s)
	MaxRetries int           // additional attempts for GETs (default 2)
	RetryDelay time.Duration // initial backoff, doubled per retry (default 500ms)
}

// Client talks to the directory service. Reads retry with bounded
// backoff; the seat update mutation never retries automatically (the
// failure is surfaced once and local state is left untouched).
type Client struct {
	cfg    Config
	http   *http.Client
	log    *zap.Logger
	online atomic.Bool

	userSchema    *jsonschema.Schema
	companySchema *jsonschema.Schema
}

// New builds a Client and compiles the response schemas.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("directory: base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}

	var err error
	if c.userSchema, err = compileSchema("schemas/user.json"); err != nil {
		return nil, err
	}
	if c.companySchema, err = compileSchema("schemas/company.json"); err != nil {
		return nil, err
	}
	return c, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("directory: read schema %s: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("directory: parse schema %s: %w", name, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("directory: register schema %s: %w", name, err)
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("directory: compile schema %s: %w", name, err)
	}
	return sch, nil
}

// Online reports the outcome of the most recent call: true after any
// successful round trip, false after a transport failure. The reconciler
// uses it to decide between remote fetch and placeholder synthesis.
func (c *Client) Online() bool {
	return c.online.Load()
}

// userPayload is the wire shape of a directory user.
type userPayload struct {
	UserID      string   `json:"user_id"`
	CompanyID   *string  `json:"company_id"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	ProjectIDs  []string `json:"project_ids"`
}

// companyPayload is the wire shape of a directory company.
type companyPayload struct {
	CompanyID          string     `json:"company_id"`
	Name               string     `json:"name"`
	SubscriptionStatus *string    `json:"subscription_status"`
	MaxSeats           int        `json:"max_seats"`
	SeatedEmployeeIDs  []string   `json:"seated_employee_ids"`
	AdminIDs           []string   `json:"admin_ids"`
	TrialEndsAt        *time.Time `json:"trial_ends_at"`
	GraceEndsAt        *time.Time `json:"grace_ends_at"`
}

// FetchUser retrieves the authoritative record for a user id.
func (c *Client) FetchUser(ctx context.Context, userID string) (models.User, error) {
	body, err := c.get(ctx, "/v1/users/"+userID, c.userSchema)
	if err != nil {
		return models.User{}, err
	}
	var p userPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	u := models.User{
		UserID:      p.UserID,
		CompanyID:   p.CompanyID,
		DisplayName: htmlsanitize.Text(p.DisplayName),
		Email:       p.Email,
		Role:        p.Role,
		ProjectIDs:  p.ProjectIDs,
	}
	return u, nil
}

// FetchCompany retrieves the authoritative record for a company id.
func (c *Client) FetchCompany(ctx context.Context, companyID string) (models.Company, error) {
	body, err := c.get(ctx, "/v1/companies/"+companyID, c.companySchema)
	if err != nil {
		return models.Company{}, err
	}
	return c.decodeCompany(body)
}

// UpdateCompanySeats replaces the company's seat list and returns the
// server's post-update record, which is authoritative: callers must
// adopt the returned list even when it differs from what they sent.
func (c *Client) UpdateCompanySeats(ctx context.Context, companyID string, seatedIDs []string) (models.Company, error) {
	payload, err := json.Marshal(map[string][]string{"seated_employee_ids": seatedIDs})
	if err != nil {
		return models.Company{}, err
	}
	body, err := c.do(ctx, http.MethodPut, "/v1/companies/"+companyID+"/seats", payload, c.companySchema)
	if err != nil {
		return models.Company{}, err
	}
	return c.decodeCompany(body)
}

func (c *Client) decodeCompany(body []byte) (models.Company, error) {
	var p companyPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Company{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	comp := models.Company{
		CompanyID:         p.CompanyID,
		Name:              htmlsanitize.Text(p.Name),
		MaxSeats:          p.MaxSeats,
		SeatedEmployeeIDs: p.SeatedEmployeeIDs,
		AdminIDs:          p.AdminIDs,
		TrialEndsAt:       p.TrialEndsAt,
		GraceEndsAt:       p.GraceEndsAt,
	}
	if p.SubscriptionStatus != nil {
		comp.SubscriptionStatus = *p.SubscriptionStatus
	}
	return comp, nil
}

// get performs an idempotent read with bounded retry and doubling
// backoff. Only transport failures and 5xx responses are retried.
func (c *Client) get(ctx context.Context, path string, schema *jsonschema.Schema) ([]byte, error) {
	delay := c.cfg.RetryDelay
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		body, err := c.do(ctx, http.MethodGet, path, nil, schema)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !errors.Is(err, ErrUnavailable) {
			return nil, err
		}
		c.log.Warn("directory fetch failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, lastErr
}

// do performs a single round trip and validates the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, schema *jsonschema.Schema) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.online.Store(false)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.online.Store(false)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.online.Store(true)
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		c.online.Store(false)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		c.online.Store(true)
		return nil, fmt.Errorf("directory: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	c.online.Store(true)

	if schema != nil {
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		if err := schema.Validate(inst); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}
	return body, nil
}
