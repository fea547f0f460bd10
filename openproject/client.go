// Package openproject is a typed client for the OpenProject API v3.
// It handles authentication, retries, pagination of HAL collections,
// and caching of the rarely-changing catalogs.
package openproject

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"

	"github.com/davidvv/openproject-mcp-server/metricskey"
	"github.com/davidvv/openproject-mcp-server/store"
)

var logger = xlog.NewPackageLogger("github.com/davidvv/openproject-mcp-server", "openproject")

const (
	apiPrefix = "/api/v3"

	defaultPageSize = 100
	defaultRetries  = 3
	defaultCacheTTL = 5 * time.Minute
)

// Client calls the OpenProject API v3. Safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	host     string
	http     *http.Client
	pageSize int
	retries  uint
	catalogs store.Cache
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithHostHeader overrides the Host header, for instances behind a
// reverse proxy that routes on Host.
func WithHostHeader(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithPageSize sets the page size used when walking collections.
func WithPageSize(size int) Option {
	return func(c *Client) { c.pageSize = size }
}

// WithRetries sets the total number of attempts per request.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.retries = uint(n)
		}
	}
}

// WithCacheTTL sets how long catalog lookups are served from cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.catalogs = store.NewMemoryCache(ttl) }
}

// NewClient returns a client for the OpenProject instance at baseURL,
// authenticating with the given API key.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		pageSize: defaultPageSize,
		retries:  defaultRetries,
		catalogs: store.NewMemoryCache(defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the instance base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProjectURL returns the web URL of a project page.
func (c *Client) ProjectURL(identifier string) string {
	return c.baseURL + "/projects/" + identifier
}

// WorkPackageURL returns the web URL of a work package page.
func (c *Client) WorkPackageURL(id int) string {
	return c.baseURL + "/work_packages/" + strconv.Itoa(id)
}

// TimeEntryURL returns the web URL of a time entry.
func (c *Client) TimeEntryURL(id int) string {
	return c.baseURL + "/time_entries/" + strconv.Itoa(id)
}

// TestConnection fetches the API root document, verifying both
// connectivity and the API key.
func (c *Client) TestConnection(ctx context.Context) (*RootInfo, error) {
	var info RootInfo
	if err := c.do(ctx, http.MethodGet, "/", nil, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

//
// Projects
//

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	return listAll[Project](ctx, c, "/projects", nil)
}

func (c *Client) GetProject(ctx context.Context, id int) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+strconv.Itoa(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreateProject(ctx context.Context, create ProjectCreate) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, create.body(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

//
// Work packages
//

func (c *Client) ListWorkPackages(ctx context.Context, projectID int) ([]WorkPackage, error) {
	path := "/projects/" + strconv.Itoa(projectID) + "/work_packages"
	return listAll[WorkPackage](ctx, c, path, nil)
}

func (c *Client) GetWorkPackage(ctx context.Context, id int) (*WorkPackage, error) {
	var wp WorkPackage
	if err := c.do(ctx, http.MethodGet, "/work_packages/"+strconv.Itoa(id), nil, nil, &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

// SearchWorkPackages finds work packages whose subject contains query,
// optionally narrowed to a project.
func (c *Client) SearchWorkPackages(ctx context.Context, query string, projectID int) ([]WorkPackage, error) {
	filters := Filters{NewFilter("subject", OpContains, query)}
	if projectID > 0 {
		filters = append(filters, NewFilter("project", OpEquals, strconv.Itoa(projectID)))
	}
	return listAll[WorkPackage](ctx, c, "/work_packages", filters)
}

func (c *Client) CreateWorkPackage(ctx context.Context, create WorkPackageCreate) (*WorkPackage, error) {
	var wp WorkPackage
	if err := c.do(ctx, http.MethodPost, "/work_packages", nil, create.body(), &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

// UpdateWorkPackage applies the patch to a work package. Attribute
// changes are guarded by optimistic locking; when the patch needs a
// lockVersion and carries none, the current one is fetched first.
func (c *Client) UpdateWorkPackage(ctx context.Context, id int, patch WorkPackagePatch) (*WorkPackage, error) {
	if patch.needsLockVersion() && patch.LockVersion == nil {
		current, err := c.GetWorkPackage(ctx, id)
		if err != nil {
			return nil, err
		}
		patch.LockVersion = &current.LockVersion
	}

	var wp WorkPackage
	if err := c.do(ctx, http.MethodPatch, "/work_packages/"+strconv.Itoa(id), nil, patch.body(), &wp); err != nil {
		return nil, err
	}
	return &wp, nil
}

//
// Relations
//

func (c *Client) CreateRelation(ctx context.Context, create RelationCreate) (*Relation, error) {
	path := "/work_packages/" + strconv.Itoa(create.FromID) + "/relations"
	var rel Relation
	if err := c.do(ctx, http.MethodPost, path, nil, create.body(), &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

func (c *Client) ListRelations(ctx context.Context, workPackageID int) ([]Relation, error) {
	path := "/work_packages/" + strconv.Itoa(workPackageID) + "/relations"
	return listAll[Relation](ctx, c, path, nil)
}

func (c *Client) DeleteRelation(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/relations/"+strconv.Itoa(id), nil, nil, nil)
}

//
// Users and memberships
//

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return listAll[User](ctx, c, "/users", nil)
}

func (c *Client) GetUser(ctx context.Context, id int) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/"+strconv.Itoa(id), nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsersByEmail returns the users whose email matches exactly.
func (c *Client) ListUsersByEmail(ctx context.Context, email string) ([]User, error) {
	filters := Filters{NewFilter("email", OpEquals, email)}
	return listAll[User](ctx, c, "/users", filters)
}

// FindUserByEmail returns the user with the given email, or nil when
// no user matches.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	users, err := c.ListUsersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if strings.EqualFold(u.Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

func (c *Client) ListMemberships(ctx context.Context, projectID int) ([]Membership, error) {
	filters := Filters{NewFilter("project", OpEquals, strconv.Itoa(projectID))}
	return listAll[Membership](ctx, c, "/memberships", filters)
}

//
// Catalogs, served from cache
//

func (c *Client) WorkPackageTypes(ctx context.Context) ([]Type, error) {
	return cachedCatalog[Type](ctx, c, "types", "/types")
}

func (c *Client) WorkPackageStatuses(ctx context.Context) ([]Status, error) {
	return cachedCatalog[Status](ctx, c, "statuses", "/statuses")
}

func (c *Client) Priorities(ctx context.Context) ([]Priority, error) {
	return cachedCatalog[Priority](ctx, c, "priorities", "/priorities")
}

func (c *Client) TimeEntryActivities(ctx context.Context) ([]Activity, error) {
	return cachedCatalog[Activity](ctx, c, "activities", "/time_entries/activities")
}

// ResetCatalogCache drops all cached catalogs.
func (c *Client) ResetCatalogCache() {
	c.catalogs.Reset()
}

func cachedCatalog[T any](ctx context.Context, c *Client, key, path string) ([]T, error) {
	hit := true
	items, err := store.GetOrFetch(c.catalogs, key, func() ([]T, error) {
		hit = false
		return listAll[T](ctx, c, path, nil)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		metricskey.StatsCatalogCacheHits.IncrCounter(1, key)
	} else {
		metricskey.StatsCatalogCacheMisses.IncrCounter(1, key)
	}
	return items, nil
}

//
// Time entries
//

func (c *Client) ListTimeEntries(ctx context.Context, filter TimeEntryFilter) ([]TimeEntry, error) {
	return listAll[TimeEntry](ctx, c, "/time_entries", filter.filters())
}

func (c *Client) GetTimeEntry(ctx context.Context, id int) (*TimeEntry, error) {
	var te TimeEntry
	if err := c.do(ctx, http.MethodGet, "/time_entries/"+strconv.Itoa(id), nil, nil, &te); err != nil {
		return nil, err
	}
	return &te, nil
}

func (c *Client) CreateTimeEntry(ctx context.Context, create TimeEntryCreate) (*TimeEntry, error) {
	var te TimeEntry
	if err := c.do(ctx, http.MethodPost, "/time_entries", nil, create.body(), &te); err != nil {
		return nil, err
	}
	return &te, nil
}

func (c *Client) UpdateTimeEntry(ctx context.Context, id int, patch TimeEntryPatch) (*TimeEntry, error) {
	var te TimeEntry
	if err := c.do(ctx, http.MethodPatch, "/time_entries/"+strconv.Itoa(id), nil, patch.body(), &te); err != nil {
		return nil, err
	}
	return &te, nil
}

func (c *Client) DeleteTimeEntry(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/time_entries/"+strconv.Itoa(id), nil, nil, nil)
}

// listAll walks a HAL collection page by page until the server runs
// out of elements. OpenProject pages are addressed by 1-based offset.
func listAll[T any](ctx context.Context, c *Client, path string, filters Filters) ([]T, error) {
	q := url.Values{}
	if len(filters) > 0 {
		encoded, err := filters.Encode()
		if err != nil {
			return nil, err
		}
		q.Set("filters", encoded)
	}
	q.Set("pageSize", strconv.Itoa(c.pageSize))

	var all []T
	for offset := 1; ; offset++ {
		q.Set("offset", strconv.Itoa(offset))

		var page collection[T]
		if err := c.do(ctx, http.MethodGet, path, q, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Embedded.Elements...)

		if len(page.Embedded.Elements) < c.pageSize || len(all) >= page.Total {
			return all, nil
		}
	}
}

// do performs one API request with retries. Transport failures are
// retried with exponential backoff; HTTP error responses are not.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to encode request body")
		}
	}

	started := time.Now()
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
			if err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "failed to create request"))
			}
			req.Header.Set("Authorization", "Basic "+
				base64.StdEncoding.EncodeToString([]byte("apikey:"+c.apiKey)))
			req.Header.Set("Accept", "application/json")
			req.Header.Set("X-Request-Id", uuid.NewString())
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if c.host != "" {
				// The instance routes on Host; the original scheme is
				// preserved so redirects stay on https.
				req.Host = c.host
				req.Header.Set("X-Forwarded-Proto", "https")
			}

			resp, err := c.http.Do(req)
			if err != nil {
				return errors.Wrap(err, "request failed")
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return errors.Wrap(err, "failed to read response")
			}

			logger.ContextKV(ctx, xlog.DEBUG,
				"method", method,
				"path", path,
				"status", resp.StatusCode,
			)

			if resp.StatusCode >= http.StatusBadRequest {
				return retry.Unrecoverable(newAPIError(resp.StatusCode, data))
			}
			if out != nil && len(data) > 0 {
				if err := json.Unmarshal(data, out); err != nil {
					return retry.Unrecoverable(errors.Wrap(err, "failed to decode response"))
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(2*time.Second),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			metricskey.StatsAPIRequestsRetried.IncrCounter(1, method, path)
			logger.ContextKV(ctx, xlog.WARNING,
				"reason", "retry",
				"method", method,
				"path", path,
				"attempt", attempt+1,
				"err", err.Error(),
			)
		}),
	)

	metricskey.PerfAPIRequest.MeasureSince(started, method)
	if err != nil {
		metricskey.StatsAPIRequestsFailed.IncrCounter(1, method, path)
		return err
	}
	metricskey.StatsAPIRequestsSucceeded.IncrCounter(1, method, path)
	return nil
}
