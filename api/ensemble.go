package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brettboylen/creator-tracker/models"
)

const (
	userPostsPath = "tt/user/posts"
	userInfoPath  = "tt/user/info"
	defaultDepth  = 1
)

// FetchResult is what one posts fetch yields
type FetchResult struct {
	Posts   []models.Post
	Profile *models.ProfileSnapshot
	Raw     json.RawMessage
}

// EnsembleAPI is a client for the EnsembleData TikTok endpoints
type EnsembleAPI struct {
	rootURL      string
	token        string
	httpClient   *http.Client
	limiter      *rate.Limiter
	log          *logrus.Logger
	now          func() time.Time
	unitsMutex   sync.RWMutex
	unitsCharged int
}

// NewEnsembleAPI creates a new EnsembleData client
func NewEnsembleAPI(rootURL, token string, maxRequestsPerMinute int, log *logrus.Logger) *EnsembleAPI {
	if maxRequestsPerMinute <= 0 {
		maxRequestsPerMinute = 30
	}

	// use 95% of the allowance, no burst
	perSecond := float64(maxRequestsPerMinute) / 60.0 * 0.95

	return &EnsembleAPI{
		rootURL:    strings.TrimSuffix(rootURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		log:        log,
		now:        time.Now,
	}
}

// UnitsCharged returns the running total of API units reported by the upstream
func (e *EnsembleAPI) UnitsCharged() int {
	e.unitsMutex.RLock()
	defer e.unitsMutex.RUnlock()
	return e.unitsCharged
}

func (e *EnsembleAPI) buildURL(path string, params url.Values) string {
	params.Set("token", e.token)
	return fmt.Sprintf("%s/%s?%s", e.rootURL, path, params.Encode())
}

// get performs a rate-limited GET and returns the raw body
func (e *EnsembleAPI) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.buildURL(path, params), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("EnsembleData rate limited %s, retry after %ds", path, getHeaderAsInt(resp.Header, "Retry-After"))
	}
	if resp.StatusCode != http.StatusOK {
		e.log.WithFields(logrus.Fields{
			"path":          path,
			"status_code":   resp.StatusCode,
			"response_body": string(body),
		}).Error("EnsembleData error response")
		return nil, fmt.Errorf("EnsembleData error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return payload, nil
}

// FetchUserPosts fetches the latest posts of a TikTok user
func (e *EnsembleAPI) FetchUserPosts(ctx context.Context, username string, depth int) (*FetchResult, error) {
	if depth <= 0 {
		depth = defaultDepth
	}

	params := url.Values{}
	params.Set("username", username)
	params.Set("depth", strconv.Itoa(depth))
	params.Set("start_cursor", "0")
	params.Set("new_version", "true")
	params.Set("download_video", "false")

	e.log.WithFields(logrus.Fields{
		"username": username,
		"depth":    depth,
	}).Info("Fetching posts from EnsembleData")

	body, err := e.get(ctx, userPostsPath, params)
	if err != nil {
		return nil, err
	}

	payload, err := decode(body)
	if err != nil {
		return nil, err
	}
	e.recordUnits(payload)

	fetchedAt := e.now()
	rawPosts := extractPostList(payload)

	posts := make([]models.Post, 0, len(rawPosts))
	for _, raw := range rawPosts {
		posts = append(posts, toPost(raw, username, fetchedAt))
	}

	var profile *models.ProfileSnapshot
	if envelope, ok := payload.(map[string]any); ok {
		if user := firstObject(envelope, "profile", "user", "author"); user != nil {
			profile = toProfileSnapshot(user, nil, username, fetchedAt)
		}
	}

	e.log.WithFields(logrus.Fields{
		"username":         username,
		"post_count":       len(posts),
		"profile_captured": profile != nil,
	}).Info("Fetched posts from EnsembleData")

	return &FetchResult{Posts: posts, Profile: profile, Raw: json.RawMessage(body)}, nil
}

// FetchUserInfo fetches account-level counters of a TikTok user
func (e *EnsembleAPI) FetchUserInfo(ctx context.Context, username string) (*models.ProfileSnapshot, error) {
	params := url.Values{}
	params.Set("username", username)

	body, err := e.get(ctx, userInfoPath, params)
	if err != nil {
		return nil, err
	}

	payload, err := decode(body)
	if err != nil {
		return nil, err
	}
	e.recordUnits(payload)

	envelope, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected user info payload for %s", username)
	}

	data := firstObject(envelope, "data")
	if data == nil {
		data = envelope
	}

	profile := toProfileSnapshot(firstObject(data, "user"), firstObject(data, "stats"), username, e.now())
	if profile == nil {
		return nil, fmt.Errorf("no user info returned for %s", username)
	}
	return profile, nil
}

// recordUnits accumulates the units_charged field of a response for quota tracking
func (e *EnsembleAPI) recordUnits(payload any) {
	envelope, ok := payload.(map[string]any)
	if !ok {
		return
	}
	charged := firstInt(envelope, "units_charged")
	if charged == nil || *charged == 0 {
		return
	}
	units := int(*charged)

	e.unitsMutex.Lock()
	e.unitsCharged += units
	total := e.unitsCharged
	e.unitsMutex.Unlock()

	e.log.WithFields(logrus.Fields{
		"units":       units,
		"units_total": total,
	}).Debug("EnsembleData units charged")
}

func getHeaderAsInt(header http.Header, name string) int {
	value := header.Get(name)
	if value == "" {
		return 0
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}

	return intValue
}
