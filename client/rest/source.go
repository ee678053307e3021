// Package rest speaks the board server's JSON API, translating envelope
// error codes back into domain classifications. Transport failures come back
// as TRANSIENT; nothing here retries on its own.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/splitlist/taskboard/api/transport"
	"github.com/splitlist/taskboard/client"
	"github.com/splitlist/taskboard/domain"
)

const defaultTimeout = 10 * time.Second

// Options tunes a Source beyond its base URL.
type Options struct {
	// Token authenticates every call. Login and Refresh work without one.
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Source is the HTTP implementation of the client's record source and
// directory surfaces.
type Source struct {
	base    string
	token   string
	timeout time.Duration
	httpc   *fasthttp.Client
	logger  *zap.Logger
}

func New(baseURL string, opts Options) *Source {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Source{
		base:    strings.TrimRight(baseURL, "/"),
		token:   opts.Token,
		timeout: timeout,
		httpc: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		logger: logger,
	}
}

// SetToken swaps the bearer token, typically right after Login.
func (s *Source) SetToken(token string) {
	s.token = token
}

// Login starts a session for a profile id or email and returns the grant.
func (s *Source) Login(ctx context.Context, profileRef string, ttl time.Duration) (*transport.LoginResponse, error) {
	body := transport.LoginRequest{Profile: profileRef, TTL: int(ttl.Seconds())}
	var grant transport.LoginResponse
	if err := s.call(ctx, fasthttp.MethodPost, "/api/v1/auth/login", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Refresh extends a session and returns the re-minted grant.
func (s *Source) Refresh(ctx context.Context, sessionID string, ttl time.Duration) (*transport.LoginResponse, error) {
	body := transport.RefreshRequest{SessionID: sessionID, TTL: int(ttl.Seconds())}
	var grant transport.LoginResponse
	if err := s.call(ctx, fasthttp.MethodPost, "/api/v1/auth/refresh", body, &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Whoami resolves the authenticated profile.
func (s *Source) Whoami(ctx context.Context) (*domain.Profile, error) {
	var profile domain.Profile
	if err := s.call(ctx, fasthttp.MethodGet, "/api/v1/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *Source) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	var payload transport.TaskListResponse
	if err := s.call(ctx, fasthttp.MethodGet, "/api/v1/tasks", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Tasks, nil
}

func (s *Source) CreateTask(ctx context.Context, draft client.TaskDraft) (*domain.Task, error) {
	body := transport.TaskCreateRequest{
		Title:       draft.Title,
		Note:        draft.Note,
		Due:         draft.Due.String(),
		CategoryID:  draft.CategoryID,
		AssigneeIDs: draft.AssigneeIDs,
	}
	var created domain.Task
	if err := s.call(ctx, fasthttp.MethodPost, "/api/v1/tasks", body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Source) PatchTask(ctx context.Context, patch client.TaskPatch) (*domain.Task, error) {
	body := transport.TaskPatchRequest{
		Title:      patch.Title,
		Note:       patch.Note,
		Due:        patch.Due,
		CategoryID: patch.CategoryID,
	}
	var updated domain.Task
	path := "/api/v1/tasks/" + url.PathEscape(patch.TaskID)
	if err := s.call(ctx, fasthttp.MethodPatch, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Source) DeleteTask(ctx context.Context, taskID string) error {
	path := "/api/v1/tasks/" + url.PathEscape(taskID)
	return s.call(ctx, fasthttp.MethodDelete, path, nil, nil)
}

func (s *Source) SetAssignmentStatus(ctx context.Context, taskID, assigneeID string, status domain.AssignmentStatus, note string) (*domain.Assignment, error) {
	body := transport.AssignmentStatusRequest{Status: string(status), Note: note}
	var updated domain.Assignment
	path := fmt.Sprintf("/api/v1/tasks/%s/assignments/%s/status",
		url.PathEscape(taskID), url.PathEscape(assigneeID))
	if err := s.call(ctx, fasthttp.MethodPut, path, body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Source) SyncAssignments(ctx context.Context, taskID string, assigneeIDs []string) error {
	body := transport.AssigneeSyncRequest{AssigneeIDs: assigneeIDs}
	path := "/api/v1/tasks/" + url.PathEscape(taskID) + "/assignees"
	return s.call(ctx, fasthttp.MethodPut, path, body, nil)
}

func (s *Source) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	var profiles []domain.Profile
	if err := s.call(ctx, fasthttp.MethodGet, "/api/v1/profiles", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *Source) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.call(ctx, fasthttp.MethodGet, "/api/v1/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// call issues one request and decodes the envelope into out. The deadline is
// the tighter of the context's and the configured timeout.
func (s *Source) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return domain.WrapError(domain.ErrCodeTransient, "request aborted", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.base + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if s.token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+s.token)
	}
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return domain.WrapError(domain.ErrCodeInternal, "encode request body", err)
		}
		req.SetBody(encoded)
	}

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.httpc.DoDeadline(req, resp, deadline); err != nil {
		s.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return domain.WrapError(domain.ErrCodeTransient, "board server unreachable", err)
	}

	return decodeEnvelope(resp.StatusCode(), resp.Body(), out)
}

// envelope mirrors transport.Envelope with the payload left raw for typed
// decoding.
type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
}

func decodeEnvelope(status int, body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return statusFallback(status, err)
	}
	if env.Status != "success" {
		return remoteError(env.Code, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "decode response payload", err)
	}
	return nil
}

// statusFallback classifies responses whose body is not an envelope, such as
// proxy error pages, by HTTP status alone.
func statusFallback(status int, cause error) error {
	message := fmt.Sprintf("response was not an envelope (http %d)", status)
	switch status {
	case fasthttp.StatusUnauthorized:
		return domain.WrapError(domain.ErrCodeUnauthorized, message, cause)
	case fasthttp.StatusForbidden:
		return domain.WrapError(domain.ErrCodeForbidden, message, cause)
	case fasthttp.StatusNotFound:
		return domain.WrapError(domain.ErrCodeNotFound, message, cause)
	case fasthttp.StatusBadRequest:
		return domain.WrapError(domain.ErrCodeInvalid, message, cause)
	case fasthttp.StatusConflict:
		return domain.WrapError(domain.ErrCodeConflict, message, cause)
	default:
		return domain.WrapError(domain.ErrCodeTransient, message, cause)
	}
}

// remoteError rebuilds the domain classification the server put on the wire.
// Unknown codes read as transient, so callers treat them as retryable by hand.
func remoteError(code, message string) error {
	if message == "" {
		message = "request refused"
	}
	switch c := domain.ErrorCode(code); c {
	case domain.ErrCodeNotFound, domain.ErrCodeInvalid, domain.ErrCodeConflict,
		domain.ErrCodeForbidden, domain.ErrCodeUnauthorized:
		return domain.NewError(c, message)
	default:
		return domain.NewError(domain.ErrCodeTransient, message)
	}
}
