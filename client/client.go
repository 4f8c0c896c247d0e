// Package client calls the forms REST API. Failed calls come back as
// *model.NetworkError; a 404 also matches model.ErrNotFound.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/TRSiddique/university-association-sub000/model"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken authenticates admin calls with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type submission struct {
	FormID  string         `json:"formId"`
	Answers []model.Answer `json:"answers"`
}

func (c *Client) ListForms(ctx context.Context) ([]model.Form, error) {
	var out struct {
		Forms []model.Form `json:"forms"`
	}
	err := c.do(ctx, "list_forms", http.MethodGet, "/api/forms", nil, &out)
	return out.Forms, err
}

func (c *Client) ListAllForms(ctx context.Context) ([]model.Form, error) {
	var out struct {
		Forms []model.Form `json:"forms"`
	}
	err := c.do(ctx, "list_all_forms", http.MethodGet, "/api/admin/forms", nil, &out)
	return out.Forms, err
}

func (c *Client) GetForm(ctx context.Context, id string) (*model.Form, error) {
	var f model.Form
	if err := c.do(ctx, "get_form", http.MethodGet, "/api/forms/"+url.PathEscape(id), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateForm sends the whole form in one call. Question ids in f are
// ignored; the server assigns its own.
func (c *Client) CreateForm(ctx context.Context, f model.Form) (*model.Form, error) {
	var created model.Form
	if err := c.do(ctx, "create_form", http.MethodPost, "/api/admin/forms", f, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) SetFormActive(ctx context.Context, id string, active bool) error {
	body := map[string]bool{"isActive": active}
	return c.do(ctx, "toggle_form", http.MethodPatch, "/api/admin/forms/"+url.PathEscape(id), body, nil)
}

func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.do(ctx, "delete_form", http.MethodDelete, "/api/admin/forms/"+url.PathEscape(id), nil, nil)
}

// SubmitResponse sends one response and returns its id.
func (c *Client) SubmitResponse(ctx context.Context, formID string, answers []model.Answer) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	path := "/api/forms/" + url.PathEscape(formID) + "/responses"
	err := c.do(ctx, "submit_response", http.MethodPost, path, submission{FormID: formID, Answers: answers}, &out)
	return out.ID, err
}

func (c *Client) ListResponses(ctx context.Context, formID string) ([]model.Response, error) {
	var out struct {
		Responses []model.Response `json:"responses"`
	}
	path := "/api/admin/forms/" + url.PathEscape(formID) + "/responses"
	err := c.do(ctx, "list_responses", http.MethodGet, path, nil, &out)
	return out.Responses, err
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &model.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := render.DecodeJSON(resp.Body, out); err != nil {
		return &model.NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// statusError turns a non-success response into an error. 404 wraps
// model.ErrNotFound; 422 carries the server's per-question messages as a
// *model.ValidationError.
func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return &model.NetworkError{Op: op, StatusCode: resp.StatusCode, Message: msg, Err: model.ErrNotFound}
	case http.StatusUnprocessableEntity:
		var body struct {
			Fields map[string]string `json:"fields"`
		}
		if json.Unmarshal(raw, &body) == nil && len(body.Fields) > 0 {
			return &model.ValidationError{Fields: body.Fields}
		}
	}
	return &model.NetworkError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
