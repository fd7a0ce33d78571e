// Package client provides an HTTP implementation of the workbench's
// review API contract.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/retry"
	"github.com/cropdesk/review-engine/pkg/workbench"
)

// DefaultTimeout is the maximum time to wait for review engine responses.
const DefaultTimeout = 30 * time.Second

// Client provides access to the review engine API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	retryCfg   *retry.Config
	logger     *zap.Logger
}

// NewClient creates a new review engine client. token is the reviewer's
// bearer JWT.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("client"),
	}
}

// apiResponse is the engine's standard envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// ListAllocatedQuestions returns one page of the reviewer's queue.
func (c *Client) ListAllocatedQuestions(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error) {
	query := filterQuery(filter)
	query.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		query.Set("limit", strconv.Itoa(pageSize))
	}

	var result models.QuestionPage
	if err := c.get(ctx, []string{"api", "questions"}, query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QuestionPageIndex resolves which page a question occupies under the filter.
func (c *Client) QuestionPageIndex(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error) {
	query := filterQuery(filter)
	if pageSize > 0 {
		query.Set("limit", strconv.Itoa(pageSize))
	}

	var result struct {
		QuestionID uuid.UUID `json:"question_id"`
		Page       int       `json:"page"`
	}
	if err := c.get(ctx, []string{"api", "questions", questionID.String(), "page-index"}, query, &result); err != nil {
		return 0, err
	}
	return result.Page, nil
}

// GetQuestion loads a question with its ledger.
func (c *Client) GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*workbench.QuestionFull, error) {
	query := url.Values{}
	if actionType != "" {
		query.Set("action_type", string(actionType))
	}

	var result workbench.QuestionFull
	if err := c.get(ctx, []string{"api", "questions", questionID.String()}, query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubmitInitialAnswer opens a fresh review iteration.
func (c *Client) SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID, answer models.AnswerInput, requestID uuid.UUID) (*models.HistoryItem, error) {
	payload := map[string]any{
		"answer":     answer.Text,
		"sources":    answer.Sources,
		"remarks":    answer.Remarks,
		"request_id": requestID,
	}

	var item models.HistoryItem
	if err := c.post(ctx, []string{"api", "questions", questionID.String(), "answers"}, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Accept submits an accept review.
func (c *Client) Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error) {
	payload := map[string]any{
		"type":           "allocated",
		"status":         string(models.ActionAccepted),
		"parameters":     decision.Parameters,
		"override":       decision.Override,
		"approvedAnswer": decision.ReviewingAnswerID,
		"request_id":     decision.RequestID,
	}

	var item models.HistoryItem
	if err := c.post(ctx, []string{"api", "questions", decision.QuestionID.String(), "review"}, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Reject submits a reject review with the replacement answer.
func (c *Client) Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error) {
	payload := map[string]any{
		"type":               "allocated",
		"status":             string(models.ActionRejected),
		"parameters":         decision.Parameters,
		"rejectedAnswer":     decision.ReviewingAnswerID,
		"reasonForRejection": decision.Reason,
		"answer":             decision.Replacement.Text,
		"sources":            decision.Replacement.Sources,
		"remarks":            decision.Replacement.Remarks,
		"request_id":         decision.RequestID,
	}

	var item models.HistoryItem
	if err := c.post(ctx, []string{"api", "questions", decision.QuestionID.String(), "review"}, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Modify submits a modify review with the revised answer.
func (c *Client) Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error) {
	payload := map[string]any{
		"type":                  "allocated",
		"status":                string(models.ActionModified),
		"parameters":            decision.Parameters,
		"modifiedAnswer":        decision.ReviewingAnswerID,
		"reasonForModification": decision.Reason,
		"answer":                decision.Revised.Text,
		"sources":               decision.Revised.Sources,
		"remarks":               decision.Revised.Remarks,
		"request_id":            decision.RequestID,
	}

	var item models.HistoryItem
	if err := c.post(ctx, []string{"api", "questions", decision.QuestionID.String(), "review"}, payload, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Reroute escalates the answer under review to another reviewer pool.
func (c *Client) Reroute(ctx context.Context, decision models.RerouteDecision) (*models.Reroute, error) {
	payload := map[string]any{
		"answer_id":   decision.AnswerID,
		"rerouted_to": decision.ReroutedTo,
		"comment":     decision.Comment,
		"request_id":  decision.RequestID,
	}

	var reroute models.Reroute
	if err := c.post(ctx, []string{"api", "questions", decision.QuestionID.String(), "reroute"}, payload, &reroute); err != nil {
		return nil, err
	}
	return &reroute, nil
}

// RejectReroute declines an escalation.
func (c *Client) RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error {
	payload := map[string]any{
		"question_id":  decision.QuestionID,
		"moderator_id": decision.ModeratorID,
		"expert_id":    decision.ExpertID,
		"reason":       decision.Reason,
		"request_id":   decision.RequestID,
	}
	return c.post(ctx, []string{"api", "reroutes", decision.RerouteID.String(), "reject"}, payload, nil)
}

func (c *Client) get(ctx context.Context, segments []string, query url.Values, out any) error {
	endpoint, err := buildURL(c.baseURL, segments...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Reads are safe to replay, so transient failures are retried with
	// backoff. Writes are not retried here; the server deduplicates them
	// by request ID instead.
	var lastErr error
	err = retry.Do(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		lastErr = c.do(req, out)
		if lastErr != nil && !transient(lastErr) {
			return nil // permanent failure, stop retrying
		}
		return lastErr
	})
	if err != nil {
		return err
	}
	return lastErr
}

func (c *Client) post(ctx context.Context, segments []string, payload any, out any) error {
	endpoint, err := buildURL(c.baseURL, segments...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call review engine: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("Review engine returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("path", req.URL.Path),
			zap.String("body", string(body)))
		return &statusError{status: resp.StatusCode, body: string(body)}
	}

	if out == nil {
		return nil
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// statusError carries the HTTP status of a failed call so retry logic
// can tell server faults from client mistakes.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("review engine returned status %d: %s", e.status, e.body)
}

// transient reports whether an error is worth retrying. Network errors
// and server faults are; 4xx responses are not.
func transient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	return true
}

// buildURL joins base URL with path segments safely.
func buildURL(baseURL string, segments ...string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u.Path = path.Join(append([]string{u.Path}, segments...)...)
	return u.String(), nil
}

func filterQuery(filter models.AllocationFilter) url.Values {
	query := url.Values{}
	if len(filter.Statuses) > 0 {
		parts := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			parts[i] = string(s)
		}
		query.Set("status", strings.Join(parts, ","))
	}
	if filter.Source != "" {
		query.Set("source", filter.Source)
	}
	if filter.State != "" {
		query.Set("state", filter.State)
	}
	if filter.Crop != "" {
		query.Set("crop", filter.Crop)
	}
	if filter.Domain != "" {
		query.Set("domain", filter.Domain)
	}
	if filter.UserID != uuid.Nil {
		query.Set("user_id", filter.UserID.String())
	}
	if filter.Priority != "" {
		query.Set("priority", string(filter.Priority))
	}
	if filter.CreatedAfter != nil {
		query.Set("created_after", filter.CreatedAfter.Format(time.RFC3339))
	}
	if filter.CreatedBefore != nil {
		query.Set("created_before", filter.CreatedBefore.Format(time.RFC3339))
	}
	if filter.MinAnswers != nil {
		query.Set("min_answers", strconv.Itoa(*filter.MinAnswers))
	}
	if filter.MaxAnswers != nil {
		query.Set("max_answers", strconv.Itoa(*filter.MaxAnswers))
	}
	if filter.ActionType != "" {
		query.Set("action_type", string(filter.ActionType))
	}
	if filter.ReviewLevel > 0 {
		query.Set("review_level", strconv.Itoa(filter.ReviewLevel))
	}
	return query
}

// Ensure Client implements the workbench contract at compile time.
var _ workbench.ReviewAPI = (*Client)(nil)
