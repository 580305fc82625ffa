// Package jira is a thin client for the Jira Server REST API v2,
// covering only what the bot needs: issue creation, lookups, comments
// and webhook registration.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

// ErrIssueClosed is returned when a comment is rejected because the
// issue already reached its terminal status.
var ErrIssueClosed = errors.NewForbiddenError("issue is closed for comments")

type Priority struct {
	ID   string
	Name string
}

type IssueDetails struct {
	Summary     string
	Description string
	Assignee    string
	Status      string
	Priority    string
	Created     string
	Updated     string
}

type Comment struct {
	Author string
	Body   string
}

type Client interface {
	// GetPriorities returns the priorities usable in the create flow,
	// filtered to high/medium/low.
	GetPriorities(ctx context.Context) ([]Priority, error)
	CreateIssue(ctx context.Context, summary, description, priorityID string) (string, error)
	// GetIssueDetails returns (nil, nil) when the issue does not exist.
	GetIssueDetails(ctx context.Context, issueKey string) (*IssueDetails, error)
	GetIssueComments(ctx context.Context, issueKey string) ([]Comment, error)
	// AddComment refuses with ErrIssueClosed when the issue is done and
	// with a forbidden error when Jira denies the write.
	AddComment(ctx context.Context, issueKey, body string) error
	RegisterWebhook(ctx context.Context, webhookURL, secret string) error
}

type HTTPClient struct {
	baseURL    string
	token      string
	projectKey string
	httpClient *http.Client
	logger     logger.Interface
}

func NewHTTPClient(baseURL, token, projectKey string, log logger.Interface) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		projectKey: projectKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     log,
	}
}

func (c *HTTPClient) doRequest(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira request failed: %w", err)
	}
	return resp, nil
}

func (c *HTTPClient) GetPriorities(ctx context.Context) ([]Priority, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/rest/api/2/priority", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from priority endpoint", resp.StatusCode)
	}

	var raw []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode priorities: %w", err)
	}

	var priorities []Priority
	for _, p := range raw {
		switch strings.ToLower(p.Name) {
		case "high", "medium", "low":
			priorities = append(priorities, Priority{ID: p.ID, Name: p.Name})
		}
	}
	return priorities, nil
}

func (c *HTTPClient) CreateIssue(ctx context.Context, summary, description, priorityID string) (string, error) {
	payload := map[string]interface{}{
		"fields": map[string]interface{}{
			"project":     map[string]string{"key": c.projectKey},
			"summary":     summary,
			"description": description,
			"issuetype":   map[string]string{"name": "Task"},
			"priority":    map[string]string{"id": priorityID},
		},
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/rest/api/2/issue", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create issue, status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode create issue response: %w", err)
	}
	return result.Key, nil
}

type issueFields struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Status      struct {
		Name string `json:"name"`
	} `json:"status"`
	Priority struct {
		Name string `json:"name"`
	} `json:"priority"`
	Assignee *struct {
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	Created string `json:"created"`
	Updated string `json:"updated"`
}

func (c *HTTPClient) GetIssueDetails(ctx context.Context, issueKey string) (*IssueDetails, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/rest/api/2/issue/"+issueKey, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching issue %s", resp.StatusCode, issueKey)
	}

	var raw struct {
		Fields issueFields `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode issue %s: %w", issueKey, err)
	}

	details := &IssueDetails{
		Summary:     raw.Fields.Summary,
		Description: raw.Fields.Description,
		Assignee:    "Не назначен",
		Status:      raw.Fields.Status.Name,
		Priority:    raw.Fields.Priority.Name,
		Created:     raw.Fields.Created,
		Updated:     raw.Fields.Updated,
	}
	if raw.Fields.Assignee != nil && raw.Fields.Assignee.DisplayName != "" {
		details.Assignee = raw.Fields.Assignee.DisplayName
	}
	return details, nil
}

func (c *HTTPClient) GetIssueComments(ctx context.Context, issueKey string) ([]Comment, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/rest/api/2/issue/"+issueKey+"/comment", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("issue not found", issueKey)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching comments for %s", resp.StatusCode, issueKey)
	}

	var raw struct {
		Comments []struct {
			Body   string `json:"body"`
			Author struct {
				DisplayName string `json:"displayName"`
			} `json:"author"`
		} `json:"comments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode comments for %s: %w", issueKey, err)
	}

	comments := make([]Comment, 0, len(raw.Comments))
	for _, cm := range raw.Comments {
		comments = append(comments, Comment{Author: cm.Author.DisplayName, Body: cm.Body})
	}
	return comments, nil
}

func (c *HTTPClient) AddComment(ctx context.Context, issueKey, body string) error {
	details, err := c.GetIssueDetails(ctx, issueKey)
	if err != nil {
		return err
	}
	if details == nil {
		return errors.NewNotFoundError("issue not found", issueKey)
	}
	switch strings.ToLower(details.Status) {
	case "done", "готово":
		return ErrIssueClosed
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/rest/api/2/issue/"+issueKey+"/comment", map[string]string{"body": body})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return errors.NewForbiddenError("no permission to comment on issue", issueKey)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to add comment, status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// RegisterWebhook subscribes to issue updates and new comments for the
// project. Registration failures are not fatal for the bot, so the caller
// decides whether to treat the error as a warning.
func (c *HTTPClient) RegisterWebhook(ctx context.Context, webhookURL, secret string) error {
	payload := map[string]interface{}{
		"name":    "Telegram Bot Status Change Webhook",
		"url":     webhookURL,
		"enabled": true,
		"events":  []string{"jira:issue_updated", "comment_created"},
		"filters": map[string]string{
			"issue-related-events-section": "project = " + c.projectKey,
		},
		"excludeBody": false,
		"secret":      secret,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/rest/webhooks/1.0/webhook", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	c.logger.Infow("webhook registration response", "status", resp.StatusCode, "body", string(body))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to register webhook, status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
