package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mishbel44/ortp-botik/internal/shared/errors"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL, "test-token", "ORTP", logger.NewLogger()), server
}

func TestGetPrioritiesFiltersToSupportedLevels(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/priority", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"id": "1", "name": "Highest"},
			{"id": "2", "name": "High"},
			{"id": "3", "name": "Medium"},
			{"id": "4", "name": "Low"},
			{"id": "5", "name": "Lowest"},
		})
	}))

	priorities, err := client.GetPriorities(context.Background())
	require.NoError(t, err)
	require.Len(t, priorities, 3)
	assert.Equal(t, "High", priorities[0].Name)
	assert.Equal(t, "Low", priorities[2].Name)
}

func TestCreateIssueSendsProjectAndReturnsKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)

		var payload struct {
			Fields struct {
				Project   map[string]string `json:"project"`
				Summary   string            `json:"summary"`
				IssueType map[string]string `json:"issuetype"`
				Priority  map[string]string `json:"priority"`
			} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ORTP", payload.Fields.Project["key"])
		assert.Equal(t, "Task", payload.Fields.IssueType["name"])
		assert.Equal(t, "2", payload.Fields.Priority["id"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "ORTP-42"})
	}))

	key, err := client.CreateIssue(context.Background(), "Сломался принтер", "Описание", "2")
	require.NoError(t, err)
	assert.Equal(t, "ORTP-42", key)
}

func TestGetIssueDetailsMissingIssue(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	details, err := client.GetIssueDetails(context.Background(), "ORTP-404")
	require.NoError(t, err)
	assert.Nil(t, details)
}

func TestGetIssueDetailsUnassigned(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"fields": map[string]interface{}{
				"summary":  "Сломался принтер",
				"status":   map[string]string{"name": "In Progress"},
				"priority": map[string]string{"name": "High"},
				"assignee": nil,
			},
		})
	}))

	details, err := client.GetIssueDetails(context.Background(), "ORTP-1")
	require.NoError(t, err)
	require.NotNil(t, details)
	assert.Equal(t, "In Progress", details.Status)
	assert.Equal(t, "Не назначен", details.Assignee)
}

func TestAddCommentRefusesClosedIssue(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"fields": map[string]interface{}{
					"summary": "x",
					"status":  map[string]string{"name": "Done"},
				},
			})
			return
		}
		t.Fatal("comment endpoint must not be called for a closed issue")
	}))

	err := client.AddComment(context.Background(), "ORTP-1", "привет")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIssueClosed))
}

func TestAddCommentForbidden(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"fields": map[string]interface{}{
					"summary": "x",
					"status":  map[string]string{"name": "In Progress"},
				},
			})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))

	err := client.AddComment(context.Background(), "ORTP-1", "привет")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbiddenError(err))
	assert.False(t, errors.Is(err, ErrIssueClosed))
}

func TestAddCommentSucceeds(t *testing.T) {
	commented := false
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"fields": map[string]interface{}{
					"summary": "x",
					"status":  map[string]string{"name": "To Do"},
				},
			})
			return
		}
		commented = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.AddComment(context.Background(), "ORTP-1", "привет"))
	assert.True(t, commented)
}
