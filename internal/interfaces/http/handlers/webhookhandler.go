// Package handlers contains the gin handlers of the bot's HTTP surface.
package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	appNotification "github.com/mishbel44/ortp-botik/internal/application/notification"
	domainNotification "github.com/mishbel44/ortp-botik/internal/domain/notification"
	"github.com/mishbel44/ortp-botik/internal/shared/logger"
)

// webhookPayload is the shape Jira posts on tracked issue changes.
type webhookPayload struct {
	Event    string `json:"event"`
	IssueKey string `json:"issue_key"`
	Status   struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"status"`
	Initiator            string `json:"initiator"`
	InitiatorDisplayName string `json:"initiator_displayName"`
	Comment              string `json:"comment"`
	Assignee             struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"assignee"`
}

// WebhookHandler receives Jira change events and feeds them into the
// notification pipeline.
type WebhookHandler struct {
	pipeline *appNotification.Pipeline
	secret   string
	logger   logger.Interface
}

func NewWebhookHandler(pipeline *appNotification.Pipeline, secret string, log logger.Interface) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		secret:   secret,
		logger:   log,
	}
}

// Handle verifies the request signature when one is present and hands
// the event to the pipeline. Payloads that reference nothing the bot
// tracks are acknowledged with 200 so Jira does not retry them.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	if signature := c.GetHeader("X-Hub-Signature"); signature != "" {
		if !h.verifySignature(signature, body) {
			h.logger.Warnw("webhook signature mismatch", "client_ip", c.ClientIP())
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		// Acknowledged rather than rejected: a 4xx would make the tracker
		// treat the delivery as permanently failed and retry or disable
		// the hook. Junk payloads are dropped.
		h.logger.Warnw("malformed webhook payload", "error", err, "body_length", len(body))
		c.Status(http.StatusOK)
		return
	}

	event := &appNotification.Event{
		Type:                 domainNotification.EventType(payload.Event),
		IssueKey:             payload.IssueKey,
		StatusFrom:           payload.Status.From,
		StatusTo:             payload.Status.To,
		Initiator:            payload.Initiator,
		InitiatorDisplayName: payload.InitiatorDisplayName,
		Comment:              payload.Comment,
		AssigneeFrom:         payload.Assignee.From,
		AssigneeTo:           payload.Assignee.To,
	}

	if err := h.pipeline.HandleEvent(c.Request.Context(), event); err != nil {
		h.logger.Errorw("webhook processing failed", "issue_key", payload.IssueKey, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Status(http.StatusOK)
}

func (h *WebhookHandler) verifySignature(header string, body []byte) bool {
	method, signature, found := strings.Cut(header, "=")
	if !found || method != "sha256" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
