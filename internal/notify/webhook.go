// Package notify delivers study plan notifications to an external webhook.
package notify

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/studyloop/mentor/internal/domain"
)

const defaultTimeout = 5 * time.Second

// WebhookNotifier posts created study plans to a configured URL. Delivery
// is fire-and-forget: failures are logged and never surface to the caller.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a notifier for the given webhook URL.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: defaultTimeout},
	}
}

type planNotification struct {
	Event string            `json:"event"`
	Email string            `json:"email,omitempty"`
	Plan  *domain.StudyPlan `json:"plan"`
}

// NotifyPlan sends the plan asynchronously. It returns immediately; the
// request runs in its own goroutine with the client timeout as the bound.
func (n *WebhookNotifier) NotifyPlan(plan *domain.StudyPlan, email string) {
	if n == nil || n.url == "" {
		return
	}

	go n.deliver(planNotification{Event: "plan.created", Email: email, Plan: plan})
}

func (n *WebhookNotifier) deliver(payload planNotification) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("notify: failed to encode plan notification: %v", err)
		return
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("notify: webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("notify: webhook returned status %d", resp.StatusCode)
	}
}
