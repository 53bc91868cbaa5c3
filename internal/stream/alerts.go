package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AlertSeverity mirrors the teacher's string severity levels, kept as
// strings (rather than an enum) so webhook payloads need no translation.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is one orchestrator-lifecycle event: a backpressure level change,
// a circuit-breaker trip, a memory-pressure refusal, or a batch
// verification failure.
type Alert struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
	Kind      string        `json:"kind"`
	Message   string        `json:"message"`
}

// WebhookEndpoint is a registered webhook receiver, same shape as the
// teacher's heuristics.WebhookEndpoint.
type WebhookEndpoint struct {
	Name        string
	URL         string
	MinSeverity AlertSeverity
}

var severityRank = map[AlertSeverity]int{
	SeverityInfo: 0, SeverityWarning: 1, SeverityCritical: 2,
}

// AlertManager fans orchestrator-lifecycle alerts out to an in-memory
// history ring, optional webhooks, and an optional websocket Hub. Ported
// from the teacher's heuristics.AlertManager.
type AlertManager struct {
	mu         sync.RWMutex
	history    []Alert
	maxHistory int
	webhooks   []WebhookEndpoint
	httpClient *http.Client
	hub        *Hub
}

// NewAlertManager returns an AlertManager with the given history
// capacity. hub may be nil if no websocket transport is wired.
func NewAlertManager(maxHistory int, hub *Hub) *AlertManager {
	if maxHistory <= 0 {
		maxHistory = 1000
	}
	return &AlertManager{
		maxHistory: maxHistory,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		hub:        hub,
	}
}

// RegisterWebhook adds an endpoint receiving alerts at or above minSeverity.
func (am *AlertManager) RegisterWebhook(name, url string, minSeverity AlertSeverity) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.webhooks = append(am.webhooks, WebhookEndpoint{Name: name, URL: url, MinSeverity: minSeverity})
}

// Emit records, broadcasts, and webhook-delivers an alert.
func (am *AlertManager) Emit(severity AlertSeverity, kind, message string) {
	alert := Alert{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Severity:  severity,
		Kind:      kind,
		Message:   message,
	}

	am.mu.Lock()
	am.history = append(am.history, alert)
	if len(am.history) > am.maxHistory {
		am.history = am.history[len(am.history)-am.maxHistory:]
	}
	webhooks := make([]WebhookEndpoint, len(am.webhooks))
	copy(webhooks, am.webhooks)
	am.mu.Unlock()

	if am.hub != nil {
		if payload, err := json.Marshal(alert); err == nil {
			am.hub.broadcast <- payload
		}
	}

	for _, wh := range webhooks {
		if severityRank[alert.Severity] < severityRank[wh.MinSeverity] {
			continue
		}
		go am.sendWebhook(wh, alert)
	}

	log.Printf("[Stream] [%s] %s: %s", alert.Severity, alert.Kind, alert.Message)
}

func (am *AlertManager) sendWebhook(wh WebhookEndpoint, alert Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("[Stream] failed to marshal alert for %s: %v", wh.Name, err)
		return
	}
	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(payload))
	if err != nil {
		log.Printf("[Stream] failed to build webhook request for %s: %v", wh.Name, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := am.httpClient.Do(req)
	if err != nil {
		log.Printf("[Stream] webhook delivery to %s failed: %v", wh.Name, err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		log.Printf("[Stream] webhook %s returned status %s", wh.Name, fmt.Sprint(resp.StatusCode))
	}
}

// RecentAlerts returns the most recent limit alerts (or all of them if
// limit<=0), newest first.
func (am *AlertManager) RecentAlerts(limit int) []Alert {
	am.mu.RLock()
	defer am.mu.RUnlock()

	if limit <= 0 || limit > len(am.history) {
		limit = len(am.history)
	}
	out := make([]Alert, limit)
	for i := 0; i < limit; i++ {
		out[i] = am.history[len(am.history)-1-i]
	}
	return out
}
