// Package monitoring raises webhook alerts when a run's counters indicate a
// degraded source or store.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/courtscout/internal/config"
	"github.com/sells-group/courtscout/internal/report"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertQueryFailureRate AlertType = "query_failure_rate"
	AlertNoResults        AlertType = "no_results"
	AlertImportFailures   AlertType = "import_failures"
)

// minQueriesForRate avoids alerting on rates from tiny runs.
const minQueriesForRate = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Variant   string         `json:"variant"`
	Region    string         `json:"region"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates run counters against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the counters of one run and returns any alerts.
func (a *Alerter) Evaluate(variant, region string, c report.Counters) []Alert {
	var alerts []Alert
	now := time.Now().UTC()
	newAlert := func(t AlertType, severity, msg string, details map[string]any) Alert {
		return Alert{
			Type: t, Variant: variant, Region: region, Severity: severity,
			Message: msg, Details: details, Timestamp: now,
		}
	}

	if c.QueriesIssued >= minQueriesForRate {
		rate := float64(c.QueriesFailed) / float64(c.QueriesIssued)
		if rate > a.cfg.FailureRateThreshold {
			alerts = append(alerts, newAlert(AlertQueryFailureRate, "high",
				fmt.Sprintf("%s %s: query failure rate %.1f%% exceeds threshold %.1f%% (%d of %d failed)",
					variant, region, rate*100, a.cfg.FailureRateThreshold*100, c.QueriesFailed, c.QueriesIssued),
				map[string]any{
					"failure_rate": rate,
					"threshold":    a.cfg.FailureRateThreshold,
					"failed":       c.QueriesFailed,
					"issued":       c.QueriesIssued,
				}))
		}
	}

	// Every successful query came back empty.
	if c.QueriesIssued > c.QueriesFailed && c.RawResults == 0 {
		alerts = append(alerts, newAlert(AlertNoResults, "medium",
			fmt.Sprintf("%s %s: %d queries returned no results", variant, region, c.QueriesIssued-c.QueriesFailed),
			map[string]any{"issued": c.QueriesIssued}))
	}

	if c.ImportsFailed > 0 {
		alerts = append(alerts, newAlert(AlertImportFailures, "high",
			fmt.Sprintf("%s %s: %d of %d imports failed", variant, region, c.ImportsFailed, c.ImportsFailed+c.ImportsSucceeded),
			map[string]any{
				"failed":    c.ImportsFailed,
				"succeeded": c.ImportsSucceeded,
			}))
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// Check evaluates the counters, logs every alert and sends them.
func (a *Alerter) Check(ctx context.Context, variant, region string, c report.Counters) []Alert {
	alerts := a.Evaluate(variant, region, c)
	for _, al := range alerts {
		zap.L().Warn("monitoring: alert", zap.String("type", string(al.Type)), zap.String("message", al.Message))
	}
	a.SendAlerts(ctx, alerts)
	return alerts
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
