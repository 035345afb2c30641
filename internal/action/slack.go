package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cenkalti/backoff/v5"

	"github.com/joseignaciorc/great-expectations/internal/config"
	"github.com/joseignaciorc/great-expectations/internal/ir"
)

// Slack notification outcomes reported in the action result.
const (
	SlackSent        = "Slack notification succeeded."
	SlackNotRequired = "none required"
)

// slackNotification posts a rendered summary to a Slack webhook.
type slackNotification struct {
	webhook    string
	notifyOn   string
	notifyWith config.NameList
	renderer   *SlackRenderer
	client     *http.Client
	newBackOff func() backoff.BackOff
	maxTries   uint
	logger     *slog.Logger
}

func newSlackNotification(params map[string]any, deps Deps) (Action, error) {
	webhook, err := stringParam(params, "slack_webhook")
	if err != nil {
		return nil, err
	}
	if webhook == "" {
		return nil, fmt.Errorf("slack_webhook is required")
	}
	notifyOn, err := stringParam(params, "notify_on")
	if err != nil {
		return nil, err
	}
	switch notifyOn {
	case "":
		notifyOn = config.NotifyOnAll
	case config.NotifyOnAll, config.NotifyOnSuccess, config.NotifyOnFailure:
	default:
		return nil, fmt.Errorf("invalid notify_on %q", notifyOn)
	}
	notifyWith, err := namesParam(params, "notify_with")
	if err != nil {
		return nil, err
	}
	if r, ok := params["renderer"].(map[string]any); ok {
		if cls, _ := r["class_name"].(string); cls != "" && cls != config.SlackRendererClass {
			return nil, fmt.Errorf("unsupported renderer %q", cls)
		}
	}

	return &slackNotification{
		webhook:    webhook,
		notifyOn:   notifyOn,
		notifyWith: notifyWith,
		renderer:   &SlackRenderer{},
		client:     deps.HTTPClient,
		newBackOff: deps.NewBackOff,
		maxTries:   deps.MaxTries,
		logger:     deps.Logger,
	}, nil
}

func (a *slackNotification) shouldNotify(success bool) bool {
	switch a.notifyOn {
	case config.NotifyOnSuccess:
		return success
	case config.NotifyOnFailure:
		return !success
	default:
		return true
	}
}

func (a *slackNotification) Run(ctx context.Context, in *Input) (Result, error) {
	out := Result{"class": config.ActionSlackNotification}
	if !a.shouldNotify(in.Result.Success) {
		out["slack_notification_result"] = SlackNotRequired
		return out, nil
	}

	payload, err := json.Marshal(a.renderer.Render(in, docLinks(in.Prior, a.notifyWith)))
	if err != nil {
		return nil, fmt.Errorf("render slack payload: %w", err)
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := a.post(ctx, payload)
		if err != nil {
			a.logger.Debug("slack delivery failed", "attempt", attempt, "error", err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(a.newBackOff()), backoff.WithMaxTries(a.maxTries))
	if err != nil {
		return nil, fmt.Errorf("send slack notification: %w", err)
	}

	out["slack_notification_result"] = SlackSent
	return out, nil
}

// post delivers one attempt. Client errors other than 408 and 429 are
// permanent.
func (a *slackNotification) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.webhook, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err = fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	switch {
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return err
	case resp.StatusCode >= 500:
		return err
	default:
		return backoff.Permanent(err)
	}
}

// docLinks collects data docs page URLs produced earlier in the action
// list, restricted to the selected sites.
func docLinks(prior map[string]Result, sites config.NameList) map[string]string {
	links := make(map[string]string)
	for _, res := range prior {
		if res.Class() != config.ActionUpdateDataDocs {
			continue
		}
		for site, v := range res {
			url, ok := v.(string)
			if IsReservedResultKey(site) || !ok || !sites.Contains(site) {
				continue
			}
			links[site] = url
		}
	}
	return links
}

// SlackRenderer builds Slack webhook payloads from validation results.
type SlackRenderer struct{}

// Render returns the webhook payload for one validation. docLinks maps
// site names to page URLs.
func (SlackRenderer) Render(in *Input, docLinks map[string]string) map[string]any {
	r := in.Result
	status := "Failed :x:"
	if r.Success {
		status = "Success :tada:"
	}
	asset, _ := r.Meta.BatchDefinition["data_asset_name"].(string)
	if asset == "" {
		asset = "__no_data_asset_name__"
	}
	suite := in.Identifier.ExpectationSuite.Name

	summary := fmt.Sprintf(
		"*Batch Validation Status*: %s\n*Expectation suite name*: `%s`\n*Data Asset Name*: `%s`\n*Run ID*: `%s`\n*Batch ID*: `%s`\n*Summary*: *%d* of *%d* expectations were met",
		status, suite, asset, in.Identifier.RunID.RunName, in.Identifier.BatchIdentifier,
		r.Statistics.SuccessfulExpectations, r.Statistics.EvaluatedExpectations,
	)
	if in.CheckpointName != "" {
		summary = fmt.Sprintf("*Checkpoint*: `%s`\n", in.CheckpointName) + summary
	}

	blocks := []any{section(summary)}
	for _, site := range ir.SortedKeys(docLinks) {
		blocks = append(blocks, section(fmt.Sprintf(
			"*DataDocs* can be found here: `%s` \n (Please copy and paste link into a browser to view)",
			docLinks[site],
		)))
	}
	blocks = append(blocks,
		map[string]any{"type": "divider"},
		map[string]any{
			"type": "context",
			"elements": []any{map[string]any{
				"type": "mrkdwn",
				"text": "Learn how to review validation results in Data Docs: https://docs.greatexpectations.io/docs/terms/data_docs",
			}},
		},
	)

	return map[string]any{
		"text":   fmt.Sprintf("%s: %s", suite, status),
		"blocks": blocks,
	}
}

func section(text string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": text},
	}
}
