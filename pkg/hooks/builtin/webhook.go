package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/pipevine/pipevine/pkg/hooks"
)

var ErrWebHookFailed = errors.New("webhook failed")

// WebHook forwards pipeline-level lifecycle events to remote listeners.
// Each event is sent as a JSON payload to every configured URL; all URLs
// must answer with a 2xx status or the hook fails. Error events are
// best-effort by the manager's error semantics.
type WebHook struct {
	URLs   []*url.URL
	Client *http.Client
}

type webhookPayload struct {
	Event    string `json:"event"`
	RunID    string `json:"run_id"`
	Pipeline string `json:"pipeline"`
	Error    string `json:"error,omitempty"`
}

func (h *WebHook) BeforePipelineRun(ctx context.Context, event *hooks.PipelineRun) error {
	return h.send(ctx, webhookPayload{
		Event:    "before_pipeline_run",
		RunID:    event.Params.RunID,
		Pipeline: event.Params.Pipeline,
	})
}

func (h *WebHook) AfterPipelineRun(ctx context.Context, event *hooks.PipelineRun) error {
	return h.send(ctx, webhookPayload{
		Event:    "after_pipeline_run",
		RunID:    event.Params.RunID,
		Pipeline: event.Params.Pipeline,
	})
}

func (h *WebHook) OnPipelineError(ctx context.Context, event *hooks.PipelineError) error {
	return h.send(ctx, webhookPayload{
		Event:    "on_pipeline_error",
		RunID:    event.Params.RunID,
		Pipeline: event.Params.Pipeline,
		Error:    event.Err.Error(),
	})
}

func (h *WebHook) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}

	return http.DefaultClient
}

func (h *WebHook) send(ctx context.Context, payload webhookPayload) error {
	if len(h.URLs) == 0 {
		return nil
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "unable to encode webhook payload")
	}

	for _, target := range h.URLs {
		err := h.post(ctx, target.String(), content)
		if err != nil {
			return err
		}
	}

	return nil
}

func (h *WebHook) post(ctx context.Context, target string, content []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(content))
	if err != nil {
		return errors.Wrapf(err, "unable to build webhook request for %s", target)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client().Do(req)
	if err != nil {
		return errors.Wrapf(ErrWebHookFailed, "%s: %v", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	ctype := resp.Header.Get("Content-Type")
	if strings.HasPrefix(ctype, "text/") || strings.Contains(ctype, "json") {
		body, _ := io.ReadAll(resp.Body)

		return errors.Wrapf(ErrWebHookFailed, "%s returned %d: %s", target, resp.StatusCode, string(body))
	}

	return errors.Wrapf(ErrWebHookFailed, "%s returned %d (Content-Type: %s)", target, resp.StatusCode, ctype)
}

var (
	_ hooks.BeforePipelineRunHook = (*WebHook)(nil)
	_ hooks.AfterPipelineRunHook  = (*WebHook)(nil)
	_ hooks.PipelineErrorHook     = (*WebHook)(nil)
)
