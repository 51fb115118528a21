package workflow

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"chess-scout/config"
)

var (
	ErrMissingToken     = errors.New("GITHUB_TOKEN environment variable is not set")
	ErrTimeout          = errors.New("timeout waiting for workflow to complete")
	ErrRunFailed        = errors.New("workflow run failed")
	ErrArtifactNotFound = errors.New("artifact not found or couldn't extract JSON")
)

// Läufe, die so viel vor dem Dispatch angelegt wurden, gehören nicht zu uns.
const clockSkew = 30 * time.Second

// Run ist ein Workflow-Lauf, wie ihn die Actions-API liefert.
type Run struct {
	ID         int64     `json:"id"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// Artifact ist ein hochgeladenes Artefakt eines Laufs.
type Artifact struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	ArchiveDownloadURL string `json:"archive_download_url"`
}

// Client löst Workflows in GitHub Actions aus und holt deren JSON-Ergebnis ab.
type Client struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Client
}

// NewClient erstellt einen Client. Ohne Token ist kein Aufruf möglich.
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.GitHubToken) == "" {
		return nil, ErrMissingToken
	}
	return &Client{
		Config: cfg,
		Logger: logger,
		HTTP:   &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) repoURL(format string, args ...any) string {
	base := strings.TrimRight(c.Config.GitHubAPIURL, "/")
	return fmt.Sprintf("%s/repos/%s/%s", base, c.Config.GitHubOwner, c.Config.GitHubRepo) + fmt.Sprintf(format, args...)
}

func (c *Client) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.Config.GitHubToken)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.HTTP.Do(req)
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Dispatch startet den Workflow auf dem konfigurierten Ref.
func (c *Client) Dispatch(ctx context.Context, workflow string, inputs map[string]string) error {
	payload := map[string]any{"ref": c.Config.GitHubRef, "inputs": inputs}
	resp, err := c.do(ctx, http.MethodPost, c.repoURL("/actions/workflows/%s/dispatches", workflow), payload)
	if err != nil {
		return fmt.Errorf("trigger workflow: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("trigger workflow: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

// LatestRun liefert den jüngsten Lauf des Workflows oder nil, wenn es keinen gibt.
func (c *Client) LatestRun(ctx context.Context, workflow string) (*Run, error) {
	var out struct {
		WorkflowRuns []Run `json:"workflow_runs"`
	}
	if err := c.getJSON(ctx, c.repoURL("/actions/workflows/%s/runs?per_page=1", workflow), &out); err != nil {
		return nil, fmt.Errorf("get workflow runs: %w", err)
	}
	if len(out.WorkflowRuns) == 0 {
		return nil, nil
	}
	return &out.WorkflowRuns[0], nil
}

// WaitForRun fragt den jüngsten Lauf in festen Abständen ab, bis er abgeschlossen ist
// oder die Maximaldauer erreicht wird. Läufe, die deutlich vor since angelegt
// wurden, zählen nicht.
func (c *Client) WaitForRun(ctx context.Context, workflow string, since time.Time) (*Run, error) {
	cfg := c.Config
	log := c.Logger.With(zap.String("workflow", workflow))

	if err := sleep(ctx, cfg.WorkflowStartDelay); err != nil {
		return nil, err
	}

	interval := cfg.WorkflowPollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	start := time.Now()
	for time.Since(start) < cfg.WorkflowMaxWait {
		elapsed := time.Since(start).Round(time.Second)
		run, err := c.LatestRun(ctx, workflow)
		if err != nil {
			return nil, err
		}
		switch {
		case run == nil, !run.CreatedAt.IsZero() && run.CreatedAt.Before(since.Add(-clockSkew)):
			log.Debug("Noch kein Lauf sichtbar", zap.Duration("elapsed", elapsed))
		case run.Status == "completed":
			if run.Conclusion == "success" {
				log.Info("Workflow erfolgreich abgeschlossen", zap.Int64("run_id", run.ID))
				return run, nil
			}
			return run, fmt.Errorf("%w with conclusion: %s", ErrRunFailed, run.Conclusion)
		default:
			log.Info("Workflow läuft", zap.String("status", run.Status), zap.Duration("elapsed", elapsed))
		}
		if err := sleep(ctx, interval); err != nil {
			return nil, err
		}
	}
	return nil, ErrTimeout
}

// Artifacts listet die Artefakte eines Laufs.
func (c *Client) Artifacts(ctx context.Context, runID int64) ([]Artifact, error) {
	var out struct {
		Artifacts []Artifact `json:"artifacts"`
	}
	if err := c.getJSON(ctx, c.repoURL("/actions/runs/%d/artifacts", runID), &out); err != nil {
		return nil, fmt.Errorf("get artifacts: %w", err)
	}
	return out.Artifacts, nil
}

// DownloadJSON lädt das benannte Artefakt und gibt dessen output.json zurück.
func (c *Client) DownloadJSON(ctx context.Context, runID int64, name string) (json.RawMessage, error) {
	artifacts, err := c.Artifacts(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		if a.Name != name || a.ArchiveDownloadURL == "" {
			continue
		}
		c.Logger.Info("Lade Artefakt herunter", zap.String("artifact", name), zap.Int64("run_id", runID))
		resp, err := c.do(ctx, http.MethodGet, a.ArchiveDownloadURL, nil)
		if err != nil {
			return nil, fmt.Errorf("download artifact: %w", err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("download artifact: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("download artifact: status %d", resp.StatusCode)
		}
		return ExtractJSON(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, name)
}

// ExtractJSON liest output.json aus einem Artefakt-Zip, ersatzweise die erste
// andere gültige JSON-Datei.
func ExtractJSON(zipData []byte) (json.RawMessage, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("open artifact zip: %w", err)
	}
	match := []func(string) bool{
		func(name string) bool { return strings.HasSuffix(name, "output.json") },
		func(name string) bool { return strings.HasSuffix(name, ".json") },
	}
	for _, m := range match {
		for _, f := range zr.File {
			if !m(f.Name) {
				continue
			}
			data, err := readZipFile(f)
			if err != nil || !json.Valid(data) {
				continue
			}
			return json.RawMessage(data), nil
		}
	}
	return nil, ErrArtifactNotFound
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Trigger startet einen Workflow, wartet auf das Ende und holt das Artefakt ab.
func (c *Client) Trigger(ctx context.Context, workflow string, inputs map[string]string, artifact string) (json.RawMessage, error) {
	since := time.Now()
	c.Logger.Info("Starte Workflow", zap.String("workflow", workflow))
	if err := c.Dispatch(ctx, workflow, inputs); err != nil {
		return nil, err
	}
	run, err := c.WaitForRun(ctx, workflow, since)
	if err != nil {
		return nil, err
	}
	return c.DownloadJSON(ctx, run.ID, artifact)
}

// TriggerScrape lässt den Scraper für einen Spieler in GitHub Actions laufen.
func (c *Client) TriggerScrape(ctx context.Context, playerID string) (json.RawMessage, error) {
	return c.Trigger(ctx, c.Config.ScrapeWorkflow, map[string]string{"player_id": playerID}, "chess-games-"+playerID)
}

// TriggerImport lässt den Text-Import in GitHub Actions laufen.
func (c *Client) TriggerImport(ctx context.Context, text string) (json.RawMessage, error) {
	return c.Trigger(ctx, c.Config.ImportWorkflow, map[string]string{"text": text}, c.Config.ImportArtifact)
}
