package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// remoteEmbedder talks to a remote embedding server over HTTP. It is tried
// first in the fallback ladder: an endpoint that fails its health probe at
// construction is passed over for local (when a binary is configured) or
// hash, and a failed call afterwards yields hash vectors for that call.
type remoteEmbedder struct {
	endpoint string
	model    string
	dim      int
	client   *http.Client
}

func newRemoteEmbedder(endpoint, model string, dim int) *remoteEmbedder {
	return &remoteEmbedder{
		endpoint: endpoint,
		model:    model,
		dim:      dim,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Mode  string   `json:"mode"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (r *remoteEmbedder) Dimension() int { return r.dim }

func (r *remoteEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	out, err := r.EmbedBatch(ctx, []string{text}, mode)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (r *remoteEmbedder) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts, Mode: string(mode)})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote embed server returned status %d", resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("remote embed server returned %d vectors for %d inputs", len(parsed.Embeddings), len(texts))
	}
	return parsed.Embeddings, nil
}

func (r *remoteEmbedder) WarmUp(ctx context.Context) error {
	_, err := r.Embed(ctx, "warmup", ModeQuery)
	return err
}

func (r *remoteEmbedder) Status() Status {
	return Status{Method: MethodRemote, Model: r.model, Endpoint: r.endpoint}
}

func (r *remoteEmbedder) Close() error { return nil }

// probeRemote does a short health check against endpoint so the factory can
// decide whether to try this tier at all before handing it to callers.
func probeRemote(endpoint string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
