package prooflog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPAnchorStore is the client side of AnchorServer: an AnchorStore
// that forwards both operations to a remote gateway. Timeout policy
// belongs to the supplied http.Client (or the caller's context);
// transport errors surface as counter-service failures rather than
// hanging.
type HTTPAnchorStore struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// OpenHTTPAnchorStore builds a client for the gateway at baseURL.
func OpenHTTPAnchorStore(baseURL, token string) *HTTPAnchorStore {
	return &HTTPAnchorStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{},
	}
}

// NextCounter requests the next counter value from the gateway.
func (s *HTTPAnchorStore) NextCounter(ctx context.Context, runID string) (int64, error) {
	var resp counterResponse
	err := s.do(ctx, http.MethodPost, "/v1/next-counter", counterRequest{RunID: runID}, &resp)
	if err != nil {
		return 0, fmt.Errorf("anchor counter: %w", err)
	}
	return resp.Counter, nil
}

// AnchorRoot submits the anchor write; a 409 from the gateway comes
// back as ErrAnchorConflict.
func (s *HTTPAnchorStore) AnchorRoot(ctx context.Context, runID string, counter int64, merkleRoot string, meta map[string]string) error {
	req := anchorRequest{RunID: runID, Counter: counter, MerkleRoot: merkleRoot, Meta: meta}
	if err := s.do(ctx, http.MethodPut, "/v1/anchor", req, nil); err != nil {
		return fmt.Errorf("anchor %s: %w", runID, err)
	}
	return nil
}

func (s *HTTPAnchorStore) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return ErrAnchorConflict
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("gateway returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
