package prooflog

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// AnchorServer exposes an AnchorStore over HTTP so that anchoring can
// be gated behind a hardened service boundary. In production the
// deployment in front of this handler is expected to admit only
// attested callers; the bearer token here is the hand-off point for
// that gate, not a replacement for it.
//
// Endpoints:
//
//	POST /v1/next-counter   {"run_id": ...}                 -> {"counter": n}
//	PUT  /v1/anchor         {"run_id","counter","merkle_root","meta"} -> 204
//
// A rejected conditional write maps to 409 Conflict.
type AnchorServer struct {
	Store AnchorStore
	Token string // optional; empty disables the check
	Log   *slog.Logger
}

type counterRequest struct {
	RunID string `json:"run_id"`
}

type counterResponse struct {
	Counter int64 `json:"counter"`
}

type anchorRequest struct {
	RunID      string            `json:"run_id"`
	Counter    int64             `json:"counter"`
	MerkleRoot string            `json:"merkle_root"`
	Meta       map[string]string `json:"meta,omitempty"`
}

func (s *AnchorServer) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// ServeHTTP routes gateway requests.
func (s *AnchorServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	switch r.URL.Path {
	case "/v1/next-counter":
		s.handleNextCounter(w, r)
	case "/v1/anchor":
		s.handleAnchor(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (s *AnchorServer) authorized(r *http.Request) bool {
	if s.Token == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) == 1
}

func (s *AnchorServer) handleNextCounter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req counterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RunID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	counter, err := s.Store.NextCounter(r.Context(), req.RunID)
	if err != nil {
		s.logger().Error("next counter failed", "run_id", req.RunID, "err", err)
		http.Error(w, "counter service failure", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(counterResponse{Counter: counter})
}

func (s *AnchorServer) handleAnchor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req anchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RunID == "" || req.MerkleRoot == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	err := s.Store.AnchorRoot(r.Context(), req.RunID, req.Counter, req.MerkleRoot, req.Meta)
	if errors.Is(err, ErrAnchorConflict) {
		http.Error(w, "anchor conflict", http.StatusConflict)
		return
	}
	if err != nil {
		s.logger().Error("anchor failed", "run_id", req.RunID, "counter", req.Counter, "err", err)
		http.Error(w, "anchor store failure", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
