package prooflog

// Anchor Backend Comparison
//
// This package provides four anchor backends behind the AnchorStore
// interface, selected by configuration at process start:
//
// 1. Local (anchor_local.go) - DEVELOPMENT ONLY
//    - Single JSON file with per-run counters and anchor history
//    - Read-increment-write counter, unconditional anchor append
//    - No protection against concurrent callers, overwrite, or replay
//
// 2. DynamoDB (anchor_dynamo.go) - PRODUCTION
//    - Atomic ADD counter update; strictly increasing, gapless
//      counters even under concurrent callers across processes
//    - Conditional put: first write or exact resubmission only;
//      anything else is ErrAnchorConflict
//
// 3. Redis (anchor_redis.go) - PRODUCTION ALTERNATIVE
//    - INCR counters; conditional write runs as an atomic Lua script
//    - Same accept/reject policy as the DynamoDB backend
//
// 4. HTTP gateway (anchor_http.go / anchor_server.go)
//    - Client-side AnchorStore forwarding to an AnchorServer that
//      fronts one of the other backends
//    - Intended for deployments where anchoring must pass through a
//      hardened boundary (e.g. one admitting only attested callers)
//
// Usage:
//
//   cfg := prooflog.LoadConfig() // PROOFLOG_ANCHOR_BACKEND=local|dynamo|redis|http
//   anchors, err := prooflog.OpenAnchorStore(ctx, cfg)
//   if err != nil {
//       log.Fatal(err)
//   }
//
//   m, err := prooflog.Finalize(store, cfg.ArtifactDir, runID)
//   if err != nil {
//       log.Fatal(err)
//   }
//   counter, err := anchors.NextCounter(ctx, runID)
//   if err != nil {
//       log.Fatal(err)
//   }
//   err = anchors.AnchorRoot(ctx, runID, counter, m.MerkleRoot, nil)
//   if errors.Is(err, prooflog.ErrAnchorConflict) {
//       // Do not retry with a fresh counter automatically: a conflict
//       // can be the first visible sign of an attempted rollback.
//   }
