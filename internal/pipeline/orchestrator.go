package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hakim/sshenum/internal/models"
	"github.com/hakim/sshenum/internal/oracle"
	"github.com/hakim/sshenum/internal/probe"
	"github.com/hakim/sshenum/internal/retry"
	"github.com/hakim/sshenum/internal/storage"
	"github.com/hakim/sshenum/internal/wordlist"
	"github.com/spf13/afero"
)

// StoreInterface is the minimal bbolt contract required by the orchestrator.
// Using an interface keeps the package testable without a real database.
type StoreInterface interface {
	FindingStore
	SaveScan(meta *models.ScanMeta) error
	UpdateScanStatus(id string, status models.ScanStatus) error
}

// ScanRequest controls how RunScan behaves for a single run.
type ScanRequest struct {
	// Targets are the endpoints to enumerate. Required.
	Targets []models.Target

	// Config is the immutable per-scan configuration.
	Config models.ScanConfig

	// UserFile is read from FS when Users is empty.
	UserFile string
	FS       afero.Fs

	// Users, when non-empty, is used instead of UserFile.
	Users []string

	// Workers bounds how many targets are scanned in parallel.
	Workers int

	// Scope, when non-nil, must admit every target before anything is sent.
	Scope *ScopeConfig

	// ScanDirBase, when set, gets a fresh {label}_{timestamp} scan directory.
	ScanDirBase string
	Label       string

	// Transport overrides the x/crypto/ssh transport built from Config.Proxies.
	Transport probe.Transport

	// Wait overrides the real-time backoff sleep.
	Wait retry.WaitFunc
}

// ScanResult summarises what happened after RunScan returns.
type ScanResult struct {
	Meta    *models.ScanMeta
	Targets []*TargetResult
	Users   []string
	Elapsed time.Duration
}

// FoundCount is the number of found usernames across all targets.
func (r *ScanResult) FoundCount() int {
	n := 0
	for _, t := range r.Targets {
		n += len(t.Summary.Found)
	}
	return n
}

// RunScan validates the request, loads the username set, records the scan
// and runs every target pipeline.
//
// Configuration problems (out-of-scope target, unreadable or empty username
// source, unknown oracle, unusable proxy chain) are returned before any
// connection is made. Once probing starts, per-target failures are reported
// through the sink and the scan record instead.
func RunScan(ctx context.Context, req ScanRequest, store StoreInterface, sink EventSink) (*ScanResult, error) {
	// ── 1. Validate required inputs ───────────────────────────────────────────
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("pipeline: at least one target is required")
	}
	if store == nil {
		return nil, fmt.Errorf("pipeline: store must not be nil")
	}
	if sink == nil {
		sink = discardSink{}
	}
	cfg := req.Config.WithDefaults()

	if req.Scope != nil {
		for _, t := range req.Targets {
			if err := req.Scope.ValidateTarget(t); err != nil {
				return nil, err
			}
		}
	}

	// ── 2. Build the strategy ─────────────────────────────────────────────────
	strategy, rc, err := BuildStrategy(cfg, req.Transport, req.Wait)
	if err != nil {
		return nil, err
	}

	// ── 3. Load the username set before any probing ───────────────────────────
	raw := req.Users
	source := "inline"
	if len(raw) == 0 {
		fs := req.FS
		if fs == nil {
			fs = afero.NewOsFs()
		}
		raw, err = wordlist.Load(fs, req.UserFile)
		if err != nil {
			return nil, fmt.Errorf("pipeline: loading usernames: %w", err)
		}
		source = req.UserFile
	}
	users := strategy.Usernames(raw)
	if len(users) == 0 {
		return nil, fmt.Errorf("pipeline: loading usernames: %w", wordlist.ErrEmpty)
	}

	// ── 4. Create the scan record and directory ───────────────────────────────
	meta := models.NewScanMeta(req.Targets, cfg)
	meta.UserSource = source
	meta.UserCount = len(users)
	meta.Status = models.StatusRunning

	if req.ScanDirBase != "" {
		fs := req.FS
		if fs == nil {
			fs = afero.NewOsFs()
		}
		label := req.Label
		if label == "" {
			label = req.Targets[0].Host
		}
		dir, err := storage.CreateScanDir(fs, req.ScanDirBase, label, meta.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("pipeline: creating scan directory: %w", err)
		}
		meta.ScanDir = dir
	}

	if err := store.SaveScan(meta); err != nil {
		return nil, fmt.Errorf("pipeline: saving initial scan record: %w", err)
	}

	// ── 5. Run targets ────────────────────────────────────────────────────────
	scanner := &Scanner{
		Oracle:   strategy,
		Retry:    rc,
		Sink:     sink,
		Findings: store,
		ScanID:   meta.ID,
	}

	start := time.Now()
	results := scanner.Run(ctx, req.Targets, users, req.Workers)

	result := &ScanResult{
		Meta:    meta,
		Targets: results,
		Users:   users,
		Elapsed: time.Since(start),
	}

	// ── 6. Determine final status and persist ─────────────────────────────────
	for _, r := range results {
		meta.Summaries = append(meta.Summaries, r.Summary)
	}
	if err := store.SaveScan(meta); err != nil {
		return result, fmt.Errorf("pipeline: saving scan summaries: %w", err)
	}

	meta.Status = resolveFinalStatus(ctx, results)
	if err := store.UpdateScanStatus(meta.ID, meta.Status); err != nil {
		return result, fmt.Errorf("pipeline: updating final scan status: %w", err)
	}
	now := time.Now()
	meta.CompletedAt = &now

	return result, nil
}

// BuildStrategy assembles the oracle for cfg together with the retry
// controller it shares with the username loop. A nil transport dials with
// x/crypto/ssh through cfg.Proxies; a nil wait sleeps in real time.
func BuildStrategy(cfg models.ScanConfig, transport probe.Transport, wait retry.WaitFunc) (oracle.Strategy, *retry.Controller, error) {
	if transport == nil {
		st, err := probe.NewSSHTransport(cfg.Proxies)
		if err != nil {
			return nil, nil, fmt.Errorf("pipeline: %w", err)
		}
		transport = st
	}

	rc := retry.New(cfg.RetryNum)
	if wait != nil {
		rc.Wait = wait
	}

	strategy, err := oracle.New(cfg, transport, rc)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline: %w", err)
	}
	return strategy, rc, nil
}

// resolveFinalStatus returns cancelled when ctx ended, failed when no target
// got past a connection error at the gate, and complete otherwise.
func resolveFinalStatus(ctx context.Context, results []*TargetResult) models.ScanStatus {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.StatusCancelled
	}
	for _, r := range results {
		if r.Gate.Result != models.GateConnectionError {
			return models.StatusComplete
		}
	}
	return models.StatusFailed
}
