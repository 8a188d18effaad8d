package logicapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"logicprobe/internal/auth"
	"logicprobe/internal/config"
	"logicprobe/internal/logger"
	"logicprobe/internal/management"
)

// SessionConfig holds what a [Session] needs to build its client.
type SessionConfig struct {
	ManagementEndpoint string
	SubscriptionID     string
	APIVersion         string
	HTTPTimeout        time.Duration
	RunnerOptions      []Option
}

// SessionConfigFrom derives a [SessionConfig] from loaded settings.
func SessionConfigFrom(cfg *config.Config) SessionConfig {
	return SessionConfig{
		ManagementEndpoint: cfg.ManagementEndpoint,
		SubscriptionID:     cfg.SubscriptionID,
		APIVersion:         cfg.APIVersion,
		HTTPTimeout:        cfg.HTTP.Timeout,
		RunnerOptions: []Option{
			WithPollInterval(cfg.Poll.Interval),
			WithPollTimeout(cfg.Poll.Timeout),
			WithMaxPolls(cfg.Poll.MaxPolls),
		},
	}
}

// Session keeps one current [Execution] across calls.
//
// IsWorkflowEnabled and Execute update the current execution, CheckAction
// reads it and Reset clears its run identifier. Calls are serialised, so a
// Session runs one execution at a time; callers needing several concurrent
// runs should use [Session.Runner] with their own Execution values.
type Session struct {
	cfg      SessionConfig
	provider auth.TokenProvider

	mu      sync.Mutex
	client  *management.Client
	runner  *Runner
	current Execution
}

// NewSession creates a stopped session. Call Start before anything else.
func NewSession(cfg SessionConfig, provider auth.TokenProvider) *Session {
	return &Session{cfg: cfg, provider: provider}
}

// Start acquires a fresh token and builds the management client.
// Starting a started session replaces its client.
func (s *Session) Start(ctx context.Context) error {
	token, err := s.provider.AcquireToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrClientInitialization, err)
	}

	client := management.New(management.Options{
		BaseURL:        s.cfg.ManagementEndpoint,
		SubscriptionID: s.cfg.SubscriptionID,
		APIVersion:     s.cfg.APIVersion,
		Token:          token,
		Timeout:        s.cfg.HTTPTimeout,
		Logger:         logger.FromContext(ctx),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		_ = s.client.Close()
	}
	s.client = client
	s.runner = NewRunner(client, s.cfg.RunnerOptions...)
	return nil
}

// Stop releases the client. Stopping a stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	s.runner = nil
	return err
}

// Reset clears the current run identifier. The resource group and
// workflow stay set.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Reset()
}

// Current returns a copy of the current execution.
func (s *Session) Current() Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// RunID returns the current run identifier, or "".
func (s *Session) RunID() string {
	return s.Current().RunID
}

// Runner returns the runner backing the session.
func (s *Session) Runner() (*Runner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return nil, ErrNotStarted
	}
	return s.runner, nil
}

// IsWorkflowEnabled checks the workflow and makes it the current one.
//
// The current resource group and workflow are overwritten before the
// result is known, so they change even when the workflow is not found.
func (s *Session) IsWorkflowEnabled(ctx context.Context, resourceGroup, workflow string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return false, ErrNotStarted
	}

	exec, enabled, err := s.runner.CheckEnabled(ctx, resourceGroup, workflow)
	s.current.ResourceGroup = exec.ResourceGroup
	s.current.Workflow = exec.Workflow
	return enabled, err
}

// Execute fires a trigger of the current workflow and records the run
// identifier as current. See [Runner.Execute].
func (s *Session) Execute(ctx context.Context, kind TriggerKind, trigger string, payload Payload) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return nil, ErrNotStarted
	}

	result, err := s.runner.Execute(ctx, s.current, kind, trigger, payload)
	if result != nil && result.Execution.RunID != "" {
		s.current.RunID = result.Execution.RunID
	}
	return result, err
}

// CheckAction returns the status of the named action in the current run.
func (s *Session) CheckAction(ctx context.Context, action string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runner == nil {
		return "", ErrNotStarted
	}
	return s.runner.CheckAction(ctx, s.current, action)
}
