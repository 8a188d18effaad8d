package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"logicprobe/internal/config"
	"logicprobe/internal/logger"
	"logicprobe/internal/management"
	"logicprobe/internal/output"
)

const (
	testSubscription = "sub-1"
	testTenant       = "tenant-1"
	testToken        = "tok-abc"
)

// testEnv wires an App to a fake token endpoint and a fake management API.
type testEnv struct {
	App    *App
	ARM    *management.FakeServer
	Out    *bytes.Buffer
	Errout *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("client_secret") != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"` + testToken + `","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokens.Close)

	arm := management.NewFakeServer(testSubscription)
	arm.Token = testToken
	t.Cleanup(arm.Close)

	cfg := config.DefaultConfig()
	cfg.SubscriptionID = testSubscription
	cfg.TenantID = testTenant
	cfg.ApplicationID = "app-1"
	cfg.Secret = "good"
	cfg.AuthorityHost = tokens.URL
	cfg.ManagementEndpoint = arm.URL
	cfg.Poll.Interval = 5 * time.Millisecond
	cfg.Poll.Timeout = 2 * time.Second

	out := &bytes.Buffer{}
	errout := &bytes.Buffer{}
	app := &App{
		Config:  cfg,
		Printer: output.NewPrinterWithWriter(out),
		Logger:  logger.NewLogger(logger.TestConfig()),
		Stdin:   strings.NewReader(""),
		Stderr:  errout,
	}

	return &testEnv{App: app, ARM: arm, Out: out, Errout: errout}
}

func (e *testEnv) run(args ...string) ExecuteResult {
	e.Out.Reset()
	e.Errout.Reset()
	return RunWithConfig(context.Background(), e.App, args)
}
