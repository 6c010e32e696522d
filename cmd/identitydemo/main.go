// cmd/identitydemo wires the idcore packages into a minimal runnable
// binary: load or create an identity anchor, sign and verify a startup
// action receipt, issue a trust grant, and serve health/metrics endpoints. It
// is deliberately small — a smoke-test harness, not the out-of-scope CLI
// front-end.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentralabs/agentic-identity-sub001/internal/api"
	"github.com/agentralabs/agentic-identity-sub001/internal/config"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/clock"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/identity"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/receipt"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/trust"
	"github.com/agentralabs/agentic-identity-sub001/internal/ledger"
	"github.com/agentralabs/agentic-identity-sub001/internal/revocationfeed"
	"github.com/agentralabs/agentic-identity-sub001/internal/telemetry"
)

func main() {
	cfgPath := os.Getenv("IDENTITYDEMO_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/identitydemo.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := telemetry.NewLogger(cfg.LogLevel)
	clk := clock.System{}
	ctx := context.Background()

	applyArgon2Config(cfg)

	reg := prometheus.NewRegistry()
	metrics := api.NewMetrics(reg)

	anchor, err := loadOrCreateAnchor(cfg, clk, metrics)
	if err != nil {
		lg.Fatal().Err(err).Msg("anchor: load or create failed")
	}
	defer anchor.Close()
	lg.Info().Str("id", string(anchor.ID())).Msg("identity anchor ready")

	led := ledger.New(lg)

	if err := demonstrateCore(anchor, clk, metrics, led, lg); err != nil {
		lg.Error().Err(err).Msg("core demonstration failed")
	}

	go led.Run(ctx)

	if cfg.Heartbeat.Enable {
		go telemetry.Heartbeat(ctx, lg, cfg.Heartbeat.Interval.Duration)
	}
	var revStore *revocationStore
	if cfg.RevocationFeed.Enable {
		revStore = &revocationStore{}
		rf := revocationfeed.NewClient(cfg.RevocationFeed.URL, lg)
		go revocationfeed.Watch(ctx, rf, revStore, cfg.RevocationFeed.PollInterval.Duration)
	}

	mux := api.Router(cfg, reg)
	srv := &http.Server{
		Addr:              cfg.Agent.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lg.Info().Str("id", string(anchor.ID())).Str("listen", cfg.Agent.Listen).Msg("identitydemo listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal().Err(err).Msg("server failed")
	}
}

// applyArgon2Config overrides the substrate package's Argon2id cost
// parameters from config, when the operator set any of them. The
// substrate defaults stay in force for any field left at its zero value,
// so an empty argon2 block in config changes nothing.
func applyArgon2Config(cfg *config.Config) {
	if cfg.Argon2.MemoryKiB != 0 {
		substrate.Argon2idParams.MemoryKiB = cfg.Argon2.MemoryKiB
	}
	if cfg.Argon2.Iterations != 0 {
		substrate.Argon2idParams.Iterations = cfg.Argon2.Iterations
	}
	if cfg.Argon2.Parallelism != 0 {
		substrate.Argon2idParams.Parallelism = cfg.Argon2.Parallelism
	}
}

// loadOrCreateAnchor loads the configured .aid file if it exists, or
// creates and saves a fresh anchor otherwise. The passphrase comes from
// AGENT_PASSPHRASE so it never lives in the YAML config.
func loadOrCreateAnchor(cfg *config.Config, clk clock.Clock, metrics *api.Metrics) (*identity.Anchor, error) {
	passphrase := os.Getenv("AGENT_PASSPHRASE")

	if _, err := os.Stat(cfg.Agent.AidPath); err == nil {
		return identity.Load(cfg.Agent.AidPath, passphrase)
	}

	var name *string
	if cfg.Agent.Name != "" {
		name = &cfg.Agent.Name
	}
	anchor, err := identity.Create(name, clk, nil)
	if err != nil {
		return nil, err
	}
	metrics.AnchorsCreated.Inc()
	if err := anchor.Save(cfg.Agent.AidPath, passphrase); err != nil {
		return nil, err
	}
	return anchor, nil
}

// demonstrateCore signs a startup receipt, verifies it, issues a sample
// trust grant to an ephemeral counterparty anchor, and verifies that
// grant — exercising every core package the demo binary wires together.
func demonstrateCore(anchor *identity.Anchor, clk clock.Clock, metrics *api.Metrics, led *ledger.Ledger, lg zerolog.Logger) error {
	startupReceipt, err := receipt.BuildAndSign(receipt.BuildRequest{
		Actor:      string(anchor.ID()),
		ActorKey:   anchor.CurrentPublicKey(),
		ActionType: receipt.ActionType{Kind: receipt.ActionObservation},
		Action: receipt.ActionContent{
			Description: "identitydemo started",
		},
	}, anchor.CurrentSigningKey(), clk)
	if err != nil {
		return err
	}
	metrics.ReceiptsSigned.Inc()

	result := receipt.VerifyReceipt(startupReceipt, clk)
	metrics.ReceiptsVerified.Inc()
	lg.Info().Str("receipt_id", string(startupReceipt.ID)).Bool("valid", result.IsValid).Msg("startup receipt signed")
	led.Record(startupReceipt)

	counterparty, err := identity.Create(nil, clk, nil)
	if err != nil {
		return err
	}
	defer counterparty.Close()

	notBefore := uint64(0)
	grant, err := trust.Issue(trust.IssueRequest{
		Grantor:    string(anchor.ID()),
		GrantorKey: anchor.CurrentPublicKey(),
		Grantee:    string(counterparty.ID()),
		GranteeKey: counterparty.CurrentPublicKey(),
		Capabilities: []trust.CapabilityPattern{
			"read:status:*",
		},
		Constraints: trust.TrustConstraints{
			NotBefore:          &notBefore,
			DelegationAllowed:  true,
			MaxDelegationDepth: 1,
		},
	}, anchor.CurrentSigningKey(), clk)
	if err != nil {
		return err
	}
	metrics.GrantsIssued.Inc()

	verdict := trust.VerifyGrant(grant, "read:status:today", 0, nil, clk.NowMicros())
	lg.Info().Str("grant_id", string(grant.ID)).Bool("valid", verdict.IsValid).Msg("sample trust grant issued")

	return nil
}

// revocationStore is a minimal mutex-guarded revocationfeed.Store. A real
// deployment would thread this set into every trust.VerifyGrant call.
type revocationStore struct {
	mu          sync.Mutex
	revocations []trust.RevocationRecord
}

func (s *revocationStore) Swap(rs []trust.RevocationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revocations = rs
}

func (s *revocationStore) Snapshot() []trust.RevocationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]trust.RevocationRecord, len(s.revocations))
	copy(out, s.revocations)
	return out
}
