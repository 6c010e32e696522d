// Package ledger is a per-actor receipt aggregator: it tracks the latest
// receipt seen for each actor and periodically logs a deterministic
// aggregate anchor hash across all actors. The chain model defines how
// to verify a sequence of receipts but says nothing about a running
// aggregator process; this package adds one, following the same per-key
// map, rolling-hash-mixed-into-a-sorted-key global anchor, and periodic
// flush ticker shape used elsewhere in this codebase for per-path
// aggregation. It is an ambient observability helper; no core invariant
// depends on it.
package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/receipt"
	"github.com/agentralabs/agentic-identity-sub001/internal/idcore/substrate"
)

// actorState tracks the latest receipt and a running anchor per actor.
type actorState struct {
	count       int64
	lastReceipt receipt.ReceiptId
	rolling     [32]byte
}

// Ledger aggregates accepted receipts per actor and periodically logs a
// global anchor over them.
type Ledger struct {
	log zerolog.Logger

	mu       sync.Mutex
	perActor map[string]*actorState

	flushInterval time.Duration
}

// New creates a Ledger with sane defaults.
func New(log zerolog.Logger) *Ledger {
	return &Ledger{
		log:           log.With().Str("module", "ledger").Logger(),
		perActor:      make(map[string]*actorState),
		flushInterval: 10 * time.Second,
	}
}

// Record folds a verified receipt into the actor's running anchor. It
// does not itself verify r — callers should only Record receipts that
// already passed receipt.VerifyReceipt.
func (l *Ledger) Record(r receipt.ActionReceipt) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := l.perActor[r.Actor]
	if st == nil {
		st = &actorState{}
		l.perActor[r.Actor] = st
	}
	st.count++
	st.lastReceipt = r.ID

	mix := substrate.NewCanon().RawBytes(st.rolling[:]).String(r.ReceiptHash).Bytes()
	st.rolling = substrate.SHA256(mix)
}

// Run flushes a log line with the global anchor every flush interval
// until ctx is cancelled. Call it in a goroutine: go ledger.Run(ctx).
func (l *Ledger) Run(ctx context.Context) {
	t := time.NewTicker(l.flushInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.flush()
		}
	}
}

// flush logs a compact snapshot of per-actor counts and a global anchor.
func (l *Ledger) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.perActor) == 0 {
		l.log.Debug().Msg("ledger: no actors yet")
		return
	}

	actors := make([]string, 0, len(l.perActor))
	for a := range l.perActor {
		actors = append(actors, a)
	}
	sort.Strings(actors)

	global := substrate.NewCanon()
	for _, a := range actors {
		st := l.perActor[a]
		l.log.Info().
			Str("actor", a).
			Int64("receipts", st.count).
			Str("last_receipt", string(st.lastReceipt)).
			Str("anchor", substrate.EncodeHex(st.rolling[:])).
			Msg("ledger: actor window")
		global.String(a).RawBytes(st.rolling[:])
	}
	anchor := substrate.SHA256(global.Bytes())
	l.log.Info().Str("global_anchor", substrate.EncodeHex(anchor[:])).Msg("ledger: aggregate anchor")
}
