/*
orchestrator.go - Import orchestrator

PURPOSE:
  Runs one import family for one request as a single all-or-nothing
  transaction. Every family lands completely or not at all.

STATE MACHINE:
  Unauthenticated --(valid token, operational role)--> Authenticated
  Unauthenticated --(anything else)--> stop, no transaction opened
  Authenticated   --------------------------------> TransactionOpen
  TransactionOpen --(importer returned nil)-------> Committed
  TransactionOpen --(any error)-------------------> RolledBack

  The importer is looked up after the transaction opens, so an unknown
  family ends as RolledBack like every other fatal error.

WARNINGS:
  Row defects never leave TransactionOpen. They are collected on the Run
  and returned with the committed Result, in the order they were found.

CONCURRENCY:
  Runs share nothing but the store. Two concurrent runs build their own
  resolver maps; the store's unique constraints decide races on new keys.

SEE ALSO:
  - registry.go: Importer interface
  - run.go: the per-run scope handed to importers
  - importers/: the families
*/
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/warp/staffing-engine/bulk"
	"github.com/warp/staffing-engine/logging"
	"github.com/warp/staffing-engine/resolver"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// STATES
// =============================================================================

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateTransactionOpen
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateTransactionOpen:
		return "transaction_open"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Verifier checks a bearer credential and returns its role claim.
type Verifier interface {
	Verify(ctx context.Context, token string) (role string, err error)
}

// TxRunner is the store as seen by the orchestrator.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Dialect() bulk.Dialect
}

// DefaultRoles may import when Options.AllowedRoles is empty.
var DefaultRoles = []string{"ADMIN", "MANAGER"}

// Options tune the orchestrator. Zero values select defaults.
type Options struct {
	AllowedRoles []string

	// MaxParams overrides the dialect's bound-parameter ceiling.
	MaxParams int

	// DefaultPassword is hashed once and given to app users created by imports.
	DefaultPassword string
	BcryptCost      int

	NewID   resolver.IDFunc
	Now     func() time.Time
	Log     *logging.Logger
	Metrics *Metrics

	hash *lazyHash
}

func (o Options) withDefaults() Options {
	if len(o.AllowedRoles) == 0 {
		o.AllowedRoles = DefaultRoles
	}
	if o.NewID == nil {
		o.NewID = resolver.NewID
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = logging.Nop()
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.hash == nil {
		o.hash = &lazyHash{password: o.DefaultPassword, cost: o.BcryptCost}
	}
	return o
}

func (o Options) passwordHasher() func() (string, error) {
	return o.hash.get
}

type lazyHash struct {
	once     sync.Once
	password string
	cost     int
	hash     string
	err      error
}

func (l *lazyHash) get() (string, error) {
	l.once.Do(func() {
		if l.password == "" {
			l.err = fmt.Errorf("no default password configured for new users")
			return
		}
		h, err := bcrypt.GenerateFromPassword([]byte(l.password), l.cost)
		l.hash, l.err = string(h), err
	})
	return l.hash, l.err
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Request is one import call.
type Request struct {
	Token   string
	Family  string
	Payload Payload
}

// Result is the outcome of a committed run.
type Result struct {
	RunID       string         `json:"run_id"`
	Family      string         `json:"type"`
	Message     string         `json:"message"`
	Warnings    []string       `json:"warnings"`
	RowsWritten map[string]int `json:"rows_written"`
	Duration    time.Duration  `json:"-"`
}

type Orchestrator struct {
	db       TxRunner
	verifier Verifier
	registry *Registry
	opts     Options
	allowed  map[string]bool
}

func NewOrchestrator(db TxRunner, v Verifier, reg *Registry, opts Options) *Orchestrator {
	opts = opts.withDefaults()
	allowed := make(map[string]bool, len(opts.AllowedRoles))
	for _, r := range opts.AllowedRoles {
		allowed[strings.ToUpper(strings.TrimSpace(r))] = true
	}
	return &Orchestrator{db: db, verifier: v, registry: reg, opts: opts, allowed: allowed}
}

// Families lists the import types the orchestrator can run.
func (o *Orchestrator) Families() []string { return o.registry.Families() }

// Run executes req. It returns either a Result (committed, possibly with
// warnings) or a *RunError; never both.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	start := o.opts.Now()
	runID := o.opts.NewID()
	log := o.opts.Log.With("run", runID, "family", req.Family)
	label := o.metricLabel(req.Family)

	state := StateUnauthenticated
	role, err := o.authenticate(ctx, req.Token)
	if err != nil {
		log.Warn("import rejected", "error", err)
		o.opts.Metrics.run(label, outcomeUnauthorized, o.opts.Now().Sub(start), 0)
		return nil, &RunError{RunID: runID, Family: req.Family, State: state, Err: err}
	}
	state = StateAuthenticated
	log.Info("import started", "role", role, "records", req.Payload.Size())

	var run *Run
	err = o.db.WithTx(ctx, func(tx *sql.Tx) error {
		state = StateTransactionOpen

		run = newRun(tx, o.db.Dialect(), o.opts, runID, start)
		run.Family = req.Family
		run.Role = role
		run.Log = log

		imp, ok := o.registry.Lookup(req.Family)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFamily, req.Family)
		}
		return imp.Import(ctx, run, req.Payload)
	})
	elapsed := o.opts.Now().Sub(start)

	if err != nil {
		if state == StateTransactionOpen {
			state = StateRolledBack
		}
		log.Error("import rolled back", "error", err, "duration", elapsed)
		o.opts.Metrics.run(label, outcomeRolledBack, elapsed, 0)
		return nil, &RunError{RunID: runID, Family: req.Family, State: state, Err: err}
	}

	warnings := run.Warnings.List()
	log.Info("import committed", "duration", elapsed, "warnings", len(warnings))
	o.opts.Metrics.run(label, outcomeCommitted, elapsed, len(warnings))

	return &Result{
		RunID:       runID,
		Family:      req.Family,
		Message:     fmt.Sprintf("Import %s completed successfully", req.Family),
		Warnings:    warnings,
		RowsWritten: run.RowsWritten(),
		Duration:    elapsed,
	}, nil
}

// Authorize applies the gate Run applies, without opening a transaction. It
// returns the caller's role.
func (o *Orchestrator) Authorize(ctx context.Context, token string) (string, error) {
	return o.authenticate(ctx, token)
}

func (o *Orchestrator) authenticate(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	if o.verifier == nil {
		return "", fmt.Errorf("%w: no credential verifier configured", ErrUnauthorized)
	}
	role, err := o.verifier.Verify(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if !o.allowed[role] {
		return "", &AuthError{Role: role}
	}
	return role, nil
}

// metricLabel keeps label cardinality bounded to registered families.
func (o *Orchestrator) metricLabel(family string) string {
	if _, ok := o.registry.Lookup(family); ok {
		return family
	}
	return "unknown"
}
