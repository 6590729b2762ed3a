// Package node drives a ledger node: it seeds and replays the account table
// on startup, then executes batches, persists the settled transfers and
// answers range requests, one batch at a time.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/celer-network/go-ledger/config"
	"github.com/celer-network/go-ledger/genesis"
	"github.com/celer-network/go-ledger/ledger"
	"github.com/celer-network/go-ledger/log"
	"github.com/celer-network/go-ledger/statemachine"
	"github.com/celer-network/go-ledger/types"
)

var logger = log.NewLogger("node")

var (
	ErrBootstrapped = errors.New("node already bootstrapped")
	ErrNotRunning   = errors.New("node is not running")
	ErrRunning      = errors.New("node is already running")
	// ErrFailed is returned while the account table may hold transfers the
	// ledger does not. Bootstrap clears it.
	ErrFailed = errors.New("node failed, bootstrap required")
)

// BatchResult reports what processing a batch did.
type BatchResult struct {
	// Created is the number of accounts the batch created.
	Created int
	// Offset is the ledger offset of the first persisted record.
	Offset uint64
	// Persisted is the number of settled transfers appended to the ledger.
	Persisted int
	// Ranges maps the batch index of each range request to its raw records.
	Ranges map[int][]byte
	// RangeErrors holds range requests that could not be answered.
	RangeErrors map[int]error
}

type request struct {
	batch []*types.Instruction
	reply chan response
}

type response struct {
	result *BatchResult
	err    error
}

type Node struct {
	stateMachine    *statemachine.StateMachine
	ledger          *ledger.Ledger
	genesis         *genesis.Genesis
	initialCapacity int
	replayChunk     uint64
	queueSize       int
	metrics         *metrics

	lock         sync.Mutex
	bootstrapped bool
	failed       error

	runLock sync.Mutex
	queue   chan *request
	quit    chan struct{}
	done    chan struct{}
}

// NewNode builds a node around an already opened ledger. g may be nil.
func NewNode(l *ledger.Ledger, g *genesis.Genesis, initialCapacity int, replayChunk uint64, queueSize int) *Node {
	return &Node{
		stateMachine:    statemachine.NewStateMachine(statemachine.NewAccountTable(initialCapacity)),
		ledger:          l,
		genesis:         g,
		initialCapacity: initialCapacity,
		replayChunk:     replayChunk,
		queueSize:       queueSize,
		metrics:         newMetrics(),
	}
}

// NewNodeFromConfig opens the configured ledger store and genesis file.
func NewNodeFromConfig(cfg *config.Config) (*Node, error) {
	var g *genesis.Genesis
	if cfg.Genesis != "" {
		var err error
		if g, err = genesis.Load(cfg.Genesis); err != nil {
			return nil, err
		}
	}
	serializer, err := types.NewSerializer()
	if err != nil {
		return nil, err
	}
	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("backend", cfg.Backend).Str("path", cfg.Path).Uint64("records", store.Len()).Msg("Opened ledger")
	return NewNode(ledger.NewLedger(store, serializer), g, cfg.InitialCapacity, cfg.ReplayChunk, cfg.QueueSize), nil
}

// Bootstrap seeds the genesis accounts and replays the whole ledger. It runs
// once, before the node takes live traffic, and again to recover a node that
// returned ErrFailed.
func (n *Node) Bootstrap() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.bootstrapped && n.failed == nil {
		return ErrBootstrapped
	}
	if err := n.rebuild(); err != nil {
		return err
	}
	n.bootstrapped = true
	n.failed = nil
	return nil
}

// rebuild replaces the account table with one derived from genesis and the
// ledger alone.
func (n *Node) rebuild() error {
	sm := statemachine.NewStateMachine(statemachine.NewAccountTable(n.initialCapacity))
	table := sm.Table()
	if n.genesis != nil {
		if err := n.genesis.Seed(table); err != nil {
			return err
		}
		if _, err := table.MaybeGrow(); err != nil {
			return err
		}
	}
	replayed, err := n.ledger.ReplayAll(sm, n.replayChunk)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	n.stateMachine = sm
	n.metrics.observeState(table.Used(), table.Capacity(), n.ledger.Len())
	logger.Info().Uint64("records", replayed).Int("accounts", table.Used()).Int("capacity", table.Capacity()).
		Msg("Bootstrapped node")
	return nil
}

// ProcessBatch executes batch, grows the table if needed, appends the
// settled transfers to the ledger and then answers the range requests.
func (n *Node) ProcessBatch(batch []*types.Instruction) (*BatchResult, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	if n.failed != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailed, n.failed)
	}
	started := time.Now()
	created, err := n.stateMachine.ApplyBatch(batch)
	if err != nil {
		n.failed = err
		return nil, err
	}
	result := &BatchResult{Created: created, Offset: n.ledger.Len()}

	var settled []*types.Instruction
	for _, ins := range batch {
		if ins != nil && ins.Settled() {
			settled = append(settled, ins)
		}
	}
	if len(settled) > 0 {
		if result.Offset, err = n.ledger.Append(settled); err != nil {
			logger.Error().Err(err).Int("records", len(settled)).Msg("Failed to persist batch")
			n.discardBatch(err)
			return nil, err
		}
		result.Persisted = len(settled)
	}

	for i, ins := range batch {
		if ins == nil || ins.Kind != types.InstructionKindRangeRequest {
			continue
		}
		raw, err := n.ledger.ServeRange(ins)
		if err != nil {
			if result.RangeErrors == nil {
				result.RangeErrors = make(map[int]error)
			}
			result.RangeErrors[i] = err
			continue
		}
		if result.Ranges == nil {
			result.Ranges = make(map[int][]byte)
		}
		result.Ranges[i] = raw
	}
	table := n.stateMachine.Table()
	n.metrics.observeBatch(batch, result, started)
	n.metrics.observeState(table.Used(), table.Capacity(), n.ledger.Len())
	logger.Debug().Int("size", len(batch)).Int("created", created).Int("persisted", result.Persisted).
		Uint64("offset", result.Offset).Msg("Processed batch")
	return result, nil
}

// discardBatch rolls the account table back to what the ledger holds after
// an append failed. If that is not possible the node stays failed.
func (n *Node) discardBatch(cause error) {
	n.failed = cause
	if err := n.rebuild(); err != nil {
		logger.Error().Err(err).Msg("Failed to rebuild account table, node needs bootstrap")
		return
	}
	n.failed = nil
}

// Balance returns the current balance of key.
func (n *Node) Balance(key types.PublicKey) (uint64, error) {
	n.lock.Lock()
	defer n.lock.Unlock()

	account, err := n.stateMachine.Table().Get(key)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Accounts returns the live accounts ordered by key.
func (n *Node) Accounts() []types.Account {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.stateMachine.Table().Accounts()
}

// Digest returns the account table digest.
func (n *Node) Digest() [32]byte {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.stateMachine.Table().Digest()
}

func (n *Node) Capacity() int {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.stateMachine.Table().Capacity()
}

// Gatherer exposes the node metrics, for example to a promhttp handler.
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.metrics.registry
}

func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Start runs the batch loop in the background. Batches handed to Submit are
// processed in submission order.
func (n *Node) Start() error {
	n.runLock.Lock()
	defer n.runLock.Unlock()

	if n.queue != nil {
		return ErrRunning
	}
	n.queue = make(chan *request, n.queueSize)
	n.quit = make(chan struct{})
	n.done = make(chan struct{})
	go n.processBatches(n.queue, n.quit, n.done)
	logger.Info().Int("queueSize", n.queueSize).Msg("Started node")
	return nil
}

func (n *Node) processBatches(queue <-chan *request, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case req := <-queue:
			result, err := n.ProcessBatch(req.batch)
			req.reply <- response{result: result, err: err}
		case <-quit:
			return
		}
	}
}

// Submit queues batch and waits for its result.
func (n *Node) Submit(ctx context.Context, batch []*types.Instruction) (*BatchResult, error) {
	n.runLock.Lock()
	queue, quit, done := n.queue, n.quit, n.done
	n.runLock.Unlock()
	if queue == nil {
		return nil, ErrNotRunning
	}

	req := &request{batch: batch, reply: make(chan response, 1)}
	select {
	case queue <- req:
	case <-quit:
		return nil, ErrNotRunning
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-req.reply:
		return resp.result, resp.err
	case <-done:
		select {
		case resp := <-req.reply:
			return resp.result, resp.err
		default:
			return nil, ErrNotRunning
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop ends the batch loop after the batch in progress, if any.
func (n *Node) Stop() {
	n.runLock.Lock()
	defer n.runLock.Unlock()

	if n.queue == nil {
		return
	}
	close(n.quit)
	<-n.done
	n.queue, n.quit, n.done = nil, nil, nil
	logger.Info().Msg("Stopped node")
}

// Close stops the loop and closes the ledger.
func (n *Node) Close() error {
	n.Stop()
	return n.ledger.Close()
}
