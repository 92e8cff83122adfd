// Command yoyow-node wires the deterministic state-machine packages built
// under this module -- core/store, core/evaluator, core/tx, core/block,
// core/maintenance, mempool -- into one running process, the way the
// teacher's cmd/nhb/main.go assembles core.Node from its component packages
// (core/node.go, p2p, rpc). spec.md §1 scopes the RPC/query layer, P2P
// propagation, and wallet/CLI tooling out as external collaborators; Node
// exposes the surface such a collaborator calls into (SubmitTransaction,
// ApplyBlock, Pending) rather than reimplementing them here.
package main

import (
	"fmt"
	"log/slog"

	"github.com/yoyow-org/yoyow-core-sub001/config"
	consensusstore "github.com/yoyow-org/yoyow-core-sub001/consensus/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/block"
	"github.com/yoyow-org/yoyow-core-sub001/core/evaluator"
	"github.com/yoyow-org/yoyow-core-sub001/core/maintenance"
	"github.com/yoyow-org/yoyow-core-sub001/core/store"
	"github.com/yoyow-org/yoyow-core-sub001/core/tx"
	"github.com/yoyow-org/yoyow-core-sub001/core/types"
	"github.com/yoyow-org/yoyow-core-sub001/crypto"
	"github.com/yoyow-org/yoyow-core-sub001/mempool"
	"github.com/yoyow-org/yoyow-core-sub001/native/fees"
	"github.com/yoyow-org/yoyow-core-sub001/native/params"
	"github.com/yoyow-org/yoyow-core-sub001/storage"
)

// maxAuthorityDepth bounds core/tx.Pipeline's authority graph walk; no
// committee-voted parameter for it exists yet (see DESIGN.md), so this
// mirrors the literal every core/tx and core/block fixture uses.
const maxAuthorityDepth = 4

// Node bundles every wired component a running validator needs, built once
// at process startup and held for its lifetime.
type Node struct {
	Store          *store.Store
	Tables         *evaluator.Tables
	Params         *params.Store
	FeeSchedule    *fees.Schedule
	TxPipeline     *tx.Pipeline
	Block          *block.Pipeline
	Mempool        *mempool.Pool
	ConsensusStore *consensusstore.Store
	Log            *slog.Logger
}

// NewNode wires every component against db and manifest's chain id. When db
// holds no dynamic global properties yet (a brand new data directory), it
// bootstraps genesis state from manifest: the CORE asset, chain parameters
// seeded from manifest.Params, and -- if witnessKey is non-nil -- a single
// self-signed witness so a one-validator chain can start producing blocks
// immediately. This bootstrap stands in for the not-yet-built core/genesis
// package (see DESIGN.md); it covers the single-witness devnet path only,
// not multi-validator genesis coordination.
func NewNode(db storage.Database, witnessKey *crypto.PrivateKey, manifest *config.GenesisManifest, log *slog.Logger) (*Node, error) {
	if log == nil {
		log = slog.Default()
	}
	s := store.New(db)
	tables := evaluator.NewTables(s)
	paramStore := params.NewStore(s)

	bootstrapped, err := isBootstrapped(tables)
	if err != nil {
		return nil, fmt.Errorf("yoyow-node: check genesis state: %w", err)
	}
	if !bootstrapped {
		if manifest == nil {
			return nil, fmt.Errorf("yoyow-node: data directory is empty and no genesis manifest was given")
		}
		if err := bootstrapGenesis(s, tables, paramStore, manifest, witnessKey); err != nil {
			return nil, fmt.Errorf("yoyow-node: bootstrap genesis: %w", err)
		}
		log.Info("bootstrapped genesis state", "chain_id", manifest.ChainID)
	}

	feeParams, err := paramStore.FeeSchedule()
	if err != nil {
		return nil, fmt.Errorf("yoyow-node: load fee schedule: %w", err)
	}
	feeSchedule := fees.NewSchedule(fees.OpFee{Base: feeParams.DefaultBase, PerKB: feeParams.DefaultPerKB})
	for tag, opFee := range feeParams.Fees {
		feeSchedule.Set(tag, fees.OpFee{Base: opFee.Base, PerKB: opFee.PerKB})
	}

	chainID := []byte(manifestChainID(manifest, tables))

	txPipeline := &tx.Pipeline{
		Store:       s,
		Tables:      tables,
		FeeSchedule: feeSchedule,
		ParamStore:  paramStore,
		ChainID:     chainID,
		// maxAuthorityDepth bounds the authority account-reference graph
		// walk (spec §4.3); every fixture under core/tx and core/block uses
		// this same bound.
		MaxAuthorityDepth: maxAuthorityDepth,
	}

	maintenanceParams, err := paramStore.MaintenanceParams()
	if err != nil {
		return nil, fmt.Errorf("yoyow-node: load maintenance params: %w", err)
	}
	adapter := &maintenance.Adapter{Store: s, Tables: tables, Params: paramStore, Log: log}
	runner := &maintenance.Runner{
		State:                            adapter,
		Log:                              log,
		GovernanceVotingExpirationBlocks: maintenanceParams.GovernanceVotingExpirationBlocks,
		VoteCleanupBatchSize:             maintenanceParams.VoteCleanupBatchSize,
	}

	consensusStore := consensusstore.New(db)

	witnessParams, err := paramStore.WitnessParams()
	if err != nil {
		return nil, fmt.Errorf("yoyow-node: load witness params: %w", err)
	}
	blockPipeline := &block.Pipeline{
		Store:                s,
		Tables:               tables,
		Params:               paramStore,
		TxPipeline:           txPipeline,
		Maintenance:          runner,
		Log:                  log,
		ConsensusStore:       consensusStore,
		ChainID:              chainID,
		GenesisTime:          genesisTime(manifest, tables),
		BlockIntervalSeconds: witnessParams.SlotIntervalSeconds,
	}

	pool := mempool.NewFromConfig(txPipeline, feeSchedule, 0, manifestMempool(manifest))

	return &Node{
		Store:          s,
		Tables:         tables,
		Params:         paramStore,
		FeeSchedule:    feeSchedule,
		TxPipeline:     txPipeline,
		Block:          blockPipeline,
		Mempool:        pool,
		ConsensusStore: consensusStore,
		Log:            log,
	}, nil
}

// SubmitTransaction admits signed into the node's mempool; an external
// transport layer (RPC/P2P) is expected to call this once per received
// transaction.
func (n *Node) SubmitTransaction(signed types.SignedTransaction) error {
	return n.Mempool.Add(signed)
}

// ApplyBlock runs b through the block pipeline and, on success, drops its
// included transactions from the mempool.
func (n *Node) ApplyBlock(b types.Block) error {
	if err := n.Block.ApplyBlock(b); err != nil {
		return err
	}
	ids := make([][32]byte, 0, len(b.Transactions))
	for i := range b.Transactions {
		id, err := b.Transactions[i].ID()
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	n.Mempool.Remove(ids...)
	dgp, err := n.Tables.DGP()
	if err == nil {
		n.Mempool.Prune(dgp.Time)
	}
	return nil
}

// isBootstrapped reports whether genesis has already been written: the
// block-summary ring buffer carries the genesis block at slot 0 once it
// has.
func isBootstrapped(tables *evaluator.Tables) (bool, error) {
	_, ok, err := tables.BlockSummaryAt(0)
	return ok, err
}

// bootstrapGenesis seeds a brand new store: the CORE asset, empty dynamic
// global properties and witness schedule, the genesis block-summary anchor
// every transaction's TaPoS check resolves against, and the committee-voted
// parameter tables seeded from manifest.Params. All writes run inside one
// undo session, committed only once every write has succeeded (core/store's
// session-required-for-writes invariant, see core/store/store.go).
func bootstrapGenesis(s *store.Store, tables *evaluator.Tables, paramStore *params.Store, manifest *config.GenesisManifest, witnessKey *crypto.PrivateKey) error {
	sess := s.BeginUndoSession()

	if _, err := tables.Asset.Create(types.Asset{Symbol: "CORE", Precision: 8}); err != nil {
		sess.Undo()
		return fmt.Errorf("create core asset: %w", err)
	}
	if _, err := tables.AssetDynamicData.Create(types.AssetDynamicData{Asset: evaluator.CoreAsset}); err != nil {
		sess.Undo()
		return fmt.Errorf("create core asset dynamic data: %w", err)
	}

	genesisSummary := types.BlockSummary{BlockNum: 0, Timestamp: 0}
	if err := tables.RecordBlockSummary(genesisSummary); err != nil {
		sess.Undo()
		return fmt.Errorf("record genesis block summary: %w", err)
	}
	if err := tables.SetDGP(types.DynamicGlobalProperties{}); err != nil {
		sess.Undo()
		return fmt.Errorf("seed dynamic global properties: %w", err)
	}

	g := manifest.Params
	if err := paramStore.SetFeeSchedule(params.FeeScheduleParams{DefaultBase: g.Fees.DefaultBase, DefaultPerKB: g.Fees.DefaultPerKB}); err != nil {
		sess.Undo()
		return fmt.Errorf("seed fee schedule params: %w", err)
	}
	witnessParams := params.WitnessParams{
		ByVoteTopCount:      g.Witness.ByVoteTopCount,
		ByVoteRestCount:     g.Witness.ByVoteRestCount,
		ByPledgeCount:       g.Witness.ByPledgeCount,
		SlotIntervalSeconds: g.Witness.SlotIntervalSeconds,
		MaxMissedSlots:      g.Witness.MaxMissedSlots,
	}
	if err := paramStore.SetWitnessParams(witnessParams); err != nil {
		sess.Undo()
		return fmt.Errorf("seed witness params: %w", err)
	}
	contentAwardParams := params.ContentAwardParams{
		TotalContentAwardAmount: g.ContentAward.TotalContentAwardAmount,
		MinEffectiveCSAF:        g.ContentAward.MinEffectiveCSAF,
		PeriodSeconds:           g.ContentAward.PeriodSeconds,
	}
	if err := paramStore.SetContentAwardParams(contentAwardParams); err != nil {
		sess.Undo()
		return fmt.Errorf("seed content award params: %w", err)
	}
	// MaintenanceParams is left at its zero value: every cadence-gated
	// maintenance step (budget adjust, committee update, schedule rebuild,
	// invariant check, content/platform award) stays off until a committee
	// proposal turns it on, matching core/block/pipeline_test.go's fixtures.
	if err := paramStore.SetMaintenanceParams(params.MaintenanceParams{}); err != nil {
		sess.Undo()
		return fmt.Errorf("seed maintenance params: %w", err)
	}

	if witnessKey != nil {
		if err := bootstrapSelfWitness(tables, witnessKey); err != nil {
			sess.Undo()
			return err
		}
	} else if err := tables.SetSchedule(types.ScheduleState{}); err != nil {
		sess.Undo()
		return fmt.Errorf("seed empty schedule: %w", err)
	}

	return sess.Commit()
}

// bootstrapSelfWitness registers witnessKey's account as the chain's sole
// witness and schedule entry, so a single-validator devnet can start
// producing blocks without first replaying a witness_create transaction.
func bootstrapSelfWitness(tables *evaluator.Tables, witnessKey *crypto.PrivateKey) error {
	pubHex := witnessKey.PubKey().CompressedPubkeyHex()
	accountID, err := tables.Account.Create(types.Account{
		Name:   "genesis-witness",
		Active: types.Authority{Threshold: 1, Keys: map[string]uint32{pubHex: 1}},
	})
	if err != nil {
		return fmt.Errorf("create genesis witness account: %w", err)
	}
	uid := types.AccountUID(accountID)
	if _, err := tables.AccountStatistics.Create(types.AccountStatistics{Owner: uid}); err != nil {
		return fmt.Errorf("create genesis witness statistics: %w", err)
	}
	if _, err := tables.Witness.Create(types.Witness{Account: uid, SigningKey: pubHex, IsValid: true, Sequence: 1}); err != nil {
		return fmt.Errorf("create genesis witness: %w", err)
	}
	if err := tables.SetSchedule(types.ScheduleState{Shuffled: []types.AccountUID{uid}}); err != nil {
		return fmt.Errorf("seed single-witness schedule: %w", err)
	}
	return nil
}

// manifestChainID returns manifest's chain id, or the empty string when
// manifest is nil (every restart after the first). The chain id is not
// persisted to the store, so nothing is read back from disk.
func manifestChainID(manifest *config.GenesisManifest, _ *evaluator.Tables) string {
	if manifest != nil {
		return manifest.ChainID
	}
	return ""
}

// genesisTime anchors consensus/schedule.GetSlotAtTime's slot-zero instant
// to the genesis block's timestamp.
func genesisTime(manifest *config.GenesisManifest, tables *evaluator.Tables) uint32 {
	summary, ok, err := tables.BlockSummaryAt(0)
	if err == nil && ok {
		return summary.Timestamp
	}
	return 0
}

// manifestMempool extracts the genesis-configured mempool byte budget, or a
// zero (unbounded) value before genesis has been loaded at all.
func manifestMempool(manifest *config.GenesisManifest) config.Mempool {
	if manifest == nil {
		return config.Mempool{}
	}
	return manifest.Params.Mempool
}
