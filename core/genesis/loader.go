package genesis

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/exfury/gridiron-core/core/state"
	"github.com/exfury/gridiron-core/native/bank"
	nativecommon "github.com/exfury/gridiron-core/native/common"
	"github.com/exfury/gridiron-core/native/generator"
	"github.com/exfury/gridiron-core/native/votingescrow"
	"github.com/exfury/gridiron-core/storage"
	"github.com/exfury/gridiron-core/storage/trie"
)

// Result describes the committed genesis state.
type Result struct {
	Root common.Hash
	Time uint64
}

// Build writes the genesis state described by spec into db and commits it
// at height zero. Map iteration is sorted so the root is deterministic.
func Build(spec *GenesisSpec, db storage.Database) (*Result, error) {
	if spec == nil {
		return nil, fmt.Errorf("genesis spec must not be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("database must not be nil")
	}
	if spec.genesisTimestamp.IsZero() {
		if err := spec.validate(); err != nil {
			return nil, err
		}
	}
	genesisTime := uint64(spec.genesisTimestamp.Unix())

	stateTrie, err := trie.NewTrie(db, nil)
	if err != nil {
		return nil, fmt.Errorf("init state trie: %w", err)
	}
	manager := state.NewManager(stateTrie)
	keeper := bank.NewKeeper(manager)

	// 1) Balances (tokens sorted, holders sorted)
	tokens := make([]string, 0, len(spec.Alloc))
	for token := range spec.Alloc {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, tokenText := range tokens {
		token, _ := parseAccount(tokenText)
		holders := make([]string, 0, len(spec.Alloc[tokenText]))
		for holder := range spec.Alloc[tokenText] {
			holders = append(holders, holder)
		}
		sort.Strings(holders)
		for _, holderText := range holders {
			holder, _ := parseAccount(holderText)
			amount, _ := parseAmount(spec.Alloc[tokenText][holderText])
			if err := keeper.Mint(token, holder, amount); err != nil {
				return nil, fmt.Errorf("alloc %s to %s: %w", tokenText, holderText, err)
			}
		}
	}

	// 2) Generator and its initial pools
	genCfg, err := spec.Generator.config()
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	gen := generator.NewEngine(nativecommon.ModuleAddress(nativecommon.ModuleGenerator))
	gen.SetState(manager)
	gen.SetBank(keeper)
	gen.SetBlockHeight(0)
	if err := gen.InitGenesis(genCfg); err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	for _, pool := range spec.Generator.Pools {
		token, _ := parseAccount(pool.Token)
		if err := gen.AddPool(genCfg.Owner, token, pool.AllocPoint, false); err != nil {
			return nil, fmt.Errorf("generator pool %s: %w", pool.Token, err)
		}
	}

	// 3) Voting escrow and initial blacklist
	escrowCfg, err := spec.Escrow.config(genesisTime)
	if err != nil {
		return nil, fmt.Errorf("escrow: %w", err)
	}
	escrow := votingescrow.NewEngine(nativecommon.ModuleAddress(nativecommon.ModuleVotingEscrow))
	escrow.SetState(manager)
	escrow.SetBank(keeper)
	escrow.SetBlockTime(genesisTime)
	if err := escrow.InitGenesis(escrowCfg); err != nil {
		return nil, fmt.Errorf("escrow: %w", err)
	}
	if len(spec.Escrow.Blacklist) > 0 {
		listed := make([][20]byte, 0, len(spec.Escrow.Blacklist))
		for _, addr := range spec.Escrow.Blacklist {
			raw, _ := parseAccount(addr)
			listed = append(listed, raw)
		}
		if err := escrow.UpdateBlacklist(escrowCfg.Owner, listed, nil); err != nil {
			return nil, fmt.Errorf("escrow blacklist: %w", err)
		}
	}

	root, err := stateTrie.Commit(stateTrie.Root(), 0)
	if err != nil {
		return nil, fmt.Errorf("commit genesis state: %w", err)
	}
	return &Result{Root: root, Time: genesisTime}, nil
}
