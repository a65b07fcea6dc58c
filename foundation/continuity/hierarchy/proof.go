package hierarchy

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/proofchain/foundation/continuity/merkle"
)

// AggregateProof represents the root of one node in the hierarchy together
// with the child roots that fold into it. Anyone holding the children can
// recompute the root in canonical child id sort order.
type AggregateProof struct {
	Level    Level       `json:"level"`
	ID       string      `json:"id"`
	Root     [32]byte    `json:"root"`
	Children []ChildRoot `json:"children,omitempty"`
}

// CompactProof represents a merkle inclusion path from one chain's
// commitment hash up to an aggregate root. Verifying it requires walking
// the path, not re-verifying any other chain's proof, which is what keeps
// verification tractable at 100,000 chain scale.
type CompactProof struct {
	ChainID        string   `json:"chain_id"`
	CommitmentHash [32]byte `json:"commitment_hash"`
	Level          Level    `json:"level"`
	Root           [32]byte `json:"root"`
	Path           [][]byte `json:"path"`
	Order          []int64  `json:"order"`
}

// =============================================================================

// AggregateProof returns the root and child roots for the specified node,
// recomputing any dirty ancestor roots on demand before returning.
func (m *Manager) AggregateProof(level Level, id string) (AggregateProof, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch level {
	case LevelChain:
		ch, exists := m.chains[id]
		if !exists {
			return AggregateProof{}, fmt.Errorf("%w: chain %s", ErrNotFound, id)
		}

		grp := m.groups[ch.groupID]
		grp.mu.Lock()
		root := grp.members[id]
		grp.mu.Unlock()

		return AggregateProof{Level: LevelChain, ID: id, Root: root}, nil

	case LevelGroup:
		grp, exists := m.groups[id]
		if !exists {
			return AggregateProof{}, fmt.Errorf("%w: group %s", ErrNotFound, id)
		}

		grp.mu.Lock()
		children := make([]ChildRoot, 0, len(grp.members))
		for chainID, root := range grp.members {
			children = append(children, ChildRoot{ID: chainID, Root: root})
		}
		root := grp.root
		grp.mu.Unlock()

		sortChildren(children)

		return AggregateProof{Level: LevelGroup, ID: id, Root: root, Children: children}, nil

	case LevelRegion:
		m.recomputeDirty()

		reg, exists := m.regions[id]
		if !exists {
			return AggregateProof{}, fmt.Errorf("%w: region %s", ErrNotFound, id)
		}

		return AggregateProof{Level: LevelRegion, ID: id, Root: reg.root, Children: m.regionChildren(reg)}, nil

	case LevelGlobal:
		m.recomputeDirty()

		children := make([]ChildRoot, 0, len(m.regions))
		for regionID, reg := range m.regions {
			children = append(children, ChildRoot{ID: regionID, Root: reg.root})
		}
		sortChildren(children)

		return AggregateProof{Level: LevelGlobal, ID: "global", Root: m.globalRoot, Children: children}, nil
	}

	return AggregateProof{}, fmt.Errorf("unknown hierarchy level %d", level)
}

// CompactProof returns the inclusion path from the specified chain's
// commitment hash up to the root at the specified level. Dirty ancestors
// are recomputed first so the path and root are consistent.
func (m *Manager) CompactProof(chainID string, level Level) (CompactProof, error) {
	if level == LevelChain {
		return CompactProof{}, fmt.Errorf("compact proof requires a level above chain")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ch, exists := m.chains[chainID]
	if !exists {
		return CompactProof{}, fmt.Errorf("%w: chain %s", ErrNotFound, chainID)
	}

	m.recomputeDirty()

	grp := m.groups[ch.groupID]

	grp.mu.Lock()
	leaf := ChildRoot{ID: chainID, Root: grp.members[chainID]}
	tree := grp.tree
	groupLeaf := ChildRoot{ID: grp.id, Root: grp.root}
	grp.mu.Unlock()

	if tree == nil {
		return CompactProof{}, fmt.Errorf("%w: group %s has no tree", ErrNotFound, grp.id)
	}

	path, order, err := tree.Proof(leaf)
	if err != nil {
		return CompactProof{}, fmt.Errorf("group inclusion path: %w", err)
	}

	cp := CompactProof{
		ChainID:        chainID,
		CommitmentHash: leaf.Root,
		Level:          level,
		Root:           groupLeaf.Root,
		Path:           path,
		Order:          order,
	}

	if level == LevelGroup {
		return cp, nil
	}

	reg := m.regions[grp.regionID]
	regionPath, regionOrder, err := reg.tree.Proof(groupLeaf)
	if err != nil {
		return CompactProof{}, fmt.Errorf("region inclusion path: %w", err)
	}
	cp.Path = append(cp.Path, regionPath...)
	cp.Order = append(cp.Order, regionOrder...)
	cp.Root = reg.root

	if level == LevelRegion {
		return cp, nil
	}

	globalPath, globalOrder, err := m.globalTree.Proof(ChildRoot{ID: reg.id, Root: reg.root})
	if err != nil {
		return CompactProof{}, fmt.Errorf("global inclusion path: %w", err)
	}
	cp.Path = append(cp.Path, globalPath...)
	cp.Order = append(cp.Order, globalOrder...)
	cp.Root = m.globalRoot

	return cp, nil
}

// GlobalRoot recomputes any dirty ancestors and returns the current global
// aggregate root.
func (m *Manager) GlobalRoot() [32]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recomputeDirty()

	return m.globalRoot
}

// =============================================================================

// recomputeDirty drains the dirty work queue, rebuilding the merkle tree
// of each dirty region and then the global tree. Caller must hold m.mu.
func (m *Manager) recomputeDirty() {
	for _, regionID := range m.dirty {
		reg, exists := m.regions[regionID]
		if !exists {
			continue
		}
		m.recomputeRegion(reg)
	}
	m.dirty = m.dirty[:0]
	for id := range m.dirtySet {
		delete(m.dirtySet, id)
	}

	if !m.globalDirty {
		return
	}

	children := make([]ChildRoot, 0, len(m.regions))
	for regionID, reg := range m.regions {
		children = append(children, ChildRoot{ID: regionID, Root: reg.root})
	}

	if len(children) == 0 {
		m.globalTree = nil
		m.globalRoot = [32]byte{}
		m.globalDirty = false
		return
	}

	sortChildren(children)

	tree, err := merkle.NewTree(children)
	if err != nil {
		return
	}

	m.globalTree = tree
	copy(m.globalRoot[:], tree.MerkleRoot)
	m.globalDirty = false
}

// recomputeRegion rebuilds one region's merkle tree over its group roots.
// Caller must hold m.mu.
func (m *Manager) recomputeRegion(reg *region) {
	children := m.regionChildren(reg)
	if len(children) == 0 {
		reg.tree = nil
		reg.root = [32]byte{}
		return
	}

	tree, err := merkle.NewTree(children)
	if err != nil {
		return
	}

	reg.tree = tree
	copy(reg.root[:], tree.MerkleRoot)
}

// regionChildren collects the sorted group roots of a region. Caller must
// hold m.mu.
func (m *Manager) regionChildren(reg *region) []ChildRoot {
	children := make([]ChildRoot, 0, len(reg.groups))
	for groupID := range reg.groups {
		grp := m.groups[groupID]
		grp.mu.Lock()
		children = append(children, ChildRoot{ID: groupID, Root: grp.root})
		grp.mu.Unlock()
	}

	sortChildren(children)

	return children
}

// sortChildren orders child roots canonically by child id.
func sortChildren(children []ChildRoot) {
	sort.Slice(children, func(i, j int) bool {
		return children[i].ID < children[j].ID
	})
}
