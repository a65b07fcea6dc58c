// Package hierarchy implements the hierarchical aggregation tree. Chains
// are leaves, chains fold into groups, groups into regions, and regions
// into a single global root, so one compact root can stand for the
// commitments of 100,000+ independently operated storage chains.
//
// Every internal root is the merkle root over its children sorted by child
// identifier, which makes roots independent of registration order. Leaf
// mutations recompute the owning group's root eagerly and push the
// ancestor region onto a dirty work queue; region and global roots are
// recomputed on demand under a short exclusive window.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ardanlabs/proofchain/foundation/continuity/commitment"
	"github.com/ardanlabs/proofchain/foundation/continuity/merkle"
)

// ErrDuplicateChain is returned when registering a chain id that is
// already a member of the hierarchy.
var ErrDuplicateChain = errors.New("chain id already registered")

// ErrNotFound is returned when a lookup references an unknown id.
var ErrNotFound = errors.New("id not found in hierarchy")

// =============================================================================

// Level represents one tier of the aggregation hierarchy.
type Level int

// The set of hierarchy levels, leaf first.
const (
	LevelChain Level = iota
	LevelGroup
	LevelRegion
	LevelGlobal
)

// String implements the fmt.Stringer interface.
func (l Level) String() string {
	switch l {
	case LevelChain:
		return "chain"
	case LevelGroup:
		return "group"
	case LevelRegion:
		return "region"
	case LevelGlobal:
		return "global"
	}
	return "unknown"
}

// =============================================================================

// ChildRoot represents one child inside an internal node's merkle tree.
// Sorting by ID before tree construction is what makes aggregate roots
// insertion order independent.
type ChildRoot struct {
	ID   string   `json:"id"`
	Root [32]byte `json:"root"`
}

// Hash implements the merkle Hashable interface.
func (cr ChildRoot) Hash() ([]byte, error) {
	root := make([]byte, len(cr.Root))
	copy(root, cr.Root[:])
	return root, nil
}

// Equals implements the merkle Hashable interface.
func (cr ChildRoot) Equals(other ChildRoot) bool {
	return cr.ID == other.ID && cr.Root == other.Root
}

// =============================================================================

// chain represents one registered storage chain and the group that owns it.
type chain struct {
	id      string
	groupID string
}

// group represents one aggregation group. The member set and root are
// guarded by the group's own mutex so readers holding only the manager's
// read lock still observe a consistent view. All mutations additionally
// hold the manager's write lock, which keeps group membership and the
// chain index moving together during splits.
type group struct {
	mu       sync.Mutex
	id       string
	regionID string
	low      string // Inclusive lower bound of the chain id range this group owns.
	members  map[string][32]byte
	tree     *merkle.Tree[ChildRoot]
	root     [32]byte
}

// region represents one aggregation region holding a set of groups.
type region struct {
	id     string
	groups map[string]bool
	tree   *merkle.Tree[ChildRoot]
	root   [32]byte
}

// =============================================================================

// Config represents the settings for constructing a hierarchy manager.
type Config struct {
	ChainsPerGroup  uint32 // Target capacity before a group splits.
	GroupsPerRegion uint32 // Target capacity before a region splits.
}

// Manager owns the aggregation tree. Nodes are held in id keyed maps, never
// raw graph pointers, and dirty ancestors are tracked in an explicit work
// queue. The tree lives in memory only; persistence is an external concern.
type Manager struct {
	chainsPerGroup  int
	groupsPerRegion int

	mu          sync.RWMutex
	chains      map[string]*chain
	groups      map[string]*group
	regions     map[string]*region
	routes      []string // Group ids sorted by the low bound of their range.
	globalTree  *merkle.Tree[ChildRoot]
	globalRoot  [32]byte
	dirty       []string // Work queue of region ids needing recompute.
	dirtySet    map[string]bool
	globalDirty bool
	groupSeq    int
	regionSeq   int
}

// New constructs a Manager for aggregating chain commitments.
func New(cfg Config) (*Manager, error) {
	if cfg.ChainsPerGroup < 2 {
		return nil, fmt.Errorf("chains per group must be at least 2, got %d", cfg.ChainsPerGroup)
	}
	if cfg.GroupsPerRegion < 2 {
		return nil, fmt.Errorf("groups per region must be at least 2, got %d", cfg.GroupsPerRegion)
	}

	m := Manager{
		chainsPerGroup:  int(cfg.ChainsPerGroup),
		groupsPerRegion: int(cfg.GroupsPerRegion),
		chains:          make(map[string]*chain),
		groups:          make(map[string]*group),
		regions:         make(map[string]*region),
		dirtySet:        make(map[string]bool),
	}

	return &m, nil
}

// RegisterChain adds a new chain and its initial commitment to the
// hierarchy. Registering an id twice fails with ErrDuplicateChain.
func (m *Manager) RegisterChain(chainID string, sc commitment.StorageCommitment) error {
	if chainID == "" {
		return errors.New("chain id must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.chains[chainID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateChain, chainID)
	}

	grp := m.routeChain(chainID)
	if grp == nil {
		grp = m.newGroup("")
	}

	m.chains[chainID] = &chain{
		id:      chainID,
		groupID: grp.id,
	}

	grp.mu.Lock()
	grp.members[chainID] = sc.CommitmentHash
	overflow := len(grp.members) > m.chainsPerGroup
	if !overflow {
		grp.recomputeRoot()
	}
	grp.mu.Unlock()

	if overflow {
		m.splitGroup(grp)
	}

	m.markDirty(grp.regionID)

	return nil
}

// UpdateChain replaces the commitment for an existing chain. An unknown id
// fails with ErrNotFound.
func (m *Manager) UpdateChain(chainID string, sc commitment.StorageCommitment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, exists := m.chains[chainID]
	if !exists {
		return fmt.Errorf("%w: chain %s", ErrNotFound, chainID)
	}

	// The group lookup and the member write must happen under the same
	// manager lock. A registration splitting the group in between would
	// move the chain to a sibling and leave this write in the old group.
	grp := m.groups[ch.groupID]

	grp.mu.Lock()
	grp.members[chainID] = sc.CommitmentHash
	grp.recomputeRoot()
	grp.mu.Unlock()

	m.markDirty(grp.regionID)

	return nil
}

// DeregisterChain removes a chain from the hierarchy. An unknown id fails
// with ErrNotFound.
func (m *Manager) DeregisterChain(chainID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, exists := m.chains[chainID]
	if !exists {
		return fmt.Errorf("%w: chain %s", ErrNotFound, chainID)
	}

	grp := m.groups[ch.groupID]

	grp.mu.Lock()
	delete(grp.members, chainID)
	grp.recomputeRoot()
	grp.mu.Unlock()

	delete(m.chains, chainID)
	m.markDirty(grp.regionID)

	return nil
}

// ChainCount returns the number of registered chains.
func (m *Manager) ChainCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.chains)
}

// GroupCount returns the number of groups in the hierarchy.
func (m *Manager) GroupCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.groups)
}

// RegionCount returns the number of regions in the hierarchy.
func (m *Manager) RegionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.regions)
}

// GroupMembers returns the sorted chain ids of the specified group.
func (m *Manager) GroupMembers(groupID string) ([]string, error) {
	m.mu.RLock()
	grp, exists := m.groups[groupID]
	m.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}

	grp.mu.Lock()
	defer grp.mu.Unlock()

	ids := make([]string, 0, len(grp.members))
	for id := range grp.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

// =============================================================================

// routeChain finds the group owning the range that contains the specified
// chain id. Caller must hold m.mu.
func (m *Manager) routeChain(chainID string) *group {
	if len(m.routes) == 0 {
		return nil
	}

	// Find the last group whose low bound does not exceed the chain id.
	idx := sort.Search(len(m.routes), func(i int) bool {
		return m.groups[m.routes[i]].low > chainID
	})
	if idx == 0 {
		idx = 1
	}

	return m.groups[m.routes[idx-1]]
}

// newGroup creates a group owning the range starting at low and attaches
// it to a region with spare capacity. Caller must hold m.mu.
func (m *Manager) newGroup(low string) *group {
	m.groupSeq++

	grp := group{
		id:      fmt.Sprintf("group-%06d", m.groupSeq),
		low:     low,
		members: make(map[string][32]byte),
	}

	reg := m.placeRegion()
	grp.regionID = reg.id
	reg.groups[grp.id] = true

	m.groups[grp.id] = &grp
	m.insertRoute(&grp)

	return &grp
}

// placeRegion returns a region with spare group capacity, creating one
// when every region is full. Caller must hold m.mu.
func (m *Manager) placeRegion() *region {
	ids := make([]string, 0, len(m.regions))
	for id := range m.regions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if len(m.regions[id].groups) < m.groupsPerRegion {
			return m.regions[id]
		}
	}

	m.regionSeq++
	reg := region{
		id:     fmt.Sprintf("region-%04d", m.regionSeq),
		groups: make(map[string]bool),
	}
	m.regions[reg.id] = &reg

	return &reg
}

// insertRoute keeps the routing table sorted by range low bound. Caller
// must hold m.mu.
func (m *Manager) insertRoute(grp *group) {
	m.routes = append(m.routes, grp.id)
	sort.Slice(m.routes, func(i, j int) bool {
		return m.groups[m.routes[i]].low < m.groups[m.routes[j]].low
	})
}

// markDirty pushes a region onto the dirty work queue. Caller must hold
// m.mu.
func (m *Manager) markDirty(regionID string) {
	if !m.dirtySet[regionID] {
		m.dirtySet[regionID] = true
		m.dirty = append(m.dirty, regionID)
	}
	m.globalDirty = true
}

// =============================================================================

// recomputeRoot rebuilds the group's merkle tree over its members sorted
// by chain id. Caller must hold the group's mutex. An empty group keeps a
// zero root.
func (g *group) recomputeRoot() {
	if len(g.members) == 0 {
		g.tree = nil
		g.root = [32]byte{}
		return
	}

	children := make([]ChildRoot, 0, len(g.members))
	for id, root := range g.members {
		children = append(children, ChildRoot{ID: id, Root: root})
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].ID < children[j].ID
	})

	tree, err := merkle.NewTree(children)
	if err != nil {
		g.tree = nil
		g.root = [32]byte{}
		return
	}

	g.tree = tree
	copy(g.root[:], tree.MerkleRoot)
}
