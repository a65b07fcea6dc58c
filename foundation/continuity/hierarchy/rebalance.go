package hierarchy

import (
	"fmt"
	"sort"
)

// splitGroup divides an over capacity group into two groups at the sorted
// midpoint of its members. The new group is re-parented under the same
// region, and chain identities are never touched; only their group
// ownership moves. Caller must hold m.mu.
func (m *Manager) splitGroup(grp *group) {
	grp.mu.Lock()

	ids := make([]string, 0, len(grp.members))
	for id := range grp.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	mid := len(ids) / 2
	moved := ids[mid:]

	sibling := m.newGroupInRegion(ids[mid], grp.regionID)

	sibling.mu.Lock()
	for _, id := range moved {
		sibling.members[id] = grp.members[id]
		delete(grp.members, id)
		m.chains[id].groupID = sibling.id
	}

	grp.recomputeRoot()
	sibling.recomputeRoot()

	sibling.mu.Unlock()
	grp.mu.Unlock()

	m.markDirty(grp.regionID)

	// Splitting may push the region past its own capacity.
	if len(m.regions[grp.regionID].groups) > m.groupsPerRegion {
		m.splitRegion(m.regions[grp.regionID])
	}
}

// newGroupInRegion creates a group owning the range starting at low inside
// the specified region. Caller must hold m.mu.
func (m *Manager) newGroupInRegion(low string, regionID string) *group {
	m.groupSeq++

	grp := group{
		id:       fmt.Sprintf("group-%06d", m.groupSeq),
		regionID: regionID,
		low:      low,
		members:  make(map[string][32]byte),
	}

	m.regions[regionID].groups[grp.id] = true
	m.groups[grp.id] = &grp
	m.insertRoute(&grp)

	return &grp
}

// splitRegion divides an over capacity region by moving the upper half of
// its groups, sorted by group id, into a fresh region. Caller must hold
// m.mu.
func (m *Manager) splitRegion(reg *region) {
	ids := make([]string, 0, len(reg.groups))
	for id := range reg.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	m.regionSeq++
	sibling := region{
		id:     fmt.Sprintf("region-%04d", m.regionSeq),
		groups: make(map[string]bool),
	}
	m.regions[sibling.id] = &sibling

	for _, id := range ids[len(ids)/2:] {
		delete(reg.groups, id)
		sibling.groups[id] = true
		m.groups[id].regionID = sibling.id
	}

	m.markDirty(reg.id)
	m.markDirty(sibling.id)
}
