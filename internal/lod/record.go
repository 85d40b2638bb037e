package lod

// drawRecord is the scheduler's bookkeeping for one node. parent and
// children are non-owning links into the same record map and are rebuilt on
// every RefreshDrawData.
type drawRecord struct {
	drawData DrawData
	used     bool
	created  bool
	parent   *drawRecord
	children []*drawRecord
}

func (r *drawRecord) id() NodeID {
	return r.drawData.NodeID
}

func (r *drawRecord) removeChild(child *drawRecord) {
	for i, c := range r.children {
		if c == child {
			r.children = append(r.children[:i], r.children[i+1:]...)
			return
		}
	}
}

// Phase is a record's position in the residency lifecycle.
type Phase int

const (
	// PhaseUnused: neither wanted nor resident.
	PhaseUnused Phase = iota
	// PhasePendingCreate: wanted, no GPU model yet.
	PhasePendingCreate
	// PhaseResident: wanted and resident.
	PhaseResident
	// PhasePendingDispose: resident but no longer wanted.
	PhasePendingDispose
)

func (p Phase) String() string {
	switch p {
	case PhasePendingCreate:
		return "pending-create"
	case PhaseResident:
		return "resident"
	case PhasePendingDispose:
		return "pending-dispose"
	default:
		return "unused"
	}
}

// NodeState is a read-only copy of a record's flags and links.
type NodeState struct {
	ID        NodeID
	Used      bool
	Created   bool
	Parent    NodeID
	HasParent bool
	Children  []NodeID
}

// Phase derives the lifecycle phase from the flags.
func (s NodeState) Phase() Phase {
	switch {
	case s.Used && s.Created:
		return PhaseResident
	case s.Used:
		return PhasePendingCreate
	case s.Created:
		return PhasePendingDispose
	default:
		return PhaseUnused
	}
}

func (r *drawRecord) state() NodeState {
	s := NodeState{ID: r.id(), Used: r.used, Created: r.created}
	if r.parent != nil {
		s.Parent = r.parent.id()
		s.HasParent = true
	}
	if len(r.children) > 0 {
		s.Children = make([]NodeID, len(r.children))
		for i, c := range r.children {
			s.Children[i] = c.id()
		}
	}
	return s
}
