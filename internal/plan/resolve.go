package plan

import "github.com/google/uuid"

// ResolvedConnection is a plan connection bound to internal node ids.
type ResolvedConnection struct {
	Source string
	Target string
	Label  string
}

// Resolution maps a plan's logical ids to internal ids.
type Resolution struct {
	// IDs has exactly one entry per distinct non-empty logical node id.
	IDs map[LogicalID]string
	// NodeIDs is parallel to Plan.Nodes. Nodes sharing a logical id share an
	// internal id; nodes without a logical id each get their own.
	NodeIDs []string
	// Connections holds the connections whose endpoints both resolved, in
	// plan order.
	Connections []ResolvedConnection
	// Dropped holds the connections that referenced an unknown logical id.
	Dropped []Connection
}

// NewID returns a fresh random internal id.
func NewID() string {
	return uuid.NewString()
}

// Resolve assigns an internal id from newID to every distinct logical node id
// in p and binds p's connections to them. Connections whose from or to id
// matches no node are dropped without error. p is not modified.
// A nil newID uses NewID.
func Resolve(p *Plan, newID func() string) *Resolution {
	if newID == nil {
		newID = NewID
	}

	r := &Resolution{
		IDs:     make(map[LogicalID]string, len(p.Nodes)),
		NodeIDs: make([]string, len(p.Nodes)),
	}

	for i, n := range p.Nodes {
		if n.ID == "" {
			r.NodeIDs[i] = newID()
			continue
		}
		id, ok := r.IDs[n.ID]
		if !ok {
			id = newID()
			r.IDs[n.ID] = id
		}
		r.NodeIDs[i] = id
	}

	for _, c := range p.Connections {
		source, okSource := r.IDs[c.From]
		target, okTarget := r.IDs[c.To]
		if c.From == "" || c.To == "" || !okSource || !okTarget {
			r.Dropped = append(r.Dropped, c)
			continue
		}
		r.Connections = append(r.Connections, ResolvedConnection{
			Source: source,
			Target: target,
			Label:  c.Label,
		})
	}
	return r
}
