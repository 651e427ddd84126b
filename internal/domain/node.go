package domain

// Represents a visitable heritage point of interest.
// Nodes are owned by the node catalog; route planning only reads them and
// never mutates or persists them.
type Node struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Location Coordinates `json:"location"`
}

// Return the locations of nodes in the same order.
func NodeLocations(nodes []Node) []Coordinates {
	out := make([]Coordinates, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Location)
	}
	return out
}
