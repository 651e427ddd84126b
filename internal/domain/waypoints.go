package domain

// WaypointChain is the ordered sequence of coordinates a walk passes through.
// It always starts at the origin and never holds the same point twice in a row.
type WaypointChain struct {
	points []Coordinates
}

func NewWaypointChain(origin Coordinates, stops ...Coordinates) WaypointChain {
	c := WaypointChain{points: make([]Coordinates, 0, 1+len(stops))}
	c.points = append(c.points, origin)
	for _, s := range stops {
		c.Append(s)
	}
	return c
}

// Append adds a stop unless it equals the current last point.
func (c *WaypointChain) Append(p Coordinates) {
	if len(c.points) > 0 && c.points[len(c.points)-1] == p {
		return
	}
	c.points = append(c.points, p)
}

func (c WaypointChain) Origin() Coordinates { return c.points[0] }

func (c WaypointChain) Len() int { return len(c.points) }

// Points returns a copy of the chain, origin first.
func (c WaypointChain) Points() []Coordinates {
	return append([]Coordinates(nil), c.points...)
}
