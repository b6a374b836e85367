package constraint

// Manifold holds every contact found during one tick, in detection order
type Manifold struct {
	points []ManifoldPoint
}

func NewManifold(capacity int) *Manifold {
	return &Manifold{points: make([]ManifoldPoint, 0, capacity)}
}

func (m *Manifold) Add(point ManifoldPoint) {
	m.points = append(m.points, point)
}

// Clear empties the manifold and keeps its storage
func (m *Manifold) Clear() {
	m.points = m.points[:0]
}

func (m *Manifold) Len() int {
	return len(m.points)
}

// Point returns the i-th contact; the pointer is valid until the next Add or Clear
func (m *Manifold) Point(i int) *ManifoldPoint {
	return &m.points[i]
}

// Points returns the contacts, sharing the manifold storage
func (m *Manifold) Points() []ManifoldPoint {
	return m.points
}

// TotalPenetration sums the positive penetrations of every contact
func (m *Manifold) TotalPenetration() float64 {
	total := 0.0
	for i := range m.points {
		if m.points[i].Penetration > 0 {
			total += m.points[i].Penetration
		}
	}

	return total
}
