package constraint

// Default resolver settings
const (
	DefaultPositionIterations = 1000
	DefaultVelocityIterations = 1000
	DefaultPositionEpsilon    = 0.001
	DefaultVelocityEpsilon    = 0.01
)

// Resolver fixes the contacts of a manifold, worst first: penetrations, then velocities.
// Each phase stops when nothing is above its epsilon, or when its iteration budget is spent.
type Resolver struct {
	PositionIterations int
	VelocityIterations int
	PositionEpsilon    float64
	VelocityEpsilon    float64

	positionIterationsUsed int
	velocityIterationsUsed int
}

func NewResolver(positionIterations, velocityIterations int, positionEpsilon, velocityEpsilon float64) *Resolver {
	return &Resolver{
		PositionIterations: positionIterations,
		VelocityIterations: velocityIterations,
		PositionEpsilon:    positionEpsilon,
		VelocityEpsilon:    velocityEpsilon,
	}
}

// Resolve runs both phases on the manifold
func (r *Resolver) Resolve(manifold *Manifold, dt float64) {
	r.positionIterationsUsed = 0
	r.velocityIterationsUsed = 0

	if manifold.Len() == 0 {
		return
	}

	points := manifold.Points()
	for i := range points {
		points[i].Prepare(dt)
	}

	r.adjustPositions(points)
	r.adjustVelocities(points, dt)
}

// PositionIterationsUsed is the number of penetrations resolved by the last Resolve
func (r *Resolver) PositionIterationsUsed() int {
	return r.positionIterationsUsed
}

// VelocityIterationsUsed is the number of impulses applied by the last Resolve
func (r *Resolver) VelocityIterationsUsed() int {
	return r.velocityIterationsUsed
}

func (r *Resolver) adjustPositions(points []ManifoldPoint) {
	for r.positionIterationsUsed < r.PositionIterations {
		// Find the worst penetration
		worst := -1
		maxPenetration := r.PositionEpsilon
		for i := range points {
			if points[i].Penetration > maxPenetration {
				maxPenetration = points[i].Penetration
				worst = i
			}
		}
		if worst == -1 {
			break
		}

		points[worst].MatchAwakeState()
		linearChange, angularChange := points[worst].ResolvePenetration(maxPenetration)

		// The move changed the penetration of every contact sharing a body
		r.propagate(points, &points[worst], func(c *ManifoldPoint, b, d int) {
			delta := linearChange[d].Add(angularChange[d].Cross(c.relativePosition[b]))
			if b == 0 {
				c.Penetration -= delta.Dot(c.Normal)
			} else {
				c.Penetration += delta.Dot(c.Normal)
			}
		})

		r.positionIterationsUsed++
	}
}

func (r *Resolver) adjustVelocities(points []ManifoldPoint, dt float64) {
	for r.velocityIterationsUsed < r.VelocityIterations {
		// Find the contact with the largest desired velocity change
		worst := -1
		maxVelocity := r.VelocityEpsilon
		for i := range points {
			if points[i].desiredDeltaVelocity > maxVelocity {
				maxVelocity = points[i].desiredDeltaVelocity
				worst = i
			}
		}
		if worst == -1 {
			break
		}

		points[worst].MatchAwakeState()
		velocityChange, rotationChange := points[worst].ApplyVelocityChange()

		// The impulse changed the closing velocity of every contact sharing a body
		r.propagate(points, &points[worst], func(c *ManifoldPoint, b, d int) {
			delta := velocityChange[d].Add(rotationChange[d].Cross(c.relativePosition[b]))
			if b == 0 {
				c.contactVelocity = c.contactVelocity.Add(c.toContact(delta))
			} else {
				c.contactVelocity = c.contactVelocity.Sub(c.toContact(delta))
			}
			c.calculateDesiredDeltaVelocity(dt)
		})

		r.velocityIterationsUsed++
	}
}

// propagate calls update for every (contact, body slot b) whose body is the slot d of the resolved contact
func (r *Resolver) propagate(points []ManifoldPoint, resolved *ManifoldPoint, update func(c *ManifoldPoint, b, d int)) {
	for i := range points {
		c := &points[i]
		for b := 0; b < 2; b++ {
			if c.Bodies[b] == nil {
				continue
			}
			for d := 0; d < 2; d++ {
				if c.Bodies[b] == resolved.Bodies[d] {
					update(c, b, d)
				}
			}
		}
	}
}
