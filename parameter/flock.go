package parameter

// Flocking Variant
const (
	// FlockCapacity is the live boid limit before FIFO eviction
	FlockCapacity = 100

	// SeparationRadius is the local repulsion range (world units)
	SeparationRadius = 40.0
	// SeparationWeight scales the separation steering force
	SeparationWeight = 1.2

	// AlignmentRadius is the heading-match range, wider than separation
	AlignmentRadius = 80.0
	// AlignmentWeight scales the alignment steering force
	AlignmentWeight = 0.5

	// CohesionRadius is the centroid-seeking range
	CohesionRadius = 80.0
	// CohesionWeight scales the cohesion steering force
	CohesionWeight = 0.8

	// FlockSpawnSpeed is the initial velocity magnitude of a new boid
	FlockSpawnSpeed = 50.0

	// FlockMargin extends wrap bounds beyond the surface so boids leave fully before reappearing
	FlockMargin = 10.0

	// GridCellSize is the spatial hash cell edge (world units)
	GridCellSize = 64.0

	// FlockMinSize and FlockMaxSize clamp nearest-neighbor sizing
	FlockMinSize = 8.0
	FlockMaxSize = 32.0
)

// FlockSpeedChoices and FlockSpeedWeights drive the per-boid max speed draw
var (
	FlockSpeedChoices = []float64{20, 50, 100}
	FlockSpeedWeights = []float64{1, 4, 2}
)
