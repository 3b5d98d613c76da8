// Package spawn scores candidate spawn points so players come back into the
// world away from enemies and away from recently used points.
package spawn

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/vantagefps/vantage/pkg/geom"
)

type Point struct {
	Position geom.Vec
	Yaw      float64
}

const (
	// Enemy distance stops mattering beyond this.
	proximityCap = 60.0
	// An enemy closer than this with nothing in between can see the spawn.
	lineOfSightRange = 35.0
	lineOfSightPenalty = 25.0
	// How long a point stays penalized after use.
	recencyWindow  = 10 * time.Second
	recencyPenalty = 20.0
	// Pick randomly among the best few so spawns don't become predictable.
	candidatePool = 3
)

type Selector struct {
	points   []Point
	lastUsed map[int]time.Time
	rng      *rand.Rand
	now      func() time.Time
}

func NewSelector(points []Point) *Selector {
	return &Selector{
		points:   points,
		lastUsed: make(map[int]time.Time),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// DefaultPoints is a ring of spawns around the world origin, used when the
// map provides none.
func DefaultPoints() []Point {
	points := make([]Point, 0, 8)
	for i := 0; i < 8; i++ {
		angle := float64(i) * math.Pi / 4
		points = append(points, Point{
			Position: geom.NewVec(math.Cos(angle)*40, 0, math.Sin(angle)*40),
			Yaw:      math.Mod(270-angle*180/math.Pi, 360),
		})
	}
	return points
}

func (s *Selector) score(index int, enemies []geom.Vec) float64 {
	point := s.points[index]

	nearest := proximityCap
	visible := false
	for _, enemy := range enemies {
		d := geom.Distance(point.Position, enemy)
		if d < nearest {
			nearest = d
		}
		if d < lineOfSightRange {
			visible = true
		}
	}

	score := nearest
	if visible {
		score -= lineOfSightPenalty
	}
	if used, ok := s.lastUsed[index]; ok {
		age := s.now().Sub(used)
		if age < recencyWindow {
			score -= recencyPenalty * (1 - float64(age)/float64(recencyWindow))
		}
	}
	return score
}

// Pick chooses among the best-scoring spawn points given current enemy
// positions, and marks the choice as recently used.
func (s *Selector) Pick(enemies []geom.Vec) Point {
	if len(s.points) == 0 {
		return Point{}
	}

	indices := make([]int, len(s.points))
	scores := make([]float64, len(s.points))
	for i := range s.points {
		indices[i] = i
		scores[i] = s.score(i, enemies)
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	pool := candidatePool
	if pool > len(indices) {
		pool = len(indices)
	}
	chosen := indices[s.rng.Intn(pool)]
	s.lastUsed[chosen] = s.now()
	return s.points[chosen]
}
