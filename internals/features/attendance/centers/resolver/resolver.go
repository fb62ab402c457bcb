// file: internals/features/attendance/centers/resolver/resolver.go
package resolver

import (
	"math"

	"github.com/google/uuid"

	"centerku_backend/internals/features/attendance/centers/model"
	"centerku_backend/internals/features/attendance/geo"
)

// Eligibility: nil AssignedCenterID = boleh check-in di center aktif mana pun.
type Eligibility struct {
	AssignedCenterID *uuid.UUID `json:"assigned_center_id,omitempty"`
}

func AnyCenter() Eligibility { return Eligibility{} }

func AssignedTo(id uuid.UUID) Eligibility { return Eligibility{AssignedCenterID: &id} }

func (e Eligibility) IsAssigned() bool {
	return e.AssignedCenterID != nil && *e.AssignedCenterID != uuid.Nil
}

// Result: Matched=false tetap membawa center terdekat (diagnostik).
// Distance = +Inf kalau tidak ada kandidat sama sekali.
type Result struct {
	Matched  bool
	Distance float64
	Center   *model.Center
}

func noCandidate() Result {
	return Result{Matched: false, Distance: math.Inf(1)}
}

// Resolve memilih center untuk point.
//   - hanya center aktif & valid
//   - assigned: hanya center itu, tanpa fallback ke center lain
//   - hit = jarak <= radius; di antara hit pilih yang terdekat,
//     seri jarak → yang lebih dulu di directory
//   - tidak ada hit → laporkan kandidat terdekat dengan Matched=false
func Resolve(point geo.Coordinate, directory []model.Center, elig Eligibility) Result {
	p := geo.Normalize(point)

	var (
		bestHit     = -1
		bestHitDist = math.Inf(1)
		closest     = -1
		closestDist = math.Inf(1)
	)
	for i := range directory {
		c := &directory[i]
		if !c.IsActive {
			continue
		}
		if elig.IsAssigned() && c.ID != *elig.AssignedCenterID {
			continue
		}
		if c.Validate() != nil {
			continue
		}
		d := geo.Distance(p, geo.Normalize(c.Location))
		if d < closestDist {
			closest, closestDist = i, d
		}
		if d <= c.RadiusMeters && d < bestHitDist {
			bestHit, bestHitDist = i, d
		}
	}

	if bestHit >= 0 {
		c := directory[bestHit]
		return Result{Matched: true, Distance: bestHitDist, Center: &c}
	}
	if closest >= 0 {
		c := directory[closest]
		return Result{Matched: false, Distance: closestDist, Center: &c}
	}
	return noCandidate()
}
