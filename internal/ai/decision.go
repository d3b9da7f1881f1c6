package ai

import "github.com/udisondev/npcmind/internal/model"

// DefaultFleeHealthRatio is the health ratio below which an agent flees.
const DefaultFleeHealthRatio = 0.25

// Thresholds parameterize the decision policy.
type Thresholds struct {
	Chase           float64 // distance at or below which the agent chases
	Attack          float64 // distance at or below which the agent attacks
	FleeHealthRatio float64 // health ratio strictly below which the agent flees
}

// Evaluate maps a distance to the target and a health ratio to a behavior.
// Pure and total. Priority: low health > attack range > chase range > patrol.
func (t Thresholds) Evaluate(distance, healthRatio float64) model.Behavior {
	switch {
	case healthRatio < t.FleeHealthRatio:
		return model.BehaviorFlee
	case distance <= t.Attack:
		return model.BehaviorAttack
	case distance <= t.Chase:
		return model.BehaviorChase
	default:
		return model.BehaviorPatrol
	}
}

// Evaluate applies the decision policy with the default flee threshold.
func Evaluate(distance, healthRatio, chaseDistance, attackDistance float64) model.Behavior {
	return Thresholds{
		Chase:           chaseDistance,
		Attack:          attackDistance,
		FleeHealthRatio: DefaultFleeHealthRatio,
	}.Evaluate(distance, healthRatio)
}

// HealthRatio returns current/max clamped to [0, 1], with max floored at 1.
func HealthRatio(current, maxHP int32) float64 {
	ratio := float64(current) / float64(max(maxHP, 1))
	return min(max(ratio, 0), 1)
}
