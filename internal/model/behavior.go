package model

// Behavior is the discrete decision output driving an agent's state machine.
type Behavior int32

const (
	// BehaviorPatrol - agent walks its patrol route
	BehaviorPatrol Behavior = iota
	// BehaviorChase - agent moves toward its target
	BehaviorChase
	// BehaviorAttack - agent stands still and damages its target
	BehaviorAttack
	// BehaviorFlee - agent runs directly away from its target
	BehaviorFlee
)

// Behaviors lists every behavior in declaration order.
var Behaviors = [...]Behavior{BehaviorPatrol, BehaviorChase, BehaviorAttack, BehaviorFlee}

// String returns human-readable behavior name
func (b Behavior) String() string {
	switch b {
	case BehaviorPatrol:
		return "PATROL"
	case BehaviorChase:
		return "CHASE"
	case BehaviorAttack:
		return "ATTACK"
	case BehaviorFlee:
		return "FLEE"
	default:
		return "UNKNOWN"
	}
}
