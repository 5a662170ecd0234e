package ai

import "github.com/milk9111/sentinel/common"

// behavior is the per-state half of the agent FSM. Implementations are
// stateless singletons; all data lives on the Agent.
type behavior interface {
	enter(a *Agent)
	exit(a *Agent)
	act(a *Agent)
}

type idleBehavior struct{}

func (idleBehavior) enter(a *Agent) {}
func (idleBehavior) exit(a *Agent)  {}
func (idleBehavior) act(a *Agent)   { a.standAndFace() }

type patrolBehavior struct{}

func (patrolBehavior) enter(a *Agent) {}
func (patrolBehavior) exit(a *Agent)  {}
func (patrolBehavior) act(a *Agent) {
	step := a.patrol.Step(a.actuator.Position())
	if !step.Moved {
		a.actuator.Move(common.Vec3{})
		return
	}
	a.actuator.Move(step.Velocity)
	a.face(step.Face)
}

// pursuitBehavior serves both Alert and Chase: walk straight at the target
// until within stop distance, then hold position facing it.
type pursuitBehavior struct{}

func (pursuitBehavior) enter(a *Agent) { a.reaction = reactionTimer{} }
func (pursuitBehavior) exit(a *Agent)  {}
func (pursuitBehavior) act(a *Agent) {
	if a.target == nil {
		a.actuator.Move(common.Vec3{})
		return
	}
	targetPos := a.target.Position()
	to := targetPos.Sub(a.actuator.Position()).Flat()
	stop := a.stats.StopDistance
	if to.SqrLen() > stop*stop {
		a.actuator.Move(to.Normalized().Scale(a.stats.MoveSpeed))
	} else {
		a.actuator.Move(common.Vec3{})
	}
	a.face(targetPos)
}

type damageBehavior struct{}

func (damageBehavior) enter(a *Agent) { a.armReaction() }
func (damageBehavior) exit(a *Agent)  {}
func (damageBehavior) act(a *Agent)   { a.standAndFace() }

type deadBehavior struct{}

func (deadBehavior) enter(a *Agent) {
	a.reaction = reactionTimer{}
	a.Deactivate()
}
func (deadBehavior) exit(a *Agent) {}
func (deadBehavior) act(a *Agent)  {}

var behaviors = [...]behavior{
	StateIdle:   idleBehavior{},
	StatePatrol: patrolBehavior{},
	StateAlert:  pursuitBehavior{},
	StateChase:  pursuitBehavior{},
	StateDamage: damageBehavior{},
	StateDead:   deadBehavior{},
}

func behaviorFor(s State) behavior {
	if s < 0 || int(s) >= len(behaviors) {
		return idleBehavior{}
	}
	return behaviors[s]
}

func (a *Agent) standAndFace() {
	a.actuator.Move(common.Vec3{})
	if a.target != nil {
		a.face(a.target.Position())
	}
}
