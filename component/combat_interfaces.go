package component

// HealthComponent exposes health operations for combat collaborators.
type HealthComponent interface {
	IsAlive() bool
	ApplyDamage(amount int, evt CombatEvent) bool
	Heal(amount int)
	CurrentHP() int
	MaxHP() int
}

var _ HealthComponent = (*Health)(nil)
