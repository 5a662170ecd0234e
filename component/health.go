package component

// Health is a hit-point sink shared by agents, cameras and the pursued target.
// Owners register callbacks at construction instead of being looked up later.
type Health struct {
	Max     int
	Current int

	// OnChanged fires whenever Current or Max changes.
	OnChanged func(current, max int)
	// OnDamage fires after a hit that left the owner alive.
	OnDamage func(h *Health, evt CombatEvent)
	// OnDeath fires once, on the hit that brought Current to zero.
	OnDeath func(h *Health, evt CombatEvent)
}

// NewHealth creates a Health with max/current initialized.
func NewHealth(max int) *Health {
	if max <= 0 {
		max = 1
	}
	return &Health{Max: max, Current: max}
}

// IsAlive reports whether the owner still has hit points.
func (h *Health) IsAlive() bool {
	return h != nil && h.Current > 0
}

// ApplyDamage subtracts amount, clamped at zero. Returns true if any damage
// was applied. Damage on an already dead sink is ignored.
func (h *Health) ApplyDamage(amount int, evt CombatEvent) bool {
	if h == nil || h.Current <= 0 {
		return false
	}
	if amount < 0 {
		amount = 0
	}
	prev := h.Current
	h.Current -= amount
	if h.Current < 0 {
		h.Current = 0
	}
	if h.Current != prev {
		h.changed()
	}
	if amount == 0 {
		return false
	}

	evt.Damage = amount
	if h.Current > 0 {
		if h.OnDamage != nil {
			h.OnDamage(h, evt)
		}
		return true
	}
	if h.OnDeath != nil {
		evt.Type = EventDeath
		h.OnDeath(h, evt)
	}
	return true
}

// Heal restores health up to Max. The dead cannot be healed.
func (h *Health) Heal(amount int) {
	if h == nil || h.Current <= 0 || amount <= 0 {
		return
	}
	prev := h.Current
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
	if h.Current != prev {
		h.changed()
	}
}

// SetMaxAndFill sets Max (at least 1) and refills Current.
func (h *Health) SetMaxAndFill(max int) {
	if h == nil {
		return
	}
	if max < 1 {
		max = 1
	}
	h.Max = max
	h.Current = max
	h.changed()
}

// CurrentHP returns the current health value.
func (h *Health) CurrentHP() int {
	if h == nil {
		return 0
	}
	return h.Current
}

// MaxHP returns the maximum health value.
func (h *Health) MaxHP() int {
	if h == nil {
		return 0
	}
	return h.Max
}

func (h *Health) changed() {
	if h.OnChanged != nil {
		h.OnChanged(h.Current, h.Max)
	}
}
