package checkpoint

// MaxCapacity is the largest slot list any view may ask for. Larger
// capacities are clamped.
const MaxCapacity = 100

// ClampCapacity limits capacity to MaxCapacity.
func ClampCapacity(capacity int) int {
	return min(capacity, MaxCapacity)
}

// ComputeSlots lays checkpoints (most recent first) out over exactly capacity
// slots. Checkpoints beyond capacity are ignored; missing ones leave empty slots.
func ComputeSlots(checkpoints []Checkpoint, capacity int) []Slot {
	capacity = ClampCapacity(capacity)
	if capacity <= 0 {
		return []Slot{}
	}

	slots := make([]Slot, capacity)
	for i := range slots {
		slots[i].Position = i + 1
		if i < len(checkpoints) {
			cp := checkpoints[i]
			slots[i].Checkpoint = &cp
		}
	}
	return slots
}
