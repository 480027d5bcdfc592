package dispatch

import "fmt"

// The board offers a fixed half-hour start-time grid. Keeping it server-side
// gives the drag-drop confirmation dialog one source of truth.
const (
	slotGridStartHour = 7
	slotGridEndHour   = 18

	// DefaultStartTime pre-fills the create confirmation when a job is
	// dropped onto a cell.
	DefaultStartTime = "08:00"
)

// SlotGrid returns the available start times from 07:00 to 18:00 in
// half-hour steps, formatted HH:MM.
func SlotGrid() []string {
	slots := make([]string, 0, (slotGridEndHour-slotGridStartHour)*2+1)
	for h := slotGridStartHour; h <= slotGridEndHour; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
		if h < slotGridEndHour {
			slots = append(slots, fmt.Sprintf("%02d:30", h))
		}
	}
	return slots
}
