package mutate

// Action is one of SaveNote, AddSlot, UpdateActivityText or UpdateTime.
// The set is closed: the marker method is unexported, and Apply switches over
// every variant.
type Action interface {
	Kind() string
	isAction()
}

// SaveNote sets the day's note, or removes it when Text is empty.
type SaveNote struct {
	Text string
}

// AddSlot appends a new empty slot with a synthesized "00:00[-n]" time key.
type AddSlot struct{}

// UpdateActivityText sets the text of TimeKey, creating the slot if needed.
type UpdateActivityText struct {
	TimeKey string
	NewText string
}

// UpdateTime renames OldTimeKey to NewTimeKey, keeping text and order.
type UpdateTime struct {
	OldTimeKey string
	NewTimeKey string
}

func (SaveNote) Kind() string           { return "save_note" }
func (AddSlot) Kind() string            { return "add_slot" }
func (UpdateActivityText) Kind() string { return "update_activity_text" }
func (UpdateTime) Kind() string         { return "update_time" }

func (SaveNote) isAction()           {}
func (AddSlot) isAction()            {}
func (UpdateActivityText) isAction() {}
func (UpdateTime) isAction()         {}

// User-facing confirmations, one per action that has one.
const (
	MsgSlotAdded       = "New slot added!"
	MsgActivityUpdated = "Activity updated!"
	MsgTimeUpdated     = "Time updated!"
	MsgReordered       = "Activities reordered!"
	MsgDeleted         = "Activity deleted."
)
