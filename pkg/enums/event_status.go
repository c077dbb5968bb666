package enums

// EventStatus tracks event publication state.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventArchived  EventStatus = "archived"
)

// IsValid reports whether the status is one of the known values.
func (s EventStatus) IsValid() bool {
	switch s {
	case EventDraft, EventPublished, EventArchived:
		return true
	default:
		return false
	}
}
