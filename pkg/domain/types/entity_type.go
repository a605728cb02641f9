package types

import "fmt"

// EntityType tags the collaborator collection an embedding record was built from
type EntityType string

const (
	EntityNote     EntityType = "note"
	EntityGuide    EntityType = "guide"
	EntityFavorite EntityType = "favorite"
	EntityTask     EntityType = "task"
	EntityTemplate EntityType = "template"
	EntityTable    EntityType = "table"
	EntityAdHoc    EntityType = "adhoc"
)

// AllEntityTypes returns every entity type in rebuild order
func AllEntityTypes() []EntityType {
	return []EntityType{
		EntityNote,
		EntityGuide,
		EntityFavorite,
		EntityTask,
		EntityTemplate,
		EntityTable,
		EntityAdHoc,
	}
}

// IsValid checks if the entity type is valid
func (e EntityType) IsValid() bool {
	switch e {
	case EntityNote, EntityGuide, EntityFavorite, EntityTask, EntityTemplate, EntityTable, EntityAdHoc:
		return true
	default:
		return false
	}
}

func (e EntityType) String() string {
	return string(e)
}

// ParseEntityType parses a string into an EntityType
func ParseEntityType(s string) (EntityType, error) {
	e := EntityType(s)
	if !e.IsValid() {
		return "", fmt.Errorf("invalid entity type: %s", s)
	}
	return e, nil
}
