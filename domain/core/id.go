package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types. Sessions are identified by plain UUIDs at the
// persistence boundary and need no domain alias.
type (
	VariableID ID
	ResultID   ID
)

// NewVariableID creates a new variable identifier
func NewVariableID() VariableID { return VariableID(NewID()) }

// NewResultID creates a new result identifier
func NewResultID() ResultID { return ResultID(NewID()) }

func (id VariableID) String() string { return ID(id).String() }
func (id ResultID) String() string   { return ID(id).String() }

// ParseVariableID parses a string into VariableID
func ParseVariableID(s string) (VariableID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("variable ID cannot be empty")
	}
	return VariableID(s), nil
}
