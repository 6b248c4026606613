package assets

import (
	"github.com/google/uuid"

	"github.com/helix-engine/helix/engine/core"
)

// ID is the persisted identity of an asset. The zero value means "no
// persisted identity": the referenced object only exists in memory.
type ID uuid.UUID

// NilID is the empty identity.
var NilID ID

// NewID returns a fresh random identity for a newly persisted asset.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical string form of an identity. A malformed
// string is a DeserializationError; callers must abort loading of the
// containing object rather than substitute a null reference.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, &core.DeserializationError{Field: "AssetID", Value: s, Err: err}
	}
	return ID(u), nil
}

func (id ID) IsZero() bool {
	return id == NilID
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}
