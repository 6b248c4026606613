package assets

import (
	"fmt"
	"sync"

	"github.com/helix-engine/helix/engine/core"
)

// Record is the persisted form of a handle. AssetID is the canonical
// string form of the identity; FileID is omitted when zero. Instance is
// only present for runtime resources, which have no persisted id and
// therefore embed their fully serialized object inline.
type Record struct {
	AssetID  string                 `toml:"AssetID,omitempty" json:"AssetID,omitempty"`
	FileID   uint16                 `toml:"FileID,omitempty" json:"FileID,omitempty"`
	Instance map[string]interface{} `toml:"Instance,omitempty" json:"Instance,omitempty"`
}

// InlineEncoder is implemented by asset types that can be embedded
// inline in a handle record. The kind tag selects the decoder on the
// way back in.
type InlineEncoder interface {
	Asset
	InlineKind() string
	EncodeInline() (map[string]interface{}, error)
}

// InlineDecoder reconstructs a runtime resource from its inline form.
type InlineDecoder func(data map[string]interface{}) (Asset, error)

var inlineMu sync.RWMutex
var inlineDecoders = map[string]InlineDecoder{}

// RegisterInlineKind registers a decoder for inline instances of the
// given kind. Asset types register themselves in init.
func RegisterInlineKind(kind string, dec InlineDecoder) {
	inlineMu.Lock()
	defer inlineMu.Unlock()
	inlineDecoders[kind] = dec
}

func inlineDecoder(kind string) (InlineDecoder, bool) {
	inlineMu.RLock()
	defer inlineMu.RUnlock()
	dec, ok := inlineDecoders[kind]
	return dec, ok
}

// DecodeInlineKind runs the registered decoder for a kind directly.
// File loaders that share the inline format use this.
func DecodeInlineKind(kind string, data map[string]interface{}) (Asset, error) {
	dec, ok := inlineDecoder(kind)
	if !ok {
		return nil, fmt.Errorf("no inline decoder registered for kind %q", kind)
	}
	return dec(data)
}

// EncodeRecord serializes a reference. Persisted identities round-trip
// exactly; runtime resources round-trip by value and come back with a
// fresh in-memory identity.
func EncodeRecord(r Ref) (Record, error) {
	id, fileID := r.Identity()
	if !id.IsZero() {
		return Record{AssetID: id.String(), FileID: fileID}, nil
	}

	inst := r.Instance()
	if inst == nil {
		// Explicit-null.
		return Record{}, nil
	}

	enc, ok := inst.(InlineEncoder)
	if !ok {
		return Record{}, fmt.Errorf("runtime resource %T cannot be embedded inline", inst)
	}
	data, err := enc.EncodeInline()
	if err != nil {
		return Record{}, err
	}
	data["Kind"] = enc.InlineKind()
	return Record{Instance: data}, nil
}

// DecodeRecord reconstructs a reference from its persisted form. A
// malformed AssetID fails with a DeserializationError and must abort
// loading of the containing object.
func DecodeRecord(rec Record, into Ref) error {
	if rec.AssetID != "" {
		id, err := ParseID(rec.AssetID)
		if err != nil {
			return err
		}
		into.Rebind(id, rec.FileID)
		return nil
	}

	if rec.Instance != nil {
		kind, _ := rec.Instance["Kind"].(string)
		dec, ok := inlineDecoder(kind)
		if !ok {
			return &core.DeserializationError{
				Field: "Instance.Kind",
				Value: kind,
				Err:   fmt.Errorf("no inline decoder registered"),
			}
		}
		obj, err := dec(rec.Instance)
		if err != nil {
			return err
		}
		into.Adopt(obj)
		return nil
	}

	into.Adopt(nil)
	return nil
}
