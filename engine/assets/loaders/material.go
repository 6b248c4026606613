package loaders

import (
	"fmt"

	"github.com/helix-engine/helix/engine/assets"
)

// MaterialLoader builds materials from the inline data table of an
// object record. Materials reference their diffuse texture by asset id,
// so the handle stays unresolved until the texture is first needed.
type MaterialLoader struct{}

func (ml *MaterialLoader) Kind() string {
	return "material"
}

func (ml *MaterialLoader) Load(dir string, obj assets.ObjectRecord) (assets.Asset, error) {
	if obj.Data == nil {
		return nil, fmt.Errorf("material %q has no data table", obj.Name)
	}
	data := obj.Data
	if obj.Name != "" {
		data["Name"] = obj.Name
	}
	a, err := assets.DecodeInlineKind("material", data)
	if err != nil {
		return nil, err
	}
	return a, nil
}
