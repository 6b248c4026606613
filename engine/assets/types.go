package assets

import (
	"fmt"
)

// Texture is a decoded image asset.
type Texture struct {
	Meta
	Name         string
	Width        uint32
	Height       uint32
	ChannelCount uint8
	Pixels       []uint8
}

// Shader is a compiled shader module blob (SPIR-V).
type Shader struct {
	Meta
	Name  string
	Stage string
	SPIRV []byte
}

// FontGlyph describes a single glyph in a bitmap font atlas.
type FontGlyph struct {
	Codepoint rune
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
}

// BitmapFont is a pre-rasterized font asset.
type BitmapFont struct {
	Meta
	Face       string
	Size       uint32
	LineHeight int32
	Baseline   int32
	AtlasSizeX int32
	AtlasSizeY int32
	Pages      []string
	Glyphs     []FontGlyph
}

// Material ties together surface parameters and a diffuse texture
// reference. Materials are small enough to be embedded inline in handle
// records, so they double as the runtime-resource example.
type Material struct {
	Meta
	Name         string
	DiffuseColor [4]float32
	Shininess    float32
	DiffuseMap   *Handle[*Texture]
}

const materialKind = "material"

func init() {
	RegisterInlineKind(materialKind, decodeInlineMaterial)
}

func (m *Material) InlineKind() string {
	return materialKind
}

func (m *Material) EncodeInline() (map[string]interface{}, error) {
	data := map[string]interface{}{
		"Name":         m.Name,
		"DiffuseColor": []interface{}{m.DiffuseColor[0], m.DiffuseColor[1], m.DiffuseColor[2], m.DiffuseColor[3]},
		"Shininess":    m.Shininess,
	}
	if m.DiffuseMap != nil {
		rec, err := EncodeRecord(m.DiffuseMap)
		if err != nil {
			return nil, err
		}
		data["DiffuseMap"] = map[string]interface{}{
			"AssetID": rec.AssetID,
			"FileID":  int64(rec.FileID),
		}
	}
	return data, nil
}

func decodeInlineMaterial(data map[string]interface{}) (Asset, error) {
	m := &Material{}
	m.Name, _ = data["Name"].(string)

	if raw, ok := data["DiffuseColor"].([]interface{}); ok {
		if len(raw) != 4 {
			return nil, fmt.Errorf("material %q: DiffuseColor needs 4 components, got %d", m.Name, len(raw))
		}
		for i, v := range raw {
			m.DiffuseColor[i] = float32(toFloat(v))
		}
	}
	m.Shininess = float32(toFloat(data["Shininess"]))

	if raw, ok := data["DiffuseMap"].(map[string]interface{}); ok {
		ref, _ := raw["AssetID"].(string)
		rec := Record{AssetID: ref, FileID: uint16(toInt(raw["FileID"]))}
		m.DiffuseMap = &Handle[*Texture]{}
		if err := DecodeRecord(rec, m.DiffuseMap); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// toFloat coerces the numeric types a TOML or JSON decoder produces.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toInt(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
