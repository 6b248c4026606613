package loaders

import (
	"fmt"
	"path/filepath"

	"github.com/fzipp/bmfont"

	"github.com/helix-engine/helix/engine/assets"
)

// BitmapFontLoader imports AngelCode .fnt files.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Kind() string {
	return "bitmap_font"
}

func (fl *BitmapFontLoader) Load(dir string, obj assets.ObjectRecord) (assets.Asset, error) {
	if obj.Source == "" {
		return nil, fmt.Errorf("bitmap font %q has no source file", obj.Name)
	}

	font, err := bmfont.Load(filepath.Join(dir, obj.Source))
	if err != nil {
		return nil, fmt.Errorf("import bitmap font %q: %w", obj.Source, err)
	}
	desc := font.Descriptor

	out := &assets.BitmapFont{
		Face:       desc.Info.Face,
		Size:       uint32(desc.Info.Size),
		LineHeight: int32(desc.Common.LineHeight),
		Baseline:   int32(desc.Common.Base),
		AtlasSizeX: int32(desc.Common.ScaleW),
		AtlasSizeY: int32(desc.Common.ScaleH),
		Pages:      make([]string, 0, len(desc.Pages)),
		Glyphs:     make([]assets.FontGlyph, 0, len(desc.Chars)),
	}

	for _, p := range desc.Pages {
		out.Pages = append(out.Pages, p.File)
	}
	for _, g := range desc.Chars {
		out.Glyphs = append(out.Glyphs, assets.FontGlyph{
			Codepoint: g.ID,
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
		})
	}
	return out, nil
}
