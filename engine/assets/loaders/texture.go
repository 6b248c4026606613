package loaders

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	// Registered image formats for image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/helix-engine/helix/engine/assets"
)

// TextureLoader decodes image files into Texture assets.
type TextureLoader struct{}

func (tl *TextureLoader) Kind() string {
	return "texture"
}

func (tl *TextureLoader) Load(dir string, obj assets.ObjectRecord) (assets.Asset, error) {
	if obj.Source == "" {
		return nil, fmt.Errorf("texture %q has no source file", obj.Name)
	}

	f, err := os.Open(filepath.Join(dir, obj.Source))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", obj.Source, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	pixels := rgba.Pix
	if flip, _ := obj.Data["flip_y"].(bool); flip {
		pixels = flipVertically(pixels, bounds.Dx(), bounds.Dy())
	}

	return &assets.Texture{
		Name:         obj.Name,
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		ChannelCount: 4,
		Pixels:       pixels,
	}, nil
}

func flipVertically(pixels []uint8, width, height int) []uint8 {
	stride := width * 4
	out := make([]uint8, len(pixels))
	for y := 0; y < height; y++ {
		src := pixels[y*stride : (y+1)*stride]
		copy(out[(height-1-y)*stride:], src)
	}
	return out
}
