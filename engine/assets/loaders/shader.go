package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/helix-engine/helix/engine/assets"
)

// ShaderLoader reads pre-compiled SPIR-V blobs.
type ShaderLoader struct{}

func (sl *ShaderLoader) Kind() string {
	return "shader"
}

func (sl *ShaderLoader) Load(dir string, obj assets.ObjectRecord) (assets.Asset, error) {
	if obj.Source == "" {
		return nil, fmt.Errorf("shader %q has no source file", obj.Name)
	}

	code, err := os.ReadFile(filepath.Join(dir, obj.Source))
	if err != nil {
		return nil, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader %q: %d bytes is not valid SPIR-V", obj.Source, len(code))
	}

	stage, _ := obj.Data["stage"].(string)
	return &assets.Shader{
		Name:  obj.Name,
		Stage: stage,
		SPIRV: code,
	}, nil
}
