package assets

// ObjectRecord is one entry in a multi-object asset file. The position
// in the objects array is the object's FileID; 0 is the primary object.
type ObjectRecord struct {
	Kind   string                 `toml:"kind"`
	Name   string                 `toml:"name"`
	Source string                 `toml:"source,omitempty"`
	Data   map[string]interface{} `toml:"data,omitempty"`
}

// assetFile is the on-disk shape of a <uuid>.asset document.
type assetFile struct {
	Objects []ObjectRecord `toml:"objects"`
}

// Loader turns one object record into a live asset. Loaders are
// registered with the database per kind.
type Loader interface {
	Kind() string
	// Load builds the asset. dir is the directory of the asset file, so
	// relative Source paths resolve against it.
	Load(dir string, obj ObjectRecord) (Asset, error)
}
