package router

import "github.com/spf13/afero"

// BuildState records which build artifacts exist under the serving root.
type BuildState struct {
	Production  bool // production output directory exists
	Index       bool // production index document exists
	Development bool // development artifact directory exists
}

// Detected is the startup build-state flag: either directory exists.
func (b BuildState) Detected() bool {
	return b.Production || b.Development
}

// Mode names what application routes currently resolve to.
func (b BuildState) Mode() string {
	switch {
	case b.Index:
		return "production"
	case b.Development:
		return "development"
	default:
		return "none"
	}
}

// DetectBuildState inspects fs for the layout's build directories.
func DetectBuildState(fs afero.Fs, layout Layout) BuildState {
	var b BuildState
	b.Production, _ = afero.Exists(fs, layout.OutPath())
	b.Index = isFile(fs, layout.IndexPath())
	b.Development, _ = afero.Exists(fs, layout.DevPath())
	return b
}
