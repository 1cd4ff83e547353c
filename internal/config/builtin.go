package config

// DefaultBuiltinLayout leaves windows where they are and only sizes new ones.
const DefaultBuiltinLayout = "float"

// BuiltinLayouts returns the built-in layout library.
//
// These are always available to users without needing to define them in YAML.
// Users can define additional custom layouts in their config file.
func BuiltinLayouts() map[string]Layout {
	return map[string]Layout{
		"float": {
			Mode: LayoutModeFloat,
			TileRegion: TileRegion{
				Type: RegionFull,
			},
		},
		"grid": {
			Mode: LayoutModeAuto,
			TileRegion: TileRegion{
				Type: RegionFull,
			},
			FlexibleLastRow: true,
		},
		"columns": {
			Mode: LayoutModeVertical,
			TileRegion: TileRegion{
				Type: RegionFull,
			},
		},
		"rows": {
			Mode: LayoutModeHorizontal,
			TileRegion: TileRegion{
				Type: RegionFull,
			},
		},
		"master-stack": {
			Mode: LayoutModeMasterStack,
			TileRegion: TileRegion{
				Type: RegionFull,
			},
			MasterStack: MasterStack{
				MasterWidthPercent: 55,
				MaxStackRows:       4,
				MaxStackCols:       2,
			},
		},
	}
}
