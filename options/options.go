package options

type StudioOptions struct {
	Help         *bool
	Mode         *string // "live" or "record"
	Width        *int
	Height       *int
	ShaderFile   *string // fragment body to load and watch; empty uses the store contents
	Seed         *int    // generate the initial shader from this seed when >= 0
	PresetsFile  *string // YAML preset library loaded at start and written on save
	SettingsFile *string // overrides the settings file in the user config dir
	Duration     *float64
	FPS          *int // 0 uses the fps from settings
	OutputFile   *string
	Codec        *string
	StatsFile    *string // CSV file receiving frame timing summaries
	AudioInput   *string // "off" or "mic"; empty uses settings
}
