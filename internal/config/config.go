// Package config handles smoke demo configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Viewport  ViewportConfig  `yaml:"viewport"`
	Voxel     VoxelConfig     `yaml:"voxel"`
	Noise     NoiseConfig     `yaml:"noise"`
	Render    RenderConfig    `yaml:"render"`
	Composite CompositeConfig `yaml:"composite"`
	Decals    DecalConfig     `yaml:"decals"`
	Scene     SceneConfig     `yaml:"scene"`
	Output    OutputConfig    `yaml:"output"`
	Audio     AudioConfig     `yaml:"audio"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ViewportConfig holds window and image size settings.
type ViewportConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
	Workers    int  `yaml:"workers"` // 0 = one per CPU
}

// VoxelConfig holds the flood fill grid settings.
type VoxelConfig struct {
	BoundsExtent     [3]float32 `yaml:"bounds_extent"`
	Center           [3]float32 `yaml:"center"`
	VoxelSize        float32    `yaml:"voxel_size"`
	IntersectionBias float32    `yaml:"intersection_bias"`
	MaxRadius        [3]float32 `yaml:"max_radius"`
	GrowthSpeed      float32    `yaml:"growth_speed"`
	MaxFillSteps     int        `yaml:"max_fill_steps"`
	Connectivity     int        `yaml:"connectivity"` // 6 or 26
	Ease             string     `yaml:"ease"`
}

// NoiseConfig holds the noise volume settings.
type NoiseConfig struct {
	Resolution  int     `yaml:"resolution"`
	Octaves     int     `yaml:"octaves"`
	CellSize    int     `yaml:"cell_size"`
	Frequency   float32 `yaml:"frequency"`
	Persistence float32 `yaml:"persistence"`
	Warp        float32 `yaml:"warp"`
	Add         float32 `yaml:"add"`
	Invert      bool    `yaml:"invert"`
	Seed        uint32  `yaml:"seed"`
	AbsMode     string  `yaml:"abs_mode"` // none, while-summing, on-sum
	Clamp       bool    `yaml:"clamp"`
}

// RenderConfig holds the raymarch settings.
type RenderConfig struct {
	StepCount      int         `yaml:"step_count"`
	StepSize       float32     `yaml:"step_size"`
	LightStepCount int         `yaml:"light_step_count"`
	LightStepSize  float32     `yaml:"light_step_size"`
	VolumeDensity  float32     `yaml:"volume_density"`
	ShadowDensity  float32     `yaml:"shadow_density"`
	DensityFalloff float32     `yaml:"density_falloff"`
	Absorption     float32     `yaml:"absorption"`
	Scattering     float32     `yaml:"scattering"`
	Extinction     [3]float32  `yaml:"extinction"`
	SmokeColor     [3]float32  `yaml:"smoke_color"`
	Phase          string      `yaml:"phase"` // hg, mie, rayleigh
	Anisotropy     float32     `yaml:"anisotropy"`
	NoiseScale     float32     `yaml:"noise_scale"`
	NoiseStrength  float32     `yaml:"noise_strength"`
	NoiseWarp      float32     `yaml:"noise_warp"`
	NoiseScroll    [3]float32  `yaml:"noise_scroll"`
	AlphaThreshold float32     `yaml:"alpha_threshold"`
	Shape          ShapeConfig `yaml:"shape"`
	Slice          SliceConfig `yaml:"slice"`
}

// ShapeConfig holds the optional procedural volume.
type ShapeConfig struct {
	Kind     string     `yaml:"kind"` // none, sphere, box
	Offset   [3]float32 `yaml:"offset"`
	Size     [3]float32 `yaml:"size"`
	Softness float32    `yaml:"softness"`
}

// SliceConfig holds the density slice debug view.
type SliceConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Axis     int     `yaml:"axis"`
	Position float32 `yaml:"position"`
}

// CompositeConfig holds the upscale and blend settings.
type CompositeConfig struct {
	Resolution string  `yaml:"resolution"` // full, half, quarter
	Filter     string  `yaml:"filter"`     // bilinear, bicubic
	Sharpness  float32 `yaml:"sharpness"`
	DepthAware bool    `yaml:"depth_aware"`
	DebugView  string  `yaml:"debug_view"`
	DepthRange float32 `yaml:"depth_range"`
}

// DecalConfig holds the bullet hole pool settings.
type DecalConfig struct {
	Capacity int        `yaml:"capacity"`
	Speed    float32    `yaml:"speed"`
	Jitter   float32    `yaml:"jitter"`
	MaxRadii [2]float32 `yaml:"max_radii"`
	Depth    float32    `yaml:"depth"`
	Seed     uint64     `yaml:"seed"`
}

// SceneConfig selects the obstacle scene.
type SceneConfig struct {
	File            string      `yaml:"file"` // empty uses the built-in scene
	RaycastDistance float32     `yaml:"raycast_distance"`
	Trigger         *[3]float32 `yaml:"trigger,omitempty"` // overrides the scene trigger
}

// OutputConfig holds headless render settings.
type OutputConfig struct {
	Frames     int     `yaml:"frames"`
	FrameStep  float32 `yaml:"frame_step"` // seconds per frame
	Dir        string  `yaml:"dir"`
	EveryN     int     `yaml:"every_n"` // write every Nth frame
	DebugSlice bool    `yaml:"debug_slices"`
}

// AudioConfig holds audio settings.
type AudioConfig struct {
	MasterVolume float32 `yaml:"master_volume"`
	SFXVolume    float32 `yaml:"sfx_volume"`
	Muted        bool    `yaml:"muted"`
	DetonateWAV  string  `yaml:"detonate_wav"` // empty uses a generated burst
	FireWAV      string  `yaml:"fire_wav"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewport: ViewportConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Voxel: VoxelConfig{
			BoundsExtent:     [3]float32{3, 3, 3},
			Center:           [3]float32{0, 3, 0},
			VoxelSize:        0.25,
			IntersectionBias: 1,
			MaxRadius:        [3]float32{2.5, 2, 2.5},
			GrowthSpeed:      1,
			MaxFillSteps:     8,
			Connectivity:     26,
			Ease:             "quad-out",
		},
		Noise: NoiseConfig{
			Resolution:  128,
			Octaves:     4,
			CellSize:    32,
			Frequency:   2,
			Persistence: 0.5,
			Seed:        1,
			AbsMode:     "none",
			Clamp:       true,
		},
		Render: RenderConfig{
			StepCount:      96,
			StepSize:       0.08,
			LightStepCount: 6,
			LightStepSize:  0.25,
			VolumeDensity:  6,
			ShadowDensity:  1.5,
			DensityFalloff: 0.6,
			Absorption:     1,
			Scattering:     1,
			Extinction:     [3]float32{1, 0.97, 0.92},
			SmokeColor:     [3]float32{0.82, 0.83, 0.85},
			Phase:          "hg",
			Anisotropy:     0.3,
			NoiseScale:     0.12,
			NoiseStrength:  0.9,
			NoiseWarp:      0.5,
			NoiseScroll:    [3]float32{0.01, 0.03, 0.005},
			AlphaThreshold: 0.01,
			Shape: ShapeConfig{
				Kind:     "none",
				Size:     [3]float32{1, 1, 1},
				Softness: 0.25,
			},
		},
		Composite: CompositeConfig{
			Resolution: "half",
			Filter:     "bicubic",
			Sharpness:  0.5,
			DepthAware: true,
			DebugView:  "none",
			DepthRange: 30,
		},
		Decals: DecalConfig{
			Capacity: 8,
			Speed:    1,
			Jitter:   0.02,
			MaxRadii: [2]float32{0.35, 0.6},
			Depth:    15,
			Seed:     1,
		},
		Scene: SceneConfig{
			RaycastDistance: 50,
		},
		Output: OutputConfig{
			Frames:    90,
			FrameStep: 1.0 / 30,
			Dir:       "frames",
			EveryN:    1,
		},
		Audio: AudioConfig{
			MasterVolume: 0.8,
			SFXVolume:    0.8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
