// Package config loads TOML or YAML settings onto per-variant defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/parameter"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Engine     EngineConfig     `toml:"engine" yaml:"engine"`
	Flock      FlockConfig      `toml:"flock" yaml:"flock"`
	Drift      DriftConfig      `toml:"drift" yaml:"drift"`
	Render     RenderConfig     `toml:"render" yaml:"render"`
	Background BackgroundConfig `toml:"background" yaml:"background"`
	Audio      AudioConfig      `toml:"audio" yaml:"audio"`
	Ingest     IngestConfig     `toml:"ingest" yaml:"ingest"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
}

type EngineConfig struct {
	Variant       string        `toml:"variant" yaml:"variant"` // "flock" or "drift"
	Capacity      int           `toml:"capacity" yaml:"capacity"`
	FrameInterval time.Duration `toml:"frame_interval" yaml:"frame_interval"`
	MaxFrameDelta time.Duration `toml:"max_frame_delta" yaml:"max_frame_delta"`
	DecodeWorkers int           `toml:"decode_workers" yaml:"decode_workers"`
	DecodeTimeout time.Duration `toml:"decode_timeout" yaml:"decode_timeout"`
	MaxDimension  int           `toml:"max_dimension" yaml:"max_dimension"`
	Noise         string        `toml:"noise" yaml:"noise"` // "perlin" or "sine"
	Seed          int64         `toml:"seed" yaml:"seed"`   // 0 picks a time-based seed
}

type FlockConfig struct {
	SeparationRadius float64   `toml:"separation_radius" yaml:"separation_radius"`
	SeparationWeight float64   `toml:"separation_weight" yaml:"separation_weight"`
	AlignmentRadius  float64   `toml:"alignment_radius" yaml:"alignment_radius"`
	AlignmentWeight  float64   `toml:"alignment_weight" yaml:"alignment_weight"`
	CohesionRadius   float64   `toml:"cohesion_radius" yaml:"cohesion_radius"`
	CohesionWeight   float64   `toml:"cohesion_weight" yaml:"cohesion_weight"`
	Margin           float64   `toml:"margin" yaml:"margin"`
	SpawnSpeed       float64   `toml:"spawn_speed" yaml:"spawn_speed"`
	SpeedChoices     []float64 `toml:"speed_choices" yaml:"speed_choices"`
	SpeedWeights     []float64 `toml:"speed_weights" yaml:"speed_weights"`
	CellSize         float64   `toml:"cell_size" yaml:"cell_size"`
	MinSize          float64   `toml:"min_size" yaml:"min_size"`
	MaxSize          float64   `toml:"max_size" yaml:"max_size"`
}

type DriftConfig struct {
	Pad          float64 `toml:"pad" yaml:"pad"`
	SpeedScale   float64 `toml:"speed_scale" yaml:"speed_scale"`
	VelMin       float64 `toml:"vel_min" yaml:"vel_min"`
	VelSpan      float64 `toml:"vel_span" yaml:"vel_span"`
	BaseYMin     float64 `toml:"base_y_min" yaml:"base_y_min"` // fraction of height
	BaseYSpan    float64 `toml:"base_y_span" yaml:"base_y_span"`
	SizeMin      float64 `toml:"size_min" yaml:"size_min"` // fraction of height
	SizeSpan     float64 `toml:"size_span" yaml:"size_span"`
	YNoise       float64 `toml:"y_noise" yaml:"y_noise"`
	OpacityBase  float64 `toml:"opacity_base" yaml:"opacity_base"`
	OpacityNoise float64 `toml:"opacity_noise" yaml:"opacity_noise"`
	ScaleNoise   float64 `toml:"scale_noise" yaml:"scale_noise"`
}

// EffectConfig is one entry of the render effect chain
type EffectConfig struct {
	Kind     string        `toml:"kind" yaml:"kind"` // fade, shrink, grayscale, tint, neighbor_size
	Law      string        `toml:"law" yaml:"law"`   // none, linear, exponential
	Rate     float64       `toml:"rate" yaml:"rate"`
	HalfLife time.Duration `toml:"half_life" yaml:"half_life"`
	Floor    float64       `toml:"floor" yaml:"floor"`
}

type RenderConfig struct {
	Backdrop string         `toml:"backdrop" yaml:"backdrop"`
	Blend    string         `toml:"blend" yaml:"blend"`
	Square   bool           `toml:"square" yaml:"square"`
	Effects  []EffectConfig `toml:"effects" yaml:"effects"`
	HUD      bool           `toml:"hud" yaml:"hud"`
	Color    string         `toml:"color" yaml:"color"` // auto, truecolor, 256
}

type BackgroundConfig struct {
	Path string  `toml:"path" yaml:"path"` // frame directory, GIF or still image
	FPS  float64 `toml:"fps" yaml:"fps"`
}

type AudioConfig struct {
	Enabled    bool    `toml:"enabled" yaml:"enabled"`
	Volume     float64 `toml:"volume" yaml:"volume"`
	SampleRate int     `toml:"sample_rate" yaml:"sample_rate"`
}

type IngestConfig struct {
	Stdin        bool          `toml:"stdin" yaml:"stdin"`
	WatchDir     string        `toml:"watch_dir" yaml:"watch_dir"`
	PollInterval time.Duration `toml:"poll_interval" yaml:"poll_interval"`
}

type LoggingConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Level   string `toml:"level" yaml:"level"`
	Format  string `toml:"format" yaml:"format"` // "json" or "console"
	File    string `toml:"file" yaml:"file"`
}

// Load reads path onto the defaults of the selected variant
// A non-empty variant overrides engine.variant from the file
// An empty path returns the defaults
func Load(path, variant string) (*Config, error) {
	if path == "" {
		if variant == "" {
			variant = VariantFlock
		}
		cfg := Default(variant)
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	unmarshal, err := decoderFor(path)
	if err != nil {
		return nil, err
	}

	// Peek the variant so the file lands on the right defaults
	if variant == "" {
		var peek struct {
			Engine struct {
				Variant string `toml:"variant" yaml:"variant"`
			} `toml:"engine" yaml:"engine"`
		}
		if err := unmarshal(data, &peek); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		variant = peek.Engine.Variant
		if variant == "" {
			variant = VariantFlock
		}
	}

	cfg := Default(variant)
	if err := unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Engine.Variant = variant
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decoderFor(path string) (func([]byte, any) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml", "":
		return toml.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	}
	return nil, fmt.Errorf("config %s: unsupported extension", path)
}

// Kind returns the motion kind of the configured variant
func (c *Config) Kind() entity.Kind {
	k, _ := entity.ParseKind(c.Engine.Variant)
	return k
}

// Validate checks ranges that would otherwise surface as panics or silent misbehavior
func (c *Config) Validate() error {
	invalid := func(field string, v any) error {
		return fmt.Errorf("%w: %s = %v", ErrInvalid, field, v)
	}

	e := c.Engine
	if _, ok := entity.ParseKind(e.Variant); !ok {
		return invalid("engine.variant", e.Variant)
	}
	if e.Capacity < 1 {
		return invalid("engine.capacity", e.Capacity)
	}
	if e.FrameInterval <= 0 {
		return invalid("engine.frame_interval", e.FrameInterval)
	}
	if e.MaxFrameDelta < e.FrameInterval {
		return invalid("engine.max_frame_delta", e.MaxFrameDelta)
	}
	if e.DecodeWorkers < 1 {
		return invalid("engine.decode_workers", e.DecodeWorkers)
	}
	if e.DecodeTimeout <= 0 {
		return invalid("engine.decode_timeout", e.DecodeTimeout)
	}
	if e.Noise != "perlin" && e.Noise != "sine" {
		return invalid("engine.noise", e.Noise)
	}

	f := c.Flock
	if f.SeparationRadius < 0 || f.AlignmentRadius < 0 || f.CohesionRadius < 0 {
		return invalid("flock radii", [3]float64{f.SeparationRadius, f.AlignmentRadius, f.CohesionRadius})
	}
	if len(f.SpeedChoices) == 0 {
		return invalid("flock.speed_choices", f.SpeedChoices)
	}
	if len(f.SpeedWeights) != 0 && len(f.SpeedWeights) != len(f.SpeedChoices) {
		return invalid("flock.speed_weights", f.SpeedWeights)
	}
	for _, s := range f.SpeedChoices {
		if s <= 0 {
			return invalid("flock.speed_choices", f.SpeedChoices)
		}
	}
	if f.CellSize <= 0 {
		return invalid("flock.cell_size", f.CellSize)
	}
	if f.MinSize <= 0 || f.MaxSize < f.MinSize {
		return invalid("flock.min_size/max_size", [2]float64{f.MinSize, f.MaxSize})
	}

	d := c.Drift
	if d.Pad < 0 {
		return invalid("drift.pad", d.Pad)
	}
	if d.VelMin < 0 || d.VelSpan < 0 || d.SizeMin <= 0 || d.SizeSpan < 0 {
		return invalid("drift sampling", d)
	}

	if _, err := c.Backdrop(); err != nil {
		return invalid("render.backdrop", c.Render.Backdrop)
	}
	if _, err := c.BlendMode(); err != nil {
		return invalid("render.blend", c.Render.Blend)
	}
	if _, err := c.Effects(); err != nil {
		return fmt.Errorf("%w: render.effects: %v", ErrInvalid, err)
	}
	switch c.Render.Color {
	case "", "auto", "truecolor", "256":
	default:
		return invalid("render.color", c.Render.Color)
	}

	if c.Background.FPS <= 0 {
		return invalid("background.fps", c.Background.FPS)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return invalid("audio.volume", c.Audio.Volume)
	}
	if c.Audio.SampleRate <= 0 {
		return invalid("audio.sample_rate", c.Audio.SampleRate)
	}
	if c.Ingest.WatchDir != "" && c.Ingest.PollInterval <= 0 {
		return invalid("ingest.poll_interval", c.Ingest.PollInterval)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return invalid("logging.format", c.Logging.Format)
	}
	return nil
}

// Variant names
const (
	VariantFlock = "flock"
	VariantDrift = "drift"
)

// Default returns the preset for variant; unknown names get flock defaults with the name kept for Validate
func Default(variant string) *Config {
	cfg := &Config{
		Engine: EngineConfig{
			Variant:       variant,
			Capacity:      parameter.FlockCapacity,
			FrameInterval: parameter.FrameUpdateInterval,
			MaxFrameDelta: parameter.MaxFrameDelta,
			DecodeWorkers: parameter.DecodeWorkers,
			DecodeTimeout: parameter.DecodeTimeout,
			MaxDimension:  parameter.MaxVisualDimension,
			Noise:         "perlin",
		},
		Flock: FlockConfig{
			SeparationRadius: parameter.SeparationRadius,
			SeparationWeight: parameter.SeparationWeight,
			AlignmentRadius:  parameter.AlignmentRadius,
			AlignmentWeight:  parameter.AlignmentWeight,
			CohesionRadius:   parameter.CohesionRadius,
			CohesionWeight:   parameter.CohesionWeight,
			Margin:           parameter.FlockMargin,
			SpawnSpeed:       parameter.FlockSpawnSpeed,
			SpeedChoices:     append([]float64(nil), parameter.FlockSpeedChoices...),
			SpeedWeights:     append([]float64(nil), parameter.FlockSpeedWeights...),
			CellSize:         parameter.GridCellSize,
			MinSize:          parameter.FlockMinSize,
			MaxSize:          parameter.FlockMaxSize,
		},
		Drift: DriftConfig{
			Pad:          parameter.DriftPad,
			SpeedScale:   parameter.DriftSpeedScale,
			VelMin:       parameter.DriftVelMin,
			VelSpan:      parameter.DriftVelSpan,
			BaseYMin:     parameter.DriftBaseYMin,
			BaseYSpan:    parameter.DriftBaseYSpan,
			SizeMin:      parameter.DriftSizeMin,
			SizeSpan:     parameter.DriftSizeSpan,
			YNoise:       parameter.DriftYNoise,
			OpacityBase:  parameter.DriftOpacityBase,
			OpacityNoise: parameter.DriftOpacityNoise,
			ScaleNoise:   parameter.DriftScaleNoise,
		},
		Render: RenderConfig{
			Backdrop: parameter.BackdropColor,
			Blend:    "alpha",
			Square:   true,
			Effects:  []EffectConfig{{Kind: "neighbor_size"}},
			Color:    "auto",
		},
		Background: BackgroundConfig{FPS: 12},
		Audio: AudioConfig{
			Volume:     0.3,
			SampleRate: 44100,
		},
		Ingest: IngestConfig{PollInterval: 2 * time.Second},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   "logs/sketchwall.log",
		},
	}

	if k, ok := entity.ParseKind(variant); ok && k == entity.Drift {
		cfg.Engine.Capacity = parameter.DriftCapacity
		cfg.Engine.Noise = "sine"
		cfg.Render.Square = false
		cfg.Render.Effects = []EffectConfig{
			{Kind: "grayscale", Law: "linear", Rate: parameter.GrayRate, Floor: parameter.GrayFloor},
			{Kind: "shrink", Law: "linear", Rate: parameter.ShrinkRate, Floor: parameter.ShrinkFloor},
		}
	}
	return cfg
}
