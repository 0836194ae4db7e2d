package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/types"
)

// RainConfig 雨效果工具的完整配置
//
// 配置文件位置: data/rain.yaml（也支持 .toml）
type RainConfig struct {
	Effect  EffectConfig  `yaml:"effect" toml:"effect"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Viewer  ViewerConfig  `yaml:"viewer" toml:"viewer"`
}

// EffectConfig 雨效果参数
//
// Preset 非空时先套用预设，文件中显式写出的字段再覆盖预设值。
type EffectConfig struct {
	Preset            string     `yaml:"preset" toml:"preset"`
	Position          types.Vec3 `yaml:"position" toml:"position"`
	Extents           types.Vec3 `yaml:"extents" toml:"extents"`
	EmissionRate      float64    `yaml:"emissionRate" toml:"emission_rate"`
	Speed             float64    `yaml:"speed" toml:"speed"`
	Lifetime          float64    `yaml:"lifetime" toml:"lifetime"`
	GravityModifier   float64    `yaml:"gravityModifier" toml:"gravity_modifier"`
	Material          string     `yaml:"material" toml:"material"`   // "unlit" 或 "lit"
	FallSpeed         float64    `yaml:"fallSpeed" toml:"fall_speed"` // 生命周期内附加的下落速度
	AutoCreateOnStart bool       `yaml:"autoCreateOnStart" toml:"auto_create_on_start"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // "json" 或 "console"
}

// ViewerConfig 预览窗口和场景存储配置
type ViewerConfig struct {
	Title         string `yaml:"title" toml:"title"`
	Width         int    `yaml:"width" toml:"width"`
	Height        int    `yaml:"height" toml:"height"`
	DrawBounds    bool   `yaml:"drawBounds" toml:"draw_bounds"`
	Seed          int64  `yaml:"seed" toml:"seed"`
	MaterialsFile string `yaml:"materialsFile" toml:"materials_file"`
	AppName       string `yaml:"appName" toml:"app_name"` // gdata 存储目录名
	Scene         string `yaml:"scene" toml:"scene"`
	SaveOnExit    bool   `yaml:"saveOnExit" toml:"save_on_exit"`
}

// DefaultRainConfig 返回默认配置（runtime 预设）
func DefaultRainConfig() *RainConfig {
	cfg := &RainConfig{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Viewer: ViewerConfig{
			Title:      "Rain Particle System",
			Width:      960,
			Height:     600,
			Seed:       1,
			AppName:    "rainfx",
			Scene:      "main",
			SaveOnExit: true,
		},
	}
	cfg.Effect.FallSpeed = effect.DefaultFallSpeed
	if err := cfg.Effect.ApplyPreset(effect.PresetRuntime); err != nil {
		panic(err)
	}
	return cfg
}

// LoadRainConfig 加载雨效果配置
//
// 根据扩展名选择格式：.toml 使用 TOML，其余按 YAML 解析。
// 文件内容覆盖在 DefaultRainConfig 之上，缺省字段保持默认值。
//
// 参数:
//   - path: 配置文件路径（如 "data/rain.yaml"）
//
// 返回:
//   - *RainConfig: 加载并验证后的配置
//   - error: 读取、解析或验证失败时返回错误
func LoadRainConfig(path string) (*RainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rain config: %w", err)
	}

	decode := yaml.Unmarshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		decode = toml.Unmarshal
	}

	cfg := DefaultRainConfig()
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rain config: %w", err)
	}

	// 预设作为底，再解析一次让显式字段覆盖预设
	if cfg.Effect.Preset != "" && cfg.Effect.Preset != effect.PresetRuntime {
		if err := cfg.Effect.ApplyPreset(cfg.Effect.Preset); err != nil {
			return nil, fmt.Errorf("invalid rain config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse rain config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rain config: %w", err)
	}
	return cfg, nil
}

// ApplyPreset 用预设覆盖效果参数（FallSpeed 和 AutoCreateOnStart 不受影响）
func (c *EffectConfig) ApplyPreset(name string) error {
	params, ok := effect.Preset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q (available: %s)", name, strings.Join(effect.PresetNames(), ", "))
	}
	c.Preset = name
	c.Position = params.Position
	c.Extents = params.Extents
	c.EmissionRate = params.EmissionRate
	c.Speed = params.Speed
	c.Lifetime = params.Lifetime
	c.GravityModifier = params.GravityModifier
	c.Material = string(params.Material)
	return nil
}

// Parameters 转换为效果参数
func (c EffectConfig) Parameters() effect.EffectParameters {
	return effect.EffectParameters{
		Position:        c.Position,
		Extents:         c.Extents,
		EmissionRate:    c.EmissionRate,
		Speed:           c.Speed,
		Lifetime:        c.Lifetime,
		GravityModifier: c.GravityModifier,
		Material:        effect.MaterialKind(c.Material),
	}
}

// Builder 返回按配置下落速度构建的 Builder
func (c EffectConfig) Builder() effect.Builder {
	return effect.Builder{FallSpeed: c.FallSpeed}
}

// Validate 验证配置有效性，返回所有问题的合并错误
func (c *RainConfig) Validate() error {
	var errs []error

	if c.Effect.Preset != "" {
		if _, ok := effect.Preset(c.Effect.Preset); !ok {
			errs = append(errs, fmt.Errorf("unknown preset %q", c.Effect.Preset))
		}
	}

	// 发射率为 0 合法（发射器存在但不产生粒子），这里只拒绝负值和 NaN
	e := c.Effect
	if !e.Position.IsFinite() {
		errs = append(errs, fmt.Errorf("position %v is not finite", e.Position))
	}
	if !e.Extents.IsFinite() || e.Extents.X < 0 || e.Extents.Y < 0 || e.Extents.Z < 0 {
		errs = append(errs, fmt.Errorf("extents must not be negative, got %v", e.Extents))
	}
	if math.IsNaN(e.EmissionRate) || e.EmissionRate < 0 || e.EmissionRate > effect.MaxEmissionRate {
		errs = append(errs, fmt.Errorf("emission rate must be in [0, %v], got %v", effect.MaxEmissionRate, e.EmissionRate))
	}
	if math.IsNaN(e.Speed) || math.IsInf(e.Speed, 0) || e.Speed < 0 {
		errs = append(errs, fmt.Errorf("speed must not be negative, got %v", e.Speed))
	}
	if math.IsNaN(e.Lifetime) || math.IsInf(e.Lifetime, 0) || e.Lifetime <= 0 {
		errs = append(errs, fmt.Errorf("lifetime must be positive, got %v", e.Lifetime))
	}
	if math.IsNaN(e.GravityModifier) || math.IsInf(e.GravityModifier, 0) {
		errs = append(errs, fmt.Errorf("gravity modifier must be finite, got %v", e.GravityModifier))
	}
	if !effect.MaterialKind(e.Material).Valid() {
		errs = append(errs, fmt.Errorf("unknown material %q", e.Material))
	}
	if math.IsNaN(e.FallSpeed) || math.IsInf(e.FallSpeed, 0) || e.FallSpeed < 0 {
		errs = append(errs, fmt.Errorf("fall speed must not be negative, got %v", c.Effect.FallSpeed))
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}

	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height))
	}

	return errors.Join(errs...)
}
