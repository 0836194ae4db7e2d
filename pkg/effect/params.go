// Package effect 负责雨效果的发射器配置生成与生命周期管理。
//
// 包含两个部分：
//   - Builder：纯函数，把用户参数（EffectParameters）转换为完整的发射器配置（EmitterConfiguration）
//   - Controller：持有至多一个效果实例，通过 Host 接口在宿主引擎中创建、开关、销毁发射器
//
// 粒子级别的模拟（发射、运动、渲染）由宿主引擎负责，本包只处理发射器级别的配置和生命周期。
package effect

import (
	"errors"
	"fmt"
	"math"

	"github.com/decker502/rainfx/pkg/types"
)

// MaterialKind 粒子材质类型
type MaterialKind string

const (
	// MaterialUnlit 不受光照影响的材质（Particles/Standard Unlit）
	MaterialUnlit MaterialKind = "unlit"
	// MaterialLit 受光照影响的材质（Particles/Standard Surface）
	MaterialLit MaterialKind = "lit"
)

// 宿主引擎中的着色器名称
const (
	ShaderUnlit = "Particles/Standard Unlit"
	ShaderLit   = "Particles/Standard Surface"
)

// Shader 返回材质类型对应的着色器名称，未知类型按 unlit 处理
func (k MaterialKind) Shader() string {
	if k == MaterialLit {
		return ShaderLit
	}
	return ShaderUnlit
}

// Valid 检查材质类型是否为已知值
func (k MaterialKind) Valid() bool {
	return k == MaterialUnlit || k == MaterialLit
}

// 默认参数
const (
	DefaultEmissionRate    = 150.0
	DefaultSpeed           = 12.0
	DefaultLifetime        = 5.0
	DefaultGravityModifier = 0.3
)

// EffectParameters 雨效果的用户参数
//
// 所有字段都有默认值（见 DefaultEffectParameters），可以单独覆盖。
type EffectParameters struct {
	Position        types.Vec3   // 发射器位置（即发射盒中心）
	Extents         types.Vec3   // 发射盒尺寸
	EmissionRate    float64      // 每秒发射粒子数
	Speed           float64      // 粒子初速度
	Lifetime        float64      // 粒子生命周期（秒）
	GravityModifier float64      // 重力系数
	Material        MaterialKind // 材质类型
}

// DefaultEffectParameters 返回默认参数（与 runtime 预设一致）
func DefaultEffectParameters() EffectParameters {
	return EffectParameters{
		Position:        types.V3(0, 15, 0),
		Extents:         types.V3(50, 1, 50),
		EmissionRate:    DefaultEmissionRate,
		Speed:           DefaultSpeed,
		Lifetime:        DefaultLifetime,
		GravityModifier: DefaultGravityModifier,
		Material:        MaterialUnlit,
	}
}

// Validate 检查参数是否合理
//
// Build 不依赖此方法：Build 对任何输入都会给出配置（见 Builder.Build 的归一化规则）。
// Validate 用于配置加载和工具层提前发现问题，所有问题通过 errors.Join 一次性返回。
func (p EffectParameters) Validate() error {
	var errs []error

	if !p.Position.IsFinite() {
		errs = append(errs, fmt.Errorf("position %v is not finite", p.Position))
	}
	for _, axis := range []struct {
		name  string
		value float64
	}{
		{"x", p.Extents.X},
		{"y", p.Extents.Y},
		{"z", p.Extents.Z},
	} {
		if math.IsNaN(axis.value) || axis.value <= 0 {
			errs = append(errs, fmt.Errorf("extents.%s must be positive, got %v", axis.name, axis.value))
		}
	}
	if math.IsNaN(p.EmissionRate) || p.EmissionRate <= 0 {
		errs = append(errs, fmt.Errorf("emission rate must be positive, got %v (emitter will produce nothing)", p.EmissionRate))
	} else if p.EmissionRate > MaxEmissionRate {
		errs = append(errs, fmt.Errorf("emission rate must not exceed %v, got %v", MaxEmissionRate, p.EmissionRate))
	}
	if math.IsNaN(p.Speed) || math.IsInf(p.Speed, 0) || p.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be positive, got %v", p.Speed))
	}
	if math.IsNaN(p.Lifetime) || math.IsInf(p.Lifetime, 0) || p.Lifetime <= 0 {
		errs = append(errs, fmt.Errorf("lifetime must be positive, got %v", p.Lifetime))
	}
	if math.IsNaN(p.GravityModifier) || math.IsInf(p.GravityModifier, 0) {
		errs = append(errs, fmt.Errorf("gravity modifier must be finite, got %v", p.GravityModifier))
	}
	if p.Material != "" && !p.Material.Valid() {
		errs = append(errs, fmt.Errorf("unknown material %q", p.Material))
	}

	return errors.Join(errs...)
}

// 预设名称
//
// 对应四种入口：编辑器菜单命令、自动启动组件、手动设置组件、静态工厂
const (
	PresetEditor  = "editor"
	PresetRuntime = "runtime"
	PresetSetup   = "setup"
	PresetSimple  = "simple"
)

// Preset 返回指定预设的参数
//
// simple 预设的位置和尺寸由调用者提供，这里给出与 runtime 相同的占位值。
func Preset(name string) (EffectParameters, bool) {
	p := DefaultEffectParameters()
	switch name {
	case PresetEditor, PresetRuntime, "":
		return p, true
	case PresetSetup:
		p.Position = types.V3(0, 10, 0)
		p.Extents = types.V3(20, 1, 20)
		p.Material = MaterialLit
		return p, true
	case PresetSimple:
		p.Material = MaterialLit
		return p, true
	default:
		return EffectParameters{}, false
	}
}

// PresetNames 返回所有预设名称
func PresetNames() []string {
	return []string{PresetEditor, PresetRuntime, PresetSetup, PresetSimple}
}
