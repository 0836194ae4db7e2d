package effect

import (
	"math"

	"github.com/decker502/rainfx/pkg/types"
)

// 发射器固定参数
const (
	// EffectName 宿主场景中的对象名称
	EffectName = "RainParticleSystem"

	// DefaultDuration 系统周期（秒），Loop=true 时循环播放
	DefaultDuration = 10.0

	// DefaultStartSize 粒子初始尺寸
	DefaultStartSize = 0.15

	// DefaultFallSpeed 生命周期内叠加的向下速度（单位/秒）
	//
	// 注意：该值与 EffectParameters.Speed（初速度）和 GravityModifier 都无关，
	// 所有历史版本都写死为 8。保留为具名常量，可通过 Builder.FallSpeed 覆盖，
	// 是否应由 Speed 推导待产品确认。
	DefaultFallSpeed = 8.0

	// DefaultMaxParticles 宿主引擎的同时存活粒子上限
	DefaultMaxParticles = 1000

	// MaxEmissionRate 发射率上限（粒子/秒），更大的值（包括 +Inf）按此值处理
	MaxEmissionRate = 100000.0
)

// ShapeType 发射区域形状
type ShapeType int

const (
	// ShapeBox 轴对齐盒体
	ShapeBox ShapeType = iota
)

// String 返回形状名称
func (s ShapeType) String() string {
	switch s {
	case ShapeBox:
		return "Box"
	default:
		return "Unknown"
	}
}

// RenderMode 渲染模式
type RenderMode int

const (
	// RenderBillboard 粒子始终朝向相机
	RenderBillboard RenderMode = iota
)

// String 返回渲染模式名称
func (m RenderMode) String() string {
	switch m {
	case RenderBillboard:
		return "Billboard"
	default:
		return "Unknown"
	}
}

// Shape 发射区域
//
// Extents 的某个分量为 0 时盒体退化为平面，全部为 0 时退化为点。
type Shape struct {
	Type    ShapeType
	Center  types.Vec3
	Extents types.Vec3
}

// VelocityOverLifetime 生命周期速度覆盖
type VelocityOverLifetime struct {
	Enabled  bool
	Velocity types.Vec3
}

// RenderSettings 渲染设置
//
// Shader 只是名称，材质由 Controller 在创建时通过宿主解析，配置本身不持有宿主资源。
type RenderSettings struct {
	Mode   RenderMode
	Shader string
}

// EmitterConfiguration 完整的发射器配置
//
// 值类型，构建后不再修改；不引用任何宿主资源。
type EmitterConfiguration struct {
	Name                 string
	Duration             float64
	Loop                 bool
	Prewarm              bool
	Shape                Shape
	EmissionRate         float64
	StartSize            float64
	StartSpeed           float64
	StartLifetime        float64
	VelocityOverLifetime VelocityOverLifetime
	GravityModifier      float64
	MaxParticles         int
	Render               RenderSettings
}

// Builder 发射器配置生成器
type Builder struct {
	// FallSpeed 生命周期内叠加的向下速度，见 DefaultFallSpeed
	FallSpeed float64
}

// NewBuilder 创建使用默认常量的 Builder
func NewBuilder() Builder {
	return Builder{FallSpeed: DefaultFallSpeed}
}

// Build 使用默认 Builder 生成配置
func Build(params EffectParameters) EmitterConfiguration {
	return NewBuilder().Build(params)
}

// Build 根据参数生成发射器配置
//
// 纯函数，对任何输入都返回配置，不返回错误。数值归一化规则：
//   - Extents: 负数或 NaN 分量视为 0（盒体退化为平面或点）
//   - EmissionRate: <= 0 或 NaN 视为 0（发射器存在但不产生粒子），超过 MaxEmissionRate 截断
//   - Speed: 负数或 NaN 视为 0
//   - Lifetime: <= 0 或 NaN 使用 DefaultLifetime
//   - GravityModifier: NaN 视为 0
//   - Material: 未知值按 unlit 处理
func (b Builder) Build(params EffectParameters) EmitterConfiguration {
	fallSpeed := b.FallSpeed
	if math.IsNaN(fallSpeed) {
		fallSpeed = DefaultFallSpeed
	}

	lifetime := params.Lifetime
	if math.IsNaN(lifetime) || lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	return EmitterConfiguration{
		Name:     EffectName,
		Duration: DefaultDuration,
		Loop:     true,
		Prewarm:  true,
		Shape: Shape{
			Type:    ShapeBox,
			Center:  params.Position,
			Extents: clampExtents(params.Extents),
		},
		EmissionRate:  math.Min(nonNegative(params.EmissionRate), MaxEmissionRate),
		StartSize:     DefaultStartSize,
		StartSpeed:    nonNegative(params.Speed),
		StartLifetime: lifetime,
		VelocityOverLifetime: VelocityOverLifetime{
			Enabled:  true,
			Velocity: types.V3(0, -fallSpeed, 0),
		},
		GravityModifier: zeroIfNaN(params.GravityModifier),
		MaxParticles:    DefaultMaxParticles,
		Render: RenderSettings{
			Mode:   RenderBillboard,
			Shader: params.Material.Shader(),
		},
	}
}

func clampExtents(v types.Vec3) types.Vec3 {
	return types.V3(nonNegative(v.X), nonNegative(v.Y), nonNegative(v.Z))
}

func nonNegative(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return f
}

func zeroIfNaN(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
