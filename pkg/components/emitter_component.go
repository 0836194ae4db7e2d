package components

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/decker502/rainfx/pkg/ecs"
	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/game"
)

// EmitterComponent 宿主引擎中的粒子发射器
//
// 由 host.Engine.ApplyEmitterConfig 根据 effect.EmitterConfiguration 创建，
// ParticleSystem 每帧读取配置发射新粒子并推进已有粒子。
//
// 这是纯数据组件，不包含方法。
type EmitterComponent struct {
	// 配置（创建时复制，之后不变）
	Config   effect.EmitterConfiguration
	Material *game.Material

	// 发射器状态
	Active    bool    // false 时既不发射也不推进粒子（保留粒子状态）
	Age       float64 // 当前周期内已运行时间（秒）
	Prewarmed bool    // 预热是否已完成

	// 发射节奏：令牌桶按 EmissionRate 产生令牌，每个令牌生成一个粒子。
	// Clock 是模拟时钟，只随 dt 前进，与真实时间无关。
	Limiter *rate.Limiter
	Clock   time.Time

	// 粒子追踪
	ActiveParticles []ecs.EntityID
	TotalLaunched   int
}
