package systems

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"github.com/decker502/rainfx/pkg/components"
	"github.com/decker502/rainfx/pkg/ecs"
	"github.com/decker502/rainfx/pkg/effect"
)

const (
	// Gravity 重力加速度（单位/秒²），乘以 GravityModifier 后作用于粒子
	Gravity = 9.81

	// PrewarmStep 预热时的模拟步长（秒）
	PrewarmStep = 1.0 / 30.0

	// maxFrameStep 令牌桶容量按此帧长估算，更长的帧会丢失部分发射
	maxFrameStep = 0.25
)

// SimulationEpoch 模拟时钟起点
var SimulationEpoch = time.Unix(0, 0)

// ParticleSystem 宿主引擎的粒子模拟系统
//
// 每帧处理所有激活的发射器：
//  1. 首次更新时按 Prewarm 预先模拟一个完整周期
//  2. 推进发射器时钟，按令牌桶节奏生成新粒子（受 MaxParticles 限制）
//  3. 推进该发射器的所有粒子（速度、重力、生命周期速度覆盖），移除过期粒子
//
// 未激活的发射器被完全跳过，粒子状态保持不变。
//
// 遵循 ECS 零耦合原则：只通过 EntityManager 通信。
type ParticleSystem struct {
	EntityManager *ecs.EntityManager
	rng           *rand.Rand
}

// NewParticleSystem 创建粒子系统
//
// seed 决定粒子在发射盒内的随机位置，测试中使用固定值以保证可重复。
func NewParticleSystem(em *ecs.EntityManager, seed int64) *ParticleSystem {
	return &ParticleSystem{
		EntityManager: em,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// NewEmissionLimiter 创建发射节奏令牌桶
//
// 令牌桶从空桶开始（避免创建瞬间的突发发射）。emissionRate <= 0 时永远不产生令牌，
// 超过 effect.MaxEmissionRate 时按上限处理。
func NewEmissionLimiter(emissionRate float64, start time.Time) *rate.Limiter {
	if emissionRate <= 0 || math.IsNaN(emissionRate) {
		return rate.NewLimiter(0, 0)
	}
	emissionRate = math.Min(emissionRate, effect.MaxEmissionRate)

	burst := int(math.Ceil(emissionRate*maxFrameStep)) + 1
	limiter := rate.NewLimiter(rate.Limit(emissionRate), burst)
	limiter.AllowN(start, burst)
	return limiter
}

// Update 处理当前帧的所有发射器和粒子
// dt 是距离上一帧的时间（秒）
func (ps *ParticleSystem) Update(dt float64) {
	emitters := ecs.GetEntitiesWith2[
		*components.EmitterComponent,
		*components.TransformComponent,
	](ps.EntityManager)

	for _, id := range emitters {
		emitter, _ := ecs.GetComponent[*components.EmitterComponent](ps.EntityManager, id)
		origin, _ := ecs.GetComponent[*components.TransformComponent](ps.EntityManager, id)

		if !emitter.Active {
			continue
		}

		if emitter.Config.Prewarm && !emitter.Prewarmed {
			ps.prewarm(id, emitter, origin)
		}

		ps.step(id, emitter, origin, dt)
	}

	ps.EntityManager.RemoveMarkedEntities()
}

// ParticleCount 返回发射器当前存活的粒子数
func (ps *ParticleSystem) ParticleCount(emitterID ecs.EntityID) int {
	emitter, ok := ecs.GetComponent[*components.EmitterComponent](ps.EntityManager, emitterID)
	if !ok {
		return 0
	}
	return len(emitter.ActiveParticles)
}

// ReleaseEmitter 立即删除发射器及其所有粒子
func (ps *ParticleSystem) ReleaseEmitter(emitterID ecs.EntityID) {
	if emitter, ok := ecs.GetComponent[*components.EmitterComponent](ps.EntityManager, emitterID); ok {
		for _, particleID := range emitter.ActiveParticles {
			ps.EntityManager.DestroyEntity(particleID)
		}
		emitter.ActiveParticles = nil
	}
	ps.EntityManager.DestroyEntity(emitterID)
	ps.EntityManager.RemoveMarkedEntities()
}

// prewarm 预先模拟一个完整周期，让效果创建时已处于稳定状态
func (ps *ParticleSystem) prewarm(id ecs.EntityID, emitter *components.EmitterComponent, origin *components.TransformComponent) {
	emitter.Prewarmed = true

	steps := int(math.Ceil(emitter.Config.Duration / PrewarmStep))
	for i := 0; i < steps; i++ {
		ps.step(id, emitter, origin, PrewarmStep)
	}
}

// step 推进单个发射器 dt 秒
func (ps *ParticleSystem) step(id ecs.EntityID, emitter *components.EmitterComponent, origin *components.TransformComponent, dt float64) {
	emitter.Age += dt
	emitter.Clock = emitter.Clock.Add(time.Duration(dt * float64(time.Second)))

	emitting := true
	if emitter.Config.Duration > 0 && emitter.Age >= emitter.Config.Duration {
		if emitter.Config.Loop {
			emitter.Age = math.Mod(emitter.Age, emitter.Config.Duration)
		} else {
			emitting = false
		}
	}

	if emitting && emitter.Limiter != nil {
		maxParticles := emitter.Config.MaxParticles
		for maxParticles <= 0 || len(emitter.ActiveParticles) < maxParticles {
			if !emitter.Limiter.AllowN(emitter.Clock, 1) {
				break
			}
			ps.spawnParticle(id, emitter, origin)
		}
	}

	ps.advanceParticles(emitter, dt)
}

// spawnParticle 在发射盒内随机位置生成一个粒子
func (ps *ParticleSystem) spawnParticle(emitterID ecs.EntityID, emitter *components.EmitterComponent, origin *components.TransformComponent) {
	extents := emitter.Config.Shape.Extents
	em := ps.EntityManager

	particleID := em.CreateEntity()
	ecs.AddComponent(em, particleID, &components.TransformComponent{
		X: origin.X + (ps.rng.Float64()-0.5)*extents.X,
		Y: origin.Y + (ps.rng.Float64()-0.5)*extents.Y,
		Z: origin.Z + (ps.rng.Float64()-0.5)*extents.Z,
	})
	// 雨滴沿 -Y 方向发射
	ecs.AddComponent(em, particleID, &components.DropComponent{
		VelocityY: -emitter.Config.StartSpeed,
		Size:      emitter.Config.StartSize,
		Lifetime:  emitter.Config.StartLifetime,
		Emitter:   emitterID,
	})

	emitter.ActiveParticles = append(emitter.ActiveParticles, particleID)
	emitter.TotalLaunched++
}

// advanceParticles 推进发射器的所有粒子，移除过期粒子
func (ps *ParticleSystem) advanceParticles(emitter *components.EmitterComponent, dt float64) {
	em := ps.EntityManager
	cfg := emitter.Config

	var override struct{ X, Y, Z float64 }
	if cfg.VelocityOverLifetime.Enabled {
		v := cfg.VelocityOverLifetime.Velocity
		override.X, override.Y, override.Z = v.X, v.Y, v.Z
	}
	gravity := Gravity * cfg.GravityModifier

	alive := emitter.ActiveParticles[:0]
	for _, particleID := range emitter.ActiveParticles {
		drop, ok := ecs.GetComponent[*components.DropComponent](em, particleID)
		if !ok {
			continue
		}
		pos, ok := ecs.GetComponent[*components.TransformComponent](em, particleID)
		if !ok {
			continue
		}

		drop.Age += dt
		if drop.Age >= drop.Lifetime {
			em.DestroyEntity(particleID)
			continue
		}

		drop.VelocityY -= gravity * dt
		pos.X += (drop.VelocityX + override.X) * dt
		pos.Y += (drop.VelocityY + override.Y) * dt
		pos.Z += (drop.VelocityZ + override.Z) * dt

		alive = append(alive, particleID)
	}
	emitter.ActiveParticles = alive
}
