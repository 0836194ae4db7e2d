// Package host 提供基于 ECS 的参考宿主引擎，实现 effect.Host。
//
// Engine 把控制器的抽象能力（分配发射器、应用配置、开关、释放、解析材质、标记场景修改）
// 映射到实体管理器、粒子系统、资源管理器和场景文档上，并负责每帧的模拟与绘制。
package host

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/decker502/rainfx/pkg/components"
	"github.com/decker502/rainfx/pkg/ecs"
	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/game"
	"github.com/decker502/rainfx/pkg/systems"
	"github.com/decker502/rainfx/pkg/types"
)

var (
	// ErrUnknownEmitter 句柄不对应任何发射器
	ErrUnknownEmitter = errors.New("unknown emitter")
	// ErrUnknownMaterial 材质句柄未注册
	ErrUnknownMaterial = errors.New("unknown material")
)

// Options 宿主引擎选项
type Options struct {
	ScreenWidth  int
	ScreenHeight int
	Seed         int64 // 粒子随机位置的种子
	Logger       *zap.Logger
}

// Engine 参考宿主引擎
//
// 非并发安全：所有调用都必须来自主循环。
type Engine struct {
	em        *ecs.EntityManager
	particles *systems.ParticleSystem
	render    *systems.RenderSystem
	resources *game.ResourceManager
	scene     *game.SceneDocument
	log       *zap.Logger

	// FailNextAllocation 为 true 时下一次 AllocateEmitter 失败（模拟引擎拒绝分配）
	FailNextAllocation bool
}

var _ effect.Host = (*Engine)(nil)

// NewEngine 创建宿主引擎
//
// 场景中已有对象的句柄会被保留，新分配的发射器句柄总是大于它们。
//
// 参数：
//   - resources: 资源管理器，nil 时使用内置材质
//   - scene: 场景文档，nil 时创建默认空场景
//   - opts: 引擎选项
func NewEngine(resources *game.ResourceManager, scene *game.SceneDocument, opts Options) *Engine {
	if resources == nil {
		resources = game.NewResourceManager()
	}
	if scene == nil {
		scene = game.NewSceneDocument(game.DefaultSceneName)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ScreenWidth <= 0 || opts.ScreenHeight <= 0 {
		opts.ScreenWidth, opts.ScreenHeight = 960, 600
	}

	em := ecs.NewEntityManager()
	// 已加载场景中的句柄不能被新发射器复用
	em.ReserveIDs(ecs.EntityID(scene.MaxHandle()))
	return &Engine{
		em:        em,
		particles: systems.NewParticleSystem(em, opts.Seed),
		render:    systems.NewRenderSystem(em, opts.ScreenWidth, opts.ScreenHeight),
		resources: resources,
		scene:     scene,
		log:       logger.Named("Host"),
	}
}

// AllocateEmitter 创建一个未配置的发射器对象并加入场景
func (e *Engine) AllocateEmitter(position types.Vec3) (effect.Handle, error) {
	if e.FailNextAllocation {
		e.FailNextAllocation = false
		return 0, errors.New("emitter allocation rejected")
	}
	if !position.IsFinite() {
		return 0, fmt.Errorf("invalid emitter position %v", position)
	}

	id := e.em.CreateEntity()
	ecs.AddComponent(e.em, id, &components.TransformComponent{X: position.X, Y: position.Y, Z: position.Z})
	ecs.AddComponent(e.em, id, &components.NameComponent{Name: effect.EffectName})

	h := effect.Handle(id)
	e.scene.Add(game.SceneObject{
		Handle:   uint64(h),
		Name:     effect.EffectName,
		Position: position,
	})
	e.log.Debug("emitter allocated", zap.Uint64("handle", uint64(h)))
	return h, nil
}

// ApplyEmitterConfig 应用发射器配置和材质，发射器随即激活
func (e *Engine) ApplyEmitterConfig(h effect.Handle, cfg effect.EmitterConfiguration, mat effect.MaterialHandle) error {
	id := ecs.EntityID(h)
	transform, ok := ecs.GetComponent[*components.TransformComponent](e.em, id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEmitter, h)
	}
	material, ok := e.resources.GetMaterial(mat)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMaterial, mat)
	}

	if name, ok := ecs.GetComponent[*components.NameComponent](e.em, id); ok && cfg.Name != "" {
		name.Name = cfg.Name
	}

	ecs.AddComponent(e.em, id, &components.EmitterComponent{
		Config:   cfg,
		Material: material,
		Active:   true,
		Clock:    systems.SimulationEpoch,
		Limiter:  systems.NewEmissionLimiter(cfg.EmissionRate, systems.SimulationEpoch),
	})

	if obj, ok := e.scene.Object(uint64(h)); ok {
		obj.Name = cfg.Name
		obj.Position = types.V3(transform.X, transform.Y, transform.Z)
		obj.Extents = cfg.Shape.Extents
		obj.EmissionRate = cfg.EmissionRate
		obj.Shader = material.Shader
		obj.Active = true
	}
	return nil
}

// SetActive 开关发射器，未知句柄忽略
func (e *Engine) SetActive(h effect.Handle, active bool) {
	emitter, ok := ecs.GetComponent[*components.EmitterComponent](e.em, ecs.EntityID(h))
	if !ok {
		return
	}
	emitter.Active = active
	if obj, ok := e.scene.Object(uint64(h)); ok {
		obj.Active = active
	}
}

// ReleaseEmitter 删除发射器及其粒子并从场景中移除，未知句柄忽略
func (e *Engine) ReleaseEmitter(h effect.Handle) {
	id := ecs.EntityID(h)
	if !e.em.Exists(id) {
		return
	}
	e.particles.ReleaseEmitter(id)
	e.scene.Remove(uint64(h))
	e.log.Debug("emitter released", zap.Uint64("handle", uint64(h)))
}

// ResolveMaterial 按着色器名称解析材质
func (e *Engine) ResolveMaterial(shader string) (effect.MaterialHandle, error) {
	mat, err := e.resources.ResolveMaterial(shader)
	if err != nil {
		return 0, err
	}
	return mat.Handle, nil
}

// MarkSceneDirty 标记场景已修改
func (e *Engine) MarkSceneDirty() {
	e.scene.MarkDirty()
}

// Update 推进模拟 dt 秒
func (e *Engine) Update(dt float64) {
	e.particles.Update(dt)
}

// Draw 绘制所有激活的发射器
func (e *Engine) Draw(screen *ebiten.Image) {
	e.render.Draw(screen)
}

// SetDrawBounds 是否绘制发射盒轮廓
func (e *Engine) SetDrawBounds(on bool) {
	e.render.DrawBounds = on
}

// ParticleCount 返回发射器当前存活的粒子数
func (e *Engine) ParticleCount(h effect.Handle) int {
	return e.particles.ParticleCount(ecs.EntityID(h))
}

// EmitterCount 返回场景中的发射器数量
func (e *Engine) EmitterCount() int {
	return len(ecs.GetEntitiesWith1[*components.EmitterComponent](e.em))
}

// IsActive 发射器是否存在且处于激活状态
func (e *Engine) IsActive(h effect.Handle) bool {
	emitter, ok := ecs.GetComponent[*components.EmitterComponent](e.em, ecs.EntityID(h))
	return ok && emitter.Active
}

// Select 在场景中选中对象
func (e *Engine) Select(h effect.Handle) {
	e.scene.Select(uint64(h))
}

// Scene 返回场景文档
func (e *Engine) Scene() *game.SceneDocument {
	return e.scene
}

// Resources 返回资源管理器
func (e *Engine) Resources() *game.ResourceManager {
	return e.resources
}
