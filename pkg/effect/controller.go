package effect

import (
	"fmt"

	"go.uber.org/zap"
)

// State 效果实例的生命周期状态
type State int

const (
	// StateAbsent 没有实例
	StateAbsent State = iota
	// StateActive 实例存在且激活
	StateActive
	// StateInactive 实例存在但已关闭
	StateInactive
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateActive:
		return "active"
	case StateInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Instance 效果实例
//
// 由 Controller.Create 创建，Destroy 之后失效，不能再次使用（需要重新 Create）。
type Instance struct {
	owner    *Controller
	handle   Handle
	active   bool
	config   EmitterConfiguration
	released bool
}

// Handle 返回宿主句柄（也是工具层使用的实例 ID）
func (i *Instance) Handle() Handle {
	if i == nil {
		return 0
	}
	return i.handle
}

// Active 返回激活状态
func (i *Instance) Active() bool {
	return i != nil && i.active
}

// Config 返回创建该实例的配置
func (i *Instance) Config() EmitterConfiguration {
	if i == nil {
		return EmitterConfiguration{}
	}
	return i.config
}

// Released 实例是否已被销毁
func (i *Instance) Released() bool {
	return i == nil || i.released
}

// Controller 效果生命周期控制器
//
// 状态机：Absent --Create--> Active <--Toggle--> Inactive，Active|Inactive --Destroy--> Absent。
//
// 线程安全说明：Controller 不是并发安全的，调用方需要把它限制在单一所有者（通常是游戏主循环）。
// 所有操作都是同步的，返回时已完成。
type Controller struct {
	host    Host
	log     *zap.Logger
	current *Instance
}

// NewController 创建控制器
//
// 参数：
//   - host: 宿主引擎能力
//   - logger: 日志记录器，nil 时不输出日志
func NewController(host Host, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		host: host,
		log:  logger.Named("RainController"),
	}
}

// Create 根据配置创建效果实例
//
// 已有实例时不重复创建：记录警告并返回现有实例（error 为 nil）。
//
// 创建顺序：解析材质 → 分配发射器 → 应用配置 → 标记场景已修改。
// 任何一步失败都不会留下已分配的对象，控制器保持 Absent，可以直接重试。
func (c *Controller) Create(cfg EmitterConfiguration) (*Instance, error) {
	if c.current != nil {
		c.log.Warn("rain system already exists, skipping creation",
			zap.Uint64("handle", uint64(c.current.handle)))
		return c.current, nil
	}

	mat, err := c.host.ResolveMaterial(cfg.Render.Shader)
	if err != nil {
		return nil, fmt.Errorf("%w: shader %q: %w", ErrResourceUnavailable, cfg.Render.Shader, err)
	}

	handle, err := c.host.AllocateEmitter(cfg.Shape.Center)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}

	if err := c.host.ApplyEmitterConfig(handle, cfg, mat); err != nil {
		c.host.ReleaseEmitter(handle)
		return nil, fmt.Errorf("%w: apply config: %w", ErrAllocationFailed, err)
	}

	c.current = &Instance{
		owner:  c,
		handle: handle,
		active: true,
		config: cfg,
	}
	c.host.MarkSceneDirty()

	c.log.Info("rain particle system created",
		zap.Uint64("handle", uint64(handle)),
		zap.Stringer("position", cfg.Shape.Center),
		zap.Float64("emissionRate", cfg.EmissionRate))
	return c.current, nil
}

// Toggle 开关效果
//
// 实例为 nil、已销毁或不属于本控制器时不做任何事。
// 只切换激活状态，不重新分配宿主对象，粒子状态得以保留。
func (c *Controller) Toggle(inst *Instance, active bool) {
	if !c.owns(inst) {
		return
	}
	c.host.SetActive(inst.handle, active)
	inst.active = active
	c.log.Debug("rain toggled", zap.Uint64("handle", uint64(inst.handle)), zap.Bool("active", active))
}

// Destroy 销毁效果实例
//
// 重复调用是安全的：实例为 nil、已销毁或不属于本控制器时不做任何事。
func (c *Controller) Destroy(inst *Instance) {
	if !c.owns(inst) {
		return
	}
	c.host.ReleaseEmitter(inst.handle)
	inst.released = true
	inst.active = false
	c.current = nil
	c.log.Info("rain particle system destroyed", zap.Uint64("handle", uint64(inst.handle)))
}

// Current 返回当前实例，没有时返回 nil
func (c *Controller) Current() *Instance {
	return c.current
}

// State 返回当前生命周期状态
func (c *Controller) State() State {
	switch {
	case c.current == nil:
		return StateAbsent
	case c.current.active:
		return StateActive
	default:
		return StateInactive
	}
}

// Lookup 按句柄查找实例，用于只持有实例 ID 的工具层
func (c *Controller) Lookup(h Handle) *Instance {
	if c.current != nil && h != 0 && c.current.handle == h {
		return c.current
	}
	return nil
}

// Close 销毁当前实例（控制器拆除时调用）
func (c *Controller) Close() {
	c.Destroy(c.current)
}

func (c *Controller) owns(inst *Instance) bool {
	return inst != nil && !inst.released && inst.owner == c && inst == c.current
}
