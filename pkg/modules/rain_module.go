package modules

import (
	"go.uber.org/zap"

	"github.com/decker502/rainfx/pkg/config"
	"github.com/decker502/rainfx/pkg/effect"
)

// RainModule 运行时雨效果模块
//
// 挂在场景上的组件形态：场景启动时调用 Start，AutoCreateOnStart 为 true 时自动创建雨效果；
// 其余时间由外部（按键、脚本、UI）调用 CreateRainSystem / ToggleRain / DestroyRainSystem。
//
// 模块只持有实例引用，生命周期规则（幂等创建、幂等销毁、无效实例忽略）全部由 Controller 保证。
// 控制器当前实例由其他途径创建或销毁时，模块以控制器为准。
type RainModule struct {
	// AutoCreateOnStart Start 时是否自动创建
	AutoCreateOnStart bool

	ctrl     *effect.Controller
	builder  effect.Builder
	params   effect.EffectParameters
	instance *effect.Instance
	log      *zap.Logger
}

// NewRainModule 创建雨效果模块
//
// 参数：
//   - ctrl: 效果生命周期控制器（不拥有，只引用）
//   - cfg: 效果配置（参数、下落速度、AutoCreateOnStart）
//   - logger: 日志记录器，可为 nil
func NewRainModule(ctrl *effect.Controller, cfg config.EffectConfig, logger *zap.Logger) *RainModule {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RainModule{
		AutoCreateOnStart: cfg.AutoCreateOnStart,
		ctrl:              ctrl,
		builder:           cfg.Builder(),
		params:            cfg.Parameters(),
		log:               logger.Named("RainModule"),
	}
}

// Start 场景启动回调
func (m *RainModule) Start() error {
	if !m.AutoCreateOnStart {
		return nil
	}
	return m.CreateRainSystem()
}

// CreateRainSystem 按模块参数创建雨效果，已存在时保持不变
func (m *RainModule) CreateRainSystem() error {
	inst, err := m.ctrl.Create(m.builder.Build(m.params))
	if err != nil {
		m.log.Error("failed to create rain system", zap.Error(err))
		return err
	}
	m.instance = inst
	return nil
}

// DestroyRainSystem 销毁雨效果，未创建时不做任何事
func (m *RainModule) DestroyRainSystem() {
	m.ctrl.Destroy(m.current())
	m.instance = nil
}

// ToggleRain 开关雨效果，未创建时不做任何事
func (m *RainModule) ToggleRain(active bool) {
	m.ctrl.Toggle(m.current(), active)
}

// Instance 返回当前实例，未创建或已销毁时返回 nil
func (m *RainModule) Instance() *effect.Instance {
	return m.current()
}

// current 同步持有的引用与控制器的当前实例
func (m *RainModule) current() *effect.Instance {
	if m.instance == nil || m.instance.Released() || m.instance != m.ctrl.Current() {
		m.instance = m.ctrl.Current()
	}
	return m.instance
}

// Parameters 返回模块的效果参数
func (m *RainModule) Parameters() effect.EffectParameters {
	return m.params
}

// SetParameters 修改效果参数，下次 CreateRainSystem 生效
func (m *RainModule) SetParameters(p effect.EffectParameters) {
	m.params = p
}
