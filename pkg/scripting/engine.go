// Package scripting 提供 Lua 脚本控制台，脚本通过全局表 rain 操作雨效果。
//
//	local id = rain.create({ rate = 200, position = { x = 0, y = 12, z = 0 } })
//	rain.toggle(id, false)
//	print(rain.state(), rain.count(id))
//	rain.destroy(id)
//
// 实例 ID 是宿主句柄；无效 ID 的 toggle/destroy 不做任何事。
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/types"
)

// ParticleCounter 查询发射器的存活粒子数
type ParticleCounter interface {
	ParticleCount(h effect.Handle) int
}

// Engine 包装一个 gopher-lua 虚拟机
//
// 只能在主循环单协程中使用。
type Engine struct {
	vm      *lua.LState
	ctrl    *effect.Controller
	counter ParticleCounter
	builder effect.Builder
	log     *zap.Logger
}

// NewEngine 创建脚本引擎并注册 rain 表
//
// 参数：
//   - ctrl: 效果生命周期控制器
//   - counter: 粒子计数来源，可为 nil（rain.count 返回 0）
//   - builder: 配置构建器（决定下落速度）
//   - logger: 日志记录器，可为 nil
func NewEngine(ctrl *effect.Controller, counter ParticleCounter, builder effect.Builder, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		vm:      lua.NewState(),
		ctrl:    ctrl,
		counter: counter,
		builder: builder,
		log:     logger.Named("Scripting"),
	}

	rain := e.vm.NewTable()
	e.vm.SetFuncs(rain, map[string]lua.LGFunction{
		"build":   e.luaBuild,
		"create":  e.luaCreate,
		"toggle":  e.luaToggle,
		"destroy": e.luaDestroy,
		"state":   e.luaState,
		"count":   e.luaCount,
	})
	e.vm.SetGlobal("rain", rain)
	return e
}

// Close 关闭虚拟机
func (e *Engine) Close() {
	e.vm.Close()
}

// DoString 执行一段脚本
func (e *Engine) DoString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	return nil
}

// DoFile 执行脚本文件
func (e *Engine) DoFile(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.log.Debug("loaded lua script", zap.String("file", path))
	return nil
}

// LoadDir 按文件名顺序执行目录中的所有 .lua 文件，目录不存在时跳过
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		if err := e.DoFile(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// GetGlobalNumber 读取全局数值变量，不存在或不是数值时返回 false
func (e *Engine) GetGlobalNumber(name string) (float64, bool) {
	n, ok := e.vm.GetGlobal(name).(lua.LNumber)
	return float64(n), ok
}

// rain.build([params]) -> table
func (e *Engine) luaBuild(L *lua.LState) int {
	params, err := paramsFromTable(L.OptTable(1, nil))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	L.Push(configToTable(L, e.builder.Build(params)))
	return 1
}

// rain.create([params]) -> id | nil, err
func (e *Engine) luaCreate(L *lua.LState) int {
	params, err := paramsFromTable(L.OptTable(1, nil))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	inst, err := e.ctrl.Create(e.builder.Build(params))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(inst.Handle()))
	return 1
}

// rain.toggle(id, active)
func (e *Engine) luaToggle(L *lua.LState) int {
	h := effect.Handle(L.CheckInt64(1))
	active := L.ToBool(2)
	e.ctrl.Toggle(e.ctrl.Lookup(h), active)
	return 0
}

// rain.destroy(id)
func (e *Engine) luaDestroy(L *lua.LState) int {
	h := effect.Handle(L.CheckInt64(1))
	e.ctrl.Destroy(e.ctrl.Lookup(h))
	return 0
}

// rain.state() -> "absent" | "active" | "inactive"
func (e *Engine) luaState(L *lua.LState) int {
	L.Push(lua.LString(e.ctrl.State().String()))
	return 1
}

// rain.count(id) -> number
func (e *Engine) luaCount(L *lua.LState) int {
	h := effect.Handle(L.CheckInt64(1))
	count := 0
	if e.counter != nil {
		count = e.counter.ParticleCount(h)
	}
	L.Push(lua.LNumber(count))
	return 1
}

// paramsFromTable 从 Lua 表读取效果参数
//
// 表中的 preset 字段选择起始预设（默认 runtime），其余字段覆盖预设值：
// position、extents（{x, y, z}）、rate、speed、lifetime、gravity、material。
func paramsFromTable(tbl *lua.LTable) (effect.EffectParameters, error) {
	params := effect.DefaultEffectParameters()
	if tbl == nil {
		return params, nil
	}

	if s, ok := tbl.RawGetString("preset").(lua.LString); ok {
		p, found := effect.Preset(string(s))
		if !found {
			return params, fmt.Errorf("unknown preset %q", string(s))
		}
		params = p
	}

	if v, ok := vec3FromTable(tbl.RawGetString("position"), params.Position); ok {
		params.Position = v
	}
	if v, ok := vec3FromTable(tbl.RawGetString("extents"), params.Extents); ok {
		params.Extents = v
	}
	for key, dst := range map[string]*float64{
		"rate":     &params.EmissionRate,
		"speed":    &params.Speed,
		"lifetime": &params.Lifetime,
		"gravity":  &params.GravityModifier,
	} {
		if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
			*dst = float64(n)
		}
	}
	if s, ok := tbl.RawGetString("material").(lua.LString); ok {
		params.Material = effect.MaterialKind(s)
		if !params.Material.Valid() {
			return params, fmt.Errorf("unknown material %q", string(s))
		}
	}
	return params, nil
}

func vec3FromTable(v lua.LValue, base types.Vec3) (types.Vec3, bool) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return base, false
	}
	out := base
	if n, ok := tbl.RawGetString("x").(lua.LNumber); ok {
		out.X = float64(n)
	}
	if n, ok := tbl.RawGetString("y").(lua.LNumber); ok {
		out.Y = float64(n)
	}
	if n, ok := tbl.RawGetString("z").(lua.LNumber); ok {
		out.Z = float64(n)
	}
	return out, true
}

func vec3ToTable(L *lua.LState, v types.Vec3) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("x", lua.LNumber(v.X))
	t.RawSetString("y", lua.LNumber(v.Y))
	t.RawSetString("z", lua.LNumber(v.Z))
	return t
}

func configToTable(L *lua.LState, cfg effect.EmitterConfiguration) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(cfg.Name))
	t.RawSetString("duration", lua.LNumber(cfg.Duration))
	t.RawSetString("loop", lua.LBool(cfg.Loop))
	t.RawSetString("prewarm", lua.LBool(cfg.Prewarm))
	t.RawSetString("center", vec3ToTable(L, cfg.Shape.Center))
	t.RawSetString("extents", vec3ToTable(L, cfg.Shape.Extents))
	t.RawSetString("rate", lua.LNumber(cfg.EmissionRate))
	t.RawSetString("size", lua.LNumber(cfg.StartSize))
	t.RawSetString("speed", lua.LNumber(cfg.StartSpeed))
	t.RawSetString("lifetime", lua.LNumber(cfg.StartLifetime))
	t.RawSetString("gravity", lua.LNumber(cfg.GravityModifier))
	t.RawSetString("velocity", vec3ToTable(L, cfg.VelocityOverLifetime.Velocity))
	t.RawSetString("max_particles", lua.LNumber(cfg.MaxParticles))
	t.RawSetString("shader", lua.LString(cfg.Render.Shader))
	return t
}
