package host

import (
	"errors"
	"testing"

	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/game"
	"github.com/decker502/rainfx/pkg/types"
)

const frame = 1.0 / 60.0

func newTestEngine() *Engine {
	return NewEngine(nil, nil, Options{Seed: 1})
}

// TestEngine_CreateRainEndToEnd 标准参数：创建后立即处于稳定降雨状态
func TestEngine_CreateRainEndToEnd(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)

	inst, err := ctrl.Create(effect.Build(effect.DefaultEffectParameters()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	eng.Update(frame)

	if got := eng.ParticleCount(inst.Handle()); got < 700 || got > 800 {
		t.Errorf("ParticleCount() = %d, want about 750 after prewarm", got)
	}
	if !eng.Scene().Dirty() {
		t.Error("scene should be marked dirty after creation")
	}
	obj, ok := eng.Scene().Object(uint64(inst.Handle()))
	if !ok {
		t.Fatal("scene object missing")
	}
	if obj.Name != effect.EffectName || obj.Shader != effect.ShaderUnlit || !obj.Active {
		t.Errorf("scene object = %+v", obj)
	}
	if obj.Position != types.V3(0, 15, 0) || obj.Extents != types.V3(50, 1, 50) {
		t.Errorf("scene object position/extents = %v/%v", obj.Position, obj.Extents)
	}
}

// TestEngine_ZeroEmissionRate 发射率为 0：实例存在，但没有粒子
func TestEngine_ZeroEmissionRate(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)

	params := effect.DefaultEffectParameters()
	params.EmissionRate = 0
	inst, err := ctrl.Create(effect.Build(params))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for i := 0; i < 60; i++ {
		eng.Update(frame)
	}

	if ctrl.State() != effect.StateActive {
		t.Errorf("State() = %v, want active", ctrl.State())
	}
	if got := eng.ParticleCount(inst.Handle()); got != 0 {
		t.Errorf("ParticleCount() = %d, want 0", got)
	}
}

func TestEngine_DuplicateCreateSingleEmitter(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)
	cfg := effect.Build(effect.DefaultEffectParameters())

	first, _ := ctrl.Create(cfg)
	second, _ := ctrl.Create(cfg)

	if first != second {
		t.Error("second Create() should return the existing instance")
	}
	if got := eng.EmitterCount(); got != 1 {
		t.Errorf("EmitterCount() = %d, want 1", got)
	}
	if got := len(eng.Scene().Objects); got != 1 {
		t.Errorf("scene objects = %d, want 1", got)
	}
}

// TestEngine_ToggleFreezesParticles 关闭后粒子冻结且不绘制，重新打开后继续
func TestEngine_ToggleFreezesParticles(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)
	inst, _ := ctrl.Create(effect.Build(effect.DefaultEffectParameters()))
	eng.Update(frame)
	handle := inst.Handle()
	count := eng.ParticleCount(handle)

	ctrl.Toggle(inst, false)
	if eng.IsActive(handle) {
		t.Error("emitter should be inactive")
	}
	if obj, _ := eng.Scene().Object(uint64(handle)); obj.Active {
		t.Error("scene object should be inactive")
	}
	for i := 0; i < 30; i++ {
		eng.Update(frame)
	}
	if got := eng.ParticleCount(handle); got != count {
		t.Errorf("ParticleCount() changed %d -> %d while inactive", count, got)
	}

	ctrl.Toggle(inst, true)
	if !eng.IsActive(handle) || inst.Handle() != handle {
		t.Error("emitter should be active again with the same handle")
	}
}

func TestEngine_DestroyRemovesEverything(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)
	inst, _ := ctrl.Create(effect.Build(effect.DefaultEffectParameters()))
	eng.Update(frame)
	eng.Select(inst.Handle())

	ctrl.Destroy(inst)
	ctrl.Destroy(inst)

	if eng.EmitterCount() != 0 {
		t.Errorf("EmitterCount() = %d, want 0", eng.EmitterCount())
	}
	if eng.em.Count() != 0 {
		t.Errorf("entity count = %d, want 0", eng.em.Count())
	}
	if len(eng.Scene().Objects) != 0 || eng.Scene().Selected != 0 {
		t.Errorf("scene = %+v, want empty", eng.Scene())
	}
}

// TestEngine_MissingShader 着色器缺失：不分配任何对象，注册后重试成功
func TestEngine_MissingShader(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)
	lit, err := eng.Resources().ResolveMaterial(effect.ShaderLit)
	if err != nil {
		t.Fatalf("ResolveMaterial() error = %v", err)
	}
	litColor := lit.Color
	eng.Resources().UnregisterMaterial(effect.ShaderLit)

	simple, _ := effect.Preset(effect.PresetSimple)
	cfg := effect.Build(simple)

	_, err = ctrl.Create(cfg)
	if !errors.Is(err, effect.ErrResourceUnavailable) || !errors.Is(err, game.ErrShaderNotFound) {
		t.Fatalf("Create() error = %v, want ErrResourceUnavailable wrapping ErrShaderNotFound", err)
	}
	if eng.em.Count() != 0 || len(eng.Scene().Objects) != 0 || eng.Scene().Dirty() {
		t.Error("failed creation should leave no trace")
	}

	eng.Resources().RegisterMaterial(effect.ShaderLit, true, litColor)
	if _, err := ctrl.Create(cfg); err != nil {
		t.Fatalf("retry Create() error = %v", err)
	}
}

func TestEngine_AllocationRejected(t *testing.T) {
	eng := newTestEngine()
	ctrl := effect.NewController(eng, nil)
	eng.FailNextAllocation = true

	_, err := ctrl.Create(effect.Build(effect.DefaultEffectParameters()))
	if !errors.Is(err, effect.ErrAllocationFailed) {
		t.Fatalf("Create() error = %v, want ErrAllocationFailed", err)
	}
	if ctrl.State() != effect.StateAbsent {
		t.Errorf("State() = %v, want absent", ctrl.State())
	}
}

func TestEngine_ApplyUnknownHandles(t *testing.T) {
	eng := newTestEngine()
	cfg := effect.Build(effect.DefaultEffectParameters())

	if err := eng.ApplyEmitterConfig(42, cfg, 1); !errors.Is(err, ErrUnknownEmitter) {
		t.Errorf("ApplyEmitterConfig(unknown emitter) error = %v", err)
	}

	h, err := eng.AllocateEmitter(types.V3(0, 0, 0))
	if err != nil {
		t.Fatalf("AllocateEmitter() error = %v", err)
	}
	if err := eng.ApplyEmitterConfig(h, cfg, 999); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("ApplyEmitterConfig(unknown material) error = %v", err)
	}

	// 未知句柄的开关和释放被忽略
	eng.SetActive(42, false)
	eng.ReleaseEmitter(42)
}

// TestEngine_LoadedSceneKeepsExistingObjects 已加载场景的句柄不会被新发射器覆盖
func TestEngine_LoadedSceneKeepsExistingObjects(t *testing.T) {
	scene := game.NewSceneDocument("saved")
	scene.Add(game.SceneObject{Handle: 1, Name: "Rain", EmissionRate: 42})
	scene.Add(game.SceneObject{Handle: 3, Name: "Rain", EmissionRate: 7})
	scene.ClearDirty()

	eng := NewEngine(nil, scene, Options{Seed: 1})
	ctrl := effect.NewController(eng, nil)

	inst, err := ctrl.Create(effect.Build(effect.DefaultEffectParameters()))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if h := uint64(inst.Handle()); h <= 3 {
		t.Errorf("Handle() = %d, want > 3", h)
	}
	if got := len(eng.Scene().Objects); got != 3 {
		t.Fatalf("len(Objects) = %d, want 3", got)
	}
	saved, ok := eng.Scene().Object(1)
	if !ok {
		t.Fatal("saved object 1 missing")
	}
	if saved.EmissionRate != 42 {
		t.Errorf("saved EmissionRate = %v, want 42", saved.EmissionRate)
	}
}
