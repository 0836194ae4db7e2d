package effect

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/decker502/rainfx/pkg/types"
)

// fakeHost 记录所有宿主调用的假实现
type fakeHost struct {
	nextHandle Handle
	live       map[Handle]bool
	active     map[Handle]bool
	applied    map[Handle]EmitterConfiguration
	positions  map[Handle]types.Vec3

	allocations int
	releases    int
	setActive   int
	dirtyMarks  int

	missingShader string
	allocErr      error
	applyErr      error
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		nextHandle: 100,
		live:       make(map[Handle]bool),
		active:     make(map[Handle]bool),
		applied:    make(map[Handle]EmitterConfiguration),
		positions:  make(map[Handle]types.Vec3),
	}
}

func (h *fakeHost) AllocateEmitter(position types.Vec3) (Handle, error) {
	if h.allocErr != nil {
		return 0, h.allocErr
	}
	h.nextHandle++
	h.allocations++
	h.live[h.nextHandle] = true
	h.active[h.nextHandle] = true
	h.positions[h.nextHandle] = position
	return h.nextHandle, nil
}

func (h *fakeHost) ApplyEmitterConfig(handle Handle, cfg EmitterConfiguration, _ MaterialHandle) error {
	if h.applyErr != nil {
		return h.applyErr
	}
	h.applied[handle] = cfg
	return nil
}

func (h *fakeHost) SetActive(handle Handle, active bool) {
	h.setActive++
	h.active[handle] = active
}

func (h *fakeHost) ReleaseEmitter(handle Handle) {
	h.releases++
	delete(h.live, handle)
}

func (h *fakeHost) ResolveMaterial(shader string) (MaterialHandle, error) {
	if shader == h.missingShader {
		return 0, errors.New("shader not found")
	}
	return 7, nil
}

func (h *fakeHost) MarkSceneDirty() {
	h.dirtyMarks++
}

func (h *fakeHost) liveCount() int {
	return len(h.live)
}

func TestController_CreateAppliesConfig(t *testing.T) {
	host := newFakeHost()
	ctrl := NewController(host, nil)
	cfg := Build(DefaultEffectParameters())

	inst, err := ctrl.Create(cfg)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if inst.Handle() == 0 {
		t.Fatal("Create() returned instance with zero handle")
	}
	if !inst.Active() {
		t.Error("new instance should be active")
	}
	if host.positions[inst.Handle()] != cfg.Shape.Center {
		t.Errorf("emitter allocated at %v, want %v", host.positions[inst.Handle()], cfg.Shape.Center)
	}
	if host.applied[inst.Handle()] != cfg {
		t.Error("host did not receive the full configuration")
	}
	if inst.Config() != cfg {
		t.Error("instance does not retain its configuration")
	}
	if host.dirtyMarks != 1 {
		t.Errorf("MarkSceneDirty called %d times, want 1", host.dirtyMarks)
	}
	if ctrl.State() != StateActive {
		t.Errorf("State() = %v, want active", ctrl.State())
	}
}

// TestController_CreateIdempotent 重复 Create 只产生一个宿主对象，并返回同一实例
func TestController_CreateIdempotent(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	host := newFakeHost()
	ctrl := NewController(host, zap.New(core))
	cfg := Build(DefaultEffectParameters())

	first, err := ctrl.Create(cfg)
	if err != nil {
		t.Fatalf("first Create() error: %v", err)
	}
	second, err := ctrl.Create(cfg)
	if err != nil {
		t.Fatalf("second Create() error: %v", err)
	}

	if first != second {
		t.Error("second Create() returned a different instance")
	}
	if host.liveCount() != 1 || host.allocations != 1 {
		t.Errorf("live=%d allocations=%d, want 1 and 1", host.liveCount(), host.allocations)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected 1 warning, got %d", logs.Len())
	}
	if entry := logs.All()[0]; entry.Level != zapcore.WarnLevel {
		t.Errorf("duplicate create logged at %v, want warn", entry.Level)
	}
}

// TestController_DestroyIdempotent 重复 Destroy 是安全的
func TestController_DestroyIdempotent(t *testing.T) {
	host := newFakeHost()
	ctrl := NewController(host, nil)

	inst, err := ctrl.Create(Build(DefaultEffectParameters()))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	ctrl.Destroy(inst)
	if ctrl.State() != StateAbsent {
		t.Errorf("State() after Destroy = %v, want absent", ctrl.State())
	}
	if !inst.Released() {
		t.Error("instance should be released after Destroy")
	}
	if host.liveCount() != 0 {
		t.Errorf("live emitters = %d, want 0", host.liveCount())
	}

	ctrl.Destroy(inst)
	if host.releases != 1 {
		t.Errorf("ReleaseEmitter called %d times, want 1", host.releases)
	}
	if ctrl.State() != StateAbsent {
		t.Errorf("State() after second Destroy = %v, want absent", ctrl.State())
	}
}

// TestController_ToggleKeepsHandle 关闭再打开恢复状态，句柄不变且不重新分配
func TestController_ToggleKeepsHandle(t *testing.T) {
	host := newFakeHost()
	ctrl := NewController(host, nil)

	inst, err := ctrl.Create(Build(DefaultEffectParameters()))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	handle := inst.Handle()
	before := inst.Active()

	ctrl.Toggle(inst, false)
	if inst.Active() {
		t.Error("instance should be inactive after Toggle(false)")
	}
	if host.active[handle] {
		t.Error("host emitter should be inactive after Toggle(false)")
	}
	if ctrl.State() != StateInactive {
		t.Errorf("State() = %v, want inactive", ctrl.State())
	}

	ctrl.Toggle(inst, true)
	if inst.Active() != before {
		t.Errorf("Active() = %v, want %v", inst.Active(), before)
	}
	if inst.Handle() != handle {
		t.Errorf("handle changed from %d to %d", handle, inst.Handle())
	}
	if host.allocations != 1 || host.releases != 0 {
		t.Errorf("allocations=%d releases=%d, want 1 and 0", host.allocations, host.releases)
	}
}

// TestController_InvalidInstanceIsNoop nil / 已销毁 / 其他控制器的实例都被忽略
func TestController_InvalidInstanceIsNoop(t *testing.T) {
	host := newFakeHost()
	ctrl := NewController(host, nil)
	other := NewController(newFakeHost(), nil)

	foreign, err := other.Create(Build(DefaultEffectParameters()))
	if err != nil {
		t.Fatalf("other.Create() error: %v", err)
	}

	stale, err := ctrl.Create(Build(DefaultEffectParameters()))
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	ctrl.Destroy(stale)
	releases := host.releases

	tests := []struct {
		name string
		inst *Instance
	}{
		{"nil", nil},
		{"已销毁", stale},
		{"其他控制器", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl.Toggle(tt.inst, false)
			ctrl.Destroy(tt.inst)

			if host.setActive != 0 {
				t.Errorf("SetActive called %d times, want 0", host.setActive)
			}
			if host.releases != releases {
				t.Errorf("ReleaseEmitter called again")
			}
		})
	}

	if !foreign.Active() {
		t.Error("foreign instance should be untouched")
	}
}

// TestController_ResourceUnavailable 材质解析失败时不分配对象，控制器保持 Absent 并可重试
func TestController_ResourceUnavailable(t *testing.T) {
	host := newFakeHost()
	host.missingShader = ShaderLit
	ctrl := NewController(host, nil)

	params := DefaultEffectParameters()
	params.Material = MaterialLit

	inst, err := ctrl.Create(Build(params))
	if !errors.Is(err, ErrResourceUnavailable) {
		t.Fatalf("Create() error = %v, want ErrResourceUnavailable", err)
	}
	if inst != nil {
		t.Error("Create() should return nil instance on failure")
	}
	if host.allocations != 0 {
		t.Errorf("allocations = %d, want 0", host.allocations)
	}
	if host.dirtyMarks != 0 {
		t.Errorf("MarkSceneDirty called %d times, want 0", host.dirtyMarks)
	}
	if ctrl.State() != StateAbsent {
		t.Errorf("State() = %v, want absent", ctrl.State())
	}

	host.missingShader = ""
	if _, err := ctrl.Create(Build(params)); err != nil {
		t.Fatalf("retry Create() error: %v", err)
	}
	if ctrl.State() != StateActive {
		t.Errorf("State() after retry = %v, want active", ctrl.State())
	}
}

// TestController_ApplyFailureReleasesEmitter 应用配置失败时释放已分配的对象
func TestController_ApplyFailureReleasesEmitter(t *testing.T) {
	host := newFakeHost()
	host.applyErr = errors.New("bad config")
	ctrl := NewController(host, nil)

	_, err := ctrl.Create(Build(DefaultEffectParameters()))
	if !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("Create() error = %v, want ErrAllocationFailed", err)
	}
	if host.liveCount() != 0 {
		t.Errorf("live emitters = %d, want 0", host.liveCount())
	}
	if ctrl.Current() != nil {
		t.Error("Current() should be nil after failed create")
	}
}

func TestController_AllocationFailure(t *testing.T) {
	host := newFakeHost()
	host.allocErr = errors.New("out of objects")
	ctrl := NewController(host, nil)

	if _, err := ctrl.Create(Build(DefaultEffectParameters())); !errors.Is(err, ErrAllocationFailed) {
		t.Fatalf("Create() error = %v, want ErrAllocationFailed", err)
	}
	if ctrl.State() != StateAbsent {
		t.Errorf("State() = %v, want absent", ctrl.State())
	}
}

// TestController_RecreateAfterDestroy 销毁后重新创建得到新实例
func TestController_RecreateAfterDestroy(t *testing.T) {
	host := newFakeHost()
	ctrl := NewController(host, nil)
	cfg := Build(DefaultEffectParameters())

	first, _ := ctrl.Create(cfg)
	ctrl.Destroy(first)
	second, err := ctrl.Create(cfg)
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	if second == first {
		t.Error("recreate should return a new instance")
	}
	if second.Handle() == first.Handle() {
		t.Error("recreate should allocate a new handle")
	}

	// 旧实例不能再影响新实例
	ctrl.Toggle(first, false)
	if !second.Active() {
		t.Error("stale instance toggled the new one")
	}
}

func TestController_LookupAndClose(t *testing.T) {
	host := newFakeHost()
	ctrl := NewController(host, nil)

	if ctrl.Lookup(0) != nil {
		t.Error("Lookup(0) should be nil")
	}

	inst, _ := ctrl.Create(Build(DefaultEffectParameters()))
	if ctrl.Lookup(inst.Handle()) != inst {
		t.Error("Lookup() did not find current instance")
	}
	if ctrl.Lookup(inst.Handle()+1) != nil {
		t.Error("Lookup() with unknown handle should be nil")
	}

	ctrl.Close()
	if host.liveCount() != 0 {
		t.Errorf("live emitters after Close = %d, want 0", host.liveCount())
	}
	if ctrl.Lookup(inst.Handle()) != nil {
		t.Error("Lookup() after Close should be nil")
	}

	// 没有实例时 Close 也是安全的
	ctrl.Close()
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateAbsent:   "absent",
		StateActive:   "active",
		StateInactive: "inactive",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
