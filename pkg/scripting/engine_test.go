package scripting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/host"
)

func newTestEngine(t *testing.T) (*Engine, *effect.Controller, *host.Engine) {
	t.Helper()
	eng := host.NewEngine(nil, nil, host.Options{Seed: 1})
	ctrl := effect.NewController(eng, nil)
	e := NewEngine(ctrl, eng, effect.NewBuilder(), nil)
	t.Cleanup(e.Close)
	return e, ctrl, eng
}

func mustNumber(t *testing.T, e *Engine, name string) float64 {
	t.Helper()
	n, ok := e.GetGlobalNumber(name)
	if !ok {
		t.Fatalf("global %s is not a number", name)
	}
	return n
}

func TestEngine_Build(t *testing.T) {
	e, ctrl, _ := newTestEngine(t)

	err := e.DoString(`
		local cfg = rain.build({ rate = 75, extents = { x = 10 } })
		rate = cfg.rate
		extent_x = cfg.extents.x
		extent_y = cfg.extents.y
		fall = cfg.velocity.y
		looping = cfg.loop and 1 or 0
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := mustNumber(t, e, "rate"); got != 75 {
		t.Errorf("rate = %v, want 75", got)
	}
	if got := mustNumber(t, e, "extent_x"); got != 10 {
		t.Errorf("extents.x = %v, want 10", got)
	}
	if got := mustNumber(t, e, "extent_y"); got != 1 {
		t.Errorf("extents.y = %v, want 1 (default kept)", got)
	}
	if got := mustNumber(t, e, "fall"); got != -effect.DefaultFallSpeed {
		t.Errorf("velocity.y = %v, want %v", got, -effect.DefaultFallSpeed)
	}
	if got := mustNumber(t, e, "looping"); got != 1 {
		t.Error("loop should be true")
	}
	if ctrl.State() != effect.StateAbsent {
		t.Error("rain.build must not create anything")
	}
}

func TestEngine_Lifecycle(t *testing.T) {
	e, ctrl, eng := newTestEngine(t)

	err := e.DoString(`
		id = rain.create({ preset = "setup" })
		same = rain.create()
		rain.toggle(id, false)
		after_toggle = rain.state()
		rain.toggle(id, true)
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	id := mustNumber(t, e, "id")
	if mustNumber(t, e, "same") != id {
		t.Error("second rain.create should return the same id")
	}
	if got := e.vm.GetGlobal("after_toggle").String(); got != "inactive" {
		t.Errorf("state after toggle = %q, want inactive", got)
	}
	if ctrl.State() != effect.StateActive {
		t.Errorf("State() = %v, want active", ctrl.State())
	}
	if got := ctrl.Current().Config().Render.Shader; got != effect.ShaderLit {
		t.Errorf("Shader = %q, want setup preset shader", got)
	}

	eng.Update(1.0 / 60.0)
	if err := e.DoString(`n = rain.count(id)`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if mustNumber(t, e, "n") == 0 {
		t.Error("rain.count should report particles after an update")
	}

	if err := e.DoString(`rain.destroy(id); rain.destroy(id); rain.destroy(12345)`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if ctrl.State() != effect.StateAbsent || eng.EmitterCount() != 0 {
		t.Error("rain.destroy should remove the instance")
	}
}

func TestEngine_CreateFailureReturnsError(t *testing.T) {
	e, ctrl, eng := newTestEngine(t)
	eng.Resources().UnregisterMaterial(effect.ShaderUnlit)

	err := e.DoString(`
		local id, err = rain.create()
		failed = (id == nil) and 1 or 0
		message = err
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if mustNumber(t, e, "failed") != 1 {
		t.Error("rain.create should return nil on failure")
	}
	if msg := e.vm.GetGlobal("message").String(); !strings.Contains(msg, "resource unavailable") {
		t.Errorf("message = %q", msg)
	}
	if ctrl.State() != effect.StateAbsent {
		t.Error("state should stay absent")
	}
}

func TestEngine_InvalidArguments(t *testing.T) {
	e, _, _ := newTestEngine(t)

	tests := []struct {
		name string
		src  string
	}{
		{"未知预设", `rain.build({ preset = "storm" })`},
		{"未知材质", `rain.create({ material = "chrome" })`},
		{"缺少ID", `rain.destroy()`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.DoString(tt.src); err == nil {
				t.Errorf("DoString(%q) = nil, want error", tt.src)
			}
		})
	}
}

func TestEngine_LoadDir(t *testing.T) {
	e, ctrl, _ := newTestEngine(t)
	dir := t.TempDir()

	files := map[string]string{
		"01_create.lua": `id = rain.create({ rate = 10 })`,
		"02_toggle.lua": `rain.toggle(id, false)`,
		"notes.txt":     `this is not lua`,
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if ctrl.State() != effect.StateInactive {
		t.Errorf("State() = %v, want inactive", ctrl.State())
	}
	if err := e.LoadDir(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("LoadDir(missing) error = %v, want nil", err)
	}
}
