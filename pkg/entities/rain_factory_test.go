package entities

import (
	"testing"

	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/host"
	"github.com/decker502/rainfx/pkg/types"
)

func TestCreateRain(t *testing.T) {
	eng := host.NewEngine(nil, nil, host.Options{Seed: 1})
	ctrl := effect.NewController(eng, nil)

	inst, err := CreateRain(ctrl, types.V3(5, 20, -5), types.V3(10, 1, 10), 60)
	if err != nil {
		t.Fatalf("CreateRain() error = %v", err)
	}

	cfg := inst.Config()
	if cfg.Shape.Center != types.V3(5, 20, -5) || cfg.Shape.Extents != types.V3(10, 1, 10) {
		t.Errorf("shape = %+v", cfg.Shape)
	}
	if cfg.EmissionRate != 60 {
		t.Errorf("EmissionRate = %v, want 60", cfg.EmissionRate)
	}
	if cfg.Render.Shader != effect.ShaderLit {
		t.Errorf("Shader = %q, want %q", cfg.Render.Shader, effect.ShaderLit)
	}
	if cfg.Name != SimpleRainName {
		t.Errorf("Name = %q, want %q", cfg.Name, SimpleRainName)
	}
	if obj, ok := eng.Scene().Object(uint64(inst.Handle())); !ok || obj.Name != SimpleRainName {
		t.Errorf("scene object = %+v, %v; want name %q", obj, ok, SimpleRainName)
	}
	if cfg.StartSpeed != effect.DefaultSpeed || cfg.StartLifetime != effect.DefaultLifetime {
		t.Errorf("speed/lifetime = %v/%v", cfg.StartSpeed, cfg.StartLifetime)
	}

	// 第二次调用返回已有实例
	again, err := CreateDefaultRain(ctrl)
	if err != nil || again != inst {
		t.Errorf("CreateDefaultRain() = %v, %v; want existing instance", again, err)
	}
	if eng.EmitterCount() != 1 {
		t.Errorf("EmitterCount() = %d, want 1", eng.EmitterCount())
	}
}
