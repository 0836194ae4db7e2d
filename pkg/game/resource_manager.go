package game

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/decker502/rainfx/pkg/effect"
)

// ErrShaderNotFound 着色器未注册
var ErrShaderNotFound = errors.New("shader not found")

// Material 粒子材质
//
// 宿主资源，由 ResourceManager 持有；发射器只保存指针。
type Material struct {
	Handle effect.MaterialHandle
	Shader string
	Lit    bool        // 是否受光照影响（渲染时按高度做简单明暗）
	Color  color.NRGBA // 基础颜色
}

// MaterialDef 材质配置文件中的一条定义
type MaterialDef struct {
	Shader string   `yaml:"shader"`
	Lit    bool     `yaml:"lit"`
	Color  [4]uint8 `yaml:"color"` // RGBA
}

// MaterialConfig 材质配置文件结构
//
// 配置文件示例（data/materials.yaml）：
//
//	materials:
//	  - shader: "Particles/Standard Unlit"
//	    lit: false
//	    color: [170, 200, 255, 200]
type MaterialConfig struct {
	Materials []MaterialDef `yaml:"materials"`
}

// ResourceManager 宿主引擎的资源管理器
//
// 按着色器名称管理材质，保证同一着色器只创建一个材质实例。
// 内置两个粒子着色器（Particles/Standard Unlit、Particles/Standard Surface），
// 其他着色器需要通过 RegisterMaterial 或 LoadMaterialConfig 注册。
//
// 非并发安全：只在主循环中使用。
type ResourceManager struct {
	byShader   map[string]*Material
	byHandle   map[effect.MaterialHandle]*Material
	nextHandle effect.MaterialHandle
}

// NewResourceManager 创建资源管理器并注册内置材质
func NewResourceManager() *ResourceManager {
	rm := &ResourceManager{
		byShader:   make(map[string]*Material),
		byHandle:   make(map[effect.MaterialHandle]*Material),
		nextHandle: 1,
	}
	rm.RegisterMaterial(effect.ShaderUnlit, false, color.NRGBA{R: 170, G: 200, B: 255, A: 200})
	rm.RegisterMaterial(effect.ShaderLit, true, color.NRGBA{R: 200, G: 215, B: 235, A: 220})
	return rm
}

// RegisterMaterial 注册（或替换）着色器对应的材质
//
// 替换已有着色器时保留原句柄，已经引用该句柄的发射器会使用新材质。
func (rm *ResourceManager) RegisterMaterial(shader string, lit bool, c color.NRGBA) *Material {
	if existing, ok := rm.byShader[shader]; ok {
		existing.Lit = lit
		existing.Color = c
		return existing
	}

	mat := &Material{
		Handle: rm.nextHandle,
		Shader: shader,
		Lit:    lit,
		Color:  c,
	}
	rm.nextHandle++
	rm.byShader[shader] = mat
	rm.byHandle[mat.Handle] = mat
	return mat
}

// UnregisterMaterial 移除着色器（用于模拟资源缺失）
func (rm *ResourceManager) UnregisterMaterial(shader string) {
	if mat, ok := rm.byShader[shader]; ok {
		delete(rm.byHandle, mat.Handle)
		delete(rm.byShader, shader)
	}
}

// ResolveMaterial 按着色器名称查找材质
func (rm *ResourceManager) ResolveMaterial(shader string) (*Material, error) {
	mat, ok := rm.byShader[shader]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrShaderNotFound, shader)
	}
	return mat, nil
}

// GetMaterial 按句柄获取材质
func (rm *ResourceManager) GetMaterial(h effect.MaterialHandle) (*Material, bool) {
	mat, ok := rm.byHandle[h]
	return mat, ok
}

// LoadMaterialConfig 从 YAML 文件加载材质定义并注册
//
// 参数：
//   - path: 配置文件路径（如 "data/materials.yaml"）
//
// 返回：
//   - error: 读取、解析失败或定义缺少 shader 时返回错误
func (rm *ResourceManager) LoadMaterialConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read material config: %w", err)
	}

	var cfg MaterialConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse material config: %w", err)
	}

	for i, def := range cfg.Materials {
		if def.Shader == "" {
			return fmt.Errorf("material #%d has no shader name", i)
		}
		rm.RegisterMaterial(def.Shader, def.Lit, color.NRGBA{R: def.Color[0], G: def.Color[1], B: def.Color[2], A: def.Color[3]})
	}
	return nil
}
