package game

import (
	"github.com/decker502/rainfx/pkg/types"
)

// DefaultSceneName 默认场景名称
const DefaultSceneName = "main"

// SceneObject 场景中的一个对象（目前只有发射器）
type SceneObject struct {
	Handle       uint64     `yaml:"handle"`
	Name         string     `yaml:"name"`
	Position     types.Vec3 `yaml:"position"`
	Extents      types.Vec3 `yaml:"extents"`
	EmissionRate float64    `yaml:"emissionRate"`
	Shader       string     `yaml:"shader"`
	Active       bool       `yaml:"active"`
}

// SceneDocument 宿主场景文档
//
// 记录场景中的对象、当前选中对象和"已修改"标记。
// 编辑器在场景被修改后调用 SceneStore.SaveIfDirty 持久化。
type SceneDocument struct {
	Name     string        `yaml:"name"`
	Objects  []SceneObject `yaml:"objects"`
	Selected uint64        `yaml:"selected,omitempty"`

	dirty bool
}

// NewSceneDocument 创建空场景
func NewSceneDocument(name string) *SceneDocument {
	if name == "" {
		name = DefaultSceneName
	}
	return &SceneDocument{Name: name}
}

// MaxHandle 返回场景中最大的对象句柄，空场景返回 0
func (d *SceneDocument) MaxHandle() uint64 {
	var max uint64
	for _, obj := range d.Objects {
		if obj.Handle > max {
			max = obj.Handle
		}
	}
	return max
}

// Add 添加对象（同句柄对象会被替换）
func (d *SceneDocument) Add(obj SceneObject) {
	for i := range d.Objects {
		if d.Objects[i].Handle == obj.Handle {
			d.Objects[i] = obj
			return
		}
	}
	d.Objects = append(d.Objects, obj)
}

// Remove 移除对象，同时清除选中状态
func (d *SceneDocument) Remove(handle uint64) bool {
	for i := range d.Objects {
		if d.Objects[i].Handle == handle {
			d.Objects = append(d.Objects[:i], d.Objects[i+1:]...)
			if d.Selected == handle {
				d.Selected = 0
			}
			return true
		}
	}
	return false
}

// Object 按句柄获取对象
func (d *SceneDocument) Object(handle uint64) (*SceneObject, bool) {
	for i := range d.Objects {
		if d.Objects[i].Handle == handle {
			return &d.Objects[i], true
		}
	}
	return nil, false
}

// Select 选中对象，句柄不存在时清除选中
func (d *SceneDocument) Select(handle uint64) {
	if _, ok := d.Object(handle); ok {
		d.Selected = handle
		return
	}
	d.Selected = 0
}

// MarkDirty 标记场景已修改
func (d *SceneDocument) MarkDirty() { d.dirty = true }

// Dirty 场景是否有未保存的修改
func (d *SceneDocument) Dirty() bool { return d.dirty }

// ClearDirty 保存后清除修改标记
func (d *SceneDocument) ClearDirty() { d.dirty = false }
