package effect

import (
	"errors"

	"github.com/decker502/rainfx/pkg/types"
)

// Handle 宿主引擎中发射器对象的句柄，0 保留为无效值
type Handle uint64

// MaterialHandle 宿主引擎中材质资源的句柄
type MaterialHandle uint64

// Host 宿主引擎能力
//
// Controller 只通过此接口访问宿主，不调用任何全局状态（当前场景、选中对象、场景脏标记等），
// 测试时可以用假实现替换。
type Host interface {
	// AllocateEmitter 在指定位置创建发射器对象
	AllocateEmitter(position types.Vec3) (Handle, error)

	// ApplyEmitterConfig 把配置的全部字段应用到发射器对象
	ApplyEmitterConfig(h Handle, cfg EmitterConfiguration, mat MaterialHandle) error

	// SetActive 设置发射器对象的激活状态，不重新分配资源
	SetActive(h Handle, active bool)

	// ReleaseEmitter 释放发射器对象
	ReleaseEmitter(h Handle)

	// ResolveMaterial 按着色器名称查找材质，找不到时返回错误
	ResolveMaterial(shader string) (MaterialHandle, error)

	// MarkSceneDirty 通知宿主场景已修改（编辑器据此保存场景）
	MarkSceneDirty()
}

var (
	// ErrResourceUnavailable 材质或着色器无法解析，Create 失败且不分配任何对象
	ErrResourceUnavailable = errors.New("effect: resource unavailable")

	// ErrAllocationFailed 宿主无法分配或配置发射器对象
	ErrAllocationFailed = errors.New("effect: emitter allocation failed")
)
