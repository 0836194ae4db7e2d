package components

import (
	"github.com/decker502/rainfx/pkg/ecs"
)

// DropComponent 单个雨滴粒子的运行时状态
//
// 位置保存在 TransformComponent 中。VelocityX/Y/Z 是粒子自身速度（初速度 + 重力累积），
// 生命周期速度覆盖（VelocityOverLifetime）在更新时叠加，不写回这里。
//
// 这是纯数据组件，不包含方法。
type DropComponent struct {
	// 速度（单位/秒）
	VelocityX float64
	VelocityY float64
	VelocityZ float64

	// 尺寸
	Size float64

	// 生命周期（秒）
	Age      float64
	Lifetime float64

	// 所属发射器
	Emitter ecs.EntityID
}
