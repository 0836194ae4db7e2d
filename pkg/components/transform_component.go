package components

// TransformComponent 实体的世界坐标（Y 轴向上）
type TransformComponent struct {
	X, Y, Z float64
}

// NameComponent 场景中显示的对象名称
type NameComponent struct {
	Name string
}
