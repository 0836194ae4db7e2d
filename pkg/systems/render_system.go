package systems

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/decker502/rainfx/pkg/components"
	"github.com/decker502/rainfx/pkg/ecs"
	"github.com/decker502/rainfx/pkg/game"
)

// 雨滴的视觉参数
const (
	// dropStretch 雨滴高宽比（billboard 拉伸成细线）
	dropStretch = 6.0
	// minDropWidth 最小绘制宽度（像素）
	minDropWidth = 1.0
	// litMinBrightness 受光材质在最低处的亮度
	litMinBrightness = 0.55
)

// Camera 侧视相机：世界 X → 屏幕 X，世界 Y（向上）→ 屏幕 Y（向下）
//
// Z 轴只产生一个小的水平偏移，营造景深。
type Camera struct {
	OriginX float64 // 世界原点在屏幕上的 X 坐标
	OriginY float64 // 世界原点在屏幕上的 Y 坐标
	Scale   float64 // 像素/单位
	DepthX  float64 // 每单位 Z 产生的屏幕 X 偏移（像素）
}

// Project 把世界坐标投影到屏幕坐标
func (c Camera) Project(x, y, z float64) (sx, sy float64) {
	return c.OriginX + x*c.Scale + z*c.DepthX, c.OriginY - y*c.Scale
}

// RenderSystem 把雨滴绘制为面向相机的细长矩形（billboard）
//
// 未激活的发射器及其粒子不绘制。
type RenderSystem struct {
	EntityManager *ecs.EntityManager
	Camera        Camera

	// DrawBounds 为 true 时绘制发射盒轮廓（编辑器视图）
	DrawBounds bool
}

// NewRenderSystem 创建渲染系统，相机原点位于屏幕底部中央
func NewRenderSystem(em *ecs.EntityManager, screenWidth, screenHeight int) *RenderSystem {
	return &RenderSystem{
		EntityManager: em,
		Camera: Camera{
			OriginX: float64(screenWidth) / 2,
			OriginY: float64(screenHeight) - 20,
			Scale:   float64(screenHeight) / 24,
			DepthX:  2,
		},
	}
}

// Draw 绘制所有激活的发射器
func (rs *RenderSystem) Draw(screen *ebiten.Image) {
	emitters := ecs.GetEntitiesWith2[
		*components.EmitterComponent,
		*components.TransformComponent,
	](rs.EntityManager)

	for _, id := range emitters {
		emitter, _ := ecs.GetComponent[*components.EmitterComponent](rs.EntityManager, id)
		origin, _ := ecs.GetComponent[*components.TransformComponent](rs.EntityManager, id)
		if !emitter.Active {
			continue
		}

		if rs.DrawBounds {
			rs.drawBounds(screen, emitter, origin)
		}

		for _, particleID := range emitter.ActiveParticles {
			drop, ok := ecs.GetComponent[*components.DropComponent](rs.EntityManager, particleID)
			if !ok {
				continue
			}
			pos, ok := ecs.GetComponent[*components.TransformComponent](rs.EntityManager, particleID)
			if !ok {
				continue
			}

			sx, sy := rs.Camera.Project(pos.X, pos.Y, pos.Z)
			w := math.Max(minDropWidth, drop.Size*rs.Camera.Scale)
			h := w * dropStretch
			clr := ShadeColor(emitter.Material, pos.Y, origin.Y, drop.Age/drop.Lifetime)

			vector.DrawFilledRect(screen, float32(sx-w/2), float32(sy-h/2), float32(w), float32(h), clr, false)
		}
	}
}

func (rs *RenderSystem) drawBounds(screen *ebiten.Image, emitter *components.EmitterComponent, origin *components.TransformComponent) {
	ext := emitter.Config.Shape.Extents
	x0, y0 := rs.Camera.Project(origin.X-ext.X/2, origin.Y+ext.Y/2, 0)
	x1, y1 := rs.Camera.Project(origin.X+ext.X/2, origin.Y-ext.Y/2, 0)
	vector.StrokeRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(math.Max(1, y1-y0)), 1,
		color.NRGBA{R: 255, G: 220, B: 80, A: 255}, false)
}

// ShadeColor 计算雨滴颜色
//
// 参数：
//   - mat: 材质，nil 时使用白色
//   - height: 雨滴当前高度
//   - top: 发射器高度（受光材质在此高度最亮）
//   - lifeFraction: 已度过的生命周期比例（0-1），最后 20% 逐渐淡出
func ShadeColor(mat *game.Material, height, top, lifeFraction float64) color.NRGBA {
	base := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	if mat != nil {
		base = mat.Color
	}

	brightness := 1.0
	if mat != nil && mat.Lit && top > 0 {
		ratio := clamp01(height / top)
		brightness = litMinBrightness + (1-litMinBrightness)*ratio
	}

	alpha := 1.0
	if lifeFraction > 0.8 {
		alpha = clamp01((1 - lifeFraction) / 0.2)
	}

	return color.NRGBA{
		R: uint8(float64(base.R) * brightness),
		G: uint8(float64(base.G) * brightness),
		B: uint8(float64(base.B) * brightness),
		A: uint8(float64(base.A) * alpha),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
