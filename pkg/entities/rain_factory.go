package entities

import (
	"github.com/decker502/rainfx/pkg/effect"
	"github.com/decker502/rainfx/pkg/types"
)

// SimpleRainName 静态工厂创建的场景对象名称
const SimpleRainName = "Rain"

// CreateRain 在指定位置创建雨效果（一次性调用的静态工厂）
//
// 使用 simple 预设（受光材质），位置、发射区域和发射率由调用者提供。
// 场景对象命名为 SimpleRainName。
// 控制器已有实例时直接返回现有实例。
//
// 参数：
//   - ctrl: 效果生命周期控制器
//   - position: 发射器中心（世界坐标）
//   - area: 发射盒尺寸
//   - emissionRate: 每秒发射粒子数，<= 0 时发射器存在但不发射
//
// 示例：
//
//	inst, err := entities.CreateRain(ctrl, types.V3(0, 15, 0), types.V3(50, 1, 50), 150)
//	if err != nil {
//	    logger.Error("failed to create rain", zap.Error(err))
//	}
func CreateRain(ctrl *effect.Controller, position, area types.Vec3, emissionRate float64) (*effect.Instance, error) {
	params, _ := effect.Preset(effect.PresetSimple)
	params.Position = position
	params.Extents = area
	params.EmissionRate = emissionRate
	cfg := effect.Build(params)
	cfg.Name = SimpleRainName
	return ctrl.Create(cfg)
}

// CreateDefaultRain 使用 simple 预设的默认位置、区域和发射率创建雨效果
func CreateDefaultRain(ctrl *effect.Controller) (*effect.Instance, error) {
	params, _ := effect.Preset(effect.PresetSimple)
	return CreateRain(ctrl, params.Position, params.Extents, params.EmissionRate)
}
