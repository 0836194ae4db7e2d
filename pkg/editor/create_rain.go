// Package editor 提供编辑器菜单命令
package editor

import (
	"fmt"
	"sort"

	"github.com/decker502/rainfx/pkg/effect"
)

// MenuCreateRain 菜单路径
const MenuCreateRain = "Tools/Create Rain System in Scene"

// Selector 编辑器的对象选择能力
type Selector interface {
	Select(h effect.Handle)
}

// Command 编辑器命令
type Command func(ctrl *effect.Controller, sel Selector) (*effect.Instance, error)

// Commands 菜单路径到命令的映射
var Commands = map[string]Command{
	MenuCreateRain: CreateRainInScene,
}

// MenuPaths 返回按字母排序的菜单路径
func MenuPaths() []string {
	paths := make([]string, 0, len(Commands))
	for p := range Commands {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Run 执行菜单命令
func Run(path string, ctrl *effect.Controller, sel Selector) (*effect.Instance, error) {
	cmd, ok := Commands[path]
	if !ok {
		return nil, fmt.Errorf("unknown editor command %q", path)
	}
	return cmd(ctrl, sel)
}

// CreateRainInScene 在当前场景创建雨效果并选中它
//
// 使用 editor 预设。场景的"已修改"标记由控制器在创建成功后设置。
// sel 为 nil 时不改变选择。
func CreateRainInScene(ctrl *effect.Controller, sel Selector) (*effect.Instance, error) {
	params, _ := effect.Preset(effect.PresetEditor)
	inst, err := ctrl.Create(effect.Build(params))
	if err != nil {
		return nil, err
	}
	if sel != nil {
		sel.Select(inst.Handle())
	}
	return inst, nil
}
