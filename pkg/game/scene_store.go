package game

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// 存储路径常量
const sceneObject = "scenes"

// SceneStore 场景持久化
//
// 使用 gdata 跨平台存储，场景以 YAML 格式保存在 scenes/<场景名> 下。
// gdataManager 为 nil 时降级为纯内存模式：Save 不报错也不落盘。
type SceneStore struct {
	gdataManager *gdata.Manager
	log          *zap.Logger
}

// NewSceneStore 创建场景存储
//
// 参数：
//   - gdataManager: gdata 存储管理器，可为 nil（降级模式）
//   - logger: 日志记录器，可为 nil
func NewSceneStore(gdataManager *gdata.Manager, logger *zap.Logger) *SceneStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SceneStore{
		gdataManager: gdataManager,
		log:          logger.Named("SceneStore"),
	}
}

// OpenSceneStore 打开 gdata 存储并创建场景存储
//
// gdata 初始化失败时记录警告并降级为纯内存模式。
func OpenSceneStore(appName string, logger *zap.Logger) *SceneStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		logger.Warn("gdata unavailable, scenes will not be persisted", zap.Error(err))
		manager = nil
	}
	return NewSceneStore(manager, logger)
}

// Persistent 是否会真正落盘
func (s *SceneStore) Persistent() bool {
	return s.gdataManager != nil
}

// Save 保存场景并清除修改标记
func (s *SceneStore) Save(doc *SceneDocument) error {
	if doc == nil {
		return fmt.Errorf("scene document is nil")
	}

	// 降级模式：无法持久化，但不报错
	if s.gdataManager == nil {
		doc.ClearDirty()
		return nil
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal scene %q: %w", doc.Name, err)
	}
	if err := s.gdataManager.SaveObjectProp(sceneObject, doc.Name, data); err != nil {
		return fmt.Errorf("failed to save scene %q: %w", doc.Name, err)
	}

	doc.ClearDirty()
	s.log.Info("scene saved", zap.String("scene", doc.Name), zap.Int("objects", len(doc.Objects)))
	return nil
}

// SaveIfDirty 场景有修改时保存
//
// 返回：
//   - bool: 是否执行了保存
//   - error: 保存失败时返回错误
func (s *SceneStore) SaveIfDirty(doc *SceneDocument) (bool, error) {
	if doc == nil || !doc.Dirty() {
		return false, nil
	}
	if err := s.Save(doc); err != nil {
		return false, err
	}
	return true, nil
}

// Load 加载场景，不存在时返回空场景
func (s *SceneStore) Load(name string) (*SceneDocument, error) {
	if name == "" {
		name = DefaultSceneName
	}
	if s.gdataManager == nil || !s.gdataManager.ObjectPropExists(sceneObject, name) {
		return NewSceneDocument(name), nil
	}

	data, err := s.gdataManager.LoadObjectProp(sceneObject, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene %q: %w", name, err)
	}

	doc := NewSceneDocument(name)
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scene %q: %w", name, err)
	}
	return doc, nil
}
