package modifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mapsFile 系数表覆盖文件格式
//
// 示例：
//
//	speed:     [1.0, 0.8, 0.5, 0.2, 0.0]
//	amplitude: [1.0, 0.9, 0.7, 0.5, 0.0]
//	force:     [1.0, 0.85, 0.6, 0.3, 0.0]
//
// 未给出的表使用内置默认值；每张表必须恰好 5 个元素（等级 0-4）
type mapsFile struct {
	Speed     []float64 `yaml:"speed"`
	Amplitude []float64 `yaml:"amplitude"`
	Force     []float64 `yaml:"force"`
}

// NewMapperFromFile 从 YAML 覆盖文件创建映射器
func NewMapperFromFile(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read modifier map file: %w", err)
	}

	var file mapsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse modifier map file: %w", err)
	}

	speed, err := overlay(DefaultSpeedMap, file.Speed, "speed")
	if err != nil {
		return nil, err
	}
	amplitude, err := overlay(DefaultAmplitudeMap, file.Amplitude, "amplitude")
	if err != nil {
		return nil, err
	}
	force, err := overlay(DefaultForceMap, file.Force, "force")
	if err != nil {
		return nil, err
	}

	return NewMapperWithMaps(speed, amplitude, force), nil
}

func overlay(def LevelMap, values []float64, name string) (LevelMap, error) {
	if values == nil {
		return def, nil
	}
	if len(values) != len(def) {
		return def, fmt.Errorf("modifier map %q must have exactly %d entries, got %d", name, len(def), len(values))
	}
	var out LevelMap
	copy(out[:], values)
	return out, nil
}
