package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/knadh/koanf"
	"gopkg.in/yaml.v3"
)

// sonicParser JSON解析器（koanf.Parser）
type sonicParser struct{}

func (sonicParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := sonic.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("config is not a JSON object")
	}
	return out, nil
}

func (sonicParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return sonic.Marshal(m)
}

// yamlParser YAML解析器（koanf.Parser）
type yamlParser struct{}

func (yamlParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("config is not a YAML mapping")
	}
	return out, nil
}

func (yamlParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(m)
}

// parserFor 按扩展名选择解析器，默认JSON
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlParser{}
	default:
		return sonicParser{}
	}
}
