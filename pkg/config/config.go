package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 配置树节点，优先级：环境变量>配置文件>默认值
type Config struct {
	Ptr      reflect.Value //指向配置结构体值
	Env      any           //环境变量中的值
	File     any           //配置文件中的值
	Default  any           //默认值
	name     string        // 小写
	propsMap map[string]*Config
	props    []*Config
	tag      reflect.StructTag
}

func (config *Config) Get(key string) (v *Config) {
	if config.propsMap == nil {
		config.propsMap = make(map[string]*Config)
	}
	if v, ok := config.propsMap[key]; ok {
		return v
	} else {
		v = &Config{
			name: key,
		}
		config.propsMap[key] = v
		config.props = append(config.props, v)
		return v
	}
}

func (config *Config) Has(key string) (ok bool) {
	if config.propsMap == nil {
		return false
	}
	_, ok = config.propsMap[strings.ToLower(key)]
	return ok
}

func (config *Config) GetValue() any {
	return config.Ptr.Interface()
}

// Parse 第一步读取配置结构体的默认值，然后读取环境变量
func (config *Config) Parse(s any, prefix ...string) {
	var t reflect.Type
	var v reflect.Value
	if vv, ok := s.(reflect.Value); ok {
		t, v = vv.Type(), vv
	} else {
		t, v = reflect.TypeOf(s), reflect.ValueOf(s)
	}
	if t.Kind() == reflect.Pointer {
		t, v = t.Elem(), v.Elem()
	}

	config.Ptr = v
	config.Default = v.Interface()

	if l := len(prefix); l > 0 && t.Kind() != reflect.Struct {
		name := strings.ToLower(prefix[l-1])
		if tag := config.tag.Get("default"); tag != "" {
			if dv, err := config.assign(name, tag); err == nil {
				v.Set(dv)
				config.Default = v.Interface()
			} else {
				slog.Error("invalid default value", "key", name, "value", tag, "error", err)
			}
		}
		if envValue := os.Getenv(strings.Join(prefix, "_")); envValue != "" {
			if ev, err := config.assign(name, envValue); err == nil {
				v.Set(ev)
				config.Env = v.Interface()
			} else {
				slog.Error("invalid environment value", "key", strings.Join(prefix, "_"), "value", envValue, "error", err)
			}
		}
	}

	if t.Kind() == reflect.Struct {
		for i, j := 0, t.NumField(); i < j; i++ {
			ft, fv := t.Field(i), v.Field(i)

			if !ft.IsExported() {
				continue
			}
			name := strings.ToLower(ft.Name)
			if tag := ft.Tag.Get("yaml"); tag != "" {
				if tag == "-" {
					continue
				}
				name, _, _ = strings.Cut(tag, ",")
			}
			prop := config.Get(name)

			prop.tag = ft.Tag
			prop.Parse(fv, append(prefix, strings.ToUpper(ft.Name))...)
		}
	}
}

// ParseUserFile 第二步读取用户配置文件，环境变量中已设置的值不会被覆盖
func (config *Config) ParseUserFile(conf map[string]any) error {
	if conf == nil {
		return nil
	}
	config.File = conf
	for k, v := range conf {
		k = strings.ToLower(k)
		if !config.Has(k) {
			continue
		}
		if prop := config.Get(k); prop.props != nil {
			if v == nil {
				continue
			}
			sub, ok := v.(map[string]any)
			if !ok {
				return fmt.Errorf("config %s: expected mapping, got %T", k, v)
			}
			if err := prop.ParseUserFile(sub); err != nil {
				return err
			}
		} else {
			fv, err := prop.assign(k, v)
			if err != nil {
				return fmt.Errorf("config %s: %w", k, err)
			}
			prop.File = fv.Interface()
			if prop.Env == nil {
				prop.Ptr.Set(fv)
			}
		}
	}
	return nil
}

func (config *Config) GetMap() map[string]any {
	m := make(map[string]any)
	for k, v := range config.propsMap {
		if v.props != nil {
			if vv := v.GetMap(); vv != nil {
				m[k] = vv
			}
		} else if v.GetValue() != nil {
			m[k] = v.GetValue()
		}
	}
	if len(m) > 0 {
		return m
	}
	return nil
}

func (config *Config) assign(k string, v any) (target reflect.Value, err error) {
	ft := config.Ptr.Type()
	tmpStruct := reflect.StructOf([]reflect.StructField{
		{
			Name: strings.ToUpper(k),
			Type: ft,
		},
	})
	tmpValue := reflect.New(tmpStruct)
	if v != nil {
		var out []byte
		if vv, ok := v.(string); ok {
			out = []byte(fmt.Sprintf("%s: %s", k, vv))
		} else if out, err = yaml.Marshal(map[string]any{k: v}); err != nil {
			return
		}
		if err = yaml.Unmarshal(out, tmpValue.Interface()); err != nil {
			return
		}
	}
	target = tmpValue.Elem().Field(0)
	return
}

// Load 读取默认值、环境变量（前缀 PROBE_）以及可选的 yaml 配置文件
func Load(path string) (probe Probe, err error) {
	var c Config
	c.Parse(&probe, "PROBE")
	if path == "" {
		return
	}
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	var conf map[string]any
	if err = yaml.Unmarshal(data, &conf); err != nil {
		return
	}
	err = c.ParseUserFile(conf)
	return
}
