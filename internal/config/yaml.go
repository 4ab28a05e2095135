// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"reflect"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeFor[time.Duration]()

// MarshalYAML renders the configuration with the keys Load reads, in
// declaration order. Durations are written in time.ParseDuration form.
func (c Config) MarshalYAML() (any, error) {
	return structNode(reflect.ValueOf(c))
}

func structNode(v reflect.Value) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	t := v.Type()
	for i := range t.NumField() {
		key := t.Field(i).Tag.Get("koanf")
		if key == "" {
			continue
		}
		val, err := valueNode(v.Field(i))
		if err != nil {
			return nil, oops.With("key", key).Wrap(err)
		}
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
	return n, nil
}

func valueNode(v reflect.Value) (*yaml.Node, error) {
	if v.Type() == durationType {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: time.Duration(v.Int()).String()}, nil
	}
	switch v.Kind() {
	case reflect.Struct:
		return structNode(v)
	case reflect.Slice:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for i := range v.Len() {
			item, err := valueNode(v.Index(i))
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, item)
		}
		return n, nil
	default:
		var n yaml.Node
		if err := n.Encode(v.Interface()); err != nil {
			return nil, oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
		}
		return &n, nil
	}
}
