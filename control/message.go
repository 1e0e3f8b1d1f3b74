// Package control connects external control surfaces to the parameter store.
//
// Each surface runs in its own goroutine and pushes complete parameter
// records through an Updater. Malformed input is logged and dropped; a
// surface never reports failure back to the render loop.
package control

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/warpviz/params"
)

// Updater receives complete parameter records. *params.Store implements it.
type Updater interface {
	Update(p params.Set)
}

// DecodeMessage parses one websocket update. Two forms are accepted:
//
//	{"duty_cycle": 0.14, "geometric_amplification": 26, ...}
//	[0.14, 26, 1e9, 16, 4102.74, 83.3, 1405]
//
// An object replaces the whole record, so omitted keys become zero. The
// array form must hold exactly params.NumFields numbers in layout order.
func DecodeMessage(data []byte) (params.Set, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return params.Set{}, fmt.Errorf("empty message")
	}

	switch data[0] {
	case '[':
		var values []float32
		if err := json.Unmarshal(data, &values); err != nil {
			return params.Set{}, fmt.Errorf("decoding parameter array: %w", err)
		}
		if len(values) != params.NumFields {
			return params.Set{}, fmt.Errorf("parameter array has %d values, want %d", len(values), params.NumFields)
		}
		var arr [params.NumFields]float32
		copy(arr[:], values)
		return params.FromArray(arr), nil
	case '{':
		var set params.Set
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&set); err != nil {
			return params.Set{}, fmt.Errorf("decoding parameter object: %w", err)
		}
		return set, nil
	default:
		return params.Set{}, fmt.Errorf("unrecognized message starting with %q", data[0])
	}
}

// DecodeFile parses a YAML parameter file using the same keys as the
// websocket object form.
func DecodeFile(data []byte) (params.Set, error) {
	var set params.Set
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return params.Set{}, fmt.Errorf("decoding parameter file: %w", err)
	}
	return set, nil
}
