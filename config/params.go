package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseBaseParams reads default request parameters from a JSON object given
// inline or as a path to a JSON file. Values are flattened to query strings.
func ParseBaseParams(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]string{}, nil
	}

	data := []byte(raw)
	if info, err := os.Stat(raw); err == nil && !info.IsDir() {
		if data, err = os.ReadFile(raw); err != nil {
			return nil, fmt.Errorf("%w: read base params: %v", ErrConfig, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: base params must be a JSON object: %v", ErrConfig, err)
	}

	params := make(map[string]string, len(obj))
	for k, v := range obj {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			params[k] = x
		case json.Number:
			params[k] = x.String()
		case bool:
			params[k] = strconv.FormatBool(x)
		default:
			b, err := json.Marshal(x)
			if err != nil {
				return nil, fmt.Errorf("%w: base param %q: %v", ErrConfig, k, err)
			}
			params[k] = string(b)
		}
	}
	return params, nil
}
