// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/gather/lib/address"
	"github.com/bureau-foundation/gather/lib/codec"
)

const anchorPrefix = "anchor:"

// encodePayload converts a JSONC document to a CBOR payload.
func encodePayload(source []byte) (codec.RawMessage, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(source)))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	converted, err := fromJSON(value)
	if err != nil {
		return nil, err
	}
	data, err := codec.Marshal(converted)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}

func fromJSON(value any) (any, error) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		return v.Float64()
	case string:
		if key, ok := strings.CutPrefix(v, anchorPrefix); ok {
			return address.Anchor(key), nil
		}
		if len(v) == 2*address.Size {
			if hash, err := address.Parse(v); err == nil {
				return hash, nil
			}
		}
		return v, nil
	case []any:
		for i, element := range v {
			converted, err := fromJSON(element)
			if err != nil {
				return nil, err
			}
			v[i] = converted
		}
		return v, nil
	case map[string]any:
		for key, element := range v {
			converted, err := fromJSON(element)
			if err != nil {
				return nil, err
			}
			v[key] = converted
		}
		return v, nil
	default:
		return v, nil
	}
}

// toJSON makes a decoded CBOR value printable as JSON.
func toJSON(value any) any {
	switch v := value.(type) {
	case []byte:
		return hex.EncodeToString(v)
	case []any:
		for i, element := range v {
			v[i] = toJSON(element)
		}
		return v
	case map[string]any:
		for key, element := range v {
			v[key] = toJSON(element)
		}
		return v
	case map[any]any:
		converted := make(map[string]any, len(v))
		for key, element := range v {
			converted[fmt.Sprint(toJSON(key))] = toJSON(element)
		}
		return converted
	default:
		return v
	}
}
