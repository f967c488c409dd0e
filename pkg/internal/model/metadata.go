package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// MetadataEntry 一个键值对.
type MetadataEntry struct {
	Key   string
	Value any
}

// Metadata 保持插入顺序的开放键值表，嵌套对象同样保序.
// 序列化为 JSON 对象文本；PostgreSQL 使用 json 而非 jsonb 以保留键顺序.
type Metadata []MetadataEntry

// Get 按键查找.
func (m Metadata) Get(key string) (any, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}

	return nil, false
}

// Set 覆盖已有键（位置不变）或追加到末尾.
func (m *Metadata) Set(key string, value any) {
	for i := range *m {
		if (*m)[i].Key == key {
			(*m)[i].Value = value

			return
		}
	}

	*m = append(*m, MetadataEntry{Key: key, Value: value})
}

// Keys 按顺序返回所有键.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for _, e := range m {
		keys = append(keys, e.Key)
	}

	return keys
}

// MarshalJSON 按插入顺序输出对象.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := sonic.Marshal(e.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata key %q: %w", e.Key, err)
		}

		v, err := sonic.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal metadata value %q: %w", e.Key, err)
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON 逐 token 解析以保留键顺序；null 得到空表.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	if tok == nil {
		*m = Metadata{}

		return nil
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("decode metadata: expected JSON object")
	}

	out, err := decodeObject(dec)
	if err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode metadata: trailing data after object")
	}

	*m = out

	return nil
}

// decodeObject 读取 '{' 之后直到匹配的 '}'.
func decodeObject(dec *json.Decoder) (Metadata, error) {
	out := Metadata{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}

		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		out = append(out, MetadataEntry{Key: key, Value: val})
	}

	// '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return out, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			arr := []any{}

			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}

				arr = append(arr, v)
			}

			// ']'
			if _, err := dec.Token(); err != nil {
				return nil, err
			}

			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return t, nil
	}
}

// Value 实现 driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}

	b, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan 实现 sql.Scanner.
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}

		return nil
	case []byte:
		return m.UnmarshalJSON(v)
	case string:
		return m.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}
}
