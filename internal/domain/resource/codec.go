package resource

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Unmarshal JSONをデコード（数値はjson.Numberとして保持）
func Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// DecodeRecord リクエストボディをレコードとしてデコード
func DecodeRecord(data []byte) (Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidRecord)
	}

	var v interface{}
	if err := Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrInvalidRecord)
	}
	return Record(m), nil
}
