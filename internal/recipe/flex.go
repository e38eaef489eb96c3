package recipe

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// FlexString holds a free-text field that model output sometimes encodes as
// a number, a boolean or a small object.
type FlexString string

// UnmarshalJSON implements the json.Unmarshaler interface for FlexString.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if data[0] == '{' {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		parts := make([]string, 0, len(m))
		for k, v := range m {
			b, _ := json.Marshal(v)
			parts = append(parts, k+": "+strings.Trim(string(b), `"`))
		}
		sort.Strings(parts)
		*f = FlexString(strings.Join(parts, ", "))
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	*f = FlexString(buf.String())
	return nil
}
