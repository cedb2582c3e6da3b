package recap

import (
	"bytes"
	"encoding/json"
)

// Progress is the completion value reported for a photoscene. The service
// sends it as a number, a string, or an empty object before work starts.
type Progress string

// UnmarshalJSON normalizes the loose wire shapes: null becomes empty,
// scalars become their textual form and any object becomes "0.0"
func (p *Progress) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	switch data[0] {
	case '{':
		*p = "0.0"
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Progress(s)
	case '[':
		*p = ""
	default:
		// numbers and booleans keep their literal text
		*p = Progress(data)
	}
	return nil
}

func (p Progress) String() string {
	return string(p)
}
