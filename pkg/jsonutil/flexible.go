// Package jsonutil handles loosely typed JSON from legacy review
// clients.
package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringSlice decodes either a JSON array of strings or a
// single bare string. Older mobile builds sent one source URL as a
// plain string instead of a one-element array.
type FlexibleStringSlice []string

func (s *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}

	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = []string{one}
		}
		return nil
	}

	return fmt.Errorf("sources must be a string or an array of strings")
}
