package template

import (
	"fmt"
	"strings"

	"github.com/aescanero/dago-node-render/internal/repeat"
)

// buildHelpers returns the helpers attached to every compiled template
func (e *Engine) buildHelpers() map[string]interface{} {
	return map[string]interface{}{
		repeat.Name: e.repeatHelper,

		// uppercase helper
		"uppercase": func(str string) string {
			return strings.ToUpper(str)
		},

		// lowercase helper
		"lowercase": func(str string) string {
			return strings.ToLower(str)
		},

		// trim helper
		"trim": func(str string) string {
			return strings.TrimSpace(str)
		},

		// default helper - return default value if first arg is empty
		"default": func(value interface{}, defaultValue interface{}) interface{} {
			if value == nil || value == "" {
				return defaultValue
			}
			return value
		},

		// eq helper - equality comparison
		"eq": func(a, b interface{}) bool {
			return a == b
		},

		// ne helper - inequality comparison
		"ne": func(a, b interface{}) bool {
			return a != b
		},

		// gt helper - greater than (for numbers)
		"gt": func(a, b float64) bool {
			return a > b
		},

		// lt helper - less than (for numbers)
		"lt": func(a, b float64) bool {
			return a < b
		},

		// contains helper - check if string contains substring
		"contains": func(str, substr string) bool {
			return strings.Contains(str, substr)
		},

		// join helper - join array elements with separator
		"join": func(arr []interface{}, sep string) string {
			strs := make([]string, len(arr))
			for i, v := range arr {
				strs[i] = fmt.Sprint(v)
			}
			return strings.Join(strs, sep)
		},

		// len helper - get length of array/string
		"len": func(value interface{}) int {
			switch v := value.(type) {
			case string:
				return len(v)
			case []interface{}:
				return len(v)
			case map[string]interface{}:
				return len(v)
			default:
				return 0
			}
		},
	}
}
