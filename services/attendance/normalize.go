package attendance

import (
	"fmt"
	"strconv"
)

// ExtractID reduces an identifier of any upstream shape to its canonical
// string form. Directory data imported from the previous system carries ids as
// bare strings, numbers, or wrapper objects ({"$oid": ...}, {"_id": ...},
// {"id": ...}), sometimes nested. Every identifier comparison in this package
// goes through ExtractID so raw values are never compared directly.
func ExtractID(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		// JSON numbers decode as float64; ids are integral
		return strconv.FormatInt(int64(t), 10)
	case map[string]interface{}:
		for _, key := range []string{"$oid", "_id", "id"} {
			if inner, ok := t[key]; ok {
				if s := ExtractID(inner); s != "" {
					return s
				}
			}
		}
		return ""
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case *uint:
		if t == nil {
			return ""
		}
		return strconv.FormatUint(uint64(*t), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}
