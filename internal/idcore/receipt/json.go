package receipt

import "encoding/json"

// canonicalJSON serializes v to JSON. encoding/json already sorts map
// keys lexicographically, which is sufficient determinism for the
// free-form ActionContent.Data field: the same value always serializes
// to the same bytes.
func canonicalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}
