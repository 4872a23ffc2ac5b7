package store

import "encoding/json"

// marshalParams encodes a TDQL/PGQL parameter map into the JSON payload
// AGE's cypher() function expects for its agtype parameter argument.
func marshalParams(params map[string]interface{}) (string, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	b, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
