package aps

import (
	"encoding/json"

	"github.com/ternarybob/arbor"
)

// Record is one normalized item from a response envelope. Every record is
// guaranteed to carry an "id" key.
type Record map[string]interface{}

// Normalize accepts the heterogeneous envelope shapes the APS endpoints
// serve and produces one flat sequence of records. The shape rules are
// ordered; the first match wins:
//
//  1. bare JSON string            -> upstream error
//  2. array                       -> used directly
//  3. object with "results"       -> that value ("data" when results empty)
//     object with "data"          -> that value
//  4. object with only "error"    -> upstream error
//  5. object with id + attributes -> wrapped as a one-element sequence
//  6. anything else               -> shape error
//
// Candidate items that are not objects, or that lack an id, are skipped and
// counted; the count is visible through the logger only.
func Normalize(body []byte, logger arbor.ILogger) ([]Record, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ShapeError{Detail: "body is not valid JSON: " + err.Error()}
	}

	items, err := selectItems(raw)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	skipped := 0
	for _, item := range items {
		rec, ok := item.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		if id, ok := rec["id"].(string); !ok || id == "" {
			// Numeric ids also count as present.
			if _, isNum := rec["id"].(float64); !isNum {
				skipped++
				continue
			}
		}
		records = append(records, Record(rec))
	}

	if skipped > 0 && logger != nil {
		logger.Warn().
			Int("skipped", skipped).
			Int("kept", len(records)).
			Msg("Skipped malformed items in API response")
	}

	return records, nil
}

// selectItems applies the ordered envelope rules and returns the raw item
// sequence to normalize.
func selectItems(raw interface{}) ([]interface{}, error) {
	switch v := raw.(type) {
	case string:
		// The API sometimes delivers an error message as a bare string body.
		return nil, &UpstreamError{Message: v}

	case []interface{}:
		return v, nil

	case map[string]interface{}:
		if results, ok := v["results"]; ok {
			if list := asList(results); len(list) > 0 {
				return list, nil
			}
			// Empty results: older responses carry the payload under "data".
			return asList(v["data"]), nil
		}
		if data, ok := v["data"]; ok {
			return asList(data), nil
		}
		if errMsg, ok := v["error"]; ok && len(v) == 1 {
			return nil, &UpstreamError{Message: stringify(errMsg)}
		}
		if _, hasID := v["id"]; hasID {
			if _, hasAttrs := v["attributes"]; hasAttrs {
				// A single record served without an envelope.
				return []interface{}{v}, nil
			}
		}
		return nil, &ShapeError{Detail: "object has none of results/data/error/id+attributes"}

	default:
		return nil, &ShapeError{Detail: "body is neither a sequence nor an object"}
	}
}

func asList(v interface{}) []interface{} {
	if list, ok := v.([]interface{}); ok {
		return list
	}
	return nil
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "unknown error"
	}
	return string(b)
}
