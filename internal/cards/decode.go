// Package cards decodes the structured payloads the agent embeds in its
// responses, either as side-channel structured_data events or as
// delimiter-wrapped markup inside prose. Payload text is model-written and
// frequently sloppy, so parsing is a ladder of progressively looser
// strategies and typing is inferred from shape when the producer does not
// say. Anything that cannot be decoded stays visible as prose; nothing is
// silently dropped.
package cards

import (
	"encoding/json"
)

// Card types the renderer knows how to draw.
const (
	TypeRestaurant        = "restaurant"
	TypeFoodItem          = "food_item"
	TypeOrderDetails      = "order_details"
	TypeRefundStatus      = "refund_status"
	TypeImageVerification = "image_verification_result"
	TypeRefundWorkflow    = "refund_workflow_state"
	TypeDocumentAnalysis  = "document_analysis_result"
)

var knownTypes = map[string]bool{
	TypeRestaurant:        true,
	TypeFoodItem:          true,
	TypeOrderDetails:      true,
	TypeRefundStatus:      true,
	TypeImageVerification: true,
	TypeRefundWorkflow:    true,
	TypeDocumentAnalysis:  true,
}

// KnownType reports whether t is in the closed card tag set.
func KnownType(t string) bool {
	return knownTypes[t]
}

// Item is one renderable card. Type may be empty when no inference rule
// matched; the renderer's fallback owns those.
type Item struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Decode turns a side-channel payload into card items. It accepts the
// decoded forms (map, slice) as well as raw JSON and JSON-ish strings.
// Arrays and results arrays fan out element-wise; a bad element is skipped
// without poisoning its siblings. A nil result means the payload was not
// card-like at all.
func Decode(v any) []Item {
	switch payload := v.(type) {
	case nil:
		return nil

	case json.RawMessage:
		return decodeRaw([]byte(payload))

	case []byte:
		return decodeRaw(payload)

	case string:
		m, _, ok := ParseLoose(payload)
		if !ok {
			return nil
		}
		return Decode(m)

	case []any:
		var items []Item
		for _, elem := range payload {
			items = append(items, Decode(elem)...)
		}
		return items

	case map[string]any:
		if len(payload) == 0 {
			return nil
		}
		// Explicit envelope wins over everything.
		if t, ok := payload["type"].(string); ok {
			if data, ok := payload["data"].(map[string]any); ok {
				return []Item{{Type: t, Data: data}}
			}
		}
		if results, ok := payload["results"].([]any); ok {
			return Decode(results)
		}
		return []Item{infer(payload)}

	default:
		return nil
	}
}

func decodeRaw(raw []byte) []Item {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Decode(string(raw))
	}
	if s, ok := v.(string); ok {
		m, _, parsed := ParseLoose(s)
		if !parsed {
			return nil
		}
		return Decode(m)
	}
	return Decode(v)
}

// infer assigns a card type from payload shape. The rules run in a fixed
// order; the first match wins, and a payload matching nothing is returned
// untyped rather than guessed at.
func infer(m map[string]any) Item {
	switch {
	case hasAny(m, "verification_score", "verification_status"):
		return Item{Type: TypeImageVerification, Data: m}

	case hasAny(m, "workflow_id", "current_state") && hasAny(m, "stage", "reason"):
		return Item{Type: TypeRefundWorkflow, Data: m}

	case hasAny(m, "name") && hasAny(m, "cuisine", "cuisines", "rating"):
		return Item{Type: TypeRestaurant, Data: m}

	case hasAny(m, "name") && hasAny(m, "price", "description"):
		return Item{Type: TypeFoodItem, Data: m}
	}

	if nested, ok := objectField(m, "restaurant", "restaurant_info"); ok {
		return Item{Type: TypeRestaurant, Data: nested}
	}
	if nested, ok := objectField(m, "food_item"); ok {
		return Item{Type: TypeFoodItem, Data: nested}
	}

	// Weak property sniffing, last.
	switch {
	case hasAny(m, "rating", "cuisine", "cuisines"):
		return Item{Type: TypeRestaurant, Data: m}
	case hasAny(m, "price"):
		return Item{Type: TypeFoodItem, Data: m}
	}

	return Item{Data: m}
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func objectField(m map[string]any, keys ...string) (map[string]any, bool) {
	for _, k := range keys {
		if nested, ok := m[k].(map[string]any); ok {
			return nested, true
		}
	}
	return nil, false
}
