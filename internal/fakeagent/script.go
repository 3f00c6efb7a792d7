package fakeagent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gd03champ/swiggy-ai-agent/internal/stream"
)

// Frame is one line of a scripted stream. Exactly one mode applies: a
// typed event (the default), a raw line written verbatim, or an abort
// that kills the connection mid-stream.
type Frame struct {
	Event stream.Event
	Raw   string
	Abort bool
}

// Script is one canned agent turn, replayed frame by frame whenever an
// inbound message matches it.
type Script struct {
	Name          string
	Keywords      []string
	RequiresMedia bool
	Frames        []Frame
}

// Match reports whether the script should serve the message. A script
// without keywords matches anything, which is how the fallback works.
func (s Script) Match(message string, hasMedia bool) bool {
	if s.RequiresMedia && !hasMedia {
		return false
	}
	if len(s.Keywords) == 0 {
		return true
	}
	lower := strings.ToLower(message)
	for _, kw := range s.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SelectScript returns the first matching script in table order.
func SelectScript(scripts []Script, message string, hasMedia bool) (Script, bool) {
	for _, s := range scripts {
		if s.Match(message, hasMedia) {
			return s, true
		}
	}
	return Script{}, false
}

// DefaultScripts is the built-in scenario table. More specific
// scenarios come first; the keyword-less greeting catches the rest.
func DefaultScripts() []Script {
	return []Script{
		refundPhotoScript(),
		documentScript(),
		failureScript(),
		malformedScript(),
		refundScript(),
		orderScript(),
		menuScript(),
		searchScript(),
		greetingScript(),
	}
}

func searchScript() Script {
	restaurants := []any{
		map[string]any{"name": "Sri Pizza Corner", "cuisine": "Italian", "rating": 4.4, "price_range": "₹₹", "area": "Indiranagar"},
		map[string]any{"name": "Firewood Oven", "cuisine": "Italian, Continental", "rating": 4.2, "price_range": "₹₹₹", "area": "Koramangala"},
		map[string]any{"name": "Slice House", "cuisine": "Pizza, Fast Food", "rating": 3.9, "price_range": "₹", "area": "HSR Layout"},
	}
	return Script{
		Name:     "search",
		Keywords: []string{"search", "find", "restaurant", "pizza", "hungry"},
		Frames: []Frame{
			thinkingFrame("Looking for restaurants that match your craving."),
			toolStartFrame(stream.KindAgentAction, "search_restaurants", map[string]any{"query": "pizza"}),
			toolEndFrame("search_restaurants", map[string]any{"results": restaurants}),
			structuredFrame(map[string]any{"results": restaurants}),
			messageFrame("I found a few pizza places near you. Sri Pizza Corner in Indiranagar has the best ratings for classic wood-fired pies. Want to see a menu?"),
			doneFrame(),
		},
	}
}

func menuScript() Script {
	return Script{
		Name:     "menu",
		Keywords: []string{"menu", "dishes", "what do they have"},
		Frames: []Frame{
			thinkingFrame("Let me pull up that menu."),
			reasoningFrame(1, `I will check the menu.', 'type': 'tool_use', 'name': 'get_restaurant_menu', 'partial_json': '{"restaurant_id": 123}'`),
			toolStartFrame(stream.KindToolStart, "get_restaurant_menu", map[string]any{"restaurant_id": 123}),
			toolEndFrame("get_restaurant_menu", map[string]any{
				"restaurant_info": map[string]any{"name": "Sri Pizza Corner", "cuisine": "Italian", "rating": 4.4, "area": "Indiranagar"},
				"menu": []any{
					map[string]any{"name": "Margherita", "price": 249, "description": "Classic tomato, basil, and mozzarella"},
					map[string]any{"name": "Farmhouse", "price": 329, "description": "Loaded with seasonal vegetables"},
					map[string]any{"name": "Pepperoni", "price": 379, "description": "Double pepperoni on a thin crust"},
					map[string]any{"name": "Garlic Bread", "price": 129, "description": "With herbed butter"},
				},
			}),
			structuredFrame(map[string]any{
				"type": "restaurant",
				"data": map[string]any{"name": "Sri Pizza Corner", "cuisine": "Italian", "rating": 4.4, "area": "Indiranagar"},
			}),
			messageFrame("Here are the highlights from Sri Pizza Corner:\n\n" +
				`:::food_item{"name": "Margherita", "price": 249, "description": "Classic tomato, basil, and mozzarella"}:::` +
				"\n\n" +
				`:::food_item{"name": "Farmhouse", "price": 329, "description": "Loaded with seasonal vegetables"}:::` +
				"\n\nShall I place an order for one of these?"),
			doneFrame(),
		},
	}
}

func orderScript() Script {
	return Script{
		Name:     "order",
		Keywords: []string{"order", "delivery status", "track"},
		Frames: []Frame{
			thinkingFrame("Checking the latest status of your order."),
			toolStartFrame(stream.KindAgentAction, "get_order_details", map[string]any{"order_id": "ORD-7421"}),
			toolEndFrame("get_order_details", map[string]any{
				"order_id":    "ORD-7421",
				"status":      "out_for_delivery",
				"total_price": 578,
			}),
			messageFrame("Your order is on its way:\n\n" +
				`:::order_details{"order_id": "ORD-7421", "items": [{"name": "Margherita", "quantity": 1}, {"name": "Garlic Bread", "quantity": 2}], "total_price": 578, "status": "out for delivery"}:::` +
				"\n\nThe rider should reach you in about 12 minutes."),
			doneFrame(),
		},
	}
}

func refundScript() Script {
	return Script{
		Name:     "refund",
		Keywords: []string{"refund", "money back", "cancel"},
		Frames: []Frame{
			thinkingFrame("Checking whether this order qualifies for a refund."),
			toolStartFrame(stream.KindToolStart, "initiate_refund", map[string]any{"order_id": "ORD-7421"}),
			toolEndFrame("initiate_refund", map[string]any{
				"refund_id": "RF-301",
				"status":    "initiated",
				"amount":    578,
			}),
			structuredFrame(map[string]any{
				"type": "refund_status",
				"data": map[string]any{
					"order_id": "ORD-7421",
					"status":   "initiated",
					"amount":   578,
					"timeline": "3-5 business days",
				},
			}),
			messageFrame("I've started a refund of ₹578 for order ORD-7421. The amount should reach your account within 3-5 business days."),
			doneFrame(),
		},
	}
}

func refundPhotoScript() Script {
	return Script{
		Name:          "refund-photo",
		Keywords:      []string{"refund", "damaged", "wrong item", "spilled"},
		RequiresMedia: true,
		Frames: []Frame{
			thinkingFrame("Reviewing the photo you attached against the order."),
			toolStartFrame(stream.KindToolStart, "verify_refund_image", map[string]any{"order_id": "ORD-7421"}),
			toolEndFrame("verify_refund_image", map[string]any{
				"verification_score":  0.87,
				"verification_status": "verified",
				"issue_detected":      "spilled packaging",
			}),
			structuredFrame(map[string]any{
				"type": "image_verification_result",
				"data": map[string]any{
					"verification_score":  0.87,
					"verification_status": "verified",
					"issue_detected":      "spilled packaging",
					"order_id":            "ORD-7421",
				},
			}),
			messageFrame("Thanks for the photo. The damage is clearly visible, so I've approved the refund claim for order ORD-7421. You'll see the amount back within 3-5 business days."),
			doneFrame(),
		},
	}
}

func documentScript() Script {
	return Script{
		Name:          "document",
		Keywords:      []string{"report", "document", "prescription", "diet"},
		RequiresMedia: true,
		Frames: []Frame{
			thinkingFrame("Going through the document you shared."),
			toolStartFrame(stream.KindToolStart, "analyze_medical_document", map[string]any{"document_type": "lab_report"}),
			toolEndFrame("analyze_medical_document", map[string]any{
				"conditions":      []any{map[string]any{"name": "elevated cholesterol", "severity": "mild"}},
				"recommendations": "low-oil, high-fiber meals",
			}),
			structuredFrame(map[string]any{
				"type": "document_analysis_result",
				"data": map[string]any{
					"conditions":      []any{"elevated cholesterol"},
					"recommendations": "low-oil, high-fiber meals",
				},
			}),
			messageFrame("Based on your report I'd suggest lighter, high-fiber meals this week. Grilled bowls and salads from rated-4+ places near you would be a good fit. Want me to search for some?"),
			doneFrame(),
		},
	}
}

func malformedScript() Script {
	return Script{
		Name:     "malformed",
		Keywords: []string{"malformed"},
		Frames: []Frame{
			thinkingFrame("Running a scenario with noise on the wire."),
			rawFrame("data: {this is not json}"),
			rawFrame(": keepalive"),
			errorFrame("Tool quota exceeded, continuing without cache"),
			messageFrame("That stream had some noise in it, but the useful parts made it through."),
			doneFrame(),
		},
	}
}

func failureScript() Script {
	return Script{
		Name:     "failure",
		Keywords: []string{"failure", "flaky"},
		Frames: []Frame{
			thinkingFrame("This scenario drops the connection mid-stream."),
			abortFrame(),
		},
	}
}

func greetingScript() Script {
	return Script{
		Name: "greeting",
		Frames: []Frame{
			messageFrame("Hello! I can help you find restaurants, browse menus, track orders, and handle refunds. What are you in the mood for?"),
			doneFrame(),
		},
	}
}

func thinkingFrame(text string) Frame {
	return Frame{Event: stream.Event{Kind: stream.KindThinking, Data: mustJSON(text)}}
}

func reasoningFrame(step int, thought string) Frame {
	return Frame{Event: stream.Event{
		Kind: stream.KindReasoningStep,
		Data: mustJSON(stream.ReasoningStepData{Step: step, Thought: thought}),
	}}
}

func toolStartFrame(kind stream.Kind, tool string, input map[string]any) Frame {
	return Frame{Event: stream.Event{Kind: kind, ToolName: tool, Input: mustJSON(input)}}
}

func toolEndFrame(tool string, output map[string]any) Frame {
	return Frame{Event: stream.Event{Kind: stream.KindToolEnd, ToolName: tool, Output: mustJSON(output)}}
}

func structuredFrame(data any) Frame {
	return Frame{Event: stream.Event{Kind: stream.KindStructuredData, Data: mustJSON(data)}}
}

func messageFrame(text string) Frame {
	return Frame{Event: stream.Event{Kind: stream.KindMessage, Data: mustJSON(text)}}
}

func errorFrame(text string) Frame {
	return Frame{Event: stream.Event{Kind: stream.KindError, Data: mustJSON(text)}}
}

func doneFrame() Frame {
	return Frame{Event: stream.Event{Kind: stream.KindDone}}
}

func rawFrame(line string) Frame {
	return Frame{Raw: line}
}

func abortFrame() Frame {
	return Frame{Abort: true}
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("fakeagent: fixture does not marshal: %v", err))
	}
	return raw
}
