package fakeagent

import (
	"net/http"
	"strconv"
)

// Catalog fixtures. The real endpoints proxy an upstream listings API;
// here a small fixed dataset covers what the tools and the CLI need.

var fixtureRestaurants = []map[string]any{
	{
		"id":            "r-101",
		"name":          "Sri Pizza Corner",
		"cuisine":       "Italian",
		"rating":        4.4,
		"price_range":   "₹₹",
		"area":          "Indiranagar",
		"delivery_time": "25-30 min",
	},
	{
		"id":            "r-102",
		"name":          "Firewood Oven",
		"cuisine":       "Italian, Continental",
		"rating":        4.2,
		"price_range":   "₹₹₹",
		"area":          "Koramangala",
		"delivery_time": "35-40 min",
	},
	{
		"id":            "r-103",
		"name":          "Slice House",
		"cuisine":       "Pizza, Fast Food",
		"rating":        3.9,
		"price_range":   "₹",
		"area":          "HSR Layout",
		"delivery_time": "20-25 min",
	},
	{
		"id":            "r-104",
		"name":          "Dakshin Tiffins",
		"cuisine":       "South Indian",
		"rating":        4.6,
		"price_range":   "₹",
		"area":          "Jayanagar",
		"delivery_time": "15-20 min",
	},
}

var fixtureMenu = []map[string]any{
	{"id": "m-1", "name": "Margherita", "price": 249, "description": "Classic tomato, basil, and mozzarella", "veg": true},
	{"id": "m-2", "name": "Farmhouse", "price": 329, "description": "Loaded with seasonal vegetables", "veg": true},
	{"id": "m-3", "name": "Pepperoni", "price": 379, "description": "Double pepperoni on a thin crust", "veg": false},
	{"id": "m-4", "name": "Garlic Bread", "price": 129, "description": "With herbed butter", "veg": true},
	{"id": "m-5", "name": "Tiramisu", "price": 199, "description": "Espresso-soaked layers", "veg": true},
}

func (h *Handler) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	if !requireCoords(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"restaurants": fixtureRestaurants,
		"page_type":   pageType(r),
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireCoords(w, r) {
		return
	}
	query := r.URL.Query().Get("query")
	if query == "" {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": fixtureRestaurants,
	})
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	if !requireCoords(w, r) {
		return
	}
	restaurantID := r.URL.Query().Get("restaurantId")
	if restaurantID == "" {
		writeDetail(w, http.StatusBadRequest, "restaurantId is required")
		return
	}

	info := fixtureRestaurants[0]
	for _, rest := range fixtureRestaurants {
		if rest["id"] == restaurantID {
			info = rest
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"restaurant_info": info,
		"menu":            fixtureMenu,
	})
}

func requireCoords(w http.ResponseWriter, r *http.Request) bool {
	for _, key := range []string{"lat", "lng"} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			writeDetail(w, http.StatusBadRequest, key+" is required")
			return false
		}
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			writeDetail(w, http.StatusBadRequest, key+" must be a number")
			return false
		}
	}
	return true
}

func pageType(r *http.Request) string {
	if pt := r.URL.Query().Get("page_type"); pt != "" {
		return pt
	}
	return "COLLECTION"
}
