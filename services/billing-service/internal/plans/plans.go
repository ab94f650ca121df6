package plans

import "strings"

// Resource names a countable thing a plan can cap.
type Resource string

const (
	ResourceOrders    Resource = "orders"
	ResourceProducts  Resource = "products"
	ResourceLocations Resource = "locations"
)

// Unlimited is the sentinel for an uncapped resource limit.
const Unlimited int64 = -1

// Limits is the structured per-resource ceiling record attached to a plan.
// Limits are authoritative here; feature strings are display copy only and
// are never parsed for numbers.
type Limits struct {
	Orders    int64 `json:"orders"`
	Products  int64 `json:"products"`
	Locations int64 `json:"locations"`
}

type Plan struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	MonthlyPriceCents int64    `json:"monthly_price_cents"`
	Limits            Limits   `json:"limits"`
	Features          []string `json:"features"`
}

func (p Plan) LimitFor(resource Resource) int64 {
	switch resource {
	case ResourceOrders:
		return p.Limits.Orders
	case ResourceProducts:
		return p.Limits.Products
	case ResourceLocations:
		return p.Limits.Locations
	default:
		return 0
	}
}

// HasFeature reports whether any feature string contains the keyword,
// case-insensitively. Substring matching keeps marketing copy usable as a
// capability list ("ai logistics" matches "AI Logistics Assistant").
func (p Plan) HasFeature(keyword string) bool {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return false
	}
	for _, f := range p.Features {
		if strings.Contains(strings.ToLower(f), keyword) {
			return true
		}
	}
	return false
}

var catalog = []Plan{
	{
		ID:              "plan-free",
		Name:            "Free",
		Description:     "Perfect for exploring the platform.",
		MonthlyPriceCents: 0,
		Limits:          Limits{Orders: 100, Products: 25, Locations: 1},
		Features: []string{
			"Up to 100 Orders/mo",
			"Up to 25 Products",
			"1 Location",
			"Basic Reporting",
		},
	},
	{
		ID:              "plan-basic",
		Name:            "Basic",
		Description:     "For small businesses getting started.",
		MonthlyPriceCents: 2900,
		Limits:          Limits{Orders: 1000, Products: 500, Locations: 2},
		Features: []string{
			"Up to 1,000 Orders/mo",
			"Up to 500 Products",
			"2 Locations",
			"Basic Reporting",
			"Email Support",
		},
	},
	{
		ID:              "plan-pro",
		Name:            "Pro",
		Description:     "For growing businesses that need more features.",
		MonthlyPriceCents: 7900,
		Limits:          Limits{Orders: 5000, Products: 10000, Locations: 10},
		Features: []string{
			"Up to 5,000 Orders/mo",
			"Up to 10,000 Products",
			"10 Locations",
			"Advanced Reporting",
			"AI Logistics Assistant",
			"Priority Support",
		},
	},
	{
		ID:              "plan-enterprise",
		Name:            "Enterprise",
		Description:     "For large businesses with custom needs.",
		MonthlyPriceCents: 24900,
		Limits:          Limits{Orders: Unlimited, Products: Unlimited, Locations: Unlimited},
		Features: []string{
			"Unlimited Orders",
			"Unlimited Products",
			"Unlimited Locations",
			"Custom Reporting",
			"Dedicated Account Manager",
			"24/7 Phone Support",
		},
	},
}

// Catalog returns the plan list in display order.
func Catalog() []Plan {
	out := make([]Plan, len(catalog))
	copy(out, catalog)
	return out
}

func ByID(id string) (Plan, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
