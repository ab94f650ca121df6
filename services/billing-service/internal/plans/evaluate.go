package plans

// LimitCheck is the limit/usage/plan triple consumers render directly
// ("Showing 8 of 25 products") and gate creation actions with.
type LimitCheck struct {
	HasAccess bool   `json:"has_access"`
	Limit     int64  `json:"limit"` // Unlimited (-1) means no ceiling
	Usage     int64  `json:"usage"`
	PlanName  string `json:"plan_name"`
}

// Evaluate decides whether one more unit of resource may be created under
// the plan. Access uses strict inequality: reaching the limit exactly denies
// further creation. The unlimited sentinel always grants.
func Evaluate(p Plan, resource Resource, usage int64) LimitCheck {
	limit := p.LimitFor(resource)
	if limit == Unlimited {
		return LimitCheck{HasAccess: true, Limit: Unlimited, Usage: usage, PlanName: p.Name}
	}
	return LimitCheck{
		HasAccess: usage < limit,
		Limit:     limit,
		Usage:     usage,
		PlanName:  p.Name,
	}
}

// EvaluateUnknown is the fully-restricted result for a missing or unknown
// plan. UI rendering must never crash on a bad plan id, so this degrades
// instead of erroring.
func EvaluateUnknown(usage int64) LimitCheck {
	return LimitCheck{HasAccess: false, Limit: 0, Usage: usage, PlanName: "Unknown"}
}
