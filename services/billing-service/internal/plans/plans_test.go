package plans

import "testing"

func TestEvaluate_StrictBoundary(t *testing.T) {
	free, ok := ByID("plan-free")
	if !ok {
		t.Fatalf("plan-free missing from catalog")
	}

	atLimit := Evaluate(free, ResourceProducts, 25)
	if atLimit.HasAccess {
		t.Fatalf("usage 25 of 25 should deny access")
	}
	if atLimit.Limit != 25 || atLimit.Usage != 25 || atLimit.PlanName != "Free" {
		t.Fatalf("unexpected check: %+v", atLimit)
	}

	underLimit := Evaluate(free, ResourceProducts, 24)
	if !underLimit.HasAccess {
		t.Fatalf("usage 24 of 25 should allow access")
	}
}

func TestEvaluate_Unlimited(t *testing.T) {
	ent, ok := ByID("plan-enterprise")
	if !ok {
		t.Fatalf("plan-enterprise missing from catalog")
	}

	for _, usage := range []int64{0, 1, 1000000} {
		check := Evaluate(ent, ResourceOrders, usage)
		if !check.HasAccess {
			t.Fatalf("unlimited plan denied at usage %d", usage)
		}
		if check.Limit != Unlimited {
			t.Fatalf("expected unlimited sentinel, got %d", check.Limit)
		}
	}
}

func TestEvaluate_UnknownResourceDenies(t *testing.T) {
	basic, _ := ByID("plan-basic")
	check := Evaluate(basic, Resource("widgets"), 0)
	if check.HasAccess {
		t.Fatalf("unknown resource should have a zero limit")
	}
}

func TestEvaluateUnknown(t *testing.T) {
	check := EvaluateUnknown(8)
	if check.HasAccess || check.Limit != 0 || check.Usage != 8 || check.PlanName != "Unknown" {
		t.Fatalf("unexpected restricted result: %+v", check)
	}
}

func TestHasFeature_SubstringMatch(t *testing.T) {
	pro, _ := ByID("plan-pro")
	if !pro.HasFeature("ai logistics") {
		t.Fatalf("pro plan should match 'ai logistics' against 'AI Logistics Assistant'")
	}
	basic, _ := ByID("plan-basic")
	if basic.HasFeature("ai logistics") {
		t.Fatalf("basic plan should not have ai logistics")
	}
	if pro.HasFeature("") {
		t.Fatalf("empty keyword should never match")
	}
}

func TestLimitFor(t *testing.T) {
	basic, _ := ByID("plan-basic")
	if basic.LimitFor(ResourceOrders) != 1000 {
		t.Fatalf("expected 1000 orders, got %d", basic.LimitFor(ResourceOrders))
	}
	if basic.LimitFor(ResourceLocations) != 2 {
		t.Fatalf("expected 2 locations, got %d", basic.LimitFor(ResourceLocations))
	}
}
