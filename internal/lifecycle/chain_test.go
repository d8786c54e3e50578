package lifecycle

import (
	"reflect"
	"sort"
	"testing"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
)

func ref(v uint) *uint { return &v }

// 1 <- 2 <- 3, 1 <- 4
func sampleChain() []models.Offer {
	return []models.Offer{
		{ID: 1, Status: domain.StatusWaiting},
		{ID: 2, Status: domain.StatusWaiting, OfferID: ref(1), RootOfferID: ref(1)},
		{ID: 3, Status: domain.StatusWaiting, OfferID: ref(2), RootOfferID: ref(1)},
		{ID: 4, Status: domain.StatusWaiting, OfferID: ref(1), RootOfferID: ref(1)},
	}
}

func sorted(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestAncestors(t *testing.T) {
	if got := Ancestors(sampleChain(), 3); !reflect.DeepEqual(got, []uint{2, 1}) {
		t.Fatalf("ancestors of 3 = %v", got)
	}
	if got := Ancestors(sampleChain(), 1); len(got) != 0 {
		t.Fatalf("root has no ancestors, got %v", got)
	}
}

func TestDescendants(t *testing.T) {
	if got := sorted(Descendants(sampleChain(), 1)); !reflect.DeepEqual(got, []uint{2, 3, 4}) {
		t.Fatalf("descendants of 1 = %v", got)
	}
	if got := Descendants(sampleChain(), 2); !reflect.DeepEqual(got, []uint{3}) {
		t.Fatalf("descendants of 2 = %v", got)
	}
}

func TestPlanAcceptanceOfRoot(t *testing.T) {
	plan := PlanAcceptance(sampleChain(), 1)
	if len(plan.Supersede) != 0 {
		t.Fatalf("supersede = %v", plan.Supersede)
	}
	if got := sorted(plan.Remove); !reflect.DeepEqual(got, []uint{2, 3, 4}) {
		t.Fatalf("remove = %v", got)
	}
}

func TestPlanAcceptanceOfCounter(t *testing.T) {
	plan := PlanAcceptance(sampleChain(), 3)
	if got := sorted(plan.Supersede); !reflect.DeepEqual(got, []uint{1, 2}) {
		t.Fatalf("supersede = %v", got)
	}
	if !reflect.DeepEqual(plan.Remove, []uint{4}) {
		t.Fatalf("remove = %v", plan.Remove)
	}
}

func TestPlanSkipsSettledOffers(t *testing.T) {
	chain := sampleChain()
	chain[3].Status = domain.StatusDecline
	plan := PlanAcceptance(chain, 2)
	if !reflect.DeepEqual(plan.Supersede, []uint{1}) || !reflect.DeepEqual(plan.Remove, []uint{3}) {
		t.Fatalf("plan = %+v", plan)
	}
}
