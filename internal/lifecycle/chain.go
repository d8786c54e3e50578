package lifecycle

import (
	"jobmarket/internal/domain"
	"jobmarket/internal/models"
)

// ChainPlan describes what accepting one offer of a negotiation chain does
// to the rest of the chain.
type ChainPlan struct {
	// Supersede are WAITING ancestors of the accepted offer. They stay as the
	// history the accepted terms were derived from and move to DECLINE.
	Supersede []uint
	// Remove are WAITING offers outside the accepted branch.
	Remove []uint
}

// PlanAcceptance computes the plan for accepting acceptedID within chain.
func PlanAcceptance(chain []models.Offer, acceptedID uint) ChainPlan {
	ancestors := make(map[uint]bool)
	for _, id := range Ancestors(chain, acceptedID) {
		ancestors[id] = true
	}
	var plan ChainPlan
	for _, o := range chain {
		if o.ID == acceptedID || o.Status != domain.StatusWaiting {
			continue
		}
		if ancestors[o.ID] {
			plan.Supersede = append(plan.Supersede, o.ID)
		} else {
			plan.Remove = append(plan.Remove, o.ID)
		}
	}
	return plan
}

// Ancestors walks parent links from id up to the chain root, nearest first.
func Ancestors(chain []models.Offer, id uint) []uint {
	parent := make(map[uint]*uint, len(chain))
	for i := range chain {
		parent[chain[i].ID] = chain[i].OfferID
	}
	var out []uint
	seen := map[uint]bool{id: true}
	for p := parent[id]; p != nil && !seen[*p]; p = parent[*p] {
		seen[*p] = true
		out = append(out, *p)
	}
	return out
}

// Descendants returns every counter-offer that answers id, directly or not.
func Descendants(chain []models.Offer, id uint) []uint {
	children := make(map[uint][]uint)
	for _, o := range chain {
		if o.OfferID != nil {
			children[*o.OfferID] = append(children[*o.OfferID], o.ID)
		}
	}
	var out []uint
	queue := []uint{id}
	seen := map[uint]bool{id: true}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			queue = append(queue, c)
		}
	}
	return out
}
