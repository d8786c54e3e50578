package lifecycle

import (
	"jobmarket/internal/domain"
	"jobmarket/internal/models"
)

// ResolveParties returns which of a and b is the paying customer and which is
// the provider. The customer is the party whose role is USER.
func ResolveParties(a, b *models.User) (customer, provider *models.User, err error) {
	switch {
	case a.IsCustomer() && !b.IsCustomer():
		return a, b, nil
	case b.IsCustomer() && !a.IsCustomer():
		return b, a, nil
	}
	return nil, nil, domain.Validation("an offer needs exactly one customer and one provider")
}

// Counterparty is whichever of the offer's two parties is not actorID.
func Counterparty(o *models.Offer, actorID uint) uint {
	if o.Form == actorID {
		return o.To
	}
	return o.Form
}
