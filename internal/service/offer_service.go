package service

import (
	"context"
	"fmt"
	"time"

	"jobmarket/internal/domain"
	"jobmarket/internal/lifecycle"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

var offerRefKinds = []string{domain.RefMyOffer, domain.RefIOffered}

// OfferTerms are the negotiable fields of an offer.
type OfferTerms struct {
	ProjectName string     `json:"projectName" validate:"max=255"`
	Category    string     `json:"category" validate:"max=128"`
	SubCategory string     `json:"subCategory" validate:"max=128"`
	Budget      float64    `json:"budget" validate:"gte=0"`
	JobLocation string     `json:"jobLocation" validate:"max=255"`
	Lat         float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng         float64    `json:"lng" validate:"gte=-180,lte=180"`
	Deadline    *time.Time `json:"deadline"`
	ValidFor    *time.Time `json:"validFor"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Description string     `json:"description" validate:"max=5000"`
	Images      []string   `json:"images" validate:"max=10,dive,url"`
}

type ProposeInput struct {
	To uint `json:"to" validate:"required"`
	OfferTerms
}

// OfferChanges is a partial update of a WAITING offer by its author.
type OfferChanges struct {
	Budget      *float64   `json:"budget" validate:"omitempty,gte=0"`
	Deadline    *time.Time `json:"deadline"`
	ValidFor    *time.Time `json:"validFor"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
}

// CounterTerms override the inherited terms of a counter-offer.
type CounterTerms struct {
	Budget      *float64   `json:"budget" validate:"required,gte=0"`
	StartDate   *time.Time `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate" validate:"required"`
	ValidFor    *time.Time `json:"validFor" validate:"required"`
	Deadline    *time.Time `json:"deadline"`
	Description *string    `json:"description" validate:"omitempty,max=5000"`
	Images      []string   `json:"images" validate:"max=10,dive,url"`
}

type OfferService struct {
	store  *repository.Store
	notify *NotificationService
	files  FileStore
}

func NewOfferService(store *repository.Store, notify *NotificationService, files FileStore) *OfferService {
	return &OfferService{store: store, notify: notify, files: files}
}

// Propose sends a direct offer that is not attached to any post yet.
func (s *OfferService) Propose(ctx context.Context, senderID uint, in ProposeInput) (offer *models.Offer, err error) {
	defer s.cleanupOnError(ctx, &err, in.Images)
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	return s.propose(ctx, senderID, in.To, nil, in.OfferTerms)
}

// OfferOnPost sends an offer to the creator of postID.
func (s *OfferService) OfferOnPost(ctx context.Context, senderID, postID uint, terms OfferTerms) (offer *models.Offer, err error) {
	defer s.cleanupOnError(ctx, &err, terms.Images)
	if err := validateInput(&terms); err != nil {
		return nil, err
	}
	post, err := s.store.Posts.GetByID(postID)
	if err != nil {
		return nil, lookupErr(err, "post")
	}
	if post.CreatorID == senderID {
		return nil, domain.Validation("you cannot make an offer on your own post")
	}
	if post.AcceptedOfferID != nil {
		return nil, domain.Conflict("this post already has an accepted offer")
	}
	if terms.ProjectName == "" {
		terms.ProjectName = post.ProjectName
	}
	if terms.Category == "" {
		terms.Category, terms.SubCategory = post.Category, post.SubCategory
	}
	if terms.JobLocation == "" {
		terms.JobLocation, terms.Lat, terms.Lng = post.Location, post.Lat, post.Lng
	}
	return s.propose(ctx, senderID, post.CreatorID, &post.ID, terms)
}

func (s *OfferService) propose(ctx context.Context, senderID, recipientID uint, projectID *uint, t OfferTerms) (*models.Offer, error) {
	if senderID == recipientID {
		return nil, domain.Validation("you cannot send an offer to yourself")
	}
	sender, err := loadActive(s.store.Users, senderID)
	if err != nil {
		return nil, err
	}
	recipient, err := loadActive(s.store.Users, recipientID)
	if err != nil {
		return nil, err
	}
	_, provider, err := lifecycle.ResolveParties(sender, recipient)
	if err != nil {
		return nil, err
	}
	if provider.ID == sender.ID && !provider.HasPayoutAccount() {
		return nil, domain.Forbidden("connect a payout account before sending offers")
	}
	if err := checkWindow(t.StartDate, t.EndDate); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		To:          recipient.ID,
		Form:        sender.ID,
		AuthorID:    sender.ID,
		ProjectID:   projectID,
		ProjectName: t.ProjectName,
		Category:    t.Category,
		SubCategory: t.SubCategory,
		Budget:      t.Budget,
		JobLocation: t.JobLocation,
		Lat:         t.Lat,
		Lng:         t.Lng,
		Deadline:    t.Deadline,
		ValidFor:    t.ValidFor,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Description: t.Description,
		Status:      domain.StatusWaiting,
		TypeOfOffer: domain.OfferTypeOffer,
		Images:      models.StringList(t.Images),
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Offers.Create(offer); err != nil {
			return err
		}
		if err := tx.Refs.Append(sender.ID, domain.RefIOffered, offer.ID); err != nil {
			return err
		}
		return tx.Refs.Append(recipient.ID, domain.RefMyOffer, offer.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}

	s.notify.DispatchAll(ctx, &models.Notification{
		For:              recipient.ID,
		Content:          "You have received a new offer. Please review and respond accordingly.",
		NotificationType: domain.NotifyOffer,
		OriginalOfferID:  uintPtr(offer.ID),
		Data: models.NotificationData{
			Title:   offer.ProjectName,
			OfferID: uintPtr(offer.ID),
			PostID:  projectID,
			Image:   sender.ProfileImage,
		},
	})
	return offer, nil
}

// Revise lets the author change the terms of an offer nobody responded to yet.
func (s *OfferService) Revise(actorID, offerID uint, ch OfferChanges) (*models.Offer, error) {
	if err := validateInput(&ch); err != nil {
		return nil, err
	}
	offer, err := s.store.Offers.GetByID(offerID)
	if err != nil {
		return nil, lookupErr(err, "offer")
	}
	if offer.AuthorID != actorID {
		return nil, domain.Unauthorized("only the author can revise this offer")
	}
	if _, err := loadActive(s.store.Users, actorID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if ch.Budget != nil {
		updates["budget"] = *ch.Budget
	}
	if ch.Deadline != nil {
		updates["deadline"] = *ch.Deadline
	}
	if ch.ValidFor != nil {
		updates["valid_for"] = *ch.ValidFor
	}
	start, end := offer.StartDate, offer.EndDate
	if ch.StartDate != nil {
		updates["start_date"], start = *ch.StartDate, ch.StartDate
	}
	if ch.EndDate != nil {
		updates["end_date"], end = *ch.EndDate, ch.EndDate
	}
	if ch.Description != nil {
		updates["description"] = *ch.Description
	}
	if len(updates) == 0 {
		return nil, domain.Validation("nothing to update")
	}
	if err := checkWindow(start, end); err != nil {
		return nil, err
	}
	updates["updated_at"] = time.Now()
	ok, err := s.store.Offers.UpdateWhileStatus(offer.ID, domain.StatusWaiting, updates)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Conflict(fmt.Sprintf("cannot revise offer in status %s", offer.Status))
	}
	return s.store.Offers.GetByID(offer.ID)
}

// Counter answers a WAITING offer with new terms. The counter-offer keeps the
// parties of the original and is addressed to whichever party did not act.
func (s *OfferService) Counter(ctx context.Context, actorID, offerID uint, t CounterTerms) (counter *models.Offer, err error) {
	defer s.cleanupOnError(ctx, &err, t.Images)
	if err := validateInput(&t); err != nil {
		return nil, err
	}
	if err := checkWindow(t.StartDate, t.EndDate); err != nil {
		return nil, err
	}
	original, err := s.store.Offers.GetByID(offerID)
	if err != nil {
		return nil, lookupErr(err, "offer")
	}
	if !original.HasParty(actorID) {
		return nil, domain.Unauthorized("you are not a party to this offer")
	}
	if original.Status != domain.StatusWaiting {
		return nil, domain.Conflict(fmt.Sprintf("cannot counter offer in status %s", original.Status))
	}
	actor, err := loadActive(s.store.Users, actorID)
	if err != nil {
		return nil, err
	}
	other, err := loadActive(s.store.Users, lifecycle.Counterparty(original, actorID))
	if err != nil {
		return nil, err
	}
	customer, provider, err := lifecycle.ResolveParties(actor, other)
	if err != nil {
		return nil, err
	}
	if provider.ID == actor.ID && !provider.HasPayoutAccount() {
		return nil, domain.Forbidden("connect a payout account before sending counter offers")
	}

	var post *models.Post
	err = s.store.Transaction(func(tx *repository.Store) error {
		post, err = resolveOrCreatePost(tx, original, customer.ID, nil)
		if err != nil {
			return err
		}
		root := original.ChainRoot()
		counter = &models.Offer{
			To:          original.To,
			Form:        original.Form,
			AuthorID:    actor.ID,
			ProjectID:   uintPtr(post.ID),
			ProjectName: original.ProjectName,
			Category:    original.Category,
			SubCategory: original.SubCategory,
			Budget:      *t.Budget,
			JobLocation: original.JobLocation,
			Lat:         original.Lat,
			Lng:         original.Lng,
			Deadline:    original.Deadline,
			ValidFor:    t.ValidFor,
			StartDate:   t.StartDate,
			EndDate:     t.EndDate,
			Description: original.Description,
			Status:      domain.StatusWaiting,
			TypeOfOffer: domain.OfferTypeCounter,
			OfferID:     uintPtr(original.ID),
			RootOfferID: uintPtr(root),
			Images:      original.Images,
		}
		if t.Deadline != nil {
			counter.Deadline = t.Deadline
		}
		if t.Description != nil {
			counter.Description = *t.Description
		}
		if len(t.Images) > 0 {
			counter.Images = models.StringList(t.Images)
		}
		if err := tx.Offers.Create(counter); err != nil {
			return err
		}
		if err := tx.Refs.Append(actor.ID, domain.RefIOffered, counter.ID); err != nil {
			return err
		}
		return tx.Refs.Append(other.ID, domain.RefMyOffer, counter.ID)
	})
	if err != nil {
		return nil, err
	}

	s.notify.DispatchAll(ctx, &models.Notification{
		For:              other.ID,
		Content:          "You have received a counter offer. Please review and respond accordingly.",
		NotificationType: domain.NotifyCounterOffer,
		OriginalOfferID:  uintPtr(original.ID),
		Data: models.NotificationData{
			Title:   post.ProjectName,
			OfferID: uintPtr(counter.ID),
			PostID:  uintPtr(post.ID),
			Image:   actor.ProfileImage,
		},
	})
	return counter, nil
}

// Respond approves or declines an offer.
func (s *OfferService) Respond(ctx context.Context, actorID, offerID uint, action string) (*models.Offer, error) {
	if !lifecycle.ValidResponse(action) {
		return nil, domain.Validation("action must be APPROVE or DECLINE")
	}
	offer, err := s.store.Offers.GetByID(offerID)
	if err != nil {
		return nil, lookupErr(err, "offer")
	}
	if !offer.HasParty(actorID) {
		return nil, domain.Unauthorized("you are not a party to this offer")
	}
	if _, err := lifecycle.NextOfferStatus(offer.Status, action); err != nil {
		return nil, err
	}
	if action == lifecycle.ActionApprove && offer.Responder() != actorID {
		return nil, domain.Forbidden("you cannot accept your own offer")
	}
	actor, err := loadActive(s.store.Users, actorID)
	if err != nil {
		return nil, err
	}
	other, err := loadActive(s.store.Users, lifecycle.Counterparty(offer, actorID))
	if err != nil {
		return nil, err
	}
	if action == lifecycle.ActionDecline {
		return s.decline(ctx, offer, actor, other)
	}
	return s.approve(ctx, offer, actor, other)
}

func (s *OfferService) approve(ctx context.Context, offer *models.Offer, actor, other *models.User) (*models.Offer, error) {
	customer, provider, err := lifecycle.ResolveParties(actor, other)
	if err != nil {
		return nil, err
	}
	if !provider.HasPayoutAccount() {
		return nil, domain.Forbidden("the provider has not connected a payout account yet")
	}

	var post *models.Post
	err = s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Offers.CompareAndSetStatus(offer.ID, []string{domain.StatusWaiting}, domain.StatusApprove)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("offer was already answered")
		}
		post, err = resolveOrCreatePost(tx, offer, customer.ID, uintPtr(offer.ID))
		if err != nil {
			return err
		}
		if post.AcceptedOfferID == nil || *post.AcceptedOfferID != offer.ID {
			if post.AcceptedOfferID != nil {
				return domain.Conflict("this post already has an accepted offer")
			}
			ok, err := tx.Posts.SetAccepted(post.ID, offer.ID, offer.DeliveryDate())
			if err != nil {
				return err
			}
			if !ok {
				return domain.Conflict("this post already has an accepted offer")
			}
		}

		root := offer.ChainRoot()
		chain, err := tx.Offers.ListChain(root)
		if err != nil {
			return err
		}
		plan := lifecycle.PlanAcceptance(chain, offer.ID)
		for _, id := range plan.Supersede {
			if _, err := tx.Offers.CompareAndSetStatus(id, []string{domain.StatusWaiting}, domain.StatusDecline); err != nil {
				return err
			}
		}
		if err := tx.Offers.DeleteByIDs(plan.Remove); err != nil {
			return err
		}
		stale := append(append([]uint{}, plan.Supersede...), plan.Remove...)
		if err := tx.Refs.RemoveEverywhere(offerRefKinds, stale); err != nil {
			return err
		}
		if _, err := tx.Notifications.DeleteForOffers(append(stale, offer.ID, root)); err != nil {
			return err
		}
		return tx.Refs.Remove(customer.ID, domain.RefMyOffer, offer.ID)
	})
	if err != nil {
		return nil, err
	}

	customerText := fmt.Sprintf("%s accepted your offer, now you should pay to confirm your order!", displayName(provider))
	if actor.ID != customer.ID {
		customerText = "You have accepted the offer. Please complete your payment to proceed."
	}
	providerText := fmt.Sprintf("%s accepted your offer, now you should pay to confirm your order!", displayName(customer))
	if actor.ID != provider.ID {
		providerText = "Your offer has been accepted successfully."
	}
	data := models.NotificationData{
		Title:   post.ProjectName,
		OfferID: uintPtr(offer.ID),
		PostID:  uintPtr(post.ID),
	}
	customerData, providerData := data, data
	customerData.Image = provider.ProfileImage
	providerData.Image = customer.ProfileImage
	s.notify.DispatchAll(ctx,
		&models.Notification{For: customer.ID, Content: customerText, NotificationType: domain.NotifyOfferRequest, Data: customerData},
		&models.Notification{For: provider.ID, Content: providerText, NotificationType: domain.NotifyGeneral, Data: providerData},
	)
	return s.store.Offers.GetByID(offer.ID)
}

func (s *OfferService) decline(ctx context.Context, offer *models.Offer, actor, other *models.User) (*models.Offer, error) {
	err := s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Offers.CompareAndSetStatus(offer.ID, []string{domain.StatusWaiting}, domain.StatusDecline)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("offer was already answered")
		}
		return removeOfferBranch(tx, offer)
	})
	if err != nil {
		return nil, err
	}
	offer.Status = domain.StatusDecline

	data := models.NotificationData{Title: offer.ProjectName, PostID: offer.ProjectID}
	s.notify.DispatchAll(ctx,
		&models.Notification{
			For:              actor.ID,
			Content:          fmt.Sprintf("You have declined the offer for %s.", offer.ProjectName),
			NotificationType: domain.NotifyOfferDeclined,
			Data:             data,
		},
		&models.Notification{
			For:              other.ID,
			Content:          fmt.Sprintf("%s declined the offer for %s.", displayName(actor), offer.ProjectName),
			NotificationType: domain.NotifyOfferDeclined,
			Data:             models.NotificationData{Title: data.Title, PostID: data.PostID, Image: actor.ProfileImage},
		},
	)
	return offer, nil
}

// Delete withdraws a WAITING offer together with any counter-offers answering it.
func (s *OfferService) Delete(actorID, offerID uint) error {
	offer, err := s.store.Offers.GetByID(offerID)
	if err != nil {
		return lookupErr(err, "offer")
	}
	if !offer.HasParty(actorID) {
		return domain.Unauthorized("you are not a party to this offer")
	}
	if offer.Status != domain.StatusWaiting {
		return domain.Conflict(fmt.Sprintf("cannot delete offer in status %s", offer.Status))
	}
	if _, err := loadActive(s.store.Users, actorID); err != nil {
		return err
	}
	return s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Offers.CompareAndSetStatus(offer.ID, []string{domain.StatusWaiting}, domain.StatusDecline)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("offer was already answered")
		}
		return removeOfferBranch(tx, offer)
	})
}

// removeOfferBranch deletes offer and every counter-offer answering it, with
// their list entries and notifications.
func removeOfferBranch(tx *repository.Store, offer *models.Offer) error {
	root := offer.ChainRoot()
	chain, err := tx.Offers.ListChain(root)
	if err != nil {
		return err
	}
	ids := append(lifecycle.Descendants(chain, offer.ID), offer.ID)
	if err := tx.Refs.RemoveEverywhere(offerRefKinds, ids); err != nil {
		return err
	}
	if _, err := tx.Notifications.DeleteForOffers(append(ids, root)); err != nil {
		return err
	}
	return tx.Offers.DeleteByIDs(ids)
}

// resolveOrCreatePost returns the post offer is attached to, creating one for
// customerID from the offer's fields when the offer is not attached yet. The
// new post is linked to every offer of the chain.
func resolveOrCreatePost(tx *repository.Store, offer *models.Offer, customerID uint, accepted *uint) (*models.Post, error) {
	if offer.ProjectID != nil {
		post, err := tx.Posts.GetByID(*offer.ProjectID)
		if err != nil {
			return nil, lookupErr(err, "post")
		}
		return post, nil
	}
	post := &models.Post{
		CreatorID:       customerID,
		ProjectName:     offer.ProjectName,
		Category:        offer.Category,
		SubCategory:     offer.SubCategory,
		Location:        offer.JobLocation,
		Lat:             offer.Lat,
		Lng:             offer.Lng,
		Deadline:        offer.DeliveryDate(),
		JobDescription:  offer.Description,
		ShowcaseImages:  offer.Images,
		AcceptedOfferID: accepted,
		AutoCreated:     true,
	}
	if len(offer.Images) > 0 {
		post.CoverImage = offer.Images[0]
	}
	if err := tx.Posts.Create(post); err != nil {
		return nil, err
	}
	chain, err := tx.Offers.ListChain(offer.ChainRoot())
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(chain))
	for _, o := range chain {
		ids = append(ids, o.ID)
	}
	if err := tx.Offers.SetProjectID(ids, post.ID); err != nil {
		return nil, err
	}
	offer.ProjectID = uintPtr(post.ID)
	if err := tx.Refs.Append(customerID, domain.RefJob, post.ID); err != nil {
		return nil, err
	}
	return post, nil
}

// Get returns an offer visible to one of its parties.
func (s *OfferService) Get(actorID, offerID uint) (*models.Offer, error) {
	offer, err := s.store.Offers.GetByID(offerID)
	if err != nil {
		return nil, lookupErr(err, "offer")
	}
	if !offer.HasParty(actorID) {
		return nil, domain.Unauthorized("you are not a party to this offer")
	}
	return offer, nil
}

func (s *OfferService) ListReceived(userID uint, status string, page, limit int) ([]models.Offer, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Offers.ListReceived(userID, status, page, limit)
}

func (s *OfferService) ListSent(userID uint, status string, page, limit int) ([]models.Offer, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Offers.ListSent(userID, status, page, limit)
}

func (s *OfferService) cleanupOnError(ctx context.Context, err *error, images []string) {
	if *err != nil {
		discardUploads(ctx, s.files, images...)
	}
}

func checkWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return domain.Validation("endDate must not be before startDate")
	}
	return nil
}
