package service

import (
	"context"
	"errors"
	"testing"

	"jobmarket/internal/auth"
	"jobmarket/internal/domain"
	"jobmarket/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	u, pair, err := e.auth.Register(RegisterInput{FullName: "Dana", Email: " Dana@Example.test ", Password: "s3cret-pass", Role: domain.RoleServiceProvider})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "dana@example.test" || pair.AccessToken == "" {
		t.Fatalf("user %q, pair %+v", u.Email, pair)
	}
	if _, _, err := e.auth.Register(RegisterInput{FullName: "Dana", Email: "dana@example.test", Password: "s3cret-pass", Role: domain.RoleUser}); !errors.Is(err, ErrEmailExists) {
		t.Errorf("duplicate register: %v", err)
	}
	_, _, err = e.auth.Register(RegisterInput{FullName: "Eve", Email: "eve@example.test", Password: "s3cret-pass", Role: domain.RoleAdmin})
	wantKind(t, err, domain.ErrValidation)

	if _, _, err := e.auth.Login("dana@example.test", "wrong-pass"); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("bad password: %v", err)
	}
	_, pair, err = e.auth.Login("DANA@example.test", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	refreshed, err := e.auth.RefreshToken(pair.RefreshToken)
	if err != nil || refreshed.AccessToken == "" {
		t.Errorf("RefreshToken: %v", err)
	}
	if _, err := e.auth.RefreshToken(pair.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("access token accepted as refresh token: %v", err)
	}

	e.store.Users.SetAccountStatus(u.ID, domain.AccountBlock)
	_, _, err = e.auth.Login("dana@example.test", "s3cret-pass")
	wantKind(t, err, domain.ErrForbidden)
}

func TestGoogleLoginLinksExistingAccount(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t, "Carol")
	u, _, isNew, err := e.auth.LoginWithGoogle("g-1", "CAROL@example.test", "Carol", "https://img.test/c.png", domain.RoleServiceProvider)
	if err != nil {
		t.Fatal(err)
	}
	if isNew || u.ID != c.ID || u.Role != domain.RoleUser {
		t.Errorf("linked user = %+v new=%v", u, isNew)
	}
	u, _, isNew, err = e.auth.LoginWithGoogle("g-2", "new@example.test", "Nia", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if !isNew || u.Role != domain.RoleUser {
		t.Errorf("new user = %+v new=%v", u, isNew)
	}
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	u, _, err := e.auth.Register(RegisterInput{FullName: "Dana", Email: "dana@example.test", Password: "first-pass", Role: domain.RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.auth.ChangePassword(u.ID, "nope-nope", "second-pass"); !errors.Is(err, ErrInvalidCreds) {
		t.Errorf("wrong current password: %v", err)
	}
	wantKind(t, e.auth.ChangePassword(u.ID, "first-pass", "short"), domain.ErrValidation)
	if err := e.auth.ChangePassword(u.ID, "first-pass", "second-pass"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.auth.Login("dana@example.test", "second-pass"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestPostOwnership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")

	_, err := e.posts.Create(ctx, p.ID, PostInput{ProjectName: "x", Category: "y", JobDescription: "z"})
	wantKind(t, err, domain.ErrForbidden)

	job := e.post(t, c)
	_, err = e.posts.Update(ctx, p.ID, job.ID, PostChanges{ProjectName: strPtr("Mine now")})
	wantKind(t, err, domain.ErrUnauthorized)

	cover := "https://res.cloudinary.com/demo/image/upload/v1/posts/new.jpg"
	got, err := e.posts.Update(ctx, c.ID, job.ID, PostChanges{ProjectName: strPtr("Kitchen and bath"), CoverImage: &cover})
	if err != nil {
		t.Fatal(err)
	}
	if got.ProjectName != "Kitchen and bath" || got.CoverImage != cover {
		t.Errorf("post = %+v", got)
	}

	o, _ := e.offers.OfferOnPost(ctx, p.ID, job.ID, OfferTerms{Budget: 100})
	offers, err := e.posts.Offers(c.ID, job.ID)
	if err != nil || len(offers) != 1 || offers[0].ID != o.ID {
		t.Errorf("Offers = %v, %v", offers, err)
	}
	if _, err := e.payments.CapturePayment(ctx, CaptureInput{OfferID: o.ID, PayerID: c.ID, Commission: 10}); err != nil {
		t.Fatal(err)
	}
	wantKind(t, e.posts.Delete(c.ID, job.ID), domain.ErrConflict)
}

func TestDeletePost(t *testing.T) {
	e := newEnv(t)
	c := e.customer(t, "Carol")
	job := e.post(t, c)
	if err := e.posts.Delete(c.ID, job.ID); err != nil {
		t.Fatal(err)
	}
	_, err := e.posts.Get(job.ID)
	wantKind(t, err, domain.ErrNotFound)
	if ids, _ := e.store.Refs.List(c.ID, domain.RefJob); len(ids) != 0 {
		t.Errorf("jobs = %v", ids)
	}
}

func TestFavourites(t *testing.T) {
	e := newEnv(t)
	c, p, other := e.customer(t, "Carol"), e.provider(t, "Paul"), e.customer(t, "Olga")
	job := e.post(t, other)

	if err := e.posts.AddFavouritePost(c.ID, job.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.posts.AddFavouriteProvider(c.ID, p.ID); err != nil {
		t.Fatal(err)
	}
	wantKind(t, e.posts.AddFavouriteProvider(c.ID, other.ID), domain.ErrValidation)

	fav, err := e.posts.Favourites(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(fav.Posts) != 1 || len(fav.Providers) != 1 || fav.Providers[0].ID != p.ID {
		t.Errorf("favourites = %+v", fav)
	}
	e.posts.RemoveFavouritePost(c.ID, job.ID)
	fav, _ = e.posts.Favourites(c.ID)
	if len(fav.Posts) != 0 {
		t.Errorf("post not removed from favourites")
	}
}

func TestNotificationDispatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "Carol")
	if err := e.auth.SetDeviceToken(c.ID, "device-1"); err != nil {
		t.Fatal(err)
	}
	offerID := uint(7)
	err := e.notify.Dispatch(ctx, &models.Notification{
		For:              c.ID,
		Content:          "hello",
		NotificationType: domain.NotifyOffer,
		Data:             models.NotificationData{OfferID: &offerID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if keys := e.live.keys(); len(keys) != 1 || keys[0] != "socket:"+uitoa(c.ID) {
		t.Errorf("published = %v", keys)
	}
	if len(e.push.tokens) != 1 || e.push.tokens[0] != "device-1" {
		t.Errorf("pushed = %v", e.push.tokens)
	}

	e.push.err = errors.New("unregistered token")
	if err := e.notify.Dispatch(ctx, &models.Notification{For: c.ID, Content: "again", NotificationType: domain.NotifyGeneral}); err != nil {
		t.Errorf("push failure surfaced: %v", err)
	}

	list, unread, err := e.notify.List(c.ID, 1, 10)
	if err != nil || len(list) != 2 || unread != 2 {
		t.Fatalf("List = %d unread %d, %v", len(list), unread, err)
	}
	if err := e.notify.MarkRead(c.ID, []uint{list[0].ID}); err != nil {
		t.Fatal(err)
	}
	if n, _ := e.notify.UnreadCount(c.ID); n != 1 {
		t.Errorf("unread = %d", n)
	}
	wantKind(t, e.notify.Delete(c.ID, nil), domain.ErrValidation)
	other := e.customer(t, "Olga")
	wantKind(t, e.notify.Delete(other.ID, []uint{list[0].ID}), domain.ErrNotFound)
	if err := e.notify.Delete(c.ID, []uint{list[0].ID}); err != nil {
		t.Error(err)
	}
}

func TestCommissionSetting(t *testing.T) {
	e := newEnv(t)
	pct, err := e.commission.Percentage(nil)
	if err != nil || pct != 10 {
		t.Fatalf("seeded = %v, %v", pct, err)
	}
	_, err = e.commission.Update(101)
	wantKind(t, err, domain.ErrValidation)
	_, err = e.commission.Percentage(f64(-1))
	wantKind(t, err, domain.ErrValidation)

	e.store.Settings.Set(domain.SettingAdminCommission, "ten")
	if pct, _ := e.commission.Percentage(nil); pct != 5 {
		t.Errorf("fallback = %v", pct)
	}
}

func TestCatalog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cat, err := e.catalog.CreateCategory(CategoryInput{Name: "Home", SubCategories: []string{"Plumbing", "Painting"}})
	if err != nil {
		t.Fatal(err)
	}
	sub, err := e.catalog.AddSubCategory(cat.ID, "Tiling")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.catalog.RenameSubCategory(sub.ID, "Tiles"); err != nil {
		t.Fatal(err)
	}
	list, err := e.catalog.Categories("hom")
	if err != nil || len(list) != 1 || len(list[0].SubCategories) != 3 {
		t.Fatalf("Categories = %+v, %v", list, err)
	}
	wantKind(t, e.catalog.DeleteSubCategory(9999), domain.ErrNotFound)
	if err := e.catalog.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}

	a, err := e.catalog.CreateAnnouncement(1, AnnouncementInput{Title: "Maintenance", Body: "Sunday 02:00 UTC"})
	if err != nil {
		t.Fatal(err)
	}
	if keys := e.live.keys(); len(keys) != 1 || keys[0] != domain.ChannelAnnouncement {
		t.Errorf("published = %v", keys)
	}
	if _, total, _ := e.catalog.Announcements(domain.AnnouncementActive, 1, 10); total != 1 {
		t.Errorf("announcements = %d", total)
	}
	if err := e.catalog.DeleteAnnouncement(a.ID); err != nil {
		t.Fatal(err)
	}
	wantKind(t, e.catalog.DeleteAnnouncement(a.ID), domain.ErrNotFound)
}

func TestVerification(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	admin := e.user(t, "Ada", domain.RoleAdmin, false)
	doc := VerificationInput{Document: "https://res.cloudinary.com/demo/image/upload/v1/ids/p.jpg"}

	_, err := e.verification.Submit(ctx, c.ID, doc)
	wantKind(t, err, domain.ErrForbidden)

	req, err := e.verification.Submit(ctx, p.ID, doc)
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.verification.Submit(ctx, p.ID, doc)
	wantKind(t, err, domain.ErrConflict)

	got, err := e.verification.Review(ctx, admin.ID, req.ID, true, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.VerificationVerified || got.ReviewedBy == nil || *got.ReviewedBy != admin.ID {
		t.Errorf("request = %+v", got)
	}
	u, _ := e.store.Users.GetByID(p.ID)
	if u.VerificationStatus != domain.VerificationVerified {
		t.Errorf("user status = %s", u.VerificationStatus)
	}
	_, err = e.verification.Review(ctx, admin.ID, req.ID, false, "")
	wantKind(t, err, domain.ErrConflict)
	if n := e.countNotifications(t, "user_id = ? AND notification_type = ?", p.ID, domain.NotifyVerification); n != 1 {
		t.Errorf("verification notifications = %d", n)
	}
}

func TestAdminAccountStatus(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "Ada", domain.RoleAdmin, false)
	other := e.user(t, "Abe", domain.RoleAdmin, false)
	super := e.user(t, "Sam", domain.RoleSuperAdmin, false)
	c := e.customer(t, "Carol")

	_, err := e.admin.SetAccountStatus(admin.ID, admin.ID, domain.AccountBlock)
	wantKind(t, err, domain.ErrForbidden)
	_, err = e.admin.SetAccountStatus(admin.ID, other.ID, domain.AccountBlock)
	wantKind(t, err, domain.ErrForbidden)
	_, err = e.admin.SetAccountStatus(admin.ID, c.ID, "FROZEN")
	wantKind(t, err, domain.ErrValidation)

	if _, err := e.admin.SetAccountStatus(super.ID, other.ID, domain.AccountBlock); err != nil {
		t.Fatal(err)
	}
	u, err := e.admin.SetAccountStatus(admin.ID, c.ID, domain.AccountBlock)
	if err != nil || u.AccountStatus != domain.AccountBlock {
		t.Fatalf("block customer: %v", err)
	}
	_, err = e.posts.Create(context.Background(), c.ID, PostInput{ProjectName: "x", Category: "y", JobDescription: "z"})
	wantKind(t, err, domain.ErrForbidden)
}

func TestAdminOverview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 400, 40)
	req, _ := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if _, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, "APPROVE"); err != nil {
		t.Fatal(err)
	}
	o, err := e.admin.Overview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if o.Users != 2 || o.Customers != 1 || o.Providers != 1 || o.Orders != 1 || o.CompletedOrders != 1 || o.Revenue != 40 {
		t.Errorf("overview = %+v", o)
	}
}

func strPtr(s string) *string { return &s }
