package service

import (
	"context"
	"strings"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

type CategoryInput struct {
	Name          string   `json:"name" validate:"required,max=128"`
	Image         string   `json:"image" validate:"omitempty,url"`
	SubCategories []string `json:"subCategories" validate:"max=50,dive,required,max=128"`
}

type AnnouncementInput struct {
	Title string `json:"title" validate:"required,max=255"`
	Body  string `json:"body" validate:"required,max=10000"`
}

// CatalogService manages categories and announcements. Reads are public,
// writes are admin only (enforced by the router).
type CatalogService struct {
	store *repository.Store
	live  Publisher
	files FileStore
}

func NewCatalogService(store *repository.Store, live Publisher, files FileStore) *CatalogService {
	return &CatalogService{store: store, live: live, files: files}
}

func (s *CatalogService) Categories(search string) ([]models.Category, error) {
	return s.store.Categories.List(strings.TrimSpace(search))
}

func (s *CatalogService) CreateCategory(in CategoryInput) (*models.Category, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	c := &models.Category{Name: strings.TrimSpace(in.Name), Image: in.Image}
	for _, name := range in.SubCategories {
		c.SubCategories = append(c.SubCategories, models.SubCategory{Name: strings.TrimSpace(name)})
	}
	if err := s.store.Categories.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, name, image *string) (*models.Category, error) {
	c, err := s.store.Categories.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "category")
	}
	old := ""
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, domain.Validation("name must not be empty")
		}
		c.Name = strings.TrimSpace(*name)
	}
	if image != nil && *image != c.Image {
		old, c.Image = c.Image, *image
	}
	if err := s.store.Categories.Save(c); err != nil {
		return nil, err
	}
	discardUploads(ctx, s.files, old)
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	c, err := s.store.Categories.GetByID(id)
	if err != nil {
		return lookupErr(err, "category")
	}
	if _, err := s.store.Categories.Delete(id); err != nil {
		return err
	}
	discardUploads(ctx, s.files, c.Image)
	return nil
}

func (s *CatalogService) AddSubCategory(categoryID uint, name string) (*models.SubCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("name is required")
	}
	if _, err := s.store.Categories.GetByID(categoryID); err != nil {
		return nil, lookupErr(err, "category")
	}
	sub := &models.SubCategory{CategoryID: categoryID, Name: name}
	if err := s.store.Categories.CreateSub(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *CatalogService) RenameSubCategory(id uint, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Validation("name is required")
	}
	n, err := s.store.Categories.RenameSub(id, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("sub-category not found")
	}
	return nil
}

func (s *CatalogService) DeleteSubCategory(id uint) error {
	n, err := s.store.Categories.DeleteSub(id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("sub-category not found")
	}
	return nil
}

// Announcements lists announcements in status; an empty status lists all.
func (s *CatalogService) Announcements(status string, page, limit int) ([]models.Announcement, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Announcements.List(status, page, limit)
}

// CreateAnnouncement stores the announcement and broadcasts it to every
// connected client.
func (s *CatalogService) CreateAnnouncement(adminID uint, in AnnouncementInput) (*models.Announcement, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	a := &models.Announcement{Title: in.Title, Body: in.Body, Status: domain.AnnouncementActive, CreatedBy: adminID}
	if err := s.store.Announcements.Create(a); err != nil {
		return nil, err
	}
	if s.live != nil {
		s.live.Publish(domain.ChannelAnnouncement, a)
	}
	return a, nil
}

func (s *CatalogService) UpdateAnnouncement(id uint, in AnnouncementInput) (*models.Announcement, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	a, err := s.store.Announcements.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "announcement")
	}
	a.Title, a.Body = in.Title, in.Body
	if err := s.store.Announcements.Save(a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetAnnouncementStatus activates or deactivates an announcement. Reactivated
// announcements are broadcast again.
func (s *CatalogService) SetAnnouncementStatus(id uint, status string) (*models.Announcement, error) {
	if status != domain.AnnouncementActive && status != domain.AnnouncementDeactive {
		return nil, domain.Validation("status must be ACTIVE or DEACTIVE")
	}
	a, err := s.store.Announcements.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "announcement")
	}
	if a.Status == status {
		return a, nil
	}
	a.Status = status
	if err := s.store.Announcements.Save(a); err != nil {
		return nil, err
	}
	if status == domain.AnnouncementActive && s.live != nil {
		s.live.Publish(domain.ChannelAnnouncement, a)
	}
	return a, nil
}

func (s *CatalogService) DeleteAnnouncement(id uint) error {
	n, err := s.store.Announcements.Delete(id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("announcement not found")
	}
	return nil
}

var pageSettings = map[string]string{
	"privacy": domain.SettingPrivacyPolicy,
	"terms":   domain.SettingTermsConditions,
}

// Page returns the text of a legal page ("privacy" or "terms").
func (s *CatalogService) Page(name string) (string, error) {
	key, ok := pageSettings[name]
	if !ok {
		return "", domain.NotFound("page not found")
	}
	return s.store.Settings.Text(key)
}

func (s *CatalogService) UpdatePage(name, content string) error {
	key, ok := pageSettings[name]
	if !ok {
		return domain.NotFound("page not found")
	}
	if strings.TrimSpace(content) == "" {
		return domain.Validation("content is required")
	}
	return s.store.Settings.Set(key, content)
}
