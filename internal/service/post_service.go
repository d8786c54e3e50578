package service

import (
	"context"
	"strings"
	"time"

	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
)

type PostInput struct {
	ProjectName    string     `json:"projectName" validate:"required,max=255"`
	Category       string     `json:"category" validate:"required,max=128"`
	SubCategory    string     `json:"subCategory" validate:"max=128"`
	Location       string     `json:"location" validate:"max=255"`
	Lat            float64    `json:"lat" validate:"gte=-90,lte=90"`
	Lng            float64    `json:"lng" validate:"gte=-180,lte=180"`
	Deadline       *time.Time `json:"deadline"`
	JobDescription string     `json:"jobDescription" validate:"required,max=10000"`
	CoverImage     string     `json:"coverImage" validate:"omitempty,url"`
	ShowcaseImages []string   `json:"showcaseImages" validate:"max=10,dive,url"`
}

type PostChanges struct {
	ProjectName    *string    `json:"projectName" validate:"omitempty,max=255"`
	Category       *string    `json:"category" validate:"omitempty,max=128"`
	SubCategory    *string    `json:"subCategory" validate:"omitempty,max=128"`
	Location       *string    `json:"location" validate:"omitempty,max=255"`
	Lat            *float64   `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng            *float64   `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	Deadline       *time.Time `json:"deadline"`
	JobDescription *string    `json:"jobDescription" validate:"omitempty,max=10000"`
	CoverImage     *string    `json:"coverImage" validate:"omitempty,url"`
	ShowcaseImages []string   `json:"showcaseImages" validate:"max=10,dive,url"`
}

// Favourites is a user's saved posts and providers.
type Favourites struct {
	Posts     []models.Post `json:"posts"`
	Providers []models.User `json:"providers"`
}

type PostService struct {
	store *repository.Store
	files FileStore
}

func NewPostService(store *repository.Store, files FileStore) *PostService {
	return &PostService{store: store, files: files}
}

func (s *PostService) Create(ctx context.Context, creatorID uint, in PostInput) (post *models.Post, err error) {
	defer func() {
		if err != nil {
			discardUploads(ctx, s.files, append([]string{in.CoverImage}, in.ShowcaseImages...)...)
		}
	}()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	creator, err := loadActive(s.store.Users, creatorID)
	if err != nil {
		return nil, err
	}
	if !creator.IsCustomer() {
		return nil, domain.Forbidden("only customers can post jobs")
	}
	post = &models.Post{
		CreatorID:      creator.ID,
		ProjectName:    in.ProjectName,
		Category:       in.Category,
		SubCategory:    in.SubCategory,
		Location:       in.Location,
		Lat:            in.Lat,
		Lng:            in.Lng,
		Deadline:       in.Deadline,
		JobDescription: in.JobDescription,
		CoverImage:     in.CoverImage,
		ShowcaseImages: models.StringList(in.ShowcaseImages),
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Posts.Create(post); err != nil {
			return err
		}
		return tx.Refs.Append(creator.ID, domain.RefJob, post.ID)
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Get(id uint) (*models.Post, error) {
	post, err := s.store.Posts.GetByID(id)
	if err != nil {
		return nil, lookupErr(err, "post")
	}
	return post, nil
}

func (s *PostService) Search(query string, page, limit int) ([]models.Post, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, domain.Validation("search query is required")
	}
	page, limit = normalizePage(page, limit)
	return s.store.Posts.Search(query, page, limit)
}

func (s *PostService) ListMine(userID uint, page, limit int) ([]models.Post, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Posts.ListByCreator(userID, page, limit)
}

// owned loads a post the actor created that is not on project yet.
func (s *PostService) owned(actorID, postID uint) (*models.Post, error) {
	post, err := s.Get(postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != actorID {
		return nil, domain.Unauthorized("you are not the owner of this post")
	}
	if post.IsOnProject {
		return nil, domain.Conflict("a post that is on project cannot be changed")
	}
	if _, err := loadActive(s.store.Users, actorID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, actorID, postID uint, ch PostChanges) (*models.Post, error) {
	if err := validateInput(&ch); err != nil {
		return nil, err
	}
	post, err := s.owned(actorID, postID)
	if err != nil {
		return nil, err
	}
	var replaced []string
	if ch.ProjectName != nil {
		post.ProjectName = *ch.ProjectName
	}
	if ch.Category != nil {
		post.Category = *ch.Category
	}
	if ch.SubCategory != nil {
		post.SubCategory = *ch.SubCategory
	}
	if ch.Location != nil {
		post.Location = *ch.Location
	}
	if ch.Lat != nil {
		post.Lat = *ch.Lat
	}
	if ch.Lng != nil {
		post.Lng = *ch.Lng
	}
	if ch.Deadline != nil {
		post.Deadline = ch.Deadline
	}
	if ch.JobDescription != nil {
		post.JobDescription = *ch.JobDescription
	}
	if ch.CoverImage != nil && *ch.CoverImage != post.CoverImage {
		replaced = append(replaced, post.CoverImage)
		post.CoverImage = *ch.CoverImage
	}
	if ch.ShowcaseImages != nil {
		replaced = append(replaced, post.ShowcaseImages...)
		post.ShowcaseImages = models.StringList(ch.ShowcaseImages)
	}
	if err := s.store.Posts.Save(post); err != nil {
		return nil, err
	}
	discardUploads(ctx, s.files, unused(replaced, post)...)
	return post, nil
}

func unused(urls []string, post *models.Post) []string {
	keep := map[string]bool{post.CoverImage: true}
	for _, u := range post.ShowcaseImages {
		keep[u] = true
	}
	var out []string
	for _, u := range urls {
		if !keep[u] {
			out = append(out, u)
		}
	}
	return out
}

// Delete soft-deletes the post and removes it from the owner's job list.
func (s *PostService) Delete(actorID, postID uint) error {
	post, err := s.owned(actorID, postID)
	if err != nil {
		return err
	}
	return s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Posts.SoftDelete(post.ID); err != nil {
			return err
		}
		return tx.Refs.Remove(actorID, domain.RefJob, post.ID)
	})
}

// Offers lists the offers made on a post. Only its creator may see them.
func (s *PostService) Offers(actorID, postID uint) ([]models.Offer, error) {
	post, err := s.Get(postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != actorID {
		return nil, domain.Unauthorized("you are not the owner of this post")
	}
	return s.store.Offers.ListByProject(post.ID)
}

func (s *PostService) AddFavouritePost(userID, postID uint) error {
	if _, err := s.Get(postID); err != nil {
		return err
	}
	return s.store.Refs.Append(userID, domain.RefFavouriteService, postID)
}

func (s *PostService) RemoveFavouritePost(userID, postID uint) error {
	return s.store.Refs.Remove(userID, domain.RefFavouriteService, postID)
}

func (s *PostService) AddFavouriteProvider(userID, providerID uint) error {
	if userID == providerID {
		return domain.Validation("you cannot favourite yourself")
	}
	p, err := loadUser(s.store.Users, providerID)
	if err != nil {
		return err
	}
	if !p.IsProvider() {
		return domain.Validation("user is not a service provider")
	}
	return s.store.Refs.Append(userID, domain.RefFavouriteProvider, providerID)
}

func (s *PostService) RemoveFavouriteProvider(userID, providerID uint) error {
	return s.store.Refs.Remove(userID, domain.RefFavouriteProvider, providerID)
}

func (s *PostService) Favourites(userID uint) (*Favourites, error) {
	postIDs, err := s.store.Refs.List(userID, domain.RefFavouriteService)
	if err != nil {
		return nil, err
	}
	providerIDs, err := s.store.Refs.List(userID, domain.RefFavouriteProvider)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.Posts.ListByIDs(postIDs)
	if err != nil {
		return nil, err
	}
	providers, err := s.store.Users.ListByIDs(providerIDs)
	if err != nil {
		return nil, err
	}
	return &Favourites{Posts: posts, Providers: providers}, nil
}
