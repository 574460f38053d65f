package category

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/domain/aggregate"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const AggregateType = "Category"

const maxNameLength = 100

var (
	ErrCategoryNotFound = apperr.New(apperr.KindNotFound, "CATEGORY_NOT_FOUND", "category not found")
	ErrCategoryInUse    = apperr.New(apperr.KindConflict, "CATEGORY_IN_USE", "cannot delete a category that still has products")
	ErrUnknownCategory  = apperr.Validation("category_id", "category does not exist")
	ErrInvalidName      = apperr.Validation("name", "name is required and at most 100 characters")
	ErrInvalidSlug      = apperr.Validation("slug", "slug must be lowercase letters, digits and single hyphens")
)

// slugRegex validates slug format (lowercase letters, numbers, hyphens)
var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// Category groups products in the catalog, e.g. "Smartphones" or "Tablets"
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	Deleted     bool      `json:"deleted,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int       `json:"version"`
}

func (c *Category) GetID() string   { return c.ID }
func (c *Category) GetVersion() int { return c.Version }

func (c *Category) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventCategoryCreated:
		var data CategoryCreated
		if err := event.Decode(&data); err != nil {
			return err
		}
		c.ID = data.CategoryID
		c.Name = data.Name
		c.Slug = data.Slug
		c.Description = data.Description
		c.ImageURL = data.ImageURL
		c.CreatedAt = data.CreatedAt
		c.UpdatedAt = data.CreatedAt
	case EventCategoryUpdated:
		var data CategoryUpdated
		if err := event.Decode(&data); err != nil {
			return err
		}
		c.Name = data.Name
		c.Slug = data.Slug
		c.Description = data.Description
		c.ImageURL = data.ImageURL
		c.UpdatedAt = data.UpdatedAt
	case EventCategoryDeleted:
		c.Deleted = true
	}
	c.Version = event.Version
	return nil
}

// Input carries the editable fields. An empty Slug is derived from Name.
type Input struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (in Input) normalize() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || utf8.RuneCountInString(in.Name) > maxNameLength {
		return in, ErrInvalidName
	}
	if in.Slug == "" {
		in.Slug = generateSlug(in.Name)
	}
	if !slugRegex.MatchString(in.Slug) {
		return in, ErrInvalidSlug
	}
	return in, nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) Get(ctx context.Context, categoryID string) (*Category, error) {
	c, found, err := aggregate.LoadAggregate(ctx, s.eventStore, categoryID, func() *Category { return &Category{ID: categoryID} })
	if err != nil {
		return nil, err
	}
	if !found || c.Deleted {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	c := &Category{ID: uuid.New().String()}
	_, err = aggregate.Record(ctx, s.eventStore, c, AggregateType, EventCategoryCreated, CategoryCreated{
		CategoryID:  c.ID,
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, categoryID string, in Input) (*Category, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	_, err = aggregate.Record(ctx, s.eventStore, c, AggregateType, EventCategoryUpdated, CategoryUpdated{
		CategoryID:  categoryID,
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes the category. Whether products still use it is checked
// by the caller against the products read model.
func (s *Service) Delete(ctx context.Context, categoryID string) error {
	c, err := s.Get(ctx, categoryID)
	if err != nil {
		return err
	}
	_, err = aggregate.Record(ctx, s.eventStore, c, AggregateType, EventCategoryDeleted, CategoryDeleted{
		CategoryID: categoryID,
		DeletedAt:  time.Now(),
	})
	return err
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// generateSlug creates a URL-friendly slug from a name. Accents are dropped
// first, so "Điện thoại" becomes "dien-thoai".
func generateSlug(name string) string {
	slug, _, err := transform.String(stripMarks, name)
	if err != nil {
		slug = name
	}
	slug = strings.NewReplacer("đ", "d", "Đ", "d").Replace(slug)
	slug = strings.ToLower(slug)
	slug = strings.NewReplacer(" ", "-", "_", "-").Replace(slug)
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
