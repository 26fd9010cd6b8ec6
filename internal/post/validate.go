package post

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Validate applies the strict schema required before a post is indexed into
// a database. Loose parsing through ParseFile never calls it.
func (f Frontmatter) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.ID, validation.Required.Error("post id is required"), validation.By(isUUID)),
		validation.Field(&f.Title, validation.Required.Error("title is required")),
		validation.Field(&f.Slug, validation.Required.Error("slug is required"), validation.By(isSlug)),
		validation.Field(&f.Status, validation.Required, validation.In(string(StatusDraft), string(StatusPublished)).
			Error("status must be draft or published")),
		validation.Field(&f.CoverImageSnake, validation.By(isAbsoluteURL)),
		validation.Field(&f.CoverImage, validation.By(isAbsoluteURL)),
		validation.Field(&f.UpdatedAt, validation.By(optionalTimestamp("updated date"))),
	)

	errs, ok := err.(validation.Errors)
	if err != nil && !ok {
		return fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}
	if errs == nil {
		errs = validation.Errors{}
	}
	if perr := requiredTimestamp(f.rawPublishedAt()); perr != nil {
		errs["published_at"] = perr
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidFrontmatter, errs)
	}
	return nil
}

// rawPublishedAt prefers published_at, then the other date spellings.
func (f Frontmatter) rawPublishedAt() any {
	for _, v := range []any{f.PublishedAt, f.PublishedAtCamel, f.Date} {
		if v != nil {
			return v
		}
	}
	return nil
}

func isUUID(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("post.id_invalid", "post id must be a valid UUID")
	}
	return nil
}

func isSlug(value any) error {
	s, _ := value.(string)
	if s == "" || slugPattern.MatchString(s) {
		return nil
	}
	if suggestion, err := slug.Normalize(s); err == nil && suggestion != "" && suggestion != s {
		return validation.NewError("post.slug_invalid",
			fmt.Sprintf("slug must be lowercase with hyphens (try %q)", suggestion))
	}
	return validation.NewError("post.slug_invalid", "slug must be lowercase with hyphens")
}

func isAbsoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validation.NewError("post.cover_image_invalid", "cover image must be a valid URL")
	}
	return nil
}

func optionalTimestamp(label string) validation.RuleFunc {
	return func(value any) error {
		if value == nil {
			return nil
		}
		return checkTimestamp(value, label)
	}
}

func requiredTimestamp(value any) error {
	if value == nil {
		return validation.NewError("post.published_at_required", "published date is required")
	}
	return checkTimestamp(value, "published date")
}

func checkTimestamp(value any, label string) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		if _, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return nil
		}
	}
	return validation.NewError("post.timestamp_invalid", label+" must be in ISO 8601 format")
}
