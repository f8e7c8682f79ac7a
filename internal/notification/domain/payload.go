package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Category is drawn from a fixed taxonomy of notification kinds.
type Category string

const (
	CategoryRide      Category = "ride"
	CategoryChat      Category = "chat"
	CategoryPromotion Category = "promotion"
	CategorySecurity  Category = "security"
	CategorySystem    Category = "system"
)

// Categories lists the whole taxonomy.
var Categories = []Category{CategoryRide, CategoryChat, CategoryPromotion, CategorySecurity, CategorySystem}

var ErrUnknownCategory = errors.New("unknown category")

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// IsCritical reports whether the category bypasses quiet hours and opt-in.
func (c Category) IsCritical() bool {
	return c == CategorySecurity || c == CategorySystem
}

// NotificationPayload is the content handed to a channel provider.
type NotificationPayload struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category Category `json:"category"`
	URL      string   `json:"url,omitempty"`
	Icon     string   `json:"icon,omitempty"`
}

// Validate requires a title and a known category.
func (p NotificationPayload) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Err: ErrRequired}
	}
	if _, err := ParseCategory(string(p.Category)); err != nil {
		return &ValidationError{Field: "category", Err: err}
	}
	return nil
}

// UserRef identifies a notification target.
type UserRef struct {
	ID string `json:"id"`
}
