// ABOUTME: Input validation for post and account forms
// ABOUTME: Returns user-facing messages; lengths count characters, not bytes

package posts

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/samarblogs/blogcli/internal/client"
)

// Field limits
const (
	TitleMin    = 5
	TitleMax    = 100
	BodyMin     = 20
	BodyMax     = 5000
	NameMin     = 2
	NameMax     = 50
	PasswordMin = 6
	PasswordMax = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateTitle checks a post title
func ValidateTitle(s string) error {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return errors.New("Please enter a title for your post")
	case n < TitleMin:
		return errors.New("Title should be at least 5 characters")
	case n > TitleMax:
		return errors.New("Title should be less than 100 characters")
	}
	return nil
}

// ValidateBody checks post content
func ValidateBody(s string) error {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return errors.New("Please enter content for your post")
	case n < BodyMin:
		return errors.New("Post content should be at least 20 characters")
	case n > BodyMax:
		return errors.New("Post content should be less than 5000 characters")
	}
	return nil
}

// ValidateName checks a display name
func ValidateName(s string) error {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n == 0:
		return errors.New("Please enter your name")
	case n < NameMin:
		return errors.New("Name should be at least 2 characters")
	case n > NameMax:
		return errors.New("Name should be less than 50 characters")
	}
	return nil
}

// ValidateEmail checks an email address
func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("Please enter your email address")
	}
	if !emailPattern.MatchString(s) {
		return errors.New("Please enter a valid email address")
	}
	return nil
}

// ValidatePassword checks a new password. Surrounding spaces count.
func ValidatePassword(s string) error {
	n := utf8.RuneCountInString(s)
	switch {
	case strings.TrimSpace(s) == "":
		return errors.New("Please enter a password")
	case n < PasswordMin:
		return errors.New("Password should be at least 6 characters")
	case n > PasswordMax:
		return errors.New("Password should be less than 100 characters")
	}
	return nil
}

// ValidateConfirmation checks the repeated password
func ValidateConfirmation(password, confirm string) error {
	if strings.TrimSpace(confirm) == "" {
		return errors.New("Please confirm your password")
	}
	if password != confirm {
		return errors.New("Passwords do not match")
	}
	return nil
}

// ValidatePost checks a post form
func ValidatePost(title, body string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	return ValidateBody(body)
}

// ValidateRegistration checks a sign-up form in display order
func ValidateRegistration(name, email, password, confirm string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return ValidateConfirmation(password, confirm)
}

// ErrNotOwner is returned when editing someone else's post
var ErrNotOwner = errors.New("You don't have permission to edit this post")

// CheckOwner reports whether user may edit p
func CheckOwner(p client.Post, user *client.User) error {
	if user == nil || p.UserID.IsZero() || p.UserID != user.ID {
		return ErrNotOwner
	}
	return nil
}
