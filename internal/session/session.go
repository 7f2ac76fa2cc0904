package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

const (
	defaultName  = "John Doe"
	defaultEmail = "john@example.com"
	guestName    = "Guest"
)

var ErrUnknownTheme = errors.New("unknown theme")

func ParseTheme(value string) (Theme, error) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(value))); t {
	case ThemeLight, ThemeDark:
		return t, nil
	case "":
		return ThemeLight, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, value)
	}
}

type User struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	LoggedIn bool   `json:"logged_in"`
}

// State is the view-state shared by every screen of one session. It is
// created once at startup and passed explicitly.
type State struct {
	id     string
	theme  Theme
	user   User
	logger *zap.Logger
}

func New(theme Theme, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}
	if theme != ThemeDark {
		theme = ThemeLight
	}
	id := uuid.NewString()
	return &State{
		id:    id,
		theme: theme,
		user: User{
			Name:  defaultName,
			Email: defaultEmail,
		},
		logger: logger.Named("session").With(zap.String("session_id", id)),
	}
}

func (s *State) ID() string {
	return s.id
}

func (s *State) Theme() Theme {
	return s.theme
}

func (s *State) ToggleTheme() Theme {
	if s.theme == ThemeLight {
		s.theme = ThemeDark
	} else {
		s.theme = ThemeLight
	}
	s.logger.Debug("theme toggled", zap.String("theme", string(s.theme)))
	return s.theme
}

func (s *State) SetTheme(theme Theme) {
	if theme != ThemeDark {
		theme = ThemeLight
	}
	s.theme = theme
}

func (s *State) User() User {
	return s.user
}

// Login is a mock sign-in: any email is accepted and no password is checked.
// The name becomes the part of the email before '@'.
func (s *State) Login(email string) User {
	email = strings.TrimSpace(email)

	name := defaultName
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		name = local
	}
	if email != "" {
		s.user.Email = email
	}
	s.user.Name = name
	s.user.LoggedIn = true

	s.logger.Info("user logged in", zap.String("email", s.user.Email))
	return s.user
}

func (s *State) Logout() {
	s.user.LoggedIn = false
	s.logger.Info("user logged out", zap.String("email", s.user.Email))
}

func (s *State) DisplayName() string {
	if s.user.LoggedIn {
		return s.user.Name
	}
	return guestName
}
