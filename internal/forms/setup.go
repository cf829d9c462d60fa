package forms

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/charterdesk/internal/config"
)

// SetupValues backs the first-run setup form.
type SetupValues struct {
	BusinessName string
	Email        string
	Phone        string
	Marina       string
	Currency     string
	Days         int
	Theme        string
	Driver       string
	DSN          string
}

// SetupFrom seeds values from an existing config.
func SetupFrom(cfg config.Config) SetupValues {
	return SetupValues{
		BusinessName: cfg.Business.Name,
		Email:        cfg.Business.Email,
		Phone:        cfg.Business.Phone,
		Marina:       cfg.Business.Marina,
		Currency:     cfg.General.Currency,
		Days:         cfg.General.DefaultDays,
		Theme:        cfg.Appearance.Theme,
		Driver:       cfg.Backend.Driver,
		DSN:          cfg.Backend.DSN,
	}
}

// Apply writes the values onto cfg.
func (v SetupValues) Apply(cfg *config.Config) {
	if name := strings.TrimSpace(v.BusinessName); name != "" {
		cfg.Business.Name = name
	}
	cfg.Business.Email = strings.TrimSpace(v.Email)
	cfg.Business.Phone = strings.TrimSpace(v.Phone)
	cfg.Business.Marina = strings.TrimSpace(v.Marina)
	if v.Currency != "" {
		cfg.General.Currency = v.Currency
	}
	if v.Days > 0 {
		cfg.General.DefaultDays = v.Days
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	if v.Driver != "" {
		cfg.Backend.Driver = v.Driver
	}
	cfg.Backend.DSN = strings.TrimSpace(v.DSN)
}

// Setup builds the first-run form. themes lists selectable theme names.
func Setup(v *SetupValues, themes []string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().Title("Welcome to charterdesk").
				Description("A few details for outgoing messages and reports."),
			huh.NewInput().Title("Business name").Value(&v.BusinessName).Validate(required("business name")),
			huh.NewInput().Title("Office email").Value(&v.Email).Validate(email(true)),
			huh.NewInput().Title("Office phone").Value(&v.Phone).Validate(phone(true)),
			huh.NewInput().Title("Marina / meeting point").Value(&v.Marina),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Currency").
				Options(huh.NewOptions("EUR", "USD", "GBP", "CHF", "TRY", "HRK")...).
				Value(&v.Currency),
			huh.NewSelect[int]().Title("Default reporting window").
				Options(
					huh.NewOption("30 days", 30),
					huh.NewOption("90 days", 90),
					huh.NewOption("1 year", 365),
				).
				Value(&v.Days),
			huh.NewSelect[string]().Title("Color theme").
				Options(huh.NewOptions(themes...)...).
				Value(&v.Theme),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Database").
				Options(
					huh.NewOption("Local file (SQLite)", "sqlite"),
					huh.NewOption("Hosted Postgres", "postgres"),
				).
				Value(&v.Driver),
			huh.NewInput().Title("Connection string").
				Description("Leave blank for the default local database").
				Value(&v.DSN),
		),
	).WithTheme(huh.ThemeCharm())
}
