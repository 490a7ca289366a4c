package config

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func ValidateIdentifier(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}

	return identifierPattern.MatchString(s)
}

// ValidateShopDomain accepts a bare host (myshop.myshopify.com) or an http(s) URL with no path.
func ValidateShopDomain(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return false
	}

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return false
	}

	return u.Path == "" || u.Path == "/"
}

func ValidateCronSpec(fl validator.FieldLevel) bool {
	_, err := ScheduleParser.Parse(fl.Field().String())
	return err == nil
}

// ScheduleParser is the parser used for sync.schedule, shared with the scheduler.
var ScheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
