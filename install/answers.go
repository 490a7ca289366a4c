package install

import (
	"errors"
	"strings"
)

const (
	DefaultScopes    = "write_files,read_files"
	DefaultPublicURL = "http://127.0.0.1:3000"
)

type Answers struct {
	ApiKey      string
	AccessToken string
	Scopes      string
	Domain      string
	PublicURL   string
	NoIndex     bool
}

func required(msg string) func(string) error {
	return func(answer string) error {
		if strings.TrimSpace(answer) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

// ValidatePublicURL requires at least three dot separated parts, e.g. www.domain.com.
func ValidatePublicURL(answer string) error {
	if answer == "" {
		return errors.New("public url is required")
	}
	if len(strings.Split(answer, ".")) < 3 {
		return errors.New("public url must contain a sub domain, domain and tld, ie: www.domain.com\nyou supplied: " + answer)
	}
	return nil
}

func AskAnswers(p *Prompter) (*Answers, error) {
	var a Answers
	var err error

	if a.ApiKey, err = p.Ask(Question{Label: "Api key", Hidden: true, Validate: required("api key is required")}); err != nil {
		return nil, err
	}
	if a.AccessToken, err = p.Ask(Question{Label: "Access token (admin api token)", Hidden: true, Validate: required("access token is required")}); err != nil {
		return nil, err
	}
	if a.Scopes, err = p.Ask(Question{Label: "Scopes", Default: DefaultScopes, Validate: required("scopes are required")}); err != nil {
		return nil, err
	}
	if a.Domain, err = p.Ask(Question{Label: "Shopify domain (https://myshop.myshopify.com)", Validate: required("domain is required")}); err != nil {
		return nil, err
	}
	if a.PublicURL, err = p.Ask(Question{Label: "Public url", Default: DefaultPublicURL, Validate: ValidatePublicURL}); err != nil {
		return nil, err
	}
	if a.NoIndex, err = p.Confirm("Enable noindex, nofollow", false); err != nil {
		return nil, err
	}

	return &a, nil
}

// Env returns the environment variables the configuration loader binds.
func (a *Answers) Env() map[string]string {
	return map[string]string{
		"SHOPIFY_API_KEY":      a.ApiKey,
		"SHOPIFY_ACCESS_TOKEN": a.AccessToken,
		"SHOPIFY_APP_SCOPES":   a.Scopes,
		"SHOPIFY_DOMAIN":       a.Domain,
		"PUBLIC_URL":           a.PublicURL,
	}
}
