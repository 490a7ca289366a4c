package install

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrAnchorNotFound = errors.New("htaccess anchor not found")

const (
	htaccessAnchor = "Options -MultiViews -Indexes\n    </IfModule>"
	noIndexBlock   = "\n    \n    <IfModule mod_headers.c>\n        Header set X-Robots-Tag \"noindex, nofollow\"\n    </IfModule>"
)

// WriteEnv merges values into the env file at path, keeping unrelated keys.
func WriteEnv(path string, values map[string]string) error {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		env = existing
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for k, v := range values {
		env[k] = v
	}

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// GeneratedToken is set when WriteConfig had to create the first API token.
type GeneratedToken struct {
	Name  string
	Token string
}

// WriteConfig creates or updates the YAML config at path. Shopify credentials stay in
// the env file; only non-secret settings are written here.
func WriteConfig(path string, a *Answers) (*GeneratedToken, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v.Set("server.public_url", a.PublicURL)
	v.Set("notify.websocket", true)

	if !v.IsSet("store.strategy") {
		v.Set("store.strategy", "sql")
		v.Set("store.sql.driver", "sqlite")
		v.Set("store.sql.dsn", "hydrogen.db")
	}

	var generated *GeneratedToken
	if !v.IsSet("server.auth.tokens") {
		generated = &GeneratedToken{
			Name:  "admin",
			Token: strings.ReplaceAll(uuid.NewString(), "-", ""),
		}
		v.Set("server.auth.tokens", []map[string]any{{
			"name":   generated.Name,
			"token":  generated.Token,
			"scopes": []string{"read", "media", "sync"},
		}})
	}

	if err := v.WriteConfigAs(path); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	return generated, nil
}

// EnableNoIndex adds an X-Robots-Tag header block to an .htaccess file. It reports false
// when the block is already present.
func EnableNoIndex(path string) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	content := string(raw)
	if strings.Contains(content, "X-Robots-Tag") {
		return false, nil
	}
	if !strings.Contains(content, htaccessAnchor) {
		return false, ErrAnchorNotFound
	}

	content = strings.Replace(content, htaccessAnchor, htaccessAnchor+noIndexBlock, 1)

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}
