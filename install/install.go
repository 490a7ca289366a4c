// Package install implements the interactive setup wizard.
package install

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

type Installer struct {
	Prompter     *Prompter
	Out          io.Writer
	EnvFile      string
	ConfigFile   string
	HtaccessFile string
	Logger       zerolog.Logger
}

func (i *Installer) Run() error {
	answers, err := AskAnswers(i.Prompter)
	if err != nil {
		return err
	}

	fmt.Fprintln(i.Out, "Writing config")

	if err := WriteEnv(i.EnvFile, answers.Env()); err != nil {
		return err
	}
	i.Logger.Debug().Str("file", i.EnvFile).Msg("env file updated")

	token, err := WriteConfig(i.ConfigFile, answers)
	if err != nil {
		return err
	}
	i.Logger.Debug().Str("file", i.ConfigFile).Msg("config file updated")

	if answers.NoIndex {
		if err := i.noIndex(); err != nil {
			return err
		}
	}

	fmt.Fprintln(i.Out, "Finished writing config")
	if token != nil {
		fmt.Fprintf(i.Out, "Created API token %q: %s\n", token.Name, token.Token)
	}
	fmt.Fprintln(i.Out, "Make sure to run the following command:")
	fmt.Fprintf(i.Out, " - hydrogen serve --config %s --env-file %s\n", i.ConfigFile, i.EnvFile)
	fmt.Fprintln(i.Out, "Hydrogen has been successfully installed")

	return nil
}

func (i *Installer) noIndex() error {
	if i.HtaccessFile == "" {
		fmt.Fprintln(i.Out, "No .htaccess file given, skipping noindex")
		return nil
	}

	changed, err := EnableNoIndex(i.HtaccessFile)
	switch {
	case errors.Is(err, ErrAnchorNotFound):
		i.Logger.Warn().Str("file", i.HtaccessFile).Msg("could not find where to add the noindex header")
		return nil
	case err != nil:
		return fmt.Errorf("enable noindex: %w", err)
	case !changed:
		i.Logger.Info().Str("file", i.HtaccessFile).Msg("noindex header already present")
	}
	return nil
}
