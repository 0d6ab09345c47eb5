package tui

import (
	"errors"
	"fmt"

	"github.com/EmundoT/connected-lint/internal/core"
	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/charmbracelet/huh"
)

// ErrWizardAborted is returned when the user cancels the setup wizard.
var ErrWizardAborted = errors.New("setup aborted")

// RunSetupWizard asks for the server connection and returns the resulting configuration.
// Fields of existing are offered as defaults.
func RunSetupWizard(existing types.EngineConfig) (types.EngineConfig, error) {
	answers := answersFromConfig(existing)

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Placeholder("https://sonar.example.com").
				Value(&answers.URL).
				Validate(validateURL),
			huh.NewInput().
				Title("Server ID").
				Description("Names the local storage directory of this server").
				Value(&answers.ServerID).
				Validate(validateServerID),
			huh.NewInput().
				Title("Organization").
				Description("Leave empty unless the server uses organizations").
				Value(&answers.Organization),
			huh.NewSelect[string]().
				Title("Authentication").
				Options(
					huh.NewOption("User token", authToken),
					huh.NewOption("Login and password", authLogin),
					huh.NewOption("Anonymous", authNone),
				).
				Value(&answers.AuthMethod),
		),
	).Run()
	if err != nil {
		return existing, ErrWizardAborted
	}

	switch answers.AuthMethod {
	case authToken:
		err = huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("Token").
				Description(fmt.Sprintf("Stored in %s; %s overrides it", core.ConfigFile, core.EnvToken)).
				Password(true).
				Value(&answers.Token),
		)).Run()
	case authLogin:
		err = huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Login").Value(&answers.Login).Validate(notEmpty("login")),
			huh.NewInput().Title("Password").Password(true).Value(&answers.Password),
		)).Run()
	}
	if err != nil {
		return existing, ErrWizardAborted
	}

	return buildEngineConfig(existing, answers), nil
}
