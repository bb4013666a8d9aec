package web

import (
	vm "github.com/ericfisherdev/kickstart/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

const (
	wizardTitle   = "Environment setup"
	setupPath     = "/setup"
	setupFormPath = "/setup/database"
)

// BuildWizard converts probe results, the CSRF token and the connection
// settings to show into the wizard view model. cfg.Password is dropped.
func BuildWizard(results []model.DependencyCheckResult, token string, cfg model.ConnectionConfig, errMsg string) vm.Wizard {
	page := vm.Wizard{
		Title:      wizardTitle,
		Checks:     toCheckViewModels(results),
		CSRFField:  csrfFormField,
		CSRFToken:  token,
		Error:      errMsg,
		FormAction: setupFormPath,
		RecheckURL: setupPath,
		Form: vm.FormViewModel{
			Driver:   string(cfg.Driver),
			Host:     cfg.Host,
			Port:     cfg.Port,
			Database: cfg.Database,
			Username: cfg.Username,
		},
		Drivers: toDriverOptions(cfg.Driver),
	}

	for _, r := range results {
		if r.Blocking() {
			page.Failing++
			if r.ShowForm {
				page.ShowForm = true
			}
		}
	}
	// A rejected submission keeps the form on screen so it can be corrected.
	if errMsg != "" {
		page.ShowForm = true
	}

	return page
}

// BuildHome converts probe results into the home page view model.
func BuildHome(results []model.DependencyCheckResult) vm.Home {
	return vm.Home{
		Title:  "Kickstart",
		Checks: toCheckViewModels(results),
	}
}

func toCheckViewModels(results []model.DependencyCheckResult) []vm.CheckViewModel {
	checks := make([]vm.CheckViewModel, 0, len(results))
	for _, r := range results {
		checks = append(checks, toCheckViewModel(r))
	}
	return checks
}

func toCheckViewModel(r model.DependencyCheckResult) vm.CheckViewModel {
	state := vm.CheckPassed
	switch {
	case !r.Required:
		state = vm.CheckSkipped
	case !r.Status:
		state = vm.CheckFailed
	}

	c := vm.CheckViewModel{
		Name:            r.Name,
		Label:           r.Label,
		State:           state,
		DescriptionHTML: RenderMarkdown(r.Description),
	}
	if state == vm.CheckFailed {
		c.Error = r.Error
		c.NoteHTML = RenderMarkdown(r.Note)
	}
	return c
}

func toDriverOptions(selected model.Driver) []vm.DriverOption {
	opts := make([]vm.DriverOption, 0, len(model.Drivers))
	for _, d := range model.Drivers {
		opts = append(opts, vm.DriverOption{
			Value:       string(d),
			Label:       d.Label(),
			DefaultPort: d.DefaultPort(),
			Selected:    d == selected,
		})
	}
	return opts
}
