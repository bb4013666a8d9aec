package web

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/kickstart/internal/adapter/driving/web/templates/pages"
	vm "github.com/ericfisherdev/kickstart/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/kickstart/internal/domain/model"
)

func failingDatabase() model.DependencyCheckResult {
	res := model.FailedCheck(model.CheckDatabase, "Database", "Connection to `app`.", "refused")
	res.ShowForm = true
	return res
}

func TestBuildWizard_DropsPassword(t *testing.T) {
	cfg := model.ConnectionConfig{Driver: model.DriverPostgres, Host: "pg", Port: "5432", Database: "app", Username: "u", Password: "secret"}

	page := BuildWizard([]model.DependencyCheckResult{failingDatabase()}, "tok", cfg, "")

	assert.Equal(t, vm.FormViewModel{Driver: "postgres", Host: "pg", Port: "5432", Database: "app", Username: "u"}, page.Form)
	assert.Equal(t, "tok", page.CSRFToken)
	assert.Equal(t, csrfFormField, page.CSRFField)
	assert.Equal(t, setupFormPath, page.FormAction)
}

func TestBuildWizard_ShowForm(t *testing.T) {
	assetsFailing := model.FailedCheck(model.CheckAssets, "Assets", "", "missing")

	tests := []struct {
		name    string
		results []model.DependencyCheckResult
		errMsg  string
		want    bool
	}{
		{name: "database failing", results: []model.DependencyCheckResult{failingDatabase()}, want: true},
		{name: "only assets failing", results: []model.DependencyCheckResult{assetsFailing}, want: false},
		{name: "rejected submission", results: []model.DependencyCheckResult{assetsFailing}, errMsg: "Invalid or expired form token.", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := BuildWizard(tt.results, "", model.DefaultConnectionConfig(), tt.errMsg)
			assert.Equal(t, tt.want, page.ShowForm)
		})
	}
}

func TestBuildWizard_CheckStates(t *testing.T) {
	results := []model.DependencyCheckResult{
		model.SkippedCheck(model.CheckDatabase, "Database", "No tables."),
		model.PassedCheck(model.CheckCache, "Cache", "Redis 7."),
		model.FailedCheck(model.CheckAssets, "Assets", "Build output.", "manifest missing"),
	}
	results[2].Note = "Run `npm run build`."

	page := BuildWizard(results, "", model.DefaultConnectionConfig(), "")

	require.Len(t, page.Checks, 3)
	assert.Equal(t, vm.CheckSkipped, page.Checks[0].State)
	assert.Equal(t, vm.CheckPassed, page.Checks[1].State)
	assert.Equal(t, vm.CheckFailed, page.Checks[2].State)
	assert.Equal(t, 1, page.Failing)
	assert.Equal(t, "manifest missing", page.Checks[2].Error)
	assert.Contains(t, page.Checks[2].NoteHTML, "<code>npm run build</code>")
}

func TestBuildWizard_SelectsDriver(t *testing.T) {
	page := BuildWizard(nil, "", model.ConnectionConfig{Driver: model.DriverSQLite}, "")

	require.Len(t, page.Drivers, len(model.Drivers))
	for _, d := range page.Drivers {
		assert.Equal(t, d.Value == "sqlite", d.Selected, d.Value)
	}
}

func TestWizardTemplate_EscapesUntrustedValues(t *testing.T) {
	page := BuildWizard([]model.DependencyCheckResult{failingDatabase()}, "tok",
		model.ConnectionConfig{Driver: model.DriverMySQL, Host: `"><script>x</script>`, Username: "a&b"}, "bad <input>")

	var buf bytes.Buffer
	require.NoError(t, pages.Wizard(page).Render(context.Background(), &buf))
	html := buf.String()

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `value="&#34;&gt;&lt;script&gt;x&lt;/script&gt;"`)
	assert.Contains(t, html, `value="a&amp;b"`)
	assert.Contains(t, html, "bad &lt;input&gt;")
	assert.Contains(t, html, `type="password" autocomplete="new-password">`)
}
