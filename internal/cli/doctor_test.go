package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playkit-contrib/kcontrib/internal/runner"
	"github.com/playkit-contrib/kcontrib/internal/runner/runnertest"
)

func TestDoctorPasses(t *testing.T) {
	h := newHarness(t)
	h.runner.On("npm --version", runnertest.Response{Result: runner.Result{Stdout: "10.2.4\n"}})
	h.runner.On("npm config list", runnertest.Response{Result: runner.Result{Stdout: "; cwd = " + testRoot + "\n"}})

	require.NoError(t, h.run("doctor"))
	log := h.errOut.String()
	assert.Contains(t, log, "doctor checks completed successfully")
	assert.Contains(t, log, "optional check failed")
}

func TestDoctorCountsFatalIssues(t *testing.T) {
	h := newHarness(t)
	h.missing["git"] = true
	h.runner.On("npm --version", runnertest.Response{Result: runner.Result{Stdout: "2.15.0"}})
	h.runner.On("npm config list", runnertest.Response{Result: runner.Result{Stdout: "; cwd = /somewhere/else"}})

	err := h.run("doctor")
	require.Error(t, err)
	assert.Equal(t, "doctor found 3 fatal issue(s); see log for details", err.Error())
}
