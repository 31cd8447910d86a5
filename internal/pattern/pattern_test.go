package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"changrep/internal/model"
)

func TestCompileDefaultsToCaseInsensitive(t *testing.T) {
	m, err := Compile("^ENG-", "")
	require.NoError(t, err)
	assert.Equal(t, "i", m.Flags())
	assert.True(t, m.Matches(model.Channel{Name: "eng-platform"}))
}

func TestCompileRejectsBlankPattern(t *testing.T) {
	for _, expr := range []string{"", "   ", "\t"} {
		_, err := Compile(expr, "i")
		assert.Error(t, err, "expr %q", expr)
	}
}

func TestCompileRejectsBadFlags(t *testing.T) {
	cases := []string{"x", "ix", "ii", "gg", "I"}
	for _, flags := range cases {
		_, err := Compile("abc", flags)
		assert.Error(t, err, "flags %q", flags)
	}
}

func TestCompileRejectsBadSyntax(t *testing.T) {
	for _, expr := range []string{"(", "[unclosed", "(?P<broken", "a{2,1}"} {
		_, err := Compile(expr, "i")
		assert.Error(t, err, "expr %q", expr)
	}
}

func TestCompileAcceptsGlobalFlag(t *testing.T) {
	m, err := Compile("team", "gi")
	require.NoError(t, err)
	assert.Equal(t, "gi", m.Flags())
	assert.True(t, m.Matches(model.Channel{Name: "TEAM-sales"}))
}

func TestCompileCaseSensitiveWithoutI(t *testing.T) {
	m, err := Compile("^eng-", "g")
	require.NoError(t, err)
	assert.False(t, m.Matches(model.Channel{Name: "ENG-platform"}))
	assert.True(t, m.Matches(model.Channel{Name: "eng-platform"}))
}

func TestMatchesAnyField(t *testing.T) {
	m, err := Compile("incident", "i")
	require.NoError(t, err)

	assert.True(t, m.Matches(model.Channel{Name: "incident-response"}))
	assert.True(t, m.Matches(model.Channel{Name: "ops", Topic: "Incident coordination"}))
	assert.True(t, m.Matches(model.Channel{Name: "ops", Purpose: "declare an INCIDENT here"}))
	assert.False(t, m.Matches(model.Channel{Name: "general", Topic: "chit chat", Purpose: "anything"}))
}

func TestMatchesEmptyFieldsDoNotPanic(t *testing.T) {
	m, err := Compile("^$", "i")
	require.NoError(t, err)
	// Empty topic and purpose are legitimate values, and ^$ matches them.
	assert.True(t, m.Matches(model.Channel{Name: "x"}))
}

func TestFilterPreservesOrder(t *testing.T) {
	m, err := Compile("^proj-", "i")
	require.NoError(t, err)

	in := []model.Channel{
		{Name: "proj-atlas"},
		{Name: "general"},
		{Name: "proj-zephyr"},
		{Name: "random"},
		{Name: "PROJ-borealis"},
	}
	out := m.Filter(in)
	require.Len(t, out, 3)
	assert.Equal(t, "proj-atlas", out[0].Name)
	assert.Equal(t, "proj-zephyr", out[1].Name)
	assert.Equal(t, "PROJ-borealis", out[2].Name)
}

func TestFilterNoMatchesReturnsEmptyNotNil(t *testing.T) {
	m, err := Compile("zzz-nothing", "i")
	require.NoError(t, err)
	out := m.Filter([]model.Channel{{Name: "general"}})
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestMultilineFlag(t *testing.T) {
	m, err := Compile("^roadmap$", "im")
	require.NoError(t, err)
	assert.True(t, m.Matches(model.Channel{Name: "planning", Topic: "notes\nroadmap\nlinks"}))

	noM, err := Compile("^roadmap$", "i")
	require.NoError(t, err)
	assert.False(t, noM.Matches(model.Channel{Name: "planning", Topic: "notes\nroadmap\nlinks"}))
}

func TestDotAllFlag(t *testing.T) {
	m, err := Compile("alpha.beta", "s")
	require.NoError(t, err)
	assert.True(t, m.Matches(model.Channel{Purpose: "alpha\nbeta"}))

	noS, err := Compile("alpha.beta", "g")
	require.NoError(t, err)
	assert.False(t, noS.Matches(model.Channel{Purpose: "alpha\nbeta"}))
}
