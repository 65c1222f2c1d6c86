package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := []string{"x", "my-plugin", "qna", "a1-b2", "dual-screen-"}
	for _, name := range valid {
		assert.NoError(t, Validate(name), name)
	}

	invalid := []string{"", "My-plugin", "1plugin", "-plugin", "my_plugin", "my plugin", "plügin"}
	for _, name := range invalid {
		err := Validate(name)
		require.Error(t, err, name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestDeriveCapitalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my-plugin", "MyPlugin"},
		{"x", "X"},
		{"my-awesome-plugin", "MyAwesomePlugin"},
		{"qna", "Qna"},
		{"a-2b", "A2b"},
		{"my-", "My"},
		{"my--plugin", "MyPlugin"},
		{"v7-2", "V72"},
		{"dual-screen-", "DualScreen"},
		{"v7-player-ui", "V7PlayerUi"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			forms, err := Derive(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.in, forms.Lowercase)
			assert.Equal(t, tt.want, forms.Capitalized)
		})
	}
}

func TestDeriveRejectsInvalid(t *testing.T) {
	_, err := Derive("Bad")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestValidators(t *testing.T) {
	assert.Equal(t, msgEmpty, ProjectName()(""))
	assert.Equal(t, msgInvalid, ProjectName()("Nope"))
	assert.Empty(t, ProjectName()("qna"))

	assert.Empty(t, NpmName()("@playkit-js/qna-plugin"))
	assert.Empty(t, NpmName()("qna-plugin"))
	assert.Equal(t, msgInvalid, NpmName()("@Playkit/qna"))

	assert.Empty(t, RepoSlug()("kaltura/playkit-js-qna"))
	assert.Equal(t, msgInvalid, RepoSlug()("kaltura/"))
}

func TestCamelCaseDropsEveryDash(t *testing.T) {
	for _, name := range []string{"a-2b", "my--plugin", "x-", "a1-b2-3c"} {
		assert.NotContains(t, CamelCase(name), "-", name)
	}
	assert.Equal(t, "myAwesomePlugin", CamelCase("my-awesome-plugin"))
}
