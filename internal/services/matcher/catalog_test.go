package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()

	require.Len(t, profiles, 7)
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
		assert.NotEmpty(t, p.Description, p.Name)
		assert.NotEmpty(t, p.Traits, p.Name)
		assert.Positive(t, p.Age, p.Name)
	}
	assert.Equal(t, []string{"Adrian", "Marcus", "Jamie", "Kai", "River", "Elliot", "Arjun"}, names)
	assert.NotEmpty(t, profiles[0].Emoji)
	assert.Equal(t, 5, profiles[6].CompatibilityScore)
	assert.NotContains(t, profiles[0].Description, "\n")
}

func TestParseProfiles(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "valid",
			yaml: "- name: A\n  description: a\n- name: B\n  description: b\n",
		},
		{
			name:    "missing name",
			yaml:    "- description: a\n",
			wantErr: "missing name",
		},
		{
			name:    "missing description",
			yaml:    "- name: A\n",
			wantErr: "missing description",
		},
		{
			name:    "duplicate",
			yaml:    "- name: A\n  description: a\n- name: A\n  description: b\n",
			wantErr: "duplicate",
		},
		{
			name:    "not a list",
			yaml:    "name: A\n",
			wantErr: "parse profiles",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles, err := ParseProfiles([]byte(tt.yaml))
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, profiles, 2)
		})
	}
}
