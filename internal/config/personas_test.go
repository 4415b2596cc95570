package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/cleansight/internal/models"
)

func TestDefaultPersonas_AllHaveNames(t *testing.T) {
	for i, p := range DefaultPersonas() {
		assert.NotEmpty(t, p.Name, "persona %d has empty name", i)
		assert.NotEmpty(t, p.Description, "persona %s has empty description", p.Name)
		assert.NotEmpty(t, p.Preamble, "persona %s has empty preamble", p.Name)
	}
}

func TestGetPersona(t *testing.T) {
	p, err := GetPersona(DefaultPreambleName)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPreamble, p.Preamble)

	_, err = GetPersona("nonexistent")
	assert.Error(t, err)
}

func TestListPersonaNames(t *testing.T) {
	names := ListPersonaNames()
	assert.Contains(t, names, DefaultPreambleName)
	assert.Len(t, names, len(DefaultPersonas()))
}

func TestResolvePreamble(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		want    string
		wantErr bool
	}{
		{"literal wins", ClientConfig{Preamble: "Be brief.", PreambleName: "concise"}, "Be brief.", false},
		{"empty name falls back", ClientConfig{}, models.DefaultPreamble, false},
		{"unknown name", ClientConfig{PreambleName: "pirate"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePreamble(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
