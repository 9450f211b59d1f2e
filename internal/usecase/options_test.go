package usecase

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
)

func seedCatalog(t *testing.T, st *store.Store) {
	t.Helper()
	require.NoError(t, st.SaveCountries([]domain.Country{
		{ID: "1", Name: "Belgium", DisplayName: "Belgium"},
		{ID: "2", Name: "France"},
		{ID: "3", Name: "Empty"},
	}))
	now := time.Now().UTC()
	require.NoError(t, st.SaveChannelSets(map[string]store.ChannelSet{
		"1": {FetchedAt: now, Channels: []domain.Channel{
			{ID: "c2", Name: "canvas", DisplayName: "Canvas"},
			{ID: "c1", Name: "één", DisplayName: "Eén"},
			{Name: "no id, skipped"},
		}},
		"2": {FetchedAt: now, Channels: []domain.Channel{
			{ID: "c3", Name: "TF1"},
		}},
	}))
}

func TestOptionsBuilder_Build(t *testing.T) {
	st := store.New(t.TempDir())
	seedCatalog(t, st)

	result, err := NewOptionsBuilder(st, log.New(io.Discard, "", 0)).Build()
	require.NoError(t, err)

	assert.Equal(t, 3, result.Countries)
	assert.Equal(t, 2, result.Covered)
	assert.Equal(t, 3, result.Channels)

	require.Len(t, result.Fields, 5)
	assert.Equal(t, "about", result.Fields[0].Keyname)
	assert.Equal(t, "api_token", result.Fields[1].Keyname)
	assert.Equal(t, "channels", result.Fields[2].Keyname)
	assert.Equal(t, "time_format", result.Fields[3].Keyname)
	assert.Equal(t, "show_title_bar", result.Fields[4].Keyname)

	// Options are sorted case-insensitively by label; values carry the
	// channel ID and display name.
	channels := result.Fields[2]
	assert.True(t, channels.Multiple)
	assert.Equal(t, "TV Channels: 3", channels.Name)
	require.Len(t, channels.Options, 3)
	assert.Equal(t, "Belgium - Canvas", channels.Options[0].Label)
	assert.Equal(t, "c2|Canvas", channels.Options[0].Value)
	assert.Equal(t, "Belgium - Eén", channels.Options[1].Label)
	assert.Equal(t, "France - TF1", channels.Options[2].Label)
	assert.Equal(t, "c3|TF1", channels.Options[2].Value)

	// Live counts are part of the about copy.
	assert.Contains(t, result.Fields[0].Description, "from 2 countries with 3 channels")
}

func TestOptionsBuilder_Build_MissingCache(t *testing.T) {
	st := store.New(t.TempDir())
	logger := log.New(io.Discard, "", 0)

	_, err := NewOptionsBuilder(st, logger).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run the channels command first")

	// Countries alone are not enough either.
	require.NoError(t, st.SaveCountries([]domain.Country{{ID: "1", Name: "Belgium"}}))
	_, err = NewOptionsBuilder(st, logger).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached channels")
}

func TestOptionsBuilder_Build_UnknownCountrySkipped(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.SaveCountries([]domain.Country{{ID: "1", Name: "Belgium"}}))
	require.NoError(t, st.SaveChannelSets(map[string]store.ChannelSet{
		"1":  {FetchedAt: time.Now().UTC(), Channels: []domain.Channel{{ID: "c1", Name: "één"}}},
		"99": {FetchedAt: time.Now().UTC(), Channels: []domain.Channel{{ID: "zz", Name: "ghost"}}},
	}))

	result, err := NewOptionsBuilder(st, log.New(io.Discard, "", 0)).Build()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Channels)
}

func TestCustomFields_YAMLShape(t *testing.T) {
	st := store.New(t.TempDir())
	seedCatalog(t, st)

	result, err := NewOptionsBuilder(st, log.New(io.Discard, "", 0)).Build()
	require.NoError(t, err)

	data, err := yaml.Marshal(result.Fields)
	require.NoError(t, err)

	// TRMNL expects select options as single-pair mappings.
	var decoded []map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	require.Len(t, decoded, 5)

	options, ok := decoded[2]["options"].([]interface{})
	require.True(t, ok)
	first, ok := options[0].(map[string]interface{})
	require.True(t, ok)
	require.Len(t, first, 1)
	assert.Equal(t, "c2|Canvas", first["Belgium - Canvas"])

	// Optional selects keep their defaults.
	assert.Equal(t, "24", decoded[3]["default"])
	assert.Equal(t, true, decoded[3]["optional"])
}
