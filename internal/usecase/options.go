package usecase

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ExcuseMi/trmnl-tv-guide/internal/domain"
	"github.com/ExcuseMi/trmnl-tv-guide/internal/store"
)

const pluginRepoURL = "https://github.com/ExcuseMi/trmnl-tv-guide.plugin"

// OptionsResult carries the generated custom fields and the counts
// shown in the command summary.
type OptionsResult struct {
	Fields    []domain.CustomField
	Countries int
	Covered   int
	Channels  int
}

// OptionsBuilder is the use case for generating the plugin's TRMNL
// custom fields from the cached channel catalog.
type OptionsBuilder struct {
	store  *store.Store
	logger *log.Logger
}

// NewOptionsBuilder creates a new OptionsBuilder instance.
func NewOptionsBuilder(st *store.Store, logger *log.Logger) *OptionsBuilder {
	return &OptionsBuilder{store: st, logger: logger}
}

// Build joins the cached countries and channels into the plugin's
// custom field list. It fails when the catalog has not been fetched yet.
func (b *OptionsBuilder) Build() (*OptionsResult, error) {
	var countries []domain.Country
	var sets map[string]store.ChannelSet

	// Load both cache files concurrently.
	var eg errgroup.Group
	eg.Go(func() error {
		var err error
		countries, _, err = b.store.LoadCountries()
		if errors.Is(err, store.ErrNotCached) {
			return errors.New("no cached countries; run the channels command first")
		}
		return err
	})
	eg.Go(func() error {
		var err error
		sets, err = b.store.LoadChannelSets()
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, errors.New("no cached channels; run the channels command first")
	}

	countryByID := make(map[string]domain.Country, len(countries))
	for _, c := range countries {
		countryByID[c.ID] = c
	}

	var options []domain.SelectOption
	for countryID, set := range sets {
		country, ok := countryByID[countryID]
		if !ok {
			b.logger.Printf("Warning: country ID %s not found in countries data\n", countryID)
			continue
		}
		for _, channel := range set.Channels {
			if channel.ID == "" {
				continue
			}
			options = append(options, domain.SelectOption{
				Label: fmt.Sprintf("%s - %s", country.Label(), channel.Label()),
				Value: fmt.Sprintf("%s|%s", channel.ID, channel.Label()),
			})
		}
	}
	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})
	b.logger.Printf("Generated %d channel options\n", len(options))

	return &OptionsResult{
		Fields:    customFields(options, len(sets)),
		Countries: len(countries),
		Covered:   len(sets),
		Channels:  len(options),
	}, nil
}

// customFields assembles the five fields of options.yml in the order
// the TRMNL configuration page shows them.
func customFields(options []domain.SelectOption, coveredCountries int) []domain.CustomField {
	return []domain.CustomField{
		{
			Keyname:   "about",
			FieldType: "author_bio",
			Name:      "About This Plugin",
			Description: fmt.Sprintf("Display TV program schedules from %d countries with %d channels available.<br /><br />\n",
				coveredCountries, len(options)) +
				"<strong>Features:</strong><br />\n" +
				"● Live TV schedule with current and upcoming programs<br />\n" +
				"● Support for channels from multiple countries<br />\n" +
				"● Highlights currently airing programs<br />\n" +
				"<strong>Setup Requirements:</strong><br />\n" +
				"● Free API key from <a href='https://tv-plan.org/#/apiarea'>TV-Plan.org</a> (takes less than a minute)<br />\n" +
				"● Each channel uses one API call per refresh<br />\n" +
				"● Recommended: 5 channels with hourly refresh or evening-only schedule<br />\n",
			GitHubURL:    pluginRepoURL,
			LearnMoreURL: "https://tv-plan.org/#/apiarea",
		},
		{
			Keyname:     "api_token",
			FieldType:   "string",
			Name:        "TV-Plan API Token",
			Description: `Enter your API token from <a href="https://tv-plan.org/api-v1.php#/apiarea">TV-Plan.org</a>. An API token is required to fetch TV program data.`,
			Placeholder: "Enter your TV-Plan API token",
		},
		{
			Keyname:     "channels",
			FieldType:   "select",
			Name:        fmt.Sprintf("TV Channels: %d", len(options)),
			Description: "Select the TV channels you want to track. Channels are organized by country and sorted alphabetically.",
			Multiple:    true,
			HelpText:    "Use <kbd>⌘</kbd>+<kbd>click</kbd> (Mac) or <kbd>ctrl</kbd>+<kbd>click</kbd> (Windows) to select multiple items. Use <kbd>Shift</kbd>+<kbd>click</kbd> to select a whole range at once.",
			Options:     options,
		},
		{
			Keyname:     "time_format",
			FieldType:   "select",
			Name:        "Time Format",
			Description: "Choose how times are displayed on your TV guide.",
			Options: []domain.SelectOption{
				{Label: "24-hour (23:00)", Value: "24"},
				{Label: "12-hour (11:00 PM)", Value: "12"},
			},
			Default:  "24",
			Optional: true,
		},
		{
			Keyname:     "show_title_bar",
			FieldType:   "select",
			Name:        "Show Title Bar",
			Description: `Display or hide the "TV Guide" title bar at the bottom of the screen.`,
			Options: []domain.SelectOption{
				{Label: "Show", Value: "true"},
				{Label: "Hide", Value: "false"},
			},
			Default:  "true",
			Optional: true,
		},
	}
}
