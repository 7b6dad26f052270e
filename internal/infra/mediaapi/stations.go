package mediaapi

import (
	"github.com/mhilario/cassette-player-backend/internal/domain/media"
)

// fallbackStations is served when the radio endpoint is unreachable so
// the radio tab never comes up empty.
var fallbackStations = []media.Item{
	{
		ID:        "radio-paradise",
		Title:     "Radio Paradise",
		Artist:    "Radio Stream",
		Album:     "FM",
		SourceURL: "https://stream.radioparadise.com/aac-128",
		Kind:      media.KindAudio,
		Format:    media.FormatStream,
	},
	{
		ID:        "soma-groove",
		Title:     "SomaFM Groove Salad",
		Artist:    "Radio Stream",
		Album:     "FM",
		SourceURL: "https://ice1.somafm.com/groovesalad-128-aac",
		Kind:      media.KindAudio,
		Format:    media.FormatStream,
	},
	{
		ID:        "soma-indie",
		Title:     "SomaFM Indie Pop Rocks",
		Artist:    "Radio Stream",
		Album:     "FM",
		SourceURL: "https://ice1.somafm.com/indiepop-128-aac",
		Kind:      media.KindAudio,
		Format:    media.FormatStream,
	},
	{
		ID:        "fip",
		Title:     "FIP",
		Artist:    "Radio Stream",
		Album:     "FM",
		SourceURL: "https://icecast.radiofrance.fr/fip-hifi.aac",
		Kind:      media.KindAudio,
		Format:    media.FormatStream,
	},
}

// FallbackStations returns a copy of the built-in station list.
func FallbackStations() []media.Item {
	out := make([]media.Item, len(fallbackStations))
	copy(out, fallbackStations)
	return out
}
