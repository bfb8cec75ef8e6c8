package catalog

import (
	"context"

	"github.com/rs/zerolog/log"

	"songbook/models"
	"songbook/query"
)

// DemoSongs is the sample catalogue loaded by cmd/seed.
var DemoSongs = []models.SongInput{
	{Title: "Neon Mirage", Artist: "Aurora Bloom", Album: "Midnight Canvas", Genre: "Synthwave"},
	{Title: "Chromatic Dreams", Artist: "Aurora Bloom", Album: "Electric Pulse", Genre: "Indie Pop"},
	{Title: "Skyline Reverie", Artist: "Aurora Bloom", Album: "City Lights", Genre: "Ambient"},
	{Title: "Pulse Runner", Artist: "Neon Drift", Album: "Electric Pulse", Genre: "Synthwave"},
	{Title: "Strobe Horizon", Artist: "Neon Drift", Album: "Waves of Glass", Genre: "Alternative Rock"},
	{Title: "Static Love", Artist: "Neon Drift", Album: "Celestial Lines", Genre: "Indie Pop"},
	{Title: "Rainy Avenue", Artist: "Echo Street", Album: "City Lights", Genre: "Jazz Fusion"},
	{Title: "Late Night Signals", Artist: "Echo Street", Album: "Midnight Canvas", Genre: "Alternative Rock"},
	{Title: "Concrete Lanterns", Artist: "Echo Street", Album: "Electric Pulse", Genre: "Indie Pop"},
	{Title: "Satin Sunsets", Artist: "Velvet Horizon", Album: "Waves of Glass", Genre: "Ambient"},
	{Title: "Golden Paradox", Artist: "Velvet Horizon", Album: "Celestial Lines", Genre: "Jazz Fusion"},
	{Title: "Ivory Echo", Artist: "Velvet Horizon", Album: "City Lights", Genre: "Synthwave"},
	{Title: "Tidal Bloom", Artist: "Solaris Tide", Album: "Celestial Lines", Genre: "Ambient"},
	{Title: "Luminary Drift", Artist: "Solaris Tide", Album: "Waves of Glass", Genre: "Jazz Fusion"},
	{Title: "Orbital Trails", Artist: "Solaris Tide", Album: "Midnight Canvas", Genre: "Alternative Rock"},
}

// Seed inserts songs when the catalogue is empty and returns how many were
// inserted. A catalogue that already holds songs is left alone.
func (s *Service) Seed(ctx context.Context, songs []models.SongInput) (int, error) {
	total, err := s.store.Count(ctx, query.All())
	if err != nil {
		return 0, storeErr("count", err)
	}
	if total > 0 {
		log.Info().Int64("existing", total).Msg("Catalogue not empty, skipping seed")
		return 0, nil
	}

	for i, in := range songs {
		if _, err := s.Create(ctx, in); err != nil {
			return i, err
		}
	}
	return len(songs), nil
}
