package store

import (
	"context"
	"fmt"

	"github.com/yanizio/streamsite/internal/content"
)

// Seed fills an empty store with the launch content: stream settings, the
// two channels, the default and Halloween themes, and a welcome post.  A
// store that already holds any settings, channels, or themes is left alone.
// It reports whether anything was written.
func Seed(ctx context.Context, s Store) (bool, error) {
	settings, err := s.GetStreamSettings(ctx)
	if err != nil {
		return false, err
	}
	channels, err := s.ListStreamChannels(ctx)
	if err != nil {
		return false, err
	}
	themes, err := s.ListThemes(ctx)
	if err != nil {
		return false, err
	}
	if settings != nil || len(channels) > 0 || len(themes) > 0 {
		return false, nil
	}

	if _, err := s.PutStreamSettings(ctx, content.StreamSettingData{
		FeaturedChannel: "rennsz",
		AutoDetect:      true,
		OfflineBehavior: content.DefaultOfflineBehavior,
	}); err != nil {
		return false, fmt.Errorf("seed stream settings: %w", err)
	}

	for _, c := range []content.StreamChannelData{
		{
			Name:        "rennsz",
			URL:         "https://www.twitch.tv/rennsz",
			DisplayName: "RENNSZ - IRL Adventures",
			Type:        "IRL",
			Schedule:    "Streams every Tue, Thu, Sat",
			IsMain:      true,
		},
		{
			Name:        "rennszino",
			URL:         "https://www.twitch.tv/rennszino",
			DisplayName: "RENNSZINO - Gaming & Chill",
			Type:        "Gaming",
			Schedule:    "Streams every Mon, Wed, Sun",
		},
	} {
		if _, err := s.CreateStreamChannel(ctx, c); err != nil {
			return false, fmt.Errorf("seed channel %s: %w", c.Name, err)
		}
	}

	for _, t := range []content.ThemeData{
		{
			Name:            "Premium Dark",
			PrimaryColor:    "#111111",
			SecondaryColor:  "#222222",
			AccentColor:     "#D4AF37",
			TextColor:       "#FFFFFF",
			BackgroundType:  "image",
			BackgroundValue: "https://images.unsplash.com/photo-1533134486753-c833f0ed4866",
			HeadingFont:     "Montserrat",
			BodyFont:        "Poppins",
			IsActive:        true,
		},
		{
			Name:            "Halloween Theme",
			PrimaryColor:    "#000000",
			SecondaryColor:  "#1a1a1a",
			AccentColor:     "#ff6600",
			TextColor:       "#FFFFFF",
			BackgroundType:  "gradient",
			BackgroundValue: "linear-gradient(90deg, #000000, #300000, #000000)",
			HeadingFont:     "Montserrat",
			BodyFont:        "Poppins",
		},
	} {
		if _, err := s.CreateTheme(ctx, t); err != nil {
			return false, fmt.Errorf("seed theme %s: %w", t.Name, err)
		}
	}

	if _, err := s.CreateAnnouncement(ctx, content.AnnouncementData{
		Title: "Welcome to the Official RENNSZ Website",
		Content: "Welcome to the official RENNSZ website!  Join us for our weekly IRL " +
			"stream this Saturday at 3PM EST where we'll be exploring downtown with some " +
			"special guests!",
		Featured: true,
	}); err != nil {
		return false, fmt.Errorf("seed announcement: %w", err)
	}
	return true, nil
}
