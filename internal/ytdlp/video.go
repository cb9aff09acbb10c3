package ytdlp

import (
	"sort"
	"strings"
)

// Track is one caption track offered for a video.
type Track struct {
	// Lang is the yt-dlp language key, e.g. "fr" or "fr-orig".
	Lang string
	// Name is the human label, e.g. "French" or "French (auto-generated)".
	Name string
	Auto bool
}

// Video is the subset of yt-dlp metadata the harvester uses.
type Video struct {
	ID           string
	Title        string
	UploadDate   string
	AgeLimit     int
	Availability string
	Manual       []Track
	Automatic    []Track
}

// AgeRestricted reports whether metadata marks the video as age gated.
func (v Video) AgeRestricted() bool {
	if v.AgeLimit >= 18 {
		return true
	}
	switch v.Availability {
	case "needs_auth", "subscriber_only", "premium_only":
		return true
	}
	return false
}

// SelectTrack picks the caption track for a language. The first manual track
// whose name starts with displayName wins. When allowAuto is set automatic
// captions are considered next, preferring the original-language track over
// machine translations.
func (v Video) SelectTrack(lang, displayName string, allowAuto bool) (Track, bool) {
	for _, track := range v.Manual {
		if strings.HasPrefix(track.Name, displayName) {
			return track, true
		}
	}
	if !allowAuto {
		return Track{}, false
	}
	for _, key := range []string{lang + "-orig", lang} {
		for _, track := range v.Automatic {
			if track.Lang == key {
				return track, true
			}
		}
	}
	for _, track := range v.Automatic {
		if strings.HasPrefix(track.Name, displayName) {
			return track, true
		}
	}
	return Track{}, false
}

type rawSubtitle struct {
	Ext  string `json:"ext"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

type rawVideo struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	UploadDate        string                   `json:"upload_date"`
	AgeLimit          int                      `json:"age_limit"`
	Availability      string                   `json:"availability"`
	Subtitles         map[string][]rawSubtitle `json:"subtitles"`
	AutomaticCaptions map[string][]rawSubtitle `json:"automatic_captions"`
}

func (r rawVideo) toVideo() Video {
	return Video{
		ID:           r.ID,
		Title:        r.Title,
		UploadDate:   r.UploadDate,
		AgeLimit:     r.AgeLimit,
		Availability: r.Availability,
		Manual:       tracksFrom(r.Subtitles, false),
		Automatic:    tracksFrom(r.AutomaticCaptions, true),
	}
}

func tracksFrom(entries map[string][]rawSubtitle, auto bool) []Track {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		if key == "live_chat" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	tracks := make([]Track, 0, len(keys))
	for _, key := range keys {
		name := key
		for _, format := range entries[key] {
			if format.Name != "" {
				name = format.Name
				break
			}
		}
		tracks = append(tracks, Track{Lang: key, Name: name, Auto: auto})
	}
	return tracks
}
