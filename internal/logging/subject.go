package logging

import "strings"

// FormatSubject builds the creator/video subject string used in console output.
func FormatSubject(creator, videoID string) string {
	creator = strings.TrimSpace(creator)
	videoID = strings.TrimSpace(videoID)
	switch {
	case creator != "" && videoID != "":
		return creator + "/" + videoID
	case creator != "":
		return creator
	default:
		return videoID
	}
}
