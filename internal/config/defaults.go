package config

const (
	defaultDataDir            = "data"
	defaultAlphabetDir        = "alphabet"
	defaultCreatorsDir        = "youtubers"
	defaultVideosDir          = "videos"
	defaultStateDir           = "~/.local/share/subclip"
	defaultLanguage           = "fr"
	defaultNumVideos          = 1
	defaultMinDurationSeconds = 10
	defaultSampleRate         = 16000
	defaultAudioFormat        = "m4a"
	defaultYtDlpBinary        = "yt-dlp"
	defaultFFmpegBinary       = "ffmpeg"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			AlphabetDir: defaultAlphabetDir,
			CreatorsDir: defaultCreatorsDir,
			VideosDir:   defaultVideosDir,
			StateDir:    defaultStateDir,
		},
		Dataset: Dataset{
			Language:           defaultLanguage,
			NumVideos:          defaultNumVideos,
			MinDurationSeconds: defaultMinDurationSeconds,
			SampleRate:         defaultSampleRate,
			AudioFormat:        defaultAudioFormat,
			AutoCaptions:       true,
		},
		FillerTokens: defaultFillerTokens(),
		Tools: Tools{
			YtDlp:  defaultYtDlpBinary,
			FFmpeg: defaultFFmpegBinary,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultFillerTokens() map[string][]string {
	return map[string][]string{
		"fr": {"musique"},
		"en": {"music"},
		"de": {"musik"},
		"es": {"música"},
	}
}
