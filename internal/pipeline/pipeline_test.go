package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"subclip/internal/audio"
	"subclip/internal/catalog"
	"subclip/internal/dataset"
	"subclip/internal/journal"
	"subclip/internal/language"
	"subclip/internal/logging"
	"subclip/internal/services"
	"subclip/internal/testsupport"
	"subclip/internal/textfilter"
	"subclip/internal/ytdlp"
)

const threeShortCues = `1
00:00:00,000 --> 00:00:04,000
Bonjour

2
00:00:04,000 --> 00:00:08,000
le monde,

3
00:00:08,000 --> 00:00:12,000
encore !
`

type stubLister struct {
	refs  []catalog.VideoRef
	err   error
	calls int
}

func (s *stubLister) ListVideos(context.Context, string) ([]catalog.VideoRef, error) {
	s.calls++
	return s.refs, s.err
}

type stubRetriever struct {
	videos   map[string]ytdlp.Video
	probeErr map[string]error
	srt      map[string]string
	audioErr error
	probed   []string
}

func (s *stubRetriever) Probe(_ context.Context, id string) (ytdlp.Video, error) {
	s.probed = append(s.probed, id)
	if err := s.probeErr[id]; err != nil {
		return ytdlp.Video{}, err
	}
	if video, ok := s.videos[id]; ok {
		return video, nil
	}
	return ytdlp.Video{ID: id, Title: "video " + id, Manual: []ytdlp.Track{{Lang: "fr", Name: "French"}}}, nil
}

func (s *stubRetriever) DownloadSubtitles(_ context.Context, id string, _ ytdlp.Track, dest string) error {
	content, ok := s.srt[id]
	if !ok {
		content = threeShortCues
	}
	return os.WriteFile(dest, []byte(content), 0o644)
}

func (s *stubRetriever) DownloadAudio(_ context.Context, _ string, _ string, dest string) error {
	if s.audioErr != nil {
		return s.audioErr
	}
	return os.WriteFile(dest, []byte("audio"), 0o644)
}

type stubDecoder struct {
	seconds int
	err     error
}

func (d stubDecoder) Decode(_ context.Context, _ string, rate int) (audio.Signal, error) {
	if d.err != nil {
		return audio.Signal{}, d.err
	}
	samples := make([]float32, d.seconds*rate)
	for i := range samples {
		samples[i] = 0.25
	}
	return audio.Signal{Samples: samples, SampleRate: rate}, nil
}

type fixture struct {
	root      string
	lister    *stubLister
	retriever *stubRetriever
	journal   *journal.Store
	opts      Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithLanguage("fr"))
	f := &fixture{
		root:      cfg.Paths.DataDir,
		lister:    &stubLister{},
		retriever: &stubRetriever{srt: map[string]string{}, probeErr: map[string]error{}},
		journal:   testsupport.MustOpenJournal(t, cfg),
	}
	alphabet := textfilter.NewAlphabet("abcdefghijklmnopqrstuvwxyzàâçéèêëîïôûùüÿœ'")
	f.opts = Options{
		Lang:         "fr",
		NumVideos:    1,
		SampleRate:   16000,
		AudioFormat:  "m4a",
		AutoCaptions: true,
		Filter:       textfilter.New(alphabet, language.Tag("fr")),
		Denylist:     textfilter.NewDenylist(cfg.FillerTokensFor("fr")...),
		Layout:       dataset.Layout{Root: cfg.Paths.DataDir},
		VideosDir:    cfg.Paths.VideosDir,
		LockDir:      filepath.Join(cfg.Paths.StateDir, "locks"),
		Lister:       f.lister,
		Retriever:    f.retriever,
		Decoder:      stubDecoder{seconds: 20},
		Journal:      f.journal,
		Logger:       logging.NewNop(),
	}
	return f
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(f.opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func (f *fixture) layout() dataset.Layout {
	return dataset.Layout{Root: f.root, Lang: "fr"}
}

func TestProcessVideoMergesShortCuesIntoOneClip(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)

	outcome, err := p.ProcessVideo(context.Background(), "chan", "vid1")
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if outcome.State != StateOK || outcome.Samples != 1 || outcome.Seconds != 12 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	layout := f.layout()
	videoDir := layout.VideoDir("chan", "vid1")
	clips, err := dataset.ClipDirs(videoDir)
	if err != nil {
		t.Fatalf("ClipDirs: %v", err)
	}
	if len(clips) != 1 || filepath.Base(clips[0]) != "00:00:00,000-00:00:12,000" {
		t.Fatalf("clips = %v", clips)
	}
	if got := testsupport.ReadText(t, filepath.Join(clips[0], dataset.ClipTextFile)); got != "bonjour le monde encore" {
		t.Fatalf("clip text = %q", got)
	}
	sig, err := audio.ReadWAV(filepath.Join(clips[0], dataset.ClipAudioFile))
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if sig.SampleRate != 16000 || len(sig.Samples) != 12*16000+1 {
		t.Fatalf("clip audio rate=%d len=%d", sig.SampleRate, len(sig.Samples))
	}

	for _, name := range []string{dataset.SubtitleFile, dataset.AudioFileName("m4a")} {
		if _, err := os.Stat(filepath.Join(videoDir, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", name, err)
		}
	}

	metric := testsupport.ReadText(t, layout.MetricPath("chan"))
	want := `{"download": 1, "success": 1, "samples": 1, "total_time": 12, "avg_time": 12.0}`
	if metric != want {
		t.Fatalf("metric = %s, want %s", metric, want)
	}
	if got := testsupport.ReadText(t, layout.LogPath("chan")); got != ytdlp.WatchURL("vid1")+": OK\n" {
		t.Fatalf("log = %q", got)
	}
}

func TestProcessVideoSkipsFillerAndEmptySegments(t *testing.T) {
	f := newFixture(t)
	f.retriever.srt["vid1"] = `1
00:00:00,000 --> 00:00:11,000
[Musique]

2
00:00:11,000 --> 00:00:22,000
♪ ♪

3
00:00:22,000 --> 00:00:25,000
trop court
`
	f.opts.Decoder = stubDecoder{seconds: 30}
	p := f.pipeline(t)

	outcome, err := p.ProcessVideo(context.Background(), "chan", "vid1")
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if outcome.State != StateOK || outcome.Samples != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	want := map[SkipReason]int{SkipFiller: 1, SkipEmpty: 1, SkipShort: 1}
	for reason, n := range want {
		if outcome.Skipped[reason] != n {
			t.Fatalf("skipped[%s] = %d, want %d (all %v)", reason, outcome.Skipped[reason], n, outcome.Skipped)
		}
	}
	metric := testsupport.ReadText(t, f.layout().MetricPath("chan"))
	if metric != `{"download": 1, "success": 1, "samples": 0, "total_time": 0, "avg_time": 0}` {
		t.Fatalf("metric = %s", metric)
	}
}

func TestProcessVideoFailureStates(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		state   State
		logLine string
	}{
		{
			name: "age restricted",
			setup: func(f *fixture) {
				f.retriever.probeErr["vid1"] = services.Wrap(services.ErrAgeRestricted, "retrieve", "probe", "sign in to confirm your age", nil)
			},
			state:   StateAgeRestricted,
			logLine: ytdlp.WatchURL("vid1") + ": age restricted, ",
		},
		{
			name: "no caption track",
			setup: func(f *fixture) {
				f.retriever.videos = map[string]ytdlp.Video{"vid1": {ID: "vid1", Manual: []ytdlp.Track{{Lang: "en", Name: "English"}}}}
				f.opts.AutoCaptions = false
			},
			state:   StateNoSubtitles,
			logLine: ytdlp.WatchURL("vid1") + ": no subtitles",
		},
		{
			name: "empty subtitle file",
			setup: func(f *fixture) {
				f.retriever.srt["vid1"] = ""
			},
			state:   StateNoSubtitles,
			logLine: ytdlp.WatchURL("vid1") + ": no subtitles",
		},
		{
			name: "audio download fails",
			setup: func(f *fixture) {
				f.retriever.audioErr = services.Wrap(services.ErrRetrieval, "retrieve", "audio", "HTTP Error 403", nil)
			},
			state:   StateRetrievalFailed,
			logLine: ytdlp.WatchURL("vid1") + ": retrieval error, ",
		},
		{
			name: "decode fails",
			setup: func(f *fixture) {
				f.opts.Decoder = stubDecoder{err: errors.New("invalid data")}
			},
			state:   StateRetrievalFailed,
			logLine: ytdlp.WatchURL("vid1") + ": retrieval error, ",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(f)
			p := f.pipeline(t)
			if err := f.journal.StartRun(context.Background(), journal.Run{ID: p.RunID(), Lang: "fr", StartedAt: time.Now()}); err != nil {
				t.Fatalf("StartRun: %v", err)
			}

			outcome, err := p.ProcessVideo(context.Background(), "chan", "vid1")
			if err != nil {
				t.Fatalf("ProcessVideo: %v", err)
			}
			if outcome.State != tc.state {
				t.Fatalf("state = %s, want %s (err %v)", outcome.State, tc.state, outcome.Err)
			}
			layout := f.layout()
			if _, err := os.Stat(layout.VideoDir("chan", "vid1")); !os.IsNotExist(err) {
				t.Fatalf("expected video dir removed, stat err=%v", err)
			}
			logText := testsupport.ReadText(t, layout.LogPath("chan"))
			if !strings.HasPrefix(logText, tc.logLine) {
				t.Fatalf("log = %q, want prefix %q", logText, tc.logLine)
			}
			metric := testsupport.ReadText(t, layout.MetricPath("chan"))
			if metric != `{"download": 1, "success": 0, "samples": 0, "total_time": 0, "avg_time": 0}` {
				t.Fatalf("metric = %s", metric)
			}

			attempts, err := f.journal.Attempts(context.Background(), journal.Filter{Lang: "fr"})
			if err != nil {
				t.Fatalf("Attempts: %v", err)
			}
			if len(attempts) != 1 || attempts[0].State != tc.state.journalState() || attempts[0].Error == "" {
				t.Fatalf("attempts = %+v", attempts)
			}
		})
	}
}

func TestProcessVideoKeepsCompleteClips(t *testing.T) {
	f := newFixture(t)
	layout := f.layout()
	videoDir := layout.VideoDir("chan", "vid1")
	complete := filepath.Join(videoDir, "00:00:00,000-00:00:12,000")
	if err := dataset.WriteClip(complete, "deja la", make([]float32, 160), 16000); err != nil {
		t.Fatalf("WriteClip: %v", err)
	}
	incomplete := filepath.Join(videoDir, "00:00:12,000-00:00:24,000")
	testsupport.WriteText(t, filepath.Join(incomplete, dataset.ClipTextFile), "coupe")
	testsupport.WriteText(t, filepath.Join(videoDir, dataset.SubtitleFile), "stale")
	p := f.pipeline(t)
	if err := f.journal.StartRun(context.Background(), journal.Run{ID: p.RunID(), Lang: "fr", StartedAt: time.Now()}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	outcome, err := p.ProcessVideo(context.Background(), "chan", "vid1")
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if outcome.State != StateHarvested || outcome.Samples != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(f.retriever.probed) != 0 {
		t.Fatalf("expected no download, probed %v", f.retriever.probed)
	}
	if got := testsupport.ReadText(t, filepath.Join(complete, dataset.ClipTextFile)); got != "deja la" {
		t.Fatalf("complete clip text = %q", got)
	}
	if _, err := audio.ReadWAV(filepath.Join(complete, dataset.ClipAudioFile)); err != nil {
		t.Fatalf("complete clip audio: %v", err)
	}
	for _, gone := range []string{incomplete, filepath.Join(videoDir, dataset.SubtitleFile)} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", gone, err)
		}
	}

	metric := testsupport.ReadText(t, layout.MetricPath("chan"))
	if metric != `{"download": 1, "success": 0, "samples": 0, "total_time": 0, "avg_time": 0}` {
		t.Fatalf("metric = %s", metric)
	}
	if got := testsupport.ReadText(t, layout.LogPath("chan")); got != ytdlp.WatchURL("vid1")+": already harvested\n" {
		t.Fatalf("log = %q", got)
	}
	attempts, err := f.journal.Attempts(context.Background(), journal.Filter{Lang: "fr"})
	if err != nil {
		t.Fatalf("Attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].State != journal.StateHarvested || attempts[0].Failed() {
		t.Fatalf("attempts = %+v", attempts)
	}
}

func TestProcessVideoSkipsJournaledVideo(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t)
	if err := f.journal.StartRun(context.Background(), journal.Run{ID: p.RunID(), Lang: "fr", StartedAt: time.Now()}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if _, err := p.ProcessVideo(context.Background(), "chan", "vid1"); err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if err := os.RemoveAll(f.layout().VideoDir("chan", "vid1")); err != nil {
		t.Fatal(err)
	}

	f.retriever.probed = nil
	outcome, err := p.ProcessVideo(context.Background(), "chan", "vid1")
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if outcome.State != StateHarvested || len(f.retriever.probed) != 0 {
		t.Fatalf("outcome %+v probed %v", outcome, f.retriever.probed)
	}
	metric := testsupport.ReadText(t, f.layout().MetricPath("chan"))
	if metric != `{"download": 2, "success": 1, "samples": 1, "total_time": 12, "avg_time": 12.0}` {
		t.Fatalf("metric = %s", metric)
	}
}

func TestProcessVideoSkipsSegmentsPastAudioEnd(t *testing.T) {
	f := newFixture(t)
	f.retriever.srt["vid1"] = `1
00:00:00,000 --> 00:00:12,000
bonjour le monde

2
00:00:12,000 --> 00:00:24,000
encore une fois
`
	f.opts.Decoder = stubDecoder{seconds: 10}
	p := f.pipeline(t)

	outcome, err := p.ProcessVideo(context.Background(), "chan", "vid1")
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if outcome.State != StateOK || outcome.Samples != 1 || outcome.Skipped[SkipNoAudio] != 1 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	clips, err := dataset.ClipDirs(f.layout().VideoDir("chan", "vid1"))
	if err != nil {
		t.Fatalf("ClipDirs: %v", err)
	}
	if len(clips) != 1 || filepath.Base(clips[0]) != "00:00:00,000-00:00:12,000" {
		t.Fatalf("clips = %v", clips)
	}
}

func TestRunAccumulatesMetricAcrossVideos(t *testing.T) {
	f := newFixture(t)
	f.lister.refs = []catalog.VideoRef{
		{UploadDate: "20240301", ID: "newer"},
		{UploadDate: "20240101", ID: "older"},
	}
	f.opts.NumVideos = 2
	p := f.pipeline(t)

	summary, err := p.Run(context.Background(), []catalog.Creator{{Channel: "chan"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Videos != 2 || summary.Succeeded != 2 || summary.Samples != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if got := strings.Join(f.retriever.probed, ","); got != "older,newer" {
		t.Fatalf("processing order = %s", got)
	}
	metric := testsupport.ReadText(t, f.layout().MetricPath("chan"))
	want := `{"download": 2, "success": 2, "samples": 2, "total_time": 24, "avg_time": 12.0}`
	if metric != want {
		t.Fatalf("metric = %s, want %s", metric, want)
	}

	last, ok, err := f.journal.LastRun(context.Background(), "fr")
	if err != nil || !ok {
		t.Fatalf("LastRun ok=%v err=%v", ok, err)
	}
	if last.ID != p.RunID() || last.Videos != 2 || last.Samples != 2 {
		t.Fatalf("last run = %+v", last)
	}
}

func TestRunResumesFromDownloadCounter(t *testing.T) {
	f := newFixture(t)
	f.lister.refs = []catalog.VideoRef{
		{UploadDate: "20240301", ID: "newer"},
		{UploadDate: "20240101", ID: "older"},
	}
	creators := []catalog.Creator{{Channel: "chan"}}

	for _, want := range []string{"older", "newer"} {
		f.retriever.probed = nil
		p := f.pipeline(t)
		if _, err := p.Run(context.Background(), creators); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(f.retriever.probed) != 1 || f.retriever.probed[0] != want {
			t.Fatalf("probed = %v, want %s", f.retriever.probed, want)
		}
	}

	f.retriever.probed = nil
	if _, err := f.pipeline(t).Run(context.Background(), creators); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.retriever.probed) != 0 {
		t.Fatalf("expected nothing left to process, probed %v", f.retriever.probed)
	}
}

func TestRunKeepsCountedVideoWhenListingShifts(t *testing.T) {
	f := newFixture(t)
	creators := []catalog.Creator{{Channel: "chan"}}
	f.lister.refs = []catalog.VideoRef{
		{UploadDate: "20240301", ID: "b"},
		{UploadDate: "20240201", ID: "a"},
	}
	if _, err := f.pipeline(t).Run(context.Background(), creators); err != nil {
		t.Fatalf("Run: %v", err)
	}
	videoDir := f.layout().VideoDir("chan", "a")
	before, err := dataset.ClipDirs(videoDir)
	if err != nil || len(before) != 1 {
		t.Fatalf("clips after first run = %v, %v", before, err)
	}

	// An older upload becomes visible, so the window points at "a" again.
	f.lister.refs = append(f.lister.refs, catalog.VideoRef{UploadDate: "20240101", ID: "x"})
	f.retriever.probed = nil
	if _, err := f.pipeline(t).Run(context.Background(), creators); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(f.retriever.probed) != 0 {
		t.Fatalf("expected counted video to be skipped, probed %v", f.retriever.probed)
	}
	after, err := dataset.ClipDirs(videoDir)
	if err != nil || len(after) != len(before) || after[0] != before[0] {
		t.Fatalf("clips after second run = %v, %v", after, err)
	}
	metric := testsupport.ReadText(t, f.layout().MetricPath("chan"))
	if metric != `{"download": 2, "success": 1, "samples": 1, "total_time": 12, "avg_time": 12.0}` {
		t.Fatalf("metric = %s", metric)
	}
}

func TestRunSkipsChannelWithCorruptMetric(t *testing.T) {
	f := newFixture(t)
	f.lister.refs = []catalog.VideoRef{{UploadDate: "20240101", ID: "only"}}
	metricPath := f.layout().MetricPath("chan")
	testsupport.WriteText(t, metricPath, "{\"download\": ")

	summary, err := f.pipeline(t).Run(context.Background(), []catalog.Creator{{Channel: "chan"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Videos != 0 || len(f.retriever.probed) != 0 {
		t.Fatalf("summary = %+v probed = %v", summary, f.retriever.probed)
	}
	if got := testsupport.ReadText(t, metricPath); got != "{\"download\": " {
		t.Fatalf("corrupt metric was rewritten: %q", got)
	}
}

func TestRunHonoursDateCutoff(t *testing.T) {
	f := newFixture(t)
	f.lister.refs = []catalog.VideoRef{
		{UploadDate: "20240301", ID: "newer"},
		{UploadDate: "20230101", ID: "ancient"},
	}
	f.opts.NumVideos = 5
	p := f.pipeline(t)

	if _, err := p.Run(context.Background(), []catalog.Creator{{Channel: "chan", DateAfter: "20240101"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(f.retriever.probed, ","); got != "newer" {
		t.Fatalf("probed = %s", got)
	}
}

func TestRunFallsBackToCachedListing(t *testing.T) {
	f := newFixture(t)
	f.lister.refs = []catalog.VideoRef{{UploadDate: "20240101", ID: "only"}}
	creators := []catalog.Creator{{Channel: "chan"}}
	if _, _, _, err := f.pipeline(t).Pending(context.Background(), creators[0]); err != nil {
		t.Fatalf("Pending: %v", err)
	}

	f.lister.refs = nil
	f.lister.err = services.Wrap(services.ErrRetrieval, "list", "channel", "network down", nil)
	pending, _, total, err := f.pipeline(t).Pending(context.Background(), creators[0])
	if err != nil {
		t.Fatalf("Pending with cache: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].ID != "only" {
		t.Fatalf("pending = %v total = %d", pending, total)
	}
}

func TestRunSkipsCreatorWhenListingFails(t *testing.T) {
	f := newFixture(t)
	f.opts.VideosDir = ""
	f.lister.err = errors.New("channel not found")

	summary, err := f.pipeline(t).Run(context.Background(), []catalog.Creator{{Channel: "a"}, {Channel: "b"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Creators != 2 || summary.Videos != 0 || f.lister.calls != 2 {
		t.Fatalf("summary = %+v calls = %d", summary, f.lister.calls)
	}
}

func TestRunRejectsConcurrentHarvest(t *testing.T) {
	f := newFixture(t)
	if err := os.MkdirAll(f.opts.LockDir, 0o755); err != nil {
		t.Fatal(err)
	}
	held := flock.New(filepath.Join(f.opts.LockDir, "harvest-fr.lock"))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	_, err := f.pipeline(t).Run(context.Background(), []catalog.Creator{{Channel: "chan"}})
	if err == nil || !strings.Contains(err.Error(), "another harvest") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	f := newFixture(t)
	bad := f.opts
	bad.Lang = ""
	if _, err := New(bad); err == nil {
		t.Fatal("expected error for missing language")
	}
	bad = f.opts
	bad.Decoder = nil
	if _, err := New(bad); err == nil {
		t.Fatal("expected error for missing decoder")
	}
	p := f.pipeline(t)
	if p.RunID() == "" {
		t.Fatal("expected generated run id")
	}
}
