package source

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Classify", t, func() {
		Convey("DASH manifests", func() {
			for _, u := range []string{
				"https://cdn.example.com/v/stream.mpd",
				"https://cdn.example.com/v/STREAM.MPD?token=1",
				"https://manifest.googlevideo.com/api/manifest/dash/id/abc/source/yt",
			} {
				kind, err := Classify(u)
				So(err, ShouldBeNil)
				So(kind, ShouldEqual, DASH)
			}
		})

		Convey("HLS playlists", func() {
			for _, u := range []string{
				"https://cdn.example.com/live/index.m3u8",
				"https://manifest.googlevideo.com/api/manifest/hls_variant/id/abc/file/index.m3u8",
				"https://manifest.googlevideo.com/api/manifest/hls_playlist/id/abc",
				"https://cdn.example.com/play?format=m3u8-aapl",
			} {
				kind, err := Classify(u)
				So(err, ShouldBeNil)
				So(kind, ShouldEqual, HLS)
			}
		})

		Convey("SmoothStreaming manifests", func() {
			for _, u := range []string{
				"https://cdn.example.com/v/movie.ism/manifest",
				"https://cdn.example.com/v/movie.isml",
				"https://cdn.example.com/v/movie.ism/Manifest(format=mpd-time-csf)",
			} {
				kind, err := Classify(u)
				So(err, ShouldBeNil)
				So(kind, ShouldEqual, SmoothStreaming)
			}
		})

		Convey("Progressive files", func() {
			for _, u := range []string{
				"https://rr1.googlevideo.com/videoplayback?itag=243&expire=1",
				"https://cdn.example.com/clip.mp4",
				"https://cdn.example.com/audio.m4a",
				"/storage/videos/clip.webm",
			} {
				kind, err := Classify(u)
				So(err, ShouldBeNil)
				So(kind, ShouldEqual, Progressive)
			}
		})

		Convey("Unrecognized extensions fail", func() {
			_, err := Classify("https://cdn.example.com/file.xyz")
			So(errors.Is(err, ErrUnsupportedContainer), ShouldBeTrue)

			_, err = Classify("")
			So(errors.Is(err, ErrUnsupportedContainer), ShouldBeTrue)
		})
	})
}
