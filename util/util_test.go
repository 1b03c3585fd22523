package util

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tubelink/tubelink/filesystem"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "segment", "segments"), ShouldEqual, "1 segment")
		So(Quantify(2, "segment", "segments"), ShouldEqual, "2 segments")
		So(Quantify(0, "segment", "segments"), ShouldEqual, "0 segments")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("history file"), ShouldEqual, "History file")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Delete", t, func() {
		filesystem.SetMemMapFs()
		Reset(filesystem.SetOsFs)

		dir := filepath.Join("tmp", "tubelink")
		So(filesystem.API().MkdirAll(dir, 0o755), ShouldBeNil)
		So(filesystem.API().WriteFile(filepath.Join(dir, "mpv.sock"), nil, 0o600), ShouldBeNil)

		Convey("Should remove a directory recursively", func() {
			So(Delete(dir), ShouldBeNil)
			exists, _ := filesystem.API().Exists(dir)
			So(exists, ShouldBeFalse)
		})

		Convey("Should ignore a missing path", func() {
			So(Delete(filepath.Join(dir, "missing")), ShouldBeNil)
		})
	})
}
