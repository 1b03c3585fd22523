package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetrics(t *testing.T) {
	Convey("Counters are exposed", t, func() {
		before := testutil.ToFloat64(ResolutionsTotal.WithLabelValues("live", Outcome(nil)))
		ResolutionsTotal.WithLabelValues("live", Outcome(nil)).Inc()
		So(testutil.ToFloat64(ResolutionsTotal.WithLabelValues("live", "ok")), ShouldEqual, before+1)

		FallbackDepth.Observe(4)
		EventsTotal.WithLabelValues("initialized").Inc()

		srv := httptest.NewServer(promhttp.Handler())
		defer srv.Close()

		resp, err := srv.Client().Get(srv.URL)
		So(err, ShouldBeNil)
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		So(err, ShouldBeNil)
		body := string(data)
		So(body, ShouldContainSubstring, "tubelink_resolutions_total")
		So(body, ShouldContainSubstring, "tubelink_fallback_depth_bucket")
		So(body, ShouldContainSubstring, `tubelink_events_total{event="initialized"}`)
	})

	Convey("Outcomes are labeled", t, func() {
		So(Outcome(nil), ShouldEqual, "ok")
		So(Outcome(errors.New("x")), ShouldEqual, "error")
	})
}
