package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/batchcorp/mirror/packet"
	"github.com/batchcorp/mirror/point"
	"github.com/batchcorp/mirror/stats"
	"github.com/batchcorp/mirror/stats/statsfakes"
	"github.com/batchcorp/mirror/subscriber"
	"github.com/batchcorp/mirror/tools"
)

var _ = Describe("API", func() {
	var (
		registry  *point.Registry
		fakeStats *statsfakes.FakeIStats
		handler   http.Handler
	)

	do := func(method, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

		return rec
	}

	BeforeEach(func() {
		registry = point.NewRegistry(nil)
		fakeStats = &statsfakes.FakeIStats{}

		a := &API{
			Config: &Config{
				ListenAddress: ":0",
				Version:       "1.2.3",
				MirrorID:      "mirror-id",
				Registry:      registry,
				Stats:         fakeStats,
			},
			log: logrus.WithField("pkg", "api_test"),
		}

		handler = a.router()
	})

	Context("Start", func() {
		It("validates config", func() {
			_, err := Start(nil)
			Expect(err).To(HaveOccurred())

			_, err = Start(&Config{Registry: registry})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(ErrMissingListenAddress.Error()))

			_, err = Start(&Config{ListenAddress: ":0"})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(ErrMissingRegistry.Error()))
		})

		It("returns a running server", func() {
			srv, err := Start(&Config{ListenAddress: "127.0.0.1:0", Registry: registry})
			Expect(err).ToNot(HaveOccurred())
			Expect(srv).ToNot(BeNil())
			Expect(srv.Close()).To(Succeed())
		})
	})

	Context("health and version", func() {
		It("reports health", func() {
			rec := do("GET", "/health-check")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"status":"ok"}`))
		})

		It("reports version and mirror ID", func() {
			rec := do("GET", "/version")
			Expect(rec.Code).To(Equal(http.StatusOK))

			resp := &ResponseJSON{}
			Expect(json.Unmarshal(rec.Body.Bytes(), resp)).To(Succeed())
			Expect(resp.Message).To(Equal("batchcorp/mirror 1.2.3"))
			Expect(resp.Values).To(HaveKeyWithValue("mirror_id", "mirror-id"))
		})

		It("serves prometheus metrics", func() {
			rec := do("GET", "/metrics")
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Context("points", func() {
		It("lists points", func() {
			p, _ := registry.Create("/b")
			Expect(p.Accept(packet.New(packet.Header, []byte("h")))).To(Succeed())
			registry.Create("/a")

			rec := do("GET", "/v1/points")
			Expect(rec.Code).To(Equal(http.StatusOK))

			infos := make([]*point.Info, 0)
			Expect(json.Unmarshal(rec.Body.Bytes(), &infos)).To(Succeed())
			Expect(infos).To(HaveLen(2))
			Expect(infos[0].Path).To(Equal("/a"))
			Expect(infos[0].Ready).To(BeFalse())
			Expect(infos[1].Path).To(Equal("/b"))
			Expect(infos[1].Ready).To(BeTrue())
			Expect(infos[1].HeaderSize).To(Equal(1))
		})

		It("lists no points as an empty array", func() {
			rec := do("GET", "/v1/points")
			Expect(rec.Body.String()).To(MatchJSON(`[]`))
		})

		It("gets a nested path", func() {
			registry.Create("/live/channel1")

			rec := do("GET", "/v1/points/live/channel1")
			Expect(rec.Code).To(Equal(http.StatusOK))

			info := &point.Info{}
			Expect(json.Unmarshal(rec.Body.Bytes(), info)).To(Succeed())
			Expect(info.Path).To(Equal("/live/channel1"))
		})

		It("404s on unknown points", func() {
			Expect(do("GET", "/v1/points/nope").Code).To(Equal(http.StatusNotFound))
			Expect(do("DELETE", "/v1/points/nope").Code).To(Equal(http.StatusNotFound))
		})

		It("closes a point and its subscribers", func() {
			p, _ := registry.Create("/live")
			Expect(p.Accept(packet.New(packet.Header, []byte("h")))).To(Succeed())

			conn := tools.NewFakeConn()
			ch, err := subscriber.New(conn, "")
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Admit(ch)).To(Succeed())

			rec := do("DELETE", "/v1/points/live")
			Expect(rec.Code).To(Equal(http.StatusOK))

			Expect(p.IsClosed()).To(BeTrue())
			Expect(ch.Ended()).To(BeTrue())
			Expect(conn.CloseCount()).To(Equal(1))
		})

		It("frees the path for a new publisher right away", func() {
			old, _ := registry.Create("/live")

			Expect(do("DELETE", "/v1/points/live").Code).To(Equal(http.StatusOK))
			Expect(registry.Len()).To(Equal(0))

			next, ok := registry.Create("/live")
			Expect(ok).To(BeTrue())
			Expect(next).ToNot(BeIdenticalTo(old))

			// The old publisher's own teardown leaves the new point alone
			Expect(registry.Release(old)).To(BeFalse())

			got, ok := registry.Get("/live")
			Expect(ok).To(BeTrue())
			Expect(got).To(BeIdenticalTo(next))
		})
	})

	Context("stats", func() {
		It("returns history for a path", func() {
			fakeStats.GetHistoryReturns([]*tstorage.DataPoint{
				{Timestamp: 100, Value: 5},
				{Timestamp: 110, Value: 7},
			}, nil)

			rec := do("GET", "/v1/stats/live?metric=bytes&from=50&to=200")
			Expect(rec.Code).To(Equal(http.StatusOK))

			metric, path, from, to := fakeStats.GetHistoryArgsForCall(0)
			Expect(metric).To(Equal(stats.MetricBytes))
			Expect(path).To(Equal("/live"))
			Expect(from.Unix()).To(Equal(int64(50)))
			Expect(to.Unix()).To(Equal(int64(200)))

			resp := &HistoryResponse{}
			Expect(json.Unmarshal(rec.Body.Bytes(), resp)).To(Succeed())
			Expect(resp.Points).To(HaveLen(2))
			Expect(resp.Points[1].Value).To(Equal(float64(7)))
		})

		It("defaults to the packets metric over the last hour", func() {
			fakeStats.GetHistoryReturns(nil, nil)

			rec := do("GET", "/v1/stats/live")
			Expect(rec.Code).To(Equal(http.StatusOK))

			metric, _, from, to := fakeStats.GetHistoryArgsForCall(0)
			Expect(metric).To(Equal(stats.MetricPackets))
			Expect(to.Sub(from)).To(Equal(DefaultHistoryWindow))
			Expect(to).To(BeTemporally("~", time.Now(), time.Minute))

			resp := &HistoryResponse{}
			Expect(json.Unmarshal(rec.Body.Bytes(), resp)).To(Succeed())
			Expect(resp.Points).To(BeEmpty())
		})

		It("rejects bad ranges", func() {
			Expect(do("GET", "/v1/stats/live?from=abc").Code).To(Equal(http.StatusBadRequest))
			Expect(do("GET", "/v1/stats/live?to=abc").Code).To(Equal(http.StatusBadRequest))
			Expect(do("GET", "/v1/stats/live?from=200&to=100").Code).To(Equal(http.StatusBadRequest))
			Expect(fakeStats.GetHistoryCallCount()).To(Equal(0))
		})

		It("maps unknown metrics to 400", func() {
			fakeStats.GetHistoryReturns(nil, errors.Wrap(stats.ErrUnknownMetric, "'foo'"))

			Expect(do("GET", "/v1/stats/live?metric=foo").Code).To(Equal(http.StatusBadRequest))
		})

		It("maps storage errors to 500", func() {
			fakeStats.GetHistoryReturns(nil, errors.New("boom"))

			Expect(do("GET", "/v1/stats/live").Code).To(Equal(http.StatusInternalServerError))
		})

		It("lists tracked paths with their totals", func() {
			fakeStats.PathsReturns([]string{"/a", "/b"})
			fakeStats.TotalsStub = func(path string) (map[string]float64, error) {
				if path == "/a" {
					return map[string]float64{stats.MetricPackets: 10, stats.MetricSubscribers: 2}, nil
				}

				return map[string]float64{}, nil
			}

			rec := do("GET", "/v1/stats")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`[
				{"path": "/a", "totals": {"packets": 10, "subscribers": 2}},
				{"path": "/b", "totals": {}}
			]`))

			Expect(fakeStats.TotalsCallCount()).To(Equal(2))
			Expect(fakeStats.TotalsArgsForCall(1)).To(Equal("/b"))
		})

		It("maps totals errors to 500", func() {
			fakeStats.PathsReturns([]string{"/a"})
			fakeStats.TotalsReturns(nil, errors.New("boom"))

			Expect(do("GET", "/v1/stats").Code).To(Equal(http.StatusInternalServerError))
		})

		It("404s when stats are disabled", func() {
			a := &API{
				Config: &Config{ListenAddress: ":0", Registry: registry},
				log:    logrus.WithField("pkg", "api_test"),
			}

			for _, target := range []string{"/v1/stats", "/v1/stats/live"} {
				rec := httptest.NewRecorder()
				a.router().ServeHTTP(rec, httptest.NewRequest("GET", target, nil))
				Expect(rec.Code).To(Equal(http.StatusNotFound))
			}
		})
	})
})
