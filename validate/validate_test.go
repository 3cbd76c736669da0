package validate

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/batchcorp/mirror/options"
)

func validOptions() *options.Options {
	return &options.Options{
		Host:                "0.0.0.0",
		Port:                5000,
		ReadTimeout:         time.Minute,
		LogLevel:            "info",
		StatsReportInterval: 10 * time.Second,
		StatsFlushInterval:  10 * time.Second,
		StatsRetention:      24 * time.Hour,
		EventsBackend:       options.EventsBackendNone,
		EventsTopic:         "mirror.events",
		EventsBufferSize:    1000,
		NATSURL:             "nats://localhost:4222",
		KafkaAddress:        []string{"localhost:9092"},
		RedisAddress:        "localhost:6379",
		MQTTAddress:         "tcp://localhost:1883",
		RabbitURL:           "amqp://localhost",
	}
}

var _ = Describe("Validate", func() {
	var opts *options.Options

	BeforeEach(func() {
		opts = validOptions()
	})

	Context("ServerOptions", func() {
		It("accepts defaults", func() {
			Expect(ServerOptions(opts)).To(Succeed())
		})

		It("validates missing options", func() {
			Expect(ServerOptions(nil)).To(Equal(ErrMissingOptions))
		})

		It("validates port range", func() {
			opts.Port = 0
			Expect(ServerOptions(opts)).To(Equal(ErrInvalidPort))

			opts.Port = 70000
			Expect(ServerOptions(opts)).To(Equal(ErrInvalidPort))
		})

		It("validates read timeout", func() {
			opts.ReadTimeout = 0
			Expect(ServerOptions(opts)).To(Equal(ErrInvalidReadTimeout))
		})

		It("rejects --quiet together with --debug", func() {
			opts.Quiet = true
			opts.Debug = true
			Expect(ServerOptions(opts)).To(Equal(ErrQuietAndDebug))
		})

		It("wraps stats errors", func() {
			opts.StatsFlushInterval = 0

			err := ServerOptions(opts)
			Expect(err).To(HaveOccurred())
			Expect(errors.Cause(err)).To(Equal(ErrInvalidFlush))
		})
	})

	Context("StatsOptions", func() {
		It("allows disabling the reporter", func() {
			opts.StatsReportInterval = 0
			Expect(StatsOptions(opts)).To(Succeed())
		})

		It("rejects negative intervals", func() {
			opts.StatsReportInterval = -time.Second
			Expect(StatsOptions(opts)).To(Equal(ErrInvalidInterval))
		})

		It("rejects retention shorter than the flush interval", func() {
			opts.StatsRetention = time.Second
			Expect(StatsOptions(opts)).To(Equal(ErrInvalidRetention))
		})

		It("requires the database parent dir to exist", func() {
			opts.StatsDatabasePath = filepath.Join(os.TempDir(), "does-not-exist", "stats")

			err := StatsOptions(opts)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("--stats-database-path"))
		})

		It("accepts a database path in an existing dir", func() {
			opts.StatsDatabasePath = filepath.Join(os.TempDir(), "mirror-stats")
			Expect(StatsOptions(opts)).To(Succeed())
		})
	})

	Context("EventsOptions", func() {
		It("ignores backend settings when disabled", func() {
			opts.EventsTopic = ""
			Expect(EventsOptions(opts)).To(Succeed())
		})

		It("requires a topic", func() {
			opts.EventsBackend = options.EventsBackendNATS
			opts.EventsTopic = ""
			Expect(EventsOptions(opts)).To(Equal(ErrMissingEventsTopic))
		})

		It("requires a positive buffer", func() {
			opts.EventsBackend = options.EventsBackendNATS
			opts.EventsBufferSize = 0
			Expect(EventsOptions(opts)).To(Equal(ErrInvalidBufferSize))
		})

		It("validates per-backend settings", func() {
			opts.EventsBackend = options.EventsBackendNATS
			opts.NATSURL = ""
			Expect(EventsOptions(opts)).To(Equal(ErrMissingNATSURL))

			opts.EventsBackend = options.EventsBackendKafka
			opts.KafkaAddress = nil
			Expect(EventsOptions(opts)).To(Equal(ErrMissingKafkaAddress))

			opts.EventsBackend = options.EventsBackendRedis
			opts.RedisAddress = ""
			Expect(EventsOptions(opts)).To(Equal(ErrMissingRedisAddress))

			opts.EventsBackend = options.EventsBackendMQTT
			opts.MQTTQoS = 3
			Expect(EventsOptions(opts)).To(Equal(ErrInvalidMQTTQoS))

			opts.MQTTAddress = ""
			Expect(EventsOptions(opts)).To(Equal(ErrMissingMQTTAddress))

			opts.EventsBackend = options.EventsBackendRabbitMQ
			opts.RabbitURL = ""
			Expect(EventsOptions(opts)).To(Equal(ErrMissingRabbitURL))
		})

		It("rejects unknown backends", func() {
			opts.EventsBackend = "carrier-pigeon"

			err := EventsOptions(opts)
			Expect(errors.Cause(err)).To(Equal(ErrUnknownBackend))
		})
	})
})
