package printer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/logrusorgru/aurora"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"

	"github.com/batchcorp/mirror/options"
	"github.com/batchcorp/mirror/point"
)

// Error is a convenience function for printing errors.
func Error(str string) {
	fmt.Printf("%s: %s\n", aurora.Red(">> ERROR"), str)
}

// Print is a convenience function for printing regular output.
func Print(str string) {
	fmt.Printf("%s\n", str)
}

func PrintLogo() {
	logo := `
█▀▄▀█ █ █▀█ █▀█ █▀█ █▀█
█ ▀ █ █ █▀▄ █▀▄ █▄█ █▀▄
`

	logrus.Info(logo)
}

func PrintServerOptions(opts *options.Options) {
	if opts == nil {
		return
	}

	logrus.Info("----------------------------------------------------------------")
	logrus.Info("> Server Settings")
	logrus.Info("----------------------------------------------------------------")
	logrus.Info("")
	logrus.Infof("- %-24s%-6s", "ListenAddress", opts.ListenAddress())
	logrus.Infof("- %-24s%-6v", "LocalOnly", opts.LocalOnly)
	logrus.Infof("- %-24s%-6s", "ReadTimeout", opts.ReadTimeout)
	logrus.Infof("- %-24s%-6s", "APIListenAddress", orNone(opts.APIListenAddress))
	logrus.Infof("- %-24s%-6s", "StatsReportInterval", opts.StatsReportInterval)
	logrus.Infof("- %-24s%-6s", "StatsFlushInterval", opts.StatsFlushInterval)
	logrus.Infof("- %-24s%-6s", "StatsDatabasePath", orNone(opts.StatsDatabasePath))
	logrus.Infof("- %-24s%-6s", "EventsBackend", opts.EventsBackend)
	logrus.Info("")

	switch opts.EventsBackend {
	case options.EventsBackendNATS:
		printEventsHeader("NATS", opts)
		logrus.Infof("- %-24s%-6v", "URL", opts.NATSURL)
	case options.EventsBackendKafka:
		printEventsHeader("Kafka", opts)
		logrus.Infof("- %-24s%-6v", "Brokers", strings.Join(opts.KafkaAddress, ", "))
	case options.EventsBackendRedis:
		printEventsHeader("Redis", opts)
		logrus.Infof("- %-24s%-6v", "Address", opts.RedisAddress)
		logrus.Infof("- %-24s%-6v", "Database", opts.RedisDatabase)
	case options.EventsBackendMQTT:
		printEventsHeader("MQTT", opts)
		logrus.Infof("- %-24s%-6v", "Address", opts.MQTTAddress)
		logrus.Infof("- %-24s%-6v", "ClientID", opts.MQTTClientID)
		logrus.Infof("- %-24s%-6v", "QoS", opts.MQTTQoS)
	case options.EventsBackendRabbitMQ:
		printEventsHeader("RabbitMQ", opts)
		logrus.Infof("- %-24s%-6v", "Exchange", opts.RabbitExchange)
	default:
		return
	}

	logrus.Info("")
}

func printEventsHeader(name string, opts *options.Options) {
	logrus.Info("----------------------------------------------------------------")
	logrus.Infof("> %s Events Settings", name)
	logrus.Info("----------------------------------------------------------------")
	logrus.Info("")
	logrus.Infof("- %-24s%-6v", "Topic", opts.EventsTopic)
	logrus.Infof("- %-24s%-6v", "Format", opts.EventsFormat)
	logrus.Infof("- %-24s%-6v", "BufferSize", opts.EventsBufferSize)
}

// PrintPoints writes the plain-text publishing point listing served on
// GET /stats
func PrintPoints(w io.Writer, infos []*point.Info) {
	fmt.Fprintf(w, "%d publishing points:\n", len(infos))

	if len(infos) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Path", "State", "Subscribers", "Packets", "Bytes", "Dropped", "Uptime"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, info := range infos {
		table.Append([]string{
			info.Path,
			State(info),
			fmt.Sprintf("%d", info.Subscribers),
			fmt.Sprintf("%d", info.Packets),
			fmt.Sprintf("%d", info.Bytes),
			fmt.Sprintf("%d", info.Dropped),
			time.Since(info.CreatedAt).Truncate(time.Second).String(),
		})
	}

	table.Render()
}

// State describes where a point is in its lifecycle
func State(info *point.Info) string {
	switch {
	case info.Closed:
		return "closed"
	case info.Ready:
		return "live"
	}

	return "waiting"
}

func orNone(s string) string {
	if s == "" {
		return aurora.Gray(12, "NONE").String()
	}

	return s
}
