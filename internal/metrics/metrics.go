package metrics

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/texmon-go/texmon/internal/logging"
)

// Prometheus counters and gauges for the protocol engine.
var (
	CommandsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_commands_sent_total",
		Help: "Total commands sent to the panel.",
	})
	CommandRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_command_retries_total",
		Help: "Total command retransmissions after a response timeout.",
	})
	CommandTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_command_timeouts_total",
		Help: "Total commands that exhausted all retries without a response.",
	})
	ResponsesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_responses_matched_total",
		Help: "Total response frames matched to an outstanding command.",
	})
	ResponsesMismatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_responses_mismatched_total",
		Help: "Total response frames rejected for a sequence or command-id mismatch.",
	})
	CRCFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_crc_failures_total",
		Help: "Total frames rejected for a CRC mismatch.",
	})
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_malformed_frames_total",
		Help: "Total frames rejected as structurally invalid (bad start byte, bad length, truncated read).",
	})
	EventsDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "texmon_events_decoded_total",
		Help: "Total Message-frame events decoded, by message type.",
	}, []string{"type"})
	KeepAliveProbes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_keepalive_probes_total",
		Help: "Total GET_DATE_TIME probes sent to reset the panel's idle timeout.",
	})
	SessionReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_session_reconnects_total",
		Help: "Total times the panel connection was re-established.",
	})
	HubDroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_hub_dropped_events_total",
		Help: "Total events dropped by the fan-out hub due to slow subscribers.",
	})
	HubKickedClients = promauto.NewCounter(prometheus.CounterOpts{
		Name: "texmon_hub_kicked_clients_total",
		Help: "Total subscribers disconnected due to the backpressure kick policy.",
	})
	HubActiveClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "texmon_hub_active_clients",
		Help: "Current number of active event subscribers.",
	})
	HubBroadcastFanout = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "texmon_hub_broadcast_fanout",
		Help: "Number of subscribers targeted in the most recent broadcast.",
	})
	HubQueueDepthMax = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "texmon_hub_queue_depth_max",
		Help: "Observed max queued events among subscribers in the last sample.",
	})
	HubQueueDepthAvg = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "texmon_hub_queue_depth_avg",
		Help: "Approximate average queued events per subscriber in the last sample.",
	})
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "texmon_build_info",
		Help: "Build metadata (value is always 1).",
	}, []string{"version", "commit", "date"})
	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "texmon_errors_total",
		Help: "Error counters by subsystem.",
	}, []string{"where"})

	readinessMu sync.RWMutex
	readinessFn func() bool
)

// Error label constants (stable label values to bound cardinality).
const (
	ErrSessionDial    = "session_dial"
	ErrSessionRead    = "session_read"
	ErrSessionWrite   = "session_write"
	ErrEngineLogin    = "engine_login"
	ErrEngineKeepalive = "engine_keepalive"
	ErrRedisSink      = "redis_sink"
)

// StartHTTP serves Prometheus metrics at /metrics and readiness at /ready.
func StartHTTP(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready\n"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		logging.L().Info("metrics_listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L().Error("metrics_http_error", "error", err)
		}
	}()
	return srv
}

// Local mirrored counters, for cheap in-process inspection without scraping.
var (
	localCommandsSent       uint64
	localCommandRetries     uint64
	localCommandTimeouts    uint64
	localResponsesMatched   uint64
	localResponsesMismatched uint64
	localCRCFailures        uint64
	localMalformed          uint64
	localKeepAliveProbes    uint64
	localSessionReconnects  uint64
	localHubDrop            uint64
	localHubKick            uint64
	localHubClients         uint64
	localFanout             uint64
	localErrors             uint64
	localQDMax              uint64
	localQDAvg              uint64
)

// Snapshot is a cheap copy of local counters.
type Snapshot struct {
	CommandsSent        uint64
	CommandRetries      uint64
	CommandTimeouts     uint64
	ResponsesMatched    uint64
	ResponsesMismatched uint64
	CRCFailures         uint64
	Malformed           uint64
	KeepAliveProbes     uint64
	SessionReconnects   uint64
	HubDrops            uint64
	HubKicks            uint64
	HubClients          uint64
	Fanout              uint64
	Errors              uint64
	QueueDepthMax       uint64
	QueueDepthAvg       uint64
}

func Snap() Snapshot {
	return Snapshot{
		CommandsSent:        atomic.LoadUint64(&localCommandsSent),
		CommandRetries:      atomic.LoadUint64(&localCommandRetries),
		CommandTimeouts:     atomic.LoadUint64(&localCommandTimeouts),
		ResponsesMatched:    atomic.LoadUint64(&localResponsesMatched),
		ResponsesMismatched: atomic.LoadUint64(&localResponsesMismatched),
		CRCFailures:         atomic.LoadUint64(&localCRCFailures),
		Malformed:           atomic.LoadUint64(&localMalformed),
		KeepAliveProbes:     atomic.LoadUint64(&localKeepAliveProbes),
		SessionReconnects:   atomic.LoadUint64(&localSessionReconnects),
		HubDrops:            atomic.LoadUint64(&localHubDrop),
		HubKicks:            atomic.LoadUint64(&localHubKick),
		HubClients:          atomic.LoadUint64(&localHubClients),
		Fanout:              atomic.LoadUint64(&localFanout),
		Errors:              atomic.LoadUint64(&localErrors),
		QueueDepthMax:       atomic.LoadUint64(&localQDMax),
		QueueDepthAvg:       atomic.LoadUint64(&localQDAvg),
	}
}

func IncCommandsSent() {
	CommandsSent.Inc()
	atomic.AddUint64(&localCommandsSent, 1)
}

func IncCommandRetries() {
	CommandRetries.Inc()
	atomic.AddUint64(&localCommandRetries, 1)
}

func IncCommandTimeouts() {
	CommandTimeouts.Inc()
	atomic.AddUint64(&localCommandTimeouts, 1)
}

func IncResponsesMatched() {
	ResponsesMatched.Inc()
	atomic.AddUint64(&localResponsesMatched, 1)
}

func IncResponsesMismatched() {
	ResponsesMismatched.Inc()
	atomic.AddUint64(&localResponsesMismatched, 1)
}

func IncCRCFailures() {
	CRCFailures.Inc()
	atomic.AddUint64(&localCRCFailures, 1)
}

func IncMalformed() {
	MalformedFrames.Inc()
	atomic.AddUint64(&localMalformed, 1)
}

func IncEventDecoded(msgType string) {
	EventsDecoded.WithLabelValues(msgType).Inc()
}

func IncKeepAliveProbes() {
	KeepAliveProbes.Inc()
	atomic.AddUint64(&localKeepAliveProbes, 1)
}

func IncSessionReconnects() {
	SessionReconnects.Inc()
	atomic.AddUint64(&localSessionReconnects, 1)
}

func IncHubDrop() {
	HubDroppedEvents.Inc()
	atomic.AddUint64(&localHubDrop, 1)
}

func IncHubKick() {
	HubKickedClients.Inc()
	atomic.AddUint64(&localHubKick, 1)
}

func SetHubClients(n int) {
	HubActiveClients.Set(float64(n))
	atomic.StoreUint64(&localHubClients, uint64(n))
}

func SetBroadcastFanout(n int) {
	HubBroadcastFanout.Set(float64(n))
	atomic.StoreUint64(&localFanout, uint64(n))
}

func IncError(label string) {
	Errors.WithLabelValues(label).Inc()
	atomic.AddUint64(&localErrors, 1)
}

// SetQueueDepth records a snapshot of max and avg queue depth.
func SetQueueDepth(max, avg int) {
	HubQueueDepthMax.Set(float64(max))
	HubQueueDepthAvg.Set(float64(avg))
	atomic.StoreUint64(&localQDMax, uint64(max))
	atomic.StoreUint64(&localQDAvg, uint64(avg))
}

// InitBuildInfo sets the build info gauge and pre-registers error label
// series so the first error of each kind doesn't pay registration latency.
func InitBuildInfo(version, commit, date string) {
	BuildInfo.WithLabelValues(version, commit, date).Set(1)
	for _, lbl := range []string{
		ErrSessionDial, ErrSessionRead, ErrSessionWrite,
		ErrEngineLogin, ErrEngineKeepalive, ErrRedisSink,
	} {
		Errors.WithLabelValues(lbl).Add(0)
	}
}

// SetReadinessFunc registers a function used by /ready and IsReady.
func SetReadinessFunc(fn func() bool) { readinessMu.Lock(); readinessFn = fn; readinessMu.Unlock() }

// IsReady invokes the registered readiness function if present.
func IsReady() bool {
	readinessMu.RLock()
	fn := readinessFn
	readinessMu.RUnlock()
	if fn == nil {
		return true
	}
	return fn()
}

// Ready is a concise alias used at call sites.
func Ready() bool { return IsReady() }
