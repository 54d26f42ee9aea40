// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラー、ミドルウェア、エクスポートシンクから利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestDuration(duration time.Duration)
	RecordUserCreated()
	RecordUserDeleted()
	RecordExportSuccess()
	RecordExportFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestDuration prometheus.Histogram
	usersCreated    prometheus.Counter
	usersDeleted    prometheus.Counter
	exportSuccess   prometheus.Counter
	exportFail      prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "userman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "userman_request_duration_seconds",
			Help:    "HTTPリクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		usersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userman_users_created_total",
			Help: "作成されたユーザーの合計数",
		}),
		usersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userman_users_deleted_total",
			Help: "削除されたユーザーの合計数",
		}),
		exportSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userman_export_success_total",
			Help: "CSVスナップショットエクスポート成功の合計数",
		}),
		exportFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "userman_export_fail_total",
			Help: "CSVスナップショットエクスポート失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestDuration,
		c.usersCreated,
		c.usersDeleted,
		c.exportSuccess,
		c.exportFail,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestDuration はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestDuration(duration time.Duration) {
	c.requestDuration.Observe(duration.Seconds())
}

// RecordUserCreated はユーザー作成を記録する。
func (c *Collector) RecordUserCreated() {
	c.usersCreated.Inc()
}

// RecordUserDeleted はユーザー削除を記録する。
func (c *Collector) RecordUserDeleted() {
	c.usersDeleted.Inc()
}

// RecordExportSuccess はエクスポート成功を記録する。
func (c *Collector) RecordExportSuccess() {
	c.exportSuccess.Inc()
}

// RecordExportFailure はエクスポート失敗を記録する。
func (c *Collector) RecordExportFailure() {
	c.exportFail.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
