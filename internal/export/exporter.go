// Package export はユーザーテーブルのCSVスナップショットエクスポートを提供する。
//
// エクスポートシンクは変更系操作の成功後に通知を受け、テーブル全体を
// 固定パスのCSVファイルに書き出す（追記ではなく毎回全上書き）。
// シンクの失敗はコミット済みのストア変更を取り消さず、ログとメトリクスにのみ記録される。
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hitoshi/userman/internal/model"
)

// UserLister はスナップショット対象のユーザー一覧取得インターフェース。
type UserLister interface {
	ListAll(ctx context.Context) ([]*model.User, error)
}

// MetricsRecorder はエクスポート結果のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordExportSuccess()
	RecordExportFailure()
}

// CSVExporter はユーザーテーブルをCSVファイルにスナップショットするエクスポートシンク。
//
// Notifyはバッファ付きチャネルへの非ブロッキング送信であり、
// 処理中に届いた複数の通知は1回のスナップショットに合流する。
type CSVExporter struct {
	lister  UserLister
	path    string
	logger  *slog.Logger
	metrics MetricsRecorder

	notifyCh chan struct{}
}

// NewCSVExporter はCSVExporterを生成する。
// pathにはスナップショットの出力先ファイルパスを指定する。
// metricsはnilを許容する。
func NewCSVExporter(lister UserLister, path string, logger *slog.Logger, metrics MetricsRecorder) *CSVExporter {
	return &CSVExporter{
		lister:   lister,
		path:     path,
		logger:   logger,
		metrics:  metrics,
		notifyCh: make(chan struct{}, 1),
	}
}

// Notify はスナップショットの再同期を要求する。
// バックグラウンドループが処理中の場合は要求を合流させ、呼び出し元をブロックしない。
func (e *CSVExporter) Notify() {
	select {
	case e.notifyCh <- struct{}{}:
	default:
	}
}

// Start は通知を待ち受けてスナップショットを書き出すループを実行する。
// ctxのキャンセルで停止する。バックグラウンドgoroutineで実行すること。
func (e *CSVExporter) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.notifyCh:
			if err := e.Export(ctx); err != nil {
				// エクスポート失敗はストアの結果に影響させない
				e.logger.Error("export snapshot failed",
					slog.String("path", e.path),
					slog.String("error", err.Error()),
				)
				if e.metrics != nil {
					e.metrics.RecordExportFailure()
				}
				continue
			}
			if e.metrics != nil {
				e.metrics.RecordExportSuccess()
			}
		}
	}
}

// Export はテーブル全体のスナップショットを1回書き出す。
// 一時ファイルに書き込んでからrenameするため、出力先に部分的な内容が観測されることはない。
func (e *CSVExporter) Export(ctx context.Context) error {
	users, err := e.lister.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for export: %w", err)
	}

	dir := filepath.Dir(e.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := writeCSV(tmp, users); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, e.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace export file: %w", err)
	}

	e.logger.Info("export snapshot written",
		slog.String("path", e.path),
		slog.Int("users", len(users)),
	)

	return nil
}

// writeCSV はユーザー一覧をCSV形式で書き出す。ヘッダー行を含む。
func writeCSV(f *os.File, users []*model.User) error {
	w := csv.NewWriter(f)

	if err := w.Write([]string{"id", "name", "email"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, u := range users {
		record := []string{strconv.FormatInt(u.ID, 10), u.Name, u.Email}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
