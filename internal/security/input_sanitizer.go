// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService はリクエストで受け取ったユーザー属性（名前・メールアドレス）から
// HTMLマークアップを除去し、格納値経由のXSSを防止する。
// bluemondayのStrictPolicy（全タグ除去）を使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService は入力文字列のサニタイズ機能のインターフェースを定義する。
// ユーザー属性の保存前に使用される。
type InputSanitizerService interface {
	// Sanitize は入力文字列から全てのHTMLタグを除去し、前後の空白をトリムして返す。
	// プレーンテキストの入力はそのまま返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(input string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全ての要素と属性を除去し、テキストのみを通過させる。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力文字列から全てのHTMLタグを除去して返す。
// bluemondayは残ったテキストを実体参照にエスケープするため、
// 格納値が送信値と一致するようアンエスケープして戻す（タグ除去のみが目的）。
func (s *inputSanitizer) Sanitize(input string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(input)))
}
