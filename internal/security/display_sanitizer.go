// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DisplaySanitizer はサーバーから返されたノートのタイトルと本文を
// ターミナルへ表示する前にサニタイズする。バックエンドはユーザー入力を
// そのまま保存して返すため、HTMLタグや埋め込みマークアップを
// bluemondayの許可リストベースのポリシーで除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DisplaySanitizer はターミナル表示用のテキストサニタイズ機能のインターフェース。
type DisplaySanitizer interface {
	// Sanitize は入力からすべてのマークアップを除去したテキストを返す。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// displaySanitizer はDisplaySanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type displaySanitizer struct {
	policy *bluemonday.Policy
}

// NewDisplaySanitizer はDisplaySanitizerの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しないため、テキストのみが残る。
func NewDisplaySanitizer() *displaySanitizer {
	return &displaySanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのマークアップを除去したテキストを返す。
func (s *displaySanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}
