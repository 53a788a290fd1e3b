package api

import (
	"encoding/json"
	"fmt"
)

// RequestError は2xx以外のHTTPレスポンスを表すエラー。
// ステータスコードと、サーバーが返したメッセージ（存在する場合）を保持する。
type RequestError struct {
	StatusCode int
	Message    string // レスポンスボディの message または error フィールドの値
	Body       []byte // レスポンスボディ全体（メッセージ抽出に失敗した場合の手がかり）
}

// Error はerrorインターフェースを実装する。
func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("サーバーがステータス %d を返しました: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("サーバーがステータス %d を返しました", e.StatusCode)
}

// errorBody は両バックエンドのエラーレスポンス形を受け取る。
// メッセージは message フィールドを優先し、次に error フィールドを参照する。
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// extractMessage はエラーレスポンスボディからサーバーメッセージを抽出する。
// どちらのフィールドも存在しない場合は空文字を返す。
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	return eb.Error
}
