// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, notes, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeMissingToken     = "MISSING_TOKEN"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeNoteNotFound     = "NOTE_NOT_FOUND"
)

// NewValidationError は入力検証エラーを生成する。
// ネットワークリクエストを送信する前に検出される。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewMissingTokenError はログインレスポンスにトークンが含まれない場合の
// エラーを生成する。HTTPエラーとは区別されるローカル失敗。
func NewMissingTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingToken,
		Message:  "サーバーからトークンが返されませんでした。",
		Category: "auth",
		Action:   "バックエンドの設定を確認してください。",
	}
}

// NewNotAuthenticatedError は未認証状態で保護された操作を実行しようとした
// 場合のエラーを生成する。
func NewNotAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthenticated,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "noteman login でログインしてください。",
	}
}

// NewNoteNotFoundError はノートが見つからない場合のエラーを生成する。
func NewNoteNotFoundError(noteID string) *APIError {
	return &APIError{
		Code:     ErrCodeNoteNotFound,
		Message:  fmt.Sprintf("指定されたノートが見つかりません: %s", noteID),
		Category: "notes",
		Action:   "ノートIDを確認してください。",
	}
}
