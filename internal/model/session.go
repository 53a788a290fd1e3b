// Package model はドメインモデルを定義する。
package model

// Session はユーザーのログインセッションを表す。
// Tokenが空でないことと認証済みであることは等価。
// Userはハイドレーション完了前に限り一時的にnilとなりうる。
type Session struct {
	Token string
	User  *UserProfile
}

// IsAuthenticated は認証済みかどうかを返す。
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}
