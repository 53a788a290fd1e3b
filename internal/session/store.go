// Package session は認証セッションの状態管理を提供する。
// トークンとユーザープロフィールをメモリ上に保持し、
// 永続ストレージへ同期的にミラーリングする。
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hitoshi/noteman/internal/model"
	"github.com/hitoshi/noteman/internal/storage"
)

// Store はプロセス全体で共有する認証セッションストア。
// 401フックがリクエスト処理中に状態を書き換えることがあるため、
// 全アクセスをミューテックスで保護する。
type Store struct {
	mu    sync.RWMutex
	token string
	user  *model.UserProfile
	st    storage.Storage
}

// NewStore はStoreの新しいインスタンスを生成する。
// ストレージなしでの利用はプログラミングエラーとして即座にパニックする。
func NewStore(st storage.Storage) *Store {
	if st == nil {
		panic("session: Store はストレージなしで構築できない")
	}
	return &Store{st: st}
}

// Hydrate は永続ストレージからトークンとユーザーを復元する。
// 起動時に一度だけ呼ばれる。保存されたユーザーの解析に失敗した場合は
// セッションを未認証として扱う。
func (s *Store) Hydrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.st.Get(storage.KeyToken)
	if !ok || token == "" {
		return nil
	}

	var user *model.UserProfile
	if raw, ok := s.st.Get(storage.KeyUser); ok && raw != "" {
		user = &model.UserProfile{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			return fmt.Errorf("保存されたユーザープロフィールの解析に失敗しました: %w", err)
		}
	}

	s.token = token
	s.user = user
	return nil
}

// Login はセッションを置き換え、メモリとストレージへ同期的に書き込む。
// ユーザーに名前が無い場合は、登録時に保存された表示名で補完してから保存する。
func (s *Store) Login(token string, user *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user != nil && user.Name == "" {
		if name, ok := s.st.Get(storage.KeyUserName); ok && name != "" {
			u := *user
			u.Name = name
			user = &u
		}
	}

	if err := s.st.Set(storage.KeyToken, token); err != nil {
		return err
	}
	if user != nil {
		raw, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("ユーザープロフィールのエンコードに失敗しました: %w", err)
		}
		if err := s.st.Set(storage.KeyUser, string(raw)); err != nil {
			return err
		}
	}

	s.token = token
	s.user = user
	return nil
}

// Logout はセッションを破棄し、永続ストレージからも削除する。
// 401受信時のグローバルな破棄処理からも呼ばれる。
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = nil
	return s.st.Delete(storage.KeyToken, storage.KeyUser)
}

// Token は現在のトークンを返す。api.TokenProviderを実装する。
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User は現在のユーザープロフィールを返す。未認証の場合はnil。
func (s *Store) User() *model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// IsAuthenticated はトークンが存在するかどうかを返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// RequireAuth は保護された操作の実行前に認証状態を検証するガード。
// 未認証の場合はauthカテゴリのAPIErrorを返し、呼び出し元が
// ログイン誘導を表示する。副作用は持たない。
func (s *Store) RequireAuth() error {
	if !s.IsAuthenticated() {
		return model.NewNotAuthenticatedError()
	}
	return nil
}
