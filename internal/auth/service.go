// Package auth は認証エンドポイントへのリクエストインターフェースを提供する。
// 登録・ログイン操作と、バックエンドごとのレスポンス形の正規化を担う。
package auth

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/noteman/internal/api"
	"github.com/hitoshi/noteman/internal/model"
	"github.com/hitoshi/noteman/internal/storage"
)

const (
	// minPasswordLength はパスワードの最小文字数。
	minPasswordLength = 6

	// defaultDisplayName はバックエンドがユーザーを返さず、かつ登録時の
	// 表示名も記憶されていない場合に合成されるプロフィールの名前。
	// 接続先バックエンドの既定表示名に合わせている。
	defaultDisplayName = "Usuário"
)

// registerSuccessMessage はサーバーがメッセージを返さなかった場合の既定文言。
const registerSuccessMessage = "登録が完了しました。ログインしてください。"

// Service は認証リクエストインターフェース。
type Service struct {
	client *api.Client
	st     storage.Storage
	logger *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(client *api.Client, st storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		client: client,
		st:     st,
		logger: logger,
	}
}

// registerRequest は登録エンドポイントのリクエストボディ。
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest はログインエンドポイントのリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse は両バックエンドのログインレスポンス形を受け取る。
// トークンは token を優先し accessToken へフォールバック、
// ユーザーは user を優先し usuario へフォールバックする。
type loginResponse struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"accessToken"`
	User        json.RawMessage `json:"user"`
	Usuario     json.RawMessage `json:"usuario"`
}

// Register はユーザー登録を行い、サーバーのメッセージを返す。
// 入力検証はリクエスト送信前に行う。登録ではセッションは確立されない。
// 成功時はバックエンドが名前を返さない場合に備えて表示名をローカルへ保存する。
func (s *Service) Register(ctx context.Context, name, email, password string) (string, error) {
	if name == "" || email == "" || password == "" {
		return "", model.NewValidationError("すべての項目を入力してください。")
	}
	if len([]rune(password)) < minPasswordLength {
		return "", model.NewValidationError("パスワードは6文字以上で入力してください。")
	}

	raw, err := s.client.Post(ctx, "/api/register", registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return "", err
	}

	// 登録に成功したら表示名フォールバックを保存する
	if err := s.st.Set(storage.KeyUserName, name); err != nil {
		return "", err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &resp); err != nil {
			s.logger.Warn("登録レスポンスの解析に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}
	if resp.Message == "" {
		return registerSuccessMessage, nil
	}
	return resp.Message, nil
}

// Login は認証を行い、正規化されたセッションを返す。
// バックエンドがユーザーオブジェクトを返さない場合は、記憶された表示名と
// 送信したメールアドレスからプロフィールを合成する（バックエンド間の
// 非一貫性を隠す挙動で、元の仕様をそのまま保存している）。
// トークンが token / accessToken のどちらにも存在しない場合は
// HTTPエラーとは区別されるローカル失敗を返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("すべての項目を入力してください。")
	}

	raw, err := s.client.Post(ctx, "/api/login", loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return nil, model.NewMissingTokenError()
	}

	user, err := s.normalizeUser(resp, email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ログインに成功しました",
		slog.String("user", user.DisplayName()),
	)

	return &model.Session{Token: token, User: user}, nil
}

// normalizeUser はレスポンス内のユーザーオブジェクトを正規形へ変換する。
// user / usuario のどちらも存在しない場合はプロフィールを合成する。
func (s *Service) normalizeUser(resp loginResponse, email string) (*model.UserProfile, error) {
	rawUser := resp.User
	if len(rawUser) == 0 || string(rawUser) == "null" {
		rawUser = resp.Usuario
	}

	if len(rawUser) == 0 || string(rawUser) == "null" {
		name := defaultDisplayName
		if stored, ok := s.st.Get(storage.KeyUserName); ok && stored != "" {
			name = stored
		}
		return &model.UserProfile{Name: name, Email: email}, nil
	}

	var user model.UserProfile
	if err := json.Unmarshal(rawUser, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
