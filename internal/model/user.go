// Package model はドメインモデルを定義する。
package model

import "encoding/json"

// UserProfile はサービス利用ユーザーのプロフィールを表す。
// サーバーの状態を映した非正規化データであり、独立したライフサイクルを持たない。
// バックエンドごとのフィールド名差（id/name と _id/nome）はデコード時に吸収する。
type UserProfile struct {
	ID    string
	Name  string
	Email string
}

// userWire は両バックエンドのレスポンス形を受け取る中間表現。
type userWire struct {
	ID      json.RawMessage `json:"id"`
	MongoID json.RawMessage `json:"_id"`
	Name    string          `json:"name"`
	Nome    string          `json:"nome"`
	Email   string          `json:"email"`
}

// UnmarshalJSON は id / _id、name / nome の揺れを正規形へ変換する。
func (u *UserProfile) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeFlexibleID(w.ID, w.MongoID)
	if err != nil {
		return err
	}

	name := w.Name
	if name == "" {
		name = w.Nome
	}

	u.ID = id
	u.Name = name
	u.Email = w.Email
	return nil
}

// MarshalJSON は正規形（id / name / email）で出力する。
// 永続化ストレージにはこの形で保存される。
func (u UserProfile) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID    string `json:"id,omitempty"`
		Name  string `json:"name,omitempty"`
		Email string `json:"email,omitempty"`
	}{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	})
}

// DisplayName は画面表示用の名前を返す。
// 名前が未設定の場合はメールアドレスへフォールバックする。
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
