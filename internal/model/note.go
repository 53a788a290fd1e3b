// Package model はドメインモデルを定義する。
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Note はユーザーが所有するノートを表す。
// バックエンドごとにフィールド名が異なるため（PostgreSQL系は id、
// MongoDB系は _id）、デコード時に正規形へ変換する。
type Note struct {
	ID        string
	Title     string
	Content   string
	CreatedAt string // サーバー形式の文字列のまま保持する（未返却の場合は空）
}

// noteWire は両バックエンドのレスポンス形を受け取る中間表現。
type noteWire struct {
	ID        json.RawMessage `json:"id"`
	MongoID   json.RawMessage `json:"_id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	CreatedAt string          `json:"createdAt"`
}

// UnmarshalJSON は id / _id のどちらか一方を識別子として採用し、
// 数値IDは文字列へ正規化する。
func (n *Note) UnmarshalJSON(data []byte) error {
	var w noteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	id, err := decodeFlexibleID(w.ID, w.MongoID)
	if err != nil {
		return err
	}

	n.ID = id
	n.Title = w.Title
	n.Content = w.Content
	n.CreatedAt = w.CreatedAt
	return nil
}

// MarshalJSON は正規形（id フィールド）で出力する。
func (n Note) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string `json:"id,omitempty"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		CreatedAt string `json:"createdAt,omitempty"`
	}{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
	})
}

// decodeFlexibleID は id と _id のうち存在する方を文字列として返す。
// 文字列IDと数値IDの両方を受け付ける（モックおよびPostgreSQL系は数値を返す）。
func decodeFlexibleID(primary, secondary json.RawMessage) (string, error) {
	raw := primary
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = secondary
	}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}

	return "", fmt.Errorf("識別子のデコードに失敗しました: %s", string(raw))
}
