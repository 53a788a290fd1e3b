// Package notes はノートCRUD/検索エンドポイントへのリクエストインターフェースを提供する。
// 各操作はRESTエンドポイントへの1対1のマッピングであり、検索クエリの
// エンコード以外にペイロードの変換は行わない。リトライやバッチ化もしない。
package notes

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/hitoshi/noteman/internal/api"
	"github.com/hitoshi/noteman/internal/model"
)

// Service はノートリクエストインターフェース。
// 失敗はすべてHTTPクライアントラッパーのエラーをそのまま伝播する。
type Service struct {
	client *api.Client
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// notePayload は作成・更新リクエストのボディ。
type notePayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List は認証済みユーザーの全ノートを取得する。
// GET /api/notes
func (s *Service) List(ctx context.Context) ([]model.Note, error) {
	raw, err := s.client.Get(ctx, "/api/notes")
	if err != nil {
		return nil, err
	}
	return decodeNotes(raw)
}

// Search はタイトルでノートを検索する。
// GET /api/notes?title=<クエリ>
// フィルタリングはサーバー側で行われ、結果が空でもエラーにはならない。
func (s *Service) Search(ctx context.Context, title string) ([]model.Note, error) {
	q := url.Values{}
	q.Set("title", title)

	raw, err := s.client.Get(ctx, "/api/notes?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decodeNotes(raw)
}

// Get は指定IDのノートを取得する。
// GET /api/notes/:id
func (s *Service) Get(ctx context.Context, id string) (*model.Note, error) {
	raw, err := s.client.Get(ctx, "/api/notes/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	return decodeNote(raw)
}

// Create は新しいノートを作成する。
// POST /api/notes {title, content}
func (s *Service) Create(ctx context.Context, title, content string) (*model.Note, error) {
	raw, err := s.client.Post(ctx, "/api/notes", notePayload{Title: title, Content: content})
	if err != nil {
		return nil, err
	}
	return decodeNote(raw)
}

// Update はノートの全フィールドを更新する。
// PUT /api/notes/:id {title, content}
func (s *Service) Update(ctx context.Context, id, title, content string) (*model.Note, error) {
	raw, err := s.client.Put(ctx, "/api/notes/"+url.PathEscape(id), notePayload{Title: title, Content: content})
	if err != nil {
		return nil, err
	}
	return decodeNote(raw)
}

// Patch はノートを部分更新する。fieldsは解釈せずそのまま送信する。
// PATCH /api/notes/:id {任意の部分フィールド}
func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (*model.Note, error) {
	raw, err := s.client.Patch(ctx, "/api/notes/"+url.PathEscape(id), fields)
	if err != nil {
		return nil, err
	}
	return decodeNote(raw)
}

// Delete はノートを削除する。
// DELETE /api/notes/:id
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.client.Delete(ctx, "/api/notes/"+url.PathEscape(id))
	return err
}

// decodeNotes はレスポンスボディをノートのスライスへ正規化する。
func decodeNotes(raw json.RawMessage) ([]model.Note, error) {
	if len(raw) == 0 {
		return []model.Note{}, nil
	}
	var result []model.Note
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = []model.Note{}
	}
	return result, nil
}

// decodeNote はレスポンスボディを単一ノートへ正規化する。
// ボディを返さないバックエンドに対してはnilを返す。
func decodeNote(raw json.RawMessage) (*model.Note, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var n model.Note
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
