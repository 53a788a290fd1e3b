// Package api はノートバックエンドへのHTTPクライアントラッパーを提供する。
// ベースURLの付与、ベアラートークンの添付、401レスポンス時の
// セッション破棄フックの呼び出しを担う。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// TokenProvider は現在のセッショントークンを返す狭いインターフェース。
// 実体はセッションストアが担う。トークンが無い場合は空文字を返す。
type TokenProvider interface {
	Token() string
}

// Client はバックエンドAPIのHTTPクライアントラッパー。
// 全リクエストに共通する送信側・受信側の処理を集約する。
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	tokens         TokenProvider
	onUnauthorized func() // 401受信時に呼ばれるフック（アプリシェルが登録する）
}

// NewClient はClientの新しいインスタンスを生成する。
// tokensがnilの場合は常に未認証でリクエストを送る。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, tokens TokenProvider) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		tokens:     tokens,
	}
}

// SetOnUnauthorized は401レスポンス受信時に呼び出されるフックを登録する。
// フックはどの操作が起因であっても無条件に実行される。
// HTTPレイヤーがナビゲーションやストレージへ直接依存しないための仕組み。
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Get はGETリクエストを送信する。
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post はJSONボディ付きのPOSTリクエストを送信する。
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

// Put はJSONボディ付きのPUTリクエストを送信する。
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, body)
}

// Patch はJSONボディ付きのPATCHリクエストを送信する。
func (c *Client) Patch(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPatch, path, body)
}

// Delete はDELETEリクエストを送信する。
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

// do はリクエストの構築・送信・レスポンス処理を行う。
// 送信側: トークンが存在する場合のみAuthorizationヘッダーを付与する。
// 受信側: 401ならフックを呼び出したうえでRequestErrorを返す。
// その他の非2xxはRequestErrorとしてそのまま呼び出し元へ伝播する。リトライはしない。
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("リクエストの送信に失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// 認証拒否はどの操作が起因でも一律にセッションを破棄する
		c.logger.Warn("認証が拒否されました",
			slog.String("method", method),
			slog.String("path", path),
		)
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(respBody),
			Body:       respBody,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("サーバーがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(respBody),
			Body:       respBody,
		}
	}

	if len(respBody) == 0 {
		return nil, nil
	}
	return json.RawMessage(respBody), nil
}
