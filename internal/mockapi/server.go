// Package mockapi は開発モード用のモックバックエンドを提供する。
// 本番バックエンドと同じ3種類のエンドポイント（登録・ログイン・ノートCRUD）を
// 固定フィクスチャとインメモリストアで再現する。本番契約の一部ではない。
//
// 2種類のバックエンドのレスポンス形を設定で切り替えられる:
// postgres形は id/nome を持つユーザーと token を返し、
// mongo形は accessToken のみを返しユーザーオブジェクトを省略する。
// クライアント側の正規化処理の動作確認に使用する。
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Shape はモックが再現するバックエンドのレスポンス形を表す。
type Shape string

const (
	// ShapePostgres は id / name(nome) フィールドを使うバックエンド形。
	ShapePostgres Shape = "postgres"
	// ShapeMongo は _id / accessToken を使うバックエンド形。
	// ログインレスポンスにユーザーオブジェクトを含めない。
	ShapeMongo Shape = "mongo"
)

// MockToken はモックが発行する固定のベアラートークン。
const MockToken = "fake-jwt-token-12345"

// mockUserName はpostgres形のログインレスポンスに含まれる固定ユーザー名。
const mockUserName = "Nathalia Teste"

// note はモックのインメモリストアが保持するノート。
type note struct {
	id        string // mongo形の識別子（uuid）
	numID     int    // postgres形の識別子（連番）
	title     string
	content   string
	createdAt time.Time
}

// Server はモックバックエンドの状態を保持する。
type Server struct {
	shape  Shape
	logger *slog.Logger

	mu    sync.Mutex
	notes []*note
	seq   int
}

// NewServer は固定フィクスチャ（Nota Mockada 1/2）をシードしたServerを生成する。
func NewServer(shape Shape, logger *slog.Logger) *Server {
	s := &Server{
		shape:  shape,
		logger: logger,
	}
	s.addNote("Nota Mockada 1", "Conteúdo de teste 1")
	s.addNote("Nota Mockada 2", "Conteúdo de teste 2")
	return s
}

// addNote はストアへノートを追加する。呼び出し元がロックを保持するか、
// 初期化中のみ呼ぶこと。
func (s *Server) addNote(title, content string) *note {
	s.seq++
	n := &note{
		id:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		numID:     s.seq,
		title:     title,
		content:   content,
		createdAt: time.Now().UTC(),
	}
	s.notes = append(s.notes, n)
	return n
}

// toWire はノートを設定されたレスポンス形のJSONオブジェクトへ変換する。
func (s *Server) toWire(n *note) map[string]any {
	m := map[string]any{
		"title":     n.title,
		"content":   n.content,
		"createdAt": n.createdAt.Format(time.RFC3339),
	}
	if s.shape == ShapeMongo {
		m["_id"] = n.id
	} else {
		m["id"] = n.numID
	}
	return m
}

// find は設定された形の識別子でノートを検索する。
func (s *Server) find(id string) (int, *note) {
	for i, n := range s.notes {
		if s.shape == ShapeMongo {
			if n.id == id {
				return i, n
			}
		} else if strconv.Itoa(n.numID) == id {
			return i, n
		}
	}
	return -1, nil
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeMessage は{message}形式のレスポンスを書き込む。
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// authRejectedRecorder は認証拒否の発生を記録する。
type authRejectedRecorder interface {
	RecordAuthRejected()
}

// requireToken は固定トークンのベアラー認証を検証するミドルウェアを返す。
// recorderがnilでない場合は拒否回数を記録する。
func requireToken(recorder authRejectedRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+MockToken {
				if recorder != nil {
					recorder.RecordAuthRejected()
				}
				writeMessage(w, http.StatusUnauthorized, "Token inválido ou expirado.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HandleRegister はユーザー登録を処理する。
// POST /api/register {name, email, password} → 201 {message}
func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}
	if body.Name == "" || body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Todos os campos são obrigatórios.")
		return
	}

	s.logger.Info("モック登録を受け付けました", slog.String("email", body.Email))
	writeMessage(w, http.StatusCreated, "Usuário cadastrado com sucesso!")
}

// HandleLogin はログインを処理する。資格情報は検証せず固定トークンを発行する。
// POST /api/login {email, password}
// postgres形: 200 {message, token, user:{id, nome, email}}
// mongo形:    200 {accessToken}（ユーザーオブジェクトを省略するバックエンドの再現）
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Todos os campos são obrigatórios.")
		return
	}

	s.logger.Info("モックログインを受け付けました", slog.String("email", body.Email))

	if s.shape == ShapeMongo {
		writeJSON(w, http.StatusOK, map[string]any{
			"accessToken": MockToken,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login realizado com sucesso!",
		"token":   MockToken,
		"user": map[string]any{
			"id":    1,
			"nome":  mockUserName,
			"email": body.Email,
		},
	})
}

// HandleList はノート一覧と検索を処理する。
// GET /api/notes[?title=...] — titleクエリがある場合はサーバー側で部分一致フィルタする。
func (s *Server) HandleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := r.URL.Query().Get("title")
	result := make([]map[string]any, 0, len(s.notes))
	for _, n := range s.notes {
		if query != "" && !strings.Contains(strings.ToLower(n.title), strings.ToLower(query)) {
			continue
		}
		result = append(result, s.toWire(n))
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleGet は単一ノートの取得を処理する。
// GET /api/notes/{id}
func (s *Server) HandleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, n := s.find(chi.URLParam(r, "id"))
	if n == nil {
		writeMessage(w, http.StatusNotFound, "Nota não encontrada.")
		return
	}
	writeJSON(w, http.StatusOK, s.toWire(n))
}

// HandleCreate はノートの作成を処理する。
// POST /api/notes {title, content} → 201 作成されたノート
func (s *Server) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}
	if body.Title == "" || body.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Título e conteúdo são obrigatórios.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.addNote(body.Title, body.Content)
	writeJSON(w, http.StatusCreated, s.toWire(n))
}

// HandleUpdate はノートの全体更新を処理する。
// PUT /api/notes/{id} {title, content}
func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}
	if body.Title == "" || body.Content == "" {
		writeMessage(w, http.StatusBadRequest, "Título e conteúdo são obrigatórios.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, n := s.find(chi.URLParam(r, "id"))
	if n == nil {
		writeMessage(w, http.StatusNotFound, "Nota não encontrada.")
		return
	}
	n.title = body.Title
	n.content = body.Content
	writeJSON(w, http.StatusOK, s.toWire(n))
}

// HandlePatch はノートの部分更新を処理する。
// PATCH /api/notes/{id} {任意の部分フィールド}
func (s *Server) HandlePatch(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, n := s.find(chi.URLParam(r, "id"))
	if n == nil {
		writeMessage(w, http.StatusNotFound, "Nota não encontrada.")
		return
	}
	if title, ok := body["title"].(string); ok {
		n.title = title
	}
	if content, ok := body["content"].(string); ok {
		n.content = content
	}
	writeJSON(w, http.StatusOK, s.toWire(n))
}

// HandleDelete はノートの削除を処理する。
// DELETE /api/notes/{id} → 200 {message}
func (s *Server) HandleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, n := s.find(chi.URLParam(r, "id"))
	if n == nil {
		writeMessage(w, http.StatusNotFound, "Nota não encontrada.")
		return
	}
	s.notes = append(s.notes[:i], s.notes[i+1:]...)
	writeMessage(w, http.StatusOK, "Nota excluída com sucesso!")
}
