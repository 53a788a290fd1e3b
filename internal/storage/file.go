package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// stateFileName はステートディレクトリ内の保存ファイル名。
const stateFileName = "state.json"

// FileStorage はJSONファイルにキー/バリューを永続化するStorage実装。
// 書き込みは一時ファイルへの書き出しとリネームで置き換える。
// 認証トークンを含むためファイルのパーミッションは0600とする。
type FileStorage struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStorage は指定ディレクトリ配下にstate.jsonを持つFileStorageを生成する。
// ディレクトリが存在しない場合は作成し、既存ファイルがあれば読み込む。
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("ステートディレクトリの作成に失敗しました: %w", err)
	}

	s := &FileStorage{
		path: filepath.Join(dir, stateFileName),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("ステートファイルの読み込みに失敗しました: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("ステートファイルの解析に失敗しました: %w", err)
	}

	return s, nil
}

// Get はキーに対応する値を返す。
func (s *FileStorage) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Set はキーに値を保存し、同期的にファイルへ書き出す。
func (s *FileStorage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flush()
}

// Delete は指定されたキーを削除し、同期的にファイルへ書き出す。
func (s *FileStorage) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return s.flush()
}

// flush は現在の内容を一時ファイル経由でアトミックに書き出す。
// 呼び出し元がロックを保持していること。
func (s *FileStorage) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("ステートのエンコードに失敗しました: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("ステートファイルの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("ステートファイルの置き換えに失敗しました: %w", err)
	}
	return nil
}
