// Package storage はクライアント側の永続ストレージを提供する。
// ブラウザのlocalStorageに相当する文字列キー/バリューの保存領域で、
// トークン・ユーザープロフィール・表示名フォールバックを保持する。
package storage

// 永続ストレージのキー定義
const (
	// KeyToken はベアラートークンの生文字列。
	KeyToken = "token"
	// KeyUser はJSONシリアライズされたユーザープロフィール。
	KeyUser = "user"
	// KeyUserName は登録時に保存される表示名フォールバック。
	// バックエンドが名前を返さない場合にログイン時に参照される。
	KeyUserName = "userName"
)

// Storage は文字列キー/バリューの永続化インターフェース。
type Storage interface {
	// Get はキーに対応する値を返す。存在しない場合は ok=false。
	Get(key string) (value string, ok bool)
	// Set はキーに値を保存する。
	Set(key, value string) error
	// Delete は指定されたキーをすべて削除する。存在しないキーは無視する。
	Delete(keys ...string) error
}

// MemoryStorage はテスト用のインメモリ実装。
type MemoryStorage struct {
	data map[string]string
}

// NewMemoryStorage はMemoryStorageの新しいインスタンスを生成する。
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string]string)}
}

// Get はキーに対応する値を返す。
func (m *MemoryStorage) Get(key string) (string, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Set はキーに値を保存する。
func (m *MemoryStorage) Set(key, value string) error {
	m.data[key] = value
	return nil
}

// Delete は指定されたキーを削除する。
func (m *MemoryStorage) Delete(keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
