package app

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/noteman/internal/mockapi"
)

// setTestEnv はモックサーバーと一時ディレクトリを使うテスト環境を構成する。
func setTestEnv(t *testing.T, shape mockapi.Shape) string {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	s := mockapi.NewServer(shape, logger)
	server := httptest.NewServer(mockapi.NewRouter(s, &mockapi.RouterDeps{Logger: logger}))
	t.Cleanup(server.Close)

	t.Setenv("NOTES_API_URL", server.URL)
	t.Setenv("NOTES_STATE_DIR", t.TempDir())
	return server.URL
}

// run はRunを実行してstdout/stderrの内容を返す。
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Run(&stdout, &stderr, args)
	return stdout.String(), stderr.String(), err
}

func login(t *testing.T) {
	t.Helper()
	if _, _, err := run(t, "login", "test@example.com", "password1"); err != nil {
		t.Fatalf("ログインに失敗した: %v", err)
	}
}

func TestRun_NoArgs_PrintsUsage(t *testing.T) {
	stdout, _, err := run(t)
	if err != nil {
		t.Fatalf("ヘルプ表示がエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "使い方") {
		t.Errorf("使い方が表示されるべき: %q", stdout)
	}
}

func TestRun_MissingAPIURL_ReturnsError(t *testing.T) {
	t.Setenv("NOTES_API_URL", "")
	t.Setenv("NOTES_STATE_DIR", t.TempDir())

	_, _, err := run(t, "list")
	if err == nil {
		t.Fatal("NOTES_API_URL未設定のlistはエラーを返すべき")
	}
}

func TestRun_Register_PrintsServerMessage(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)

	stdout, _, err := run(t, "register", "Nathalia", "n@example.com", "password1")
	if err != nil {
		t.Fatalf("registerがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "Usuário cadastrado com sucesso!") {
		t.Errorf("サーバーメッセージが表示されるべき: %q", stdout)
	}
}

func TestRun_Register_ShortPassword_LocalError(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)

	_, stderr, err := run(t, "register", "A", "a@b.com", "12345")
	if err == nil {
		t.Fatal("6文字未満のパスワードはエラーを返すべき")
	}
	if !strings.Contains(stderr, "パスワードは6文字以上") {
		t.Errorf("バリデーションメッセージが表示されるべき: %q", stderr)
	}
}

func TestRun_LoginThenWhoami(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)

	stdout, _, err := run(t, "login", "n@example.com", "password1")
	if err != nil {
		t.Fatalf("loginがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "Nathalia Teste") {
		t.Errorf("ログインユーザー名が表示されるべき: %q", stdout)
	}

	// 状態はNOTES_STATE_DIRに保存され、次の実行で復元される
	stdout2, _, err := run(t, "whoami")
	if err != nil {
		t.Fatalf("whoamiがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout2, "Nathalia Teste") {
		t.Errorf("whoamiはプロフィールを表示するべき: %q", stdout2)
	}
	if !strings.Contains(stdout2, "n@example.com") {
		t.Errorf("whoamiはメールアドレスを表示するべき: %q", stdout2)
	}
}

func TestRun_Whoami_NotLoggedIn_ReturnsError(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)

	_, stderr, err := run(t, "whoami")
	if err == nil {
		t.Fatal("未ログインのwhoamiはエラーを返すべき")
	}
	if !strings.Contains(stderr, "ログイン") {
		t.Errorf("ログインを促すメッセージが表示されるべき: %q", stderr)
	}
}

func TestRun_List_RequiresLogin(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)

	_, _, err := run(t, "list")
	if err == nil {
		t.Fatal("未ログインのlistはエラーを返すべき")
	}
}

func TestRun_List_ShowsFixtures(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	stdout, _, err := run(t, "list")
	if err != nil {
		t.Fatalf("listがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "Nota Mockada 1") || !strings.Contains(stdout, "Nota Mockada 2") {
		t.Errorf("フィクスチャのノートが表示されるべき: %q", stdout)
	}
}

func TestRun_Search_FiltersByTitle(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	stdout, _, err := run(t, "search", "Nota Mockada 1")
	if err != nil {
		t.Fatalf("searchがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "Nota Mockada 1") {
		t.Errorf("一致するノートが表示されるべき: %q", stdout)
	}
	if strings.Contains(stdout, "Nota Mockada 2") {
		t.Errorf("一致しないノートは表示されないべき: %q", stdout)
	}
}

func TestRun_Search_NoMatch_PrintsEmpty(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	stdout, _, err := run(t, "search", "存在しないタイトル")
	if err != nil {
		t.Fatalf("一致なしの検索はエラーを返さないべき: %v", err)
	}
	if !strings.Contains(stdout, "ノートはありません") {
		t.Errorf("空の結果表示がされるべき: %q", stdout)
	}
}

func TestRun_CreateUpdateDelete_Roundtrip(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	stdout, _, err := run(t, "create", "買い物メモ", "牛乳を買う")
	if err != nil {
		t.Fatalf("createがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "ノートを作成しました") || !strings.Contains(stdout, "買い物メモ") {
		t.Errorf("作成結果が表示されるべき: %q", stdout)
	}

	// postgres形のフィクスチャは1,2なので新規ノートは3
	stdout2, _, err := run(t, "update", "3", "買い物メモ改", "卵も買う")
	if err != nil {
		t.Fatalf("updateがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout2, "買い物メモ改") {
		t.Errorf("更新結果が表示されるべき: %q", stdout2)
	}

	stdout3, _, err := run(t, "patch", "3", "title=パッチ後")
	if err != nil {
		t.Fatalf("patchがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout3, "パッチ後") || !strings.Contains(stdout3, "卵も買う") {
		t.Errorf("部分変更の結果が表示されるべき: %q", stdout3)
	}

	if _, _, err := run(t, "delete", "3"); err != nil {
		t.Fatalf("deleteがエラーを返した: %v", err)
	}

	stdout4, _, _ := run(t, "list")
	if strings.Contains(stdout4, "パッチ後") {
		t.Errorf("削除したノートは一覧に表示されないべき: %q", stdout4)
	}
}

func TestRun_Get_Missing_ShowsServerMessage(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	_, stderr, err := run(t, "get", "999")
	if err == nil {
		t.Fatal("存在しないIDのgetはエラーを返すべき")
	}
	if !strings.Contains(stderr, "Nota não encontrada.") {
		t.Errorf("サーバーのエラーメッセージが表示されるべき: %q", stderr)
	}
}

func TestRun_Patch_InvalidField_LocalError(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	_, stderr, err := run(t, "patch", "1", "owner=someone")
	if err == nil {
		t.Fatal("変更できないフィールドはエラーを返すべき")
	}
	if !strings.Contains(stderr, "変更できないフィールド") {
		t.Errorf("フィールドエラーが表示されるべき: %q", stderr)
	}
}

func TestRun_Logout_ClearsState(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	stdout, _, err := run(t, "logout")
	if err != nil {
		t.Fatalf("logoutがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "ログアウトしました") {
		t.Errorf("ログアウトメッセージが表示されるべき: %q", stdout)
	}

	if _, _, err := run(t, "list"); err == nil {
		t.Fatal("ログアウト後のlistはエラーを返すべき")
	}
}

func TestRun_MongoShape_LoginSynthesizesProfile(t *testing.T) {
	setTestEnv(t, mockapi.ShapeMongo)

	// 登録時に保存されたuserNameがログイン時の合成プロフィールに使われる
	if _, _, err := run(t, "register", "Nathalia", "n@example.com", "password1"); err != nil {
		t.Fatalf("registerがエラーを返した: %v", err)
	}

	stdout, _, err := run(t, "login", "n@example.com", "password1")
	if err != nil {
		t.Fatalf("loginがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout, "Nathalia") {
		t.Errorf("登録時の名前が表示されるべき: %q", stdout)
	}

	stdout2, _, err := run(t, "whoami")
	if err != nil {
		t.Fatalf("whoamiがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout2, "Nathalia") || !strings.Contains(stdout2, "n@example.com") {
		t.Errorf("合成プロフィールが表示されるべき: %q", stdout2)
	}
}

func TestRun_MongoShape_NotesUseStringIDs(t *testing.T) {
	setTestEnv(t, mockapi.ShapeMongo)
	login(t)

	stdout, _, err := run(t, "list")
	if err != nil {
		t.Fatalf("listがエラーを返した: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("ノート2件が表示されるべき: %q", stdout)
	}
	id := strings.Split(lines[0], "\t")[0]
	if id == "1" {
		t.Errorf("mongo形のIDは連番ではない: %q", id)
	}

	// 文字列IDでもgetできる
	stdout2, _, err := run(t, "get", id)
	if err != nil {
		t.Fatalf("getがエラーを返した: %v", err)
	}
	if !strings.Contains(stdout2, "Nota Mockada 1") {
		t.Errorf("IDで取得したノートが表示されるべき: %q", stdout2)
	}
}

func TestRun_SanitizesDisplayedContent(t *testing.T) {
	setTestEnv(t, mockapi.ShapePostgres)
	login(t)

	if _, _, err := run(t, "create", "<script>alert(1)</script>タイトル", "<b>内容</b>"); err != nil {
		t.Fatalf("createがエラーを返した: %v", err)
	}

	stdout, _, err := run(t, "get", "3")
	if err != nil {
		t.Fatalf("getがエラーを返した: %v", err)
	}
	if strings.Contains(stdout, "<script>") || strings.Contains(stdout, "<b>") {
		t.Errorf("表示前にマークアップが除去されるべき: %q", stdout)
	}
	if !strings.Contains(stdout, "タイトル") || !strings.Contains(stdout, "内容") {
		t.Errorf("テキスト部分は保持されるべき: %q", stdout)
	}
}
