package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/noteman/internal/api"
	"github.com/hitoshi/noteman/internal/auth"
	"github.com/hitoshi/noteman/internal/config"
	"github.com/hitoshi/noteman/internal/logger"
	"github.com/hitoshi/noteman/internal/metrics"
	"github.com/hitoshi/noteman/internal/middleware"
	"github.com/hitoshi/noteman/internal/mockapi"
	"github.com/hitoshi/noteman/internal/model"
	"github.com/hitoshi/noteman/internal/notes"
	"github.com/hitoshi/noteman/internal/security"
	"github.com/hitoshi/noteman/internal/session"
	"github.com/hitoshi/noteman/internal/storage"
)

const usage = `noteman - メモ管理APIのコマンドラインクライアント

使い方:
  noteman register <名前> <メールアドレス> <パスワード>
  noteman login <メールアドレス> <パスワード>
  noteman logout
  noteman whoami
  noteman list
  noteman search <タイトル>
  noteman get <ID>
  noteman create <タイトル> <内容>
  noteman update <ID> <タイトル> <内容>
  noteman patch <ID> <フィールド>=<値> [...]
  noteman delete <ID>
  noteman mock-server

環境変数:
  NOTES_API_URL       接続先APIのベースURL（mock-server以外で必須）
  NOTES_HTTP_TIMEOUT  HTTPタイムアウト（デフォルト 10s）
  NOTES_STATE_DIR     認証状態の保存先ディレクトリ
  MOCK_SERVER_PORT    モックサーバーのポート（デフォルト 3000）
  MOCK_BACKEND_SHAPE  モックのレスポンス形 postgres|mongo
`

// genericErrorMessage はサーバーがメッセージを返さなかった場合の表示。
const genericErrorMessage = "エラーが発生しました。時間をおいて再度お試しください。"

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップし、環境変数からConfigを読み込む。
func Init(w io.Writer, requireAPI bool) (*config.Config, error) {
	logger.SetupDefault(w)

	cfg, err := config.Load(requireAPI)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応する処理を実行する。
// argsにはos.Args[1:]を渡す。コマンドの結果はstdoutへ、ログはstderrへ出力する。
func Run(stdout, stderr io.Writer, args []string) error {
	cmd, rest := ParseCommand(args)

	if cmd == CommandHelp {
		fmt.Fprint(stdout, usage)
		return nil
	}

	cfg, err := Init(stderr, requiresAPI(cmd))
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if cmd == CommandMockServer {
		return runMockServer(cfg)
	}

	st, err := storage.NewFileStorage(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to open state storage: %w", err)
	}

	store := session.NewStore(st)
	if err := store.Hydrate(); err != nil {
		// 復元できない状態は破棄して未認証として続行する
		slog.Warn("保存された認証状態を復元できませんでした",
			slog.String("error", err.Error()),
		)
		if err := store.Logout(); err != nil {
			return fmt.Errorf("failed to reset auth state: %w", err)
		}
	}

	client := api.NewClient(
		cfg.APIBaseURL,
		&http.Client{Timeout: cfg.HTTPTimeout},
		slog.Default(),
		store,
	)
	client.SetOnUnauthorized(func() {
		if err := store.Logout(); err != nil {
			slog.Error("認証状態の破棄に失敗しました", slog.String("error", err.Error()))
		}
		fmt.Fprintln(stderr, "セッションの有効期限が切れました。再度ログインしてください。")
	})

	a := &cli{
		stdout:    stdout,
		stderr:    stderr,
		store:     store,
		auth:      auth.NewService(client, st, slog.Default()),
		notes:     notes.NewService(client),
		sanitizer: security.NewDisplaySanitizer(),
	}

	if requiresAuth(cmd) {
		if err := store.RequireAuth(); err != nil {
			return a.surface(err)
		}
	}

	ctx := context.Background()
	if err := a.dispatch(ctx, cmd, rest); err != nil {
		return a.surface(err)
	}
	return nil
}

// cli はサブコマンド実行に必要な依存関係を束ねる。
type cli struct {
	stdout    io.Writer
	stderr    io.Writer
	store     *session.Store
	auth      *auth.Service
	notes     *notes.Service
	sanitizer security.DisplaySanitizer
}

func (a *cli) dispatch(ctx context.Context, cmd Command, args []string) error {
	switch cmd {
	case CommandRegister:
		return a.runRegister(ctx, args)
	case CommandLogin:
		return a.runLogin(ctx, args)
	case CommandLogout:
		return a.runLogout()
	case CommandWhoami:
		return a.runWhoami()
	case CommandList:
		return a.runList(ctx)
	case CommandSearch:
		return a.runSearch(ctx, args)
	case CommandGet:
		return a.runGet(ctx, args)
	case CommandCreate:
		return a.runCreate(ctx, args)
	case CommandUpdate:
		return a.runUpdate(ctx, args)
	case CommandPatch:
		return a.runPatch(ctx, args)
	case CommandDelete:
		return a.runDelete(ctx, args)
	default:
		fmt.Fprint(a.stdout, usage)
		return nil
	}
}

// surface はエラーをユーザー向けメッセージへ変換してstderrに表示する。
// 表示済みのエラーはexit codeを非ゼロにするためそのまま返す。
func (a *cli) surface(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintln(a.stderr, apiErr.Message)
		if apiErr.Action != "" {
			fmt.Fprintln(a.stderr, apiErr.Action)
		}
		return err
	}

	var reqErr *api.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Message != "" {
			fmt.Fprintln(a.stderr, reqErr.Message)
		} else {
			fmt.Fprintln(a.stderr, genericErrorMessage)
		}
		return err
	}

	fmt.Fprintln(a.stderr, genericErrorMessage)
	return err
}

func (a *cli) runRegister(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return model.NewValidationError("register には 名前・メールアドレス・パスワード を指定してください。")
	}

	message, err := a.auth.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, message)
	return nil
}

func (a *cli) runLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return model.NewValidationError("login には メールアドレス・パスワード を指定してください。")
	}

	sess, err := a.auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	if err := a.store.Login(sess.Token, sess.User); err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "%s としてログインしました。\n",
		a.sanitizer.Sanitize(sess.User.DisplayName()))
	return nil
}

func (a *cli) runLogout() error {
	if err := a.store.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "ログアウトしました。")
	return nil
}

func (a *cli) runWhoami() error {
	user := a.store.User()
	if user == nil {
		fmt.Fprintln(a.stdout, "ログイン中（プロフィール情報なし）")
		return nil
	}

	fmt.Fprintf(a.stdout, "名前: %s\n", a.sanitizer.Sanitize(user.DisplayName()))
	if user.Email != "" {
		fmt.Fprintf(a.stdout, "メール: %s\n", a.sanitizer.Sanitize(user.Email))
	}
	return nil
}

func (a *cli) runList(ctx context.Context) error {
	list, err := a.notes.List(ctx)
	if err != nil {
		return err
	}
	a.printNotes(list)
	return nil
}

func (a *cli) runSearch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return model.NewValidationError("search には タイトル を指定してください。")
	}

	list, err := a.notes.Search(ctx, args[0])
	if err != nil {
		return err
	}
	a.printNotes(list)
	return nil
}

func (a *cli) runGet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return model.NewValidationError("get には ID を指定してください。")
	}

	n, err := a.notes.Get(ctx, args[0])
	if err != nil {
		return err
	}
	a.printNoteDetail(n)
	return nil
}

func (a *cli) runCreate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return model.NewValidationError("create には タイトル・内容 を指定してください。")
	}
	if args[0] == "" || args[1] == "" {
		return model.NewValidationError("タイトルと内容を入力してください。")
	}

	n, err := a.notes.Create(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "ノートを作成しました。")
	a.printNoteDetail(n)
	return nil
}

func (a *cli) runUpdate(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return model.NewValidationError("update には ID・タイトル・内容 を指定してください。")
	}
	if args[1] == "" || args[2] == "" {
		return model.NewValidationError("タイトルと内容を入力してください。")
	}

	n, err := a.notes.Update(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "ノートを更新しました。")
	a.printNoteDetail(n)
	return nil
}

func (a *cli) runPatch(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return model.NewValidationError("patch には ID と変更するフィールド（title=... / content=...）を指定してください。")
	}

	fields, err := parsePatchFields(args[1:])
	if err != nil {
		return err
	}

	n, err := a.notes.Patch(ctx, args[0], fields)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "ノートを変更しました。")
	a.printNoteDetail(n)
	return nil
}

func (a *cli) runDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return model.NewValidationError("delete には ID を指定してください。")
	}

	if err := a.notes.Delete(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintln(a.stdout, "ノートを削除しました。")
	return nil
}

func (a *cli) printNotes(list []model.Note) {
	if len(list) == 0 {
		fmt.Fprintln(a.stdout, "ノートはありません。")
		return
	}
	for _, n := range list {
		fmt.Fprintf(a.stdout, "%s\t%s\n", n.ID, a.sanitizer.Sanitize(n.Title))
	}
}

func (a *cli) printNoteDetail(n *model.Note) {
	fmt.Fprintf(a.stdout, "ID: %s\n", n.ID)
	fmt.Fprintf(a.stdout, "タイトル: %s\n", a.sanitizer.Sanitize(n.Title))
	fmt.Fprintf(a.stdout, "内容: %s\n", a.sanitizer.Sanitize(n.Content))
	if n.CreatedAt != "" {
		fmt.Fprintf(a.stdout, "作成日時: %s\n", n.CreatedAt)
	}
}

// parsePatchFields は title=値 / content=値 形式の引数を解析する。
func parsePatchFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := cutField(arg)
		if !ok {
			return nil, model.NewValidationError(
				fmt.Sprintf("フィールド指定の形式が不正です: %q（title=値 の形式で指定してください）", arg))
		}
		switch key {
		case "title", "content":
			fields[key] = value
		default:
			return nil, model.NewValidationError(
				fmt.Sprintf("変更できないフィールドです: %q", key))
		}
	}
	return fields, nil
}

func cutField(arg string) (key, value string, ok bool) {
	for i := 0; i < len(arg); i++ {
		if arg[i] == '=' {
			return arg[:i], arg[i+1:], true
		}
	}
	return "", "", false
}

// runMockServer は開発用モックAPIサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runMockServer(cfg *config.Config) error {
	mockServer := mockapi.NewServer(mockapi.Shape(cfg.MockBackendShape), slog.Default())

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.Rate = rate.Limit(float64(cfg.MockRateLimit) / 60.0)
	rateLimiterCfg.Burst = cfg.MockRateLimit

	router := mockapi.NewRouter(mockServer, &mockapi.RouterDeps{
		Logger:      slog.Default(),
		RateLimiter: middleware.NewRateLimiter(rateLimiterCfg),
		Metrics:     collector,
		Gatherer:    registry,
	})

	server := &http.Server{
		Addr:         ":" + cfg.MockServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("mock API server starting",
			slog.String("addr", server.Addr),
			slog.String("shape", cfg.MockBackendShape),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down mock API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("mock API server stopped gracefully")
	return nil
}
