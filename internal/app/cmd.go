package app

// Command はCLIのサブコマンドを表す。
type Command string

const (
	// CommandRegister は新規ユーザー登録を行う。
	CommandRegister Command = "register"
	// CommandLogin はログインして認証状態を保存する。
	CommandLogin Command = "login"
	// CommandLogout は保存された認証状態を破棄する。
	CommandLogout Command = "logout"
	// CommandWhoami は現在のログインユーザーを表示する。
	CommandWhoami Command = "whoami"
	// CommandList はノートの一覧を表示する。
	CommandList Command = "list"
	// CommandSearch はタイトルでノートを検索する。
	CommandSearch Command = "search"
	// CommandGet は単一のノートを表示する。
	CommandGet Command = "get"
	// CommandCreate はノートを作成する。
	CommandCreate Command = "create"
	// CommandUpdate はノートの全フィールドを置き換える。
	CommandUpdate Command = "update"
	// CommandPatch はノートの指定フィールドのみを変更する。
	CommandPatch Command = "patch"
	// CommandDelete はノートを削除する。
	CommandDelete Command = "delete"
	// CommandMockServer は開発用モックAPIサーバーを起動する。
	CommandMockServer Command = "mock-server"
	// CommandHelp は使い方を表示する。
	CommandHelp Command = "help"
)

// ParseCommand はコマンドライン引数からサブコマンドと残りの引数を解析する。
// 引数が空またはサポート外のコマンドの場合はCommandHelpを返す。
func ParseCommand(args []string) (Command, []string) {
	if len(args) == 0 {
		return CommandHelp, nil
	}

	switch args[0] {
	case "register":
		return CommandRegister, args[1:]
	case "login":
		return CommandLogin, args[1:]
	case "logout":
		return CommandLogout, args[1:]
	case "whoami":
		return CommandWhoami, args[1:]
	case "list":
		return CommandList, args[1:]
	case "search":
		return CommandSearch, args[1:]
	case "get":
		return CommandGet, args[1:]
	case "create":
		return CommandCreate, args[1:]
	case "update":
		return CommandUpdate, args[1:]
	case "patch":
		return CommandPatch, args[1:]
	case "delete":
		return CommandDelete, args[1:]
	case "mock-server":
		return CommandMockServer, args[1:]
	case "help":
		return CommandHelp, args[1:]
	default:
		return CommandHelp, nil
	}
}

// requiresAuth は実行前にログイン済みであることを要求するコマンドを判定する。
func requiresAuth(cmd Command) bool {
	switch cmd {
	case CommandWhoami, CommandList, CommandSearch, CommandGet,
		CommandCreate, CommandUpdate, CommandPatch, CommandDelete:
		return true
	default:
		return false
	}
}

// requiresAPI はAPIベースURLの設定を必要とするコマンドを判定する。
// モックサーバーの起動とヘルプ表示はリモートAPIに接続しない。
func requiresAPI(cmd Command) bool {
	switch cmd {
	case CommandMockServer, CommandHelp:
		return false
	default:
		return true
	}
}
