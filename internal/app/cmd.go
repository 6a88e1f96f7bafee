package app

// Command はアプリケーションの起動モードを表す。
// APIサーバーとスクレイプワーカーは同一バイナリからサブコマンドで起動し分ける。
type Command string

const (
	// CommandServe はHTTP APIサーバーモード。
	CommandServe Command = "serve"
	// CommandWorker はスクレイプスケジューラーを動かすワーカーモード。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションのみを実行して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck は稼働中サーバーの/healthを確認して終了する。
	// distrolessイメージにはシェルやcurlがないため、Dockerのhealthcheckはこのサブコマンドを使う。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数の先頭からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch cmd := Command(args[0]); cmd {
	case CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck:
		return cmd
	default:
		return CommandServe
	}
}
