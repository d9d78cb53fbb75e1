// ノートAPIのコマンドラインクライアントのエントリポイント。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/nao1215/notor/internal/command"
	"github.com/nao1215/notor/internal/config"
)

func main() {
	cfg, err := config.LoadCLI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := command.NewApp(cfg, os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "notor: %v\n", err)
		stop()
		os.Exit(1)
	}
}
