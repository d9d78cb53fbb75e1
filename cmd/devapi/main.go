// 開発用ノートAPIのエントリポイント。
// 本番のノートAPIと同じエンドポイントをSQLiteで提供する。
package main

import (
	"context"
	"log"

	"github.com/nao1215/notor/internal/config"
	"github.com/nao1215/notor/internal/devapi"
)

func main() {
	cfg, err := config.LoadDevAPI()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := devapi.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("開発用APIサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("開発用APIサービスを起動します: :%s", cfg.Port)
	if err := server.Run(); err != nil {
		log.Fatalf("開発用APIサービスの起動に失敗: %v", err)
	}
}
