// Webフロントのエントリポイント。
// ブラウザからのフォーム送信をノートAPIへ中継し、結果に応じてリダイレクトまたはエラー表示を返す。
package main

import (
	"log"

	"github.com/nao1215/notor/internal/config"
	"github.com/nao1215/notor/internal/web"
)

func main() {
	cfg, err := config.LoadWeb()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server := web.NewServer(cfg)

	log.Printf("Webフロントを起動します: :%s (API: %s)", cfg.Port, cfg.APIURL)
	if err := server.Run(); err != nil {
		log.Fatalf("Webフロントの起動に失敗: %v", err)
	}
}
