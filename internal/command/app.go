package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/notor/internal/config"
	"github.com/nao1215/notor/pkg/credential"
	"github.com/nao1215/notor/pkg/httpclient"
	"github.com/nao1215/notor/pkg/notes"
	"github.com/nao1215/notor/pkg/outcome"
	"github.com/nao1215/notor/pkg/session"
	"github.com/urfave/cli/v2"
)

// ErrInvalidNoteID はノートIDが整数でない場合に返される。
var ErrInvalidNoteID = errors.New("ノートIDが不正です")

// runner はコマンドの実行に必要な依存をまとめたもの。
type runner struct {
	cfg config.CLI
	api *notes.API
	out io.Writer
}

// NewApp はコマンドラインアプリケーションを生成する。結果はoutに出力する。
func NewApp(cfg config.CLI, out io.Writer) *cli.App {
	r := &runner{
		cfg: cfg,
		api: notes.New(httpclient.New(cfg.APIURL), notes.WithCredentialTTL(cfg.CredentialTTL)),
		out: out,
	}

	idArg := func(c *cli.Context, i int) (int, error) {
		id, err := strconv.Atoi(c.Args().Get(i))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidNoteID, c.Args().Get(i))
		}
		return id, nil
	}
	noteFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "ノートのタイトル"},
		&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "ノートの本文"},
	}

	return &cli.App{
		Name:      "notor",
		Usage:     "ノートAPIのコマンドラインクライアント",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "ログインしてクレデンシャルを保存する",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "ユーザー名", Required: true},
					&cli.StringFlag{Name: "pass", Aliases: []string{"p"}, Usage: "パスワード", Required: true},
				},
				Action: func(c *cli.Context) error {
					return r.withSession(c.Context, func(ctx context.Context, sess *session.Session) (outcome.Outcome, error) {
						return r.api.Login(ctx, sess, notes.Credentials{Username: c.String("username"), Pass: c.String("pass")})
					})
				},
			},
			{
				Name:   "logout",
				Usage:  "保存されているクレデンシャルを削除する",
				Action: func(c *cli.Context) error { return r.logout(c.Context) },
			},
			{
				Name:   "status",
				Usage:  "ログイン状態を表示する",
				Action: func(c *cli.Context) error { return r.status(c.Context) },
			},
			{
				Name:  "note",
				Usage: "ノートを操作する",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "ノートを作成する",
						Flags: noteFlags,
						Action: func(c *cli.Context) error {
							n := notes.Note{Title: c.String("title"), Content: c.String("content")}
							return r.withSession(c.Context, func(ctx context.Context, sess *session.Session) (outcome.Outcome, error) {
								return r.api.SubmitNote(ctx, sess, n)
							})
						},
					},
					{
						Name:      "update",
						Usage:     "ノートを更新する",
						ArgsUsage: "ID",
						Flags:     noteFlags,
						Action: func(c *cli.Context) error {
							id, err := idArg(c, 0)
							if err != nil {
								return err
							}
							n := notes.Note{Title: c.String("title"), Content: c.String("content")}
							return r.withSession(c.Context, func(ctx context.Context, sess *session.Session) (outcome.Outcome, error) {
								return r.api.UpdateNote(ctx, sess, id, n)
							})
						},
					},
					{
						Name:      "rm",
						Usage:     "ノートを削除する",
						ArgsUsage: "ID",
						Action: func(c *cli.Context) error {
							id, err := idArg(c, 0)
							if err != nil {
								return err
							}
							return r.withSession(c.Context, func(ctx context.Context, sess *session.Session) (outcome.Outcome, error) {
								return r.api.DeleteNote(ctx, sess, id)
							})
						},
					},
					{
						Name:   "list",
						Usage:  "ノートの一覧を表示する",
						Action: func(c *cli.Context) error { return r.list(c.Context) },
					},
					{
						Name:      "show",
						Usage:     "ノートとタグを表示する",
						ArgsUsage: "ID",
						Action: func(c *cli.Context) error {
							id, err := idArg(c, 0)
							if err != nil {
								return err
							}
							return r.show(c.Context, id)
						},
					},
					{
						Name:      "tag",
						Usage:     "ノートにタグを付ける",
						ArgsUsage: "ID TAG",
						Action: func(c *cli.Context) error {
							id, err := idArg(c, 0)
							if err != nil {
								return err
							}
							tag := c.Args().Get(1)
							return r.withSession(c.Context, func(ctx context.Context, sess *session.Session) (outcome.Outcome, error) {
								return r.api.TagNote(ctx, sess, id, tag)
							})
						},
					},
					{
						Name:      "untag",
						Usage:     "ノートからタグを外す",
						ArgsUsage: "ID TAG_ID",
						Action: func(c *cli.Context) error {
							id, err := idArg(c, 0)
							if err != nil {
								return err
							}
							tagID, err := idArg(c, 1)
							if err != nil {
								return err
							}
							return r.withSession(c.Context, func(ctx context.Context, sess *session.Session) (outcome.Outcome, error) {
								return r.api.UntagNote(ctx, sess, id, tagID)
							})
						},
					},
				},
			},
		},
	}
}

// openStore はクレデンシャルの保存先を開く。保存先のディレクトリがなければ作成する。
func (r *runner) openStore(ctx context.Context) (*credential.SQLiteStore, error) {
	if dir := filepath.Dir(r.cfg.CredentialDB); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("クレデンシャル保存先の作成に失敗: %w", err)
		}
	}
	return credential.OpenSQLite(ctx, r.cfg.CredentialDB)
}

// session はクレデンシャルの保存先からSessionを読み込み、fnに渡す。
func (r *runner) session(ctx context.Context, fn func(*session.Session) error) error {
	store, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := session.Load(store)
	if err != nil {
		return err
	}
	return fn(sess)
}

// withSession は操作を実行し、その結果を端末に表示する。
// 失敗の結果はAPIのメッセージをエラーとして返す。
func (r *runner) withSession(ctx context.Context, call func(context.Context, *session.Session) (outcome.Outcome, error)) error {
	return r.session(ctx, func(sess *session.Session) error {
		o, err := call(ctx, sess)
		if err != nil {
			return err
		}
		term := &terminal{out: r.out, status: o.Status}
		outcome.Apply(o, term)
		return term.err()
	})
}

func (r *runner) logout(ctx context.Context) error {
	return r.session(ctx, func(sess *session.Session) error {
		if err := r.api.Logout(sess); err != nil {
			return err
		}
		fmt.Fprintln(r.out, "ログアウトしました")
		return nil
	})
}

func (r *runner) status(ctx context.Context) error {
	return r.session(ctx, func(sess *session.Session) error {
		token, ok := sess.Token()
		if !ok {
			fmt.Fprintln(r.out, "ログインしていません")
			return nil
		}
		if exp, ok := credential.ExpiryOf(token); ok {
			fmt.Fprintf(r.out, "ログイン中（有効期限: %s）\n", exp.Local().Format(time.DateTime))
			return nil
		}
		fmt.Fprintln(r.out, "ログイン中")
		return nil
	})
}

func (r *runner) list(ctx context.Context) error {
	return r.session(ctx, func(sess *session.Session) error {
		list, err := r.api.ListNotes(ctx, sess)
		if err != nil {
			return err
		}
		for _, n := range list {
			fmt.Fprintf(r.out, "%d\t%s\t%s\n", n.ID, n.Created, n.Title)
		}
		return nil
	})
}

func (r *runner) show(ctx context.Context, id int) error {
	return r.session(ctx, func(sess *session.Session) error {
		n, err := r.api.Note(ctx, sess, id)
		if err != nil {
			return err
		}
		tags, err := r.api.NoteTags(ctx, sess, id)
		if err != nil {
			return err
		}

		fmt.Fprintf(r.out, "#%d %s (%s)\n", n.ID, n.Title, n.Created)
		if n.Content != nil && *n.Content != "" {
			fmt.Fprintln(r.out, *n.Content)
		}
		for _, t := range tags {
			fmt.Fprintf(r.out, "tag %d\t%s\n", t.ID, t.Name)
		}
		return nil
	})
}
