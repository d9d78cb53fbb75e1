package web

// pageTemplates はWebフロントのHTMLテンプレート。
// どのページもエラー表示要素 err_box を持ち、エラーが設定されるまで非表示にする。
const pageTemplates = `
{{define "errbox"}}<div id="err_box"{{if not .Visible}} hidden{{end}}>{{.Text}}</div>{{end}}

{{define "home"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>notor</title></head>
<body>
{{template "errbox" .Box}}
<form id="newNote" method="post" action="/web/notes">
  <input name="title" placeholder="タイトル">
  <textarea name="content"></textarea>
  <button type="submit">作成</button>
</form>
<ul>
{{range .Notes}}  <li>
    <a href="/web/notes/{{.ID}}">{{.Title}}</a>
    <form data-form="deleteNote" method="post" action="/web/delete">
      <input type="hidden" name="id" value="{{.ID}}">
      <button type="submit">削除</button>
    </form>
  </li>
{{end}}</ul>
<form method="post" action="/web/logout"><button type="submit">ログアウト</button></form>
</body>
</html>
{{end}}

{{define "note"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Note.Title}} - notor</title></head>
<body>
{{template "errbox" .Box}}
<a href="/web">一覧へ戻る</a>
<h1>{{.Note.Title}}</h1>
{{with .Note.Content}}<p>{{.}}</p>{{end}}
<ul>
{{range .Tags}}  <li class="tag">{{.Name}}</li>
{{end}}</ul>
<form id="addTag" method="post" action="/web/notes/{{.Note.ID}}/tags">
  <input name="tag" placeholder="タグ">
  <button type="submit">追加</button>
</form>
</body>
</html>
{{end}}

{{define "login"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>ログイン - notor</title></head>
<body>
{{template "errbox" .Box}}
<form id="login" method="post" action="/web/login">
  <input name="username" placeholder="ユーザー名">
  <input name="pass" type="password" placeholder="パスワード">
  <button type="submit">ログイン</button>
</form>
</body>
</html>
{{end}}

{{define "failed"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>エラー - notor</title></head>
<body>
{{template "errbox" .Box}}
<a href="{{.Back}}">戻る</a>
</body>
</html>
{{end}}
`
