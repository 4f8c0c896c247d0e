package routes

import (
	"html/template"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/TRSiddique/university-association-sub000/app"
	"github.com/TRSiddique/university-association-sub000/httpx"
	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/routes/middlewares"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login exchanges HTTP basic credentials for an access and refresh token.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		req, err := httpx.GrantRequest(r.Context(), url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		})
		if err != nil {
			httpx.LogInternalError(w, "login.new_request", err)
			return
		}
		app.UserCredentials(w, req)
	}
}

// Refresh takes the refresh token as "Authorization: Refresh <token>".
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		req, err := httpx.GrantRequest(r.Context(), url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {match[1]},
		})
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}

		resp := httpx.NewResponseBuffer()
		app.UserCredentials(resp, req)
		resp.Flush(w)
	}
}

const loginHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Sign in</title>
<style>
	body { font-family: "Segoe UI", Arial, sans-serif; max-width: 360px; margin: 64px auto; padding: 0 16px; }
	label { display: block; margin-bottom: 12px; }
	input { width: 100%; }
	.alert { border: 1px solid #c00; background: #fee; padding: 10px; margin-bottom: 16px; }
</style>
</head>
<body>
	<h1>Sign in</h1>
	{{with .Alert}}<div class="alert">{{.}}</div>{{end}}
	<form method="post" action="/login">
		<input type="hidden" name="goto" value="{{.Goto}}">
		<label>Username <input name="username" value="{{.Username}}" autocomplete="username" required></label>
		<label>Password <input name="password" type="password" autocomplete="current-password" required></label>
		<button type="submit">Sign in</button>
	</form>
</body>
</html>
`

var loginTmpl = template.Must(template.New("login").Parse(loginHTML))

type loginPage struct {
	Goto     string
	Username string
	Alert    string
}

// LoginPage is where CookieAuth sends browsers without a valid session.
func LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeLogin(w, http.StatusOK, loginPage{Goto: safeGoto(r.URL.Query().Get("goto"))})
	}
}

// SubmitLoginPage signs in from the login page and stores the tokens in
// cookies before redirecting back.
func SubmitLoginPage(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_form")
			return
		}
		page := loginPage{
			Goto:     safeGoto(r.PostForm.Get("goto")),
			Username: r.PostForm.Get("username"),
		}

		tokens, status := middlewares.Grant(r.Context(), app.BearerServer, url.Values{
			"grant_type": {"password"},
			"username":   {page.Username},
			"password":   {r.PostForm.Get("password")},
		})
		if status != http.StatusOK {
			log.Debugf("login_page: status %d for %q", status, page.Username)
			page.Alert = "Wrong username or password."
			writeLogin(w, http.StatusUnauthorized, page)
			return
		}

		middlewares.SetTokenCookies(w, tokens)
		http.Redirect(w, r, page.Goto, http.StatusSeeOther)
	}
}

func writeLogin(w http.ResponseWriter, status int, page loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := loginTmpl.Execute(w, page); err != nil {
		log.Errorf("login_page.render: %s", err)
	}
}

// safeGoto keeps redirects on this site.
func safeGoto(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
