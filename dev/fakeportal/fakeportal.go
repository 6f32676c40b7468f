// Package fakeportal serves a small copy of the results portal for local
// development, so resultsd and results-cli can run without reaching the real
// portal.
package fakeportal

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
)

//go:embed data
var data embed.FS

// Data is the bundled portal: home.html, no_result.html and
// results/<htno>/<examCode>_<result>.html.
func Data() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

func serveFile(w http.ResponseWriter, root fs.FS, name string) {
	buff, err := fs.ReadFile(root, name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "text/html")
	w.Write(buff)
}

// Handler serves the home page and result pages out of root, result pages
// that do not exist render the portal's "no result" form.
func Handler(root fs.FS) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jsp/home.jsp", func(w http.ResponseWriter, r *http.Request) {
		serveFile(w, root, "home.html")
	})
	mux.HandleFunc("GET /results/resultAction", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		name := path.Join(
			"results",
			path.Base(query.Get("htno")),
			fmt.Sprintf("%s_%s.html", path.Base(query.Get("examCode")), path.Base(query.Get("result"))),
		)
		slog.Debug("fake portal", "page", name)

		_, err := fs.Stat(root, name)
		if err != nil {
			serveFile(w, root, "no_result.html")
			return
		}
		serveFile(w, root, name)
	})
	return mux
}
