package service

import (
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const report_http_encode = "http.encode"

// Handler routes the JSON API:
//
//	GET /                      {"Hello": "World"}
//	GET /sem?htno=<roll>&sem=<semester>
//	GET /academic?htno=<roll>
//	GET /codes
func (s Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]string{"Hello": "World"})
	})
	mux.HandleFunc("GET /sem", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		res := s.SemesterResult(r.Context(), query.Get("htno"), query.Get("sem"))
		s.writeJSON(w, res.Status, res)
	})
	mux.HandleFunc("GET /academic", func(w http.ResponseWriter, r *http.Request) {
		res := s.AcademicResult(r.Context(), r.URL.Query().Get("htno"))
		s.writeJSON(w, res.Status, res)
	})
	mux.HandleFunc("GET /codes", func(w http.ResponseWriter, r *http.Request) {
		res := s.ExamCodes(r.Context())
		s.writeJSON(w, res.Status, res)
	})

	return otelhttp.NewHandler(mux, "resultsd")
}

func (s Service) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		s.tel.ReportWarning(report_http_encode, err)
	}
}
