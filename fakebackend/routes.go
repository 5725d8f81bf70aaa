package fakebackend

import (
	"net/http"
)

const (
	RouteLogin        = "/api/auth/login/"
	RouteRegister     = "/api/auth/register/"
	RouteTokenRefresh = "/api/auth/token/refresh/"
	RouteMe           = "/api/auth/me/"

	RouteDocuments        = "/api/documents/"
	RouteDocumentDownload = "/api/documents/{id:[0-9]+}/download/"
	RouteReportExport     = "/api/reports/{name:[a-z_]+}/export/"
	RouteCollection       = "/api/{resource:[a-z_]+}/"
	RouteRecord           = "/api/{resource:[a-z_]+}/{id:[0-9]+}/"
)

func (s *Server) initRoutes() {
	// AUTH
	s.router.HandleFunc(RouteLogin, s.LoginHandler()).Methods(http.MethodPost)
	s.router.HandleFunc(RouteRegister, s.RegisterHandler()).Methods(http.MethodPost)
	s.router.HandleFunc(RouteTokenRefresh, s.RefreshHandler()).Methods(http.MethodPost)
	s.router.HandleFunc(RouteMe, s.authenticated(s.MeHandler())).Methods(http.MethodGet)

	// Files
	s.router.HandleFunc(RouteDocuments, s.authenticated(s.UploadDocumentHandler())).
		Methods(http.MethodPost).
		HeadersRegexp("Content-Type", "^multipart/form-data")
	s.router.HandleFunc(RouteDocumentDownload, s.authenticated(s.DownloadDocumentHandler())).Methods(http.MethodGet)
	s.router.HandleFunc(RouteReportExport, s.authenticated(s.ExportReportHandler())).Methods(http.MethodGet)

	// Generic collections
	s.router.HandleFunc(RouteCollection, s.authenticated(s.ListHandler())).Methods(http.MethodGet)
	s.router.HandleFunc(RouteCollection, s.authenticated(s.CreateHandler())).Methods(http.MethodPost)
	s.router.HandleFunc(RouteRecord, s.authenticated(s.RetrieveHandler())).Methods(http.MethodGet)
	s.router.HandleFunc(RouteRecord, s.authenticated(s.UpdateHandler(false))).Methods(http.MethodPut)
	s.router.HandleFunc(RouteRecord, s.authenticated(s.UpdateHandler(true))).Methods(http.MethodPatch)
	s.router.HandleFunc(RouteRecord, s.authenticated(s.DestroyHandler())).Methods(http.MethodDelete)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found.")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method \""+r.Method+"\" not allowed.")
	})
}
