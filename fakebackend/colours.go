package fakebackend

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gorilla/mux"
)

var methodColors = map[string]*color.Color{
	"GET":    color.New(color.FgGreen),
	"POST":   color.New(color.FgBlue),
	"PUT":    color.New(color.FgCyan),
	"DELETE": color.New(color.FgYellow),
	"PATCH":  color.New(color.FgMagenta),
}

var gray = color.New(color.FgHiBlack)

// LogRoutes prints every registered route with a coloured method column.
func (s *Server) LogRoutes(w io.Writer) error {
	return s.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{""}
		}
		for _, method := range methods {
			fmt.Fprintf(w, "[%s] %s\n", colorMethod(method), path)
		}
		return nil
	})
}

func colorMethod(method string) string {
	padded := fmt.Sprintf(" %-7s", strings.ToUpper(method))
	if c, ok := methodColors[method]; ok {
		return c.Sprint(padded)
	}
	return gray.Sprint(padded)
}
