package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/jrsteele09/go-partner-portal/apiclient"
	"github.com/jrsteele09/go-partner-portal/session"
	"github.com/jrsteele09/go-partner-portal/users"
	"golang.org/x/term"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":  loginCmd,
	"signup": signupCmd,
	"whoami": whoamiCmd,
	"logout": logoutCmd,
	"get":    getCmd,
	"list":   listCmd,
	"upload": uploadCmd,
	"export": exportCmd,
	"locale": localeCmd,
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("PORTAL_PASSWORD"), "account password (default $PORTAL_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}
	if *password == "" {
		var err error
		if *password, err = promptPassword(a.in, a.out, "password: "); err != nil {
			return err
		}
	}

	a.session.Init(ctx)
	if err := a.session.SignIn(ctx, *email, *password); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	printProfile(a.out, a.session.Snapshot())
	return nil
}

func signupCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	var reg users.Registration
	fs.StringVar(&reg.Email, "email", "", "account email")
	fs.StringVar(&reg.Password, "password", os.Getenv("PORTAL_PASSWORD"), "account password (default $PORTAL_PASSWORD)")
	fs.StringVar(&reg.FirstName, "first-name", "", "first name")
	fs.StringVar(&reg.LastName, "last-name", "", "last name")
	fs.StringVar(&reg.CompanyName, "company", "", "partner company name")
	fs.StringVar(&reg.ContactName, "contact", "", "partner contact name")
	fs.StringVar(&reg.Phone, "phone", "", "contact phone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	reg.PasswordConfirm = reg.Password

	a.session.Init(ctx)
	if err := a.session.SignUp(ctx, reg); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	printProfile(a.out, a.session.Snapshot())
	return nil
}

func whoamiCmd(ctx context.Context, a *app, _ []string) error {
	a.session.Init(ctx)
	snap := a.session.Snapshot()
	if snap.State != session.StateAuthenticated {
		yellow.Fprintln(a.out, "not signed in")
		return nil
	}
	printProfile(a.out, snap)
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	a.session.SignOut(ctx)
	green.Fprintln(a.out, "signed out")
	return nil
}

func getCmd(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: portal get <endpoint>")
	}
	raw, err := a.client.Do(ctx, apiclient.Request{Endpoint: args[0]})
	if err != nil {
		return describe(err)
	}
	return printJSON(a.out, raw)
}

func listCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	all := fs.Bool("all", false, "follow pagination")
	var filters multiFlag
	fs.Var(&filters, "q", "filter as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: portal list [-all] [-q key=value] <resource>")
	}

	query := url.Values{}
	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return fmt.Errorf("list: filter %q is not key=value", f)
		}
		query.Add(key, value)
	}

	endpoint := "/api/" + strings.Trim(fs.Arg(0), "/") + "/"
	list := apiclient.List[map[string]any]
	if *all {
		list = apiclient.ListAll[map[string]any]
	}
	items, err := list(ctx, a.client, endpoint, query)
	if err != nil {
		return describe(err)
	}

	faint.Fprintf(a.out, "%d item(s)\n", len(items))
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return printJSON(a.out, raw)
}

func uploadCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	applicant := fs.Int("applicant", 0, "applicant id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *applicant == 0 || fs.NArg() != 1 {
		return errors.New("usage: portal upload -applicant <id> <file>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := a.portal.Documents.Upload(ctx, *applicant, filepath.Base(f.Name()), f)
	if err != nil {
		return describe(err)
	}
	green.Fprintf(a.out, "uploaded %s as document %d\n", doc.Name, doc.ID)
	return nil
}

func exportCmd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	output := fs.String("o", "", "output file (default: name sent by the server)")
	var filters multiFlag
	fs.Var(&filters, "q", "filter as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: portal export [-o file] <report>")
	}

	query := url.Values{}
	for _, f := range filters {
		if key, value, ok := strings.Cut(f, "="); ok {
			query.Add(key, value)
		}
	}
	d, err := a.portal.Reports.Export(ctx, fs.Arg(0), query)
	if err != nil {
		return describe(err)
	}

	path := *output
	if path == "" {
		path = filepath.Base(d.Filename)
	}
	if path == "" || path == "." || path == "/" {
		path = fs.Arg(0) + ".csv"
	}
	if err := os.WriteFile(path, d.Body, 0o644); err != nil {
		return err
	}
	green.Fprintf(a.out, "wrote %d bytes to %s\n", len(d.Body), path)
	return nil
}

func localeCmd(ctx context.Context, a *app, args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintln(a.out, a.prefs.Locale(ctx))
		return nil
	case 1:
		locale, err := a.prefs.SetLocale(ctx, args[0])
		if err != nil {
			return err
		}
		green.Fprintf(a.out, "locale set to %s\n", locale)
		return nil
	default:
		return errors.New("usage: portal locale [tag]")
	}
}

func printProfile(w io.Writer, snap session.Snapshot) {
	if snap.Profile == nil {
		return
	}
	p := snap.Profile
	bold.Fprintln(w, p.FullName())
	fmt.Fprintf(w, "  email:  %s\n", p.Email)
	fmt.Fprintf(w, "  role:   %s\n", p.Role)
	if p.Partner != nil {
		fmt.Fprintf(w, "  partner: %s (%s)\n", p.Partner.CompanyName, p.Partner.Status)
	}
	if p.Role == users.RolePartner {
		if p.IsActive {
			green.Fprintln(w, "  partner account active")
		} else {
			yellow.Fprintln(w, "  partner account not active yet")
		}
	}
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		faint.Fprintln(w, "(no content)")
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe adds a hint for the failures a user can act on.
func describe(err error) error {
	switch apiclient.Classify(err) {
	case apiclient.FailureSessionExpired:
		return fmt.Errorf("%w (run `portal login` again)", err)
	case apiclient.FailureNetwork:
		return fmt.Errorf("%w (is API_BASE_URL correct?)", err)
	default:
		return err
	}
}

// promptPassword reads a password without echo when in is a terminal, and a
// plain line otherwise (piped input).
func promptPassword(in io.Reader, w io.Writer, prompt string) (string, error) {
	fmt.Fprint(w, prompt)
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
