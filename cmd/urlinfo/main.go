// Command urlinfo parses URLs and prints their components.
//
// Usage:
//
//	urlinfo [-base URL] [-idna] [-json] [-dev] URL...
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ghettovoice/ufetch/host"
	"github.com/ghettovoice/ufetch/internal/log"
	"github.com/ghettovoice/ufetch/url"
)

type components struct {
	Href     string `json:"href"`
	Origin   string `json:"origin"`
	Protocol string `json:"protocol"`
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
	Hostname string `json:"hostname"`
	Port     string `json:"port"`
	Pathname string `json:"pathname"`
	Search   string `json:"search"`
	Hash     string `json:"hash"`
}

func componentsOf(u *url.URL) components {
	return components{
		Href:     u.Href(),
		Origin:   u.Origin(),
		Protocol: u.Protocol(),
		Username: u.Username(),
		Password: u.Password(),
		Host:     u.Host(),
		Hostname: u.Hostname(),
		Port:     u.Port(),
		Pathname: u.Pathname(),
		Search:   u.Search(),
		Hash:     u.Hash(),
	}
}

func (c components) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"href:     %s\norigin:   %s\nprotocol: %s\nusername: %s\npassword: %s\nhost:     %s\n"+
			"hostname: %s\nport:     %s\npathname: %s\nsearch:   %s\nhash:     %s\n",
		c.Href, c.Origin, c.Protocol, c.Username, c.Password, c.Host,
		c.Hostname, c.Port, c.Pathname, c.Search, c.Hash,
	)
	return err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, nil))
}

// run returns the process exit code: 0 when every input parsed,
// 1 when some input failed and 2 on usage errors.
// A nil logger selects one by the -dev flag.
func run(args []string, stdout io.Writer, logger *slog.Logger) int {
	fs := flag.NewFlagSet("urlinfo", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var (
		baseStr = fs.String("base", "", "base URL to resolve relative inputs against")
		useIDNA = fs.Bool("idna", false, "apply UTS #46 processing to domains")
		asJSON  = fs.Bool("json", false, "print components as JSON lines")
		dev     = fs.Bool("dev", false, "use the developer log format")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	if logger == nil {
		logger = log.Def
		if *dev {
			logger = log.Dev
		}
	}

	opts := &url.ParseOptions{ToASCII: host.LowerCase}
	if *useIDNA {
		opts.ToASCII = host.IDNA
	}
	logger.Debug("urlinfo started", slog.Any("options", log.FmtValue(opts, false)))

	var base *url.URL
	if *baseStr != "" {
		var err error
		if base, err = url.ParseWithOptions(*baseStr, nil, opts); err != nil {
			logger.Error("failed to parse base URL", slog.Any("input", log.StringValue(*baseStr)), slog.Any("error", err))
			return 2
		}
	}

	code := 0
	enc := json.NewEncoder(stdout)
	for i, in := range fs.Args() {
		u, err := url.ParseWithOptions(in, base, opts)
		if err != nil {
			logger.Error("failed to parse URL", slog.Any("input", log.StringValue(in)), slog.Any("error", err))
			code = 1
			continue
		}
		logger.Debug("URL parsed", slog.Any("url", u))

		c := componentsOf(u)
		if *asJSON {
			err = enc.Encode(c)
		} else {
			if i > 0 {
				fmt.Fprintln(stdout) //nolint:errcheck
			}
			err = c.writeText(stdout)
		}
		if err != nil {
			logger.Error("failed to write output", slog.Any("error", err))
			return 1
		}
	}
	return code
}
