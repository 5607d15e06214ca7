package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*webPortFlag)(nil)

// webPortFlag implements pflag.Value for --port: --port= → default, --port 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func newWebPortFlag(defaultPort int) *webPortFlag {
	return &webPortFlag{val: defaultPort, defaultPort: defaultPort}
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) Type() string { return "port" }

func (w *webPortFlag) port() int { return w.val }

// addOutputFlag registers -o/--output on fs.
func addOutputFlag(fs *pflag.FlagSet, p *string, def, usage string) {
	fs.StringVarP(p, "output", "o", def, usage)
}
