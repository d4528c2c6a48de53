package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/speakwell/academy/core/markdown"
)

var isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

func (cli *commandLine) preview(path, format string) error {
	var (
		src []byte
		err error
	)
	if path == "-" {
		src, err = ioutil.ReadAll(os.Stdin)
	} else {
		src, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return err
	}

	blocks := markdown.Parse(string(src))
	if blocks == nil {
		blocks = []markdown.Block{}
	}

	if format == "" {
		format = "json"
		if isTerminalFunc() {
			format = "text"
		}
	}
	switch format {
	case "text":
		fmt.Fprintln(cli.out, markdown.PlainText(blocks))
	case "html":
		fmt.Fprint(cli.out, markdown.HTML(blocks))
	case "json":
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return enc.Encode(blocks)
	default:
		return errors.Errorf("unknown format %q", format)
	}
	return nil
}
