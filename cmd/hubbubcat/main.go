// Command hubbubcat parses an HTML document from a file or stdin and
// prints either the constructed tree (html5lib dump format) or the raw
// token stream. It demonstrates the full embedder contract, including the
// encoding-change restart loop.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	hubbub "github.com/gohubbub/hubbub"
	"github.com/gohubbub/hubbub/internal/domtest"
	"github.com/gohubbub/hubbub/token"
)

var (
	tokensMode bool
	encoding   string
	chunkSize  int
	scripting  bool
	showErrors bool
)

func init() {
	rootCmd.Flags().BoolVarP(&tokensMode, "tokens", "t", false, "print the token stream instead of the tree")
	rootCmd.Flags().StringVarP(&encoding, "encoding", "e", "", "declared document encoding (overrides detection)")
	rootCmd.Flags().IntVar(&chunkSize, "chunk", 4096, "feed the parser in chunks of this many bytes")
	rootCmd.Flags().BoolVar(&scripting, "scripting", false, "parse with scripting enabled")
	rootCmd.Flags().BoolVar(&showErrors, "errors", false, "report recoverable parse errors on stderr")
}

var rootCmd = &cobra.Command{
	Use:   "hubbubcat [file]",
	Short: "parse an HTML document and print the tree or token stream",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var src []byte
		var err error
		if len(args) == 1 {
			src, err = os.ReadFile(args[0])
		} else {
			src, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return err
		}

		declared := encoding
		for {
			restart, err := run(src, declared)
			if err == nil {
				return nil
			}
			var enc *hubbub.EncodingChangeError
			if errors.As(err, &enc) && restart {
				declared = enc.Name
				continue
			}
			return err
		}
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// run parses src once. It reports restart=true when the returned error is
// an encoding change that a re-parse with the new declared encoding would
// resolve.
func run(src []byte, declared string) (restart bool, err error) {
	opts := []hubbub.Option{
		hubbub.WithDeclaredEncoding(declared),
		hubbub.WithScripting(scripting),
	}
	if showErrors {
		opts = append(opts, hubbub.WithErrorHandler(func(line, col int, msg string) {
			fmt.Fprintf(os.Stderr, "%d:%d: %s\n", line, col, msg)
		}))
	}

	var handler *domtest.Handler
	if tokensMode {
		opts = append(opts, hubbub.WithTokenHandler(printToken))
	} else {
		handler = domtest.New()
		opts = append(opts, hubbub.WithTreeHandler(handler, handler.Document))
	}

	p, err := hubbub.NewParser(opts...)
	if err != nil {
		return false, err
	}

	for off := 0; off < len(src); off += chunkSize {
		end := off + chunkSize
		if end > len(src) {
			end = len(src)
		}
		if err := p.ParseChunk(src[off:end]); err != nil {
			return true, err
		}
	}
	if err := p.Completed(); err != nil {
		return true, err
	}

	if cs, err := p.ReadCharset(); err == nil {
		fmt.Fprintf(os.Stderr, "encoding: %s (%s)\n", cs.Name, cs.Source)
	}
	if handler != nil {
		domtest.Dump(os.Stdout, handler.Document)
	}
	return false, nil
}

func printToken(tok token.Token) {
	switch tok.Type {
	case token.Doctype:
		fmt.Printf("DOCTYPE %q public=%q system=%q quirks=%v\n",
			tok.Doctype.Name, tok.Doctype.PublicID, tok.Doctype.SystemID, tok.Doctype.ForceQuirks)
	case token.StartTag:
		fmt.Printf("START %s", tok.Tag.Name)
		for _, a := range tok.Tag.Attr {
			fmt.Printf(" %s=%q", a.Name, a.Value)
		}
		if tok.Tag.SelfClosing {
			fmt.Print(" /")
		}
		fmt.Println()
	case token.EndTag:
		fmt.Printf("END %s\n", tok.Tag.Name)
	case token.Comment:
		fmt.Printf("COMMENT %q\n", tok.Text)
	case token.Character:
		fmt.Printf("CHAR %q\n", tok.Text)
	case token.EOF:
		fmt.Println("EOF")
	}
}
