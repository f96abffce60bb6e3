package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/BenWCode/MuseApp/internal/errors"
	"github.com/BenWCode/MuseApp/internal/ingest"
	"github.com/BenWCode/MuseApp/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "museapp",
		Usage:   "Personal museum: ingest, lay out, and persist an exhibit collection",
		Version: Version,
		Commands: []*cli.Command{
			ingestCmd(a),
			writeCmd(a),
			itemsCmd(a),
			exportCmd(a),
			importCmd(a),
			saveLocalCmd(a),
			loadLocalCmd(a),
			serveCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// ingestCmd creates the ingest command.
func ingestCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Add image and text files to the collection",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "captions", Usage: "Prompt for a caption per image"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one file path is required"))
			}

			sources := make([]ingest.Source, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				data, err := os.ReadFile(path)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot read %s: %v", path, err)))
				}
				var modTime time.Time
				if info, err := os.Stat(path); err == nil {
					modTime = info.ModTime()
				}
				sources = append(sources, ingest.Source{
					Name:    filepath.Base(path),
					ModTime: modTime,
					Data:    data,
				})
			}

			withCaptions := c.Bool("captions") && isTerminal()
			pipeline := a.pipeline(withCaptions)
			if withCaptions {
				stop := runCaptionReader(a.prompt, os.Stdin, os.Stdout)
				defer stop()
			}

			output, err := pipeline.IngestFiles(c.Context, sources)
			if err != nil {
				return outputError(err)
			}
			if err := a.persist(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// writeCmd creates the write command.
func writeCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "write",
		Usage: "Add a written text entry (reads from stdin unless --text is given)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "text", Aliases: []string{"t"}, Usage: "Entry text"},
		},
		Action: func(c *cli.Context) error {
			text := c.String("text")
			if text == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("entry text must be piped via stdin or passed with --text"))
				}
				read, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				text = read
			}

			output, err := a.pipeline(false).IngestText(c.Context, text)
			if err != nil {
				return outputError(err)
			}
			if err := a.persist(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// itemsCmd creates the items command.
func itemsCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "List the current collection in display order",
		Action: func(c *cli.Context) error {
			items := a.gallery.Items()

			type row struct {
				ID         string    `json:"id"`
				Kind       string    `json:"kind"`
				FileName   string    `json:"file_name"`
				CapturedAt time.Time `json:"captured_at"`
				Caption    string    `json:"caption,omitempty"`
				Location   string    `json:"location,omitempty"`
			}
			rows := make([]row, 0, len(items))
			for _, it := range items {
				rows = append(rows, row{
					ID:         it.ID,
					Kind:       string(it.Kind),
					FileName:   it.FileName,
					CapturedAt: it.CapturedAt,
					Caption:    it.Caption,
					Location:   it.Location,
				})
			}
			return outputJSON(map[string]any{"count": len(rows), "items": rows})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the collection to an archive file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.museapp/exports/museum-<timestamp>.zip)"},
		},
		Action: func(c *cli.Context) error {
			path := c.String("path")
			if path == "" {
				dir := filepath.Join(a.baseDir, "exports")
				if err := os.MkdirAll(dir, 0700); err != nil {
					return outputError(errors.NewStorage(err))
				}
				path = filepath.Join(dir, fmt.Sprintf("museum-%s.zip", time.Now().UTC().Format("20060102-150405")))
			}

			if err := a.codec.ExportArchiveFile(path); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"path": path, "items": a.gallery.Len()})
		},
	}
}

// importCmd creates the import command.
func importCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Replace the collection with a save file (archive or legacy)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Save file path"},
		},
		Action: func(c *cli.Context) error {
			data, err := os.ReadFile(c.String("path"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot read %s: %v", c.String("path"), err)))
			}

			output, err := a.codec.Import(c.Context, data)
			if err != nil {
				return outputError(err)
			}
			if err := a.persist(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// saveLocalCmd creates the save-local command.
func saveLocalCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "save-local",
		Usage: "Save the collection into the local blob store",
		Action: func(c *cli.Context) error {
			output, err := a.codec.SaveLocal(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// loadLocalCmd creates the load-local command.
func loadLocalCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "load-local",
		Usage: "Restore the collection from the local save",
		Action: func(c *cli.Context) error {
			output, err := a.codec.LoadLocal(c.Context)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the museum web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8674, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			deps := web.Deps{
				Gallery: a.gallery,
				Codec:   a.codec,
				// The web UI has no surface for resolving prompts, so its
				// pipeline runs captionless.
				Pipeline: a.pipeline(false),
				Blobs:    a.store,
				Config:   a.cfg,
			}
			srv := web.NewServer(deps, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// runCaptionReader answers caption prompts from an interactive terminal.
// Returns a stop function that abandons any prompt still pending.
func runCaptionReader(prompt *ingest.CaptionPrompt, in io.Reader, out io.Writer) (stop func()) {
	reader := bufio.NewReader(in)
	done := make(chan struct{})

	prompt.Notify = func(fileName string) {
		fmt.Fprintf(out, "Caption for %s (enter to skip): ", fileName)
		go func() {
			line, err := reader.ReadString('\n')
			if err != nil {
				prompt.Abandon()
				return
			}
			select {
			case <-done:
				prompt.Abandon()
			default:
				prompt.Resolve(strings.TrimSpace(line))
			}
		}()
	}

	return func() {
		close(done)
		prompt.Notify = nil
		prompt.Abandon()
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if mErr, ok := err.(*errors.MuseumError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", mErr.Code, mErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
