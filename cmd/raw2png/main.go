package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/hsiraw"
	"github.com/bodgit/hsiraw/raw"
	"github.com/urfave/cli/v2"
)

const defaultDB = "hsiraw.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadPalette(file string) (*raw.Palette, error) {
	if file == "" {
		return nil, nil
	}
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, err
	}
	p := new(raw.Palette)
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return p, nil
}

func options(c *cli.Context) (hsiraw.Options, error) {
	p, err := loadPalette(c.String("palette"))
	if err != nil {
		return hsiraw.Options{}, err
	}
	return hsiraw.Options{
		Output:  c.String("output"),
		Palette: p,
		Colors:  c.Int("colors"),
		Workers: c.Int("jobs"),
	}, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "raw2png"
	app.Usage = "HSI Raw to PNG conversion utility"
	app.Version = "1.0.0"
	app.ArgsUsage = "FILE..."

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			EnvVars: []string{"RAW2PNG_OUTPUT"},
			Usage:   "directory to write images to",
		},
		&cli.StringFlag{
			Name:    "palette",
			Aliases: []string{"p"},
			Usage:   "replace the palette of indexed images with `FILE`",
		},
		&cli.IntFlag{
			Name:    "colors",
			Aliases: []string{"c"},
			Usage:   "reduce RGB images to at most `N` colors",
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() < 1 {
			cli.ShowAppHelpAndExit(c, 1)
		}

		o, err := options(c)
		if err != nil {
			return cli.NewExitError(err, 1)
		}

		h := hsiraw.New(nil, newLogger(c), o)

		for _, file := range c.Args().Slice() {
			if err := h.Convert(file); err != nil {
				return cli.NewExitError(err, 1)
			}
		}

		return nil
	}

	dbFlag := &cli.StringFlag{
		Name:    "db",
		EnvVars: []string{"RAW2PNG_DB"},
		Value:   filepath.Join(cwd, defaultDB),
		Usage:   "path to catalog database",
	}

	app.Commands = []*cli.Command{
		{
			Name:        "scan",
			Usage:       "Convert every HSI Raw image under a directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Flags: []cli.Flag{
				dbFlag,
				&cli.IntFlag{
					Name:    "jobs",
					Aliases: []string{"j"},
					Usage:   "number of files to convert concurrently",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				o, err := options(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				catalog, err := hsiraw.NewCatalog(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer catalog.Close()

				h := hsiraw.New(catalog, newLogger(c), o)

				if err := h.Scan(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "list",
			Usage:       "List the images recorded in the catalog",
			Description: "",
			Flags: []cli.Flag{
				dbFlag,
			},
			Action: func(c *cli.Context) error {
				catalog, err := hsiraw.NewCatalog(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer catalog.Close()

				entries, err := catalog.Entries()
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, e := range entries {
					kind := "rgb"
					if e.Indexed {
						kind = "indexed"
					}
					fmt.Printf("%s %5dx%-5d %-7s %s\n", e.Hash, e.Width, e.Height, kind, e.Path)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
