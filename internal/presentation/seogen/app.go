// Package seogen exposes the generation service as the seogen command line tool.
package seogen

import (
	"context"
	"io"

	"github.com/urfave/cli/v2"

	"seopro/app/internal/domain/content"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ServiceFactory builds the generation service and returns a release function.
type ServiceFactory func(ctx context.Context) (content.Service, func() error, error)

// NewApp assembles the seogen commands. Results are written to out.
func NewApp(factory ServiceFactory, out io.Writer) *cli.App {
	r := &runner{factory: factory, out: out}

	return &cli.App{
		Name:  "seogen",
		Usage: "generate scored SEO titles and meta descriptions",
		Commands: []*cli.Command{
			{
				Name:   "titles",
				Usage:  "generate title tag candidates",
				Flags:  append(requestFlags(), currentFlag("current title tag")),
				Action: r.titlesAction,
			},
			{
				Name:   "descriptions",
				Usage:  "generate meta description candidates",
				Flags:  append(requestFlags(), currentFlag("current meta description")),
				Action: r.descriptionsAction,
			},
			{
				Name:  "both",
				Usage: "generate titles and descriptions concurrently",
				Flags: append(requestFlags(),
					&cli.StringFlag{Name: "current-title", Usage: "current title tag"},
					&cli.StringFlag{Name: "current-description", Usage: "current meta description"},
				),
				Action: r.bothAction,
			},
			{
				Name:   "usage",
				Usage:  "print the aggregated usage ledger",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.usageAction,
			},
		},
	}
}

func requestFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "target keyword"},
		&cli.StringFlag{Name: "summary", Aliases: []string{"s"}, Usage: "page content summary, plain text or HTML"},
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "page URL"},
		&cli.StringFlag{Name: "tone", Aliases: []string{"t"}, Value: content.DefaultTone, Usage: "writing tone"},
		&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: content.DefaultCandidateCount, Usage: "number of candidates, clamped to 3-5"},
		formatFlag(),
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: FormatJSON, Usage: "output format: json or yaml"}
}

func currentFlag(usage string) cli.Flag {
	return &cli.StringFlag{Name: "current", Aliases: []string{"c"}, Usage: usage}
}
