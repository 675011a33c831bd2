package seogen

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"seopro/app/internal/domain/content"
	"seopro/app/internal/domain/failure"
)

type runner struct {
	factory ServiceFactory
	out     io.Writer
}

func (r *runner) titlesAction(c *cli.Context) error {
	req := singleRequest(c, content.KindTitle)
	return r.run(c, func(ctx context.Context, svc content.Service) (any, error) {
		return svc.GenerateTitles(ctx, req)
	})
}

func (r *runner) descriptionsAction(c *cli.Context) error {
	req := singleRequest(c, content.KindDescription)
	return r.run(c, func(ctx context.Context, svc content.Service) (any, error) {
		return svc.GenerateDescriptions(ctx, req)
	})
}

func (r *runner) bothAction(c *cli.Context) error {
	req := content.BothRequest{
		CurrentTitle:       c.String("current-title"),
		CurrentDescription: c.String("current-description"),
		TargetKeyword:      c.String("keyword"),
		PageContentSummary: c.String("summary"),
		PageURL:            c.String("url"),
		Tone:               c.String("tone"),
		CandidateCount:     content.ClampCandidateCount(c.Int("count")),
	}
	return r.run(c, func(ctx context.Context, svc content.Service) (any, error) {
		return svc.GenerateBoth(ctx, req)
	})
}

func (r *runner) usageAction(c *cli.Context) error {
	return r.run(c, func(ctx context.Context, svc content.Service) (any, error) {
		return svc.Usage(ctx)
	})
}

func (r *runner) run(c *cli.Context, call func(context.Context, content.Service) (any, error)) error {
	format := strings.ToLower(strings.TrimSpace(c.String("format")))
	if format != FormatJSON && format != FormatYAML {
		return cli.Exit(eris.Errorf("unsupported format %q: use json or yaml", format).Error(), 2)
	}

	svc, release, err := r.factory(c.Context)
	if err != nil {
		return eris.Wrap(err, "initialising generation service")
	}
	defer func() {
		_ = release()
	}()

	result, err := call(c.Context, svc)
	if err != nil {
		return cli.Exit(describeFailure(err), 1)
	}

	return writeResult(r.out, format, result)
}

func singleRequest(c *cli.Context, kind content.Kind) content.GenerationRequest {
	return content.GenerationRequest{
		Kind:               kind,
		CurrentText:        c.String("current"),
		TargetKeyword:      c.String("keyword"),
		PageContentSummary: c.String("summary"),
		PageURL:            c.String("url"),
		Tone:               c.String("tone"),
		CandidateCount:     content.ClampCandidateCount(c.Int("count")),
	}
}

func describeFailure(err error) string {
	if kind, ok := failure.KindOf(err); ok {
		return string(kind) + ": " + failure.MessageOf(err)
	}
	return err.Error()
}

func writeResult(out io.Writer, format string, result any) error {
	var (
		payload []byte
		err     error
	)

	switch format {
	case FormatYAML:
		payload, err = yaml.Marshal(result)
	default:
		payload, err = json.MarshalIndent(result, "", "  ")
		payload = append(payload, '\n')
	}
	if err != nil {
		return eris.Wrapf(err, "encoding result as %s", format)
	}

	if _, err := out.Write(payload); err != nil {
		return eris.Wrap(err, "writing result")
	}
	return nil
}
