package report

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/infrastructure"
	"salespulse/pkg/contracts/domain"
)

// FileName is the download name of the generated report.
const FileName = "sales_report.pdf"

// Generator builds, renders and prints the sales report.
type Generator struct {
	builder  *Builder
	tmpl     *Template
	renderer Renderer
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewGenerator parses the template and wires the renderer.
func NewGenerator(renderer Renderer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := NewTemplate()
	if err != nil {
		return nil, err
	}
	return &Generator{
		builder:  NewBuilder(),
		tmpl:     tmpl,
		renderer: renderer,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "report"),
	}, nil
}

// HTML renders the report without printing it.
func (g *Generator) HTML(d domain.Dashboard) ([]byte, error) {
	return g.tmpl.Render(g.builder.Build(d))
}

// PDF renders and prints the report for d.
func (g *Generator) PDF(ctx context.Context, d domain.Dashboard) ([]byte, error) {
	ctx, span := infrastructure.Tracer("report").Start(ctx, "report.pdf",
		trace.WithAttributes(attribute.Int("records", d.TotalRecords)))
	defer span.End()
	start := time.Now()

	html, err := g.HTML(d)
	if err != nil {
		g.metrics.RecordReport(ctx, time.Since(start), err)
		return nil, err
	}
	pdf, err := g.renderer.Render(ctx, html)
	g.metrics.RecordReport(ctx, time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		g.logger.ErrorContext(ctx, "report generation failed", slog.String("error", err.Error()))
		return nil, err
	}

	g.logger.InfoContext(ctx, "report generated",
		slog.Int("bytes", len(pdf)),
		slog.Duration("elapsed", time.Since(start)))
	return pdf, nil
}
