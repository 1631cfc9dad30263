// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// levelProcessor drops records below the minimum severity configured for
// their logger name. Logger names are matched by longest prefix, so a level
// for "github.com/z5labs/tamed" also applies to "github.com/z5labs/tamed/queue".
type levelProcessor struct {
	inner    sdklog.Processor
	fallback log.Severity
	levels   map[string]log.Severity
	prefixes []string
}

func newLevelProcessor(inner sdklog.Processor, levels map[string]string) *levelProcessor {
	p := &levelProcessor{
		inner:    inner,
		fallback: log.SeverityInfo,
		levels:   make(map[string]log.Severity, len(levels)),
		prefixes: make([]string, 0, len(levels)),
	}
	for name, level := range levels {
		p.levels[name] = parseLogLevel(level)
		p.prefixes = append(p.prefixes, name)
	}

	slices.SortFunc(p.prefixes, func(a, b string) int {
		return len(b) - len(a)
	})
	return p
}

// parseLogLevel maps a level name onto a [log.Severity]. Unknown names
// are treated as debug.
func parseLogLevel(level string) log.Severity {
	switch strings.ToLower(level) {
	case "trace":
		return log.SeverityTrace1
	case "debug":
		return log.SeverityDebug
	case "info":
		return log.SeverityInfo
	case "warn", "warning":
		return log.SeverityWarn
	case "error":
		return log.SeverityError
	default:
		return log.SeverityDebug
	}
}

// OnEmit implements the [sdklog.Processor] interface.
func (p *levelProcessor) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if record.Severity() < p.minimum(record.InstrumentationScope().Name) {
		return nil
	}
	return p.inner.OnEmit(ctx, record)
}

func (p *levelProcessor) minimum(loggerName string) log.Severity {
	if level, ok := p.levels[loggerName]; ok {
		return level
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(loggerName, prefix) {
			return p.levels[prefix]
		}
	}
	return p.fallback
}

// Shutdown implements the [sdklog.Processor] interface.
func (p *levelProcessor) Shutdown(ctx context.Context) error {
	return p.inner.Shutdown(ctx)
}

// ForceFlush implements the [sdklog.Processor] interface.
func (p *levelProcessor) ForceFlush(ctx context.Context) error {
	return p.inner.ForceFlush(ctx)
}
