package cli

import (
	"context"
	"log/slog"

	"sqlpp/internal/domain"
	"sqlpp/internal/mapper"
	"sqlpp/pkg/sqlfmt"
)

// formatter is what the commands format through: the library in process, or
// a sqlpp server.
type formatter interface {
	Format(ctx context.Context, sql string) (string, error)
	Mapper(ctx context.Context, doc []byte) ([]byte, mapper.Result, error)
}

type localFormatter struct {
	opts   sqlfmt.Options
	logger *slog.Logger
}

func (f *localFormatter) Format(_ context.Context, sql string) (string, error) {
	return sqlfmt.FormatWithOptions(sql, f.opts)
}

func (f *localFormatter) Mapper(_ context.Context, doc []byte) ([]byte, mapper.Result, error) {
	rw, err := mapper.NewRewriter(f.opts, f.logger)
	if err != nil {
		return nil, mapper.Result{}, err
	}
	return rw.Rewrite(doc)
}

type remoteFormatter struct {
	client *Client
	opts   sqlfmt.Options
}

func (f *remoteFormatter) Format(ctx context.Context, sql string) (string, error) {
	resp, err := f.client.Format(ctx, domain.FormatRequest{
		SQL:         sql,
		LineWidth:   f.opts.LineWidth,
		IndentWidth: f.opts.IndentWidth,
		AliasStyle:  f.opts.AliasStyle,
	})
	if err != nil {
		return "", err
	}
	return resp.Formatted, nil
}

func (f *remoteFormatter) Mapper(ctx context.Context, doc []byte) ([]byte, mapper.Result, error) {
	resp, err := f.client.Mapper(ctx, domain.MapperRequest{
		XML:         string(doc),
		LineWidth:   f.opts.LineWidth,
		IndentWidth: f.opts.IndentWidth,
		AliasStyle:  f.opts.AliasStyle,
	})
	if err != nil {
		return nil, mapper.Result{}, err
	}
	return []byte(resp.XML), mapper.Result{
		Statements: resp.Statements,
		Formatted:  resp.Formatted,
		Dynamic:    resp.Dynamic,
		Failed:     resp.Failed,
	}, nil
}
