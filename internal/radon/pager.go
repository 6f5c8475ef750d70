package radon

import (
	"context"
	"iter"
	"log/slog"
	"net/url"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// Impacts returns a lazy sequence of raw impact records for scope, following pagination tokens.
//
// The sequence ends when a page has no results, when the next token is empty or equal to the
// current one, or when a page cannot be fetched. Fetch failures are logged and end the
// sequence without an error; consumers see a truncated run.
func (c *Client) Impacts(ctx context.Context, scope Scope, pageSize int) iter.Seq[impact.Record] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return func(yield func(impact.Record) bool) {
		if err := scope.Validate(); err != nil {
			c.logger.Error("Refusing to page RAD-on impacts", slog.String("error", err.Error()))

			return
		}

		params := func() url.Values {
			v := url.Values{}
			v.Set(scope.Param(), scope.Value)

			return v
		}

		c.paginate(ctx, impactsPath, params, pageSize, yield,
			slog.String("scope_kind", string(scope.Kind)),
			slog.String("scope_value", scope.Value),
		)
	}
}

// paginate drives the shared token loop for every paged endpoint.
func (c *Client) paginate(
	ctx context.Context,
	path string,
	params func() url.Values,
	pageSize int,
	yield func(impact.Record) bool,
	attrs ...any,
) {
	token := ""

	for pageNo := 1; ; pageNo++ {
		if ctx.Err() != nil {
			return
		}

		displayToken := token
		if displayToken == "" {
			displayToken = "<none>"
		}

		c.logger.Info("Fetching RAD-on page",
			append([]any{
				slog.String("path", path),
				slog.Int("page", pageNo),
				slog.Int("page_size", pageSize),
				slog.String("token", displayToken),
			}, attrs...)...,
		)

		page, err := c.fetchPage(ctx, path, params(), pageSize, token)
		if err != nil {
			c.logger.Error("Failed to fetch RAD-on page, stopping",
				append([]any{
					slog.String("path", path),
					slog.Int("page", pageNo),
					slog.String("error", err.Error()),
				}, attrs...)...,
			)

			return
		}

		if page.RawCount == 0 {
			c.logger.Info("No further results", append([]any{slog.String("path", path)}, attrs...)...)

			return
		}

		for _, rec := range page.Results {
			if !yield(rec) {
				return
			}
		}

		if page.NextToken == "" || page.NextToken == token {
			c.logger.Info("No next pagination token, done", append([]any{slog.String("path", path)}, attrs...)...)

			return
		}

		token = page.NextToken
	}
}
