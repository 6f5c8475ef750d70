package radon

import (
	"context"
	"iter"
	"log/slog"
	"net/url"
	"strings"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// Evaluations returns a lazy sequence of raw evaluation records for an institution name.
// It follows the same pagination and termination rules as Impacts.
func (c *Client) Evaluations(ctx context.Context, institutionName string, pageSize int) iter.Seq[impact.Record] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	name := strings.TrimSpace(institutionName)

	return func(yield func(impact.Record) bool) {
		if name == "" {
			c.logger.Error("Refusing to page RAD-on evaluations without an institution name")

			return
		}

		params := func() url.Values {
			v := url.Values{}
			v.Set("institutionName", name)

			return v
		}

		c.paginate(ctx, evaluationsPath, params, pageSize, yield,
			slog.String("institution_name", name),
		)
	}
}
