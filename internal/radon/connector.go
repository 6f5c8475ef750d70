package radon

import (
	"context"
	"errors"

	"github.com/patthub/impact-measurement-tool/internal/impact"
)

// ErrNotSupported is returned by connector operations a source does not implement.
var ErrNotSupported = errors.New("operation not supported by connector")

type (
	// Capabilities describes which optional operations a connector implements.
	Capabilities struct {
		SupportsSearch     bool
		SupportsSearchByID bool
		SupportsPagination bool
		SupportsRateLimit  bool
	}

	// Connector is the generic contract for external bibliographic sources.
	// Either query operation may return ErrNotSupported; callers check Capabilities first.
	Connector interface {
		Name() string
		Capabilities() Capabilities
		Search(ctx context.Context, query string, topK int) ([]impact.Record, error)
		SearchByID(ctx context.Context, id string) ([]impact.Record, error)
	}
)

var _ Connector = (*Client)(nil)

// Name identifies the source.
func (c *Client) Name() string {
	return "radon"
}

// Capabilities reports that RAD-on is reachable only through scoped paging.
func (c *Client) Capabilities() Capabilities {
	return Capabilities{
		SupportsPagination: true,
		SupportsRateLimit:  true,
	}
}

// Search is not offered by the open-data API; use Impacts or Evaluations.
func (c *Client) Search(context.Context, string, int) ([]impact.Record, error) {
	return nil, ErrNotSupported
}

// SearchByID is not offered by the open-data API; use Impacts or Evaluations.
func (c *Client) SearchByID(context.Context, string) ([]impact.Record, error) {
	return nil, ErrNotSupported
}
