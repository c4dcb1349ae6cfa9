package scrapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/valkhart/grimoire-backend/internal/clients/dofusdb"
	"github.com/valkhart/grimoire-backend/internal/platform/httpx"
	"github.com/valkhart/grimoire-backend/internal/platform/logger"
)

// Caller-facing bounds. The hard ceilings exist so no caller can turn a batch
// import into an unbounded scrape.
const (
	DefaultPageLimit = 50
	DefaultMaxItems  = 500
	HardMaxItems     = 5000
	DefaultMaxPages  = 20
	HardMaxPages     = 200
)

var ErrRecordNotFound = errors.New("upstream record not found")

// Page is one fetched page. EffectiveLimit is the page size the server
// actually applied, which may be smaller than what was requested.
type Page struct {
	Items          []RawRecord
	Total          int
	EffectiveLimit int
	Skip           int
}

// Collection is the bounded result of walking a paginated list endpoint.
type Collection struct {
	Items    []RawRecord
	Total    int
	Returned int
	Pages    int
}

type CollectOptions struct {
	MaxItems int
	MaxPages int
	Lang     string
	NoCache  bool
}

type Collector struct {
	log    *logger.Logger
	client dofusdb.Client
}

func NewCollector(log *logger.Logger, client dofusdb.Client) *Collector {
	return &Collector{
		log:    log.With("component", "Collector"),
		client: client,
	}
}

// listResponse is the Feathers pagination envelope.
type listResponse struct {
	Total int               `json:"total"`
	Limit int               `json:"limit"`
	Skip  int               `json:"skip"`
	Data  []json.RawMessage `json:"data"`
}

// FetchPage fetches one page. Filter values are mapped through the entity's
// filter config and capped at each filter's max cardinality.
func (c *Collector) FetchPage(ctx context.Context, cfg EntityConfig, filters map[string][]string, skip, limit int, opts CollectOptions) (*Page, error) {
	query, err := c.buildQuery(cfg, filters, skip, limit, opts)
	if err != nil {
		return nil, err
	}

	raw, err := c.client.GetJSON(ctx, cfg.Endpoint, query.Values(), dofusdb.RequestOptions{NoCache: opts.NoCache})
	if err != nil {
		return nil, fmt.Errorf("fetch %s page (skip=%d): %w", cfg.Name, skip, err)
	}

	var resp listResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode %s page (skip=%d): %w", cfg.Name, skip, err)
	}

	items := make([]RawRecord, 0, len(resp.Data))
	for _, entry := range resp.Data {
		var rec RawRecord
		if err := json.Unmarshal(entry, &rec); err != nil {
			return nil, fmt.Errorf("decode %s record (skip=%d): %w", cfg.Name, skip, err)
		}
		items = append(items, rec)
	}

	// The server may silently cap the requested limit; its reported limit is
	// authoritative for skip arithmetic.
	effective := resp.Limit
	if effective <= 0 {
		effective = limit
	}

	return &Page{
		Items:          items,
		Total:          resp.Total,
		EffectiveLimit: effective,
		Skip:           resp.Skip,
	}, nil
}

// Collect walks the list endpoint in increasing skip order until one of the
// termination conditions fires.
func (c *Collector) Collect(ctx context.Context, cfg EntityConfig, filters map[string][]string, opts CollectOptions) (*Collection, error) {
	maxItems := clampBound(opts.MaxItems, DefaultMaxItems, HardMaxItems)
	maxPages := clampBound(opts.MaxPages, DefaultMaxPages, HardMaxPages)

	out := &Collection{}
	skip := 0
	limit := DefaultPageLimit

	for {
		if out.Pages >= maxPages {
			c.log.Warn("collection stopped at page bound", "entity", cfg.Name, "pages", out.Pages)
			break
		}

		page, err := c.FetchPage(ctx, cfg, filters, skip, limit, opts)
		if err != nil {
			return nil, err
		}
		out.Pages++
		out.Total = page.Total

		for _, item := range page.Items {
			if out.Returned >= maxItems {
				break
			}
			out.Items = append(out.Items, item)
			out.Returned++
		}

		if out.Returned >= maxItems {
			break
		}
		if len(page.Items) == 0 {
			break
		}
		if len(page.Items) < page.EffectiveLimit {
			// Short page: last one.
			break
		}

		skip += page.EffectiveLimit
		if page.Total > 0 && skip >= page.Total {
			break
		}
	}

	return out, nil
}

// FetchOne fetches a single record by external id.
func (c *Collector) FetchOne(ctx context.Context, cfg EntityConfig, externalID string, opts CollectOptions) (RawRecord, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("empty external id")
	}

	query := dofusdb.NewQuery()
	for key, val := range cfg.DefaultParams {
		query.Set(key, val)
	}
	if opts.Lang != "" {
		query.Set("lang", opts.Lang)
	}

	path := strings.TrimRight(cfg.Endpoint, "/") + "/" + externalID
	raw, err := c.client.GetJSON(ctx, path, query.Values(), dofusdb.RequestOptions{NoCache: opts.NoCache})
	if err != nil {
		var sc httpx.HTTPStatusCoder
		if errors.As(err, &sc) && sc.HTTPStatusCode() == 404 {
			return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, cfg.Name, externalID)
		}
		return nil, fmt.Errorf("fetch %s/%s: %w", cfg.Name, externalID, err)
	}

	var rec RawRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", cfg.Name, externalID, err)
	}
	return rec, nil
}

func (c *Collector) buildQuery(cfg EntityConfig, filters map[string][]string, skip, limit int, opts CollectOptions) (*dofusdb.Query, error) {
	query := dofusdb.NewQuery().SetLimit(limit).SetSkip(skip)
	for key, val := range cfg.DefaultParams {
		query.Set(key, val)
	}
	if opts.Lang != "" {
		query.Set("lang", opts.Lang)
	}

	for name, vals := range filters {
		fc, ok := cfg.Filters[name]
		if !ok {
			return nil, fmt.Errorf("entity %q: unsupported filter %q", cfg.Name, name)
		}
		if fc.MaxValues > 0 && len(vals) > fc.MaxValues {
			vals = vals[:fc.MaxValues]
			c.log.Warn("filter values truncated to cap",
				"entity", cfg.Name, "filter", name, "cap", fc.MaxValues)
		}
		if field, ok := strings.CutSuffix(fc.Param, "[$in][]"); ok {
			query.AddIn(field, vals...)
		} else if len(vals) > 0 {
			query.Set(fc.Param, vals[0])
		}
	}
	return query, nil
}

func clampBound(requested, def, ceiling int) int {
	if requested <= 0 {
		return def
	}
	if requested > ceiling {
		return ceiling
	}
	return requested
}
