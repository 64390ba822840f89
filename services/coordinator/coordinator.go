// Package coordinator answers every message the storage context accepts.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"sjsage522/dealscout/internal/extractor"
	"sjsage522/dealscout/internal/listing"
	"sjsage522/dealscout/logger"
	apperrors "sjsage522/dealscout/pkg/errors"
	"sjsage522/dealscout/services/storage"
	"sjsage522/dealscout/services/transport"
)

// Store is the part of storage.Service the coordinator uses
type Store interface {
	UpsertOne(ctx context.Context, rec listing.Record) (storage.UpsertResult, error)
	UpsertBatch(ctx context.Context, recs []listing.Record) (storage.BatchResult, error)
	GetAll(ctx context.Context) ([]listing.Record, error)
	GetByID(ctx context.Context, site listing.Site, id string) (*listing.Record, error)
	DeleteByID(ctx context.Context, site listing.Site, id string) (int, error)
	ClearAll(ctx context.Context) error
	GetStats(ctx context.Context) (storage.Stats, error)
}

// Inspector extracts a page on demand
type Inspector interface {
	Inspect(ctx context.Context, rawURL, html string) (extractor.Attempt, error)
}

// Analyzer produces an opinion on a listing
type Analyzer interface {
	Analyze(ctx context.Context, rec *listing.Record) (string, error)
}

const errUnsupportedSite = "Unsupported site"

// Coordinator binds message types to the store, the inspector and the analyzer
type Coordinator struct {
	store       Store
	inspector   Inspector
	analyzer    Analyzer
	autoAnalyze bool
	log         *logger.Logger
	wg          sync.WaitGroup
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithInspector enables GET_DATA and GET_LIST
func WithInspector(i Inspector) Option {
	return func(c *Coordinator) { c.inspector = i }
}

// WithAnalyzer enables ANALYZE_REQUEST; auto analyzes every saved detail record
func WithAnalyzer(a Analyzer, auto bool) Option {
	return func(c *Coordinator) {
		c.analyzer = a
		c.autoAnalyze = auto
	}
}

// New creates a coordinator over store
func New(store Store, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, log: logger.ForTransport()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register installs every handler on r
func (c *Coordinator) Register(r *transport.Router) {
	r.Handle(transport.TypeSaveListing, c.saveListing)
	r.Handle(transport.TypePropertyData, c.saveListing)
	r.Handle(transport.TypeSaveListings, c.saveListings)
	r.Handle(transport.TypeListData, c.saveListings)
	r.Handle(transport.TypeGetListing, c.getListing)
	r.Handle(transport.TypeGetAllListings, c.getAllListings)
	r.Handle(transport.TypeDeleteListing, c.deleteListing)
	r.Handle(transport.TypeClearAll, c.clearAll)
	r.Handle(transport.TypeGetStats, c.getStats)
	r.Handle(transport.TypeGetData, c.extract(listing.PageDetail))
	r.Handle(transport.TypeGetList, c.extract(listing.PageList))
	r.Handle(transport.TypeAnalyzeRequest, c.analyze)
}

// Wait blocks until background analyses finished
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

func (c *Coordinator) saveListing(ctx context.Context, msg transport.Message) transport.Response {
	rec, err := msg.DecodeRecord()
	if err != nil {
		return transport.Fail("invalid listing: " + err.Error())
	}
	res, err := c.store.UpsertOne(ctx, rec)
	if err != nil {
		c.log.Error().Err(err).Str("type", string(msg.Type)).Msg("Failed to save listing")
		return transport.Fail(err.Error())
	}

	c.log.Debug().
		Str("type", string(msg.Type)).
		Str("listing_no", res.Record.ListingID).
		Bool("inserted", res.Inserted).
		Int("total", res.Total).
		Msg("Listing saved")

	if !res.Skipped && res.Record.PageKind == listing.PageDetail {
		c.analyzeInBackground(ctx, res.Record)
	}
	return transport.OK(transport.Response{
		"total":    res.Total,
		"inserted": res.Inserted,
		"skipped":  res.Skipped,
	})
}

func (c *Coordinator) analyzeInBackground(ctx context.Context, rec listing.Record) {
	if c.analyzer == nil || !c.autoAnalyze {
		return
	}
	ctx = context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		text, err := c.analyzer.Analyze(ctx, &rec)
		if err != nil {
			c.log.Warn().Err(err).Str("listing_no", rec.ListingID).Msg("Auto analysis failed")
			return
		}
		c.log.Info().Str("listing_no", rec.ListingID).Int("length", len(text)).Msg("Auto analysis done")
	}()
}

func (c *Coordinator) saveListings(ctx context.Context, msg transport.Message) transport.Response {
	recs, err := msg.DecodeRecords()
	if err != nil {
		return transport.Fail("invalid listings: " + err.Error())
	}
	res, err := c.store.UpsertBatch(ctx, recs)
	if err != nil {
		c.log.Error().Err(err).Int("rows", len(recs)).Msg("Failed to save listings")
		return transport.Fail(err.Error())
	}

	c.log.Debug().
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("total", res.Total).
		Msg("Listings saved")
	return transport.OK(transport.Response{
		"inserted": res.Inserted,
		"updated":  res.Updated,
		"skipped":  res.Skipped,
		"total":    res.Total,
	})
}

func (c *Coordinator) getListing(ctx context.Context, msg transport.Message) transport.Response {
	if msg.ListingNo == "" {
		return transport.Fail("listingNo is required")
	}
	rec, err := c.store.GetByID(ctx, listing.Site(msg.Site), msg.ListingNo)
	if errors.Is(err, storage.ErrNotFound) {
		return transport.OK(transport.Response{"listing": nil})
	}
	if err != nil {
		return transport.Fail(err.Error())
	}
	return transport.OK(transport.Response{"listing": rec})
}

func (c *Coordinator) getAllListings(ctx context.Context, _ transport.Message) transport.Response {
	all, err := c.store.GetAll(ctx)
	if err != nil {
		return transport.Fail(err.Error())
	}
	if all == nil {
		all = []listing.Record{}
	}
	return transport.OK(transport.Response{"listings": all})
}

func (c *Coordinator) deleteListing(ctx context.Context, msg transport.Message) transport.Response {
	if msg.ListingNo == "" {
		return transport.Fail("listingNo is required")
	}
	remaining, err := c.store.DeleteByID(ctx, listing.Site(msg.Site), msg.ListingNo)
	if err != nil {
		return transport.Fail(err.Error())
	}
	return transport.OK(transport.Response{"remaining": remaining})
}

func (c *Coordinator) clearAll(ctx context.Context, _ transport.Message) transport.Response {
	if err := c.store.ClearAll(ctx); err != nil {
		return transport.Fail(err.Error())
	}
	return transport.OK(nil)
}

func (c *Coordinator) getStats(ctx context.Context, _ transport.Message) transport.Response {
	stats, err := c.store.GetStats(ctx)
	if err != nil {
		return transport.Fail(err.Error())
	}
	return transport.OK(transport.Response{"stats": stats})
}

func (c *Coordinator) extract(want listing.PageKind) transport.Handler {
	return func(ctx context.Context, msg transport.Message) transport.Response {
		if c.inspector == nil {
			return transport.Fail("extraction is not available")
		}

		attempt, err := c.inspector.Inspect(ctx, msg.URL, msg.HTML)
		if apperrors.IsType(err, apperrors.ErrorTypeUnsupported) {
			return transport.Fail(errUnsupportedSite)
		}
		if err != nil {
			return transport.Fail(err.Error())
		}
		if attempt.Kind != want {
			return transport.Fail("not a " + string(want) + " page")
		}

		if want == listing.PageList {
			rows := attempt.Rows
			if rows == nil {
				rows = []listing.Record{}
			}
			return transport.OK(transport.Response{
				"strategy":   attempt.Strategy,
				"sufficient": attempt.Sufficient(),
				"listings":   rows,
			})
		}
		if attempt.Detail == nil {
			return transport.Fail("nothing extracted")
		}
		return transport.OK(transport.Response{
			"strategy":   attempt.Strategy,
			"sufficient": attempt.Sufficient(),
			"data":       attempt.Detail,
			"fields":     listing.DisplayFields(attempt.Detail),
		})
	}
}

func (c *Coordinator) analyze(ctx context.Context, msg transport.Message) transport.Response {
	if c.analyzer == nil {
		return transport.Fail("analysis is not configured")
	}

	var rec *listing.Record
	switch {
	case len(msg.Data) > 0:
		decoded, err := msg.DecodeRecord()
		if err != nil {
			return transport.Fail("invalid listing: " + err.Error())
		}
		rec = &decoded
	case msg.ListingNo != "":
		stored, err := c.store.GetByID(ctx, listing.Site(msg.Site), msg.ListingNo)
		if err != nil {
			return transport.Fail(err.Error())
		}
		rec = stored
	default:
		return transport.Fail("data or listingNo is required")
	}

	text, err := c.analyzer.Analyze(ctx, rec)
	if err != nil {
		return transport.Fail(err.Error())
	}
	return transport.OK(transport.Response{"analysis": text})
}
