package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mangashelf/internal/config"
	"mangashelf/internal/document"
	"mangashelf/internal/library"
	"mangashelf/internal/logging"
	"mangashelf/internal/reference"
	"mangashelf/internal/services"
	"mangashelf/internal/workpool"
)

const (
	// DefaultMaxBatchSize caps the number of images in one request.
	DefaultMaxBatchSize = 25
	// sequenceConflictRetries bounds retries when another process claims the
	// same sequence number first.
	sequenceConflictRetries = 3
)

// Defaults fill fields the caller leaves blank.
type Defaults struct {
	Title               string
	DocumentDescription string
	UnitTitleFormat     string
}

// ItemInput carries the user-supplied item fields.
type ItemInput struct {
	Title       string
	Description string
}

// Pipeline builds Item → Unit → Page graphs.
type Pipeline struct {
	store    *library.Store
	refs     reference.Checker
	docs     document.Introspector
	pool     *workpool.Pool
	ownsPool bool
	locks    *itemLocks
	logger   *slog.Logger
	maxBatch int
	defaults Defaults
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPool runs operations on pool instead of a private one.
func WithPool(pool *workpool.Pool) Option {
	return func(p *Pipeline) {
		if pool != nil {
			p.pool = pool
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logging.NewComponentLogger(logger, "ingestion")
		}
	}
}

// WithMaxBatchSize overrides the image batch limit.
func WithMaxBatchSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBatch = n
		}
	}
}

// WithLockDir enables cross-process item locks under dir.
func WithLockDir(dir string, timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.locks = newItemLocks(dir, timeout)
	}
}

// WithDefaults overrides the title, description, and unit title defaults.
func WithDefaults(d Defaults) Option {
	return func(p *Pipeline) {
		if d.Title != "" {
			p.defaults.Title = d.Title
		}
		if d.DocumentDescription != "" {
			p.defaults.DocumentDescription = d.DocumentDescription
		}
		if d.UnitTitleFormat != "" {
			p.defaults.UnitTitleFormat = d.UnitTitleFormat
		}
	}
}

// New constructs a Pipeline. Without WithPool it owns a single-worker pool
// released by Close.
func New(store *library.Store, refs reference.Checker, docs document.Introspector, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		refs:     refs,
		docs:     docs,
		locks:    newItemLocks("", 0),
		logger:   logging.NewComponentLogger(nil, "ingestion"),
		maxBatch: DefaultMaxBatchSize,
		defaults: Defaults{
			Title:               "Untitled",
			DocumentDescription: "Imported from document",
			UnitTitleFormat:     "Chapter %d",
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pool == nil {
		p.pool = workpool.New("ingestion", 1, 0, p.logger)
		p.ownsPool = true
	}
	return p
}

// NewFromConfig wires a Pipeline with the configured limits, defaults, and
// lock directory.
func NewFromConfig(cfg *config.Config, store *library.Store, refs reference.Checker, docs document.Introspector, pool *workpool.Pool, logger *slog.Logger) *Pipeline {
	return New(store, refs, docs,
		WithPool(pool),
		WithLogger(logger),
		WithMaxBatchSize(cfg.Library.MaxBatchSize),
		WithLockDir(cfg.LockDir(), time.Duration(cfg.Library.LockTimeoutSeconds)*time.Second),
		WithDefaults(Defaults{
			Title:               cfg.Library.DefaultTitle,
			DocumentDescription: cfg.Library.DocumentDescription,
			UnitTitleFormat:     cfg.Library.UnitTitleFormat,
		}),
	)
}

// Close releases a privately owned pool.
func (p *Pipeline) Close() {
	if p.ownsPool {
		p.pool.Close()
	}
}

// CreateItemFromImages creates an item with one unit (sequence 1) holding
// refs as pages in input order. The first image becomes the cover.
func (p *Pipeline) CreateItemFromImages(ctx context.Context, in ItemInput, refs []string) (string, error) {
	if err := p.validateBatch(len(refs), "item was not created"); err != nil {
		return "", err
	}
	ctx = p.begin(ctx, "create_item_images")
	return workpool.Do(ctx, p.pool, func(ctx context.Context) (string, error) {
		paths, err := p.checkImages(ctx, refs, "item was not created")
		if err != nil {
			return "", err
		}
		item := p.newItem(in, imageDescription(len(paths)), paths[0])
		unitID, err := p.insertItemWithUnit(ctx, item, imagePages(paths))
		if err != nil {
			return "", err
		}
		logging.WithContext(ctx, p.logger).Info("item created",
			logging.Args(
				logging.ItemID(item.ID),
				logging.UnitID(unitID),
				logging.Int("pages", len(paths)),
			)...)
		return item.ID, nil
	})
}

// CreateItemFromDocument creates an item with one unit holding one page per
// document page. When the page count cannot be determined a single page is
// assumed.
func (p *Pipeline) CreateItemFromDocument(ctx context.Context, in ItemInput, docRef string) (string, error) {
	ctx = p.begin(ctx, "create_item_document")
	return workpool.Do(ctx, p.pool, func(ctx context.Context) (string, error) {
		path, count, err := p.inspectDocument(ctx, docRef, "item was not created")
		if err != nil {
			return "", err
		}
		item := p.newItem(in, p.defaults.DocumentDescription, "")
		unitID, err := p.insertItemWithUnit(ctx, item, documentPages(path, count))
		if err != nil {
			return "", err
		}
		logging.WithContext(ctx, p.logger).Info("item created from document",
			logging.Args(
				logging.ItemID(item.ID),
				logging.UnitID(unitID),
				logging.Int("pages", count),
			)...)
		return item.ID, nil
	})
}

// AppendUnitFromImages adds the next unit to itemID.
func (p *Pipeline) AppendUnitFromImages(ctx context.Context, itemID string, refs []string) (string, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", services.Wrap(services.ErrValidation, "ingestion", "append", "item id is required", nil)
	}
	if err := p.validateBatch(len(refs), fmt.Sprintf("no unit was appended to item %s", itemID)); err != nil {
		return "", err
	}
	ctx = services.WithItemID(p.begin(ctx, "append_unit_images"), itemID)
	return runLocked(ctx, p, itemID, func(ctx context.Context) (string, error) {
		paths, err := p.checkImages(ctx, refs, fmt.Sprintf("no unit was appended to item %s", itemID))
		if err != nil {
			return "", err
		}
		return p.appendUnit(ctx, itemID, imagePages(paths))
	})
}

// AppendUnitFromDocument adds the next unit to itemID from a document.
func (p *Pipeline) AppendUnitFromDocument(ctx context.Context, itemID, docRef string) (string, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", services.Wrap(services.ErrValidation, "ingestion", "append", "item id is required", nil)
	}
	ctx = services.WithItemID(p.begin(ctx, "append_unit_document"), itemID)
	return runLocked(ctx, p, itemID, func(ctx context.Context) (string, error) {
		path, count, err := p.inspectDocument(ctx, docRef, fmt.Sprintf("no unit was appended to item %s", itemID))
		if err != nil {
			return "", err
		}
		return p.appendUnit(ctx, itemID, documentPages(path, count))
	})
}

// DeleteItem removes itemID with all of its units and pages.
func (p *Pipeline) DeleteItem(ctx context.Context, itemID string) error {
	ctx = services.WithItemID(p.begin(ctx, "delete_item"), itemID)
	_, err := runLocked(ctx, p, itemID, func(ctx context.Context) (struct{}, error) {
		if err := p.store.Update(ctx, func(tx *library.Tx) error { return tx.DeleteItem(ctx, itemID) }); err != nil {
			return struct{}{}, err
		}
		logging.WithContext(ctx, p.logger).Info("item deleted")
		return struct{}{}, nil
	})
	return err
}

// DeleteUnit removes unitID and its pages.
func (p *Pipeline) DeleteUnit(ctx context.Context, unitID string) error {
	ctx = services.WithUnitID(p.begin(ctx, "delete_unit"), unitID)
	_, err := workpool.Do(ctx, p.pool, func(ctx context.Context) (struct{}, error) {
		if err := p.store.Update(ctx, func(tx *library.Tx) error { return tx.DeleteUnit(ctx, unitID) }); err != nil {
			return struct{}{}, err
		}
		logging.WithContext(ctx, p.logger).Info("unit deleted")
		return struct{}{}, nil
	})
	return err
}

// runLocked takes itemID's lock on the calling goroutine and only then hands
// fn to the pool, so a worker never sits waiting on a busy item. The lock is
// released by whichever side claims it first: the job when it starts, or the
// caller when the job never ran.
func runLocked[T any](ctx context.Context, p *Pipeline, itemID string, fn func(context.Context) (T, error)) (T, error) {
	release, err := p.locks.acquire(ctx, itemID)
	if err != nil {
		var zero T
		return zero, err
	}
	var claimed atomic.Bool
	value, err := workpool.Do(ctx, p.pool, func(ctx context.Context) (T, error) {
		if !claimed.CompareAndSwap(false, true) {
			var zero T
			return zero, context.Canceled
		}
		defer release()
		return fn(ctx)
	})
	if claimed.CompareAndSwap(false, true) {
		release()
	}
	return value, err
}

func (p *Pipeline) begin(ctx context.Context, stage string) context.Context {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	return services.WithStage(ctx, stage)
}

func (p *Pipeline) validateBatch(n int, notCreated string) error {
	if n < 1 || n > p.maxBatch {
		return services.Wrap(services.ErrInvalidBatchSize, "ingestion", "validate",
			fmt.Sprintf("%d images selected, between 1 and %d required; %s", n, p.maxBatch, notCreated), nil)
	}
	return nil
}

// checkImages verifies every reference concurrently and returns the resolved
// paths in input order.
func (p *Pipeline) checkImages(ctx context.Context, refs []string, notCreated string) ([]string, error) {
	paths := make([]string, len(refs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for i, ref := range refs {
		group.Go(func() error {
			if err := p.refs.CheckReadable(groupCtx, ref); err != nil {
				return err
			}
			path, err := reference.Resolve(ref)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("%w; %s", err, notCreated)
	}
	return paths, nil
}

func (p *Pipeline) inspectDocument(ctx context.Context, docRef, notCreated string) (string, int, error) {
	if err := p.refs.CheckReadable(ctx, docRef); err != nil {
		return "", 0, fmt.Errorf("%w; %s", err, notCreated)
	}
	path, err := reference.Resolve(docRef)
	if err != nil {
		return "", 0, err
	}
	count, err := p.docs.PageCount(ctx, path)
	if err != nil || count < 1 {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "page count unavailable; assuming a single page",
			"document_introspection_fallback",
			logging.String("document", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the document opens in a reader"),
			logging.String(logging.FieldImpact, "only the first page is listed"),
		)
		count = 1
	}
	return path, count, nil
}

func (p *Pipeline) newItem(in ItemInput, fallbackDescription, cover string) *library.Item {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = p.defaults.Title
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		description = fallbackDescription
	}
	return &library.Item{Title: title, Description: description, CoverRef: cover}
}

func (p *Pipeline) unitTitle(sequence int) string {
	return fmt.Sprintf(p.defaults.UnitTitleFormat, sequence)
}

func (p *Pipeline) insertItemWithUnit(ctx context.Context, item *library.Item, pages []*library.Page) (string, error) {
	var unitID string
	err := p.store.Update(ctx, func(tx *library.Tx) error {
		if err := tx.InsertItem(ctx, item); err != nil {
			return err
		}
		id, err := insertUnit(ctx, tx, item.ID, 1, p.unitTitle(1), pages)
		unitID = id
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w; item %q was not created", err, item.Title)
	}
	return unitID, nil
}

// appendUnit must run while holding itemID's lock.
func (p *Pipeline) appendUnit(ctx context.Context, itemID string, pages []*library.Page) (string, error) {
	var (
		unitID   string
		sequence int
		err      error
	)
	for attempt := 0; ; attempt++ {
		err = p.store.Update(ctx, func(tx *library.Tx) error {
			exists, err := tx.ItemExists(ctx, itemID)
			if err != nil {
				return err
			}
			if !exists {
				return services.Wrap(services.ErrNotFound, "ingestion", "append",
					fmt.Sprintf("item %s does not exist", itemID), nil)
			}
			sequence, err = tx.NextSequenceNumber(ctx, itemID)
			if err != nil {
				return err
			}
			unitID, err = insertUnit(ctx, tx, itemID, sequence, p.unitTitle(sequence), pages)
			return err
		})
		if err == nil || !library.IsConstraintConflict(err) || attempt >= sequenceConflictRetries {
			break
		}
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "sequence number claimed concurrently; retrying",
			"sequence_conflict",
			logging.Int("sequence_number", sequence),
			logging.Int("attempt", attempt+1),
			logging.String(logging.FieldImpact, "append delayed"),
		)
	}
	if err != nil {
		return "", fmt.Errorf("%w; no unit was appended to item %s", err, itemID)
	}
	logging.WithContext(ctx, p.logger).Info("unit appended",
		logging.Args(
			logging.UnitID(unitID),
			logging.Int("sequence_number", sequence),
			logging.Int("pages", len(pages)),
		)...)
	return unitID, nil
}

// insertUnit writes the unit and its pages. Pages get fresh ids each call so
// a retried transaction never reuses them.
func insertUnit(ctx context.Context, tx *library.Tx, itemID string, sequence int, title string, pages []*library.Page) (string, error) {
	unit := &library.Unit{ItemID: itemID, SequenceNumber: sequence, Title: title}
	if err := tx.InsertUnit(ctx, unit); err != nil {
		return "", err
	}
	for _, template := range pages {
		page := *template
		page.ID = ""
		page.UnitID = unit.ID
		if err := tx.InsertPage(ctx, &page); err != nil {
			return "", err
		}
	}
	return unit.ID, nil
}

func imagePages(paths []string) []*library.Page {
	pages := make([]*library.Page, len(paths))
	for i, path := range paths {
		pages[i] = &library.Page{Index: i, SourceType: library.SourceImage, ImageRef: path}
	}
	return pages
}

func documentPages(path string, count int) []*library.Page {
	pages := make([]*library.Page, count)
	for i := range pages {
		pages[i] = &library.Page{Index: i, SourceType: library.SourceDocumentPage, DocumentRef: path, DocumentPage: i}
	}
	return pages
}

func imageDescription(n int) string {
	if n == 1 {
		return "1 image"
	}
	return fmt.Sprintf("%d images", n)
}
