package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"gallery-go/internal/archive"
	"gallery-go/internal/config"
	"gallery-go/internal/database"
	"gallery-go/internal/dataurl"
	"gallery-go/internal/encryption"
	"gallery-go/internal/gallery"
	"gallery-go/internal/pricing"
)

// collection bundles the per-kind services over one artifact store.
type collection struct {
	store  gallery.ArtifactStore
	sizes  *gallery.SizeTracker
	budget *gallery.BudgetManager
	view   *gallery.ViewStore
}

// GalleryApp is the application layer between the CLI and the gallery core.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI input, and manages the DB lifecycle on Close.
type GalleryApp struct {
	cfg         *config.Config
	db          *database.SQLiteDatabase
	persistent  bool
	encryptor   gallery.Encryptor
	archive     gallery.ArchiveStore
	archiver    *archive.Archiver
	collections map[gallery.Kind]*collection
	logger      gallery.Logger
	op          *Operation
	logFile     *os.File
}

// AddResult describes a stored artifact.
type AddResult struct {
	ID       string
	MIMEType string
	Size     int64 // estimated payload bytes
	Evicted  int
	Status   *gallery.StorageStatus // nil if unknown
}

// NewGalleryApp creates a fully wired GalleryApp from the given config.
// operation identifies the CLI command being run (e.g. "AddVideo", "ListImages").
// verbose mirrors debug logs to stderr; otherwise only warnings and errors are shown.
// The caller must call Close when done.
func NewGalleryApp(cfg *config.Config, operation string, verbose bool) (*GalleryApp, error) {
	op := NewOperation(operation, gallery.RealClock{})

	stderrLevel := slog.LevelWarn
	if verbose {
		stderrLevel = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, stderrLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := newGalleryApp(context.Background(), cfg, op, &slogAdapter{l: logger})
	if err != nil {
		logFile.Close()
		return nil, err
	}
	a.logFile = logFile
	return a, nil
}

func newGalleryApp(ctx context.Context, cfg *config.Config, op *Operation, logger gallery.Logger) (*GalleryApp, error) {
	db, persistent, err := openDatabase(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	store, err := archive.NewArchiveStoreFromConfig(ctx, cfg.Archive)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating archive store: %w", err)
	}

	// BudgetManager tests the interface against nil, so only assign it when
	// there is a real archiver.
	var archiver *archive.Archiver
	var evictArchiver gallery.Archiver
	if store != nil {
		archiver = archive.NewArchiver(store, enc, gallery.RealClock{})
		evictArchiver = archiver
		if enc != nil && !enc.IsConfigured() {
			logger.Info("archive encryption keys are missing, evicted artifacts are deleted without a copy until `gallery keys init` runs")
		}
	}

	collections := make(map[gallery.Kind]*collection, len(gallery.Kinds))
	for _, kind := range gallery.Kinds {
		artifacts, err := db.Collection(kind)
		if err != nil {
			db.Close()
			return nil, err
		}
		cc := cfg.Storage.For(string(kind)).WithDefaults()
		limits := gallery.Limits{MaxSize: cc.MaxSize, WarningThreshold: cc.WarningThreshold}

		sizes := gallery.NewSizeTracker(artifacts)
		budget := gallery.NewBudgetManager(artifacts, sizes, limits, evictArchiver, logger)
		collections[kind] = &collection{
			store:  artifacts,
			sizes:  sizes,
			budget: budget,
			view:   gallery.NewViewStore(artifacts, budget, sizes, pricing.ForKind(kind), logger, cc.PageSize),
		}
	}

	logger.Debug("operation started", "operation", op.Name, "database", db.Path())

	return &GalleryApp{
		cfg:         cfg,
		db:          db,
		persistent:  persistent,
		encryptor:   enc,
		archive:     store,
		archiver:    archiver,
		collections: collections,
		logger:      logger,
		op:          op,
	}, nil
}

// openDatabase opens the configured database. If that fails the error is
// logged and an unpersisted in-memory database is used instead.
func openDatabase(cfg config.DatabaseConfig, logger gallery.Logger) (*database.SQLiteDatabase, bool, error) {
	db, err := database.NewDatabaseFromConfig(cfg)
	if err == nil {
		return db, cfg.Type != "memory", nil
	}

	logger.Error("database initialization failed, falling back to in-memory database", "error", err)
	db, memErr := database.NewSQLiteDatabase(":memory:", nil, nil)
	if memErr != nil {
		return nil, false, fmt.Errorf("opening fallback database: %w (initial error: %v)", memErr, err)
	}
	return db, false, nil
}

// track records err on the operation and returns it unchanged.
func (a *GalleryApp) track(err error) error {
	a.op.Fail(err)
	return err
}

func (a *GalleryApp) collection(kind gallery.Kind) (*collection, error) {
	c, ok := a.collections[kind]
	if !ok {
		return nil, fmt.Errorf("unknown artifact kind: %q", kind)
	}
	return c, nil
}

// Persistent reports whether artifacts survive the process. It is false when
// the database is in-memory, including after a failed initialization.
func (a *GalleryApp) Persistent() bool {
	return a.persistent
}

// Add reads a media file, encodes it as a data URL, and stores it in the
// collection for kind, evicting the oldest artifacts if the budget requires.
// The file's detected MIME type must match the kind.
func (a *GalleryApp) Add(ctx context.Context, kind gallery.Kind, path, prompt string, params gallery.Params) (*AddResult, error) {
	c, err := a.collection(kind)
	if err != nil {
		return nil, a.track(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, a.track(fmt.Errorf("reading media file: %w", err))
	}

	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	if !strings.HasPrefix(mediaType, string(kind)+"/") {
		return nil, a.track(fmt.Errorf("%s is %s, not a %s", path, mediaType, kind))
	}

	payload := dataurl.Encode(mediaType, data)
	c.view.Initialize(ctx)
	id, evicted, err := c.view.InsertWithManagement(ctx, &gallery.NewArtifact{
		Prompt:  prompt,
		Payload: payload,
		Params:  params,
	})
	if err != nil {
		return nil, a.track(err)
	}

	if evicted > 0 {
		a.logger.Info("evicted artifacts to stay under budget", "kind", kind, "count", evicted)
	}
	return &AddResult{
		ID:       id,
		MIMEType: mediaType,
		Size:     dataurl.EstimateSize(payload),
		Evicted:  evicted,
		Status:   c.view.Snapshot().Status,
	}, nil
}

// List loads up to pages pages of the collection, newest first.
// A collection that cannot be read lists as empty.
func (a *GalleryApp) List(ctx context.Context, kind gallery.Kind, pages int) (gallery.View, error) {
	c, err := a.collection(kind)
	if err != nil {
		return gallery.View{}, a.track(err)
	}

	c.view.Initialize(ctx)
	for i := 1; i < pages && c.view.HasMore(); i++ {
		n, err := c.view.LoadMore(ctx)
		if err != nil {
			return gallery.View{}, a.track(err)
		}
		if n == 0 {
			break
		}
	}
	return c.view.Snapshot(), nil
}

// Delete removes one artifact. Deleting an unknown id succeeds.
func (a *GalleryApp) Delete(ctx context.Context, kind gallery.Kind, id string) error {
	c, err := a.collection(kind)
	if err != nil {
		return a.track(err)
	}
	return a.track(c.view.Delete(ctx, id))
}

// Clear removes every artifact of kind. Cleared artifacts are not archived.
func (a *GalleryApp) Clear(ctx context.Context, kind gallery.Kind) error {
	c, err := a.collection(kind)
	if err != nil {
		return a.track(err)
	}
	return a.track(c.view.Clear(ctx))
}

// Status returns the storage status and the limits it was measured against.
func (a *GalleryApp) Status(ctx context.Context, kind gallery.Kind) (*gallery.StorageStatus, gallery.Limits, error) {
	c, err := a.collection(kind)
	if err != nil {
		return nil, gallery.Limits{}, a.track(err)
	}
	status, err := c.budget.Status(ctx)
	if err != nil {
		return nil, c.budget.Limits(), a.track(err)
	}
	return status, c.budget.Limits(), nil
}

// ArchiveEncrypted reports whether archived artifacts need a passphrase to read.
func (a *GalleryApp) ArchiveEncrypted() bool {
	return a.archiver != nil && a.archiver.Encrypted()
}

// ArchiveGet retrieves an evicted artifact from the archive. passphrase is
// only used when archives are encrypted.
func (a *GalleryApp) ArchiveGet(ctx context.Context, kind gallery.Kind, id, passphrase string) (*archive.Document, error) {
	if a.archiver == nil {
		return nil, a.track(fmt.Errorf("no archive configured (archive.type is %q)", a.cfg.Archive.Type))
	}

	var dctx gallery.DecryptionContext
	if a.archiver.Encrypted() {
		var err error
		dctx, err = a.encryptor.Unlock(passphrase)
		if err != nil {
			return nil, a.track(fmt.Errorf("unlocking private key: %w", err))
		}
	}

	doc, err := a.archiver.Retrieve(ctx, kind, id, dctx)
	if err != nil {
		return nil, a.track(err)
	}
	return doc, nil
}

// ArchiveCheck verifies that the archive backend is reachable.
func (a *GalleryApp) ArchiveCheck(ctx context.Context) error {
	if a.archive == nil {
		return a.track(fmt.Errorf("no archive configured (archive.type is %q)", a.cfg.Archive.Type))
	}
	return a.track(a.archive.ValidateSetup(ctx))
}

// CheckDB verifies the schema is current and returns its version.
func (a *GalleryApp) CheckDB() (uint, error) {
	if err := a.db.CheckMigrations(); err != nil {
		return 0, a.track(err)
	}
	version, err := a.db.SchemaVersion()
	if err != nil {
		return 0, a.track(err)
	}
	return version, nil
}

// BackupDB writes a consistent copy of the database to dest.
func (a *GalleryApp) BackupDB(dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return a.track(fmt.Errorf("backup destination already exists: %s", dest))
	}
	return a.track(a.db.BackupTo(dest))
}

// KeysConfigured reports whether an encryption key pair is in place. It is
// false when encryption is disabled.
func (a *GalleryApp) KeysConfigured() bool {
	return a.encryptor != nil && a.encryptor.IsConfigured()
}

// SetupKeys generates the archive encryption key pair, protecting the
// private key with passphrase.
func (a *GalleryApp) SetupKeys(passphrase string) error {
	if a.encryptor == nil {
		return a.track(fmt.Errorf("encryption is disabled (encryption.type is %q)", a.cfg.Encryption.Type))
	}
	if err := a.encryptor.Setup(passphrase); err != nil {
		return a.track(fmt.Errorf("setting up encryption keys: %w", err))
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// Close logs the outcome of the operation and closes all resources.
func (a *GalleryApp) Close() error {
	var firstErr error

	args := []any{"operation", a.op.Name, "status", a.op.Status, "duration", time.Since(a.op.StartedAt).Truncate(time.Millisecond)}
	if a.op.Failed() {
		a.logger.Error("operation finished", append(args, "error", a.op.Err)...)
	} else {
		a.logger.Debug("operation finished", args...)
	}

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
