package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"adi/internal/codegraph"
	"adi/internal/errs"
	"adi/internal/graphstore"
	"adi/internal/lang"
	"adi/internal/vectorindex"

	"go.uber.org/zap"
)

// Embedder is the external collaborator that turns symbol text into fixed
// dimension vectors (spec §6). Implementations live in
// internal/embedproviders; defined here since the indexer is the sole
// consumer.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
}

// Indexer runs the two-phase indexing pipeline against one project.
type Indexer struct {
	store    *graphstore.Store
	vectors  *vectorindex.Index
	dispatch *lang.Dispatcher
	embed    Embedder
	log      *zap.Logger
}

// New constructs an Indexer from its collaborators.
func New(store *graphstore.Store, vectors *vectorindex.Index, dispatch *lang.Dispatcher, embed Embedder, log *zap.Logger) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{store: store, vectors: vectors, dispatch: dispatch, embed: embed, log: log.With(zap.String("component", "indexer"))}
}

// fileProcessResult is one file's phase-1 output. Its symbolMap tracks
// every file-local symbol name -> assigned id, mirroring the original's
// global_symbol_map: HashMap<String, Vec<SymbolId>>.
type fileProcessResult struct {
	symbolsIndexed int
	symbolMap      map[string][]codegraph.SymbolID
	references     []pendingReference
}

// pendingReference is a parsed reference annotated with the id of its
// resolved containing symbol, carried from phase 1 into phase 2.
type pendingReference struct {
	ref             codegraph.ParsedReference
	containingID    codegraph.SymbolID
	hasContainingID bool
}

// IndexProject walks projectRoot, parses every supported file not already
// up to date (by content hash), and resolves cross-file references in a
// second pass (spec §4.D phase 1 / phase 2). Phase 1 runs inside a single
// write transaction spanning the whole file loop (spec.md:148, §5 locking
// invariant at spec.md:310), mirroring the original's
// `begin_transaction` before the loop / `commit_transaction` after it
// (adi-indexer/mod.rs:51,89). A per-file error is logged and recorded in
// progress.Errors without aborting the run, matching the original's
// per-file `match ... Err(e) => { warn!(...); progress.errors.push(...) }`;
// only a failure to begin or commit the transaction itself aborts the call.
func (ix *Indexer) IndexProject(ctx context.Context, projectRoot string, cfg DiscoveryConfig) (codegraph.IndexProgress, error) {
	files, err := discoverFiles(projectRoot, cfg)
	if err != nil {
		return codegraph.IndexProgress{}, &errs.IoError{Path: projectRoot, Cause: err}
	}

	progress := codegraph.IndexProgress{FilesTotal: len(files)}
	globalSymbolMap := make(map[string][]codegraph.SymbolID)
	var allReferences []pendingReference

	tx, err := ix.store.BeginTransaction()
	if err != nil {
		return progress, err
	}

	for _, f := range files {
		select {
		case <-ctx.Done():
			tx.Rollback()
			return progress, ctx.Err()
		default:
		}

		result, err := ix.processFile(ctx, tx, projectRoot, f)
		if err != nil {
			ix.log.Warn("error processing file", zap.String("path", f.relPath), zap.Error(err))
			progress.Errors = append(progress.Errors, fmt.Sprintf("%s: %v", f.relPath, err))
			progress.FilesProcessed++
			continue
		}
		progress.SymbolsIndexed += result.symbolsIndexed
		for name, ids := range result.symbolMap {
			globalSymbolMap[name] = append(globalSymbolMap[name], ids...)
		}
		allReferences = append(allReferences, result.references...)
		progress.FilesProcessed++
	}

	if err := tx.Commit(); err != nil {
		return progress, err
	}

	ix.log.Info("resolving references", zap.Int("count", len(allReferences)))
	resolved, err := ix.resolveReferences(allReferences, globalSymbolMap)
	if err != nil {
		return progress, err
	}

	if len(resolved) > 0 {
		tx, err := ix.store.BeginTransaction()
		if err != nil {
			return progress, err
		}
		if err := tx.InsertReferencesBatch(resolved); err != nil {
			tx.Rollback()
			return progress, err
		}
		if err := tx.Commit(); err != nil {
			return progress, err
		}
	}

	if err := ix.vectors.Save(); err != nil {
		return progress, err
	}

	now := time.Now().Unix()
	status := codegraph.Status{
		IndexedFiles:        int64(progress.FilesProcessed),
		IndexedSymbols:      int64(progress.SymbolsIndexed),
		EmbeddingDimensions: ix.embed.Dimensions(),
		EmbeddingModel:      ix.embed.ModelName(),
		LastIndexed:         &now,
	}
	tx, err := ix.store.BeginTransaction()
	if err != nil {
		return progress, err
	}
	if err := tx.UpdateStatus(status); err != nil {
		tx.Rollback()
		return progress, err
	}
	if err := tx.Commit(); err != nil {
		return progress, err
	}

	ix.log.Info("indexing complete",
		zap.Int("files", progress.FilesProcessed),
		zap.Int("symbols", progress.SymbolsIndexed),
		zap.Int("references", len(resolved)))
	return progress, nil
}

// ReindexPaths re-processes a subset of paths: each is removed (vector
// entries, then row, cascading to symbols/references) and, if still
// present on disk, re-parsed via the single-file branch of phase 1.
// Phase 2 is intentionally skipped (spec §4.D) — stale references into
// deleted files disappear via cascading delete. Both steps for every path
// share one write transaction, mirroring the original's single
// begin_transaction/commit_transaction bracketing the whole reindex loop
// (adi-indexer/mod.rs:222,250); a per-path re-parse error is logged and
// skipped rather than aborting the run, matching the original's `let _ =
// process_file(...).await`.
func (ix *Indexer) ReindexPaths(ctx context.Context, projectRoot string, paths []string) error {
	tx, err := ix.store.BeginTransaction()
	if err != nil {
		return err
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	for _, relPath := range paths {
		relPath = filepath.ToSlash(relPath)
		exists, err := tx.FileExists(relPath)
		if err != nil {
			return err
		}
		if exists {
			syms, err := ix.symbolsForPathTx(tx, relPath)
			if err != nil {
				return err
			}
			for _, s := range syms {
				_ = ix.vectors.Remove(s.ID) // absent key is not an error
			}
			if err := tx.DeleteFile(relPath); err != nil {
				return err
			}
		}

		full := filepath.Join(projectRoot, relPath)
		if _, err := os.Stat(full); err != nil {
			continue
		}
		language := languageFromExtension(filepath.Ext(full))
		if language == codegraph.LangUnknown {
			continue
		}
		if _, err := ix.processFile(ctx, tx, projectRoot, discoveredFile{absPath: full, relPath: relPath, lang: language}); err != nil {
			ix.log.Warn("reindex: error processing file", zap.String("path", relPath), zap.Error(err))
		}
	}

	if err := tx.Commit(); err != nil {
		tx = nil
		return err
	}
	tx = nil

	return ix.vectors.Save()
}

// symbolsForPathTx looks up the symbols currently recorded for relPath, so
// their vector-index entries can be cleared before the file is replaced or
// removed. Reads through tx rather than the Store directly: the write lock
// is already held for tx's lifetime, and the Store's RLock-guarded methods
// would deadlock against it.
func (ix *Indexer) symbolsForPathTx(tx *graphstore.Tx, relPath string) ([]codegraph.Symbol, error) {
	f, err := tx.GetFile(relPath)
	if err != nil {
		if _, ok := err.(*errs.NotFound); ok {
			return nil, nil
		}
		return nil, err
	}
	return tx.SymbolsForFile(f.ID)
}

// processFile implements the original's process_file: hash-gate, parse,
// replace any prior version of the file, insert symbols (building the
// embed text and the phase-1 symbol-name map as it goes), batch-embed,
// and annotate references with their innermost containing symbol. All
// reads and writes run against the caller-supplied tx, which spans the
// whole phase-1 loop (see IndexProject/ReindexPaths) rather than one
// transaction per file.
func (ix *Indexer) processFile(ctx context.Context, tx *graphstore.Tx, projectRoot string, f discoveredFile) (fileProcessResult, error) {
	content, err := os.ReadFile(f.absPath)
	if err != nil {
		return fileProcessResult{}, &errs.IoError{Path: f.relPath, Cause: err}
	}
	hash := computeHash(content)

	if existingHash, ok, err := tx.GetFileHash(f.relPath); err != nil {
		return fileProcessResult{}, err
	} else if ok && existingHash == hash {
		return fileProcessResult{symbolMap: map[string][]codegraph.SymbolID{}}, nil
	}

	parsed, _, err := ix.dispatch.Parse(content, f.lang)
	if err != nil {
		return fileProcessResult{}, &errs.ParseError{Language: string(f.lang), Cause: err}
	}

	if exists, err := tx.FileExists(f.relPath); err != nil {
		return fileProcessResult{}, err
	} else if exists {
		syms, err := ix.symbolsForPathTx(tx, f.relPath)
		if err != nil {
			return fileProcessResult{}, err
		}
		for _, s := range syms {
			_ = ix.vectors.Remove(s.ID)
		}
		if err := tx.DeleteFile(f.relPath); err != nil {
			return fileProcessResult{}, err
		}
	}

	fileID, err := tx.InsertFile(codegraph.File{
		Path:     f.relPath,
		Language: f.lang,
		Hash:     hash,
		Size:     int64(len(content)),
	})
	if err != nil {
		return fileProcessResult{}, err
	}

	result := fileProcessResult{symbolMap: make(map[string][]codegraph.SymbolID)}
	type embedTarget struct {
		id   codegraph.SymbolID
		text string
	}
	var toEmbed []embedTarget
	type symbolRange struct {
		id         codegraph.SymbolID
		start, end int
	}
	var ranges []symbolRange

	var insertSymbols func(syms []codegraph.ParsedSymbol, parent *codegraph.SymbolID) error
	insertSymbols = func(syms []codegraph.ParsedSymbol, parent *codegraph.SymbolID) error {
		for _, ps := range syms {
			id, err := tx.InsertSymbol(codegraph.Symbol{
				Name:       ps.Name,
				Kind:       ps.Kind,
				FileID:     fileID,
				Location:   ps.Location,
				ParentID:   parent,
				Signature:  ps.Signature,
				DocComment: ps.DocComment,
				Visibility: ps.Visibility,
			})
			if err != nil {
				return err
			}
			result.symbolsIndexed++
			result.symbolMap[ps.Name] = append(result.symbolMap[ps.Name], id)
			ranges = append(ranges, symbolRange{id: id, start: ps.Location.StartByte, end: ps.Location.EndByte})
			toEmbed = append(toEmbed, embedTarget{id: id, text: buildEmbedText(ps.Name, ps.Kind, ps.Signature, ps.DocComment)})

			idCopy := id
			if err := insertSymbols(ps.Children, &idCopy); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insertSymbols(parsed.Symbols, nil); err != nil {
		return fileProcessResult{}, err
	}

	if len(toEmbed) > 0 && ix.embed != nil {
		texts := make([]string, len(toEmbed))
		for i, t := range toEmbed {
			texts[i] = t.text
		}
		embeddings, err := ix.embed.Embed(ctx, texts)
		if err != nil {
			ix.log.Warn("failed to generate embeddings", zap.String("path", f.relPath), zap.Error(err))
		} else {
			for i, t := range toEmbed {
				if i >= len(embeddings) {
					break
				}
				if err := ix.vectors.Add(t.id, embeddings[i]); err != nil {
					if err == vectorindex.ErrDuplicateKey {
						_ = ix.vectors.Remove(t.id)
						if err2 := ix.vectors.Add(t.id, embeddings[i]); err2 != nil {
							ix.log.Warn("failed to re-add embedding after duplicate key", zap.Int64("symbol_id", int64(t.id)), zap.Error(err2))
						}
					} else {
						ix.log.Warn("failed to add embedding", zap.Int64("symbol_id", int64(t.id)), zap.Error(err))
					}
				}
			}
		}
	}

	// Attach the innermost containing symbol to each reference by byte range.
	for _, pr := range parsed.References {
		best := -1
		bestWidth := -1
		for i, r := range ranges {
			if pr.Location.StartByte < r.start || pr.Location.StartByte > r.end {
				continue
			}
			width := r.end - r.start
			if best == -1 || width < bestWidth {
				best = i
				bestWidth = width
			}
		}
		pending := pendingReference{ref: pr}
		if best != -1 {
			pending.containingID = ranges[best].id
			pending.hasContainingID = true
		}
		result.references = append(result.references, pending)
	}

	return result, nil
}

// resolveReferences implements find_target_symbol's four-step lookup:
// exact match in the collected symbol map, then its short (last-segment)
// name, then a database lookup by full name, then by short name.
func (ix *Indexer) resolveReferences(pending []pendingReference, symbolMap map[string][]codegraph.SymbolID) ([]codegraph.Reference, error) {
	var resolved []codegraph.Reference
	for _, p := range pending {
		if !p.hasContainingID {
			continue
		}
		targets, err := ix.findTargetSymbol(p.ref.Name, symbolMap)
		if err != nil {
			return nil, err
		}
		for _, target := range targets {
			if target == p.containingID {
				continue // no self-references (invariant §3.4)
			}
			resolved = append(resolved, codegraph.Reference{
				FromSymbolID: p.containingID,
				ToSymbolID:   target,
				Kind:         p.ref.Kind,
				Location:     p.ref.Location,
			})
		}
	}
	return resolved, nil
}

func (ix *Indexer) findTargetSymbol(name string, symbolMap map[string][]codegraph.SymbolID) ([]codegraph.SymbolID, error) {
	if ids, ok := symbolMap[name]; ok {
		return ids, nil
	}

	shortName := lastNameComponent(name)
	if shortName != name {
		if ids, ok := symbolMap[shortName]; ok {
			return ids, nil
		}
	}

	if syms, err := ix.store.FindSymbolsByName(name); err == nil && len(syms) > 0 {
		ids := make([]codegraph.SymbolID, len(syms))
		for i, s := range syms {
			ids[i] = s.ID
		}
		return ids, nil
	}

	if shortName != name {
		if syms, err := ix.store.FindSymbolsByName(shortName); err == nil && len(syms) > 0 {
			ids := make([]codegraph.SymbolID, len(syms))
			for i, s := range syms {
				ids[i] = s.ID
			}
			return ids, nil
		}
	}

	return nil, nil
}

// nameSeparators are the namespace/path separators a reference name may be
// qualified by across the supported languages (spec §4.D step 2): Rust/C++
// style "::", dotted member access, and slash-qualified paths.
var nameSeparators = []string{"::", ".", "/"}

// lastNameComponent mirrors the original's `name.rsplit("::").next()`
// (adi-indexer/mod.rs:185), chained once per separator instead of just
// "::" (spec §4.D step 2 also wants dotted member access and
// slash-qualified paths resolved to their short name). Chaining one
// rsplit-equivalent per separator is order-independent: whichever
// separator occurs last overall is the one that determines the final
// suffix, since cutting at an earlier separator's last occurrence never
// removes characters past it, and once the true rightmost separator has
// been cut, the remaining suffix contains no further separator for the
// other steps to act on.
func lastNameComponent(name string) string {
	short := name
	for _, sep := range nameSeparators {
		if parts := strings.Split(short, sep); len(parts) > 1 {
			short = parts[len(parts)-1]
		}
	}
	return short
}

func buildEmbedText(name string, kind codegraph.SymbolKind, signature, docComment string) string {
	parts := []string{fmt.Sprintf("%s %s", kind, name)}
	if signature != "" {
		parts = append(parts, signature)
	}
	if docComment != "" {
		parts = append(parts, docComment)
	}
	return strings.Join(parts, " | ")
}

func computeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Status returns the current indexer status.
func (ix *Indexer) Status() (codegraph.Status, error) { return ix.store.GetStatus() }

// FindSymbolsByName returns all symbols with an exact name match.
func (ix *Indexer) FindSymbolsByName(name string) ([]codegraph.Symbol, error) {
	return ix.store.FindSymbolsByName(name)
}

// FTSSearchSymbols runs a full-text search over symbol name/signature/doc.
func (ix *Indexer) FTSSearchSymbols(query string, limit int) ([]graphstore.SymbolMatch, error) {
	return ix.store.FTSSearchSymbols(query, limit)
}

// FTSSearchFiles runs a full-text search over file paths.
func (ix *Indexer) FTSSearchFiles(query string, limit int) ([]graphstore.FileMatch, error) {
	return ix.store.FTSSearchFiles(query, limit)
}

// GetSymbol loads one symbol by id.
func (ix *Indexer) GetSymbol(id codegraph.SymbolID) (codegraph.Symbol, error) {
	return ix.store.GetSymbol(id)
}

// ReachabilityFrom performs a bounded-depth forward walk of the reference
// graph starting at rootID, returning every symbol id reachable within
// maxDepth hops. Used as the dead-code signal (spec §4.D): any
// non-entry-point symbol unreachable from every entry point, and with no
// incoming references, is a root orphan.
func (ix *Indexer) ReachabilityFrom(rootID codegraph.SymbolID, maxDepth int) (map[codegraph.SymbolID]bool, error) {
	visited := map[codegraph.SymbolID]bool{rootID: true}
	frontier := []codegraph.SymbolID{rootID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []codegraph.SymbolID
		for _, id := range frontier {
			refs, err := ix.store.ReferencesFrom(id)
			if err != nil {
				return nil, err
			}
			for _, r := range refs {
				if !visited[r.ToSymbolID] {
					visited[r.ToSymbolID] = true
					next = append(next, r.ToSymbolID)
				}
			}
		}
		frontier = next
	}
	return visited, nil
}

// DeadCode returns every symbol that is not an entry point, is not
// reachable from any entry point, and has no incoming references —
// matching the original's DeadCodeFilter.filter_unreachable.
func (ix *Indexer) DeadCode(maxDepth int) ([]codegraph.Symbol, error) {
	all, err := ix.store.GetAllSymbols()
	if err != nil {
		return nil, err
	}

	reachable := make(map[codegraph.SymbolID]bool)
	for _, s := range all {
		if !s.IsEntryPoint {
			continue
		}
		r, err := ix.ReachabilityFrom(s.ID, maxDepth)
		if err != nil {
			return nil, err
		}
		for id := range r {
			reachable[id] = true
		}
	}

	var dead []codegraph.Symbol
	for _, s := range all {
		if s.IsEntryPoint || reachable[s.ID] {
			continue
		}
		incoming, err := ix.store.ReferencesTo(s.ID)
		if err != nil {
			return nil, err
		}
		if len(incoming) == 0 {
			dead = append(dead, s)
		}
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i].ID < dead[j].ID })
	return dead, nil
}
