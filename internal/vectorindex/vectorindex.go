// Package vectorindex implements the vector index (spec §4.C): an opaque
// container mapping a SymbolId to a fixed-dimension embedding, supporting
// add/remove/search. Grounded in the teacher's
// internal/store/vec_compat.go, which registers a vec0-compatible virtual
// table and a cosine distance scalar function against a
// modernc.org/sqlite connection (the teacher's own dependency, used
// there as a pure-Go fallback for sqlite-vec). Durable storage for the
// embedding bytes is a plain table (vec0 itself, per the teacher's
// comment, keeps its rows in an in-process map and loses them on
// restart); Open replays that table into the virtual table so Search
// works immediately after reopening.
package vectorindex

import (
	"database/sql"
	"database/sql/driver"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"adi/internal/codegraph"
	"adi/internal/errs"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"go.uber.org/zap"
)

// ErrDuplicateKey is returned by Add when id is already present. Callers
// performing re-indexing should Remove then Add (spec §4.C, §4.D step 6).
var ErrDuplicateKey = errors.New("vectorindex: duplicate key")

// Match is one search result: a symbol id and its similarity score
// (1 - cosine distance; higher is more similar).
type Match struct {
	ID    codegraph.SymbolID
	Score float64
}

// Index is a fixed-dimension embedding store for one project, persisted
// adjacent to the graph database.
type Index struct {
	db   *sql.DB
	mu   sync.RWMutex
	dims int
	log  *zap.Logger
}

var registerOnce sync.Once

// Open creates (or attaches to) the vector index at path with the given
// embedding dimensionality.
func Open(path string, dims int, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dims <= 0 {
		return nil, &errs.VectorIndexError{Detail: fmt.Sprintf("invalid dimensions %d", dims)}
	}

	registerOnce.Do(registerVecCompat)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &errs.VectorIndexError{Detail: "open sqlite", Cause: err}
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS vectors (symbol_id INTEGER PRIMARY KEY, embedding BLOB NOT NULL)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_index USING vec0(embedding, content, metadata)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, &errs.VectorIndexError{Detail: "init schema", Cause: err}
		}
	}

	idx := &Index{db: db, dims: dims, log: log.With(zap.String("component", "vectorindex"))}
	if err := idx.rehydrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// rehydrate repopulates the in-memory vec0 virtual table from the durable
// vectors table, since the compat module does not survive a process
// restart on its own.
func (idx *Index) rehydrate() error {
	rows, err := idx.db.Query(`SELECT symbol_id, embedding FROM vectors`)
	if err != nil {
		return &errs.VectorIndexError{Detail: "rehydrate: query vectors", Cause: err}
	}
	defer rows.Close()

	type row struct {
		id  int64
		emb []byte
	}
	var buffered []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.emb); err != nil {
			return &errs.VectorIndexError{Detail: "rehydrate: scan", Cause: err}
		}
		buffered = append(buffered, r)
	}
	if err := rows.Err(); err != nil {
		return &errs.VectorIndexError{Detail: "rehydrate: iterate", Cause: err}
	}

	for _, r := range buffered {
		if _, err := idx.db.Exec(
			`INSERT INTO vec_index (rowid, embedding, content, metadata) VALUES (?, ?, '', '')`,
			r.id, r.emb,
		); err != nil {
			return &errs.VectorIndexError{Detail: "rehydrate: populate vec_index", Cause: err}
		}
	}
	idx.log.Debug("rehydrated vector index", zap.Int("entries", len(buffered)))
	return nil
}

// Add inserts a new embedding for id. Returns ErrDuplicateKey if id is
// already present.
func (idx *Index) Add(id codegraph.SymbolID, vec []float32) error {
	if len(vec) != idx.dims {
		return &errs.VectorIndexError{Detail: fmt.Sprintf("dimension mismatch: got %d want %d", len(vec), idx.dims)}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var exists int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM vectors WHERE symbol_id = ?`, id).Scan(&exists); err != nil {
		return &errs.VectorIndexError{Detail: "add: check existing", Cause: err}
	}
	if exists > 0 {
		return ErrDuplicateKey
	}

	blob := encodeFloat32(vec)
	if _, err := idx.db.Exec(`INSERT INTO vectors (symbol_id, embedding) VALUES (?, ?)`, id, blob); err != nil {
		return &errs.VectorIndexError{Detail: "add: insert vectors", Cause: err}
	}
	if _, err := idx.db.Exec(
		`INSERT INTO vec_index (rowid, embedding, content, metadata) VALUES (?, ?, '', '')`, id, blob,
	); err != nil {
		return &errs.VectorIndexError{Detail: "add: insert vec_index", Cause: err}
	}
	return nil
}

// Remove deletes id's embedding, if present. Removing an absent id is not
// an error.
func (idx *Index) Remove(id codegraph.SymbolID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec(`DELETE FROM vectors WHERE symbol_id = ?`, id); err != nil {
		return &errs.VectorIndexError{Detail: "remove: delete vectors", Cause: err}
	}
	if _, err := idx.db.Exec(`DELETE FROM vec_index WHERE rowid = ?`, id); err != nil {
		return &errs.VectorIndexError{Detail: "remove: delete vec_index", Cause: err}
	}
	return nil
}

// Search returns the k nearest neighbors of vec by cosine similarity,
// best match first.
func (idx *Index) Search(vec []float32, k int) ([]Match, error) {
	if len(vec) != idx.dims {
		return nil, &errs.VectorIndexError{Detail: fmt.Sprintf("dimension mismatch: got %d want %d", len(vec), idx.dims)}
	}
	if k <= 0 {
		k = 10
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	blob := encodeFloat32(vec)
	rows, err := idx.db.Query(
		`SELECT rowid, vector_distance_cos(embedding, ?) AS dist FROM vec_index ORDER BY dist ASC LIMIT ?`,
		blob, k,
	)
	if err != nil {
		return nil, &errs.VectorIndexError{Detail: "search", Cause: err}
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var id int64
		var dist float64
		if err := rows.Scan(&id, &dist); err != nil {
			return nil, &errs.VectorIndexError{Detail: "search: scan", Cause: err}
		}
		out = append(out, Match{ID: codegraph.SymbolID(id), Score: 1 - dist})
	}
	if err := rows.Err(); err != nil {
		return nil, &errs.VectorIndexError{Detail: "search: iterate", Cause: err}
	}
	return out, nil
}

// Save issues a passive WAL checkpoint. Embeddings are already written
// through on every Add/Remove, and Open leaves the connection in SQLite's
// default rollback-journal mode, so the checkpoint has nothing to flush;
// Save exists so callers matching spec §4.C's save() step (end of an index
// run) have an explicit point to call.
func (idx *Index) Save() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if _, err := idx.db.Exec(`PRAGMA wal_checkpoint(PASSIVE)`); err != nil {
		return &errs.VectorIndexError{Detail: "save: checkpoint", Cause: err}
	}
	return nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error { return idx.db.Close() }

func encodeFloat32(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeFloat32(v driver.Value) ([]float32, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("vector_distance_cos: unsupported type %T", v)
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector_distance_cos: blob length %d not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

func vecDistanceCos(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("vector_distance_cos expects 2 arguments")
	}
	a, err := decodeFloat32(args[0])
	if err != nil {
		return nil, err
	}
	b, err := decodeFloat32(args[1])
	if err != nil {
		return nil, err
	}
	if len(a) != len(b) || len(a) == 0 {
		return float64(1), nil
	}
	var dot, na, nb float64
	for i := range a {
		af, bf := float64(a[i]), float64(b[i])
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return float64(1), nil
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb)), nil
}

// registerVecCompat installs the vec0 virtual table module and the
// vector_distance_cos scalar function process-wide. Both registrations
// are global in modernc.org/sqlite, hence sync.Once at the package level.
func registerVecCompat() {
	_ = vtab.RegisterModule(nil, "vec0", &vecModule{})
	_ = sqlite.RegisterDeterministicScalarFunction("vector_distance_cos", 2, vecDistanceCos)
}

// vecModule is a minimal in-memory vec0 virtual table keyed by explicit
// rowid, so Index can address rows by SymbolID.
type vecModule struct{}

var (
	vecTablesMu sync.RWMutex
	vecTables   = make(map[string]*vecTable)
)

type vecTable struct {
	name string
	mu   sync.RWMutex
	rows map[int64]vecRow
}

type vecRow struct {
	embedding []byte
	content   string
	metadata  string
}

func (m *vecModule) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *vecModule) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *vecModule) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("vec0: insufficient args")
	}
	name := args[2]
	if err := ctx.Declare("CREATE TABLE x(embedding BLOB, content TEXT, metadata TEXT)"); err != nil {
		return nil, err
	}

	vecTablesMu.Lock()
	defer vecTablesMu.Unlock()
	tbl, ok := vecTables[name]
	if !ok {
		tbl = &vecTable{name: name, rows: make(map[int64]vecRow)}
		vecTables[name] = tbl
	}
	return tbl, nil
}

func (t *vecTable) BestIndex(info *vtab.IndexInfo) error {
	info.EstimatedRows = int64(len(t.rows))
	return nil
}

func (t *vecTable) Open() (vtab.Cursor, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]int64, 0, len(t.rows))
	for id := range t.rows {
		ids = append(ids, id)
	}
	return &vecCursor{tbl: t, ids: ids, idx: -1}, nil
}

func (t *vecTable) Disconnect() error { return nil }
func (t *vecTable) Destroy() error    { return nil }

func (t *vecTable) Insert(cols []vtab.Value, rowid *int64) error {
	if len(cols) < 3 {
		return fmt.Errorf("vec0: insert expects 3 columns")
	}
	emb, err := coerceBlob(cols[0])
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	id := *rowid
	t.rows[id] = vecRow{embedding: emb, content: toString(cols[1]), metadata: toString(cols[2])}
	return nil
}

func (t *vecTable) Update(oldRowid int64, cols []vtab.Value, newRowid *int64) error {
	if len(cols) < 3 {
		return fmt.Errorf("vec0: update expects 3 columns")
	}
	emb, err := coerceBlob(cols[0])
	if err != nil {
		return err
	}
	target := oldRowid
	if newRowid != nil && *newRowid > 0 {
		target = *newRowid
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, oldRowid)
	t.rows[target] = vecRow{embedding: emb, content: toString(cols[1]), metadata: toString(cols[2])}
	return nil
}

func (t *vecTable) Delete(oldRowid int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rows, oldRowid)
	return nil
}

type vecCursor struct {
	tbl *vecTable
	ids []int64
	idx int
}

func (c *vecCursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.idx = -1
	return c.Next()
}

func (c *vecCursor) Next() error {
	c.idx++
	return nil
}

func (c *vecCursor) Eof() bool { return c.idx >= len(c.ids) }

func (c *vecCursor) Column(col int) (vtab.Value, error) {
	c.tbl.mu.RLock()
	defer c.tbl.mu.RUnlock()
	row, ok := c.tbl.rows[c.ids[c.idx]]
	if !ok {
		return nil, fmt.Errorf("vec0: cursor out of range")
	}
	switch col {
	case 0:
		return row.embedding, nil
	case 1:
		return row.content, nil
	case 2:
		return row.metadata, nil
	default:
		return nil, fmt.Errorf("vec0: invalid column %d", col)
	}
}

func (c *vecCursor) Rowid() (int64, error) { return c.ids[c.idx], nil }

func (c *vecCursor) Close() error { return nil }

func coerceBlob(v vtab.Value) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		cp := make([]byte, len(x))
		copy(cp, x)
		return cp, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("vec0: unsupported embedding type %T", v)
	}
}

func toString(v vtab.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
