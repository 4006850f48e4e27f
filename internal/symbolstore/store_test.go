package symbolstore

import (
	"path/filepath"
	"testing"

	"github.com/danebolt/weft/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "symbols.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundtrip(t *testing.T) {
	store := openTestStore(t)

	info := &models.FileSymbolInfo{
		Path: "src/app.ts",
		Imports: []models.ImportRef{
			{Module: "./util", Symbols: []string{"helper"}, Kind: models.ImportStatic},
		},
		Symbols: []models.SymbolInfo{{Name: "App", Kind: "class", Line: 3}},
	}
	hash := Hash([]byte("file content"))

	if err := store.Put("src/app.ts", hash, info); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := store.Get("src/app.ts", hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Path != "src/app.ts" || len(got.Imports) != 1 || got.Imports[0].Module != "./util" {
		t.Errorf("roundtrip = %+v", got)
	}
}

func TestGetMissOnChangedHash(t *testing.T) {
	store := openTestStore(t)

	info := &models.FileSymbolInfo{Path: "a.ts"}
	if err := store.Put("a.ts", Hash([]byte("v1")), info); err != nil {
		t.Fatalf("put: %v", err)
	}

	_, ok, err := store.Get("a.ts", Hash([]byte("v2")))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("stale hash must be a miss")
	}
}

func TestGetMissOnUnknownPath(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.Get("never-seen.ts", Hash([]byte("x")))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("unknown path must be a miss")
	}
}

func TestPutOverwrites(t *testing.T) {
	store := openTestStore(t)

	if err := store.Put("a.ts", Hash([]byte("v1")), &models.FileSymbolInfo{Path: "a.ts"}); err != nil {
		t.Fatal(err)
	}
	updated := &models.FileSymbolInfo{
		Path:    "a.ts",
		Symbols: []models.SymbolInfo{{Name: "New", Kind: "function", Line: 1}},
	}
	newHash := Hash([]byte("v2"))
	if err := store.Put("a.ts", newHash, updated); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get("a.ts", newHash)
	if err != nil || !ok {
		t.Fatalf("get after overwrite: ok=%v err=%v", ok, err)
	}
	if len(got.Symbols) != 1 || got.Symbols[0].Name != "New" {
		t.Errorf("got = %+v", got)
	}
}

func TestHashStable(t *testing.T) {
	a := Hash([]byte("same"))
	b := Hash([]byte("same"))
	c := Hash([]byte("different"))
	if a != b {
		t.Error("hash must be deterministic")
	}
	if a == c {
		t.Error("different content must hash differently")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
