package store

import (
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	v, err := s.Get(KeyFeeds)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v != nil {
		t.Errorf("expected nil for missing key, got %q", v)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	blob := []byte(`[{"id":"f1","state":"TX"}]`)
	if err := s.Put(KeyFeeds, blob); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	v, err := s.Get(KeyFeeds)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(v) != string(blob) {
		t.Errorf("expected %q, got %q", blob, v)
	}
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)

	s.Put(KeySettings, []byte(`{"theme":"green"}`))
	s.Put(KeySettings, []byte(`{"theme":"amber"}`))

	v, _ := s.Get(KeySettings)
	if string(v) != `{"theme":"amber"}` {
		t.Errorf("expected replaced value, got %q", v)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	s.Put(KeyGroups, []byte(`[]`))
	if err := s.Delete(KeyGroups); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	v, _ := s.Get(KeyGroups)
	if v != nil {
		t.Error("expected nil after delete")
	}
}

func TestKeys(t *testing.T) {
	s := openTestStore(t)

	s.Put(KeyKeywords, []byte(`[]`))
	s.Put(KeyFeeds, []byte(`[]`))

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != KeyFeeds || keys[1] != KeyKeywords {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	s.Put(KeyFeeds, []byte(`["x"]`))
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	v, _ := s2.Get(KeyFeeds)
	if string(v) != `["x"]` {
		t.Errorf("expected persisted value, got %q", v)
	}
}
