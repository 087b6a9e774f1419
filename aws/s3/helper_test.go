package s3

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn        string
		region     string
		wantName   string
		wantPrefix string
		wantErr    bool
	}{
		{"s3://my-bucket/some/prefix", "eu-west-2", "my-bucket", "some/prefix", false},
		{"s3://my-bucket", "eu-west-2", "my-bucket", "", false},
		{"my-bucket/some/prefix", "eu-west-2", "my-bucket", "some/prefix", false},
		{"s3://my-bucket/prefix", "", "", "", true},
		{"http://my-bucket", "eu-west-2", "", "", true},
	}
	for _, tc := range tests {
		got, err := ParseDSN(tc.dsn, tc.region)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDSN(%q, %q): expected error", tc.dsn, tc.region)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDSN(%q, %q): %v", tc.dsn, tc.region, err)
		}
		if got.Name != tc.wantName || got.Prefix != tc.wantPrefix {
			t.Fatalf("ParseDSN(%q, %q) = %+v; want name %q prefix %q", tc.dsn, tc.region, got, tc.wantName, tc.wantPrefix)
		}
	}
}

func TestMemoryClientContract(t *testing.T) {
	m := NewMemoryClient()
	if _, err := m.Get("missing"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := m.Put("data/a", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := m.Put("data/b", []byte("two")); err != nil {
		t.Fatal(err)
	}
	keys, err := m.List("data/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "data/a" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	got, err := m.Get("data/a")
	if err != nil || string(got) != "one" {
		t.Fatalf("unexpected get: %q %v", got, err)
	}
	if err := m.Delete("data/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get("data/a"); err != ErrKeyNotFound {
		t.Fatalf("expected ErrKeyNotFound after delete, got %v", err)
	}
}
