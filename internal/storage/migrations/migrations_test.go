package migrations

import (
	"testing"
	"testing/fstest"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_progress.sql", 1, false},
		{"002_completions.sql", 2, false},
		{"010_something.sql", 10, false},
		{"notaversion.sql", 0, true},
		{"abc_progress.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVersion(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestLoad_Sorted(t *testing.T) {
	fsys := fstest.MapFS{
		"010_late.sql":  {Data: []byte("SELECT 10;")},
		"002_mid.sql":   {Data: []byte("SELECT 2;")},
		"001_first.sql": {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("notes")},
		"readme.sql":    {Data: []byte("-- not versioned")},
	}

	got, err := Load(fsys)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len(Load()) = %d, want 3", len(got))
	}
	for i, want := range []int{1, 2, 10} {
		if got[i].Version != want {
			t.Errorf("Load()[%d].Version = %d, want %d", i, got[i].Version, want)
		}
	}
	if got[0].SQL != "SELECT 1;" {
		t.Errorf("Load()[0].SQL = %q", got[0].SQL)
	}
}

func TestLoad_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Load(fsys); err == nil {
		t.Error("Load() should reject duplicate versions")
	}
}

func TestPending(t *testing.T) {
	all := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	if got := Pending(all, 0); len(got) != 3 {
		t.Errorf("Pending(0) = %d migrations, want 3", len(got))
	}
	if got := Pending(all, 2); len(got) != 1 || got[0].Version != 3 {
		t.Errorf("Pending(2) = %v, want [3]", got)
	}
	if got := Pending(all, 3); len(got) != 0 {
		t.Errorf("Pending(3) = %v, want none", got)
	}
}

func TestEmbedded(t *testing.T) {
	for name, fsys := range map[string]func() []Migration{
		"sqlite":   func() []Migration { m, _ := Load(SQLite()); return m },
		"postgres": func() []Migration { m, _ := Load(Postgres()); return m },
	} {
		if got := fsys(); len(got) != 2 {
			t.Errorf("%s migrations = %d, want 2", name, len(got))
		}
	}
}
