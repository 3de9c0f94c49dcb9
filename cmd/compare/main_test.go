package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pricelens/backend/internal/domain"
)

func TestParseCatalogFlag(t *testing.T) {
	tests := []struct {
		value     string
		wantStore string
		wantPath  string
		wantErr   bool
	}{
		{"spar=exports/spar.csv", "spar", "exports/spar.csv", false},
		{" tus = tus.csv ", "tus", "tus.csv", false},
		{"mercator=/tmp/a=b.csv", "mercator", "/tmp/a=b.csv", false},
		{"spar.csv", "", "", true},
		{"=spar.csv", "", "", true},
		{"spar=", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			store, path, err := parseCatalogFlag(tt.value)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Errorf("error = %v, want ErrInvalidRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCatalogFlag(%q) error = %v", tt.value, err)
			}
			if store != tt.wantStore || path != tt.wantPath {
				t.Errorf("parseCatalogFlag(%q) = %q, %q, want %q, %q", tt.value, store, path, tt.wantStore, tt.wantPath)
			}
		})
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	cfgPath := write("pricelens.yaml", "stores: [spar, mercator, tus]\n")
	spar := write("spar.csv", "name,price\nMleko Alpsko 3.5% 1L,\"1,29 €\"\n")
	mercator := write("mercator.csv", "name,price\n\"Alpsko mleko 1l 3,5%\",\"1,25 €\"\n")
	tus := write("tus.csv", "name,price\nAlpsko mleko poltrajno 1L,\"1,19 €\"\n")
	out := filepath.Join(dir, "out.csv")

	err := run(context.Background(), options{
		Catalogs: []string{"spar=" + spar, "mercator=" + mercator, "tus=" + tus},
		Config:   cfgPath,
		Format:   "csv",
		Out:      out,
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "canonical_name,price_spar,price_mercator,price_tus,cheapest_store,price_spread\n" +
		"Alpsko mleko poltrajno 1L,1.29,1.25,1.19,tus,0.10\n"
	if string(data) != want {
		t.Errorf("output =\n%s\nwant\n%s", data, want)
	}

	t.Run("unknown store fails", func(t *testing.T) {
		err := run(context.Background(), options{
			Catalogs: []string{"lidl=" + spar},
			Config:   cfgPath,
			Format:   "json",
			Out:      filepath.Join(dir, "lidl.json"),
		})
		if !errors.Is(err, domain.ErrUnknownStore) {
			t.Errorf("error = %v, want ErrUnknownStore", err)
		}
	})

	t.Run("json output", func(t *testing.T) {
		jsonOut := filepath.Join(dir, "out.json")
		err := run(context.Background(), options{
			Catalogs: []string{"spar=" + spar, "tus=" + tus},
			Config:   cfgPath,
			Format:   "json",
			Out:      jsonOut,
		})
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
		data, _ := os.ReadFile(jsonOut)
		if !strings.Contains(string(data), `"price_mercator": null`) {
			t.Errorf("output = %s, want null mercator price", data)
		}
	})
}
