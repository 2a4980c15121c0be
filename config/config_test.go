package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		name    string
		data    string
		wantErr bool
		check   func(Config) bool
	}{
		{
			name:  "empty keeps defaults",
			data:  "",
			check: func(c Config) bool { return c == Default() },
		},
		{
			name: "overrides",
			data: "[server]\naddr = \"127.0.0.1:9000\"\n[log]\nlevel = \"debug\"\nconversion = true\n[scene]\nfps = 30\n",
			check: func(c Config) bool {
				return c.Server.Addr == "127.0.0.1:9000" && c.LogLevel() == log.DebugLevel &&
					c.Log.Conversion && c.Scene.FPS == 30
			},
		},
		{name: "unknown key", data: "[server]\nport = 80\n", wantErr: true},
		{name: "bad level", data: "[log]\nlevel = \"loud\"\n", wantErr: true},
		{name: "bad fps", data: "[scene]\nfps = 0\n", wantErr: true},
		{name: "syntax", data: "[server\n", wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Decode(tc.data)
			if tc.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", c)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tc.check(c) {
				t.Errorf("unexpected config %+v", c)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, DefaultFileName)

	if c, err := Load(missing, false); err != nil || c != Default() {
		t.Errorf("Load of missing default file: %+v, %v", c, err)
	}
	if _, err := Load(missing, true); err == nil {
		t.Error("Load of missing explicit file succeeded")
	}

	if err := os.WriteFile(missing, []byte("[server]\nweb_path = \"static\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(missing, true)
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.WebPath != "static" || c.Server.Addr != ":8000" {
		t.Errorf("loaded %+v", c)
	}
}
